// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage

import (
	"sort"
	"sync"

	"golang.org/x/crypto/sha3"
	"golang.org/x/time/rate"

	"github.com/bitmark-inc/cfdb/codec"
	"github.com/bitmark-inc/cfdb/engine"
	"github.com/bitmark-inc/cfdb/failpoint"
	"github.com/bitmark-inc/cfdb/fault"
	"github.com/bitmark-inc/cfdb/ratelimit"
	"github.com/bitmark-inc/logger"
)

// DigestSize - bytes in a family digest
const DigestSize = 32

// Handle - an open store
//
// safe for concurrent use; families are addressed by name and any
// family that exists in the store is visible, including the old
// generation while a migration step runs
type Handle struct {
	log        *logger.L
	engine     engine.Engine
	cache      *readCache
	failpoints failpoint.Failpoints
	limiter    *rate.Limiter
	journal    journal

	stepLock sync.RWMutex
	step     string
}

func newHandle(log *logger.L, e engine.Engine, options Options) *Handle {
	h := &Handle{
		log:        log,
		engine:     e,
		failpoints: options.Failpoints,
		limiter:    ratelimit.New(options.MigrationRate, options.MigrationBurst),
	}
	if nil == h.failpoints {
		h.failpoints = failpoint.None()
	}
	if options.CacheExpiry > 0 {
		h.cache = newReadCache(options.CacheExpiry)
	}
	return h
}

// Engine - the underlying engine
func (h *Handle) Engine() engine.Engine {
	return h.engine
}

// Path - the store directory
func (h *Handle) Path() string {
	return h.engine.Path()
}

// Close - release the store
func (h *Handle) Close() error {
	if nil != h.cache {
		h.cache.clear()
	}
	err := h.engine.Close()
	countOperation("close", err)
	if nil != err {
		return &IOError{Op: "close", Err: err}
	}
	return nil
}

// all families including internal ones
func (h *Handle) families() (map[string]engine.ColumnOptions, error) {
	families, err := h.engine.ColumnFamilies()
	countOperation("families", err)
	if nil != err {
		return nil, &IOError{Op: "families", Err: err}
	}
	return families, nil
}

// ColumnFamilies - sorted names of the caller visible families
func (h *Handle) ColumnFamilies() ([]string, error) {
	families, err := h.families()
	if nil != err {
		return nil, err
	}
	names := make([]string, 0, len(families))
	for name := range families {
		if !IsInternal(name) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

// HasColumnFamily - true if the family exists
func (h *Handle) HasColumnFamily(name string) (bool, error) {
	families, err := h.families()
	if nil != err {
		return false, err
	}
	_, ok := families[name]
	return ok, nil
}

func (h *Handle) createColumnFamily(d ColumnDescriptor) error {
	err := h.engine.CreateColumnFamily(d.Name, d.Options)
	countOperation("create", err)
	if nil != err {
		return &IOError{Op: "create", Family: d.Name, Err: err}
	}
	return nil
}

func (h *Handle) dropColumnFamily(name string) error {
	err := h.engine.DropColumnFamily(name)
	countOperation("drop", err)
	if nil != h.cache {
		h.cache.clear()
	}
	if nil != err {
		return &IOError{Op: "drop", Family: name, Err: err}
	}
	return nil
}

// Get - read a raw value, nil if the key is absent
//
// with the cache enabled the engine read and the cache fill hold the
// key's stripe lock so a slow read cannot replace a newer write
func (h *Handle) Get(family string, key []byte) ([]byte, error) {
	if 0 == len(key) {
		countOperation("get", fault.ErrEmptyKey)
		return nil, fault.ErrEmptyKey
	}
	if nil == h.cache {
		return h.get(family, key)
	}

	unlock := h.cache.lock(family, key)
	defer unlock()

	value, state := h.cache.get(family, key)
	switch state {
	case cachePresent:
		countOperation("get", nil)
		return value, nil
	case cacheAbsent:
		countOperation("get", nil)
		return nil, nil
	}

	value, err := h.get(family, key)
	if nil != err {
		return nil, err
	}
	if nil == value {
		h.cache.set(dbDelete, family, key, nil)
	} else {
		h.cache.set(dbPut, family, key, value)
	}
	return value, nil
}

func (h *Handle) get(family string, key []byte) ([]byte, error) {
	value, err := h.engine.Get(family, key)
	countOperation("get", err)
	if nil != err {
		return nil, &IOError{Op: "get", Family: family, Err: err}
	}
	return value, nil
}

// Put - write a raw value
func (h *Handle) Put(family string, key []byte, value []byte) error {
	if 0 == len(key) {
		countOperation("put", fault.ErrEmptyKey)
		return fault.ErrEmptyKey
	}
	if nil != h.cache {
		defer h.cache.lock(family, key)()
	}

	err := h.engine.Put(family, key, value)
	countOperation("put", err)
	if nil != err {
		if nil != h.cache {
			h.cache.forget(family, key)
		}
		return &IOError{Op: "put", Family: family, Err: err}
	}
	if nil != h.cache {
		h.cache.set(dbPut, family, key, value)
	}
	return nil
}

// Delete - remove a raw key, absent keys are not an error
func (h *Handle) Delete(family string, key []byte) error {
	if 0 == len(key) {
		countOperation("delete", fault.ErrEmptyKey)
		return fault.ErrEmptyKey
	}
	if nil != h.cache {
		defer h.cache.lock(family, key)()
	}

	err := h.engine.Delete(family, key)
	countOperation("delete", err)
	if nil != err {
		if nil != h.cache {
			h.cache.forget(family, key)
		}
		return &IOError{Op: "delete", Family: family, Err: err}
	}
	if nil != h.cache {
		h.cache.set(dbDelete, family, key, nil)
	}
	return nil
}

// raw iterator, see the engine for its snapshot behaviour
func (h *Handle) iterator(family string, start []byte) (engine.Iterator, error) {
	iter, err := h.engine.NewIterator(family, start)
	countOperation("iterate", err)
	if nil != err {
		return nil, &IOError{Op: "iterate", Family: family, Err: err}
	}
	return iter, nil
}

// Iterate - call f for every record in key order
//
// the slices passed to f are only valid during the call; an error
// from f stops the iteration and is returned unchanged
func (h *Handle) Iterate(family string, f func(key []byte, value []byte) error) error {
	return h.IterateFrom(family, nil, f)
}

// IterateFrom - Iterate beginning at the first key not less than start
func (h *Handle) IterateFrom(family string, start []byte, f func(key []byte, value []byte) error) error {
	iter, err := h.iterator(family, start)
	if nil != err {
		return err
	}
	defer iter.Release()

	for iter.Next() {
		if err := f(iter.Key(), iter.Value()); nil != err {
			return err
		}
	}
	if err := iter.Error(); nil != err {
		return &IOError{Op: "iterate", Family: family, Err: err}
	}
	return nil
}

// Count - number of records in a family
func (h *Handle) Count(family string) (int, error) {
	n := 0
	err := h.Iterate(family, func([]byte, []byte) error {
		n += 1
		return nil
	})
	return n, err
}

// Digest - SHA3-256 of a family's records in key order
//
// each key and value is length prefixed so that equal digests mean
// equal contents
func (h *Handle) Digest(family string) ([DigestSize]byte, error) {
	digest := [DigestSize]byte{}
	hash := sha3.New256()
	err := h.Iterate(family, func(key []byte, value []byte) error {
		buffer := &codec.Buffer{}
		buffer.PutBytes(key)
		buffer.PutBytes(value)
		_, err := hash.Write(buffer.Bytes())
		return err
	})
	if nil != err {
		return digest, err
	}
	copy(digest[:], hash.Sum(nil))
	return digest, nil
}

// Failpoint - check a named failure hook
func (h *Handle) Failpoint(name string) error {
	err := h.failpoints.Check(name)
	if nil != err {
		h.log.Warnf("failpoint: %q  fired: %s", name, err)
	}
	return err
}

// Progress - account for one migrated record
//
// waits for the migration rate limit, counts the record and then
// checks the migration failpoint
func (h *Handle) Progress() error {
	if err := ratelimit.Limit(h.limiter); nil != err {
		return err
	}
	migrationRecordsTotal.WithLabelValues(h.currentStep()).Inc()
	return h.Failpoint(failpoint.Migration)
}

func (h *Handle) setStep(step string) {
	h.stepLock.Lock()
	h.step = step
	h.stepLock.Unlock()
}

func (h *Handle) currentStep() string {
	h.stepLock.RLock()
	defer h.stepLock.RUnlock()
	return h.step
}

