// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package pebble - column families over a single Pebble database
//
// same key layout as the LevelDB engine, but dropping a family is a
// single range deletion
package pebble

import (
	"bytes"
	"errors"
	"sync"

	cockroach "github.com/cockroachdb/pebble"

	"github.com/bitmark-inc/cfdb/engine"
	"github.com/bitmark-inc/cfdb/engine/keyspace"
	"github.com/bitmark-inc/cfdb/fault"
	"github.com/bitmark-inc/logger"
)

// Name - registered engine name
const Name = "pebble"

type plugin struct{}

// Plugin - the Pebble engine factory
func Plugin() engine.Plugin {
	return plugin{}
}

func (plugin) Name() string {
	return Name
}

func (plugin) Open(options engine.Options) (engine.Engine, error) {
	return Open(options)
}

// Store - an open Pebble database
type Store struct {
	sync.RWMutex

	log     *logger.L
	path    string
	db      *cockroach.DB
	write   *cockroach.WriteOptions
	catalog *keyspace.Catalog
}

// Open - open or create a database in options.Path
func Open(options engine.Options) (*Store, error) {
	if "" == options.Path {
		return nil, fault.ErrMissingPath
	}

	log := logger.New(Name)

	db, err := cockroach.Open(options.Path, &cockroach.Options{})
	if nil != err {
		log.Errorf("open: %q  error: %s", options.Path, err)
		return nil, err
	}

	write := cockroach.NoSync
	if options.Sync {
		write = cockroach.Sync
	}

	s := &Store{
		log:     log,
		path:    options.Path,
		db:      db,
		write:   write,
		catalog: keyspace.NewCatalog(),
	}

	if err := s.load(); nil != err {
		log.Errorf("load catalog: %q  error: %s", options.Path, err)
		db.Close()
		return nil, err
	}

	if err := s.purgeOrphans(); nil != err {
		log.Errorf("purge: %q  error: %s", options.Path, err)
		db.Close()
		return nil, err
	}

	log.Infof("opened: %q  families: %v", options.Path, s.catalog.Names())
	return s, nil
}

func (s *Store) load() error {
	_, limit := prefixRange(keyspace.CatalogPrefix)
	iter, err := s.db.NewIter(&cockroach.IterOptions{
		LowerBound: keyspace.CatalogPrefix,
		UpperBound: limit,
	})
	if nil != err {
		return err
	}
	for ok := iter.First(); ok; ok = iter.Next() {
		if err := s.catalog.Load(iter.Key(), iter.Value()); nil != err {
			iter.Close()
			return err
		}
	}
	if err := iter.Close(); nil != err {
		return err
	}

	next, err := s.get(keyspace.NextIDKey)
	if nil != err {
		return err
	}
	if nil == next {
		return nil
	}
	return s.catalog.LoadNextID(next)
}

func (s *Store) purgeOrphans() error {
	start := keyspace.DataStart
	for {
		iter, err := s.db.NewIter(&cockroach.IterOptions{
			LowerBound: start,
			UpperBound: keyspace.DataLimit,
		})
		if nil != err {
			return err
		}
		found := iter.First()
		id := uint32(0)
		if found {
			id, _, found = keyspace.SplitDataKey(iter.Key())
		}
		if err := iter.Close(); nil != err {
			return err
		}
		if !found {
			return nil
		}

		rangeStart, rangeLimit := keyspace.DataRange(id)
		if !s.catalog.Live(id) {
			s.log.Warnf("purge orphan family id: %d", id)
			if err := s.db.DeleteRange(rangeStart, rangeLimit, s.write); nil != err {
				return err
			}
		}
		if bytes.Equal(rangeLimit, keyspace.DataLimit) {
			return nil
		}
		start = rangeLimit
	}
}

// copy of a value, nil if absent
func (s *Store) get(key []byte) ([]byte, error) {
	value, closer, err := s.db.Get(key)
	if errors.Is(err, cockroach.ErrNotFound) {
		return nil, nil
	} else if nil != err {
		return nil, err
	}
	result := make([]byte, len(value))
	copy(result, value)
	closer.Close()
	return result, nil
}

// Name - engine name
func (s *Store) Name() string {
	return Name
}

// Path - database directory
func (s *Store) Path() string {
	return s.path
}

// Close - close the database, further calls return fault.ErrStoreClosed
func (s *Store) Close() error {
	s.Lock()
	defer s.Unlock()

	if nil == s.db {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	s.log.Infof("closed: %q", s.path)
	return err
}

// ColumnFamilies - all families with their options
func (s *Store) ColumnFamilies() (map[string]engine.ColumnOptions, error) {
	s.RLock()
	defer s.RUnlock()

	if nil == s.db {
		return nil, fault.ErrStoreClosed
	}
	return s.catalog.Families(), nil
}

// CreateColumnFamily - add an empty family
func (s *Store) CreateColumnFamily(name string, options engine.ColumnOptions) error {
	if err := engine.CheckComparator(options); nil != err {
		return err
	}

	s.Lock()
	defer s.Unlock()

	if nil == s.db {
		return fault.ErrStoreClosed
	}

	family, entries, err := s.catalog.Reserve(name, options)
	if nil != err {
		return err
	}

	batch := s.db.NewBatch()
	defer batch.Close()
	for _, e := range entries {
		if err := batch.Set(e.Key, e.Value, nil); nil != err {
			return err
		}
	}
	if err := batch.Commit(s.write); nil != err {
		return err
	}
	s.catalog.Commit(name, family)

	s.log.Debugf("created family: %q  id: %d", name, family.ID)
	return nil
}

// DropColumnFamily - remove a family and its data in one batch
func (s *Store) DropColumnFamily(name string) error {
	s.Lock()
	defer s.Unlock()

	if nil == s.db {
		return fault.ErrStoreClosed
	}

	family, ok := s.catalog.Lookup(name)
	if !ok {
		return fault.ErrColumnFamilyNotFound
	}

	start, limit := keyspace.DataRange(family.ID)

	batch := s.db.NewBatch()
	defer batch.Close()
	if err := batch.Delete(keyspace.CatalogKey(name), nil); nil != err {
		return err
	}
	if err := batch.DeleteRange(start, limit, nil); nil != err {
		return err
	}
	if err := batch.Commit(s.write); nil != err {
		return err
	}
	s.catalog.Remove(name)

	s.log.Debugf("dropped family: %q  id: %d", name, family.ID)
	return nil
}

func (s *Store) family(name string) (uint32, error) {
	if nil == s.db {
		return 0, fault.ErrStoreClosed
	}
	family, ok := s.catalog.Lookup(name)
	if !ok {
		return 0, fault.ErrColumnFamilyNotFound
	}
	return family.ID, nil
}

// Get - fetch a copy of a value, nil if not present
func (s *Store) Get(name string, key []byte) ([]byte, error) {
	if 0 == len(key) {
		return nil, fault.ErrEmptyKey
	}

	s.RLock()
	defer s.RUnlock()

	id, err := s.family(name)
	if nil != err {
		return nil, err
	}
	return s.get(keyspace.DataKey(id, key))
}

// Put - store a value
func (s *Store) Put(name string, key []byte, value []byte) error {
	if 0 == len(key) {
		return fault.ErrEmptyKey
	}

	s.RLock()
	defer s.RUnlock()

	id, err := s.family(name)
	if nil != err {
		return err
	}
	return s.db.Set(keyspace.DataKey(id, key), value, s.write)
}

// Delete - remove a key
func (s *Store) Delete(name string, key []byte) error {
	if 0 == len(key) {
		return fault.ErrEmptyKey
	}

	s.RLock()
	defer s.RUnlock()

	id, err := s.family(name)
	if nil != err {
		return err
	}
	return s.db.Delete(keyspace.DataKey(id, key), s.write)
}

// NewIterator - iterate a family from start
//
// pebble iterators read the state as of their creation
func (s *Store) NewIterator(name string, start []byte) (engine.Iterator, error) {
	s.RLock()
	defer s.RUnlock()

	id, err := s.family(name)
	if nil != err {
		return nil, err
	}

	lower, upper := keyspace.DataRange(id)
	iter, err := s.db.NewIter(&cockroach.IterOptions{
		LowerBound: lower,
		UpperBound: upper,
	})
	if nil != err {
		return nil, err
	}

	seek := []byte(nil)
	if 0 != len(start) {
		seek = keyspace.DataKey(id, start)
	}
	return &iterator{iter: iter, seek: seek}, nil
}

type iterator struct {
	iter    *cockroach.Iterator
	seek    []byte
	started bool
	err     error
}

func (i *iterator) Next() bool {
	if !i.started {
		i.started = true
		if nil == i.seek {
			return i.iter.First()
		}
		return i.iter.SeekGE(i.seek)
	}
	return i.iter.Next()
}

func (i *iterator) Key() []byte {
	_, key, ok := keyspace.SplitDataKey(i.iter.Key())
	if !ok {
		return nil
	}
	return key
}

func (i *iterator) Value() []byte {
	return i.iter.Value()
}

func (i *iterator) Error() error {
	if nil != i.err || nil == i.iter {
		return i.err
	}
	return i.iter.Error()
}

func (i *iterator) Release() {
	if nil == i.iter {
		return
	}
	i.err = i.iter.Close()
	i.iter = nil
}

// the smallest key greater than every key with the prefix
func prefixRange(prefix []byte) ([]byte, []byte) {
	limit := append([]byte{}, prefix...)
	for i := len(limit) - 1; i >= 0; i -= 1 {
		limit[i] += 1
		if 0 != limit[i] {
			return prefix, limit[:i+1]
		}
	}
	return prefix, nil
}
