// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage

import (
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	cache "github.com/patrickmn/go-cache"
)

// number of key lock stripes, a power of two
const cacheStripes = 64

// result of a cache lookup
type cacheState int

const (
	cacheMiss    cacheState = iota // nothing known, ask the engine
	cachePresent                   // value is current
	cacheAbsent                    // key was deleted
)

const (
	dbPut = iota
	dbDelete
)

type cacheData struct {
	op    int
	value []byte
}

// write-through cache of recently used records
//
// callers hold the key's stripe lock across the engine access and the
// cache update, so the cache always reflects the last engine write
type readCache struct {
	cache   *cache.Cache
	expires time.Duration
	stripes [cacheStripes]sync.Mutex
}

func newReadCache(expires time.Duration) *readCache {
	return &readCache{
		cache:   cache.New(expires, 2*expires),
		expires: expires,
	}
}

func cacheKey(family string, key []byte) string {
	return family + "\x00" + string(key)
}

// lock the stripe of a key, returns the unlock function
func (c *readCache) lock(family string, key []byte) func() {
	m := &c.stripes[xxhash.Sum64String(cacheKey(family, key))&(cacheStripes-1)]
	m.Lock()
	return m.Unlock
}

func (c *readCache) get(family string, key []byte) ([]byte, cacheState) {
	obj, found := c.cache.Get(cacheKey(family, key))
	if !found {
		return nil, cacheMiss
	}

	data := obj.(cacheData)
	if dbDelete == data.op {
		return nil, cacheAbsent
	}

	value := make([]byte, len(data.value))
	copy(value, data.value)
	return value, cachePresent
}

func (c *readCache) set(op int, family string, key []byte, value []byte) {
	cached := cacheData{
		op:    op,
		value: append([]byte{}, value...),
	}
	c.cache.Set(cacheKey(family, key), cached, c.expires)
}

// after a failed write the engine state is unknown
func (c *readCache) forget(family string, key []byte) {
	c.cache.Delete(cacheKey(family, key))
}

func (c *readCache) clear() {
	c.cache.Flush()
}
