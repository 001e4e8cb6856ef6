// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package leveldb - column families over a single LevelDB database
//
// families are key prefixes allocated by the keyspace catalog
package leveldb

import (
	"bytes"
	"sync"

	goleveldb "github.com/syndtr/goleveldb/leveldb"
	ldb_iterator "github.com/syndtr/goleveldb/leveldb/iterator"
	ldb_opt "github.com/syndtr/goleveldb/leveldb/opt"
	ldb_util "github.com/syndtr/goleveldb/leveldb/util"

	"github.com/bitmark-inc/cfdb/engine"
	"github.com/bitmark-inc/cfdb/engine/keyspace"
	"github.com/bitmark-inc/cfdb/fault"
	"github.com/bitmark-inc/logger"
)

// Name - registered engine name
const Name = "leveldb"

// number of deletes per batch when purging a dropped family
const purgeBatchSize = 1000

type plugin struct{}

// Plugin - the LevelDB engine factory
func Plugin() engine.Plugin {
	return plugin{}
}

func (plugin) Name() string {
	return Name
}

func (plugin) Open(options engine.Options) (engine.Engine, error) {
	return Open(options)
}

// Store - an open LevelDB database
type Store struct {
	sync.RWMutex

	log     *logger.L
	path    string
	db      *goleveldb.DB
	write   *ldb_opt.WriteOptions
	catalog *keyspace.Catalog
}

// Open - open or create a database in options.Path
func Open(options engine.Options) (*Store, error) {
	if "" == options.Path {
		return nil, fault.ErrMissingPath
	}

	log := logger.New(Name)

	opt := &ldb_opt.Options{
		ErrorIfExist:   false,
		ErrorIfMissing: false,
	}
	db, err := goleveldb.OpenFile(options.Path, opt)
	if nil != err {
		log.Errorf("open: %q  error: %s", options.Path, err)
		return nil, err
	}

	s := &Store{
		log:     log,
		path:    options.Path,
		db:      db,
		write:   &ldb_opt.WriteOptions{Sync: options.Sync},
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

// read the catalog and the id allocator
func (s *Store) load() error {
	iter := s.db.NewIterator(ldb_util.BytesPrefix(keyspace.CatalogPrefix), nil)
	for iter.Next() {
		if err := s.catalog.Load(iter.Key(), iter.Value()); nil != err {
			iter.Release()
			return err
		}
	}
	iter.Release()
	if err := iter.Error(); nil != err {
		return err
	}

	next, err := s.db.Get(keyspace.NextIDKey, nil)
	if goleveldb.ErrNotFound == err {
		return nil
	} else if nil != err {
		return err
	}
	return s.catalog.LoadNextID(next)
}

// remove data left behind by a drop that was interrupted
func (s *Store) purgeOrphans() error {
	start := keyspace.DataStart
	for {
		iter := s.db.NewIterator(&ldb_util.Range{Start: start, Limit: keyspace.DataLimit}, nil)
		found := iter.Next()
		id := uint32(0)
		if found {
			id, _, found = keyspace.SplitDataKey(iter.Key())
		}
		iter.Release()
		if err := iter.Error(); nil != err {
			return err
		}
		if !found {
			return nil
		}

		rangeStart, rangeLimit := keyspace.DataRange(id)
		if !s.catalog.Live(id) {
			s.log.Warnf("purge orphan family id: %d", id)
			if err := s.purge(rangeStart, rangeLimit); nil != err {
				return err
			}
		}
		if bytes.Equal(rangeLimit, keyspace.DataLimit) {
			return nil
		}
		start = rangeLimit
	}
}

// delete every key in [start, limit)
func (s *Store) purge(start []byte, limit []byte) error {
	for {
		batch := new(goleveldb.Batch)
		iter := s.db.NewIterator(&ldb_util.Range{Start: start, Limit: limit}, nil)
		for iter.Next() && batch.Len() < purgeBatchSize {
			batch.Delete(iter.Key())
		}
		iter.Release()
		if err := iter.Error(); nil != err {
			return err
		}
		if 0 == batch.Len() {
			return nil
		}
		if err := s.db.Write(batch, s.write); nil != err {
			return err
		}
	}
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

	batch := new(goleveldb.Batch)
	for _, e := range entries {
		batch.Put(e.Key, e.Value)
	}
	if err := s.db.Write(batch, s.write); nil != err {
		return err
	}
	s.catalog.Commit(name, family)

	s.log.Debugf("created family: %q  id: %d", name, family.ID)
	return nil
}

// DropColumnFamily - remove a family and its data
//
// the catalog entry is removed first so a crash during the purge
// leaves only an orphan range that is cleared on the next open
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

	if err := s.db.Delete(keyspace.CatalogKey(name), s.write); nil != err {
		return err
	}
	s.catalog.Remove(name)

	start, limit := keyspace.DataRange(family.ID)
	if err := s.purge(start, limit); nil != err {
		s.log.Warnf("drop family: %q  purge error: %s", name, err)
		return err
	}

	s.log.Debugf("dropped family: %q  id: %d", name, family.ID)
	return nil
}

// lookup a family id, must hold at least the read lock
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

// Get - fetch a value, nil if not present
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

	value, err := s.db.Get(keyspace.DataKey(id, key), nil)
	if goleveldb.ErrNotFound == err {
		return nil, nil
	} else if nil != err {
		return nil, err
	}
	if nil == value {
		value = []byte{}
	}
	return value, nil
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
	if nil == value {
		value = []byte{}
	}
	return s.db.Put(keyspace.DataKey(id, key), value, s.write)
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
// the iterator reads an implicit snapshot taken when it is created
func (s *Store) NewIterator(name string, start []byte) (engine.Iterator, error) {
	s.RLock()
	defer s.RUnlock()

	id, err := s.family(name)
	if nil != err {
		return nil, err
	}

	rangeStart, rangeLimit := keyspace.DataRange(id)
	if 0 != len(start) {
		rangeStart = keyspace.DataKey(id, start)
	}

	return &iterator{
		iter: s.db.NewIterator(&ldb_util.Range{Start: rangeStart, Limit: rangeLimit}, nil),
	}, nil
}

type iterator struct {
	iter ldb_iterator.Iterator
}

func (i *iterator) Next() bool {
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
	return i.iter.Error()
}

func (i *iterator) Release() {
	i.iter.Release()
}
