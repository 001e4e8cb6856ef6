// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package bbolt - column families as bbolt buckets
//
// every family is a nested bucket of the "families" bucket and its
// options are kept under the same name in the "options" bucket, both
// change in a single transaction
package bbolt

import (
	"bytes"
	"os"
	"path/filepath"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/bitmark-inc/cfdb/codec"
	"github.com/bitmark-inc/cfdb/engine"
	"github.com/bitmark-inc/cfdb/fault"
	"github.com/bitmark-inc/logger"
)

// Name - registered engine name
const Name = "bbolt"

// FileName - the database file inside the store directory
const FileName = "data.bolt"

// records read by each transaction of an iterator
const pageSize = 256

const openTimeout = 5 * time.Second

var (
	familiesBucket = []byte("families")
	optionsBucket  = []byte("options")
)

var optionsCodec = codec.Record[engine.ColumnOptions]("bbolt.options")

type plugin struct{}

// Plugin - the bbolt engine factory
func Plugin() engine.Plugin {
	return plugin{}
}

func (plugin) Name() string {
	return Name
}

func (plugin) Open(options engine.Options) (engine.Engine, error) {
	return Open(options)
}

// Store - an open bbolt database
type Store struct {
	sync.RWMutex

	log  *logger.L
	path string
	db   *bolt.DB
}

// Open - open or create a database in options.Path
func Open(options engine.Options) (*Store, error) {
	if "" == options.Path {
		return nil, fault.ErrMissingPath
	}

	log := logger.New(Name)

	if err := os.MkdirAll(options.Path, 0700); nil != err {
		log.Errorf("create directory: %q  error: %s", options.Path, err)
		return nil, err
	}

	file := filepath.Join(options.Path, FileName)
	db, err := bolt.Open(file, 0600, &bolt.Options{Timeout: openTimeout})
	if nil != err {
		log.Errorf("open: %q  error: %s", file, err)
		return nil, err
	}
	db.NoSync = !options.Sync

	err = db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(familiesBucket); nil != err {
			return err
		}
		_, err := tx.CreateBucketIfNotExists(optionsBucket)
		return err
	})
	if nil != err {
		log.Errorf("initialise: %q  error: %s", file, err)
		db.Close()
		return nil, err
	}

	log.Infof("opened: %q", file)
	return &Store{
		log:  log,
		path: options.Path,
		db:   db,
	}, nil
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

func (s *Store) view(fn func(*bolt.Tx) error) error {
	s.RLock()
	defer s.RUnlock()

	if nil == s.db {
		return fault.ErrStoreClosed
	}
	return s.db.View(fn)
}

func (s *Store) update(fn func(*bolt.Tx) error) error {
	s.RLock()
	defer s.RUnlock()

	if nil == s.db {
		return fault.ErrStoreClosed
	}
	return s.db.Update(fn)
}

// the bucket of a family
func bucket(tx *bolt.Tx, name string) (*bolt.Bucket, error) {
	b := tx.Bucket(familiesBucket).Bucket([]byte(name))
	if nil == b {
		return nil, fault.ErrColumnFamilyNotFound
	}
	return b, nil
}

// ColumnFamilies - all families with their options
func (s *Store) ColumnFamilies() (map[string]engine.ColumnOptions, error) {
	result := make(map[string]engine.ColumnOptions)
	err := s.view(func(tx *bolt.Tx) error {
		return tx.Bucket(optionsBucket).ForEach(func(k []byte, v []byte) error {
			options, err := optionsCodec.Decode(v)
			if nil != err {
				return fault.ErrCorruptCatalog
			}
			result[string(k)] = options
			return nil
		})
	})
	if nil != err {
		return nil, err
	}
	return result, nil
}

// CreateColumnFamily - add an empty bucket
func (s *Store) CreateColumnFamily(name string, options engine.ColumnOptions) error {
	if err := engine.CheckComparator(options); nil != err {
		return err
	}
	value, err := optionsCodec.Encode(options.Normalise())
	if nil != err {
		return err
	}

	err = s.update(func(tx *bolt.Tx) error {
		if _, err := tx.Bucket(familiesBucket).CreateBucket([]byte(name)); nil != err {
			if bolt.ErrBucketExists == err {
				return fault.ErrColumnFamilyExists
			}
			return err
		}
		return tx.Bucket(optionsBucket).Put([]byte(name), value)
	})
	if nil != err {
		return err
	}

	s.log.Debugf("created family: %q", name)
	return nil
}

// DropColumnFamily - delete a bucket with its contents
func (s *Store) DropColumnFamily(name string) error {
	err := s.update(func(tx *bolt.Tx) error {
		if err := tx.Bucket(familiesBucket).DeleteBucket([]byte(name)); nil != err {
			if bolt.ErrBucketNotFound == err {
				return fault.ErrColumnFamilyNotFound
			}
			return err
		}
		return tx.Bucket(optionsBucket).Delete([]byte(name))
	})
	if nil != err {
		return err
	}

	s.log.Debugf("dropped family: %q", name)
	return nil
}

// Get - fetch a copy of a value, nil if not present
func (s *Store) Get(name string, key []byte) ([]byte, error) {
	if 0 == len(key) {
		return nil, fault.ErrEmptyKey
	}

	var result []byte
	err := s.view(func(tx *bolt.Tx) error {
		b, err := bucket(tx, name)
		if nil != err {
			return err
		}
		k, v := b.Cursor().Seek(key)
		if nil == k || !bytes.Equal(k, key) {
			return nil
		}
		result = make([]byte, len(v))
		copy(result, v)
		return nil
	})
	return result, err
}

// Put - store a value
func (s *Store) Put(name string, key []byte, value []byte) error {
	if 0 == len(key) {
		return fault.ErrEmptyKey
	}
	if nil == value {
		value = []byte{}
	}

	return s.update(func(tx *bolt.Tx) error {
		b, err := bucket(tx, name)
		if nil != err {
			return err
		}
		return b.Put(key, value)
	})
}

// Delete - remove a key
func (s *Store) Delete(name string, key []byte) error {
	if 0 == len(key) {
		return fault.ErrEmptyKey
	}

	return s.update(func(tx *bolt.Tx) error {
		b, err := bucket(tx, name)
		if nil != err {
			return err
		}
		return b.Delete(key)
	})
}

// NewIterator - iterate a family from start
//
// records are read a page at a time, each page in its own read
// transaction, so writes made between pages may be observed; a page
// never holds the write lock
func (s *Store) NewIterator(name string, start []byte) (engine.Iterator, error) {
	err := s.view(func(tx *bolt.Tx) error {
		_, err := bucket(tx, name)
		return err
	})
	if nil != err {
		return nil, err
	}

	return &iterator{
		store:     s,
		family:    name,
		seek:      append([]byte{}, start...),
		inclusive: true,
		index:     -1,
	}, nil
}

type element struct {
	key   []byte
	value []byte
}

type iterator struct {
	store     *Store
	family    string
	seek      []byte
	inclusive bool
	page      []element
	index     int
	done      bool
	err       error
}

func (i *iterator) Next() bool {
	if nil != i.err {
		return false
	}
	if i.index+1 < len(i.page) {
		i.index += 1
		return true
	}
	if i.done {
		i.index = len(i.page)
		return false
	}

	i.page = i.page[:0]
	i.index = -1
	i.err = i.store.view(func(tx *bolt.Tx) error {
		b, err := bucket(tx, i.family)
		if nil != err {
			return err
		}
		c := b.Cursor()
		k, v := c.Seek(i.seek)
		if nil != k && !i.inclusive && bytes.Equal(k, i.seek) {
			k, v = c.Next()
		}
		for ; nil != k && len(i.page) < pageSize; k, v = c.Next() {
			i.page = append(i.page, element{
				key:   append([]byte{}, k...),
				value: append([]byte{}, v...),
			})
		}
		return nil
	})
	if nil != i.err {
		return false
	}

	if len(i.page) < pageSize {
		i.done = true
	}
	if 0 == len(i.page) {
		return false
	}
	i.seek = i.page[len(i.page)-1].key
	i.inclusive = false
	i.index = 0
	return true
}

func (i *iterator) Key() []byte {
	if i.index < 0 || i.index >= len(i.page) {
		return nil
	}
	return i.page[i.index].key
}

func (i *iterator) Value() []byte {
	if i.index < 0 || i.index >= len(i.page) {
		return nil
	}
	return i.page[i.index].value
}

func (i *iterator) Error() error {
	return i.err
}

func (i *iterator) Release() {
	i.page = nil
	i.done = true
}
