// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package leveldb_test

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	goleveldb "github.com/syndtr/goleveldb/leveldb"

	"github.com/bitmark-inc/cfdb/engine"
	"github.com/bitmark-inc/cfdb/engine/enginetest"
	"github.com/bitmark-inc/cfdb/engine/keyspace"
	"github.com/bitmark-inc/cfdb/engine/leveldb"
)

func TestMain(m *testing.M) {
	enginetest.SetupLogger()
	rc := m.Run()
	enginetest.TeardownLogger()
	os.Exit(rc)
}

func TestContract(t *testing.T) {
	enginetest.Run(t, leveldb.Plugin())
}

func TestMissingPath(t *testing.T) {
	enginetest.MissingPath(t, leveldb.Plugin())
}

// data written under an id with no catalog entry is what an
// interrupted drop leaves behind, it must be gone after reopening
func TestOrphanPurge(t *testing.T) {
	path := t.TempDir()

	s, err := leveldb.Open(engine.Options{Path: path})
	if nil != err {
		t.Fatalf("open error: %s", err)
	}
	assert.Nil(t, s.CreateColumnFamily("live", engine.ColumnOptions{}), "create")
	assert.Nil(t, s.Put("live", []byte("k"), []byte("v")), "put")
	assert.Nil(t, s.Close(), "close")

	db, err := goleveldb.OpenFile(path, nil)
	if nil != err {
		t.Fatalf("raw open error: %s", err)
	}
	for _, id := range []uint32{0x7f, 0x80} {
		for i := 0; i < 10; i += 1 {
			assert.Nil(t, db.Put(keyspace.DataKey(id, []byte{byte(i)}), []byte("orphan"), nil), "raw put")
		}
	}
	assert.Nil(t, db.Close(), "raw close")

	s, err = leveldb.Open(engine.Options{Path: path})
	if nil != err {
		t.Fatalf("reopen error: %s", err)
	}
	value, err := s.Get("live", []byte("k"))
	assert.Nil(t, err, "get")
	assert.Equal(t, []byte("v"), value, "live data kept")
	assert.Nil(t, s.Close(), "close")

	db, err = goleveldb.OpenFile(path, nil)
	if nil != err {
		t.Fatalf("raw open error: %s", err)
	}
	defer db.Close()

	start, _ := keyspace.DataRange(0x7f)
	_, limit := keyspace.DataRange(0x80)
	iter := db.NewIterator(nil, nil)
	count := 0
	for ok := iter.Seek(start); ok && string(iter.Key()) < string(limit); ok = iter.Next() {
		count += 1
	}
	iter.Release()
	assert.Equal(t, 0, count, "orphan records remain")
}
