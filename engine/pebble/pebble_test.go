// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package pebble_test

import (
	"os"
	"testing"

	cockroach "github.com/cockroachdb/pebble"
	"github.com/stretchr/testify/assert"

	"github.com/bitmark-inc/cfdb/engine"
	"github.com/bitmark-inc/cfdb/engine/enginetest"
	"github.com/bitmark-inc/cfdb/engine/keyspace"
	"github.com/bitmark-inc/cfdb/engine/pebble"
)

func TestMain(m *testing.M) {
	enginetest.SetupLogger()
	rc := m.Run()
	enginetest.TeardownLogger()
	os.Exit(rc)
}

func TestContract(t *testing.T) {
	enginetest.Run(t, pebble.Plugin())
}

func TestMissingPath(t *testing.T) {
	enginetest.MissingPath(t, pebble.Plugin())
}

func TestOrphanPurge(t *testing.T) {
	path := t.TempDir()

	s, err := pebble.Open(engine.Options{Path: path})
	if nil != err {
		t.Fatalf("open error: %s", err)
	}
	assert.Nil(t, s.CreateColumnFamily("live", engine.ColumnOptions{}), "create")
	assert.Nil(t, s.Put("live", []byte("k"), []byte("v")), "put")
	assert.Nil(t, s.Close(), "close")

	db, err := cockroach.Open(path, &cockroach.Options{})
	if nil != err {
		t.Fatalf("raw open error: %s", err)
	}
	for i := 0; i < 10; i += 1 {
		assert.Nil(t, db.Set(keyspace.DataKey(0x40, []byte{byte(i)}), []byte("orphan"), cockroach.Sync), "raw set")
	}
	assert.Nil(t, db.Close(), "raw close")

	s, err = pebble.Open(engine.Options{Path: path})
	if nil != err {
		t.Fatalf("reopen error: %s", err)
	}
	value, err := s.Get("live", []byte("k"))
	assert.Nil(t, err, "get")
	assert.Equal(t, []byte("v"), value, "live data kept")
	assert.Nil(t, s.Close(), "close")

	db, err = cockroach.Open(path, &cockroach.Options{})
	if nil != err {
		t.Fatalf("raw open error: %s", err)
	}
	defer db.Close()

	lower, upper := keyspace.DataRange(0x40)
	iter, err := db.NewIter(&cockroach.IterOptions{LowerBound: lower, UpperBound: upper})
	if nil != err {
		t.Fatalf("raw iterator error: %s", err)
	}
	assert.False(t, iter.First(), "orphan records remain")
	assert.Nil(t, iter.Close(), "iterator close")
}
