// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package bbolt_test

import (
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bitmark-inc/cfdb/engine"
	"github.com/bitmark-inc/cfdb/engine/bbolt"
	"github.com/bitmark-inc/cfdb/engine/enginetest"
)

func TestMain(m *testing.M) {
	enginetest.SetupLogger()
	rc := m.Run()
	enginetest.TeardownLogger()
	os.Exit(rc)
}

func TestContract(t *testing.T) {
	enginetest.Run(t, bbolt.Plugin())
}

func TestMissingPath(t *testing.T) {
	enginetest.MissingPath(t, bbolt.Plugin())
}

// iteration spanning several pages must neither skip nor repeat keys
func TestIteratorPages(t *testing.T) {
	s, err := bbolt.Open(engine.Options{Path: t.TempDir()})
	if nil != err {
		t.Fatalf("open error: %s", err)
	}
	defer s.Close()

	assert.Nil(t, s.CreateColumnFamily("data", engine.ColumnOptions{}), "create")

	const n = 1000
	for i := 0; i < n; i += 1 {
		k := []byte(fmt.Sprintf("key-%04d", i))
		assert.Nil(t, s.Put("data", k, k), "put")
	}

	iter, err := s.NewIterator("data", []byte("key-0100"))
	if nil != err {
		t.Fatalf("iterator error: %s", err)
	}
	defer iter.Release()

	expected := 100
	for iter.Next() {
		k := fmt.Sprintf("key-%04d", expected)
		assert.Equal(t, k, string(iter.Key()), "key")
		assert.Equal(t, k, string(iter.Value()), "value")
		expected += 1
	}
	assert.Nil(t, iter.Error(), "iterator error")
	assert.Equal(t, n, expected, "count")
}

// a family dropped while an iterator is open ends the iteration
func TestIteratorDroppedFamily(t *testing.T) {
	s, err := bbolt.Open(engine.Options{Path: t.TempDir()})
	if nil != err {
		t.Fatalf("open error: %s", err)
	}
	defer s.Close()

	assert.Nil(t, s.CreateColumnFamily("data", engine.ColumnOptions{}), "create")
	assert.Nil(t, s.Put("data", []byte("k"), []byte("v")), "put")

	iter, err := s.NewIterator("data", nil)
	if nil != err {
		t.Fatalf("iterator error: %s", err)
	}
	defer iter.Release()

	assert.Nil(t, s.DropColumnFamily("data"), "drop")
	assert.False(t, iter.Next(), "next after drop")
	assert.NotNil(t, iter.Error(), "error after drop")
}
