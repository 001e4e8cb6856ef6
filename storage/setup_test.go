// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage_test

import (
	"os"
	"testing"

	"github.com/bitmark-inc/cfdb/codec"
	"github.com/bitmark-inc/cfdb/engine/enginetest"
	"github.com/bitmark-inc/cfdb/storage"
)

func TestMain(m *testing.M) {
	enginetest.SetupLogger()
	rc := m.Run()
	enginetest.TeardownLogger()
	os.Exit(rc)
}

// test columns
var (
	namesColumn  = storage.NewColumn("names", codec.String(), codec.Uint64())
	countsColumn = storage.NewColumn("counts", codec.Uint64(), codec.String())
	copiesColumn = storage.NewColumn("copies", codec.String(), codec.Uint64())
)

var testFamilies = storage.Descriptors(namesColumn, countsColumn)

// open a builder or fail the test
func openBuilder(t *testing.T, path string, expected []storage.ColumnDescriptor, options storage.Options) *storage.Builder {
	b, err := storage.Open(path, expected, options)
	if nil != err {
		t.Fatalf("open: %q  error: %s", path, err)
	}
	return b
}

// open a ready handle or fail the test
func openHandle(t *testing.T, path string, expected []storage.ColumnDescriptor, options storage.Options) *storage.Handle {
	b := openBuilder(t, path, expected, options)
	h, err := b.Build()
	if nil != err {
		b.Close()
		t.Fatalf("build: %q  error: %s", path, err)
	}
	return h
}

// a string data item
type stringElement struct {
	key   string
	value uint64
}

var testElements = []stringElement{
	{"key-five", 5},
	{"key-four", 4},
	{"key-one", 1},
	{"key-three", 3},
	{"key-two", 2},
}

func loadNames(t *testing.T, h *storage.Handle) {
	for _, e := range testElements {
		if err := namesColumn.Put(h, e.key, e.value); nil != err {
			t.Fatalf("put: %q  error: %s", e.key, err)
		}
	}
}
