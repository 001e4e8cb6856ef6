// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package enginetest - behaviour every engine plugin must share
package enginetest

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bitmark-inc/cfdb/engine"
	"github.com/bitmark-inc/cfdb/fault"
	"github.com/bitmark-inc/logger"
)

// LogDirectory - where test logs are written
const LogDirectory = "testing"

// SetupLogger - send logs from a test run to LogDirectory
func SetupLogger() {
	RemoveLogs()
	_ = os.Mkdir(LogDirectory, 0700)

	logging := logger.Configuration{
		Directory: LogDirectory,
		File:      "testing.log",
		Size:      1048576,
		Count:     10,
		Console:   false,
		Levels: map[string]string{
			logger.DefaultTag: "critical",
		},
	}

	// start logging
	_ = logger.Initialise(logging)
}

// TeardownLogger - stop logging and remove the files
func TeardownLogger() {
	logger.Finalise()
	RemoveLogs()
}

// RemoveLogs - remove the log directory
func RemoveLogs() {
	os.RemoveAll(LogDirectory)
}

// Run - exercise a plugin against its shared contract
func Run(t *testing.T, plugin engine.Plugin) {
	tests := []struct {
		name string
		test func(*testing.T, engine.Plugin)
	}{
		{"create", testCreate},
		{"comparator", testComparator},
		{"read write", testReadWrite},
		{"missing family", testMissingFamily},
		{"empty key", testEmptyKey},
		{"iteration", testIteration},
		{"isolation", testIsolation},
		{"drop", testDrop},
		{"reopen", testReopen},
		{"closed", testClosed},
	}
	for _, item := range tests {
		t.Run(item.name, func(t *testing.T) {
			item.test(t, plugin)
		})
	}
}

func open(t *testing.T, plugin engine.Plugin, path string) engine.Engine {
	e, err := plugin.Open(engine.Options{Path: path})
	if nil != err {
		t.Fatalf("open: %q  error: %s", path, err)
	}
	return e
}

func create(t *testing.T, e engine.Engine, names ...string) {
	for _, name := range names {
		if err := e.CreateColumnFamily(name, engine.ColumnOptions{KeyFormat: "k-" + name, ValueFormat: "v-" + name}); nil != err {
			t.Fatalf("create: %q  error: %s", name, err)
		}
	}
}

type element struct {
	key   string
	value string
}

func collect(t *testing.T, e engine.Engine, name string, start []byte) []element {
	iter, err := e.NewIterator(name, start)
	if nil != err {
		t.Fatalf("iterator: %q  error: %s", name, err)
	}
	defer iter.Release()

	result := []element{}
	for iter.Next() {
		result = append(result, element{string(iter.Key()), string(iter.Value())})
	}
	if err := iter.Error(); nil != err {
		t.Fatalf("iterate: %q  error: %s", name, err)
	}
	return result
}

func testCreate(t *testing.T, plugin engine.Plugin) {
	e := open(t, plugin, t.TempDir())
	defer e.Close()

	families, err := e.ColumnFamilies()
	assert.Nil(t, err, "families")
	assert.Equal(t, 0, len(families), "new store families")

	create(t, e, "alpha", "beta")

	families, err = e.ColumnFamilies()
	assert.Nil(t, err, "families")
	assert.Equal(t, map[string]engine.ColumnOptions{
		"alpha": {Comparator: engine.BytewiseComparator, KeyFormat: "k-alpha", ValueFormat: "v-alpha"},
		"beta":  {Comparator: engine.BytewiseComparator, KeyFormat: "k-beta", ValueFormat: "v-beta"},
	}, families, "families")

	err = e.CreateColumnFamily("alpha", engine.ColumnOptions{})
	assert.Equal(t, fault.ErrColumnFamilyExists, err, "duplicate create")
}

func testComparator(t *testing.T, plugin engine.Plugin) {
	e := open(t, plugin, t.TempDir())
	defer e.Close()

	err := e.CreateColumnFamily("reverse", engine.ColumnOptions{Comparator: "reverse-bytewise"})
	assert.Equal(t, fault.ErrUnsupportedComparator, err, "comparator")

	families, err := e.ColumnFamilies()
	assert.Nil(t, err, "families")
	assert.Equal(t, 0, len(families), "rejected family was created")
}

func testReadWrite(t *testing.T, plugin engine.Plugin) {
	e := open(t, plugin, t.TempDir())
	defer e.Close()
	create(t, e, "data")

	value, err := e.Get("data", []byte("key"))
	assert.Nil(t, err, "get absent")
	assert.Nil(t, value, "absent value")

	assert.Nil(t, e.Put("data", []byte("key"), []byte("one")), "put")
	value, err = e.Get("data", []byte("key"))
	assert.Nil(t, err, "get")
	assert.Equal(t, []byte("one"), value, "value")

	assert.Nil(t, e.Put("data", []byte("key"), []byte("two")), "overwrite")
	value, err = e.Get("data", []byte("key"))
	assert.Nil(t, err, "get")
	assert.Equal(t, []byte("two"), value, "overwritten value")

	assert.Nil(t, e.Put("data", []byte("empty"), []byte{}), "put empty value")
	value, err = e.Get("data", []byte("empty"))
	assert.Nil(t, err, "get empty value")
	assert.NotNil(t, value, "empty value is present")
	assert.Equal(t, 0, len(value), "empty value length")

	assert.Nil(t, e.Delete("data", []byte("key")), "delete")
	value, err = e.Get("data", []byte("key"))
	assert.Nil(t, err, "get deleted")
	assert.Nil(t, value, "deleted value")

	assert.Nil(t, e.Delete("data", []byte("never")), "delete absent")
}

func testMissingFamily(t *testing.T, plugin engine.Plugin) {
	e := open(t, plugin, t.TempDir())
	defer e.Close()

	_, err := e.Get("nope", []byte("k"))
	assert.Equal(t, fault.ErrColumnFamilyNotFound, err, "get")
	assert.Equal(t, fault.ErrColumnFamilyNotFound, e.Put("nope", []byte("k"), []byte("v")), "put")
	assert.Equal(t, fault.ErrColumnFamilyNotFound, e.Delete("nope", []byte("k")), "delete")
	_, err = e.NewIterator("nope", nil)
	assert.Equal(t, fault.ErrColumnFamilyNotFound, err, "iterator")
	assert.Equal(t, fault.ErrColumnFamilyNotFound, e.DropColumnFamily("nope"), "drop")
}

func testEmptyKey(t *testing.T, plugin engine.Plugin) {
	e := open(t, plugin, t.TempDir())
	defer e.Close()
	create(t, e, "data")

	_, err := e.Get("data", nil)
	assert.Equal(t, fault.ErrEmptyKey, err, "get")
	assert.Equal(t, fault.ErrEmptyKey, e.Put("data", []byte{}, []byte("v")), "put")
	assert.Equal(t, fault.ErrEmptyKey, e.Delete("data", nil), "delete")
}

func testIteration(t *testing.T, plugin engine.Plugin) {
	e := open(t, plugin, t.TempDir())
	defer e.Close()
	create(t, e, "data")

	for _, k := range []string{"key-two", "key-one", "key-three", "key-four", "key-five"} {
		assert.Nil(t, e.Put("data", []byte(k), []byte("data-"+k[4:])), "put")
	}

	expected := []element{
		{"key-five", "data-five"},
		{"key-four", "data-four"},
		{"key-one", "data-one"},
		{"key-three", "data-three"},
		{"key-two", "data-two"},
	}
	assert.Equal(t, expected, collect(t, e, "data", nil), "all")
	assert.Equal(t, expected[2:], collect(t, e, "data", []byte("key-one")), "from key-one")
	assert.Equal(t, expected[2:], collect(t, e, "data", []byte("key-g")), "from between keys")
	assert.Equal(t, []element{}, collect(t, e, "data", []byte("z")), "from beyond the end")
}

func testIsolation(t *testing.T, plugin engine.Plugin) {
	e := open(t, plugin, t.TempDir())
	defer e.Close()
	create(t, e, "a", "ab", "b")

	assert.Nil(t, e.Put("a", []byte("1"), []byte("a1")), "put")
	assert.Nil(t, e.Put("ab", []byte("1"), []byte("ab1")), "put")
	assert.Nil(t, e.Put("b", []byte{0xff}, []byte("bff")), "put")

	assert.Equal(t, []element{{"1", "a1"}}, collect(t, e, "a", nil), "a")
	assert.Equal(t, []element{{"1", "ab1"}}, collect(t, e, "ab", nil), "ab")
	assert.Equal(t, []element{{"\xff", "bff"}}, collect(t, e, "b", nil), "b")

	value, err := e.Get("b", []byte("1"))
	assert.Nil(t, err, "get")
	assert.Nil(t, value, "key from another family")
}

func testDrop(t *testing.T, plugin engine.Plugin) {
	e := open(t, plugin, t.TempDir())
	defer e.Close()
	create(t, e, "keep", "drop")

	for i := 0; i < 2500; i += 1 {
		k := []byte{byte(i >> 8), byte(i)}
		assert.Nil(t, e.Put("drop", k, k), "put")
	}
	assert.Nil(t, e.Put("keep", []byte("k"), []byte("v")), "put")

	assert.Nil(t, e.DropColumnFamily("drop"), "drop")

	families, err := e.ColumnFamilies()
	assert.Nil(t, err, "families")
	_, ok := families["drop"]
	assert.False(t, ok, "dropped family listed")

	_, err = e.Get("drop", []byte{0, 1})
	assert.Equal(t, fault.ErrColumnFamilyNotFound, err, "get from dropped")

	create(t, e, "drop")
	assert.Equal(t, []element{}, collect(t, e, "drop", nil), "recreated family is empty")
	assert.Equal(t, []element{{"k", "v"}}, collect(t, e, "keep", nil), "other family intact")
}

func testReopen(t *testing.T, plugin engine.Plugin) {
	path := t.TempDir()

	e := open(t, plugin, path)
	create(t, e, "one", "two", "gone")
	assert.Nil(t, e.Put("one", []byte("k1"), []byte("v1")), "put")
	assert.Nil(t, e.Put("two", []byte("k2"), []byte("v2")), "put")
	assert.Nil(t, e.Put("gone", []byte("k3"), []byte("v3")), "put")
	assert.Nil(t, e.DropColumnFamily("gone"), "drop")
	before, err := e.ColumnFamilies()
	assert.Nil(t, err, "families")
	assert.Nil(t, e.Close(), "close")

	e = open(t, plugin, path)
	defer e.Close()

	after, err := e.ColumnFamilies()
	assert.Nil(t, err, "families")
	assert.Equal(t, before, after, "families after reopen")
	assert.Equal(t, plugin.Name(), e.Name(), "name")
	assert.Equal(t, path, e.Path(), "path")

	assert.Equal(t, []element{{"k1", "v1"}}, collect(t, e, "one", nil), "one")
	assert.Equal(t, []element{{"k2", "v2"}}, collect(t, e, "two", nil), "two")

	create(t, e, "gone")
	assert.Equal(t, []element{}, collect(t, e, "gone", nil), "recreated after reopen")
}

func testClosed(t *testing.T, plugin engine.Plugin) {
	e := open(t, plugin, t.TempDir())
	create(t, e, "data")
	assert.Nil(t, e.Close(), "close")
	assert.Nil(t, e.Close(), "second close")

	_, err := e.ColumnFamilies()
	assert.Equal(t, fault.ErrStoreClosed, err, "families")
	_, err = e.Get("data", []byte("k"))
	assert.Equal(t, fault.ErrStoreClosed, err, "get")
	assert.Equal(t, fault.ErrStoreClosed, e.Put("data", []byte("k"), []byte("v")), "put")
	assert.Equal(t, fault.ErrStoreClosed, e.Delete("data", []byte("k")), "delete")
	assert.Equal(t, fault.ErrStoreClosed, e.CreateColumnFamily("x", engine.ColumnOptions{}), "create")
	assert.Equal(t, fault.ErrStoreClosed, e.DropColumnFamily("data"), "drop")
	_, err = e.NewIterator("data", nil)
	assert.Equal(t, fault.ErrStoreClosed, err, "iterator")
}

// MissingPath - options without a path must be refused
func MissingPath(t *testing.T, plugin engine.Plugin) {
	_, err := plugin.Open(engine.Options{})
	assert.Equal(t, fault.ErrMissingPath, err, "open without path")
}
