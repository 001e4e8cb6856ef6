// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitmark-inc/cfdb/failpoint"
	"github.com/bitmark-inc/cfdb/fault"
	"github.com/bitmark-inc/cfdb/storage"
)

func TestRawIterate(t *testing.T) {
	h := openHandle(t, t.TempDir(), testFamilies, storage.Options{})
	defer h.Close()
	loadNames(t, h)

	keys := []string{}
	err := h.IterateFrom("names", []byte("key-one"), func(key []byte, value []byte) error {
		keys = append(keys, string(key))
		assert.Equal(t, 8, len(value), "value length")
		return nil
	})
	assert.Nil(t, err, "iterate")
	assert.Equal(t, []string{"key-one", "key-three", "key-two"}, keys, "keys from start")

	err = h.Iterate("missing", func([]byte, []byte) error { return nil })
	var ioError *storage.IOError
	require.True(t, errors.As(err, &ioError), "io error: %v", err)
	assert.Equal(t, "missing", ioError.Family, "family")
	assert.True(t, fault.IsErrNotFound(err), "not found")
}

func TestEmptyKey(t *testing.T) {
	h := openHandle(t, t.TempDir(), testFamilies, storage.Options{})
	defer h.Close()

	err := namesColumn.Put(h, "", 1)
	assert.Equal(t, fault.ErrEmptyKey, err, "empty key")
	assert.True(t, fault.IsErrInvalid(err), "invalid: %v", err)

	_, _, err = namesColumn.Get(h, "")
	assert.Equal(t, fault.ErrEmptyKey, err, "empty key get")
}

func TestDigest(t *testing.T) {
	one := openHandle(t, t.TempDir(), testFamilies, storage.Options{Engine: "leveldb"})
	defer one.Close()
	two := openHandle(t, t.TempDir(), testFamilies, storage.Options{Engine: "bbolt"})
	defer two.Close()

	empty, err := one.Digest("names")
	require.Nil(t, err, "digest")

	loadNames(t, one)
	loadNames(t, two)

	d1, err := one.Digest("names")
	require.Nil(t, err, "digest")
	d2, err := two.Digest("names")
	require.Nil(t, err, "digest")
	assert.Equal(t, d1, d2, "same records on different engines")
	assert.NotEqual(t, empty, d1, "empty digest")

	require.Nil(t, namesColumn.Put(two, "key-one", 100), "put")
	d2, err = two.Digest("names")
	require.Nil(t, err, "digest")
	assert.NotEqual(t, d1, d2, "changed record")
}

func TestProgressFailpoint(t *testing.T) {
	trigger := failpoint.NewTrigger(failpoint.Migration, 3)
	h := openHandle(t, t.TempDir(), testFamilies, storage.Options{Failpoints: trigger})
	defer h.Close()

	assert.Nil(t, h.Progress(), "first")
	assert.Nil(t, h.Progress(), "second")
	err := h.Progress()
	assert.True(t, errors.Is(err, fault.ErrInjectedFailure), "third: %v", err)
	assert.Nil(t, h.Failpoint(failpoint.Migration), "after firing")
	assert.Equal(t, 4, trigger.Count(), "checks")
}

func TestHiddenJournal(t *testing.T) {
	h := openHandle(t, t.TempDir(), testFamilies, storage.Options{})
	defer h.Close()

	names, err := h.ColumnFamilies()
	require.Nil(t, err, "families")
	for _, name := range names {
		assert.False(t, storage.IsInternal(name), "internal family listed: %q", name)
	}
}
