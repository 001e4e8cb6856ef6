// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package migration_test

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitmark-inc/cfdb/codec"
	"github.com/bitmark-inc/cfdb/engine/enginetest"
	"github.com/bitmark-inc/cfdb/failpoint"
	"github.com/bitmark-inc/cfdb/fault"
	"github.com/bitmark-inc/cfdb/migration"
	"github.com/bitmark-inc/cfdb/storage"
)

func TestMain(m *testing.M) {
	enginetest.SetupLogger()
	rc := m.Run()
	enginetest.TeardownLogger()
	os.Exit(rc)
}

// a: number -> word
// b: word -> number (even), c: word -> number (odd)
// d: word -> number
var (
	columnA = storage.NewColumn("a", codec.Uint64(), codec.String())
	columnB = storage.NewColumn("b", codec.String(), codec.Uint64())
	columnC = storage.NewColumn("c", codec.String(), codec.Uint64())
	columnD = storage.NewColumn("d", codec.String(), codec.Uint64())
)

func split(h *storage.Handle) error {
	return migration.Partition(h, columnA, []*storage.Column[string, uint64]{columnB, columnC},
		func(k uint64, v string) (int, string, uint64, error) {
			return int(k % 2), v, k, nil
		})
}

func merge(h *storage.Handle) error {
	for _, from := range []*storage.Column[string, uint64]{columnB, columnC} {
		err := migration.Map(h, from, columnD, func(k string, v uint64) (string, uint64, error) {
			return strings.ToUpper(k), v, nil
		})
		if nil != err {
			return err
		}
	}
	return nil
}

var (
	stepSplit = migration.Step{
		Name:      "split",
		From:      storage.Descriptors(columnA),
		To:        storage.Descriptors(columnB, columnC),
		Transform: split,
	}
	stepMerge = migration.Step{
		Name:      "merge",
		From:      storage.Descriptors(columnB, columnC),
		To:        storage.Descriptors(columnD),
		Transform: merge,
	}
	current = storage.Descriptors(columnD)
)

func newManifest(t *testing.T) *migration.Manifest {
	m, err := migration.NewManifest(current, stepSplit, stepMerge)
	require.Nil(t, err, "manifest")
	return m
}

// a store at the first generation
func createA(t *testing.T, path string, n int) {
	b, err := storage.Open(path, storage.Descriptors(columnA), storage.Options{})
	require.Nil(t, err, "open")
	h, err := b.Build()
	require.Nil(t, err, "build")
	for i := 0; i < n; i += 1 {
		require.Nil(t, columnA.Put(h, uint64(i), fmt.Sprintf("w%03d", i)), "put")
	}
	require.Nil(t, h.Close(), "close")
}

func TestManifestChain(t *testing.T) {
	tests := []struct {
		name  string
		steps []migration.Step
		ok    bool
	}{
		{"no steps", nil, true},
		{"chain", []migration.Step{stepSplit, stepMerge}, true},
		{"out of order", []migration.Step{stepMerge, stepSplit}, false},
		{"missing first", []migration.Step{stepMerge}, true},
		{"missing last", []migration.Step{stepSplit}, false},
		{"repeated", []migration.Step{stepSplit, stepSplit, stepMerge}, false},
		{"no transform", []migration.Step{stepSplit, {Name: "merge", From: stepMerge.From, To: stepMerge.To}}, false},
		{"self", []migration.Step{{Name: "self", From: current, To: current, Transform: merge}}, false},
	}

	for _, item := range tests {
		_, err := migration.NewManifest(current, item.steps...)
		if item.ok {
			assert.Nil(t, err, "%s", item.name)
		} else {
			assert.True(t, errors.Is(err, fault.ErrInvalidMigrationChain), "%s: %v", item.name, err)
		}
	}
}

func TestApplyFromFirstGeneration(t *testing.T) {
	path := t.TempDir()
	createA(t, path, 10)

	b, err := storage.Open(path, current, storage.Options{})
	require.Nil(t, err, "open")
	defer b.Close()

	m := newManifest(t)
	plans, err := m.Pending(b.Handle())
	require.Nil(t, err, "pending")
	require.Equal(t, 2, len(plans), "plans")
	assert.Equal(t, "split", plans[0].Step.Name, "first plan")
	assert.False(t, plans[0].DropOnly, "first plan drop only")

	applied, err := m.Apply(b)
	require.Nil(t, err, "apply")
	assert.Equal(t, []string{"split", "merge"}, applied, "applied")

	h, err := b.Build()
	require.Nil(t, err, "build")

	names, err := h.ColumnFamilies()
	require.Nil(t, err, "families")
	assert.Equal(t, []string{"d"}, names, "families")

	n, err := columnD.Count(h)
	require.Nil(t, err, "count")
	assert.Equal(t, 10, n, "records")

	v, ok, err := columnD.Get(h, "W007")
	require.Nil(t, err, "get")
	assert.True(t, ok, "found")
	assert.Equal(t, uint64(7), v, "value")

	plans, err = m.Pending(h)
	require.Nil(t, err, "pending")
	assert.Equal(t, 0, len(plans), "nothing pending")
}

func TestApplyFreshStore(t *testing.T) {
	b, err := storage.Open(t.TempDir(), current, storage.Options{})
	require.Nil(t, err, "open")
	defer b.Close()

	applied, err := newManifest(t).Apply(b)
	require.Nil(t, err, "apply")
	assert.Equal(t, 0, len(applied), "applied")
}

func TestResumeInterruptedDrop(t *testing.T) {
	path := t.TempDir()
	createA(t, path, 6)

	b, err := storage.Open(path, current, storage.Options{})
	require.Nil(t, err, "open")
	require.Nil(t, stepSplit.Apply(b), "split")
	require.Nil(t, b.AddColumnFamilies(stepMerge.Name, stepMerge.To, stepMerge.Transform), "merge transform")
	require.Nil(t, b.DropColumnFamiliesForStep(stepMerge.Name, storage.Descriptors(columnB)), "partial drop")
	require.Nil(t, b.Close(), "close")

	b, err = storage.Open(path, current, storage.Options{})
	require.Nil(t, err, "reopen")
	defer b.Close()

	m := newManifest(t)
	plans, err := m.Pending(b.Handle())
	require.Nil(t, err, "pending")
	require.Equal(t, 1, len(plans), "plans")
	assert.Equal(t, "merge", plans[0].Step.Name, "plan")
	assert.True(t, plans[0].DropOnly, "drop only")

	applied, err := m.Apply(b)
	require.Nil(t, err, "apply")
	assert.Equal(t, []string{"merge"}, applied, "applied")

	names, err := b.Handle().ColumnFamilies()
	require.Nil(t, err, "families")
	assert.Equal(t, []string{"d"}, names, "families")
}

func TestIncompleteGeneration(t *testing.T) {
	b, err := storage.Open(t.TempDir(), current, storage.Options{})
	require.Nil(t, err, "open")
	defer b.Close()

	noop := func(*storage.Handle) error { return nil }
	require.Nil(t, b.AddColumnFamilies("stray", storage.Descriptors(columnB), noop), "stray family")

	_, err = newManifest(t).Pending(b.Handle())
	assert.True(t, errors.Is(err, fault.ErrIncompleteGeneration), "pending: %v", err)
}

func TestPartitionRouteOutOfRange(t *testing.T) {
	path := t.TempDir()
	createA(t, path, 3)

	b, err := storage.Open(path, current, storage.Options{})
	require.Nil(t, err, "open")
	defer b.Close()

	bad := func(h *storage.Handle) error {
		return migration.Partition(h, columnA, []*storage.Column[string, uint64]{columnB},
			func(k uint64, v string) (int, string, uint64, error) {
				return 1, v, k, nil
			})
	}
	err = b.AddColumnFamilies("bad", storage.Descriptors(columnB), bad)
	assert.True(t, errors.Is(err, fault.ErrValueOutOfRange), "route: %v", err)
}

func TestMapFailpoint(t *testing.T) {
	const records = 4

	// checks 1..records fire after a record, records+1 fires at the end
	for at := 1; at <= records+1; at += 1 {
		path := t.TempDir()
		createA(t, path, records)

		trigger := failpoint.NewTrigger(failpoint.Migration, at)
		b, err := storage.Open(path, current, storage.Options{Failpoints: trigger})
		require.Nil(t, err, "open")

		err = stepSplit.Apply(b)
		assert.True(t, errors.Is(err, fault.ErrInjectedFailure), "%d: apply: %v", at, err)
		assert.True(t, trigger.Fired(), "%d: fired", at)

		written := 0
		for _, c := range []*storage.Column[string, uint64]{columnB, columnC} {
			n, err := c.Count(b.Handle())
			require.Nil(t, err, "count")
			written += n
		}
		expected := at
		if at > records {
			expected = records
		}
		assert.Equal(t, expected, written, "%d: records written before failure", at)

		n, err := columnA.Count(b.Handle())
		require.Nil(t, err, "count")
		assert.Equal(t, records, n, "%d: source intact", at)

		require.Nil(t, b.Close(), "close")
	}
}
