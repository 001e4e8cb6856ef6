// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/bitmark-inc/cfdb/engine/mocks"
	"github.com/bitmark-inc/cfdb/fault"
	"github.com/bitmark-inc/logger"
)

var errDiskFull = errors.New("disk full")

func TestEngineErrorsAreIOErrors(t *testing.T) {
	ctl := gomock.NewController(t)
	defer ctl.Finish()

	e := mocks.NewMockEngine(ctl)
	h := newHandle(logger.New("test"), e, Options{})

	e.EXPECT().Get("data", []byte("k")).Return(nil, errDiskFull).Times(1)
	e.EXPECT().Put("data", []byte("k"), []byte("v")).Return(errDiskFull).Times(1)
	e.EXPECT().Delete("data", []byte("k")).Return(errDiskFull).Times(1)
	e.EXPECT().NewIterator("data", gomock.Any()).Return(nil, errDiskFull).Times(1)

	_, err := h.Get("data", []byte("k"))
	assertIOError(t, "get", err)
	assertIOError(t, "put", h.Put("data", []byte("k"), []byte("v")))
	assertIOError(t, "delete", h.Delete("data", []byte("k")))
	assertIOError(t, "iterate", h.Iterate("data", func([]byte, []byte) error { return nil }))
}

func assertIOError(t *testing.T, op string, err error) {
	var ioError *IOError
	if assert.True(t, errors.As(err, &ioError), "%s: io error: %v", op, err) {
		assert.Equal(t, op, ioError.Op, "operation")
		assert.Equal(t, "data", ioError.Family, "family")
	}
	assert.True(t, errors.Is(err, errDiskFull), "%s: cause: %v", op, err)
}

func TestIteratorErrorStopsIteration(t *testing.T) {
	ctl := gomock.NewController(t)
	defer ctl.Finish()

	e := mocks.NewMockEngine(ctl)
	iter := mocks.NewMockIterator(ctl)
	h := newHandle(logger.New("test"), e, Options{})

	e.EXPECT().NewIterator("data", nil).Return(iter, nil).Times(1)
	gomock.InOrder(
		iter.EXPECT().Next().Return(true),
		iter.EXPECT().Key().Return([]byte("k")),
		iter.EXPECT().Value().Return([]byte("v")),
		iter.EXPECT().Next().Return(false),
		iter.EXPECT().Error().Return(errDiskFull),
		iter.EXPECT().Release(),
	)

	seen := 0
	err := h.Iterate("data", func([]byte, []byte) error {
		seen += 1
		return nil
	})
	assertIOError(t, "iterate", err)
	assert.Equal(t, 1, seen, "records seen")
}

func TestCacheAvoidsEngine(t *testing.T) {
	ctl := gomock.NewController(t)
	defer ctl.Finish()

	e := mocks.NewMockEngine(ctl)
	h := newHandle(logger.New("test"), e, Options{CacheExpiry: time.Minute})

	e.EXPECT().Put("data", []byte("k"), []byte("v")).Return(nil).Times(1)
	e.EXPECT().Delete("data", []byte("gone")).Return(nil).Times(1)
	e.EXPECT().Get("data", []byte("miss")).Return(nil, nil).Times(1)
	e.EXPECT().DropColumnFamily("data").Return(nil).Times(1)
	e.EXPECT().Get("data", []byte("k")).Return(nil, fault.ErrColumnFamilyNotFound).Times(1)

	assert.Nil(t, h.Put("data", []byte("k"), []byte("v")), "put")
	assert.Nil(t, h.Delete("data", []byte("gone")), "delete")

	for i := 0; i < 3; i += 1 {
		value, err := h.Get("data", []byte("k"))
		assert.Nil(t, err, "cached get")
		assert.Equal(t, []byte("v"), value, "cached value")

		value, err = h.Get("data", []byte("gone"))
		assert.Nil(t, err, "cached delete")
		assert.Nil(t, value, "deleted value")

		value, err = h.Get("data", []byte("miss"))
		assert.Nil(t, err, "cached miss")
		assert.Nil(t, value, "missing value")
	}

	// dropping flushes the cache so the engine is asked again
	assert.Nil(t, h.dropColumnFamily("data"), "drop")
	_, err := h.Get("data", []byte("k"))
	assert.True(t, fault.IsErrNotFound(err), "get after drop: %v", err)
}

func TestCacheFillDoesNotOverwriteNewerPut(t *testing.T) {
	ctl := gomock.NewController(t)
	defer ctl.Finish()

	e := mocks.NewMockEngine(ctl)
	h := newHandle(logger.New("test"), e, Options{CacheExpiry: time.Minute})

	reading := make(chan struct{})
	release := make(chan struct{})
	e.EXPECT().Get("data", []byte("k")).DoAndReturn(func(string, []byte) ([]byte, error) {
		close(reading)
		<-release
		return []byte("old"), nil
	}).Times(1)
	e.EXPECT().Put("data", []byte("k"), []byte("new")).Return(nil).Times(1)

	wg := sync.WaitGroup{}
	wg.Add(2)

	go func() {
		defer wg.Done()
		value, err := h.Get("data", []byte("k"))
		assert.Nil(t, err, "slow get")
		assert.Equal(t, []byte("old"), value, "slow get value")
	}()
	<-reading

	written := make(chan struct{})
	go func() {
		defer wg.Done()
		assert.Nil(t, h.Put("data", []byte("k"), []byte("new")), "put")
		close(written)
	}()

	select {
	case <-written:
		t.Error("put completed while a read of the same key was in the engine")
	case <-time.After(100 * time.Millisecond):
	}

	close(release)
	wg.Wait()

	// served from the cache, the engine Get is expected only once
	value, err := h.Get("data", []byte("k"))
	assert.Nil(t, err, "get")
	assert.Equal(t, []byte("new"), value, "value after put")
}

func TestFailedWriteEvictsCache(t *testing.T) {
	ctl := gomock.NewController(t)
	defer ctl.Finish()

	e := mocks.NewMockEngine(ctl)
	h := newHandle(logger.New("test"), e, Options{CacheExpiry: time.Minute})

	gomock.InOrder(
		e.EXPECT().Put("data", []byte("k"), []byte("v")).Return(nil),
		e.EXPECT().Put("data", []byte("k"), []byte("w")).Return(errDiskFull),
		e.EXPECT().Get("data", []byte("k")).Return([]byte("v"), nil),
	)

	assert.Nil(t, h.Put("data", []byte("k"), []byte("v")), "put")
	assertIOError(t, "put", h.Put("data", []byte("k"), []byte("w")))

	value, err := h.Get("data", []byte("k"))
	assert.Nil(t, err, "get")
	assert.Equal(t, []byte("v"), value, "engine value")
}

func TestEmptyKeyRejectedBeforeEngine(t *testing.T) {
	ctl := gomock.NewController(t)
	defer ctl.Finish()

	// no expectations, any engine call fails the test
	e := mocks.NewMockEngine(ctl)

	for _, options := range []Options{{}, {CacheExpiry: time.Minute}} {
		h := newHandle(logger.New("test"), e, options)

		_, err := h.Get("data", nil)
		assertEmptyKey(t, "get", err)
		assertEmptyKey(t, "put", h.Put("data", []byte{}, []byte("v")))
		assertEmptyKey(t, "delete", h.Delete("data", nil))
	}
}

func assertEmptyKey(t *testing.T, op string, err error) {
	assert.Equal(t, fault.ErrEmptyKey, err, "%s: error", op)
	var ioError *IOError
	assert.False(t, errors.As(err, &ioError), "%s: wrapped as io error", op)
}

func TestOperationMetrics(t *testing.T) {
	ctl := gomock.NewController(t)
	defer ctl.Finish()

	e := mocks.NewMockEngine(ctl)
	h := newHandle(logger.New("test"), e, Options{})

	e.EXPECT().Put(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).Times(2)
	e.EXPECT().Put(gomock.Any(), gomock.Any(), gomock.Any()).Return(errDiskFull).Times(1)

	ok := testutil.ToFloat64(operationsTotal.WithLabelValues("put", statusOK))
	failed := testutil.ToFloat64(operationsTotal.WithLabelValues("put", statusError))

	_ = h.Put("data", []byte("a"), []byte("1"))
	_ = h.Put("data", []byte("b"), []byte("2"))
	_ = h.Put("data", []byte("c"), []byte("3"))

	assert.Equal(t, ok+2, testutil.ToFloat64(operationsTotal.WithLabelValues("put", statusOK)), "ok puts")
	assert.Equal(t, failed+1, testutil.ToFloat64(operationsTotal.WithLabelValues("put", statusError)), "failed puts")
}

func TestMigrationRecordMetrics(t *testing.T) {
	ctl := gomock.NewController(t)
	defer ctl.Finish()

	h := newHandle(logger.New("test"), mocks.NewMockEngine(ctl), Options{})

	before := testutil.ToFloat64(migrationRecordsTotal.WithLabelValues("metric_step"))
	h.setStep("metric_step")
	for i := 0; i < 5; i += 1 {
		assert.Nil(t, h.Progress(), "progress")
	}
	h.setStep("")
	assert.Equal(t, before+5, testutil.ToFloat64(migrationRecordsTotal.WithLabelValues("metric_step")), "records")
}

func TestJournalOrder(t *testing.T) {
	var j journal
	last := j.next()
	for i := 0; i < 1000; i += 1 {
		id := j.next()
		assert.True(t, id.String() > last.String(), "id: %s not after: %s", id, last)
		last = id
	}
}
