// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package codec_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bitmark-inc/cfdb/codec"
	"github.com/bitmark-inc/cfdb/fault"
)

var varint64Tests = []struct {
	value   uint64
	encoded []byte
}{
	{0, []byte{0x00}},
	{1, []byte{0x01}},
	{127, []byte{0x7f}},
	{128, []byte{0x80, 0x01}},
	{137, []byte{0x89, 0x01}},
	{255, []byte{0xff, 0x01}},
	{256, []byte{0x80, 0x02}},
	{16383, []byte{0xff, 0x7f}},
	{16384, []byte{0x80, 0x80, 0x01}},
	{0x7fffffffffffffff, []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x7f}},
	{0x8000000000000000, []byte{0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80}},
	{0xfffffffffffffffe, []byte{0xfe, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff}},
	{0xffffffffffffffff, []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff}},
}

var varint64TruncatedTests = [][]byte{
	{},
	{0x80},
	{0xff},
	{0x80, 0x80},
	{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff},
}

func TestPutVarint64(t *testing.T) {
	for i, item := range varint64Tests {
		buffer := &codec.Buffer{}
		buffer.PutVarint64(item.value)
		if result := buffer.Bytes(); !bytes.Equal(result, item.encoded) {
			t.Errorf("%d: PutVarint64(%x) -> %x  expected: %x", i, item.value, result, item.encoded)
		}
	}
}

func TestReadVarint64(t *testing.T) {
	for i, item := range varint64Tests {
		suffix := []byte{0xff, 0x97, 0x23}
		b := append(append([]byte{}, item.encoded...), suffix...)

		reader := codec.NewReader(b)
		result := reader.Varint64()
		if result != item.value {
			t.Errorf("%d: Varint64(%x) -> %d  expected: %d", i, b, result, item.value)
		}
		if reader.Remaining() != len(suffix) {
			t.Errorf("%d: remaining: %d  expected: %d", i, reader.Remaining(), len(suffix))
		}
		for j, b := range suffix {
			assert.Equal(t, b, reader.Uint8(), "%d: suffix byte: %d", i, j)
		}
		assert.NoError(t, reader.Finish(), "%d: finish", i)
	}

	for i, item := range varint64TruncatedTests {
		reader := codec.NewReader(item)
		result := reader.Varint64()
		if 0 != result || fault.ErrTruncatedRecord != reader.Err() {
			t.Errorf("%d: Varint64(%x) -> %d, %v  expected: 0, truncated", i, item, result, reader.Err())
		}
	}
}

func TestReaderIsSticky(t *testing.T) {
	reader := codec.NewReader([]byte{0x00, 0x01})

	assert.Equal(t, uint16(1), reader.Uint16())
	assert.Equal(t, uint32(0), reader.Uint32(), "read past end")
	assert.Equal(t, uint8(0), reader.Uint8(), "read after error")
	assert.Equal(t, fault.ErrTruncatedRecord, reader.Err())
	assert.Equal(t, fault.ErrTruncatedRecord, reader.Finish())
}

func TestReaderTrailingBytes(t *testing.T) {
	reader := codec.NewReader([]byte{0x01, 0x02})

	assert.Equal(t, uint8(1), reader.Uint8())
	assert.NoError(t, reader.Err())
	assert.Equal(t, fault.ErrTrailingBytes, reader.Finish())
}

func TestReaderBool(t *testing.T) {
	reader := codec.NewReader([]byte{0x00, 0x01, 0x02})

	assert.False(t, reader.Bool())
	assert.True(t, reader.Bool())
	assert.False(t, reader.Bool())
	assert.Equal(t, fault.ErrValueOutOfRange, reader.Err())
}

func TestBytesLengthBeyondData(t *testing.T) {
	buffer := &codec.Buffer{}
	buffer.PutVarint64(10)
	data := append(buffer.Bytes(), "short"...)

	reader := codec.NewReader(data)
	assert.Nil(t, reader.Bytes())
	assert.True(t, fault.IsErrRecord(reader.Err()))
}

func TestEmptyBytesRoundTrip(t *testing.T) {
	buffer := &codec.Buffer{}
	buffer.PutBytes([]byte{})
	buffer.PutString("")

	assert.Equal(t, []byte{0x00, 0x00}, buffer.Bytes())

	reader := codec.NewReader(buffer.Bytes())
	assert.Equal(t, []byte{}, reader.Bytes())
	assert.Equal(t, "", reader.String())
	assert.NoError(t, reader.Finish())
}

func TestBigEndianLayout(t *testing.T) {
	buffer := &codec.Buffer{}
	buffer.PutUint8(0x01)
	buffer.PutUint16(0x0203)
	buffer.PutUint32(0x04050607)
	buffer.PutUint64(0x08090a0b0c0d0e0f)
	buffer.PutBool(true)

	expected := []byte{
		0x01,
		0x02, 0x03,
		0x04, 0x05, 0x06, 0x07,
		0x08, 0x09, 0x0a, 0x0b, 0x0c, 0x0d, 0x0e, 0x0f,
		0x01,
	}
	assert.Equal(t, expected, buffer.Bytes())
}
