// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package codec

import (
	"encoding/binary"

	"github.com/bitmark-inc/cfdb/fault"
)

// Varint64MaximumBytes - maximum possible number of bytes in a varint64
const Varint64MaximumBytes = 9

// maximum length accepted for a bytes or string field
const maximumFieldLength = 1 << 30

// Buffer - accumulate the packed form of a record
type Buffer struct {
	data []byte
}

// Bytes - the packed data
func (buffer *Buffer) Bytes() []byte {
	if nil == buffer.data {
		return []byte{}
	}
	return buffer.data
}

// PutUint8 - append one byte
func (buffer *Buffer) PutUint8(value uint8) {
	buffer.data = append(buffer.data, value)
}

// PutUint16 - append a big endian uint16
func (buffer *Buffer) PutUint16(value uint16) {
	buffer.data = binary.BigEndian.AppendUint16(buffer.data, value)
}

// PutUint32 - append a big endian uint32
func (buffer *Buffer) PutUint32(value uint32) {
	buffer.data = binary.BigEndian.AppendUint32(buffer.data, value)
}

// PutUint64 - append a big endian uint64
func (buffer *Buffer) PutUint64(value uint64) {
	buffer.data = binary.BigEndian.AppendUint64(buffer.data, value)
}

// PutBool - append 0x01 for true, 0x00 for false
func (buffer *Buffer) PutBool(value bool) {
	if value {
		buffer.data = append(buffer.data, 0x01)
	} else {
		buffer.data = append(buffer.data, 0x00)
	}
}

// PutVarint64 - append a variable length unsigned integer
func (buffer *Buffer) PutVarint64(value uint64) {
	buffer.data = appendVarint64(buffer.data, value)
}

// PutBytes - append a length prefixed byte slice
func (buffer *Buffer) PutBytes(value []byte) {
	buffer.data = appendVarint64(buffer.data, uint64(len(value)))
	buffer.data = append(buffer.data, value...)
}

// PutString - append a length prefixed string
func (buffer *Buffer) PutString(value string) {
	buffer.data = appendVarint64(buffer.data, uint64(len(value)))
	buffer.data = append(buffer.data, value...)
}

// Reader - sequential reader over a packed record
//
// the first error is retained and all later reads return zero
// values, so an Unpack method can read every field and leave the
// caller to check Err or Finish once
type Reader struct {
	data   []byte
	offset int
	err    error
}

// NewReader - start reading at the beginning of data
func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// Err - the first error encountered
func (reader *Reader) Err() error {
	return reader.err
}

// Remaining - number of unread bytes
func (reader *Reader) Remaining() int {
	return len(reader.data) - reader.offset
}

// Finish - check that a whole record was read without error
func (reader *Reader) Finish() error {
	if nil != reader.err {
		return reader.err
	}
	if reader.offset != len(reader.data) {
		return fault.ErrTrailingBytes
	}
	return nil
}

// Fail - record an error found by the caller while unpacking
func (reader *Reader) Fail(err error) {
	if nil == reader.err {
		reader.err = err
	}
}

func (reader *Reader) take(n int) []byte {
	if nil != reader.err {
		return nil
	}
	if n < 0 || reader.Remaining() < n {
		reader.err = fault.ErrTruncatedRecord
		return nil
	}
	if 0 == n {
		return []byte{}
	}
	b := reader.data[reader.offset : reader.offset+n]
	reader.offset += n
	return b
}

// Uint8 - read one byte
func (reader *Reader) Uint8() uint8 {
	b := reader.take(1)
	if nil == b {
		return 0
	}
	return b[0]
}

// Uint16 - read a big endian uint16
func (reader *Reader) Uint16() uint16 {
	b := reader.take(2)
	if nil == b {
		return 0
	}
	return binary.BigEndian.Uint16(b)
}

// Uint32 - read a big endian uint32
func (reader *Reader) Uint32() uint32 {
	b := reader.take(4)
	if nil == b {
		return 0
	}
	return binary.BigEndian.Uint32(b)
}

// Uint64 - read a big endian uint64
func (reader *Reader) Uint64() uint64 {
	b := reader.take(8)
	if nil == b {
		return 0
	}
	return binary.BigEndian.Uint64(b)
}

// Bool - read a bool, any byte other than 0x00 or 0x01 is an error
func (reader *Reader) Bool() bool {
	b := reader.take(1)
	if nil == b {
		return false
	}
	switch b[0] {
	case 0x00:
		return false
	case 0x01:
		return true
	default:
		reader.Fail(fault.ErrValueOutOfRange)
		return false
	}
}

// Varint64 - read a variable length unsigned integer
func (reader *Reader) Varint64() uint64 {
	if nil != reader.err {
		return 0
	}
	value, n := fromVarint64(reader.data[reader.offset:])
	if 0 == n {
		reader.err = fault.ErrTruncatedRecord
		return 0
	}
	reader.offset += n
	return value
}

// Bytes - read a length prefixed byte slice, the result is a copy
func (reader *Reader) Bytes() []byte {
	length := reader.Varint64()
	if nil != reader.err {
		return nil
	}
	if length > maximumFieldLength {
		reader.Fail(fault.ErrValueOutOfRange)
		return nil
	}
	b := reader.take(int(length))
	if nil == b {
		return nil
	}
	result := make([]byte, len(b))
	copy(result, b)
	return result
}

// String - read a length prefixed string
func (reader *Reader) String() string {
	return string(reader.Bytes())
}

// appendVarint64 - append a 64 bit unsigned integer as a varint64
//
// Structure of the result
// byte 1:  ext | B06 | B05 | B04 | B03 | B02 | B01 | B00
// byte 2:  ext | B13 | B12 | B11 | B10 | B09 | B08 | B07
//  ...
// byte 8:  ext | B55 | B54 | B53 | B52 | B51 | B50 | B49
// byte 9:  B63 | B62 | B61 | B60 | B59 | B58 | B57 | B56
//
// the ninth byte carries eight bits, so no value needs more than
// Varint64MaximumBytes
func appendVarint64(data []byte, value uint64) []byte {
	for i := 1; i < Varint64MaximumBytes; i += 1 {
		if value < 0x80 {
			return append(data, byte(value))
		}
		data = append(data, byte(value)|0x80)
		value >>= 7
	}
	return append(data, byte(value))
}

// fromVarint64 - decode a varint64 from the start of data
//
// returns the value and the number of bytes used, or 0, 0 if the
// buffer is truncated
func fromVarint64(data []byte) (uint64, int) {
	result := uint64(0)
	shift := uint(0)

	for count := 0; count < len(data); count += 1 {
		b := uint64(data[count])
		if count == Varint64MaximumBytes-1 {
			return result | b<<shift, count + 1
		}
		result |= (b & 0x7f) << shift
		if 0 == b&0x80 {
			return result, count + 1
		}
		shift += 7
	}
	return 0, 0
}
