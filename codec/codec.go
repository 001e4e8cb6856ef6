// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package codec

import (
	"encoding/binary"
	"fmt"

	"github.com/bitmark-inc/cfdb/fault"
)

// Codec - serialise and deserialise one type
//
// Format is a short stable name for the byte layout, it is stored
// with a column family so that a store written with one layout is
// never silently read with another
type Codec[T any] interface {
	Format() string
	Encode(value T) ([]byte, error)
	Decode(data []byte) (T, error)
}

// Packer - a record that can write itself to a buffer
type Packer interface {
	Pack(buffer *Buffer)
}

// Unpacker - a record that can read itself from a reader
//
// errors are accumulated in the reader
type Unpacker interface {
	Unpack(reader *Reader)
}

// Record - the uniform binary codec for any record with Pack/Unpack methods
//
// e.g.
//   codec.Record[NetworkInfoV0]("network_info.v0")
func Record[T any, P interface {
	*T
	Packer
	Unpacker
}](format string) Codec[T] {
	return recordCodec[T, P]{format: format}
}

type recordCodec[T any, P interface {
	*T
	Packer
	Unpacker
}] struct {
	format string
}

func (c recordCodec[T, P]) Format() string {
	return c.format
}

func (c recordCodec[T, P]) Encode(value T) ([]byte, error) {
	buffer := &Buffer{}
	P(&value).Pack(buffer)
	return buffer.Bytes(), nil
}

func (c recordCodec[T, P]) Decode(data []byte) (T, error) {
	var value T
	reader := NewReader(data)
	P(&value).Unpack(reader)
	if err := reader.Finish(); nil != err {
		var zero T
		return zero, fmt.Errorf("%s: %w", c.format, err)
	}
	return value, nil
}

// Uint64 - 8 byte big endian unsigned integer
func Uint64() Codec[uint64] {
	return uint64Codec{}
}

type uint64Codec struct{}

func (uint64Codec) Format() string { return "uint64" }

func (uint64Codec) Encode(value uint64) ([]byte, error) {
	data := make([]byte, 8)
	binary.BigEndian.PutUint64(data, value)
	return data, nil
}

func (uint64Codec) Decode(data []byte) (uint64, error) {
	if 8 != len(data) {
		return 0, fmt.Errorf("uint64: length: %d: %w", len(data), fault.ErrTruncatedRecord)
	}
	return binary.BigEndian.Uint64(data), nil
}

// String - the raw bytes of a string, no length prefix
//
// as a key codec the empty string encodes to an empty key, which every
// store rejects with fault.ErrEmptyKey
func String() Codec[string] {
	return stringCodec{}
}

type stringCodec struct{}

func (stringCodec) Format() string { return "string" }

func (stringCodec) Encode(value string) ([]byte, error) {
	return []byte(value), nil
}

func (stringCodec) Decode(data []byte) (string, error) {
	return string(data), nil
}

// Bytes - a byte slice stored unchanged, an empty key is rejected as for String
func Bytes() Codec[[]byte] {
	return bytesCodec{}
}

type bytesCodec struct{}

func (bytesCodec) Format() string { return "bytes" }

func (bytesCodec) Encode(value []byte) ([]byte, error) {
	data := make([]byte, len(value))
	copy(data, value)
	return data, nil
}

func (bytesCodec) Decode(data []byte) ([]byte, error) {
	value := make([]byte, len(data))
	copy(value, data)
	return value, nil
}
