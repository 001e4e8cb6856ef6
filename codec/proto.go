// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package codec

import (
	"fmt"

	"github.com/golang/protobuf/proto"

	"github.com/bitmark-inc/cfdb/fault"
)

// Proto - a codec for protocol buffer messages
//
// marshalling is deterministic, which is sufficient for values; do
// not use it for keys since varint fields do not sort by value
func Proto[T proto.Message](format string, factory func() T) Codec[T] {
	return protoCodec[T]{format: format, factory: factory}
}

type protoCodec[T proto.Message] struct {
	format  string
	factory func() T
}

func (c protoCodec[T]) Format() string {
	return c.format
}

func (c protoCodec[T]) Encode(value T) ([]byte, error) {
	buffer := proto.NewBuffer(nil)
	buffer.SetDeterministic(true)
	if err := buffer.Marshal(value); nil != err {
		return nil, fmt.Errorf("%s: %s", c.format, err)
	}
	return buffer.Bytes(), nil
}

func (c protoCodec[T]) Decode(data []byte) (T, error) {
	message := c.factory()
	if err := proto.Unmarshal(data, message); nil != err {
		var zero T
		return zero, fmt.Errorf("%s: %w: %s", c.format, fault.ErrCorruptRecord, err)
	}
	return message, nil
}
