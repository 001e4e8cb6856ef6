// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package sample

import (
	"fmt"

	"github.com/bitmark-inc/cfdb/codec"
)

// CoolBeans - a network with more beans than this is cool
const CoolBeans = 100

// NetworkID - identifies a network, stored as 8 bytes big endian
type NetworkID uint64

// Pack - write the id
func (id NetworkID) Pack(buffer *codec.Buffer) {
	buffer.PutUint64(uint64(id))
}

// Unpack - read the id
func (id *NetworkID) Unpack(reader *codec.Reader) {
	*id = NetworkID(reader.Uint64())
}

func (id NetworkID) String() string {
	return fmt.Sprintf("network:%d", uint64(id))
}

// NetworkInfoV0 - first generation record
type NetworkInfoV0 struct {
	Height      uint64
	NumBeans    uint32
	NumFailures uint16
}

// Pack - write the record
func (n NetworkInfoV0) Pack(buffer *codec.Buffer) {
	buffer.PutUint64(n.Height)
	buffer.PutUint32(n.NumBeans)
	buffer.PutUint16(n.NumFailures)
}

// Unpack - read the record
func (n *NetworkInfoV0) Unpack(reader *codec.Reader) {
	n.Height = reader.Uint64()
	n.NumBeans = reader.Uint32()
	n.NumFailures = reader.Uint16()
}

// NetworkInfoV1 - counters widened and the cool flag added
type NetworkInfoV1 struct {
	Height      uint64
	NumBeans    uint64
	NumFailures uint32
	IsCool      bool
}

// Pack - write the record
func (n NetworkInfoV1) Pack(buffer *codec.Buffer) {
	buffer.PutUint64(n.Height)
	buffer.PutUint64(n.NumBeans)
	buffer.PutUint32(n.NumFailures)
	buffer.PutBool(n.IsCool)
}

// Unpack - read the record
func (n *NetworkInfoV1) Unpack(reader *codec.Reader) {
	n.Height = reader.Uint64()
	n.NumBeans = reader.Uint64()
	n.NumFailures = reader.Uint32()
	n.IsCool = reader.Bool()
}

// NetworkInfoV2Key - records are keyed by network and height
type NetworkInfoV2Key struct {
	NetworkID NetworkID
	Height    uint64
}

// Pack - network id first so that a network's records are adjacent
func (k NetworkInfoV2Key) Pack(buffer *codec.Buffer) {
	k.NetworkID.Pack(buffer)
	buffer.PutUint64(k.Height)
}

// Unpack - read the key
func (k *NetworkInfoV2Key) Unpack(reader *codec.Reader) {
	k.NetworkID.Unpack(reader)
	k.Height = reader.Uint64()
}

// NetworkInfoV2 - the counters, the cool flag is implied by the family
type NetworkInfoV2 struct {
	NumBeans    uint64
	NumFailures uint32
}

// Pack - write the record
func (n NetworkInfoV2) Pack(buffer *codec.Buffer) {
	buffer.PutUint64(n.NumBeans)
	buffer.PutUint32(n.NumFailures)
}

// Unpack - read the record
func (n *NetworkInfoV2) Unpack(reader *codec.Reader) {
	n.NumBeans = reader.Uint64()
	n.NumFailures = reader.Uint32()
}

// IsCool - the cool predicate
func IsCool(numBeans uint64) bool {
	return numBeans > CoolBeans
}
