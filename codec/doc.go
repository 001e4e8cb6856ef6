// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package codec - convert typed keys and values to and from bytes
//
// All codecs are deterministic: the same logical value always packs
// to the same bytes.  Fixed width integers are packed big endian so
// that packed keys sort in numeric order, which makes the store's
// byte order iteration meaningful for integer and composite keys.
//
// Record layout (the uniform binary codec):
//
//   uint8/16/32/64 = big endian, fixed width
//   bool           = one byte, 0x00 or 0x01
//   varint64       = 7 bits per byte little endian groups, see appendVarint64
//   bytes/string   = varint64(length) ++ data
//   fixed          = data with a length known to the reader
//
// fields are concatenated in declaration order with no tags, so a
// record type must never change once data has been written with it;
// a new version of a record is a new type stored in a new column family
package codec
