// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package sample

import (
	"github.com/bitmark-inc/cfdb/codec"
	"github.com/bitmark-inc/cfdb/storage"
)

// family names
const (
	NetworkInfoV0Name       = "network_info_v0"
	NetworkInfoV1Name       = "network_info_v1"
	NetworkInfoV2CoolName   = "network_info_v2_cool"
	NetworkInfoV2UncoolName = "network_info_v2_uncool"
)

var (
	networkIDCodec = codec.Record[NetworkID]("network_id")
	v2KeyCodec     = codec.Record[NetworkInfoV2Key]("network_info_v2.key")
	v2ValueCodec   = codec.Record[NetworkInfoV2]("network_info_v2")
)

// the columns of each generation
var (
	NetworkInfoV0Column       = storage.NewColumn(NetworkInfoV0Name, networkIDCodec, codec.Record[NetworkInfoV0]("network_info_v0"))
	NetworkInfoV1Column       = storage.NewColumn(NetworkInfoV1Name, networkIDCodec, codec.Record[NetworkInfoV1]("network_info_v1"))
	NetworkInfoV2CoolColumn   = storage.NewColumn(NetworkInfoV2CoolName, v2KeyCodec, v2ValueCodec)
	NetworkInfoV2UncoolColumn = storage.NewColumn(NetworkInfoV2UncoolName, v2KeyCodec, v2ValueCodec)
)

// the family sets of each generation
var (
	ColumnFamiliesV0 = storage.Descriptors(NetworkInfoV0Column)
	ColumnFamiliesV1 = storage.Descriptors(NetworkInfoV1Column)
	ColumnFamiliesV2 = storage.Descriptors(NetworkInfoV2CoolColumn, NetworkInfoV2UncoolColumn)

	// ColumnFamiliesCurrent - what a program built from this package expects
	ColumnFamiliesCurrent = ColumnFamiliesV2
)
