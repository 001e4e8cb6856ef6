// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package sample

import (
	"github.com/bitmark-inc/cfdb/storage"
)

// EntryV0 - a V0 record with its key
type EntryV0 struct {
	ID   NetworkID
	Info NetworkInfoV0
}

// EntryV1 - a V1 record with its key
type EntryV1 struct {
	ID   NetworkID
	Info NetworkInfoV1
}

// DataV0 - sample records of the first generation
var DataV0 = []EntryV0{
	{42, NetworkInfoV0{Height: 100, NumBeans: 50, NumFailures: 2}},
	{7, NetworkInfoV0{Height: 12, NumBeans: 150, NumFailures: 0}},
	{1000, NetworkInfoV0{Height: 5000, NumBeans: 101, NumFailures: 9}},
	{3, NetworkInfoV0{Height: 1, NumBeans: 100, NumFailures: 1}},
	{65535, NetworkInfoV0{Height: 77, NumBeans: 4000000000, NumFailures: 65535}},
}

// DataV1 - the first five entries are DataV0 converted
var DataV1 = []EntryV1{
	{42, NetworkInfoV1{Height: 100, NumBeans: 50, NumFailures: 2, IsCool: false}},
	{7, NetworkInfoV1{Height: 12, NumBeans: 150, NumFailures: 0, IsCool: true}},
	{1000, NetworkInfoV1{Height: 5000, NumBeans: 101, NumFailures: 9, IsCool: true}},
	{3, NetworkInfoV1{Height: 1, NumBeans: 100, NumFailures: 1, IsCool: false}},
	{65535, NetworkInfoV1{Height: 77, NumBeans: 4000000000, NumFailures: 65535, IsCool: true}},
	{9, NetworkInfoV1{Height: 20, NumBeans: 1 << 40, NumFailures: 1 << 20, IsCool: true}},
	{11, NetworkInfoV1{Height: 21, NumBeans: 0, NumFailures: 0, IsCool: false}},
}

// LoadV0 - write DataV0
func LoadV0(h *storage.Handle) error {
	for _, e := range DataV0 {
		if err := NetworkInfoV0Column.Put(h, e.ID, e.Info); nil != err {
			return err
		}
	}
	return nil
}

// LoadV1 - write DataV1
func LoadV1(h *storage.Handle) error {
	for _, e := range DataV1 {
		if err := NetworkInfoV1Column.Put(h, e.ID, e.Info); nil != err {
			return err
		}
	}
	return nil
}

// Generation - open a store, create the families of one generation and
// load its sample data
func Generation(path string, families []storage.ColumnDescriptor, load func(*storage.Handle) error, options storage.Options) error {
	b, err := storage.Open(path, families, options)
	if nil != err {
		return err
	}
	h, err := b.Build()
	if nil != err {
		b.Close()
		return err
	}
	if err := load(h); nil != err {
		h.Close()
		return err
	}
	return h.Close()
}
