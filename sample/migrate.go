// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package sample

import (
	"github.com/bitmark-inc/cfdb/migration"
	"github.com/bitmark-inc/cfdb/storage"
)

// step names
const (
	StepV0V1 = "sample_migrate_v0_v1"
	StepV1V2 = "sample_migrate_v1_v2"
)

// indices into the V2 targets
const (
	coolTarget   = 0
	uncoolTarget = 1
)

var v2Targets = []*storage.Column[NetworkInfoV2Key, NetworkInfoV2]{
	coolTarget:   NetworkInfoV2CoolColumn,
	uncoolTarget: NetworkInfoV2UncoolColumn,
}

// ConvertV0V1 - widen the counters and derive the cool flag
func ConvertV0V1(id NetworkID, v0 NetworkInfoV0) (NetworkID, NetworkInfoV1, error) {
	return id, NetworkInfoV1{
		Height:      v0.Height,
		NumBeans:    uint64(v0.NumBeans),
		NumFailures: uint32(v0.NumFailures),
		IsCool:      IsCool(uint64(v0.NumBeans)),
	}, nil
}

// RouteV1V2 - choose the cool or uncool family and build the composite key
func RouteV1V2(id NetworkID, v1 NetworkInfoV1) (int, NetworkInfoV2Key, NetworkInfoV2, error) {
	target := uncoolTarget
	if v1.IsCool {
		target = coolTarget
	}
	key := NetworkInfoV2Key{
		NetworkID: id,
		Height:    v1.Height,
	}
	value := NetworkInfoV2{
		NumBeans:    v1.NumBeans,
		NumFailures: v1.NumFailures,
	}
	return target, key, value, nil
}

// TransformV0V1 - fill V1 from every V0 record
func TransformV0V1(h *storage.Handle) error {
	return migration.Map(h, NetworkInfoV0Column, NetworkInfoV1Column, ConvertV0V1)
}

// TransformV1V2 - split every V1 record into cool or uncool
func TransformV1V2(h *storage.Handle) error {
	return migration.Partition(h, NetworkInfoV1Column, v2Targets, RouteV1V2)
}

// the steps in version order
var (
	stepV0V1 = migration.Step{
		Name:      StepV0V1,
		From:      ColumnFamiliesV0,
		To:        ColumnFamiliesV1,
		Transform: TransformV0V1,
	}
	stepV1V2 = migration.Step{
		Name:      StepV1V2,
		From:      ColumnFamiliesV1,
		To:        ColumnFamiliesV2,
		Transform: TransformV1V2,
	}
)

// MigrateV0V1 - add V1, fill it, drop V0
func MigrateV0V1(b *storage.Builder) error {
	return stepV0V1.Apply(b)
}

// MigrateV1V2 - add V2, fill it, drop V1
func MigrateV1V2(b *storage.Builder) error {
	return stepV1V2.Apply(b)
}

// Manifest - all sample steps ending at the current families
func Manifest() (*migration.Manifest, error) {
	return migration.NewManifest(ColumnFamiliesCurrent, stepV0V1, stepV1V2)
}

// Upgrade - the fixed upgrade sequence
//
// a store holding V0 runs both steps, one holding V1 runs the second
// and a store already at V2 runs nothing
func Upgrade(b *storage.Builder) error {
	h := b.Handle()

	hasV0, err := h.HasColumnFamily(NetworkInfoV0Name)
	if nil != err {
		return err
	}
	hasV1, err := h.HasColumnFamily(NetworkInfoV1Name)
	if nil != err {
		return err
	}

	if hasV0 {
		if err := MigrateV0V1(b); nil != err {
			return err
		}
		hasV1 = true
	}
	if hasV1 {
		return MigrateV1V2(b)
	}
	return nil
}

// Open - open a store and bring it to the current generation
func Open(path string, options storage.Options) (*storage.Handle, error) {
	manifest, err := Manifest()
	if nil != err {
		return nil, err
	}

	b, err := storage.Open(path, ColumnFamiliesCurrent, options)
	if nil != err {
		return nil, err
	}

	if _, err := manifest.Apply(b); nil != err {
		b.Close()
		return nil, err
	}

	h, err := b.Build()
	if nil != err {
		b.Close()
		return nil, err
	}
	return h, nil
}
