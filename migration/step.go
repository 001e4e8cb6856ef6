// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package migration

import (
	"fmt"

	"github.com/bitmark-inc/cfdb/failpoint"
	"github.com/bitmark-inc/cfdb/fault"
	"github.com/bitmark-inc/cfdb/storage"
)

// Step - one transformation between family generations
type Step struct {
	Name      string
	From      []storage.ColumnDescriptor
	To        []storage.ColumnDescriptor
	Transform storage.Transform
}

// Apply - create To, run the transform, then drop From
//
// From is only dropped once the transform has succeeded
func (s Step) Apply(b *storage.Builder) error {
	if err := b.AddColumnFamilies(s.Name, s.To, s.Transform); nil != err {
		return err
	}
	return b.DropColumnFamiliesForStep(s.Name, s.From)
}

// Map - convert every record of one family into another
func Map[K1 any, V1 any, K2 any, V2 any](
	h *storage.Handle,
	from *storage.Column[K1, V1],
	to *storage.Column[K2, V2],
	convert func(K1, V1) (K2, V2, error),
) error {
	entries, err := from.Entries(h)
	if nil != err {
		return err
	}
	defer entries.Release()

	for entries.Next() {
		key, value, err := convert(entries.Key(), entries.Value())
		if nil != err {
			return err
		}
		if err := to.Put(h, key, value); nil != err {
			return err
		}
		if err := h.Progress(); nil != err {
			return err
		}
	}
	if err := entries.Err(); nil != err {
		return err
	}
	return h.Failpoint(failpoint.Migration)
}

// Partition - route every record of one family to exactly one target
//
// route returns the index of the target and the converted record
func Partition[K1 any, V1 any, K2 any, V2 any](
	h *storage.Handle,
	from *storage.Column[K1, V1],
	targets []*storage.Column[K2, V2],
	route func(K1, V1) (int, K2, V2, error),
) error {
	entries, err := from.Entries(h)
	if nil != err {
		return err
	}
	defer entries.Release()

	for entries.Next() {
		n, key, value, err := route(entries.Key(), entries.Value())
		if nil != err {
			return err
		}
		if n < 0 || n >= len(targets) {
			return fmt.Errorf("route: target: %d of %d: %w", n, len(targets), fault.ErrValueOutOfRange)
		}
		if err := targets[n].Put(h, key, value); nil != err {
			return err
		}
		if err := h.Progress(); nil != err {
			return err
		}
	}
	if err := entries.Err(); nil != err {
		return err
	}
	return h.Failpoint(failpoint.Migration)
}
