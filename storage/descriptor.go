// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage

import (
	"fmt"
	"strings"

	"github.com/bitmark-inc/cfdb/engine"
	"github.com/bitmark-inc/cfdb/fault"
)

// InternalPrefix - names reserved for the store's own families
const InternalPrefix = "__"

// ColumnDescriptor - the name and shape of one column family
type ColumnDescriptor struct {
	Name    string
	Options engine.ColumnOptions
}

// Describer - anything that declares a column family
type Describer interface {
	Descriptor() ColumnDescriptor
}

// Descriptor - a descriptor describes itself
func (d ColumnDescriptor) Descriptor() ColumnDescriptor {
	return d
}

// Descriptors - collect the descriptors of several columns
func Descriptors(columns ...Describer) []ColumnDescriptor {
	result := make([]ColumnDescriptor, len(columns))
	for i, c := range columns {
		result[i] = c.Descriptor()
	}
	return result
}

// Names - the names of a list of descriptors
func Names(descriptors []ColumnDescriptor) []string {
	names := make([]string, len(descriptors))
	for i, d := range descriptors {
		names[i] = d.Name
	}
	return names
}

// Matches - true if stored options are compatible with this declaration
func (d ColumnDescriptor) Matches(stored engine.ColumnOptions) bool {
	return d.Options.Normalise() == stored.Normalise()
}

// IsInternal - true for names reserved by the store
func IsInternal(name string) bool {
	return strings.HasPrefix(name, InternalPrefix)
}

// check a list of caller supplied descriptors
func validate(descriptors []ColumnDescriptor) error {
	seen := make(map[string]struct{}, len(descriptors))
	for _, d := range descriptors {
		if "" == d.Name {
			return fault.ErrInvalidColumnFamilyName
		}
		if IsInternal(d.Name) {
			return fmt.Errorf("%q: %w", d.Name, fault.ErrReservedColumnFamilyName)
		}
		if _, ok := seen[d.Name]; ok {
			return fmt.Errorf("%q: %w", d.Name, fault.ErrDuplicateColumnFamily)
		}
		if err := engine.CheckComparator(d.Options); nil != err {
			return fmt.Errorf("%q: %w", d.Name, err)
		}
		seen[d.Name] = struct{}{}
	}
	return nil
}
