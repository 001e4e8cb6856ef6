// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage

import (
	"fmt"

	"github.com/bitmark-inc/cfdb/fault"
)

// Kind - the class of an OpenError
type Kind int

// kinds of open error
const (
	KindIO             Kind = iota // filesystem or engine failure
	KindSchemaConflict             // declared families disagree with the store
	KindMigration                  // a migration transform failed
)

func (k Kind) String() string {
	switch k {
	case KindIO:
		return "io"
	case KindSchemaConflict:
		return "schema conflict"
	case KindMigration:
		return "migration"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// OpenError - a failure while opening or migrating a store
//
// none of these are retried; the store is left with its old families
// intact so the process can be restarted once the cause is fixed
type OpenError struct {
	Kind   Kind
	Path   string
	Family string
	Err    error
}

func (e *OpenError) Error() string {
	if "" != e.Family {
		return fmt.Sprintf("open: %q: %s: family: %q: %s", e.Path, e.Kind, e.Family, e.Err)
	}
	return fmt.Sprintf("open: %q: %s: %s", e.Path, e.Kind, e.Err)
}

func (e *OpenError) Unwrap() error {
	return e.Err
}

// MigrationError - the details of a failed migration step
type MigrationError struct {
	Step string
	Err  error
}

func (e *MigrationError) Error() string {
	return fmt.Sprintf("migration step: %q: %s", e.Step, e.Err)
}

func (e *MigrationError) Unwrap() error {
	return e.Err
}

// IOError - an engine failure during a store operation
type IOError struct {
	Op     string
	Family string
	Err    error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("storage %s: family: %q: %s", e.Op, e.Family, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// CorruptRecordError - a stored key or value could not be decoded
type CorruptRecordError struct {
	Family string
	Key    []byte
	Err    error
}

func (e *CorruptRecordError) Error() string {
	return fmt.Sprintf("corrupt record: family: %q  key: %x: %s", e.Family, e.Key, e.Err)
}

func (e *CorruptRecordError) Unwrap() error {
	return e.Err
}

// Is - every CorruptRecordError matches fault.ErrCorruptRecord
func (e *CorruptRecordError) Is(target error) bool {
	return fault.ErrCorruptRecord == target
}

// corrupt - wrap a decode error so it is always classed as a record error
func corrupt(family string, key []byte, err error) error {
	if !fault.IsErrRecord(err) {
		err = fmt.Errorf("%s: %w", err, fault.ErrCorruptRecord)
	}
	return &CorruptRecordError{
		Family: family,
		Key:    append([]byte{}, key...),
		Err:    err,
	}
}
