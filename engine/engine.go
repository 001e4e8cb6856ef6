// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package engine

//go:generate mockgen -source=engine.go -destination=mocks/engine.go -package=mocks

import (
	"github.com/bitmark-inc/cfdb/codec"
	"github.com/bitmark-inc/cfdb/fault"
)

// BytewiseComparator - the only key ordering the bundled engines provide
const BytewiseComparator = "bytewise"

// ColumnOptions - the declared shape of a column family
//
// these are persisted when a column family is created and compared
// when a store is reopened
type ColumnOptions struct {
	Comparator  string
	KeyFormat   string
	ValueFormat string
}

// Normalise - fill in defaults
func (o ColumnOptions) Normalise() ColumnOptions {
	if "" == o.Comparator {
		o.Comparator = BytewiseComparator
	}
	return o
}

// Pack - persistent form of the options
func (o ColumnOptions) Pack(buffer *codec.Buffer) {
	buffer.PutString(o.Comparator)
	buffer.PutString(o.KeyFormat)
	buffer.PutString(o.ValueFormat)
}

// Unpack - read the persistent form of the options
func (o *ColumnOptions) Unpack(reader *codec.Reader) {
	o.Comparator = reader.String()
	o.KeyFormat = reader.String()
	o.ValueFormat = reader.String()
}

// CheckComparator - reject options the bundled engines cannot honour
func CheckComparator(o ColumnOptions) error {
	if BytewiseComparator != o.Normalise().Comparator {
		return fault.ErrUnsupportedComparator
	}
	return nil
}

// Options - parameters for opening an engine
type Options struct {
	Path string // directory holding the engine's files
	Sync bool   // flush every write to stable storage before returning
}

// Plugin - a factory for one engine type
type Plugin interface {
	// Name returns the registered engine name
	Name() string
	// Open opens or creates the store described by options
	Open(options Options) (Engine, error)
}

// Engine - an open store
//
// all methods are safe for concurrent use; after Close every method
// returns fault.ErrStoreClosed
type Engine interface {
	// Name returns the engine name
	Name() string
	// Path returns the store directory
	Path() string
	// Close releases the store
	Close() error

	// ColumnFamilies returns every family with its stored options
	ColumnFamilies() (map[string]ColumnOptions, error)
	// CreateColumnFamily creates an empty family, it returns
	// fault.ErrColumnFamilyExists if the name is in use
	CreateColumnFamily(name string, options ColumnOptions) error
	// DropColumnFamily deletes a family and all its data, it returns
	// fault.ErrColumnFamilyNotFound if there is no such family
	DropColumnFamily(name string) error

	// Get returns a copy of the value or nil if the key is absent
	Get(family string, key []byte) ([]byte, error)
	// Put stores a value, overwriting any previous value
	Put(family string, key []byte, value []byte) error
	// Delete removes a key, there is no error if it is absent
	Delete(family string, key []byte) error
	// NewIterator iterates a family in ascending key order beginning
	// at start; nil start means the first key
	NewIterator(family string, start []byte) (Iterator, error)
}

// Iterator - ordered iteration over one family
//
// an iterator must only be used by one goroutine and must always
// be released
type Iterator interface {
	// Next advances to the next key, a fresh iterator must call
	// Next to reach the first key; false at the end or on error
	Next() bool
	// Key returns the current key, valid until the next call to Next
	Key() []byte
	// Value returns the current value, valid until the next call to Next
	Value() []byte
	// Error returns any error that stopped the iteration
	Error() error
	// Release frees the iterator's resources
	Release()
}
