// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage

import (
	"github.com/bitmark-inc/cfdb/codec"
	"github.com/bitmark-inc/cfdb/engine"
)

// Column - typed access to one column family
//
// the codec formats become the family's stored options, so opening a
// store whose family was written with different codecs is a schema
// conflict rather than a stream of corrupt records
type Column[K any, V any] struct {
	descriptor ColumnDescriptor
	keys       codec.Codec[K]
	values     codec.Codec[V]
}

// NewColumn - bind a key codec and a value codec to a family name
func NewColumn[K any, V any](name string, keys codec.Codec[K], values codec.Codec[V]) *Column[K, V] {
	return &Column[K, V]{
		descriptor: ColumnDescriptor{
			Name: name,
			Options: engine.ColumnOptions{
				Comparator:  engine.BytewiseComparator,
				KeyFormat:   keys.Format(),
				ValueFormat: values.Format(),
			},
		},
		keys:   keys,
		values: values,
	}
}

// Descriptor - the family declaration
func (c *Column[K, V]) Descriptor() ColumnDescriptor {
	return c.descriptor
}

// Name - the family name
func (c *Column[K, V]) Name() string {
	return c.descriptor.Name
}

// Get - point lookup, false if the key is absent
func (c *Column[K, V]) Get(h *Handle, key K) (V, bool, error) {
	var value V

	k, err := c.keys.Encode(key)
	if nil != err {
		return value, false, err
	}
	data, err := h.Get(c.descriptor.Name, k)
	if nil != err || nil == data {
		return value, false, err
	}

	value, err = c.values.Decode(data)
	if nil != err {
		return value, false, corrupt(c.descriptor.Name, k, err)
	}
	return value, true, nil
}

// Put - insert or overwrite
func (c *Column[K, V]) Put(h *Handle, key K, value V) error {
	k, err := c.keys.Encode(key)
	if nil != err {
		return err
	}
	v, err := c.values.Encode(value)
	if nil != err {
		return err
	}
	return h.Put(c.descriptor.Name, k, v)
}

// Delete - remove a key, absent keys are not an error
func (c *Column[K, V]) Delete(h *Handle, key K) error {
	k, err := c.keys.Encode(key)
	if nil != err {
		return err
	}
	return h.Delete(c.descriptor.Name, k)
}

// Keys - lazy iteration over all keys in encoded key order
func (c *Column[K, V]) Keys(h *Handle) (*KeyIterator[K], error) {
	iter, err := h.iterator(c.descriptor.Name, nil)
	if nil != err {
		return nil, err
	}
	return &KeyIterator[K]{
		family: c.descriptor.Name,
		iter:   iter,
		keys:   c.keys,
	}, nil
}

// Entries - lazy iteration over all records in encoded key order
func (c *Column[K, V]) Entries(h *Handle) (*EntryIterator[K, V], error) {
	iter, err := h.iterator(c.descriptor.Name, nil)
	if nil != err {
		return nil, err
	}
	return &EntryIterator[K, V]{
		family: c.descriptor.Name,
		iter:   iter,
		keys:   c.keys,
		values: c.values,
	}, nil
}

// Each - call f for every record, an error from f stops the loop
func (c *Column[K, V]) Each(h *Handle, f func(key K, value V) error) error {
	entries, err := c.Entries(h)
	if nil != err {
		return err
	}
	defer entries.Release()

	for entries.Next() {
		if err := f(entries.Key(), entries.Value()); nil != err {
			return err
		}
	}
	return entries.Err()
}

// Count - number of records
func (c *Column[K, V]) Count(h *Handle) (int, error) {
	return h.Count(c.descriptor.Name)
}

// KeyIterator - decoded keys of a family
type KeyIterator[K any] struct {
	family string
	iter   engine.Iterator
	keys   codec.Codec[K]
	key    K
	err    error
}

// Next - advance, false at the end or after an error
func (i *KeyIterator[K]) Next() bool {
	if nil != i.err || !i.iter.Next() {
		return false
	}
	raw := i.iter.Key()
	key, err := i.keys.Decode(raw)
	if nil != err {
		i.err = corrupt(i.family, raw, err)
		return false
	}
	i.key = key
	return true
}

// Key - the current key
func (i *KeyIterator[K]) Key() K {
	return i.key
}

// Err - the error that ended the iteration, if any
func (i *KeyIterator[K]) Err() error {
	if nil != i.err {
		return i.err
	}
	if err := i.iter.Error(); nil != err {
		return &IOError{Op: "iterate", Family: i.family, Err: err}
	}
	return nil
}

// Release - free the iterator
func (i *KeyIterator[K]) Release() {
	i.iter.Release()
}

// EntryIterator - decoded records of a family
type EntryIterator[K any, V any] struct {
	family string
	iter   engine.Iterator
	keys   codec.Codec[K]
	values codec.Codec[V]
	key    K
	value  V
	err    error
}

// Next - advance, false at the end or after an error
func (i *EntryIterator[K, V]) Next() bool {
	if nil != i.err || !i.iter.Next() {
		return false
	}
	raw := i.iter.Key()
	key, err := i.keys.Decode(raw)
	if nil != err {
		i.err = corrupt(i.family, raw, err)
		return false
	}
	value, err := i.values.Decode(i.iter.Value())
	if nil != err {
		i.err = corrupt(i.family, raw, err)
		return false
	}
	i.key = key
	i.value = value
	return true
}

// Key - the current key
func (i *EntryIterator[K, V]) Key() K {
	return i.key
}

// Value - the current value
func (i *EntryIterator[K, V]) Value() V {
	return i.value
}

// Err - the error that ended the iteration, if any
func (i *EntryIterator[K, V]) Err() error {
	if nil != i.err {
		return i.err
	}
	if err := i.iter.Error(); nil != err {
		return &IOError{Op: "iterate", Family: i.family, Err: err}
	}
	return nil
}

// Release - free the iterator
func (i *EntryIterator[K, V]) Release() {
	i.iter.Release()
}
