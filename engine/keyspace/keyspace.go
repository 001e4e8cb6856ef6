// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package keyspace - column families emulated in a single ordered key space
//
// Layout:
//
//   0x00 ++ 'c' ++ name         - catalog entry for a column family
//                                 data: id(uint32 BE) ++ options
//   0x00 ++ 'n'                 - next id to allocate
//                                 data: id(uint32 BE)
//   0x01 ++ id(uint32 BE) ++ key - data record of family id
//                                 data: value
//
// ids are allocated in increasing order and never reused, so a family
// dropped and then created again under the same name starts empty even
// if the purge of the old id range was interrupted.  Any data range
// whose id has no catalog entry is an orphan and may be purged.
package keyspace

import (
	"encoding/binary"
	"sort"

	"github.com/bitmark-inc/cfdb/codec"
	"github.com/bitmark-inc/cfdb/engine"
	"github.com/bitmark-inc/cfdb/fault"
)

const (
	metaTag    = 0x00
	dataTag    = 0x01
	catalogTag = 'c'
	nextIDTag  = 'n'

	idSize     = 4
	headerSize = 1 + idSize

	firstID = uint32(1)
)

// CatalogPrefix - prefix of all catalog entries
var CatalogPrefix = []byte{metaTag, catalogTag}

// NextIDKey - location of the id allocator
var NextIDKey = []byte{metaTag, nextIDTag}

// DataStart - first key of the data area
var DataStart = []byte{dataTag}

// DataLimit - first key beyond the data area
var DataLimit = []byte{dataTag + 1}

// Family - catalog entry for one column family
type Family struct {
	ID      uint32
	Options engine.ColumnOptions
}

// Pack - persistent form of a catalog entry
func (f Family) Pack(buffer *codec.Buffer) {
	buffer.PutUint32(f.ID)
	f.Options.Pack(buffer)
}

// Unpack - read a catalog entry
func (f *Family) Unpack(reader *codec.Reader) {
	f.ID = reader.Uint32()
	f.Options.Unpack(reader)
}

var familyCodec = codec.Record[Family]("keyspace.family")

// CatalogKey - catalog location for a name
func CatalogKey(name string) []byte {
	key := make([]byte, 0, len(CatalogPrefix)+len(name))
	key = append(key, CatalogPrefix...)
	return append(key, name...)
}

// DataKey - location of a record of family id
func DataKey(id uint32, key []byte) []byte {
	result := make([]byte, headerSize, headerSize+len(key))
	result[0] = dataTag
	binary.BigEndian.PutUint32(result[1:], id)
	return append(result, key...)
}

// DataRange - start (included) and limit (excluded) of family id's records
func DataRange(id uint32) ([]byte, []byte) {
	start := DataKey(id, nil)
	if id == ^uint32(0) {
		return start, append([]byte{}, DataLimit...)
	}
	return start, DataKey(id+1, nil)
}

// SplitDataKey - separate a data key into its id and the caller's key
//
// the returned key shares storage with the argument
func SplitDataKey(key []byte) (uint32, []byte, bool) {
	if len(key) < headerSize || dataTag != key[0] {
		return 0, nil, false
	}
	return binary.BigEndian.Uint32(key[1:headerSize]), key[headerSize:], true
}

// Catalog - in-memory copy of the persistent catalog
//
// not safe for concurrent use; the owning engine serialises access
type Catalog struct {
	families map[string]Family
	nextID   uint32
}

// NewCatalog - an empty catalog
func NewCatalog() *Catalog {
	return &Catalog{
		families: make(map[string]Family),
		nextID:   firstID,
	}
}

// Load - add one persisted catalog entry
func (c *Catalog) Load(key []byte, value []byte) error {
	if len(key) <= len(CatalogPrefix) {
		return fault.ErrCorruptCatalog
	}
	family, err := familyCodec.Decode(value)
	if nil != err {
		return fault.ErrCorruptCatalog
	}
	name := string(key[len(CatalogPrefix):])
	c.families[name] = family
	if family.ID >= c.nextID {
		c.nextID = family.ID + 1
	}
	return nil
}

// LoadNextID - restore the persisted allocator
func (c *Catalog) LoadNextID(value []byte) error {
	if idSize != len(value) {
		return fault.ErrCorruptCatalog
	}
	if id := binary.BigEndian.Uint32(value); id > c.nextID {
		c.nextID = id
	}
	return nil
}

// Lookup - find a family by name
func (c *Catalog) Lookup(name string) (Family, bool) {
	f, ok := c.families[name]
	return f, ok
}

// Live - true if id belongs to a family in the catalog
func (c *Catalog) Live(id uint32) bool {
	for _, f := range c.families {
		if f.ID == id {
			return true
		}
	}
	return false
}

// Names - sorted family names
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.families))
	for name := range c.families {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Families - a copy of the family options
func (c *Catalog) Families() map[string]engine.ColumnOptions {
	result := make(map[string]engine.ColumnOptions, len(c.families))
	for name, f := range c.families {
		result[name] = f.Options
	}
	return result
}

// Entry - a key/value pair to be written to the engine
type Entry struct {
	Key   []byte
	Value []byte
}

// Reserve - prepare a new family without changing the catalog
//
// the caller must write the returned entries in one atomic batch and
// then call Commit
func (c *Catalog) Reserve(name string, options engine.ColumnOptions) (Family, []Entry, error) {
	if _, ok := c.families[name]; ok {
		return Family{}, nil, fault.ErrColumnFamilyExists
	}
	if c.nextID == ^uint32(0) {
		return Family{}, nil, fault.ErrValueOutOfRange
	}

	family := Family{
		ID:      c.nextID,
		Options: options.Normalise(),
	}
	value, err := familyCodec.Encode(family)
	if nil != err {
		return Family{}, nil, err
	}
	next := make([]byte, idSize)
	binary.BigEndian.PutUint32(next, family.ID+1)

	entries := []Entry{
		{Key: CatalogKey(name), Value: value},
		{Key: append([]byte{}, NextIDKey...), Value: next},
	}
	return family, entries, nil
}

// Commit - record a reserved family after its entries were written
func (c *Catalog) Commit(name string, family Family) {
	c.families[name] = family
	if family.ID >= c.nextID {
		c.nextID = family.ID + 1
	}
}

// Remove - forget a family after its catalog entry was deleted
func (c *Catalog) Remove(name string) {
	delete(c.families, name)
}
