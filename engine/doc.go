// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package engine - the interface to an embedded key-value engine
//
// An engine stores bytes in named column families.  Each column
// family is an independent ordered key space with its own options.
// Engines without native column families (LevelDB, Pebble) emulate
// them with a catalog, see the keyspace package.
//
// Notes:
// 1. keys are compared bytewise, no other comparator is supported
// 2. an empty key is an error, an empty value is allowed
// 3. Get returns nil, nil for a missing key
// 4. every successful Put, Delete, Create or Drop is durable once it
//    returns if the engine was opened with Sync set
package engine
