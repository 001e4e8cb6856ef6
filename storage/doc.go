// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package storage - versioned column family store
//
// A store is a directory managed by one engine (see the engine
// package) and partitioned into named column families.  Each family
// is declared by a ColumnDescriptor and accessed through a typed
// Column that binds a key codec and a value codec to the name.
//
// A Builder opens a store, creates the declared families and applies
// migration steps, each of which adds new families, fills them from
// the old ones and later drops the old ones.  When all steps are done
// Build returns the Handle used by the rest of the program.
//
// Notes:
// 1. a store holds one generation of families, except during a step
// 2. a family is only dropped after the step that replaces it succeeds
// 3. a failed step leaves the old families intact, so running the whole
//    step again converges to the result of an uninterrupted run
// 4. names starting with "__" are internal and hidden from callers
//
// Internal families:
//
//   __journal ++ ksuid          - migration journal
//                                 data: step ++ event ++ families ++ error ++ time
package storage
