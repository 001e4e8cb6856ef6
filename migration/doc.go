// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package migration - ordered steps from one family generation to the next
//
// A Step names the families it reads (From), the families it creates
// (To) and the transform that fills them.  A Manifest is the chain of
// all steps ending at the current generation; it inspects a store and
// runs only the steps that are still pending.
//
// The Map and Partition helpers are the usual transform loops: read
// every source record, write the converted records with upserts, call
// Progress after each record and check the migration failpoint once
// the source is exhausted.
package migration
