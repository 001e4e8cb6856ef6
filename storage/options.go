// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage

import (
	"time"

	"github.com/bitmark-inc/cfdb/failpoint"
)

// Options - how a store is opened
type Options struct {
	// Engine names the storage engine, empty selects the default
	Engine string

	// Sync flushes every write before it is acknowledged
	Sync bool

	// CacheExpiry enables the read cache when positive
	CacheExpiry time.Duration

	// MigrationRate limits migrated records per second, zero is unlimited
	MigrationRate  float64
	MigrationBurst int

	// Failpoints decides which named hooks fail, nil never fails
	Failpoints failpoint.Failpoints
}
