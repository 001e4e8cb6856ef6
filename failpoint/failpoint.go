// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package failpoint - named hooks where a test can inject an error
//
// production code calls Check at each hook and continues when it
// returns nil
package failpoint

import (
	"fmt"
	"sync"

	"github.com/bitmark-inc/cfdb/fault"
)

// Migration - checked by a migration transform after each record it
// writes and once more when it has visited every source record
const Migration = "migration_failpoint"

// Failpoints - decides whether a named hook fails
type Failpoints interface {
	Check(name string) error
}

type none struct{}

// None - failpoints that never fire
func None() Failpoints {
	return none{}
}

func (none) Check(string) error {
	return nil
}

// Func - adapt a function to Failpoints
type Func func(name string) error

// Check - call the function
func (f Func) Check(name string) error {
	return f(name)
}

// Trigger - fails the n-th check of one hook, then never again
type Trigger struct {
	sync.Mutex
	name  string
	at    int
	count int
	fired bool
}

// NewTrigger - fail at check number n (counting from 1) of the named hook
func NewTrigger(name string, n int) *Trigger {
	return &Trigger{
		name: name,
		at:   n,
	}
}

// Check - count calls to the hook and fail the chosen one
func (t *Trigger) Check(name string) error {
	if name != t.name {
		return nil
	}

	t.Lock()
	defer t.Unlock()

	t.count += 1
	if t.fired || t.count != t.at {
		return nil
	}
	t.fired = true
	return fmt.Errorf("%s: check: %d: %w", name, t.count, fault.ErrInjectedFailure)
}

// Count - number of times the hook was checked
func (t *Trigger) Count() int {
	t.Lock()
	defer t.Unlock()
	return t.count
}

// Fired - true once the failure was returned
func (t *Trigger) Fired() bool {
	t.Lock()
	defer t.Unlock()
	return t.fired
}
