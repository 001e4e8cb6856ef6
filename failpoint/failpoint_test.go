// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package failpoint_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bitmark-inc/cfdb/failpoint"
	"github.com/bitmark-inc/cfdb/fault"
)

func TestNone(t *testing.T) {
	f := failpoint.None()
	for i := 0; i < 10; i += 1 {
		assert.Nil(t, f.Check(failpoint.Migration), "none fired")
	}
}

func TestTrigger(t *testing.T) {
	f := failpoint.NewTrigger(failpoint.Migration, 3)

	assert.Nil(t, f.Check(failpoint.Migration), "first")
	assert.Nil(t, f.Check("other"), "other hook")
	assert.Nil(t, f.Check(failpoint.Migration), "second")
	assert.False(t, f.Fired(), "fired early")

	err := f.Check(failpoint.Migration)
	assert.True(t, errors.Is(err, fault.ErrInjectedFailure), "third: %v", err)
	assert.True(t, f.Fired(), "not fired")

	assert.Nil(t, f.Check(failpoint.Migration), "fires only once")
	assert.Equal(t, 4, f.Count(), "count")
}

func TestTriggerNeverReached(t *testing.T) {
	f := failpoint.NewTrigger(failpoint.Migration, 0)
	for i := 0; i < 5; i += 1 {
		assert.Nil(t, f.Check(failpoint.Migration), "fired")
	}
	assert.False(t, f.Fired(), "fired")
}

func TestFunc(t *testing.T) {
	names := []string{}
	f := failpoint.Func(func(name string) error {
		names = append(names, name)
		return fault.ErrInjectedFailure
	})
	assert.Equal(t, fault.ErrInjectedFailure, f.Check("a"), "func result")
	assert.Equal(t, []string{"a"}, names, "func called")
}
