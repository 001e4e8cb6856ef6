// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package ratelimit - pace a loop with a token bucket
package ratelimit

import (
	"time"

	"golang.org/x/time/rate"

	"github.com/bitmark-inc/cfdb/fault"
)

// New - a limiter for events per second with a burst allowance
//
// a zero or negative rate means no limit and returns nil
func New(perSecond float64, burst int) *rate.Limiter {
	if perSecond <= 0 {
		return nil
	}
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(perSecond), burst)
}

// Limit - wait until one event is allowed, a nil limiter never waits
func Limit(limiter *rate.Limiter) error {
	return LimitN(limiter, 1)
}

// LimitN - wait until count events are allowed
func LimitN(limiter *rate.Limiter, count int) error {
	if nil == limiter {
		return nil
	}
	if count <= 0 {
		return fault.ErrInvalidCount
	}
	r := limiter.ReserveN(time.Now(), count)
	if !r.OK() {
		return fault.ErrRateLimiting
	}
	time.Sleep(r.Delay())
	return nil
}
