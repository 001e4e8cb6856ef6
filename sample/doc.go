// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package sample - a three generation schema and its migrations
//
// Generations:
//
//   V0  network_info_v0         network id -> height ++ beans(uint32) ++ failures(uint16)
//   V1  network_info_v1         network id -> height ++ beans(uint64) ++ failures(uint32) ++ is cool
//   V2  network_info_v2_cool    network id ++ height -> beans ++ failures
//       network_info_v2_uncool  network id ++ height -> beans ++ failures
//
// a network is cool when it has more than CoolBeans beans; V1 stores
// the flag and V2 splits the records by it
package sample
