// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// metric label values
const (
	statusOK    = "ok"
	statusError = "error"

	resultCompleted = "completed"
	resultFailed    = "failed"
)

var (
	operationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cfdb_storage_operations_total",
			Help: "Total number of storage operations",
		},
		[]string{"operation", "status"},
	)

	migrationRecordsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cfdb_migration_records_total",
			Help: "Total number of records visited by migration steps",
		},
		[]string{"step"},
	)

	migrationStepsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cfdb_migration_steps_total",
			Help: "Total number of migration step runs",
		},
		[]string{"step", "result"},
	)
)

func countOperation(operation string, err error) {
	status := statusOK
	if nil != err {
		status = statusError
	}
	operationsTotal.WithLabelValues(operation, status).Inc()
}
