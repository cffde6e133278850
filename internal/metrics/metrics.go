// Copyright (c) 2026 Li Jinling. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// StoreOperations counts snapshot store calls by operation, backend and status.
	StoreOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "topology_store_operations_total",
			Help: "Total number of snapshot store operations",
		},
		[]string{"op", "backend", "status"},
	)

	// DocumentsIngested counts ingested documents by status (ok, open_failed, parse_failed, store_failed).
	DocumentsIngested = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "topology_documents_ingested_total",
			Help: "Total number of topology documents processed by the scanner",
		},
		[]string{"status"},
	)

	// WatchTicks counts watch loop ticks.
	WatchTicks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "topology_watch_ticks_total",
			Help: "Total number of document watch ticks",
		},
	)

	// WatchChanges counts documents re-ingested after a modification time change.
	WatchChanges = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "topology_watch_changes_total",
			Help: "Total number of changed documents detected by the watch loop",
		},
	)

	// Requests counts snapshot requests by result (ok, unrecognized, error).
	Requests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "topology_requests_total",
			Help: "Total number of snapshot requests",
		},
		[]string{"result"},
	)

	// ResponseBytes tracks the size of snapshot responses.
	ResponseBytes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "topology_response_bytes",
			Help:    "Size of aggregate snapshot responses in bytes",
			Buckets: prometheus.ExponentialBuckets(256, 4, 8),
		},
	)

	// ConnectionsActive tracks the number of open client connections.
	ConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "topology_connections_active",
			Help: "Number of client connections currently being served",
		},
	)
)

// Status maps an error to a status label value.
func Status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
