// Package metrics defines the Prometheus metrics exported on /metrics.
// Metrics register with the default registry on package init via promauto.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "role_master"

// ── Repository metrics ────────────────────────────────────────────────────────

// RoleMutationsTotal counts successful repository writes.
// Label:
//   - op: "save", "create", "update", "delete", "select", "favorite", "group_chat", "install", "replace"
var RoleMutationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "role_mutations_total",
		Help:      "Total number of committed repository mutations, by operation.",
	},
	[]string{"op"},
)

// RevisionConflictsTotal counts optimistic-concurrency conflicts that forced a retry.
var RevisionConflictsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "revision_conflicts_total",
		Help:      "Total number of config revision conflicts seen by the repository.",
	},
)

// RolesImportedTotal counts import outcomes per role.
// Label:
//   - result: "imported" or "skipped"
var RolesImportedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "roles_imported_total",
		Help:      "Total number of roles processed by import, by result.",
	},
	[]string{"result"},
)

// ── Side effects ──────────────────────────────────────────────────────────────

// MirrorSyncsTotal counts rule file syncs.
// Label:
//   - result: "written", "cleared", "skipped", "failed"
var MirrorSyncsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "mirror_syncs_total",
		Help:      "Total number of rule file syncs, by result.",
	},
	[]string{"result"},
)

// MarketFetchesTotal counts market catalog loads.
// Label:
//   - source: "remote" or "builtin"
var MarketFetchesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "market_fetches_total",
		Help:      "Total number of market catalog loads, by the source that served them.",
	},
	[]string{"source"},
)
