package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	SyncRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "xeno_sync_runs_total",
			Help: "Producer sync runs by outcome",
		},
		[]string{"result"}, // ok|empty|skipped
	)

	FetchErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "xeno_fetch_errors_total",
			Help: "Upstream fetch errors by resource",
		},
		[]string{"resource"}, // customers|products|orders|checkouts
	)

	JobsEnqueuedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "xeno_jobs_enqueued_total",
			Help: "Jobs published to the ingest queue by type",
		},
		[]string{"type"},
	)

	JobsProcessedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "xeno_jobs_processed_total",
			Help: "Jobs consumed by type and result",
		},
		[]string{"type", "result"}, // ok|retry|dead
	)
)

func MustRegister(r prometheus.Registerer) {
	r.MustRegister(
		SyncRunsTotal,
		FetchErrorsTotal,
		JobsEnqueuedTotal,
		JobsProcessedTotal,
	)
}
