package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	jobRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "returns_job_runs_total",
		Help: "Scheduled job runs, by job name.",
	}, []string{"job"})

	jobErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "returns_job_errors_total",
		Help: "Scheduled job runs that ended in error, by job name.",
	}, []string{"job"})

	logsGenerated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "returns_return_logs_generated_total",
		Help: "Return logs created by generation runs, by cycle kind.",
	}, []string{"cycle"})
)

func IncJobRun(job string) {
	jobRuns.WithLabelValues(job).Inc()
}

func IncJobError(job string) {
	jobErrors.WithLabelValues(job).Inc()
}

func AddLogsGenerated(summer bool, count int) {
	kind := "all-year"
	if summer {
		kind = "summer"
	}
	logsGenerated.WithLabelValues(kind).Add(float64(count))
}
