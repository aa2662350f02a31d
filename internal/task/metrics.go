package task

import "github.com/prometheus/client_golang/prometheus"

var (
	runsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "warden_task_runs_total",
			Help: "Total number of completed task runs by terminal status.",
		},
		[]string{"task", "status"},
	)

	runDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "warden_task_run_duration_seconds",
			Help:    "Task run duration in seconds, measured across all attempts.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"task"},
	)

	retriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "warden_task_retries_total",
			Help: "Total number of retry attempts.",
		},
		[]string{"task"},
	)

	overlapSkips = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "warden_task_overlap_skips_total",
			Help: "Total number of invocations skipped because a run was in flight.",
		},
		[]string{"task"},
	)

	notifyFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "warden_task_notify_failures_total",
			Help: "Total number of notifier errors and panics, isolated from task outcomes.",
		},
		[]string{"task"},
	)

	strayRunning = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "warden_task_stray_running",
			Help: "Attempts that lost a timeout race and are still running detached.",
		},
	)
)

func init() {
	prometheus.MustRegister(runsTotal)
	prometheus.MustRegister(runDuration)
	prometheus.MustRegister(retriesTotal)
	prometheus.MustRegister(overlapSkips)
	prometheus.MustRegister(notifyFailures)
	prometheus.MustRegister(strayRunning)
}
