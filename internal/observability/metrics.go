package observability

import "github.com/prometheus/client_golang/prometheus"

// Domain metrics. HTTP metrics live in the middleware package.
var (
	// GenerationAttempts counts generate+validate attempts by outcome
	// (ok, invalid, parse, incomplete, external, timeout, error).
	GenerationAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "generation_attempts_total",
			Help: "Generation attempts by outcome.",
		},
		[]string{"outcome"},
	)

	// GenerationCoalesced counts callers that joined an in-flight generation
	// for the same item instead of starting their own.
	GenerationCoalesced = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "generation_coalesced_total",
			Help: "Callers that shared an in-flight generation.",
		},
	)

	// CacheCommits counts entries written by the approval workflow by status.
	CacheCommits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_commits_total",
			Help: "Cache entries committed by status.",
		},
		[]string{"status"},
	)

	// SchedulerPasses counts completed pre-generation passes.
	SchedulerPasses = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "scheduler_passes_total",
			Help: "Completed scheduler passes.",
		},
	)

	// SchedulerItems counts per-item scheduler results
	// (skipped, approved, pending, failed).
	SchedulerItems = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scheduler_items_total",
			Help: "Scheduler per-item results.",
		},
		[]string{"result"},
	)
)

func init() {
	prometheus.MustRegister(GenerationAttempts, GenerationCoalesced, CacheCommits, SchedulerPasses, SchedulerItems)
}
