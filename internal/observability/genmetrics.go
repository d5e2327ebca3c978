// Generation run instrumentation.
//
// These collectors track the content-generation pipeline rather than HTTP
// traffic (which the middleware package instruments): run counts by outcome,
// run duration, and produced content volume. Label cardinality is bounded by
// the small fixed outcome set; topic pairs are deliberately NOT labels.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	genRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "generation_runs_total",
			Help: "Total generation runs by terminal outcome.",
		},
		[]string{"outcome"}, // success | failed | no_content
	)

	genDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name: "generation_run_duration_seconds",
			Help: "Wall-clock duration of generation runs.",
			// Runs involve several provider round trips; seconds to minutes.
			Buckets: []float64{1, 2.5, 5, 10, 20, 30, 60, 120, 300},
		},
	)

	genVideos = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "generation_videos_total",
		Help: "Total videos persisted by generation runs.",
	})

	genQuizzes = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "generation_quizzes_total",
		Help: "Total quiz questions persisted by generation runs.",
	})
)

func init() {
	prometheus.MustRegister(genRuns, genDuration, genVideos, genQuizzes)
}

// Generation run outcomes.
const (
	GenOutcomeSuccess   = "success"
	GenOutcomeFailed    = "failed"
	GenOutcomeNoContent = "no_content"
)

// ObserveGenerationRun records one finished generation run.
func ObserveGenerationRun(outcome string, d time.Duration, videos, quizzes int) {
	genRuns.WithLabelValues(outcome).Inc()
	genDuration.Observe(d.Seconds())
	if videos > 0 {
		genVideos.Add(float64(videos))
	}
	if quizzes > 0 {
		genQuizzes.Add(float64(quizzes))
	}
}
