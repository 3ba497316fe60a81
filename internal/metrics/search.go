package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	searchuc "github.com/kailas-cloud/cpfvariants/internal/usecase/search"
)

// Search Prometheus metrics.
var (
	SearchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "searches_total",
			Help:      "Total number of variant searches by status",
		},
		[]string{"status"}, // found / not_found / aborted / error
	)

	SearchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_duration_seconds",
			Help:      "Variant search duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"status"},
	)

	TierDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_tier_duration_seconds",
			Help:      "Duration of one change-count tier in seconds",
			Buckets:   []float64{0.0001, 0.001, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"changes"},
	)

	CandidatesChecked = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "candidates_checked_total",
			Help:      "Total candidates evaluated across all searches",
		},
	)
)

var registerOnce sync.Once

// Register registers HTTP and search metrics with the default registry.
// Safe to call more than once; must be called from main.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(httpRequestDuration)
		prometheus.MustRegister(httpRequestsTotal)
		prometheus.MustRegister(SearchesTotal)
		prometheus.MustRegister(SearchDuration)
		prometheus.MustRegister(TierDuration)
		prometheus.MustRegister(CandidatesChecked)
	})
}

// SearchRecorder feeds search.Service observations into Prometheus.
type SearchRecorder struct{}

var _ searchuc.Recorder = SearchRecorder{}

// ObserveTier implements search.Recorder.
func (SearchRecorder) ObserveTier(k, checked int, elapsed time.Duration) {
	TierDuration.WithLabelValues(strconv.Itoa(k)).Observe(elapsed.Seconds())
	CandidatesChecked.Add(float64(checked))
}

// ObserveSearch implements search.Recorder.
func (SearchRecorder) ObserveSearch(status searchuc.Status, _ int, elapsed time.Duration) {
	SearchesTotal.WithLabelValues(string(status)).Inc()
	SearchDuration.WithLabelValues(string(status)).Observe(elapsed.Seconds())
}
