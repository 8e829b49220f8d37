package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Cache outcomes recorded by ObserveCache.
const (
	CacheHit   = "hit"
	CacheMiss  = "miss"
	CacheError = "error"
)

// Analysis groups the collectors exported by the analysis service.
type Analysis struct {
	requests       *prometheus.CounterVec
	duration       prometheus.Histogram
	cache          *prometheus.CounterVec
	competency     prometheus.Histogram
	adjustments    *prometheus.CounterVec
	publishFailure prometheus.Counter
}

// NewAnalysis registers the analysis collectors with reg. Passing nil uses
// the default registry served by promhttp.
func NewAnalysis(reg prometheus.Registerer) *Analysis {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Analysis{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "assessment",
			Name:      "analyses_total",
			Help:      "Analyses processed, by outcome.",
		}, []string{"outcome"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "assessment",
			Name:      "analysis_duration_seconds",
			Help:      "Time spent producing an analysis result.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 8),
		}),
		cache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "assessment",
			Name:      "analysis_cache_lookups_total",
			Help:      "Result cache lookups, by outcome.",
		}, []string{"outcome"}),
		competency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "assessment",
			Name:      "competency_level",
			Help:      "Distribution of per-objective competency levels.",
			Buckets:   prometheus.LinearBuckets(10, 10, 10),
		}),
		adjustments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "assessment",
			Name:      "difficulty_adjustments_total",
			Help:      "Difficulty adjustments issued, by step.",
		}, []string{"step"}),
		publishFailure: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "assessment",
			Name:      "analysis_publish_failures_total",
			Help:      "Analysis events that could not be published.",
		}),
	}
	reg.MustRegister(m.requests, m.duration, m.cache, m.competency, m.adjustments, m.publishFailure)
	return m
}

// ObserveAnalysis records one completed analysis.
func (m *Analysis) ObserveAnalysis(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(outcome).Inc()
	m.duration.Observe(elapsed.Seconds())
}

// ObserveCache records a cache lookup outcome.
func (m *Analysis) ObserveCache(outcome string) {
	if m == nil {
		return
	}
	m.cache.WithLabelValues(outcome).Inc()
}

// ObserveResult records the scores carried by a result.
func (m *Analysis) ObserveResult(levels []int, adjustment int) {
	if m == nil {
		return
	}
	for _, l := range levels {
		m.competency.Observe(float64(l))
	}
	m.adjustments.WithLabelValues(stepLabel(adjustment)).Inc()
}

// PublishFailed counts a dropped analysis event.
func (m *Analysis) PublishFailed() {
	if m == nil {
		return
	}
	m.publishFailure.Inc()
}

func stepLabel(step int) string {
	if step == 0 {
		return "0"
	}
	return fmt.Sprintf("%+d", step)
}
