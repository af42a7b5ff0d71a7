package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// SummaryMetrics records generation outcomes and latency.
type SummaryMetrics struct {
	generated *prometheus.CounterVec
	duration  *prometheus.HistogramVec
	quotaHits prometheus.Counter
}

// NewSummaryMetrics registers summarization metrics on the provided registerer.
func NewSummaryMetrics(reg prometheus.Registerer) *SummaryMetrics {
	if reg == nil {
		return &SummaryMetrics{}
	}
	generated := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "summaries_generated",
		Help: "Summaries produced, labeled by mode and source.",
	}, []string{"mode", "source"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "summary_generation_duration_seconds",
		Help:    "Time spent producing a summary.",
		Buckets: prometheus.DefBuckets,
	}, []string{"source"})
	quotaHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "summary_quota_rejections",
		Help: "Requests rejected because the free quota was exhausted.",
	})
	reg.MustRegister(generated, duration, quotaHits)
	return &SummaryMetrics{
		generated: generated,
		duration:  duration,
		quotaHits: quotaHits,
	}
}

// IncGenerated records a produced summary.
func (s *SummaryMetrics) IncGenerated(mode, source string) {
	if s == nil || s.generated == nil {
		return
	}
	s.generated.WithLabelValues(normalizeLabel(mode), normalizeLabel(source)).Inc()
}

// ObserveDuration records how long generation took for the given source.
func (s *SummaryMetrics) ObserveDuration(source string, d time.Duration) {
	if s == nil || s.duration == nil {
		return
	}
	s.duration.WithLabelValues(normalizeLabel(source)).Observe(d.Seconds())
}

// IncQuotaRejection records a free-tier quota rejection.
func (s *SummaryMetrics) IncQuotaRejection() {
	if s == nil || s.quotaHits == nil {
		return
	}
	s.quotaHits.Inc()
}
