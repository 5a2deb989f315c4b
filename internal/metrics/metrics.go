// Package metrics exposes Prometheus collectors for provider calls and cache traffic.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder groups the collectors of the service. A nil *Recorder records nothing.
type Recorder struct {
	providerRequests *prometheus.CounterVec
	providerDuration *prometheus.HistogramVec
	pagesRequested   prometheus.Counter
	pagesFetched     prometheus.Counter
	cacheLookups     *prometheus.CounterVec
}

// NewRecorder creates the collectors and registers them on reg
func NewRecorder(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		providerRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mazone",
			Name:      "provider_requests_total",
			Help:      "Provider branch executions by outcome",
		}, []string{"provider", "outcome"}),
		providerDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "mazone",
			Name:      "provider_duration_seconds",
			Help:      "Duration of a provider branch including pagination",
			Buckets:   prometheus.DefBuckets,
		}, []string{"provider"}),
		pagesRequested: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mazone",
			Name:      "eventbrite_pages_requested_total",
			Help:      "Eventbrite listing pages requested",
		}),
		pagesFetched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mazone",
			Name:      "eventbrite_pages_fetched_total",
			Help:      "Eventbrite listing pages fetched successfully",
		}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mazone",
			Name:      "detail_cache_lookups_total",
			Help:      "Detail cache lookups by tier that answered (session, durable, miss)",
		}, []string{"tier"}),
	}
	reg.MustRegister(r.providerRequests, r.providerDuration, r.pagesRequested, r.pagesFetched, r.cacheLookups)
	return r
}

// ObserveProvider records one provider branch
func (r *Recorder) ObserveProvider(provider string, err error, d time.Duration) {
	if r == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	r.providerRequests.WithLabelValues(provider, outcome).Inc()
	r.providerDuration.WithLabelValues(provider).Observe(d.Seconds())
}

// ObservePages records the outcome of one page loop
func (r *Recorder) ObservePages(requested, fetched int) {
	if r == nil {
		return
	}
	r.pagesRequested.Add(float64(requested))
	r.pagesFetched.Add(float64(fetched))
}

// ObserveCacheLookup records which tier answered a detail cache lookup
func (r *Recorder) ObserveCacheLookup(tier string) {
	if r == nil {
		return
	}
	r.cacheLookups.WithLabelValues(tier).Inc()
}
