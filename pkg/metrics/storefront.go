package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "storefront"

// Poll tick outcomes.
const (
	PollFetched  = "fetched"
	PollSkipped  = "skipped"
	PollError    = "error"
	PollTerminal = "terminal"
)

// Storefront records upstream traffic and client-state health.
type Storefront struct {
	upstreamRequests *prometheus.CounterVec
	upstreamDuration *prometheus.HistogramVec
	refetchRetries   prometheus.Counter
	staleCarts       prometheus.Counter
	pollTicks        *prometheus.CounterVec
	activeSessions   prometheus.Gauge
}

// NewStorefront registers the storefront metrics on the provided registerer.
func NewStorefront(reg prometheus.Registerer) *Storefront {
	if reg == nil {
		return &Storefront{}
	}
	upstreamRequests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "upstream_requests_total",
		Help:      "Requests issued to the storefront api.",
	}, []string{"resource", "method", "outcome"})
	upstreamDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "upstream_request_duration_seconds",
		Help:      "Latency of storefront api requests in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"resource", "method"})
	refetchRetries := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cart_refetch_retries_total",
		Help:      "Retried cart fetches after a successful mutation.",
	})
	staleCarts := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cart_stale_total",
		Help:      "Mutations whose follow-up cart fetch failed.",
	})
	pollTicks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "order_poll_ticks_total",
		Help:      "Order status poll ticks by outcome.",
	}, []string{"outcome"})
	activeSessions := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "active_sessions",
		Help:      "Client sessions with in-process state.",
	})
	reg.MustRegister(upstreamRequests, upstreamDuration, refetchRetries, staleCarts, pollTicks, activeSessions)
	return &Storefront{
		upstreamRequests: upstreamRequests,
		upstreamDuration: upstreamDuration,
		refetchRetries:   refetchRetries,
		staleCarts:       staleCarts,
		pollTicks:        pollTicks,
		activeSessions:   activeSessions,
	}
}

// ObserveUpstream records one storefront api call.
func (s *Storefront) ObserveUpstream(resource, method, outcome string, duration time.Duration) {
	if s == nil || s.upstreamRequests == nil {
		return
	}
	resource = normalizeLabel(resource)
	method = normalizeLabel(method)
	s.upstreamRequests.WithLabelValues(resource, method, normalizeLabel(outcome)).Inc()
	s.upstreamDuration.WithLabelValues(resource, method).Observe(duration.Seconds())
}

func (s *Storefront) IncRefetchRetry() {
	if s == nil || s.refetchRetries == nil {
		return
	}
	s.refetchRetries.Inc()
}

func (s *Storefront) IncStaleCart() {
	if s == nil || s.staleCarts == nil {
		return
	}
	s.staleCarts.Inc()
}

// IncPollTick counts an order poll tick with one of the Poll* outcomes.
func (s *Storefront) IncPollTick(outcome string) {
	if s == nil || s.pollTicks == nil {
		return
	}
	s.pollTicks.WithLabelValues(normalizeLabel(outcome)).Inc()
}

func (s *Storefront) SetActiveSessions(n int) {
	if s == nil || s.activeSessions == nil {
		return
	}
	s.activeSessions.Set(float64(n))
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
