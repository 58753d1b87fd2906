package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ProviderRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "placeroute_provider_requests_total",
		Help: "Provider calls by provider and outcome (ok, no_route, error)",
	}, []string{"provider", "outcome"})
	ProviderDurationMs = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "placeroute_provider_duration_ms",
		Help:    "Provider call duration in milliseconds",
		Buckets: []float64{10, 50, 100, 200, 500, 1000, 2000, 5000, 10000},
	}, []string{"provider"})
	ProviderRetriesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "placeroute_provider_retries_total",
		Help: "Retried provider HTTP attempts by reason",
	}, []string{"reason"})
	RouteCacheLookupsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "placeroute_route_cache_lookups_total",
		Help: "Route cache lookups by result (hit, miss, error)",
	}, []string{"result"})
	RouteCacheEvictedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "placeroute_route_cache_evicted_total",
		Help: "Route cache entries removed by the periodic sweep",
	})
	RouteEstimatesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "placeroute_route_estimates_total",
		Help: "Legs answered by the local Haversine estimate",
	}, []string{"mode"})
	FareEstimatesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "placeroute_fare_estimates_total",
		Help: "Transit legs whose fare was estimated locally",
	})
	PlaceSearchFailuresTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "placeroute_place_search_failures_total",
		Help: "Failed place searches by category",
	}, []string{"category"})
	IndoorClassificationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "placeroute_indoor_classifications_total",
		Help: "Locator results by outcome and deciding rule",
	}, []string{"indoor", "rule"})
)

func init() {
	prometheus.MustRegister(ProviderRequestsTotal)
	prometheus.MustRegister(ProviderDurationMs)
	prometheus.MustRegister(ProviderRetriesTotal)
	prometheus.MustRegister(RouteCacheLookupsTotal)
	prometheus.MustRegister(RouteCacheEvictedTotal)
	prometheus.MustRegister(RouteEstimatesTotal)
	prometheus.MustRegister(FareEstimatesTotal)
	prometheus.MustRegister(PlaceSearchFailuresTotal)
	prometheus.MustRegister(IndoorClassificationsTotal)
}

// Handler exposes the registered metrics for scraping.
func Handler() http.Handler { return promhttp.Handler() }

// ObserveProvider records one provider call. outcome is ok, no_route or error.
func ObserveProvider(provider, outcome string, start time.Time) {
	ProviderRequestsTotal.WithLabelValues(provider, outcome).Inc()
	ProviderDurationMs.WithLabelValues(provider).Observe(float64(time.Since(start).Milliseconds()))
}
