// Package metrics defines Prometheus metrics for the blocklist cleaner,
// covering the request limiter, client requests, verdicts and removals.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	LimiterAdmitted = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "blockcleaner_limiter_admitted_total",
		Help: "Requests admitted by the rate limiter",
	}, []string{"limiter"})
	LimiterWaitSeconds = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "blockcleaner_limiter_wait_seconds_total",
		Help: "Time spent waiting for a rate limit window to reopen",
	}, []string{"limiter"})
	ClientRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "blockcleaner_client_requests_total",
		Help: "Requests issued to the local service or remote API, by status code",
	}, []string{"target", "method", "code"})
	ResolverOutcomes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "blockcleaner_resolver_outcomes_total",
		Help: "Rank resolutions by the strategy that succeeded, or exhausted",
	}, []string{"strategy"})
	Verdicts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "blockcleaner_verdicts_total",
		Help: "Keep/remove verdicts by reason",
	}, []string{"action", "reason"})
	Removals = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "blockcleaner_removals_total",
		Help: "Unblock attempts by result",
	}, []string{"result"})
	Runs = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "blockcleaner_runs_total",
		Help: "Finished cleanup runs by mode and terminal state",
	}, []string{"mode", "state"})
)

func init() {
	prometheus.MustRegister(LimiterAdmitted)
	prometheus.MustRegister(LimiterWaitSeconds)
	prometheus.MustRegister(ClientRequests)
	prometheus.MustRegister(ResolverOutcomes)
	prometheus.MustRegister(Verdicts)
	prometheus.MustRegister(Removals)
	prometheus.MustRegister(Runs)
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
