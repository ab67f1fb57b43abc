package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CatalogFetches = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "liria",
		Subsystem: "catalog",
		Name:      "fetch_total",
		Help:      "Catalog adapter fetches by source and outcome.",
	}, []string{"source", "outcome"})

	RankingDegraded = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "liria",
		Subsystem: "recommend",
		Name:      "ranking_degraded_total",
		Help:      "Requests where embedding failed and books were served unranked.",
	})

	GenerationAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "liria",
		Subsystem: "advisor",
		Name:      "generation_attempts_total",
		Help:      "Generation attempts by outcome (grounded, ungrounded, error).",
	}, []string{"outcome"})

	GenerationFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "liria",
		Subsystem: "advisor",
		Name:      "generation_fallbacks_total",
		Help:      "Chats answered with the fixed apology because every attempt errored.",
	})

	RequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "liria",
		Subsystem: "api",
		Name:      "request_duration_seconds",
		Help:      "Handler latency by route.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route"})
)
