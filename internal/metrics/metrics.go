package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rxxchat_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rxxchat_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"method", "path"},
	)

	// Business metrics
	CompletionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rxxchat_completions_total",
			Help: "Total completion exchanges",
		},
		[]string{"status"}, // "ok" or "error"
	)

	UsersRegistered = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "rxxchat_users_registered_total",
			Help: "Total users registered",
		},
	)

	ChatsSaved = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rxxchat_chats_saved_total",
			Help: "Total chat persists",
		},
		[]string{"op"}, // "create" or "update"
	)

	ChatsDeleted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "rxxchat_chats_deleted_total",
			Help: "Total chats deleted",
		},
	)

	// Infrastructure metrics
	ProviderLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "rxxchat_provider_latency_seconds",
			Help:    "Model provider request latency",
			Buckets: []float64{.25, .5, 1, 2.5, 5, 10, 30},
		},
	)

	StoreLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "rxxchat_store_latency_seconds",
			Help:    "Chat store query latency",
			Buckets: []float64{.001, .005, .01, .025, .05, .1},
		},
	)
)
