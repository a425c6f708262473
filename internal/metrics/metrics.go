// Package metrics declares the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Reasons a message is dropped without a reply.
const (
	DropUnparsed       = "unparsed"
	DropForbidden      = "forbidden"
	DropForeignMention = "foreign_mention"
	DropThrottled      = "throttled"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dutybot_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dutybot_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"method", "path"},
	)

	RateLimitHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dutybot_rate_limit_hits_total",
			Help: "Total requests rejected by the per-client rate limiter",
		},
	)

	// Bot metrics
	WebhookEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dutybot_webhook_events_total",
			Help: "Callback events received, by event type",
		},
		[]string{"type"},
	)

	CommandsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dutybot_commands_total",
			Help: "Commands performed, by kind and outcome",
		},
		[]string{"kind", "outcome"}, // "ok" or "error"
	)

	DroppedMessages = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dutybot_dropped_messages_total",
			Help: "Messages ignored without a reply",
		},
		[]string{"reason"},
	)

	SendErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dutybot_send_errors_total",
			Help: "Replies the chat API refused or failed to deliver",
		},
	)
)
