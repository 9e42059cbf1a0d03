package ai

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quizai_ai_requests_total",
			Help: "Total number of requests to the AI provider.",
		},
		[]string{"model", "status"},
	)
	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "quizai_ai_request_duration_seconds",
			Help:    "Histogram of AI request durations.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"model"},
	)
	promptTokens = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "quizai_ai_prompt_tokens",
			Help:    "Histogram of prompt token counts.",
			Buckets: prometheus.LinearBuckets(500, 500, 16),
		},
		[]string{"model"},
	)
	completionTokens = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "quizai_ai_completion_tokens",
			Help:    "Histogram of completion token counts.",
			Buckets: prometheus.LinearBuckets(250, 250, 16),
		},
		[]string{"model"},
	)
)
