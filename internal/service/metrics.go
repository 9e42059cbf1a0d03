package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	jobsFinished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quizai_jobs_total",
			Help: "Total number of finished generation jobs by outcome.",
		},
		[]string{"outcome"},
	)
	jobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "quizai_job_duration_seconds",
			Help:    "Histogram of end-to-end generation job durations.",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
		},
		[]string{"outcome"},
	)
	jobsRejected = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "quizai_jobs_rejected_total",
			Help: "Total number of submissions rejected because the queue was full.",
		},
	)
)
