/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"context"
	"net/http"
	"time"

	"github.com/Seednode/hilo/games/trivia"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type gameMetrics struct {
	registry        *prometheus.Registry
	roundsStarted   prometheus.Counter
	roundsCompleted prometheus.Counter
	guesses         *prometheus.CounterVec
	backendLatency  *prometheus.HistogramVec
}

func newGameMetrics() *gameMetrics {
	m := &gameMetrics{
		registry: prometheus.NewRegistry(),
		roundsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hilo",
			Name:      "rounds_started_total",
			Help:      "Rounds opened by browser players.",
		}),
		roundsCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hilo",
			Name:      "rounds_completed_total",
			Help:      "Rounds with every metric answered.",
		}),
		guesses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hilo",
			Name:      "guesses_total",
			Help:      "Judged guesses by metric and outcome.",
		}, []string{"metric", "outcome"}),
		backendLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "hilo",
			Name:      "backend_request_duration_seconds",
			Help:      "Game server request latency by endpoint and result.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"endpoint", "result"}),
	}

	m.registry.MustRegister(m.roundsStarted, m.roundsCompleted, m.guesses, m.backendLatency)

	return m
}

func (m *gameMetrics) handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *gameMetrics) observe(endpoint string, start time.Time, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.backendLatency.WithLabelValues(endpoint, result).Observe(time.Since(start).Seconds())
}

// instrumentedBackend records latency and judged guesses for a round's
// game server calls.
type instrumentedBackend struct {
	next    trivia.Backend
	metrics *gameMetrics
}

func (b *instrumentedBackend) Company(ctx context.Context) (trivia.Company, error) {
	start := time.Now()
	c, err := b.next.Company(ctx)
	b.metrics.observe("company", start, err)
	return c, err
}

func (b *instrumentedBackend) SubmitGuess(ctx context.Context, g trivia.Guess) (string, error) {
	start := time.Now()
	msg, err := b.next.SubmitGuess(ctx, g)
	b.metrics.observe("submit_guess", start, err)
	if err == nil {
		b.metrics.guesses.WithLabelValues(string(g.Metric), string(trivia.OutcomeOf(msg))).Inc()
	}
	return msg, err
}

func (b *instrumentedBackend) SubmitStats(ctx context.Context, seconds int) (trivia.Stats, error) {
	start := time.Now()
	s, err := b.next.SubmitStats(ctx, seconds)
	b.metrics.observe("stats", start, err)
	return s, err
}
