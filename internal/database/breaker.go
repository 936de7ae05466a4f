package database

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/Aetos973/AI-Powered-Intrusion-Detection-System-AI-IDS/internal/logging"
	"github.com/Aetos973/AI-Powered-Intrusion-Detection-System-AI-IDS/internal/metrics"
	"github.com/Aetos973/AI-Powered-Intrusion-Detection-System-AI-IDS/internal/models"
)

// RunWriter persists detection runs.
type RunWriter interface {
	SaveRun(ctx context.Context, summary *models.DetectionSummary, rows []models.ResultRow) error
}

// BreakerSettings tunes the circuit breaker around a RunWriter.
type BreakerSettings struct {
	Name        string
	MaxRequests uint32
	Interval    time.Duration
	Timeout     time.Duration
	// MinRequests and FailureRatio decide when the breaker opens.
	MinRequests  uint32
	FailureRatio float64
}

// DefaultBreakerSettings returns the settings used for the ClickHouse sink.
func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{
		Name:         "clickhouse",
		MaxRequests:  1,
		Interval:     time.Minute,
		Timeout:      30 * time.Second,
		MinRequests:  5,
		FailureRatio: 0.6,
	}
}

// ResilientStore stops calling a failing RunWriter until it recovers, so an
// unavailable database costs each detection a fast error instead of a timeout.
type ResilientStore struct {
	next RunWriter
	cb   *gobreaker.CircuitBreaker[struct{}]
	name string
	log  zerolog.Logger
}

// NewResilientStore wraps next in a circuit breaker.
func NewResilientStore(next RunWriter, s BreakerSettings) *ResilientStore {
	log := logging.Component("clickhouse")
	metrics.CircuitBreakerState.WithLabelValues(s.Name).Set(0)

	cb := gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        s.Name,
		MaxRequests: s.MaxRequests,
		Interval:    s.Interval,
		Timeout:     s.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < s.MinRequests {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return ratio >= s.FailureRatio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state change")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateValue(to))
		},
	})

	return &ResilientStore{next: next, cb: cb, name: s.Name, log: log}
}

// SaveRun forwards to the wrapped writer unless the breaker is open.
func (r *ResilientStore) SaveRun(ctx context.Context, summary *models.DetectionSummary, rows []models.ResultRow) error {
	_, err := r.cb.Execute(func() (struct{}, error) {
		return struct{}{}, r.next.SaveRun(ctx, summary, rows)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		r.log.Debug().Str("run_id", summary.RunID).Msg("run not saved, circuit open")
	}
	return err
}

// State reports the breaker state.
func (r *ResilientStore) State() gobreaker.State {
	return r.cb.State()
}

// Ready reports whether writes are being attempted. A half-open breaker
// lets trial writes through and counts as ready.
func (r *ResilientStore) Ready() bool {
	return r.cb.State() != gobreaker.StateOpen
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
