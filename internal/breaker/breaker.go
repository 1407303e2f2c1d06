// Package breaker guards calls to external AI providers with a circuit breaker.
package breaker

import (
	"context"
	"errors"
	"fmt"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"github.com/knowsphere/knowsphere/internal/metrics"
)

// halfOpenProbes is the number of trial calls let through while half-open.
const halfOpenProbes = 1

// Settings configures a Breaker.
type Settings struct {
	Name                string
	ConsecutiveFailures uint32        // failures in a row that open the circuit
	OpenTimeout         time.Duration // time spent open before a trial call
}

// Breaker wraps a provider call returning T.
// Calls rejected while the circuit is open fail with an error wrapping both
// gobreaker.ErrOpenState (or ErrTooManyRequests) and the rejection sentinel.
type Breaker[T any] struct {
	cb       *gobreaker.CircuitBreaker[T]
	name     string
	rejected error
	logger   *zap.Logger
}

// New creates a closed breaker. rejected is wrapped into every rejection error.
func New[T any](s Settings, rejected error, logger *zap.Logger) *Breaker[T] {
	if s.ConsecutiveFailures == 0 {
		s.ConsecutiveFailures = 5
	}
	if s.OpenTimeout <= 0 {
		s.OpenTimeout = 30 * time.Second
	}
	threshold := s.ConsecutiveFailures

	metrics.BreakerState.WithLabelValues(s.Name).Set(stateValue(gobreaker.StateClosed))

	cb := gobreaker.NewCircuitBreaker[T](gobreaker.Settings{
		Name:        s.Name,
		MaxRequests: halfOpenProbes,
		Timeout:     s.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: func(err error) bool {
			// caller gave up; says nothing about the provider
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Circuit breaker state change",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
			metrics.BreakerState.WithLabelValues(name).Set(stateValue(to))
		},
	})

	return &Breaker[T]{cb: cb, name: s.Name, rejected: rejected, logger: logger}
}

// Execute runs fn unless the circuit is open.
func (b *Breaker[T]) Execute(fn func() (T, error)) (T, error) {
	res, err := b.cb.Execute(fn)
	if err != nil && isRejection(err) {
		metrics.BreakerRejectedTotal.WithLabelValues(b.name).Inc()
		b.logger.Debug("Circuit breaker rejected call", zap.String("breaker", b.name))
		return res, fmt.Errorf("%s breaker: %w: %w", b.name, err, b.rejected)
	}
	return res, err
}

// Open reports whether calls are currently being rejected.
func (b *Breaker[T]) Open() bool {
	return b.cb.State() == gobreaker.StateOpen
}

// State returns the current state name: closed, half-open or open.
func (b *Breaker[T]) State() string {
	return b.cb.State().String()
}

// OpenError returns the error reported for health checks while open.
func (b *Breaker[T]) OpenError() error {
	return fmt.Errorf("%s breaker: %w: %w", b.name, gobreaker.ErrOpenState, b.rejected)
}

func isRejection(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
