// Package breaker guards calls to remote collaborators (model endpoints,
// Lambda functions, Rekognition) with a circuit breaker so a failing
// dependency is rejected quickly instead of piling up timeouts.
package breaker

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/sony/gobreaker"
)

// ErrCircuitOpen is returned when the breaker rejects a call.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// Config holds the breaker thresholds.
type Config struct {
	// MaxFailures is the number of consecutive failures that trips the circuit.
	// Default: 3
	MaxFailures uint32

	// Timeout is how long the circuit stays open before half-opening.
	// Default: 30 seconds
	Timeout time.Duration

	// HalfOpenMaxSuccesses is the number of successes in half-open state
	// needed to close the circuit.
	// Default: 2
	HalfOpenMaxSuccesses uint32
}

// DefaultConfig returns the thresholds used by New.
func DefaultConfig() Config {
	return Config{
		MaxFailures:          3,
		Timeout:              30 * time.Second,
		HalfOpenMaxSuccesses: 2,
	}
}

// Metrics holds counters about breaker operations.
type Metrics struct {
	TotalRequests        uint64
	TotalSuccesses       uint64
	TotalFailures        uint64
	ConsecutiveSuccesses uint32
	ConsecutiveFailures  uint32
}

// Breaker wraps gobreaker with context checks and request metrics.
type Breaker struct {
	name    string
	breaker *gobreaker.CircuitBreaker
	mu      sync.RWMutex
	metrics Metrics
}

// New creates a breaker named name with DefaultConfig.
func New(name string) *Breaker {
	return NewWithConfig(name, DefaultConfig())
}

// NewWithConfig creates a breaker with custom thresholds. Zero fields take
// their defaults.
func NewWithConfig(name string, config Config) *Breaker {
	def := DefaultConfig()
	if config.MaxFailures == 0 {
		config.MaxFailures = def.MaxFailures
	}
	if config.Timeout == 0 {
		config.Timeout = def.Timeout
	}
	if config.HalfOpenMaxSuccesses == 0 {
		config.HalfOpenMaxSuccesses = def.HalfOpenMaxSuccesses
	}

	b := &Breaker{name: name}
	b.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: config.HalfOpenMaxSuccesses,
		Interval:    0, // never clear counts while closed
		Timeout:     config.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= config.MaxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Printf("breaker %s: %s -> %s", name, from, to)
		},
	})
	return b
}

// Name returns the breaker's name.
func (b *Breaker) Name() string { return b.name }

// Execute runs fn through the breaker. A cancelled context counts as a
// failure and is returned without calling fn.
func (b *Breaker) Execute(ctx context.Context, fn func() (any, error)) (any, error) {
	if err := ctx.Err(); err != nil {
		b.record(false)
		return nil, err
	}

	result, err := b.breaker.Execute(func() (any, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return fn()
	})

	if err != nil {
		b.record(false)
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, ErrCircuitOpen
		}
		return result, err
	}
	b.record(true)
	return result, nil
}

// Do is a typed wrapper around Execute.
func Do[T any](ctx context.Context, b *Breaker, fn func() (T, error)) (T, error) {
	var zero T
	if b == nil {
		return fn()
	}
	res, err := b.Execute(ctx, func() (any, error) { return fn() })
	if err != nil {
		return zero, err
	}
	v, _ := res.(T)
	return v, nil
}

// State returns "closed", "open" or "half-open".
func (b *Breaker) State() string {
	switch b.breaker.State() {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateOpen:
		return "open"
	case gobreaker.StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// Metrics returns a snapshot of the breaker counters.
func (b *Breaker) Metrics() Metrics {
	b.mu.RLock()
	defer b.mu.RUnlock()

	counts := b.breaker.Counts()
	m := b.metrics
	m.ConsecutiveSuccesses = counts.ConsecutiveSuccesses
	m.ConsecutiveFailures = counts.ConsecutiveFailures
	return m
}

func (b *Breaker) record(ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.metrics.TotalRequests++
	if ok {
		b.metrics.TotalSuccesses++
	} else {
		b.metrics.TotalFailures++
	}
}
