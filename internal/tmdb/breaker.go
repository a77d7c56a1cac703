package tmdb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	gobreaker "github.com/sony/gobreaker/v2"
)

var (
	breakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "tmdb_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open).",
		},
		[]string{"name"},
	)

	breakerTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tmdb_circuit_breaker_transitions_total",
			Help: "Circuit breaker state transitions.",
		},
		[]string{"name", "from", "to"},
	)

	breakerRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tmdb_circuit_breaker_requests_total",
			Help: "Requests seen by the circuit breaker by result (success, failure, rejected).",
		},
		[]string{"name", "result"},
	)
)

func init() {
	prometheus.MustRegister(breakerState, breakerTransitions, breakerRequests)
}

// BreakerSettings tunes the breaker. Zero values select the defaults.
type BreakerSettings struct {
	Name        string
	MaxRequests uint32
	Interval    time.Duration
	Timeout     time.Duration
	MinRequests uint32
	FailureRate float64
}

func (s BreakerSettings) withDefaults() BreakerSettings {
	if s.Name == "" {
		s.Name = "tmdb-api"
	}
	if s.MaxRequests == 0 {
		s.MaxRequests = 3
	}
	if s.Interval == 0 {
		s.Interval = time.Minute
	}
	if s.Timeout == 0 {
		s.Timeout = 30 * time.Second
	}
	if s.MinRequests == 0 {
		s.MinRequests = 10
	}
	if s.FailureRate == 0 {
		s.FailureRate = 0.6
	}
	return s
}

// BreakerClient wraps a Provider with a circuit breaker so a failing TMDb
// is skipped quickly instead of stalling every caller on its timeout.
// It never retries.
type BreakerClient struct {
	next Provider
	cb   *gobreaker.CircuitBreaker[any]
	name string
}

var _ Provider = (*BreakerClient)(nil)

// NewBreakerClient wraps next. The circuit opens when at least MinRequests
// calls were seen in the current interval and the failure ratio reaches
// FailureRate.
func NewBreakerClient(next Provider, settings BreakerSettings) *BreakerClient {
	s := settings.withDefaults()

	breakerState.WithLabelValues(s.Name).Set(0)

	cb := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        s.Name,
		MaxRequests: s.MaxRequests,
		Interval:    s.Interval,
		Timeout:     s.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < s.MinRequests {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			if ratio >= s.FailureRate {
				log.Warn().
					Uint32("failures", counts.TotalFailures).
					Float64("failure_rate", ratio).
					Msg("tmdb circuit opening")
				return true
			}
			return false
		},
		// Caller cancellations say nothing about TMDb health.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Info().Str("from", stateToString(from)).Str("to", stateToString(to)).Msg("tmdb circuit state change")
			breakerState.WithLabelValues(name).Set(stateToFloat(to))
			breakerTransitions.WithLabelValues(name, stateToString(from), stateToString(to)).Inc()
		},
	})

	return &BreakerClient{next: next, cb: cb, name: s.Name}
}

// State returns the breaker's current state name.
func (b *BreakerClient) State() string { return stateToString(b.cb.State()) }

func (b *BreakerClient) execute(fn func() (any, error)) (any, error) {
	result, err := b.cb.Execute(fn)
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			breakerRequests.WithLabelValues(b.name, "rejected").Inc()
		} else {
			breakerRequests.WithLabelValues(b.name, "failure").Inc()
		}
		return nil, err
	}
	breakerRequests.WithLabelValues(b.name, "success").Inc()
	return result, nil
}

// SearchMovie implements Provider.
func (b *BreakerClient) SearchMovie(ctx context.Context, query string) (*Response, error) {
	return castResult[Response](b.execute(func() (any, error) {
		return b.next.SearchMovie(ctx, query)
	}))
}

// MovieDetails implements Provider.
func (b *BreakerClient) MovieDetails(ctx context.Context, movieID int64) (*Details, error) {
	return castResult[Details](b.execute(func() (any, error) {
		return b.next.MovieDetails(ctx, movieID)
	}))
}

// FindByIMDbID implements Provider.
func (b *BreakerClient) FindByIMDbID(ctx context.Context, imdbID string) (*FindResponse, error) {
	return castResult[FindResponse](b.execute(func() (any, error) {
		return b.next.FindByIMDbID(ctx, imdbID)
	}))
}

// castResult type-asserts the breaker result.
func castResult[T any](result any, err error) (*T, error) {
	if err != nil {
		return nil, err
	}
	typed, ok := result.(*T)
	if !ok {
		return nil, fmt.Errorf("circuit breaker: unexpected result type %T", result)
	}
	return typed, nil
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
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

func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}
