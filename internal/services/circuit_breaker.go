package services

import (
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/stitts-dev/ff-leaderboard/pkg/utils"
)

// Breaker names, one per upstream.
const (
	BreakerStats     = "nflverse"
	BreakerReference = "reference"
)

type CircuitBreakerService struct {
	breakers map[string]*gobreaker.CircuitBreaker
	logger   *logrus.Logger
}

// NewCircuitBreakerService trips a breaker after threshold consecutive
// upstream failures and keeps it open for timeout. Only UpstreamFetchError
// counts as a failure; a season with no data or a caller that gave up is not
// the provider's fault.
func NewCircuitBreakerService(threshold int, timeout time.Duration, logger *logrus.Logger) *CircuitBreakerService {
	if threshold <= 0 {
		threshold = 5
	}

	settings := func(name string) gobreaker.Settings {
		return gobreaker.Settings{
			Name:        name,
			MaxRequests: 1,
			Timeout:     timeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= uint32(threshold)
			},
			IsSuccessful: func(err error) bool {
				return err == nil || !errors.Is(err, utils.ErrUpstreamFetch)
			},
			OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
				logger.WithFields(logrus.Fields{
					"component": "circuit_breaker",
					"service":   name,
					"from":      from.String(),
					"to":        to.String(),
				}).Warn("Circuit breaker state changed")
			},
		}
	}

	breakers := map[string]*gobreaker.CircuitBreaker{
		BreakerStats:     gobreaker.NewCircuitBreaker(settings(BreakerStats)),
		BreakerReference: gobreaker.NewCircuitBreaker(settings(BreakerReference)),
	}

	return &CircuitBreakerService{
		breakers: breakers,
		logger:   logger,
	}
}

// Execute runs fn behind the named breaker. A rejected call is reported as an
// UpstreamFetchError; nothing is retried.
func (cb *CircuitBreakerService) Execute(service string, fn func() (interface{}, error)) (interface{}, error) {
	breaker, exists := cb.breakers[service]
	if !exists {
		cb.logger.WithFields(logrus.Fields{
			"component": "circuit_breaker",
			"service":   service,
		}).Warn("No circuit breaker found for service, executing without protection")
		return fn()
	}

	result, err := breaker.Execute(fn)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, utils.NewUpstreamFetchError("stat provider temporarily unavailable", err)
	}
	return result, err
}

// GetState returns the current state of a circuit breaker
func (cb *CircuitBreakerService) GetState(service string) gobreaker.State {
	if breaker, exists := cb.breakers[service]; exists {
		return breaker.State()
	}
	return gobreaker.StateClosed
}

// States reports every breaker's state by name.
func (cb *CircuitBreakerService) States() map[string]string {
	out := make(map[string]string, len(cb.breakers))
	for name, breaker := range cb.breakers {
		out[name] = breaker.State().String()
	}
	return out
}
