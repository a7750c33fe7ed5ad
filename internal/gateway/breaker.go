package gateway

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/baharkarakas/dragonpay-gateway/internal/metrics"
	"github.com/sony/gobreaker"
)

// breaker wraps gobreaker and mirrors its state into a prometheus gauge.
type breaker struct {
	*gobreaker.CircuitBreaker
	name string
}

func newBreaker(name string, log *slog.Logger) *breaker {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    30 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 5 && ratio >= 0.6
		},
		IsSuccessful: func(err error) bool {
			// a gateway-reported code is an answer, not an outage
			var ge *Error
			return err == nil || errors.As(err, &ge)
		},
		OnStateChange: func(cbName string, from, to gobreaker.State) {
			metrics.CircuitBreakerState.WithLabelValues(cbName).Set(stateValue(to))
			log.Warn("gateway circuit state changed", "circuit", cbName, "from", from.String(), "to", to.String())
		},
	})
	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)
	return &breaker{CircuitBreaker: cb, name: name}
}

func (b *breaker) run(fn func() (string, error)) (string, error) {
	out, err := b.Execute(func() (interface{}, error) { return fn() })
	if err != nil {
		return "", b.formatError(err)
	}
	return out.(string), nil
}

func (b *breaker) formatError(err error) error {
	switch {
	case errors.Is(err, gobreaker.ErrOpenState):
		return fmt.Errorf("%w: circuit %s is open", ErrUnavailable, b.name)
	case errors.Is(err, gobreaker.ErrTooManyRequests):
		return fmt.Errorf("%w: circuit %s is half-open", ErrUnavailable, b.name)
	}
	return err
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateOpen:
		return 1
	case gobreaker.StateHalfOpen:
		return 2
	default:
		return 0
	}
}
