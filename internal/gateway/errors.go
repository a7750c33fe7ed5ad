package gateway

import (
	"errors"
	"fmt"
)

var (
	// ErrUnavailable is returned while the circuit breaker rejects calls.
	ErrUnavailable = errors.New("dragonpay gateway unavailable")
	// ErrRequestFailed wraps transport errors and non-2xx answers that
	// outlived the retries.
	ErrRequestFailed = errors.New("dragonpay request failed")
)

// Error is an error code reported by the gateway itself.
type Error struct {
	Op    string
	Code  string
	Label string
}

func (e *Error) Error() string {
	if e.Label == "" {
		return fmt.Sprintf("dragonpay %s: code %s", e.Op, e.Code)
	}
	return fmt.Sprintf("dragonpay %s: code %s (%s)", e.Op, e.Code, e.Label)
}
