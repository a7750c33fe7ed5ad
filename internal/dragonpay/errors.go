package dragonpay

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// maxAmount is the first value that no longer fits numeric(12,2).
var maxAmount = decimal.New(1, 10)

var (
	// ErrAuthentication is matched by every *AuthenticationError.
	ErrAuthentication = errors.New("dragonpay digest mismatch")
	// ErrUnsupportedRequest is returned for payout requests that are neither single nor batch.
	ErrUnsupportedRequest = errors.New("unsupported payout request type")
)

type FieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// ValidationError collects every malformed or missing field of one input.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	b.WriteString("validation failed: ")
	for i, f := range e.Fields {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(f.Field + ": " + f.Reason)
	}
	return b.String()
}

// Add records a problem with one field.
func (e *ValidationError) Add(field, reason string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Reason: reason})
}

// MaxLen flags value when it has more than max characters.
func (e *ValidationError) MaxLen(field, value string, max int) {
	if utf8.RuneCountInString(value) > max {
		e.Add(field, "too long")
	}
}

// Amount flags money values that are missing, negative or not storable with
// two decimal places.
func (e *ValidationError) Amount(field string, d decimal.Decimal) {
	switch {
	case d.IsZero():
		e.Add(field, "required")
	case d.IsNegative():
		e.Add(field, "must be > 0")
	case !d.Equal(d.Round(2)):
		e.Add(field, "at most 2 decimal places")
	case d.GreaterThanOrEqual(maxAmount):
		e.Add(field, "too large")
	}
}

// Err returns e, or nil when no field failed.
func (e *ValidationError) Err() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

// Require returns a ValidationError naming every field whose value is empty.
// Pairs are given as field, value, field, value...
func Require(pairs ...string) error {
	ve := &ValidationError{}
	for i := 0; i+1 < len(pairs); i += 2 {
		if strings.TrimSpace(pairs[i+1]) == "" {
			ve.Add(pairs[i], "required")
		}
	}
	return ve.Err()
}

type AuthenticationError struct {
	TxnID string
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("callback %s: %v", e.TxnID, ErrAuthentication)
}

func (e *AuthenticationError) Unwrap() error { return ErrAuthentication }

// DecodeError reports a merchant param that could not be decrypted.
type DecodeError struct {
	Field string
	Err   error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.Field, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// LookupError is returned for codes missing from a registry table. Callers
// log the raw code instead of failing.
type LookupError struct {
	Table string
	Code  string
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("unknown %s code %q", e.Table, e.Code)
}
