package validate

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/baharkarakas/dragonpay-gateway/internal/dragonpay"
)

const maxLimit = 500

type ErrField struct {
	Field string `json:"field"`
	Msg   string `json:"msg"`
}

type Errs []ErrField

func (e Errs) Error() string {
	var b strings.Builder
	for i, ef := range e {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(ef.Field + ": " + ef.Msg)
	}
	return b.String()
}

func (e *Errs) add(f *ErrField) {
	if f != nil {
		*e = append(*e, *f)
	}
}

func Required(field, value string) *ErrField {
	if strings.TrimSpace(value) == "" {
		return &ErrField{Field: field, Msg: "required"}
	}
	return nil
}

func MinInt(field string, v, min int64) *ErrField {
	if v < min {
		return &ErrField{Field: field, Msg: "must be >= " + strconv.FormatInt(min, 10)}
	}
	return nil
}

// Query reads typed values from a query string and collects every problem.
type Query struct {
	v    url.Values
	errs Errs
}

func NewQuery(v url.Values) *Query { return &Query{v: v} }

func (q *Query) String(key string) string { return strings.TrimSpace(q.v.Get(key)) }

func (q *Query) Int(key string, def, min int64) int64 {
	raw := q.String(key)
	if raw == "" {
		return def
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		q.errs.add(&ErrField{Field: key, Msg: "must be an integer"})
		return def
	}
	q.errs.add(MinInt(key, n, min))
	return n
}

// Bool returns nil when key is absent.
func (q *Query) Bool(key string) *bool {
	raw := q.String(key)
	if raw == "" {
		return nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		q.errs.add(&ErrField{Field: key, Msg: "must be true or false"})
		return nil
	}
	return &b
}

// Status parses an optional status code that must belong to set.
func (q *Query) Status(key string, set []dragonpay.Status) dragonpay.Status {
	raw := q.String(key)
	if raw == "" {
		return ""
	}
	s, err := dragonpay.ParseStatus(raw)
	if err != nil || !s.In(set) {
		q.errs.add(&ErrField{Field: key, Msg: "unknown status " + strconv.Quote(raw)})
		return ""
	}
	return s
}

// Page returns limit and offset, capping limit.
func (q *Query) Page() (limit, offset int) {
	l := q.Int("limit", 50, 1)
	if l > maxLimit {
		l = maxLimit
	}
	return int(l), int(q.Int("offset", 0, 0))
}

// Err returns the collected problems, or nil.
func (q *Query) Err() error {
	if len(q.errs) == 0 {
		return nil
	}
	return q.errs
}
