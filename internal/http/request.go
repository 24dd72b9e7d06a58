package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"finledger/internal/core"
)

// badRequest marks errors caused by the shape of the request itself.
type badRequest struct {
	err error
}

func (e *badRequest) Error() string { return e.err.Error() }
func (e *badRequest) Unwrap() error { return e.err }

func badRequestf(format string, args ...any) error {
	return &badRequest{err: fmt.Errorf(format, args...)}
}

// decodeJSON reads one JSON object from the request body into v. Unknown
// fields and trailing data are rejected.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return badRequestf("empty request body")
		}
		return badRequestf("invalid JSON body: %v", err)
	}
	if dec.More() {
		return badRequestf("invalid JSON body: trailing data")
	}
	return nil
}

// parseMonthParam reads a YYYY-MM value, using def when it is absent.
func parseMonthParam(query url.Values, key string, def core.Month) (core.Month, error) {
	v := strings.TrimSpace(query.Get(key))
	if v == "" {
		return def, nil
	}
	m, err := core.ParseMonth(v)
	if err != nil {
		return core.Month{}, badRequestf("%s: %v", key, err)
	}
	return m, nil
}

// parseDateParam reads a YYYY-MM-DD value, using def when it is absent.
func parseDateParam(query url.Values, key string, def core.Date) (core.Date, error) {
	v := strings.TrimSpace(query.Get(key))
	if v == "" {
		return def, nil
	}
	d, err := core.ParseDate(v)
	if err != nil {
		return core.Date{}, badRequestf("%s: %v", key, err)
	}
	return d, nil
}

func parseOptionalDate(query url.Values, key string) (*core.Date, error) {
	if strings.TrimSpace(query.Get(key)) == "" {
		return nil, nil
	}
	d, err := parseDateParam(query, key, core.Date{})
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// parseLimit reads a positive limit capped at maxListLimit.
func parseLimit(query url.Values, def int) (int, error) {
	v := strings.TrimSpace(query.Get("limit"))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return 0, badRequestf("limit: must be a positive integer")
	}
	if n > maxListLimit {
		n = maxListLimit
	}
	return n, nil
}

// parseFilter builds a transaction filter from query parameters. A month
// parameter expands to that month's first and last day; from and to
// override it.
func parseFilter(query url.Values, owner string) (core.TransactionFilter, error) {
	f := core.TransactionFilter{
		Kind:    core.TransactionKind(strings.TrimSpace(query.Get("kind"))),
		Level1:  strings.TrimSpace(query.Get("level1")),
		Level2:  strings.TrimSpace(query.Get("level2")),
		OwnerID: owner,
	}
	if f.Kind != "" && !f.Kind.Valid() {
		return core.TransactionFilter{}, badRequestf("kind: %v", core.ErrInvalidKind)
	}

	if query.Get("month") != "" {
		m, err := parseMonthParam(query, "month", core.Month{})
		if err != nil {
			return core.TransactionFilter{}, err
		}
		first, last := m.FirstDay(), m.LastDay()
		f.From, f.To = &first, &last
	}
	from, err := parseOptionalDate(query, "from")
	if err != nil {
		return core.TransactionFilter{}, err
	}
	if from != nil {
		f.From = from
	}
	to, err := parseOptionalDate(query, "to")
	if err != nil {
		return core.TransactionFilter{}, err
	}
	if to != nil {
		f.To = to
	}

	if v := strings.TrimSpace(query.Get("analysis")); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return core.TransactionFilter{}, badRequestf("analysis: must be true or false")
		}
		f.CountsTowardAnalysis = &b
	}
	return f, nil
}
