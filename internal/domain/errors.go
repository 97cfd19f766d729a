package domain

import "errors"

// Failure kinds. Callers match with errors.Is; messages wrap these with context.
var (
	ErrInvalidInput   = errors.New("invalid input")
	ErrNotFound       = errors.New("not found")
	ErrIncompleteData = errors.New("incomplete data")
	ErrDivisionByZero = errors.New("division by zero")
	ErrPastTime       = errors.New("schedule is in the past")
	ErrUnavailable    = errors.New("data source unavailable")

	// ErrStale reports a simulation whose result was discarded because the
	// site changed or was removed while the reading was being fetched.
	ErrStale = errors.New("stale simulation result")
)

// Kind maps an error to a stable label for metrics and API responses.
// Returns "" for nil and "internal" for errors outside the taxonomy.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrIncompleteData):
		return "incomplete_data"
	case errors.Is(err, ErrDivisionByZero):
		return "division_by_zero"
	case errors.Is(err, ErrPastTime):
		return "past_time"
	case errors.Is(err, ErrUnavailable):
		return "unavailable"
	case errors.Is(err, ErrStale):
		return "stale"
	default:
		return "internal"
	}
}
