package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// DateLayout is the calendar date format used by the API and the forecast provider.
const DateLayout = "2006-01-02"

// Schedule is the calendar date and hour a simulation refers to.
// Date is midnight in the schedule's time zone.
type Schedule struct {
	Date time.Time
	Hour int
}

// NewSchedule truncates date to midnight in its own location and validates hour.
func NewSchedule(date time.Time, hour int) (Schedule, error) {
	if date.IsZero() {
		return Schedule{}, fmt.Errorf("%w: date is required", ErrInvalidInput)
	}
	if hour < 0 || hour > 23 {
		return Schedule{}, fmt.Errorf("%w: hour %d outside 0-23", ErrInvalidInput, hour)
	}
	return Schedule{Date: startOfDay(date), Hour: hour}, nil
}

// ParseSchedule parses a YYYY-MM-DD date in loc.
func ParseSchedule(date string, hour int, loc *time.Location) (Schedule, error) {
	d, err := time.ParseInLocation(DateLayout, date, loc)
	if err != nil {
		return Schedule{}, fmt.Errorf("%w: date %q: %v", ErrInvalidInput, date, err)
	}
	return NewSchedule(d, hour)
}

// CurrentSchedule returns today's date and the current hour in loc.
func CurrentSchedule(loc *time.Location) Schedule {
	now := Now().In(loc)
	return Schedule{Date: startOfDay(now), Hour: now.Hour()}
}

// Start returns the instant the scheduled hour begins.
func (s Schedule) Start() time.Time {
	return s.Date.Add(time.Duration(s.Hour) * time.Hour)
}

// DateString formats the date as YYYY-MM-DD.
func (s Schedule) DateString() string {
	return s.Date.Format(DateLayout)
}

// InPast reports whether the date precedes today, or is today with an hour
// before the current hour. Comparison happens in the schedule's time zone.
func (s Schedule) InPast() bool {
	now := Now().In(s.Date.Location())
	today := startOfDay(now)
	switch {
	case s.Date.Before(today):
		return true
	case s.Date.Equal(today):
		return s.Hour < now.Hour()
	default:
		return false
	}
}

// String formats the schedule as "YYYY-MM-DD HH:00".
func (s Schedule) String() string {
	return fmt.Sprintf("%s %02d:00", s.DateString(), s.Hour)
}

type scheduleJSON struct {
	Date string `json:"date"`
	Hour int    `json:"hour"`
}

// MarshalJSON encodes the schedule as {"date":"YYYY-MM-DD","hour":H}.
func (s Schedule) MarshalJSON() ([]byte, error) {
	if s.Date.IsZero() {
		return json.Marshal(scheduleJSON{Hour: s.Hour})
	}
	return json.Marshal(scheduleJSON{Date: s.DateString(), Hour: s.Hour})
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
