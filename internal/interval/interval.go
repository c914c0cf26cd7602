package interval

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidInterval is returned when an interval fails validation.
var ErrInvalidInterval = errors.New("interval: invalid time window")

// Interval represents a half-open time range [Start, End). Bounds carry
// second precision; finer-grained timestamps are rejected at validation so
// every layer compares the same instants.
type Interval struct {
	Start time.Time
	End   time.Time
}

// New constructs a validated interval.
func New(start, end time.Time) (Interval, error) {
	iv := Interval{Start: start, End: end}
	if err := iv.Validate(); err != nil {
		return Interval{}, err
	}
	return iv, nil
}

// Validate reports whether the interval is well formed. Zero bounds, a start
// equal to or after the end, and sub-second precision are all rejected before
// the interval reaches any other component.
func (iv Interval) Validate() error {
	if iv.Start.IsZero() || iv.End.IsZero() {
		return fmt.Errorf("%w: start and end are required", ErrInvalidInterval)
	}
	if iv.Start.Nanosecond() != 0 || iv.End.Nanosecond() != 0 {
		return fmt.Errorf("%w: start and end must be whole seconds", ErrInvalidInterval)
	}
	if !iv.Start.Before(iv.End) {
		return fmt.Errorf("%w: start must be before end", ErrInvalidInterval)
	}
	return nil
}

// Overlaps reports whether two half-open intervals intersect. An interval
// ending exactly when another begins does not conflict.
func (iv Interval) Overlaps(other Interval) bool {
	return iv.Start.Before(other.End) && other.Start.Before(iv.End)
}

// Duration returns the length of the interval.
func (iv Interval) Duration() time.Duration {
	return iv.End.Sub(iv.Start)
}

// String renders the interval in RFC 3339 form for logs and error messages.
func (iv Interval) String() string {
	return fmt.Sprintf("[%s, %s)", iv.Start.UTC().Format(time.RFC3339), iv.End.UTC().Format(time.RFC3339))
}
