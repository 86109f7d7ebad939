// Package ticks converts .NET tick counts into calendar time.
//
// A tick is 100 nanoseconds counted from midnight, January 1 of year 1 (UTC).
// This is the only package that knows about the tick epoch; everything else
// treats the results as ordinary time.Time values.
package ticks

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	// PerSecond is the number of ticks in one second.
	PerSecond = 10_000_000

	// Resolution is the duration of a single tick.
	Resolution = 100 * time.Nanosecond
)

// Epoch is the instant represented by tick zero.
var Epoch = time.Date(1, time.January, 1, 0, 0, 0, 0, time.UTC)

// epochUnix is Epoch expressed in Unix seconds.
var epochUnix = Epoch.Unix()

// ErrInvalidTicks indicates a tick value that is not a decimal integer.
var ErrInvalidTicks = errors.New("invalid tick value")

// Interval is a start/end pair with the elapsed time between them.
type Interval struct {
	Start    time.Time
	End      time.Time
	Duration time.Duration
}

// Parse parses a decimal tick string.
func Parse(s string) (int64, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTicks, s)
	}
	return n, nil
}

// FromInt converts a tick count into a UTC time.
// Seconds and sub-second remainder are split so no time.Duration overflows;
// real-world tick counts are far beyond the ~292 year range of a Duration.
func FromInt(n int64) time.Time {
	secs := n / PerSecond
	rem := n % PerSecond
	return time.Unix(epochUnix+secs, rem*int64(Resolution)).UTC()
}

// ToTime parses a tick string and converts it to a UTC time.
func ToTime(s string) (time.Time, error) {
	n, err := Parse(s)
	if err != nil {
		return time.Time{}, err
	}
	return FromInt(n), nil
}

// DeriveInterval converts a start/end tick pair.
// End before start yields a negative Duration; it is not rejected.
func DeriveInterval(start, end string) (Interval, error) {
	startTime, err := ToTime(start)
	if err != nil {
		return Interval{}, fmt.Errorf("start ticks: %w", err)
	}
	endTime, err := ToTime(end)
	if err != nil {
		return Interval{}, fmt.Errorf("end ticks: %w", err)
	}
	return Interval{
		Start:    startTime,
		End:      endTime,
		Duration: endTime.Sub(startTime),
	}, nil
}
