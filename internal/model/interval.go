package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Interval is a half-open booking time range [StartMS, EndMS) expressed in
// milliseconds since the Unix epoch.  The half-open convention means an
// interval ending at T never overlaps one starting at T, so back-to-back
// bookings on the same room are always allowed.
type Interval struct {
	StartMS int64 // inclusive start, epoch milliseconds
	EndMS   int64 // exclusive end, epoch milliseconds
}

// NewInterval builds an Interval and validates the start < end invariant.
// Zero-length and inverted ranges are rejected here so they never reach
// the conflict queries.
func NewInterval(startMS, endMS int64) (Interval, error) {
	if startMS <= 0 || endMS <= 0 {
		return Interval{}, fmt.Errorf("interval bounds must be positive epoch milliseconds")
	}
	if startMS >= endMS {
		return Interval{}, fmt.Errorf("interval start must be before end")
	}
	return Interval{StartMS: startMS, EndMS: endMS}, nil
}

// Overlaps reports whether two half-open intervals share any instant.
// Adjacency (a.EndMS == b.StartMS) is not an overlap.
func (iv Interval) Overlaps(other Interval) bool {
	return iv.StartMS < other.EndMS && iv.EndMS > other.StartMS
}

// Start returns the inclusive start as a time.Time in UTC.
func (iv Interval) Start() time.Time { return time.UnixMilli(iv.StartMS).UTC() }

// End returns the exclusive end as a time.Time in UTC.
func (iv Interval) End() time.Time { return time.UnixMilli(iv.EndMS).UTC() }

// Encode renders the legacy "start-end" wire form still used in JSON
// payloads towards older clients.
func (iv Interval) Encode() string {
	return strconv.FormatInt(iv.StartMS, 10) + "-" + strconv.FormatInt(iv.EndMS, 10)
}

// ParseInterval parses the legacy "start-end" pair.  It is the only place
// where the string form is split; storage and the overlap algebra operate
// on the typed fields.
func ParseInterval(s string) (Interval, error) {
	start, end, ok := strings.Cut(strings.TrimSpace(s), "-")
	if !ok {
		return Interval{}, fmt.Errorf("interval %q is not a start-end pair", s)
	}
	startMS, err := strconv.ParseInt(start, 10, 64)
	if err != nil {
		return Interval{}, fmt.Errorf("interval start %q is not numeric", start)
	}
	endMS, err := strconv.ParseInt(end, 10, 64)
	if err != nil {
		return Interval{}, fmt.Errorf("interval end %q is not numeric", end)
	}
	return NewInterval(startMS, endMS)
}
