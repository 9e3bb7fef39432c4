// Package lifecycle coordinates bounded-grace shutdown for quiesced.
package lifecycle

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrNegativeGrace is returned when a grace period is constructed or
// parsed from a negative duration.
var ErrNegativeGrace = errors.New("grace period must not be negative")

// GracePeriod is the maximum time to wait for in-flight connections to
// drain before forcing termination. It is one of three shapes:
// infinite (wait forever), zero (force immediately), or bounded.
//
// A bounded period of zero is the same thing as zero, so it is
// normalized at construction.
type GracePeriod struct {
	d        time.Duration
	infinite bool
}

// InfiniteGrace returns a grace period that waits for drain forever.
func InfiniteGrace() GracePeriod {
	return GracePeriod{infinite: true}
}

// ZeroGrace returns a grace period that forces termination immediately.
func ZeroGrace() GracePeriod {
	return GracePeriod{}
}

// BoundedGrace returns a grace period that waits up to d for drain.
// Negative durations are rejected.
func BoundedGrace(d time.Duration) (GracePeriod, error) {
	if d < 0 {
		return GracePeriod{}, fmt.Errorf("%w: %s", ErrNegativeGrace, d)
	}
	return GracePeriod{d: d}, nil
}

// ParseGracePeriod parses a configuration string into a GracePeriod.
// Accepted forms: "infinite" (case-insensitive) or any duration string
// understood by time.ParseDuration, e.g. "30s", "1500ms", "0s".
func ParseGracePeriod(s string) (GracePeriod, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "infinite":
		return InfiniteGrace(), nil
	case "":
		return GracePeriod{}, errors.New("grace period is empty")
	}

	d, err := time.ParseDuration(strings.TrimSpace(s))
	if err != nil {
		return GracePeriod{}, fmt.Errorf("invalid grace period %q: %w", s, err)
	}
	return BoundedGrace(d)
}

// IsInfinite reports whether the period waits forever.
func (g GracePeriod) IsInfinite() bool {
	return g.infinite
}

// IsZero reports whether the period forces termination immediately.
func (g GracePeriod) IsZero() bool {
	return !g.infinite && g.d == 0
}

// Duration returns the bounded wait. It is zero for infinite and zero
// periods; check IsInfinite before using it for a timer.
func (g GracePeriod) Duration() time.Duration {
	return g.d
}

// String returns the configuration form of the period.
func (g GracePeriod) String() string {
	if g.infinite {
		return "infinite"
	}
	return g.d.String()
}
