package cache

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TTL defaults.
const (
	// DefaultTTLSeconds is the manager-wide default TTL (1 hour).
	DefaultTTLSeconds = 3600

	// UseDefaultTTL asks a store to apply its default TTL on Set.
	UseDefaultTTL = -1

	// minutesPerHour is used for duration formatting calculations.
	minutesPerHour = 60

	// hoursPerDay is used for duration formatting calculations.
	hoursPerDay = 24
)

// ErrInvalidTTL is returned by ParseTTL for negative or unparseable values.
var ErrInvalidTTL = errors.New("TTL must be a non-negative number of seconds or a duration")

// DefaultNamespaceTTLs returns the built-in per-namespace defaults. Video
// metadata changes rarely; comment pages churn quickly.
func DefaultNamespaceTTLs() map[Namespace]int {
	return map[Namespace]int{
		NamespaceVideo:    24 * 3600,
		NamespaceComments: 30 * 60,
		NamespaceSearch:   3600,
	}
}

// FormatDuration formats a duration in a human-readable way.
// Examples: "1h", "30m", "5m30s".
func FormatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.0fs", d.Seconds())
	}
	if d < time.Hour {
		return fmt.Sprintf("%.0fm", d.Minutes())
	}
	if d < hoursPerDay*time.Hour {
		hours := int(d.Hours())
		minutes := int(d.Minutes()) % minutesPerHour
		if minutes == 0 {
			return fmt.Sprintf("%dh", hours)
		}
		return fmt.Sprintf("%dh%dm", hours, minutes)
	}
	days := int(d.Hours()) / hoursPerDay
	hours := int(d.Hours()) % hoursPerDay
	if hours == 0 {
		return fmt.Sprintf("%dd", days)
	}
	return fmt.Sprintf("%dd%dh", days, hours)
}

// ParseTTL parses a TTL string in either form:
// - Integer seconds: "3600".
// - Duration string: "1h", "30m", "1h30m".
func ParseTTL(s string) (int, error) {
	s = strings.TrimSpace(s)
	if seconds, err := strconv.Atoi(s); err == nil {
		if seconds < 0 {
			return 0, fmt.Errorf("%w: got %d", ErrInvalidTTL, seconds)
		}
		return seconds, nil
	}

	duration, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidTTL, err)
	}
	if duration < 0 {
		return 0, fmt.Errorf("%w: got %s", ErrInvalidTTL, s)
	}
	return int(duration.Seconds()), nil
}
