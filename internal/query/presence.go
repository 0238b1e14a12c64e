// Package query holds the pure functions shared by every view: online-status
// derivation, relative-time formatting, event classification, and the filter
// predicates applied to materialized collections.
package query

import (
	"fmt"
	"time"
)

// OnlineWindow is how recent a heartbeat must be for a machine to count as
// online. A heartbeat exactly this old is already offline.
const OnlineWindow = 10 * time.Minute

// ParseTime parses the agents' ISO-8601 timestamps. ok is false for empty or
// malformed values.
func ParseTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func IsOnline(lastHeartbeat string, now time.Time) bool {
	t, ok := ParseTime(lastHeartbeat)
	if !ok {
		return false
	}
	return now.Sub(t) < OnlineWindow
}

// RelativeTime renders a human-relative duration ("5 minutes ago").
func RelativeTime(timestamp string, now time.Time) string {
	t, ok := ParseTime(timestamp)
	if !ok {
		return "unknown"
	}

	minutes := int(now.Sub(t).Minutes())
	switch {
	case minutes < 1:
		return "just now"
	case minutes < 60:
		return fmt.Sprintf("%d minutes ago", minutes)
	case minutes < 24*60:
		return fmt.Sprintf("%d hours ago", minutes/60)
	default:
		return fmt.Sprintf("%d days ago", minutes/(24*60))
	}
}

// Uptime buckets the time since install into days/months/years.
func Uptime(installDate string, now time.Time) string {
	t, ok := ParseTime(installDate)
	if !ok {
		return "unknown"
	}

	days := int(now.Sub(t).Hours() / 24)
	switch {
	case days <= 0:
		return "today"
	case days == 1:
		return "1 day"
	case days < 30:
		return fmt.Sprintf("%d days", days)
	case days < 365:
		return fmt.Sprintf("%d months", days/30)
	default:
		return fmt.Sprintf("%d years", days/365)
	}
}

// DateOnly truncates a timestamp to its calendar day ("2006-01-02"). Empty
// when the timestamp cannot be parsed.
func DateOnly(timestamp string) string {
	t, ok := ParseTime(timestamp)
	if !ok {
		return ""
	}
	return t.Format("2006-01-02")
}
