package util

import (
	"fmt"
	"time"
)

// PrettyDuration returns a short duration string with at most two units, e.g. "850ms",
// "42s", "3m20s" or "2h5m".
func PrettyDuration(duration time.Duration) string {
	switch {
	case duration < time.Second:
		return fmt.Sprintf("%dms", duration.Milliseconds())
	case duration < time.Minute:
		return fmt.Sprintf("%ds", int(duration.Seconds()))
	case duration < time.Hour:
		minutes := int(duration.Minutes())
		seconds := int(duration.Seconds()) % 60
		if seconds == 0 {
			return fmt.Sprintf("%dm", minutes)
		}
		return fmt.Sprintf("%dm%ds", minutes, seconds)
	default:
		hours := int(duration.Hours())
		minutes := int(duration.Minutes()) % 60
		if minutes == 0 {
			return fmt.Sprintf("%dh", hours)
		}
		return fmt.Sprintf("%dh%dm", hours, minutes)
	}
}

// PrettyRate returns how many of unit were processed per second, minute or hour, picking
// the smallest time unit that gives a rate of at least one.
func PrettyRate(count int64, unit string, duration time.Duration) string {
	if duration <= 0 {
		return fmt.Sprintf("%d %s", count, unit)
	}

	per := []struct {
		name   string
		length time.Duration
	}{
		{name: "sec", length: time.Second},
		{name: "min", length: time.Minute},
		{name: "hour", length: time.Hour},
	}

	for _, p := range per {
		rate := float64(count) * float64(p.length) / float64(duration)
		if rate >= 1.0 || p.name == "hour" {
			return fmt.Sprintf("%0.1f %s/%s", rate, unit, p.name)
		}
	}
	return ""
}
