package utils

import (
	"time"
)

const (
	GranularityMinute = "minute"
	GranularityHour   = "hour"
	GranularityDay    = "day"
)

// ResetTime truncates t in UTC to the given granularity. An unknown
// granularity returns t unchanged.
func ResetTime(t time.Time, granularity string) time.Time {
	t = t.UTC()
	switch granularity {
	case GranularityMinute:
		return t.Truncate(time.Minute)
	case GranularityHour:
		return t.Truncate(time.Hour)
	case GranularityDay:
		y, m, d := t.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	default:
		return t
	}
}

// SameDay reports whether a and b fall on the same UTC date.
func SameDay(a, b time.Time) bool {
	return ResetTime(a, GranularityDay).Equal(ResetTime(b, GranularityDay))
}
