package common

import (
	"fmt"
	"time"
)

// Backend timestamps look like "2025-09-20T04:14:53.987274Z". Only the
// leading date portion is meaningful to the client; the time-of-day suffix is
// carried through unchanged when a date is edited.

// ReplaceDate swaps the date portion of a backend timestamp, keeping the
// original time suffix intact.
func ReplaceDate(stamp string, year int, month time.Month, day int) string {
	suffix := ""
	if len(stamp) > 10 {
		suffix = stamp[10:]
	}
	return fmt.Sprintf("%04d-%02d-%02d%s", year, int(month), day, suffix)
}

// DisplayDate renders a backend timestamp as MM/DD/YYYY. Malformed input is
// returned as-is so a bad timestamp never hides the record.
func DisplayDate(stamp string) string {
	if len(stamp) < 10 {
		return stamp
	}
	t, err := time.Parse("2006-01-02", stamp[:10])
	if err != nil {
		return stamp
	}
	return t.Format("01/02/2006")
}

// CurrentDateStamp returns today's date in the backend timestamp format.
func CurrentDateStamp() string {
	return time.Now().UTC().Format("2006-01-02") + "T00:00:00.000000Z"
}

// TimeSince renders the elapsed duration since a backend timestamp in the
// coarse "N days ago" form used next to receipt rows.
func TimeSince(stamp string, now time.Time) string {
	t, err := time.Parse(time.RFC3339, stamp)
	if err != nil {
		return ""
	}

	days := int(now.Sub(t).Hours() / 24)
	if days < 1 {
		return "0 days ago"
	}
	if days < 30 {
		return fmt.Sprintf("%d day%s ago", days, plural(days))
	}
	months := days / 30
	if months < 12 {
		return fmt.Sprintf("%d month%s ago", months, plural(months))
	}
	years := months / 12
	return fmt.Sprintf("%d year%s ago", years, plural(years))
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
