package report

import (
	"strings"
	"time"
)

const dayLayout = "2006-01-02"

// Range is an inclusive span of calendar days in a location.
type Range struct {
	From time.Time
	To   time.Time
}

// ParseRange reads from/to as YYYY-MM-DD. Missing or malformed bounds fall back
// to the last defaultDays days ending today; reversed bounds are swapped.
func ParseRange(from, to string, now time.Time, loc *time.Location, defaultDays int) Range {
	if loc == nil {
		loc = time.UTC
	}
	if defaultDays <= 0 {
		defaultDays = 30
	}
	y, m, d := now.In(loc).Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, loc)

	r := Range{From: today.AddDate(0, 0, -defaultDays), To: today}
	if t, err := time.ParseInLocation(dayLayout, strings.TrimSpace(from), loc); err == nil {
		r.From = t
	}
	if t, err := time.ParseInLocation(dayLayout, strings.TrimSpace(to), loc); err == nil {
		r.To = t
	}
	if r.From.After(r.To) {
		r.From, r.To = r.To, r.From
	}
	return r
}

// Bounds returns the half-open instant interval [From, To+1 day).
func (r Range) Bounds() (time.Time, time.Time) {
	return r.From, r.To.AddDate(0, 0, 1)
}

// Filename is the download name of the CSV export for the range.
func (r Range) Filename() string {
	return "reportes_" + r.From.Format("20060102") + "_" + r.To.Format("20060102") + ".csv"
}
