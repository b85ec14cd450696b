// Package timeutil holds the date/time parsing and formatting conventions
// shared by the whole service: ISO or dd/mm dates in, canonical "HH:MM"
// times, dd/mm/yy display formats, and whole-minute distances for the
// schedule conflict checks. Everything here is pure.
package timeutil

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// InfiniteMinutes is the distance reported when either time is absent;
// effectively "no overlap possible".
const InfiniteMinutes = 1_000_000

var twelveHourRe = regexp.MustCompile(`^(\d{1,2})(?::(\d{1,2}))?(?::(\d{1,2}))?\s*(am|pm)$`)

// ParseDateISO parses a strict ISO calendar date (YYYY-MM-DD).
func ParseDateISO(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, false
	}
	return d, true
}

// ParseDate parses a date tolerantly: ISO first, then dd/mm/yyyy or dd/mm/yy.
// Unparsable input yields ok=false, never an error.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if d, ok := ParseDateISO(s); ok {
		return d, true
	}
	for _, layout := range []string{"02/01/2006", "02/01/06"} {
		if d, err := time.Parse(layout, s); err == nil {
			return d, true
		}
	}
	return time.Time{}, false
}

// ParseTimeOfDay parses 24-hour "HH:MM[:SS]" or 12-hour "H[:MM[:SS]] am|pm"
// notation and returns the canonical "HH:MM" form. Seconds are dropped;
// scheduling is minute-grained.
func ParseTimeOfDay(s string) (string, bool) {
	v := strings.ToLower(strings.TrimSpace(s))
	if v == "" {
		return "", false
	}

	if m := twelveHourRe.FindStringSubmatch(v); m != nil {
		hh, _ := strconv.Atoi(m[1])
		mm := 0
		if m[2] != "" {
			mm, _ = strconv.Atoi(m[2])
		}
		if hh < 1 || hh > 12 || mm > 59 {
			return "", false
		}
		if hh == 12 {
			hh = 0
		}
		if m[4] == "pm" {
			hh += 12
		}
		return formatHM(hh, mm), true
	}

	parts := strings.Split(v, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return "", false
	}
	hh, err := strconv.Atoi(parts[0])
	if err != nil {
		return "", false
	}
	mm, err := strconv.Atoi(parts[1])
	if err != nil {
		return "", false
	}
	if len(parts) == 3 {
		if _, err := strconv.Atoi(parts[2]); err != nil {
			return "", false
		}
	}
	if hh < 0 || hh > 23 || mm < 0 || mm > 59 {
		return "", false
	}
	return formatHM(hh, mm), true
}

func formatHM(hh, mm int) string {
	return pad2(hh) + ":" + pad2(mm)
}

func pad2(n int) string {
	if n < 10 {
		return "0" + strconv.Itoa(n)
	}
	return strconv.Itoa(n)
}

// minutesOf converts a canonical "HH:MM" string to minutes since midnight.
func minutesOf(t string) (int, bool) {
	parts := strings.SplitN(t, ":", 2)
	if len(parts) != 2 {
		return 0, false
	}
	hh, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, false
	}
	mm, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, false
	}
	return hh*60 + mm, true
}

// MinutesApart returns the absolute distance in whole minutes between two
// canonical "HH:MM" times. If either is absent or malformed the distance is
// InfiniteMinutes: a pair without two concrete times can never conflict.
func MinutesApart(t1, t2 string) int {
	m1, ok1 := minutesOf(t1)
	m2, ok2 := minutesOf(t2)
	if !ok1 || !ok2 {
		return InfiniteMinutes
	}
	if m1 > m2 {
		return m1 - m2
	}
	return m2 - m1
}

// FormatDate renders a date as dd/mm/yy, or "" for nil.
func FormatDate(d *time.Time) string {
	if d == nil {
		return ""
	}
	return d.Format("02/01/06")
}

// FormatDateTime renders a timestamp as "dd/mm/yy HH:MM", or "" for nil.
func FormatDateTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("02/01/06 15:04")
}
