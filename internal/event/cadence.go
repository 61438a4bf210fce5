package event

import (
	"fmt"
	"strings"
	"time"
)

// Cadence is the closed set of recurrence intervals. There is deliberately
// no free-form rule grammar here.
type Cadence string

const (
	CadenceDaily      Cadence = "daily"
	CadenceWeekly     Cadence = "weekly"
	CadenceBiWeekly   Cadence = "bi-weekly"
	CadenceMonthly    Cadence = "monthly"
	CadenceBiMonthly  Cadence = "bi-monthly"
	CadenceQuarterly  Cadence = "quarterly"
	CadenceSemiAnnual Cadence = "semi-annual"
	CadenceYearly     Cadence = "yearly"
)

// ParseCadence parses a cadence value case-insensitively.
func ParseCadence(s string) (Cadence, error) {
	c := Cadence(strings.ToLower(strings.TrimSpace(s)))
	switch c {
	case CadenceDaily, CadenceWeekly, CadenceBiWeekly, CadenceMonthly,
		CadenceBiMonthly, CadenceQuarterly, CadenceSemiAnnual, CadenceYearly:
		return c, nil
	}
	return "", fmt.Errorf("unknown cadence %q", s)
}

// MonthInterval returns the step in months for month-based cadences, 0 otherwise.
func (c Cadence) MonthInterval() int {
	switch c {
	case CadenceMonthly:
		return 1
	case CadenceBiMonthly:
		return 2
	case CadenceQuarterly:
		return 3
	case CadenceSemiAnnual:
		return 6
	}
	return 0
}

// WeekInterval returns the step in weeks for week-based cadences, 0 otherwise.
func (c Cadence) WeekInterval() int {
	switch c {
	case CadenceWeekly:
		return 1
	case CadenceBiWeekly:
		return 2
	}
	return 0
}

// WeekdayNumber maps a weekday onto the Monday-first ordering used for
// alignment decisions: Monday=1 .. Saturday=6, Sunday=7.
func WeekdayNumber(d time.Weekday) int {
	if d == time.Sunday {
		return 7
	}
	return int(d)
}

var weekdayNames = map[string]time.Weekday{
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
	"sunday":    time.Sunday,
}

// ParseWeekday parses a weekday name or its 3-letter prefix, case-insensitively.
func ParseWeekday(s string) (time.Weekday, error) {
	k := strings.ToLower(strings.TrimSpace(s))
	if d, ok := weekdayNames[k]; ok {
		return d, nil
	}
	if len(k) >= 3 {
		for name, d := range weekdayNames {
			if strings.HasPrefix(name, k[:3]) {
				return d, nil
			}
		}
	}
	return 0, fmt.Errorf("unknown weekday %q", s)
}

// ParseWeekdays parses a list of weekday names, dropping duplicates and
// returning the set sorted by WeekdayNumber. Unknown names are an error;
// an empty input yields an empty set.
func ParseWeekdays(names []string) ([]time.Weekday, error) {
	seen := make(map[time.Weekday]bool)
	var out []time.Weekday
	for _, name := range names {
		if strings.TrimSpace(name) == "" {
			continue
		}
		d, err := ParseWeekday(name)
		if err != nil {
			return nil, err
		}
		if seen[d] {
			continue
		}
		seen[d] = true
		out = append(out, d)
	}
	// Insertion sort by Monday-first number; sets are tiny.
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && WeekdayNumber(out[j]) < WeekdayNumber(out[j-1]); j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out, nil
}
