// Package recur implements the date arithmetic behind recurring events.
// Everything here is a pure function of its inputs: no I/O, no shared
// state, no clock.
package recur

import (
	"time"

	"notecal/internal/event"
)

// Descriptor describes one recurring series. Exactly one expansion
// strategy applies per descriptor: a weekday set is only meaningful for
// weekly/bi-weekly cadences, and an empty set degrades those to plain
// fixed-interval stepping.
type Descriptor struct {
	Cadence  event.Cadence
	Weekdays []time.Weekday

	// Anchor is the series' original start; occurrence dates are
	// projected from it and never precede it.
	Anchor time.Time

	// MaxInstances caps how many occurrences an iterator will yield.
	// The cap is the caller's policy, not the engine's.
	MaxInstances int
}

// DateOf truncates t to midnight in loc.
func DateOf(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}

// weekStart returns the Monday midnight of t's week.
func weekStart(t time.Time) time.Time {
	return t.AddDate(0, 0, -(event.WeekdayNumber(t.Weekday()) - 1))
}

// addMonthsClamped steps n months from t, clamping the day-of-month to
// the target month's length instead of letting it normalize into the
// following month. Stepping always happens from the anchor so the
// day-of-cycle never drifts.
func addMonthsClamped(t time.Time, n int) time.Time {
	year, month := t.Year(), int(t.Month())-1+n
	year += month / 12
	month = month % 12
	if month < 0 {
		month += 12
		year--
	}
	target := time.Month(month + 1)
	day := t.Day()
	if last := daysIn(year, target); day > last {
		day = last
	}
	return time.Date(year, target, day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, -1).Day()
}

// Next returns the occurrence immediately after t for the given cadence.
//
// For weekly/bi-weekly cadences with an explicit weekday set it prefers a
// qualifying weekday later in the current week before jumping one cycle
// (one or two weeks); the tie-break is the smallest weekday number, with
// Sunday compared as 7.
func Next(t time.Time, cadence event.Cadence, weekdays []time.Weekday) time.Time {
	switch cadence {
	case event.CadenceDaily:
		return t.AddDate(0, 0, 1)
	case event.CadenceWeekly, event.CadenceBiWeekly:
		interval := cadence.WeekInterval()
		if len(weekdays) == 0 {
			return t.AddDate(0, 0, 7*interval)
		}
		return nextWeekday(t, weekdays, interval)
	case event.CadenceYearly:
		return addMonthsClamped(t, 12)
	default:
		return addMonthsClamped(t, cadence.MonthInterval())
	}
}

func nextWeekday(t time.Time, weekdays []time.Weekday, interval int) time.Time {
	cur := event.WeekdayNumber(t.Weekday())

	// Later in the current week first.
	best := 0
	for _, d := range weekdays {
		n := event.WeekdayNumber(d)
		if n > cur && (best == 0 || n < best) {
			best = n
		}
	}
	if best != 0 {
		return t.AddDate(0, 0, best-cur)
	}

	// Otherwise jump to the earliest qualifying weekday of the next cycle.
	first := 8
	for _, d := range weekdays {
		if n := event.WeekdayNumber(d); n < first {
			first = n
		}
	}
	return t.AddDate(0, 0, 7*interval-cur+first)
}

// InstanceDateTime projects the anchor's wall-clock time onto a candidate
// occurrence date. The anchor's clock is first converted into loc so that
// an anchor recorded in another zone does not leak its wall-clock numbers
// verbatim. All-day instances normalize to midnight with no time component.
func InstanceDateTime(candidate, anchor time.Time, allDay bool, loc *time.Location) time.Time {
	if allDay {
		return DateOf(candidate, loc)
	}
	a := anchor.In(loc)
	c := candidate.In(loc)
	return time.Date(c.Year(), c.Month(), c.Day(), a.Hour(), a.Minute(), a.Second(), 0, loc)
}
