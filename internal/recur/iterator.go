package recur

import (
	"time"

	"notecal/internal/event"
)

// Iterator is an explicit cursor over the occurrence dates of one series
// that intersect a window. It is finite (bounded by the window and the
// descriptor's MaxInstances) and restartable by constructing a new one.
// All yielded values are midnights in the iterator's location.
type Iterator struct {
	desc       Descriptor
	rangeStart time.Time
	rangeEnd   time.Time
	loc        *time.Location

	anchorDate time.Time
	yielded    int
	done       bool

	// Fixed-interval stepping (daily, weekly without weekdays, month
	// and year cadences).
	step int // cycle counter

	// Weekday-qualified weekly/bi-weekly stepping: cycle week walk,
	// phase-locked to the anchor's week.
	weekdayNums []int
	cycleWeek   time.Time
	weekdayIdx  int
}

// NewIterator builds an iterator over [rangeStart, rangeEnd] (inclusive,
// compared as dates in loc).
func NewIterator(desc Descriptor, rangeStart, rangeEnd time.Time, loc *time.Location) *Iterator {
	it := &Iterator{
		desc:       desc,
		rangeStart: DateOf(rangeStart, loc),
		rangeEnd:   DateOf(rangeEnd, loc),
		loc:        loc,
		anchorDate: DateOf(desc.Anchor, loc),
	}
	if it.rangeEnd.Before(it.rangeStart) || desc.MaxInstances == 0 {
		it.done = true
		return it
	}

	if it.weekdayMode() {
		for _, d := range desc.Weekdays {
			it.weekdayNums = append(it.weekdayNums, event.WeekdayNumber(d))
		}
		it.cycleWeek = weekStart(it.anchorDate)
		// Skip whole cycles that end before the window opens; the
		// anchor's week parity is preserved because we only ever
		// advance by full intervals.
		interval := it.desc.Cadence.WeekInterval()
		for it.cycleWeek.AddDate(0, 0, 6).Before(it.rangeStart) {
			it.cycleWeek = it.cycleWeek.AddDate(0, 0, 7*interval)
		}
		return it
	}

	// Day-granularity cadences fast-forward arithmetically to the first
	// cycle at or after the window start, keeping the anchor's phase.
	if days := it.dayStep(); days > 0 {
		if diff := int(it.rangeStart.Sub(it.anchorDate).Hours() / 24); diff > 0 {
			it.step = diff / days
			// DST makes the hour arithmetic inexact; undershooting by a
			// cycle is harmless, the yield loop skips it.
			if it.step > 0 {
				it.step--
			}
		}
	}
	return it
}

func (it *Iterator) weekdayMode() bool {
	return it.desc.Cadence.WeekInterval() > 0 && len(it.desc.Weekdays) > 0
}

// dayStep returns the fixed step in days, or 0 for month/year cadences.
func (it *Iterator) dayStep() int {
	switch {
	case it.desc.Cadence == event.CadenceDaily:
		return 1
	case it.desc.Cadence.WeekInterval() > 0:
		return 7 * it.desc.Cadence.WeekInterval()
	}
	return 0
}

// Next advances the cursor. The second return is false once the sequence
// is exhausted.
func (it *Iterator) Next() (time.Time, bool) {
	if it.done {
		return time.Time{}, false
	}
	if it.desc.MaxInstances > 0 && it.yielded >= it.desc.MaxInstances {
		it.done = true
		return time.Time{}, false
	}

	if it.weekdayMode() {
		return it.nextWeekday()
	}
	return it.nextFixed()
}

func (it *Iterator) nextFixed() (time.Time, bool) {
	for {
		var d time.Time
		if days := it.dayStep(); days > 0 {
			d = it.anchorDate.AddDate(0, 0, it.step*days)
		} else {
			months := it.desc.Cadence.MonthInterval()
			if it.desc.Cadence == event.CadenceYearly {
				months = 12
			}
			d = addMonthsClamped(it.anchorDate, it.step*months)
		}
		it.step++

		if d.After(it.rangeEnd) {
			it.done = true
			return time.Time{}, false
		}
		if d.Before(it.rangeStart) || d.Before(it.anchorDate) {
			continue
		}
		it.yielded++
		return d, true
	}
}

func (it *Iterator) nextWeekday() (time.Time, bool) {
	interval := it.desc.Cadence.WeekInterval()
	for {
		if it.cycleWeek.After(it.rangeEnd) {
			it.done = true
			return time.Time{}, false
		}
		if it.weekdayIdx >= len(it.weekdayNums) {
			it.weekdayIdx = 0
			it.cycleWeek = it.cycleWeek.AddDate(0, 0, 7*interval)
			continue
		}
		d := it.cycleWeek.AddDate(0, 0, it.weekdayNums[it.weekdayIdx]-1)
		it.weekdayIdx++

		if d.Before(it.anchorDate) || d.Before(it.rangeStart) {
			continue
		}
		if d.After(it.rangeEnd) {
			// Later weekdays in this cycle are further out still, but a
			// later cycle cannot come back into range; stop here.
			it.done = true
			return time.Time{}, false
		}
		it.yielded++
		return d, true
	}
}

// Collect drains an iterator into a slice. Handy when the caller already
// knows the sequence is capped.
func Collect(it *Iterator) []time.Time {
	var out []time.Time
	for {
		d, ok := it.Next()
		if !ok {
			return out
		}
		out = append(out, d)
	}
}
