// Package store combines raw event sources with expanded recurring
// instances into the published calendar event set.
package store

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"notecal/internal/config"
	"notecal/internal/event"
	"notecal/internal/expr"
	"notecal/internal/frontmatter"
	"notecal/internal/recur"
)

// entry is the store's per-file derived state.
type entry struct {
	raw *event.RawEventSource
	ev  event.CalendarEvent

	// desc is non-nil when the file generates a recurring series.
	desc *recur.Descriptor

	// linkedSource is the generating source path when the file is a
	// materialized physical instance of a series.
	linkedSource string
	instanceDate time.Time
}

// Store indexes physical events and synthesizes virtual recurring
// instances on demand. It never touches files; materializing an instance
// into a real note is a collaborator action elsewhere.
type Store struct {
	fields       config.FieldMap
	loc          *time.Location
	maxInstances int
	logger       *slog.Logger

	mu      sync.Mutex
	entries map[string]*entry
}

// New creates a store. maxInstances is the global future-instance cap; a
// per-event field overrides it.
func New(fields config.FieldMap, loc *time.Location, maxInstances int) *Store {
	return &Store{
		fields:       fields,
		loc:          loc,
		maxInstances: maxInstances,
		logger:       slog.Default(),
		entries:      make(map[string]*entry),
	}
}

// Apply is the ingestor subscriber callback.
func (s *Store) Apply(ev event.IndexerEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch ev.Kind {
	case event.FileDeleted:
		delete(s.entries, ev.Path)
	case event.FileChanged:
		if ev.Source == nil || ev.Source.Untracked {
			// Untracked files carry no event; drop any previous state.
			delete(s.entries, ev.Path)
			return
		}
		e, err := s.derive(ev.Source)
		if err != nil {
			s.logger.Warn("failed to derive event", "path", ev.Path, "error", err)
			delete(s.entries, ev.Path)
			return
		}
		s.entries[ev.Path] = e
	}
}

// Event returns the physical event for a path, if indexed.
func (s *Store) Event(path string) (event.CalendarEvent, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[path]
	if !ok {
		return event.CalendarEvent{}, false
	}
	return e.ev, true
}

// Len returns the number of indexed physical events.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// derive classifies a RawEventSource and builds its derived state:
// (a) a plain event, (b) the generator of a recurring series, or (c) a
// materialized physical instance linked back to a source.
func (s *Store) derive(src *event.RawEventSource) (*entry, error) {
	fields := src.Fields

	title, ok := frontmatter.String(fields, s.fields.Title)
	if !ok || title == "" {
		title = titleFromPath(src.Path)
	}

	ev := event.CalendarEvent{
		ID:         src.Path,
		Title:      title,
		AllDay:     src.AllDay,
		SourcePath: src.Path,
		Skipped:    frontmatter.Bool(fields, s.fields.Skip),
		Categories: frontmatter.StringList(fields, s.fields.Categories),
	}

	var anchor time.Time
	if src.AllDay {
		date, _, ok := frontmatter.DateTime(fields, s.fields.Date, s.loc)
		if !ok {
			// All-day files may also carry a start plus the all-day flag.
			date, _, ok = frontmatter.DateTime(fields, s.fields.Start, s.loc)
			if !ok {
				return nil, fmt.Errorf("all-day event missing date field")
			}
		}
		ev.Date = recur.DateOf(date, s.loc)
		anchor = ev.Date
	} else {
		start, _, ok := frontmatter.DateTime(fields, s.fields.Start, s.loc)
		if !ok {
			return nil, fmt.Errorf("timed event missing start field")
		}
		ev.Start = start
		anchor = start
		if end, _, ok := frontmatter.DateTime(fields, s.fields.End, s.loc); ok && end.After(start) {
			ev.End = end
		}
	}

	e := &entry{raw: src, ev: ev}

	// Case (c): a physical instance of a series.
	if link, ok := frontmatter.String(fields, s.fields.RRuleID); ok && link != "" {
		e.ev.RecurrenceID = link
		e.linkedSource = link
		e.instanceDate = recur.DateOf(anchor, s.loc)
		return e, nil
	}

	// Case (b): a recurring source.
	if cadenceRaw, ok := frontmatter.String(fields, s.fields.RRule); ok && cadenceRaw != "" {
		cadence, err := event.ParseCadence(cadenceRaw)
		if err != nil {
			return nil, err
		}
		weekdays, err := event.ParseWeekdays(frontmatter.StringList(fields, s.fields.RRuleSpec))
		if err != nil {
			return nil, err
		}
		max := s.maxInstances
		if n, ok := frontmatter.Int(fields, s.fields.MaxInstances); ok && n > 0 {
			max = n
		}
		e.desc = &recur.Descriptor{
			Cadence:      cadence,
			Weekdays:     weekdays,
			Anchor:       anchor,
			MaxInstances: max,
		}
	}

	return e, nil
}

// EventsInRange returns every indexed event intersecting [start, end]:
// physical events plus virtual instances of each recurring source,
// skipping occurrence dates already materialized as physical files.
// Skipped events are included; filtering them is the visible view's job.
func (s *Store) EventsInRange(start, end time.Time) []event.CalendarEvent {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Occurrence dates covered by materialized physical instances,
	// keyed by source path.
	materialized := make(map[string]map[time.Time]bool)
	for _, e := range s.entries {
		if e.linkedSource == "" {
			continue
		}
		dates := materialized[e.linkedSource]
		if dates == nil {
			dates = make(map[time.Time]bool)
			materialized[e.linkedSource] = dates
		}
		dates[e.instanceDate] = true
	}

	var out []event.CalendarEvent
	for path, e := range s.entries {
		if s.intersects(e.ev, start, end) {
			out = append(out, e.ev)
		}
		if e.desc == nil {
			continue
		}
		out = append(out, s.expandLocked(path, e, materialized[path], start, end)...)
	}

	sort.Slice(out, func(i, j int) bool {
		return eventStart(out[i]).Before(eventStart(out[j]))
	})
	return out
}

// expandLocked synthesizes the virtual instances of one recurring source
// within the window. The anchor occurrence itself is the physical event,
// never duplicated as a virtual instance.
func (s *Store) expandLocked(path string, e *entry, covered map[time.Time]bool, start, end time.Time) []event.CalendarEvent {
	var out []event.CalendarEvent

	var duration time.Duration
	if !e.ev.AllDay && !e.ev.End.IsZero() {
		duration = e.ev.End.Sub(e.ev.Start)
	}
	anchorDate := recur.DateOf(e.desc.Anchor, s.loc)

	it := recur.NewIterator(*e.desc, start, end, s.loc)
	for {
		date, ok := it.Next()
		if !ok {
			return out
		}
		if date.Equal(anchorDate) || covered[date] {
			continue
		}

		instStart := recur.InstanceDateTime(date, e.desc.Anchor, e.ev.AllDay, s.loc)
		inst := event.CalendarEvent{
			ID:           path + "#" + instStart.Format(time.RFC3339),
			Title:        e.ev.Title,
			AllDay:       e.ev.AllDay,
			Virtual:      true,
			SourcePath:   path,
			RecurrenceID: path,
			Skipped:      e.ev.Skipped,
			Categories:   e.ev.Categories,
		}
		if e.ev.AllDay {
			inst.Date = instStart
		} else {
			inst.Start = instStart
			if duration > 0 {
				inst.End = instStart.Add(duration)
			}
		}
		out = append(out, inst)
	}
}

// VisibleInRange applies the default display projection: skipped events
// are dropped, and an optional filter expression is evaluated against
// each event's raw header fields. An expression failure counts as "no
// match" for that event and is logged, never propagated.
func (s *Store) VisibleInRange(start, end time.Time, filter string) []event.CalendarEvent {
	all := s.EventsInRange(start, end)

	out := make([]event.CalendarEvent, 0, len(all))
	for _, ev := range all {
		if ev.Skipped {
			continue
		}
		if filter != "" {
			fields := s.fieldsFor(ev)
			match, err := expr.Eval(filter, fields)
			if err != nil {
				s.logger.Warn("filter expression failed", "filter", filter, "event", ev.ID, "error", err)
				continue
			}
			if !match {
				continue
			}
		}
		out = append(out, ev)
	}
	return out
}

// fieldsFor resolves the raw header fields backing an event; virtual
// instances evaluate against their generating source's fields.
func (s *Store) fieldsFor(ev event.CalendarEvent) map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[ev.SourcePath]; ok {
		return e.raw.Fields
	}
	return nil
}

func (s *Store) intersects(ev event.CalendarEvent, start, end time.Time) bool {
	evStart := eventStart(ev)
	evEnd := ev.End
	if ev.AllDay {
		evEnd = ev.Date.AddDate(0, 0, 1).Add(-time.Nanosecond)
	} else if evEnd.IsZero() {
		evEnd = evStart
	}
	return !evEnd.Before(start) && !evStart.After(end)
}

func eventStart(ev event.CalendarEvent) time.Time {
	if ev.AllDay {
		return ev.Date
	}
	return ev.Start
}

func titleFromPath(relPath string) string {
	base := relPath
	for i := len(base) - 1; i >= 0; i-- {
		if base[i] == '/' {
			base = base[i+1:]
			break
		}
	}
	if len(base) > 3 && base[len(base)-3:] == ".md" {
		base = base[:len(base)-3]
	}
	return base
}
