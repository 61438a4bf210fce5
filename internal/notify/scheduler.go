// Package notify maintains a pending-notification queue derived from
// indexed events and fires due notifications on a fixed cron tick.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"notecal/internal/config"
	"notecal/internal/event"
	"notecal/internal/frontmatter"
	"notecal/internal/notes"
)

// allDayNotifyHour is the local wall-clock hour at which all-day
// reminders fire.
const allDayNotifyHour = 9

// Entry is one pending notification.
type Entry struct {
	EventID  string    `json:"eventId"`
	Path     string    `json:"path"`
	Title    string    `json:"title"`
	NotifyAt time.Time `json:"notifyAt"`
	StartAt  time.Time `json:"startAt"`
	AllDay   bool      `json:"allDay"`
}

// PathResolver maps a vault-relative path to an absolute one.
type PathResolver interface {
	Abs(rel string) string
}

// Scheduler keeps the queue sorted by NotifyAt and pops due entries on
// each tick. Firing is at-most-once: the source note's notified flag is
// written before the presenter is invoked, so a crash can lose a
// notification but never duplicate one.
type Scheduler struct {
	fields     config.FieldMap
	loc        *time.Location
	minBefore  int
	daysBefore int
	presenter  Presenter
	mutator    notes.Mutator
	resolver   PathResolver
	logger     *slog.Logger
	now        func() time.Time

	cron *cron.Cron

	mu    sync.Mutex
	queue []Entry
}

// New creates a scheduler. minutesBefore and daysBefore are the default
// lead times; per-event fields override them.
func New(fields config.FieldMap, loc *time.Location, minutesBefore, daysBefore int, presenter Presenter, mutator notes.Mutator, resolver PathResolver) *Scheduler {
	return &Scheduler{
		fields:     fields,
		loc:        loc,
		minBefore:  minutesBefore,
		daysBefore: daysBefore,
		presenter:  presenter,
		mutator:    mutator,
		resolver:   resolver,
		logger:     slog.Default(),
		now:        time.Now,
	}
}

// Start begins the minute tick. Stop must be called on shutdown.
func (s *Scheduler) Start() error {
	s.cron = cron.New()
	if _, err := s.cron.AddFunc("@every 1m", s.Tick); err != nil {
		return fmt.Errorf("failed to schedule notification tick: %w", err)
	}
	s.cron.Start()
	return nil
}

// Stop halts the tick loop and waits for an in-flight tick to finish.
func (s *Scheduler) Stop() {
	if s.cron == nil {
		return
	}
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.cron = nil
}

// Apply is the ingestor subscriber callback. Any previous entries for
// the path are replaced; files that opted out, already fired, or whose
// notify time has passed contribute nothing.
func (s *Scheduler) Apply(ev event.IndexerEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.removeLocked(ev.Path)
	if ev.Kind != event.FileChanged || ev.Source == nil || ev.Source.Untracked {
		return
	}

	entry, ok := s.deriveEntry(ev.Source)
	if !ok {
		return
	}
	s.insertLocked(entry)
}

// Upcoming returns a snapshot of the pending queue in firing order.
func (s *Scheduler) Upcoming() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Entry, len(s.queue))
	copy(out, s.queue)
	return out
}

// Tick fires every entry whose notify time has arrived. Exported so a
// caller can force a pass outside the cron cadence.
func (s *Scheduler) Tick() {
	now := s.now()

	s.mu.Lock()
	var due []Entry
	for len(s.queue) > 0 && !s.queue[0].NotifyAt.After(now) {
		due = append(due, s.queue[0])
		s.queue = s.queue[1:]
	}
	s.mu.Unlock()

	for _, entry := range due {
		s.fire(entry)
	}
}

func (s *Scheduler) fire(entry Entry) {
	// Mark the note first; re-indexing the mutated file would otherwise
	// re-enqueue the same notification.
	abs := s.resolver.Abs(entry.Path)
	if err := s.mutator.SetField(context.Background(), abs, s.fields.Notified, true); err != nil {
		s.logger.Error("failed to mark note as notified", "path", entry.Path, "error", err)
	}

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("notification presenter panicked", "path", entry.Path, "panic", r)
		}
	}()
	if err := s.presenter.Present(entry.Title, s.message(entry)); err != nil {
		s.logger.Error("failed to present notification", "path", entry.Path, "error", err)
	}
	s.logger.Info("notification fired", "path", entry.Path, "title", entry.Title)
}

func (s *Scheduler) message(entry Entry) string {
	if entry.AllDay {
		return "On " + entry.StartAt.Format("Mon, Jan 2")
	}
	return "Starts at " + entry.StartAt.In(s.loc).Format("15:04")
}

// deriveEntry computes the notify time for a source, or reports that the
// file produces no pending notification.
func (s *Scheduler) deriveEntry(src *event.RawEventSource) (Entry, bool) {
	fields := src.Fields

	if !frontmatter.Bool(fields, s.fields.Notify) {
		return Entry{}, false
	}
	if frontmatter.Bool(fields, s.fields.Notified) {
		return Entry{}, false
	}
	if frontmatter.Bool(fields, s.fields.Skip) {
		return Entry{}, false
	}

	title, ok := frontmatter.String(fields, s.fields.Title)
	if !ok || title == "" {
		title = src.Path
	}

	entry := Entry{
		EventID: src.Path,
		Path:    src.Path,
		Title:   title,
		AllDay:  src.AllDay,
	}

	if src.AllDay {
		date, _, ok := frontmatter.DateTime(fields, s.fields.Date, s.loc)
		if !ok {
			date, _, ok = frontmatter.DateTime(fields, s.fields.Start, s.loc)
			if !ok {
				return Entry{}, false
			}
		}
		days := s.daysBefore
		if n, ok := frontmatter.Int(fields, s.fields.DaysBefore); ok && n >= 0 {
			days = n
		}
		d := date.In(s.loc)
		entry.StartAt = time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, s.loc)
		// Construct 09:00 as wall clock; adding elapsed hours to midnight
		// drifts on DST transition days.
		n := entry.StartAt.AddDate(0, 0, -days)
		entry.NotifyAt = time.Date(n.Year(), n.Month(), n.Day(), allDayNotifyHour, 0, 0, 0, s.loc)
	} else {
		start, _, ok := frontmatter.DateTime(fields, s.fields.Start, s.loc)
		if !ok {
			return Entry{}, false
		}
		minutes := s.minBefore
		if n, ok := frontmatter.Int(fields, s.fields.MinutesBefore); ok && n >= 0 {
			minutes = n
		}
		entry.StartAt = start
		entry.NotifyAt = start.Add(-time.Duration(minutes) * time.Minute)
	}

	// Never fire retroactively for events indexed at or past their lead
	// time.
	if !entry.NotifyAt.After(s.now()) {
		return Entry{}, false
	}
	return entry, true
}

func (s *Scheduler) insertLocked(entry Entry) {
	i := sort.Search(len(s.queue), func(i int) bool {
		return s.queue[i].NotifyAt.After(entry.NotifyAt)
	})
	s.queue = append(s.queue, Entry{})
	copy(s.queue[i+1:], s.queue[i:])
	s.queue[i] = entry
}

func (s *Scheduler) removeLocked(path string) {
	kept := s.queue[:0]
	for _, e := range s.queue {
		if e.Path != path {
			kept = append(kept, e)
		}
	}
	s.queue = kept
}
