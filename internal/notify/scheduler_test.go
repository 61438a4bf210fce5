package notify

import (
	"testing"
	"time"

	"go.uber.org/mock/gomock"

	"notecal/internal/config"
	"notecal/internal/event"
	notemocks "notecal/internal/notes/mocks"
	"notecal/internal/notify/mocks"
)

type fakeResolver struct{}

func (fakeResolver) Abs(rel string) string { return "/vault/" + rel }

func newTestScheduler(t *testing.T, presenter Presenter, mutator *notemocks.MockMutator, now time.Time) *Scheduler {
	t.Helper()
	s := New(config.DefaultFieldMap(), time.UTC, 10, 1, presenter, mutator, fakeResolver{})
	s.now = func() time.Time { return now }
	return s
}

func changed(path string, fields map[string]any, allDay bool) event.IndexerEvent {
	return event.IndexerEvent{
		Kind: event.FileChanged,
		Path: path,
		Source: &event.RawEventSource{
			Path:   path,
			Fields: fields,
			AllDay: allDay,
		},
	}
}

func at(t *testing.T, s string) time.Time {
	t.Helper()
	v, err := time.ParseInLocation("2006-01-02T15:04", s, time.UTC)
	if err != nil {
		t.Fatalf("parse %q: %v", s, err)
	}
	return v
}

func TestLeadTimeFromEventField(t *testing.T) {
	ctrl := gomock.NewController(t)
	s := newTestScheduler(t, mocks.NewMockPresenter(ctrl), notemocks.NewMockMutator(ctrl), at(t, "2025-03-10T00:00"))

	s.Apply(changed("Calendar/standup.md", map[string]any{
		"Title":          "Standup",
		"Start":          "2025-03-10T09:00",
		"Notify":         true,
		"Minutes Before": 15,
	}, false))

	queue := s.Upcoming()
	if len(queue) != 1 {
		t.Fatalf("queue length = %d, want 1", len(queue))
	}
	if want := at(t, "2025-03-10T08:45"); !queue[0].NotifyAt.Equal(want) {
		t.Errorf("NotifyAt = %v, want %v", queue[0].NotifyAt, want)
	}
}

func TestDefaultLeadTime(t *testing.T) {
	ctrl := gomock.NewController(t)
	s := newTestScheduler(t, mocks.NewMockPresenter(ctrl), notemocks.NewMockMutator(ctrl), at(t, "2025-03-10T00:00"))

	s.Apply(changed("Calendar/standup.md", map[string]any{
		"Start":  "2025-03-10T09:00",
		"Notify": true,
	}, false))

	queue := s.Upcoming()
	if len(queue) != 1 {
		t.Fatalf("queue length = %d, want 1", len(queue))
	}
	if want := at(t, "2025-03-10T08:50"); !queue[0].NotifyAt.Equal(want) {
		t.Errorf("NotifyAt = %v, want %v", queue[0].NotifyAt, want)
	}
}

func TestAllDayNotifiesMorningBefore(t *testing.T) {
	ctrl := gomock.NewController(t)
	s := newTestScheduler(t, mocks.NewMockPresenter(ctrl), notemocks.NewMockMutator(ctrl), at(t, "2025-03-01T00:00"))

	s.Apply(changed("Calendar/rent.md", map[string]any{
		"Title":  "Rent due",
		"Date":   "2025-03-15",
		"Notify": true,
	}, true))

	queue := s.Upcoming()
	if len(queue) != 1 {
		t.Fatalf("queue length = %d, want 1", len(queue))
	}
	if want := at(t, "2025-03-14T09:00"); !queue[0].NotifyAt.Equal(want) {
		t.Errorf("NotifyAt = %v, want %v", queue[0].NotifyAt, want)
	}
	if !queue[0].AllDay {
		t.Error("entry not flagged all-day")
	}
}

func TestAllDayNotifyHourSurvivesDSTTransition(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}

	ctrl := gomock.NewController(t)
	s := New(config.DefaultFieldMap(), ny, 10, 1, mocks.NewMockPresenter(ctrl), notemocks.NewMockMutator(ctrl), fakeResolver{})
	s.now = func() time.Time { return time.Date(2025, 3, 1, 0, 0, 0, 0, ny) }

	// 2025-03-09 is the spring-forward day; the reminder must still land
	// on the 09:00 wall clock, not 09:00 plus the skipped hour.
	s.Apply(changed("Calendar/rent.md", map[string]any{
		"Title":  "Rent due",
		"Date":   "2025-03-10",
		"Notify": true,
	}, true))

	queue := s.Upcoming()
	if len(queue) != 1 {
		t.Fatalf("queue length = %d, want 1", len(queue))
	}
	want := time.Date(2025, 3, 9, 9, 0, 0, 0, ny)
	if !queue[0].NotifyAt.Equal(want) {
		t.Errorf("NotifyAt = %v, want %v", queue[0].NotifyAt, want)
	}
}

func TestOptOutAndAlreadyNotified(t *testing.T) {
	ctrl := gomock.NewController(t)
	s := newTestScheduler(t, mocks.NewMockPresenter(ctrl), notemocks.NewMockMutator(ctrl), at(t, "2025-03-10T00:00"))

	s.Apply(changed("Calendar/quiet.md", map[string]any{
		"Start": "2025-03-10T09:00",
	}, false))
	s.Apply(changed("Calendar/fired.md", map[string]any{
		"Start":    "2025-03-10T10:00",
		"Notify":   true,
		"Notified": true,
	}, false))
	s.Apply(changed("Calendar/skipped.md", map[string]any{
		"Start":  "2025-03-10T11:00",
		"Notify": true,
		"Skip":   true,
	}, false))

	if queue := s.Upcoming(); len(queue) != 0 {
		t.Errorf("queue = %+v, want empty", queue)
	}
}

func TestNoRetroactiveNotification(t *testing.T) {
	ctrl := gomock.NewController(t)
	s := newTestScheduler(t, mocks.NewMockPresenter(ctrl), notemocks.NewMockMutator(ctrl), at(t, "2025-03-10T12:00"))

	s.Apply(changed("Calendar/past.md", map[string]any{
		"Start":  "2025-03-10T09:00",
		"Notify": true,
	}, false))

	if queue := s.Upcoming(); len(queue) != 0 {
		t.Errorf("queue = %+v, want empty for a past event", queue)
	}
}

func TestNotifyTimeMustBeStrictlyFuture(t *testing.T) {
	ctrl := gomock.NewController(t)
	// Default lead time is 10 minutes, so the notify time equals now
	// exactly; that is not "in the future" and must not schedule.
	s := newTestScheduler(t, mocks.NewMockPresenter(ctrl), notemocks.NewMockMutator(ctrl), at(t, "2025-03-10T08:50"))

	s.Apply(changed("Calendar/edge.md", map[string]any{
		"Start":  "2025-03-10T09:00",
		"Notify": true,
	}, false))

	if queue := s.Upcoming(); len(queue) != 0 {
		t.Errorf("queue = %+v, want empty when notify time equals now", queue)
	}
}

func TestTickMarksNoteBeforePresenting(t *testing.T) {
	ctrl := gomock.NewController(t)
	presenter := mocks.NewMockPresenter(ctrl)
	mutator := notemocks.NewMockMutator(ctrl)
	s := newTestScheduler(t, presenter, mutator, at(t, "2025-03-10T08:00"))

	s.Apply(changed("Calendar/standup.md", map[string]any{
		"Title":          "Standup",
		"Start":          "2025-03-10T09:00",
		"Notify":         true,
		"Minutes Before": 15,
	}, false))

	markCall := mutator.EXPECT().
		SetField(gomock.Any(), "/vault/Calendar/standup.md", "Notified", true).
		Return(nil)
	presenter.EXPECT().
		Present("Standup", "Starts at 09:00").
		Return(nil).
		After(markCall)

	s.now = func() time.Time { return at(t, "2025-03-10T08:45") }
	s.Tick()

	if queue := s.Upcoming(); len(queue) != 0 {
		t.Errorf("queue = %+v, want empty after firing", queue)
	}
}

func TestTickLeavesFutureEntries(t *testing.T) {
	ctrl := gomock.NewController(t)
	presenter := mocks.NewMockPresenter(ctrl)
	mutator := notemocks.NewMockMutator(ctrl)
	s := newTestScheduler(t, presenter, mutator, at(t, "2025-03-10T00:00"))

	s.Apply(changed("Calendar/early.md", map[string]any{
		"Title":  "Early",
		"Start":  "2025-03-10T09:00",
		"Notify": true,
	}, false))
	s.Apply(changed("Calendar/late.md", map[string]any{
		"Title":  "Late",
		"Start":  "2025-03-10T17:00",
		"Notify": true,
	}, false))

	mutator.EXPECT().SetField(gomock.Any(), "/vault/Calendar/early.md", "Notified", true).Return(nil)
	presenter.EXPECT().Present("Early", gomock.Any()).Return(nil)

	s.now = func() time.Time { return at(t, "2025-03-10T08:50") }
	s.Tick()

	queue := s.Upcoming()
	if len(queue) != 1 || queue[0].Title != "Late" {
		t.Fatalf("queue = %+v, want only the later entry", queue)
	}
}

func TestQueueStaysSorted(t *testing.T) {
	ctrl := gomock.NewController(t)
	s := newTestScheduler(t, mocks.NewMockPresenter(ctrl), notemocks.NewMockMutator(ctrl), at(t, "2025-03-10T00:00"))

	for _, tc := range []struct {
		path  string
		start string
	}{
		{"Calendar/c.md", "2025-03-10T15:00"},
		{"Calendar/a.md", "2025-03-10T09:00"},
		{"Calendar/b.md", "2025-03-10T12:00"},
	} {
		s.Apply(changed(tc.path, map[string]any{
			"Start":  tc.start,
			"Notify": true,
		}, false))
	}

	queue := s.Upcoming()
	if len(queue) != 3 {
		t.Fatalf("queue length = %d, want 3", len(queue))
	}
	for i := 1; i < len(queue); i++ {
		if queue[i].NotifyAt.Before(queue[i-1].NotifyAt) {
			t.Fatalf("queue out of order: %+v", queue)
		}
	}
}

func TestDeleteRemovesEntry(t *testing.T) {
	ctrl := gomock.NewController(t)
	s := newTestScheduler(t, mocks.NewMockPresenter(ctrl), notemocks.NewMockMutator(ctrl), at(t, "2025-03-10T00:00"))

	s.Apply(changed("Calendar/a.md", map[string]any{
		"Start":  "2025-03-10T09:00",
		"Notify": true,
	}, false))
	s.Apply(event.IndexerEvent{Kind: event.FileDeleted, Path: "Calendar/a.md"})

	if queue := s.Upcoming(); len(queue) != 0 {
		t.Errorf("queue = %+v, want empty after delete", queue)
	}
}

func TestReapplyReplacesEntry(t *testing.T) {
	ctrl := gomock.NewController(t)
	s := newTestScheduler(t, mocks.NewMockPresenter(ctrl), notemocks.NewMockMutator(ctrl), at(t, "2025-03-10T00:00"))

	s.Apply(changed("Calendar/a.md", map[string]any{
		"Start":  "2025-03-10T09:00",
		"Notify": true,
	}, false))
	s.Apply(changed("Calendar/a.md", map[string]any{
		"Start":  "2025-03-10T11:00",
		"Notify": true,
	}, false))

	queue := s.Upcoming()
	if len(queue) != 1 {
		t.Fatalf("queue length = %d, want 1", len(queue))
	}
	if want := at(t, "2025-03-10T10:50"); !queue[0].NotifyAt.Equal(want) {
		t.Errorf("NotifyAt = %v, want %v", queue[0].NotifyAt, want)
	}
}
