package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"notecal/internal/event"
	"notecal/internal/notify"
)

type stubEvents struct {
	events []event.CalendarEvent

	gotStart, gotEnd time.Time
	gotFilter        string
}

func (s *stubEvents) VisibleInRange(start, end time.Time, filter string) []event.CalendarEvent {
	s.gotStart, s.gotEnd, s.gotFilter = start, end, filter
	return s.events
}

func TestEventsHandler(t *testing.T) {
	stub := &stubEvents{events: []event.CalendarEvent{
		{ID: "Calendar/a.md", Title: "A", Start: time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)},
	}}
	h := NewEventsHandler(stub, time.UTC)

	req := httptest.NewRequest(http.MethodGet, "/api/events?start=2025-03-01&end=2025-03-31&filter=Categories+contains+%22work%22", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var resp EventsResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Count != 1 || len(resp.Events) != 1 || resp.Events[0].Title != "A" {
		t.Errorf("unexpected response: %+v", resp)
	}
	if stub.gotFilter != `Categories contains "work"` {
		t.Errorf("filter = %q", stub.gotFilter)
	}
	if want := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC); !stub.gotStart.Equal(want) {
		t.Errorf("start = %v, want %v", stub.gotStart, want)
	}
	// End day is inclusive.
	if !stub.gotEnd.After(time.Date(2025, 3, 31, 23, 0, 0, 0, time.UTC)) {
		t.Errorf("end = %v, want late on Mar 31", stub.gotEnd)
	}
}

func TestEventsHandlerBadParams(t *testing.T) {
	h := NewEventsHandler(&stubEvents{}, time.UTC)

	for _, tc := range []struct {
		name string
		url  string
	}{
		{"missing start", "/api/events?end=2025-03-31"},
		{"missing end", "/api/events?start=2025-03-01"},
		{"garbage start", "/api/events?start=soon&end=2025-03-31"},
		{"end before start", "/api/events?start=2025-03-31&end=2025-03-01"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tc.url, nil))
			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", w.Code)
			}
		})
	}
}

func TestEventsHandlerMethodNotAllowed(t *testing.T) {
	h := NewEventsHandler(&stubEvents{}, time.UTC)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/events?start=2025-03-01&end=2025-03-31", nil))
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", w.Code)
	}
}

type stubCategories struct {
	names map[string][]string
}

func (s *stubCategories) Categories() []string {
	var out []string
	for name := range s.names {
		out = append(out, name)
	}
	return out
}

func (s *stubCategories) FilesFor(category string) []string { return s.names[category] }

func TestCategoriesHandler(t *testing.T) {
	h := NewCategoriesHandler(&stubCategories{names: map[string][]string{
		"work": {"Calendar/a.md", "Calendar/b.md"},
	}})

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/categories", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var resp CategoriesResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Count != 1 || resp.Categories[0].Name != "work" || len(resp.Categories[0].Files) != 2 {
		t.Errorf("unexpected response: %+v", resp)
	}
}

type stubNotifications struct {
	entries []notify.Entry
}

func (s *stubNotifications) Upcoming() []notify.Entry { return s.entries }

func TestNotificationsHandler(t *testing.T) {
	h := NewNotificationsHandler(&stubNotifications{entries: []notify.Entry{
		{Path: "Calendar/a.md", Title: "A", NotifyAt: time.Date(2025, 3, 10, 8, 50, 0, 0, time.UTC)},
	}})

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/notifications", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var resp NotificationsResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Count != 1 || resp.Pending[0].Title != "A" {
		t.Errorf("unexpected response: %+v", resp)
	}
}

type stubReadiness struct {
	indexed, watching bool
}

func (s *stubReadiness) Indexed() bool  { return s.indexed }
func (s *stubReadiness) Watching() bool { return s.watching }

func TestHealthHandler(t *testing.T) {
	tests := []struct {
		name       string
		indexed    bool
		watching   bool
		wantStatus int
	}{
		{"ready", true, true, http.StatusOK},
		{"scan incomplete", false, true, http.StatusServiceUnavailable},
		{"watcher down", true, false, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthHandler(&stubReadiness{indexed: tt.indexed, watching: tt.watching})
			w := httptest.NewRecorder()
			h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))
			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
		})
	}
}

func noteRouter(root string) http.Handler {
	r := chi.NewRouter()
	r.Get("/api/notes/*", NewNoteHandler(root).ServeHTTP)
	return r
}

func TestNoteHandlerRendersBody(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "Calendar"), 0o755); err != nil {
		t.Fatal(err)
	}
	content := "---\nTitle: Standup\nStart: 2025-03-10T09:00\n---\n# Agenda\n\n- review\n"
	if err := os.WriteFile(filepath.Join(root, "Calendar", "standup.md"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	w := httptest.NewRecorder()
	noteRouter(root).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/notes/Calendar/standup.md", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "<h1 id=\"agenda\">Agenda</h1>") {
		t.Errorf("markdown body not rendered: %s", body)
	}
	// The frontmatter block must not leak into the page.
	if strings.Contains(body, "2025-03-10T09:00") {
		t.Errorf("frontmatter leaked into rendered page")
	}
}

func TestNoteHandlerRejectsTraversal(t *testing.T) {
	root := t.TempDir()
	w := httptest.NewRecorder()
	noteRouter(root).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/notes/..%2F..%2Fetc%2Fpasswd", nil))
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestNoteHandlerNotFound(t *testing.T) {
	root := t.TempDir()
	w := httptest.NewRecorder()
	noteRouter(root).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/notes/Calendar/missing.md", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}
