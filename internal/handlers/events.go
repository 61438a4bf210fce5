// Package handlers contains the HTTP handlers for the calendar API.
package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"notecal/internal/contextutil"
	"notecal/internal/event"
)

// EventSource is the read side of the event store used by the API.
type EventSource interface {
	VisibleInRange(start, end time.Time, filter string) []event.CalendarEvent
}

// EventsHandler serves the expanded calendar event list for a window.
type EventsHandler struct {
	store EventSource
	loc   *time.Location
}

// NewEventsHandler creates a new EventsHandler.
func NewEventsHandler(store EventSource, loc *time.Location) *EventsHandler {
	return &EventsHandler{store: store, loc: loc}
}

// EventsResponse is the payload for event window queries.
type EventsResponse struct {
	Start  string                `json:"start"`
	End    string                `json:"end"`
	Count  int                   `json:"count"`
	Events []event.CalendarEvent `json:"events"`
}

// ServeHTTP answers GET requests with the visible events in
// [start, end], optionally narrowed by a filter expression.
func (h *EventsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodGet {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	q := r.URL.Query()
	start, err := parseDayParam(q.Get("start"), h.loc)
	if err != nil {
		http.Error(w, fmt.Sprintf("invalid start: %v", err), http.StatusBadRequest)
		return
	}
	end, err := parseDayParam(q.Get("end"), h.loc)
	if err != nil {
		http.Error(w, fmt.Sprintf("invalid end: %v", err), http.StatusBadRequest)
		return
	}
	if end.Before(start) {
		http.Error(w, "end precedes start", http.StatusBadRequest)
		return
	}
	// Make the end day inclusive.
	end = end.AddDate(0, 0, 1).Add(-time.Nanosecond)

	filter := q.Get("filter")
	events := h.store.VisibleInRange(start, end, filter)

	response := EventsResponse{
		Start:  start.Format("2006-01-02"),
		End:    end.Format("2006-01-02"),
		Count:  len(events),
		Events: events,
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		logger.ErrorContext(ctx, "failed to encode events response", "error", err)
	}
}

// parseDayParam accepts a date ("2006-01-02") or a full RFC 3339
// timestamp, anchored in the configured zone.
func parseDayParam(raw string, loc *time.Location) (time.Time, error) {
	if raw == "" {
		return time.Time{}, fmt.Errorf("missing parameter")
	}
	if t, err := time.ParseInLocation("2006-01-02", raw, loc); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("unrecognized time %q", raw)
	}
	return t.In(loc), nil
}
