package handlers

import (
	"encoding/json"
	"net/http"

	"notecal/internal/contextutil"
	"notecal/internal/notify"
)

// NotificationSource is the read side of the notification scheduler.
type NotificationSource interface {
	Upcoming() []notify.Entry
}

// NotificationsHandler serves the pending notification queue.
type NotificationsHandler struct {
	scheduler NotificationSource
}

// NewNotificationsHandler creates a new NotificationsHandler.
func NewNotificationsHandler(scheduler NotificationSource) *NotificationsHandler {
	return &NotificationsHandler{scheduler: scheduler}
}

// NotificationsResponse is the payload for pending notification queries.
type NotificationsResponse struct {
	Count   int            `json:"count"`
	Pending []notify.Entry `json:"pending"`
}

func (h *NotificationsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodGet {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	pending := h.scheduler.Upcoming()
	response := NotificationsResponse{
		Count:   len(pending),
		Pending: pending,
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		logger.ErrorContext(ctx, "failed to encode notifications response", "error", err)
	}
}
