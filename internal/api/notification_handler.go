package api

import (
	"context"
	"net/http"

	"github.com/phrazzld/taskflow/internal/api/shared"
	"github.com/phrazzld/taskflow/internal/domain"
	"github.com/phrazzld/taskflow/internal/notify"
	"github.com/phrazzld/taskflow/internal/platform/logger"
)

// CycleTrigger forces one notification cycle. *notify.Scheduler
// implements it.
type CycleTrigger interface {
	Trigger(ctx context.Context) notify.CycleReport
}

// NotificationHandler serves the in-app notification, preference and
// manual trigger endpoints.
type NotificationHandler struct {
	inbox   *notify.Inbox
	prefs   *notify.Preferences
	trigger CycleTrigger
}

// NewNotificationHandler creates a NotificationHandler. trigger may be nil,
// in which case the trigger endpoint reports the engine as unavailable.
func NewNotificationHandler(inbox *notify.Inbox, prefs *notify.Preferences, trigger CycleTrigger) *NotificationHandler {
	return &NotificationHandler{
		inbox:   inbox,
		prefs:   prefs,
		trigger: trigger,
	}
}

// ListNotifications handles GET /api/notifications. Only unread items are
// returned unless include_read=true.
func (h *NotificationHandler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	limit, err := queryInt(r, "limit", notify.DefaultListLimit)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	includeRead, err := queryBool(r, "include_read", false)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	items, err := h.inbox.List(r.Context(), userID, notify.ListOptions{
		IncludeRead: includeRead,
		Limit:       limit,
	})
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list notifications")
		return
	}
	stats, err := h.inbox.Stats(r.Context(), userID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to load notification stats")
		return
	}

	resp := NotificationListResponse{Notifications: items, Stats: stats}
	if resp.Notifications == nil {
		resp.Notifications = []domain.InAppNotification{}
	}
	shared.RespondWithJSON(w, r, http.StatusOK, resp)
}

// GetStats handles GET /api/notifications/stats.
func (h *NotificationHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	stats, err := h.inbox.Stats(r.Context(), userID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to load notification stats")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, stats)
}

// MarkRead handles POST /api/notifications/{id}/mark-read.
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := handleUserIDAndPathUUID(w, r, "id")
	if !ok {
		return
	}

	if err := h.inbox.MarkRead(r.Context(), userID, id); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, MessageResponse{Message: "Notification marked as read"})
}

// GetPreferences handles GET /api/notification-preferences.
func (h *NotificationHandler) GetPreferences(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	prefs, err := h.prefs.Get(r.Context(), userID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to load notification preferences")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, preferencesToResponse(prefs))
}

// UpdatePreferences handles PUT and POST /api/notification-preferences.
// Fields missing from the body are reset to their defaults.
func (h *NotificationHandler) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req notify.PreferencesUpdate
	if !decodeAndValidate(w, r, &req) {
		return
	}

	prefs, err := h.prefs.Update(r.Context(), userID, req)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, preferencesToResponse(prefs))
}

// Trigger handles POST /api/notifications/trigger. The cycle runs on the
// request goroutine.
func (h *NotificationHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUserID(w, r); !ok {
		return
	}

	if h.trigger == nil {
		shared.RespondWithJSON(w, r, http.StatusServiceUnavailable, TriggerResponse{
			Success: false,
			Message: "Notification system not available",
		})
		return
	}

	report := h.trigger.Trigger(r.Context())
	logger.FromContext(r.Context()).Info("manual notification cycle finished",
		"users_scanned", report.UsersScanned,
		"emails_sent", report.EmailsSent,
		"user_failures", report.UserFailures)

	shared.RespondWithJSON(w, r, http.StatusOK, TriggerResponse{
		Success: true,
		Message: "Notifications triggered",
		Report:  &report,
	})
}
