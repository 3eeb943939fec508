package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// NotificationKind is the due-date category a notification is about.
type NotificationKind string

// Notification kinds, in the order a scheduler cycle processes them.
const (
	KindDueToday    NotificationKind = "due_today"
	KindDueTomorrow NotificationKind = "due_tomorrow"
	KindOverdue     NotificationKind = "overdue"
)

// AllKinds lists every notification kind in processing order.
var AllKinds = []NotificationKind{KindDueToday, KindDueTomorrow, KindOverdue}

// Valid reports whether k is a known kind.
func (k NotificationKind) Valid() bool {
	switch k {
	case KindDueToday, KindDueTomorrow, KindOverdue:
		return true
	default:
		return false
	}
}

// LogKind is the value recorded in the notification ledger. Batch sends
// record the plain kind; the single-task path records an "immediate_"
// prefixed kind so it never collides with batch deduplication.
type LogKind string

// LogKind returns the ledger kind used by batch sends.
func (k NotificationKind) LogKind() LogKind {
	return LogKind(k)
}

// ImmediateLogKind returns the ledger kind used by single-task sends.
func (k NotificationKind) ImmediateLogKind() LogKind {
	return LogKind("immediate_" + string(k))
}

// DeliveryStatus is the outcome recorded for a ledger entry.
type DeliveryStatus string

// Delivery statuses
const (
	DeliverySent    DeliveryStatus = "sent"
	DeliveryFailed  DeliveryStatus = "failed"
	DeliveryPending DeliveryStatus = "pending"
)

// DeliveryErrorEmailFailed is the error label stored when the email
// capability reports failure.
const DeliveryErrorEmailFailed = "Email sending failed"

// Severity is the visual weight of an in-app notification.
type Severity string

// Severities
const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
)

// SeverityFor returns warning for overdue notifications and info otherwise.
func SeverityFor(kind NotificationKind) Severity {
	if kind == KindOverdue {
		return SeverityWarning
	}
	return SeverityInfo
}

// Preference bounds and defaults
const (
	DefaultReminderHours = 24
	MinReminderHours     = 1
	MaxReminderHours     = 168
)

// ErrInvalidReminderHours is returned when reminder hours fall outside 1..168.
var ErrInvalidReminderHours = errors.New("reminder hours must be between 1 and 168")

// NotificationPreferences holds one user's opt-in switches. ReminderHours
// is stored and returned but no delivery path consumes it yet.
type NotificationPreferences struct {
	UserID             uuid.UUID `json:"user_id"`
	EmailEnabled       bool      `json:"email_enabled"`
	DueTodayEnabled    bool      `json:"due_today_enabled"`
	DueTomorrowEnabled bool      `json:"due_tomorrow_enabled"`
	OverdueEnabled     bool      `json:"overdue_enabled"`
	ReminderHours      int       `json:"reminder_hours"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// DefaultPreferences returns the preferences a user starts with: every
// switch on and a 24 hour reminder window.
func DefaultPreferences(userID uuid.UUID) NotificationPreferences {
	now := time.Now().UTC()
	return NotificationPreferences{
		UserID:             userID,
		EmailEnabled:       true,
		DueTodayEnabled:    true,
		DueTomorrowEnabled: true,
		OverdueEnabled:     true,
		ReminderHours:      DefaultReminderHours,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
}

// KindEnabled reports whether the per-kind switch for kind is on.
func (p NotificationPreferences) KindEnabled(kind NotificationKind) bool {
	switch kind {
	case KindDueToday:
		return p.DueTodayEnabled
	case KindDueTomorrow:
		return p.DueTomorrowEnabled
	case KindOverdue:
		return p.OverdueEnabled
	default:
		return false
	}
}

// Allows reports whether an email of the given kind may be sent.
func (p NotificationPreferences) Allows(kind NotificationKind) bool {
	return p.EmailEnabled && p.KindEnabled(kind)
}

// Validate checks the preference values.
func (p NotificationPreferences) Validate() error {
	if p.UserID == uuid.Nil {
		return ErrEmptyUserID
	}
	if p.ReminderHours < MinReminderHours || p.ReminderHours > MaxReminderHours {
		return ErrInvalidReminderHours
	}
	return nil
}

// NotificationLogEntry is one append-only ledger row: a delivery attempt
// of kind for a single task.
type NotificationLogEntry struct {
	ID        uuid.UUID      `json:"id"`
	UserID    uuid.UUID      `json:"user_id"`
	TaskID    uuid.UUID      `json:"task_id"`
	Kind      LogKind        `json:"notification_type"`
	Status    DeliveryStatus `json:"status"`
	SentAt    *time.Time     `json:"sent_at,omitempty"`
	Error     string         `json:"error_message,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// NewLogEntry builds a ledger entry. SentAt is set only for sent entries.
func NewLogEntry(userID, taskID uuid.UUID, kind LogKind, status DeliveryStatus, errMsg string, at time.Time) NotificationLogEntry {
	at = at.UTC()
	entry := NotificationLogEntry{
		ID:        uuid.New(),
		UserID:    userID,
		TaskID:    taskID,
		Kind:      kind,
		Status:    status,
		Error:     errMsg,
		CreatedAt: at,
	}
	if status == DeliverySent {
		entry.SentAt = &at
	}
	return entry
}

// InAppNotification is a message shown in the user's notification list.
type InAppNotification struct {
	ID        uuid.UUID  `json:"id"`
	UserID    uuid.UUID  `json:"user_id"`
	Title     string     `json:"title"`
	Message   string     `json:"message"`
	Severity  Severity   `json:"type"`
	TaskID    *uuid.UUID `json:"task_id,omitempty"`
	Read      bool       `json:"is_read"`
	CreatedAt time.Time  `json:"created_at"`
}

// NewInAppNotification creates an unread notification.
func NewInAppNotification(userID uuid.UUID, title, message string, severity Severity, taskID *uuid.UUID, at time.Time) InAppNotification {
	return InAppNotification{
		ID:        uuid.New(),
		UserID:    userID,
		Title:     title,
		Message:   message,
		Severity:  severity,
		TaskID:    taskID,
		CreatedAt: at.UTC(),
	}
}
