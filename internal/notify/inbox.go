package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskflow/internal/domain"
	"github.com/phrazzld/taskflow/internal/platform/logger"
	"github.com/phrazzld/taskflow/internal/store"
)

const (
	// DefaultListLimit is used when a list request gives no positive limit.
	DefaultListLimit = 10
	// MaxListLimit caps any list request.
	MaxListLimit = 100

	recentSentWindow = 7 * 24 * time.Hour
)

// ListOptions controls Inbox.List. The zero value lists up to
// DefaultListLimit unread notifications.
type ListOptions struct {
	IncludeRead bool
	Limit       int
}

// Stats summarises a user's notification activity.
type Stats struct {
	UnreadCount int `json:"unread_count"`
	// RecentSent counts ledger rows with status sent in the last seven days.
	RecentSent int `json:"recent_sent"`
}

// Inbox manages in-app notifications.
type Inbox struct {
	store  store.InboxStore
	logs   store.NotificationLogStore
	clock  Clock
	logger *slog.Logger
}

// NewInbox creates an Inbox.
func NewInbox(inbox store.InboxStore, logs store.NotificationLogStore, clock Clock, log *slog.Logger) *Inbox {
	if inbox == nil {
		panic("inbox store cannot be nil")
	}
	if logs == nil {
		panic("notification log store cannot be nil")
	}
	if clock == nil {
		clock = SystemClock{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &Inbox{
		store:  inbox,
		logs:   logs,
		clock:  clock,
		logger: log.With(slog.String("component", "inbox")),
	}
}

// NormalizeLimit clamps limit into [1, MaxListLimit], mapping non-positive
// values to DefaultListLimit.
func NormalizeLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultListLimit
	case limit > MaxListLimit:
		return MaxListLimit
	default:
		return limit
	}
}

// Create stores a new unread notification for userID.
func (i *Inbox) Create(
	ctx context.Context,
	userID uuid.UUID,
	title, message string,
	severity domain.Severity,
	taskID *uuid.UUID,
) (*domain.InAppNotification, error) {
	n := domain.NewInAppNotification(userID, title, message, severity, taskID, i.clock.Now())
	if err := i.store.Create(ctx, &n); err != nil {
		return nil, fmt.Errorf("create in-app notification: %w", err)
	}
	return &n, nil
}

// List returns userID's notifications, newest first.
func (i *Inbox) List(ctx context.Context, userID uuid.UUID, opts ListOptions) ([]domain.InAppNotification, error) {
	items, err := i.store.List(ctx, userID, !opts.IncludeRead, NormalizeLimit(opts.Limit))
	if err != nil {
		return nil, fmt.Errorf("list in-app notifications: %w", err)
	}
	return items, nil
}

// MarkRead marks one of userID's notifications read. Notifications of other
// users are reported as not found.
func (i *Inbox) MarkRead(ctx context.Context, userID, id uuid.UUID) error {
	if err := i.store.MarkRead(ctx, userID, id); err != nil {
		logger.FromContextOrDefault(ctx, i.logger).Debug("mark read failed",
			slog.String("notification_id", id.String()),
			slog.String("error", err.Error()))
		return err
	}
	return nil
}

// Stats returns the unread count and the number of recent sends.
func (i *Inbox) Stats(ctx context.Context, userID uuid.UUID) (Stats, error) {
	unread, err := i.store.CountUnread(ctx, userID)
	if err != nil {
		return Stats{}, fmt.Errorf("count unread: %w", err)
	}
	sent, err := i.logs.CountSentSince(ctx, userID, i.clock.Now().Add(-recentSentWindow))
	if err != nil {
		return Stats{}, fmt.Errorf("count recent sends: %w", err)
	}
	return Stats{UnreadCount: unread, RecentSent: sent}, nil
}
