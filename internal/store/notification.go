package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/phrazzld/taskflow/internal/domain"
)

// PreferenceStore persists one NotificationPreferences row per user.
type PreferenceStore interface {
	// GetOrCreate returns the user's preferences, inserting defaults first
	// when no row exists. Safe to call concurrently: a lost insert race
	// falls through to the read.
	GetOrCreate(ctx context.Context, defaults domain.NotificationPreferences) (*domain.NotificationPreferences, error)

	// Update replaces all preference fields of an existing row.
	// Returns ErrNotFound if the row does not exist.
	Update(ctx context.Context, prefs *domain.NotificationPreferences) error

	// WithTx returns a PreferenceStore bound to the given transaction.
	WithTx(tx *sqlx.Tx) PreferenceStore
}

// SentQuery selects ledger rows for deduplication: rows for UserID, whose
// task is one of TaskIDs, of Kind, with status sent and a sent time in
// [From, To).
type SentQuery struct {
	UserID  uuid.UUID
	TaskIDs []uuid.UUID
	Kind    domain.LogKind
	From    time.Time
	To      time.Time
}

// NotificationLogStore is the append-only delivery ledger.
type NotificationLogStore interface {
	// Append records one ledger entry.
	Append(ctx context.Context, entry *domain.NotificationLogEntry) error

	// SentTaskIDs returns the distinct task IDs among q.TaskIDs that have a
	// matching sent entry. An empty q.TaskIDs yields an empty result.
	SentTaskIDs(ctx context.Context, q SentQuery) ([]uuid.UUID, error)

	// CountSentSince counts the user's sent entries with a sent time at or after since.
	CountSentSince(ctx context.Context, userID uuid.UUID, since time.Time) (int, error)

	// ListByUser returns the user's ledger entries, newest first, up to limit.
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]domain.NotificationLogEntry, error)

	// WithTx returns a NotificationLogStore bound to the given transaction.
	WithTx(tx *sqlx.Tx) NotificationLogStore
}

// InboxStore persists in-app notifications.
type InboxStore interface {
	// Create saves a new in-app notification.
	Create(ctx context.Context, n *domain.InAppNotification) error

	// List returns the user's notifications, newest first, up to limit.
	// When unreadOnly is set, read notifications are excluded.
	List(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit int) ([]domain.InAppNotification, error)

	// MarkRead flags a notification owned by userID as read. Marking an
	// already read notification succeeds.
	// Returns ErrNotificationNotFound if it does not exist or belongs to another user.
	MarkRead(ctx context.Context, userID, id uuid.UUID) error

	// CountUnread counts the user's unread notifications.
	CountUnread(ctx context.Context, userID uuid.UUID) (int, error)

	// WithTx returns an InboxStore bound to the given transaction.
	WithTx(tx *sqlx.Tx) InboxStore
}
