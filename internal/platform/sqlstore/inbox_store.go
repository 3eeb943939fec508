package sqlstore

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/phrazzld/taskflow/internal/domain"
	"github.com/phrazzld/taskflow/internal/platform/logger"
	"github.com/phrazzld/taskflow/internal/store"
)

type inboxRow struct {
	ID        uuid.UUID     `db:"id"`
	UserID    uuid.UUID     `db:"user_id"`
	Title     string        `db:"title"`
	Message   string        `db:"message"`
	Severity  string        `db:"type"`
	TaskID    uuid.NullUUID `db:"task_id"`
	Read      bool          `db:"is_read"`
	CreatedAt time.Time     `db:"created_at"`
}

func (r inboxRow) toDomain() domain.InAppNotification {
	n := domain.InAppNotification{
		ID:        r.ID,
		UserID:    r.UserID,
		Title:     r.Title,
		Message:   r.Message,
		Severity:  domain.Severity(r.Severity),
		Read:      r.Read,
		CreatedAt: r.CreatedAt.UTC(),
	}
	if r.TaskID.Valid {
		id := r.TaskID.UUID
		n.TaskID = &id
	}
	return n
}

const inboxColumns = `id, user_id, title, message, type, task_id, is_read, created_at`

// InboxStore implements store.InboxStore.
type InboxStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewInboxStore creates an InboxStore. A nil logger means slog.Default().
func NewInboxStore(db store.DBTX, logger *slog.Logger) *InboxStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &InboxStore{
		db:     db,
		logger: logger.With(slog.String("component", "inbox_store")),
	}
}

var _ store.InboxStore = (*InboxStore)(nil)

// WithTx implements store.InboxStore.WithTx
func (s *InboxStore) WithTx(tx *sqlx.Tx) store.InboxStore {
	return &InboxStore{db: tx, logger: s.logger}
}

// Create implements store.InboxStore.Create
func (s *InboxStore) Create(ctx context.Context, n *domain.InAppNotification) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var taskID uuid.NullUUID
	if n.TaskID != nil {
		taskID = uuid.NullUUID{UUID: *n.TaskID, Valid: true}
	}

	query := s.db.Rebind(`
		INSERT INTO in_app_notifications (` + inboxColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err := s.db.ExecContext(ctx, query,
		n.ID,
		n.UserID,
		n.Title,
		n.Message,
		string(n.Severity),
		taskID,
		n.Read,
		n.CreatedAt.UTC(),
	)
	if err != nil {
		log.Error("failed to create in-app notification",
			slog.String("error", err.Error()),
			slog.String("user_id", n.UserID.String()))
		return store.NewStoreError("in_app_notification", "create", "insert failed", MapError(err))
	}
	return nil
}

// List implements store.InboxStore.List
func (s *InboxStore) List(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit int) ([]domain.InAppNotification, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var (
		rows  []inboxRow
		query string
		args  []any
	)
	if unreadOnly {
		query = `SELECT ` + inboxColumns + ` FROM in_app_notifications
			WHERE user_id = ? AND is_read = ?
			ORDER BY created_at DESC, id
			LIMIT ?`
		args = []any{userID, false, limit}
	} else {
		query = `SELECT ` + inboxColumns + ` FROM in_app_notifications
			WHERE user_id = ?
			ORDER BY created_at DESC, id
			LIMIT ?`
		args = []any{userID, limit}
	}

	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
		log.Error("failed to list in-app notifications",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, store.NewStoreError("in_app_notification", "list", "query failed", MapError(err))
	}

	out := make([]domain.InAppNotification, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

// MarkRead implements store.InboxStore.MarkRead. Marking an already-read
// notification succeeds.
func (s *InboxStore) MarkRead(ctx context.Context, userID, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := s.db.Rebind(`UPDATE in_app_notifications SET is_read = ? WHERE id = ? AND user_id = ?`)
	result, err := s.db.ExecContext(ctx, query, true, id, userID)
	if err != nil {
		log.Error("failed to mark notification read",
			slog.String("error", err.Error()),
			slog.String("notification_id", id.String()))
		return MapError(err)
	}
	return CheckRowsAffected(result, store.ErrNotificationNotFound)
}

// CountUnread implements store.InboxStore.CountUnread
func (s *InboxStore) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	var n int
	query := s.db.Rebind(`SELECT COUNT(*) FROM in_app_notifications WHERE user_id = ? AND is_read = ?`)
	if err := s.db.GetContext(ctx, &n, query, userID, false); err != nil {
		return 0, store.NewStoreError("in_app_notification", "count_unread", "query failed", MapError(err))
	}
	return n, nil
}
