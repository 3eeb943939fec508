package sqlstore

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/phrazzld/taskflow/internal/domain"
	"github.com/phrazzld/taskflow/internal/platform/logger"
	"github.com/phrazzld/taskflow/internal/store"
)

type logRow struct {
	ID        uuid.UUID    `db:"id"`
	UserID    uuid.UUID    `db:"user_id"`
	TaskID    uuid.UUID    `db:"task_id"`
	Kind      string       `db:"notification_type"`
	Status    string       `db:"status"`
	SentAt    sql.NullTime `db:"sent_at"`
	Error     string       `db:"error_message"`
	CreatedAt time.Time    `db:"created_at"`
}

func (r logRow) toDomain() domain.NotificationLogEntry {
	entry := domain.NotificationLogEntry{
		ID:        r.ID,
		UserID:    r.UserID,
		TaskID:    r.TaskID,
		Kind:      domain.LogKind(r.Kind),
		Status:    domain.DeliveryStatus(r.Status),
		Error:     r.Error,
		CreatedAt: r.CreatedAt.UTC(),
	}
	if r.SentAt.Valid {
		sent := r.SentAt.Time.UTC()
		entry.SentAt = &sent
	}
	return entry
}

// NotificationLogStore implements store.NotificationLogStore.
type NotificationLogStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewNotificationLogStore creates a NotificationLogStore. A nil logger means slog.Default().
func NewNotificationLogStore(db store.DBTX, logger *slog.Logger) *NotificationLogStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &NotificationLogStore{
		db:     db,
		logger: logger.With(slog.String("component", "notification_log_store")),
	}
}

var _ store.NotificationLogStore = (*NotificationLogStore)(nil)

// WithTx implements store.NotificationLogStore.WithTx
func (s *NotificationLogStore) WithTx(tx *sqlx.Tx) store.NotificationLogStore {
	return &NotificationLogStore{db: tx, logger: s.logger}
}

// Append implements store.NotificationLogStore.Append
func (s *NotificationLogStore) Append(ctx context.Context, entry *domain.NotificationLogEntry) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var sentAt sql.NullTime
	if entry.SentAt != nil {
		sentAt = sql.NullTime{Time: entry.SentAt.UTC(), Valid: true}
	}

	query := s.db.Rebind(`
		INSERT INTO notification_log (id, user_id, task_id, notification_type, status, sent_at, error_message, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err := s.db.ExecContext(ctx, query,
		entry.ID,
		entry.UserID,
		entry.TaskID,
		string(entry.Kind),
		string(entry.Status),
		sentAt,
		entry.Error,
		entry.CreatedAt.UTC(),
	)
	if err != nil {
		log.Error("failed to append notification log entry",
			slog.String("error", err.Error()),
			slog.String("user_id", entry.UserID.String()),
			slog.String("task_id", entry.TaskID.String()),
			slog.String("kind", string(entry.Kind)))
		return store.NewStoreError("notification_log", "append", "insert failed", MapError(err))
	}
	return nil
}

// SentTaskIDs implements store.NotificationLogStore.SentTaskIDs
func (s *NotificationLogStore) SentTaskIDs(ctx context.Context, q store.SentQuery) ([]uuid.UUID, error) {
	if len(q.TaskIDs) == 0 {
		return []uuid.UUID{}, nil
	}
	log := logger.FromContextOrDefault(ctx, s.logger)

	query, args, err := sqlx.In(`
		SELECT DISTINCT task_id
		FROM notification_log
		WHERE user_id = ?
			AND task_id IN (?)
			AND notification_type = ?
			AND status = ?
			AND sent_at >= ?
			AND sent_at < ?`,
		q.UserID, q.TaskIDs, string(q.Kind), string(domain.DeliverySent), q.From.UTC(), q.To.UTC())
	if err != nil {
		return nil, store.NewStoreError("notification_log", "sent_task_ids", "build query", err)
	}

	var ids []uuid.UUID
	if err := s.db.SelectContext(ctx, &ids, s.db.Rebind(query), args...); err != nil {
		log.Error("failed to query sent notifications",
			slog.String("error", err.Error()),
			slog.String("user_id", q.UserID.String()),
			slog.String("kind", string(q.Kind)))
		return nil, store.NewStoreError("notification_log", "sent_task_ids", "query failed", MapError(err))
	}
	if ids == nil {
		ids = []uuid.UUID{}
	}
	return ids, nil
}

// CountSentSince implements store.NotificationLogStore.CountSentSince
func (s *NotificationLogStore) CountSentSince(ctx context.Context, userID uuid.UUID, since time.Time) (int, error) {
	var n int
	query := s.db.Rebind(`
		SELECT COUNT(*) FROM notification_log
		WHERE user_id = ? AND status = ? AND sent_at >= ?`)
	if err := s.db.GetContext(ctx, &n, query, userID, string(domain.DeliverySent), since.UTC()); err != nil {
		return 0, store.NewStoreError("notification_log", "count_sent", "query failed", MapError(err))
	}
	return n, nil
}

// ListByUser implements store.NotificationLogStore.ListByUser
func (s *NotificationLogStore) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]domain.NotificationLogEntry, error) {
	var rows []logRow
	query := s.db.Rebind(`
		SELECT id, user_id, task_id, notification_type, status, sent_at, error_message, created_at
		FROM notification_log
		WHERE user_id = ?
		ORDER BY created_at DESC, id
		LIMIT ?`)
	if err := s.db.SelectContext(ctx, &rows, query, userID, limit); err != nil {
		return nil, store.NewStoreError("notification_log", "list", "query failed", MapError(err))
	}

	entries := make([]domain.NotificationLogEntry, 0, len(rows))
	for _, r := range rows {
		entries = append(entries, r.toDomain())
	}
	return entries, nil
}
