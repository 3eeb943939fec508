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

type preferencesRow struct {
	UserID             uuid.UUID `db:"user_id"`
	EmailEnabled       bool      `db:"email_enabled"`
	DueTodayEnabled    bool      `db:"due_today_enabled"`
	DueTomorrowEnabled bool      `db:"due_tomorrow_enabled"`
	OverdueEnabled     bool      `db:"overdue_enabled"`
	ReminderHours      int       `db:"reminder_hours"`
	CreatedAt          time.Time `db:"created_at"`
	UpdatedAt          time.Time `db:"updated_at"`
}

func (r preferencesRow) toDomain() domain.NotificationPreferences {
	return domain.NotificationPreferences{
		UserID:             r.UserID,
		EmailEnabled:       r.EmailEnabled,
		DueTodayEnabled:    r.DueTodayEnabled,
		DueTomorrowEnabled: r.DueTomorrowEnabled,
		OverdueEnabled:     r.OverdueEnabled,
		ReminderHours:      r.ReminderHours,
		CreatedAt:          r.CreatedAt.UTC(),
		UpdatedAt:          r.UpdatedAt.UTC(),
	}
}

// PreferenceStore implements store.PreferenceStore.
type PreferenceStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPreferenceStore creates a PreferenceStore. A nil logger means slog.Default().
func NewPreferenceStore(db store.DBTX, logger *slog.Logger) *PreferenceStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PreferenceStore{
		db:     db,
		logger: logger.With(slog.String("component", "preference_store")),
	}
}

var _ store.PreferenceStore = (*PreferenceStore)(nil)

// WithTx implements store.PreferenceStore.WithTx
func (s *PreferenceStore) WithTx(tx *sqlx.Tx) store.PreferenceStore {
	return &PreferenceStore{db: tx, logger: s.logger}
}

// GetOrCreate implements store.PreferenceStore.GetOrCreate. The insert is
// a no-op when the row exists, so concurrent first reads converge on a
// single row.
func (s *PreferenceStore) GetOrCreate(
	ctx context.Context,
	defaults domain.NotificationPreferences,
) (*domain.NotificationPreferences, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	insert := s.db.Rebind(`
		INSERT INTO notification_preferences (
			user_id, email_enabled, due_today_enabled, due_tomorrow_enabled,
			overdue_enabled, reminder_hours, created_at, updated_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id) DO NOTHING`)
	_, err := s.db.ExecContext(ctx, insert,
		defaults.UserID,
		defaults.EmailEnabled,
		defaults.DueTodayEnabled,
		defaults.DueTomorrowEnabled,
		defaults.OverdueEnabled,
		defaults.ReminderHours,
		defaults.CreatedAt.UTC(),
		defaults.UpdatedAt.UTC(),
	)
	if err != nil {
		log.Error("failed to ensure notification preferences",
			slog.String("error", err.Error()),
			slog.String("user_id", defaults.UserID.String()))
		return nil, MapError(err)
	}

	var row preferencesRow
	query := s.db.Rebind(`
		SELECT user_id, email_enabled, due_today_enabled, due_tomorrow_enabled,
			overdue_enabled, reminder_hours, created_at, updated_at
		FROM notification_preferences
		WHERE user_id = ?`)
	if err := s.db.GetContext(ctx, &row, query, defaults.UserID); err != nil {
		log.Error("failed to read notification preferences",
			slog.String("error", err.Error()),
			slog.String("user_id", defaults.UserID.String()))
		return nil, MapError(err)
	}

	prefs := row.toDomain()
	return &prefs, nil
}

// Update implements store.PreferenceStore.Update
func (s *PreferenceStore) Update(ctx context.Context, prefs *domain.NotificationPreferences) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := prefs.Validate(); err != nil {
		return err
	}

	query := s.db.Rebind(`
		UPDATE notification_preferences
		SET email_enabled = ?, due_today_enabled = ?, due_tomorrow_enabled = ?,
			overdue_enabled = ?, reminder_hours = ?, updated_at = ?
		WHERE user_id = ?`)
	result, err := s.db.ExecContext(ctx, query,
		prefs.EmailEnabled,
		prefs.DueTodayEnabled,
		prefs.DueTomorrowEnabled,
		prefs.OverdueEnabled,
		prefs.ReminderHours,
		prefs.UpdatedAt.UTC(),
		prefs.UserID,
	)
	if err != nil {
		log.Error("failed to update notification preferences",
			slog.String("error", err.Error()),
			slog.String("user_id", prefs.UserID.String()))
		return MapError(err)
	}
	return CheckRowsAffected(result, store.ErrNotFound)
}
