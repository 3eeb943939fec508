package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/taskflow/internal/domain"
	"github.com/phrazzld/taskflow/internal/platform/logger"
	"github.com/phrazzld/taskflow/internal/store"
)

// PreferencesUpdate carries the fields of a preference update. Nil fields
// are reset to their default value, so every update replaces all five
// settings.
type PreferencesUpdate struct {
	EmailEnabled       *bool `json:"email_enabled"`
	DueTodayEnabled    *bool `json:"due_today_enabled"`
	DueTomorrowEnabled *bool `json:"due_tomorrow_enabled"`
	OverdueEnabled     *bool `json:"overdue_enabled"`
	ReminderHours      *int  `json:"reminder_hours"`
}

// Preferences reads and writes per-user notification switches. A user's
// row is created with defaults the first time it is read.
type Preferences struct {
	store  store.PreferenceStore
	clock  Clock
	logger *slog.Logger
}

// NewPreferences creates a Preferences service.
func NewPreferences(prefs store.PreferenceStore, clock Clock, log *slog.Logger) *Preferences {
	if prefs == nil {
		panic("preference store cannot be nil")
	}
	if clock == nil {
		clock = SystemClock{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &Preferences{
		store:  prefs,
		clock:  clock,
		logger: log.With(slog.String("component", "notification_preferences")),
	}
}

// Get returns userID's preferences, persisting the defaults on first use.
// Calling it repeatedly creates at most one row.
func (p *Preferences) Get(ctx context.Context, userID uuid.UUID) (*domain.NotificationPreferences, error) {
	defaults := p.defaults(userID)
	prefs, err := p.store.GetOrCreate(ctx, defaults)
	if err != nil {
		return nil, fmt.Errorf("load preferences: %w", err)
	}
	return prefs, nil
}

// Update replaces userID's preferences with upd, filling omitted fields
// with defaults. Invalid values yield a domain validation error.
func (p *Preferences) Update(
	ctx context.Context,
	userID uuid.UUID,
	upd PreferencesUpdate,
) (*domain.NotificationPreferences, error) {
	log := logger.FromContextOrDefault(ctx, p.logger)

	current, err := p.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	next := p.defaults(userID)
	next.CreatedAt = current.CreatedAt
	if upd.EmailEnabled != nil {
		next.EmailEnabled = *upd.EmailEnabled
	}
	if upd.DueTodayEnabled != nil {
		next.DueTodayEnabled = *upd.DueTodayEnabled
	}
	if upd.DueTomorrowEnabled != nil {
		next.DueTomorrowEnabled = *upd.DueTomorrowEnabled
	}
	if upd.OverdueEnabled != nil {
		next.OverdueEnabled = *upd.OverdueEnabled
	}
	if upd.ReminderHours != nil {
		next.ReminderHours = *upd.ReminderHours
	}

	if err := next.Validate(); err != nil {
		if errors.Is(err, domain.ErrInvalidReminderHours) {
			return nil, domain.NewValidationError("reminder_hours", "must be between 1 and 168", err)
		}
		return nil, err
	}

	if err := p.store.Update(ctx, &next); err != nil {
		return nil, fmt.Errorf("update preferences: %w", err)
	}

	log.Debug("notification preferences updated",
		slog.String("user_id", userID.String()),
		slog.Bool("email_enabled", next.EmailEnabled))
	return &next, nil
}

func (p *Preferences) defaults(userID uuid.UUID) domain.NotificationPreferences {
	prefs := domain.DefaultPreferences(userID)
	now := p.clock.Now().UTC()
	prefs.CreatedAt = now
	prefs.UpdatedAt = now
	return prefs
}
