package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskflow/internal/domain"
	"github.com/phrazzld/taskflow/internal/platform/logger"
	"github.com/phrazzld/taskflow/internal/redact"
)

// EmailSender delivers one HTML email. A nil error means the message was
// accepted for delivery.
type EmailSender interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// DispatcherDeps are the collaborators of a Dispatcher. Policy defaults to
// BatchDedup, Clock to SystemClock and Location to UTC.
type DispatcherDeps struct {
	Preferences *Preferences
	Ledger      *Ledger
	Inbox       *Inbox
	Composer    *Composer
	Sender      EmailSender
	Policy      DedupPolicy
	Clock       Clock
	Location    *time.Location
	Logger      *slog.Logger
}

// Dispatcher delivers notifications for one user at a time.
type Dispatcher struct {
	prefs    *Preferences
	ledger   *Ledger
	inbox    *Inbox
	composer *Composer
	sender   EmailSender
	policy   DedupPolicy
	clock    Clock
	loc      *time.Location
	logger   *slog.Logger
}

// NewDispatcher validates deps and creates a Dispatcher.
func NewDispatcher(deps DispatcherDeps) (*Dispatcher, error) {
	switch {
	case deps.Preferences == nil:
		return nil, errors.New("dispatcher: preferences cannot be nil")
	case deps.Ledger == nil:
		return nil, errors.New("dispatcher: ledger cannot be nil")
	case deps.Inbox == nil:
		return nil, errors.New("dispatcher: inbox cannot be nil")
	case deps.Composer == nil:
		return nil, errors.New("dispatcher: composer cannot be nil")
	case deps.Sender == nil:
		return nil, errors.New("dispatcher: email sender cannot be nil")
	}
	if deps.Policy == nil {
		deps.Policy = BatchDedup
	}
	if deps.Clock == nil {
		deps.Clock = SystemClock{}
	}
	if deps.Location == nil {
		deps.Location = time.UTC
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Dispatcher{
		prefs:    deps.Preferences,
		ledger:   deps.Ledger,
		inbox:    deps.Inbox,
		composer: deps.Composer,
		sender:   deps.Sender,
		policy:   deps.Policy,
		clock:    deps.Clock,
		loc:      deps.Location,
		logger:   deps.Logger.With(slog.String("component", "dispatcher")),
	}, nil
}

// Today is the current calendar date in the dispatcher's location.
func (d *Dispatcher) Today() domain.Date {
	return today(d.clock, d.loc)
}

// Dispatch sends one batch of kind to user and reports whether the email
// was accepted.
//
// A batch disabled by the user's preferences, or fully suppressed by the
// dedup policy, returns false with no side effects. Otherwise one ledger
// row is written per task and exactly one in-app notification is created,
// whatever the email outcome. Every write is attempted; write failures are
// joined into the returned error.
func (d *Dispatcher) Dispatch(
	ctx context.Context,
	user domain.User,
	tasks []domain.Task,
	kind domain.NotificationKind,
) (bool, error) {
	log := logger.FromContextOrDefault(ctx, d.logger).With(
		slog.String("user_id", user.ID.String()),
		slog.String("kind", string(kind)))

	if len(tasks) == 0 {
		return false, nil
	}

	allowed, err := d.allowed(ctx, user.ID, kind)
	if err != nil {
		return false, err
	}
	if !allowed {
		log.Debug("notification kind disabled by preferences")
		return false, nil
	}

	pending, err := d.policy(ctx, d.ledger, user.ID, tasks, kind, d.Today())
	if err != nil {
		return false, fmt.Errorf("dedup check: %w", err)
	}
	if len(pending) == 0 {
		log.Debug("batch already sent today", slog.Int("task_count", len(tasks)))
		return false, nil
	}

	content, err := d.composer.Compose(kind, pending, user.Username)
	if err != nil {
		return false, err
	}

	title, message := BatchInAppText(kind, len(pending))
	sent, err := d.deliver(ctx, log, user, pending, content, kind.LogKind(), inAppRecord{
		title:    title,
		message:  message,
		severity: domain.SeverityFor(kind),
	})

	log.Info("batch dispatched",
		slog.Int("task_count", len(pending)),
		slog.Bool("sent", sent))
	return sent, err
}

// NotifyTask runs the immediate path for a single task that was just
// created or rescheduled. It shares the preference gate with Dispatch but
// never consults the ledger. Tasks that do not classify on day are
// ignored.
func (d *Dispatcher) NotifyTask(
	ctx context.Context,
	user domain.User,
	task domain.Task,
	day domain.Date,
) (bool, error) {
	kind, ok := ClassifyTask(task, day)
	if !ok {
		return false, nil
	}

	log := logger.FromContextOrDefault(ctx, d.logger).With(
		slog.String("user_id", user.ID.String()),
		slog.String("task_id", task.ID.String()),
		slog.String("kind", string(kind)))

	allowed, err := d.allowed(ctx, user.ID, kind)
	if err != nil {
		return false, err
	}
	if !allowed {
		log.Debug("immediate notification disabled by preferences")
		return false, nil
	}

	content, err := d.composer.Compose(kind, []domain.Task{task}, user.Username)
	if err != nil {
		return false, err
	}

	title, message := ImmediateInAppText(kind, task.Title)
	taskID := task.ID
	sent, err := d.deliver(ctx, log, user, []domain.Task{task}, content, kind.ImmediateLogKind(), inAppRecord{
		title:    title,
		message:  message,
		severity: domain.SeverityFor(kind),
		taskID:   &taskID,
	})

	log.Info("immediate notification dispatched", slog.Bool("sent", sent))
	return sent, err
}

func (d *Dispatcher) allowed(ctx context.Context, userID uuid.UUID, kind domain.NotificationKind) (bool, error) {
	prefs, err := d.prefs.Get(ctx, userID)
	if err != nil {
		return false, err
	}
	return prefs.Allows(kind), nil
}

type inAppRecord struct {
	title    string
	message  string
	severity domain.Severity
	taskID   *uuid.UUID
}

// deliver sends content, then records the outcome for every task and
// creates the in-app notification.
func (d *Dispatcher) deliver(
	ctx context.Context,
	log *slog.Logger,
	user domain.User,
	tasks []domain.Task,
	content Content,
	logKind domain.LogKind,
	record inAppRecord,
) (bool, error) {
	sent := d.send(ctx, log, user.Email, content)

	status, errMsg := domain.DeliverySent, ""
	if !sent {
		status, errMsg = domain.DeliveryFailed, domain.DeliveryErrorEmailFailed
	}

	var errs []error
	at := d.clock.Now()
	for _, t := range tasks {
		if err := d.ledger.Log(ctx, user.ID, t.ID, logKind, status, errMsg, at); err != nil {
			log.Error("failed to write ledger row",
				slog.String("task_id", t.ID.String()),
				slog.String("error", redact.Error(err)))
			errs = append(errs, err)
		}
	}

	if _, err := d.inbox.Create(ctx, user.ID, record.title, record.message, record.severity, record.taskID); err != nil {
		log.Error("failed to create in-app notification", slog.String("error", redact.Error(err)))
		errs = append(errs, err)
	}

	return sent, errors.Join(errs...)
}

// send invokes the email capability. Errors and panics both count as a
// failed delivery.
func (d *Dispatcher) send(ctx context.Context, log *slog.Logger, to string, content Content) (sent bool) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("email sender panicked",
				slog.String("to", redact.Email(to)),
				slog.Any("panic", r))
			sent = false
		}
	}()

	if err := d.sender.Send(ctx, to, content.Subject, content.Body); err != nil {
		log.Warn("email delivery failed",
			slog.String("to", redact.Email(to)),
			slog.String("error", redact.Error(err)))
		return false
	}
	return true
}
