package notify

import (
	"fmt"
	"log/slog"

	"github.com/phrazzld/taskflow/internal/config"
	"github.com/phrazzld/taskflow/internal/store"
)

// Stores groups the persistence the engine reads and writes.
type Stores struct {
	Users       store.UserStore
	Tasks       store.TaskStore
	Preferences store.PreferenceStore
	Logs        store.NotificationLogStore
	Inbox       store.InboxStore
}

// Engine is the assembled notification subsystem.
type Engine struct {
	Preferences *Preferences
	Classifier  *Classifier
	Ledger      *Ledger
	Inbox       *Inbox
	Dispatcher  *Dispatcher
	Scheduler   *Scheduler
}

// NewEngine builds every component from cfg. A nil clock means the system
// clock.
func NewEngine(
	stores Stores,
	sender EmailSender,
	cfg config.NotificationConfig,
	clock Clock,
	log *slog.Logger,
) (*Engine, error) {
	if clock == nil {
		clock = SystemClock{}
	}
	if log == nil {
		log = slog.Default()
	}

	loc, err := cfg.Location()
	if err != nil {
		return nil, fmt.Errorf("notification timezone: %w", err)
	}
	policy, err := PolicyByName(cfg.DedupPolicy)
	if err != nil {
		return nil, err
	}
	composer, err := NewComposer()
	if err != nil {
		return nil, err
	}

	e := &Engine{
		Preferences: NewPreferences(stores.Preferences, clock, log),
		Classifier:  NewClassifier(stores.Tasks),
		Ledger:      NewLedger(stores.Logs, loc),
		Inbox:       NewInbox(stores.Inbox, stores.Logs, clock, log),
	}

	e.Dispatcher, err = NewDispatcher(DispatcherDeps{
		Preferences: e.Preferences,
		Ledger:      e.Ledger,
		Inbox:       e.Inbox,
		Composer:    composer,
		Sender:      sender,
		Policy:      policy,
		Clock:       clock,
		Location:    loc,
		Logger:      log,
	})
	if err != nil {
		return nil, err
	}

	e.Scheduler, err = NewScheduler(stores.Users, e.Classifier, e.Dispatcher, SchedulerOptions{
		Times:        cfg.ScheduleTimes,
		Location:     loc,
		PollInterval: cfg.PollInterval(),
		Clock:        clock,
		Logger:       log,
	})
	if err != nil {
		return nil, err
	}
	return e, nil
}
