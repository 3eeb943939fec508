package notify

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/phrazzld/taskflow/internal/config"
	"github.com/phrazzld/taskflow/internal/domain"
	"github.com/phrazzld/taskflow/internal/platform/logger"
	"github.com/phrazzld/taskflow/internal/redact"
	"github.com/phrazzld/taskflow/internal/store"
	"github.com/robfig/cron/v3"
)

// DefaultScheduleTimes are the daily wall-clock times a cycle runs.
var DefaultScheduleTimes = []string{"08:00", "12:00", "17:00", "20:00"}

// DefaultPollInterval is how often the loop checks for a due schedule.
const DefaultPollInterval = time.Minute

// State is the scheduler's cycle state.
type State int32

const (
	StateIdle State = iota
	StateRunning
)

func (s State) String() string {
	if s == StateRunning {
		return "running"
	}
	return "idle"
}

// Cycle triggers recorded in CycleReport.
const (
	TriggerScheduled = "scheduled"
	TriggerManual    = "manual"
)

// CycleReport summarises one scan over all users.
type CycleReport struct {
	Trigger      string      `json:"trigger"`
	Day          domain.Date `json:"day"`
	StartedAt    time.Time   `json:"started_at"`
	FinishedAt   time.Time   `json:"finished_at"`
	UsersScanned int         `json:"users_scanned"`
	Dispatches   int         `json:"dispatches"`
	EmailsSent   int         `json:"emails_sent"`
	UserFailures int         `json:"user_failures"`
	Error        string      `json:"error,omitempty"`
}

// SchedulerOptions configures NewScheduler. Zero values take the defaults.
type SchedulerOptions struct {
	Times        []string
	Location     *time.Location
	PollInterval time.Duration
	Clock        Clock
	Logger       *slog.Logger
}

// Scheduler runs notification cycles at fixed times of day. It is a
// long-lived service object: Start launches the polling goroutine and
// Stop ends it.
type Scheduler struct {
	users      store.UserStore
	classifier *Classifier
	dispatcher *Dispatcher
	schedules  []cron.Schedule
	loc        *time.Location
	poll       time.Duration
	clock      Clock
	logger     *slog.Logger

	cycleMu sync.Mutex
	state   atomic.Int32

	mu        sync.Mutex
	lastCheck time.Time
	cancel    context.CancelFunc
	done      chan struct{}
}

// NewScheduler creates an idle Scheduler.
func NewScheduler(
	users store.UserStore,
	classifier *Classifier,
	dispatcher *Dispatcher,
	opts SchedulerOptions,
) (*Scheduler, error) {
	if users == nil || classifier == nil || dispatcher == nil {
		return nil, fmt.Errorf("scheduler: users, classifier and dispatcher are required")
	}
	if len(opts.Times) == 0 {
		opts.Times = DefaultScheduleTimes
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.Clock == nil {
		opts.Clock = SystemClock{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	schedules, err := ParseDailyTimes(opts.Times)
	if err != nil {
		return nil, err
	}

	return &Scheduler{
		users:      users,
		classifier: classifier,
		dispatcher: dispatcher,
		schedules:  schedules,
		loc:        opts.Location,
		poll:       opts.PollInterval,
		clock:      opts.Clock,
		logger:     opts.Logger.With(slog.String("component", "scheduler")),
	}, nil
}

// ParseDailyTimes turns "HH:MM" strings into daily cron schedules.
func ParseDailyTimes(times []string) ([]cron.Schedule, error) {
	schedules := make([]cron.Schedule, 0, len(times))
	for _, raw := range times {
		hour, minute, err := config.ParseClock(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidSchedule, err)
		}
		sched, err := cron.ParseStandard(fmt.Sprintf("%d %d * * *", minute, hour))
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %v", ErrInvalidSchedule, raw, err)
		}
		schedules = append(schedules, sched)
	}
	return schedules, nil
}

// State reports whether a cycle is in progress.
func (s *Scheduler) State() State {
	return State(s.state.Load())
}

// Start launches the polling loop. Schedule times that passed before Start
// are not caught up.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return ErrSchedulerRunning
	}

	loopCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	s.lastCheck = s.clock.Now()

	go s.loop(loopCtx, s.done)

	s.logger.Info("notification scheduler started",
		slog.Int("schedules", len(s.schedules)),
		slog.String("timezone", s.loc.String()),
		slog.Duration("poll_interval", s.poll))
	return nil
}

// Stop signals the loop to exit and waits for an in-flight cycle to
// finish. Stop on a stopped scheduler is a no-op.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	s.logger.Info("notification scheduler stopped")
}

func (s *Scheduler) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.poll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Poll(ctx)
		}
	}
}

// Poll runs a scheduled cycle if any schedule time fell between the
// previous poll and now. The first poll of a scheduler that was never
// started only records the current time.
func (s *Scheduler) Poll(ctx context.Context) (CycleReport, bool) {
	now := s.clock.Now()

	s.mu.Lock()
	last := s.lastCheck
	s.lastCheck = now
	s.mu.Unlock()

	if last.IsZero() || !s.due(last, now) {
		return CycleReport{}, false
	}
	return s.RunCycle(ctx, TriggerScheduled), true
}

func (s *Scheduler) due(last, now time.Time) bool {
	from := last.In(s.loc)
	for _, sched := range s.schedules {
		if !sched.Next(from).After(now) {
			return true
		}
	}
	return false
}

// Trigger runs one cycle immediately and waits for it to complete.
func (s *Scheduler) Trigger(ctx context.Context) CycleReport {
	return s.RunCycle(ctx, TriggerManual)
}

// RunCycle scans every user with open dated tasks and dispatches each
// non-empty batch once. Cycles never overlap: a second caller waits for
// the running cycle to finish. A fault for one user is logged and counted
// and the cycle continues.
func (s *Scheduler) RunCycle(ctx context.Context, trigger string) CycleReport {
	s.cycleMu.Lock()
	defer s.cycleMu.Unlock()

	s.state.Store(int32(StateRunning))
	defer s.state.Store(int32(StateIdle))

	log := logger.FromContextOrDefault(ctx, s.logger)
	report := CycleReport{
		Trigger:   trigger,
		Day:       today(s.clock, s.loc),
		StartedAt: s.clock.Now().UTC(),
	}

	log.Info("notification cycle started",
		slog.String("trigger", trigger),
		slog.String("day", report.Day.String()))

	users, err := s.users.ListWithPendingTasks(ctx)
	if err != nil {
		report.Error = redact.Error(err)
		report.FinishedAt = s.clock.Now().UTC()
		log.Error("failed to list users with pending tasks", slog.String("error", report.Error))
		return report
	}

	for _, user := range users {
		if ctx.Err() != nil {
			log.Warn("notification cycle interrupted", slog.String("error", ctx.Err().Error()))
			break
		}
		report.UsersScanned++
		if !s.processUser(ctx, user, report.Day, &report) {
			report.UserFailures++
		}
	}

	report.FinishedAt = s.clock.Now().UTC()
	log.Info("notification cycle completed",
		slog.String("trigger", trigger),
		slog.Int("users", report.UsersScanned),
		slog.Int("dispatches", report.Dispatches),
		slog.Int("emails_sent", report.EmailsSent),
		slog.Int("user_failures", report.UserFailures))
	return report
}

// processUser classifies and dispatches one user's batches. It returns
// false if anything went wrong, including a panic.
func (s *Scheduler) processUser(ctx context.Context, user domain.User, day domain.Date, report *CycleReport) (ok bool) {
	log := logger.FromContextOrDefault(ctx, s.logger).With(slog.String("user_id", user.ID.String()))
	ctx = logger.WithLogger(ctx, log)

	defer func() {
		if r := recover(); r != nil {
			log.Error("panic while processing user notifications", slog.Any("panic", r))
			ok = false
		}
	}()

	sets, err := s.classifier.Classify(ctx, user.ID, day)
	if err != nil {
		log.Error("failed to classify tasks", slog.String("error", redact.Error(err)))
		return false
	}

	ok = true
	for _, kind := range domain.AllKinds {
		batch := sets.ForKind(kind)
		if len(batch) == 0 {
			continue
		}
		report.Dispatches++
		sent, err := s.dispatcher.Dispatch(ctx, user, batch, kind)
		if sent {
			report.EmailsSent++
		}
		if err != nil {
			log.Error("notification dispatch failed",
				slog.String("kind", string(kind)),
				slog.String("error", redact.Error(err)))
			ok = false
		}
	}
	return ok
}
