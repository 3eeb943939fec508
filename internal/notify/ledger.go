package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskflow/internal/domain"
	"github.com/phrazzld/taskflow/internal/store"
)

// Ledger is the append-only record of delivery attempts. Calendar days are
// interpreted in the ledger's location.
type Ledger struct {
	logs store.NotificationLogStore
	loc  *time.Location
}

// NewLedger creates a Ledger over logs. A nil loc means UTC.
func NewLedger(logs store.NotificationLogStore, loc *time.Location) *Ledger {
	if logs == nil {
		panic("notification log store cannot be nil")
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Ledger{logs: logs, loc: loc}
}

// SentTasks returns the subset of taskIDs that already have a sent row of
// kind whose sent_at falls on day.
func (l *Ledger) SentTasks(
	ctx context.Context,
	userID uuid.UUID,
	taskIDs []uuid.UUID,
	kind domain.LogKind,
	day domain.Date,
) ([]uuid.UUID, error) {
	if len(taskIDs) == 0 {
		return nil, nil
	}
	from := day.Start(l.loc)
	ids, err := l.logs.SentTaskIDs(ctx, store.SentQuery{
		UserID:  userID,
		TaskIDs: taskIDs,
		Kind:    kind,
		From:    from,
		To:      day.AddDays(1).Start(l.loc),
	})
	if err != nil {
		return nil, fmt.Errorf("query ledger: %w", err)
	}
	return ids, nil
}

// AlreadySent reports whether any of taskIDs was sent as kind on day.
func (l *Ledger) AlreadySent(
	ctx context.Context,
	userID uuid.UUID,
	taskIDs []uuid.UUID,
	kind domain.LogKind,
	day domain.Date,
) (bool, error) {
	ids, err := l.SentTasks(ctx, userID, taskIDs, kind, day)
	if err != nil {
		return false, err
	}
	return len(ids) > 0, nil
}

// Log appends one attempt. Rows are never updated.
func (l *Ledger) Log(
	ctx context.Context,
	userID, taskID uuid.UUID,
	kind domain.LogKind,
	status domain.DeliveryStatus,
	errMsg string,
	at time.Time,
) error {
	entry := domain.NewLogEntry(userID, taskID, kind, status, errMsg, at)
	if err := l.logs.Append(ctx, &entry); err != nil {
		return fmt.Errorf("append ledger row for task %s: %w", taskID, err)
	}
	return nil
}

// DedupPolicy trims a batch down to the tasks that still need sending on
// day. An empty result means the batch is skipped.
type DedupPolicy func(
	ctx context.Context,
	ledger *Ledger,
	userID uuid.UUID,
	tasks []domain.Task,
	kind domain.NotificationKind,
	day domain.Date,
) ([]domain.Task, error)

// Dedup policy names accepted by PolicyByName.
const (
	PolicyBatch   = "batch"
	PolicyPerTask = "per_task"
)

// BatchDedup skips the whole batch when any of its tasks was already sent
// as kind on day.
func BatchDedup(
	ctx context.Context,
	ledger *Ledger,
	userID uuid.UUID,
	tasks []domain.Task,
	kind domain.NotificationKind,
	day domain.Date,
) ([]domain.Task, error) {
	sent, err := ledger.AlreadySent(ctx, userID, domain.TaskIDs(tasks), kind.LogKind(), day)
	if err != nil {
		return nil, err
	}
	if sent {
		return nil, nil
	}
	return tasks, nil
}

// PerTaskDedup drops only the tasks already sent as kind on day.
func PerTaskDedup(
	ctx context.Context,
	ledger *Ledger,
	userID uuid.UUID,
	tasks []domain.Task,
	kind domain.NotificationKind,
	day domain.Date,
) ([]domain.Task, error) {
	sentIDs, err := ledger.SentTasks(ctx, userID, domain.TaskIDs(tasks), kind.LogKind(), day)
	if err != nil {
		return nil, err
	}
	sent := make(map[uuid.UUID]struct{}, len(sentIDs))
	for _, id := range sentIDs {
		sent[id] = struct{}{}
	}
	remaining := make([]domain.Task, 0, len(tasks))
	for _, t := range tasks {
		if _, ok := sent[t.ID]; !ok {
			remaining = append(remaining, t)
		}
	}
	return remaining, nil
}

// PolicyByName resolves a configured policy name. The empty name selects
// BatchDedup.
func PolicyByName(name string) (DedupPolicy, error) {
	switch name {
	case "", PolicyBatch:
		return BatchDedup, nil
	case PolicyPerTask:
		return PerTaskDedup, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDedupPolicy, name)
	}
}
