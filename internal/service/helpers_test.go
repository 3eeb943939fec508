package service_test

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/phrazzld/taskflow/internal/config"
	"github.com/phrazzld/taskflow/internal/domain"
	"github.com/phrazzld/taskflow/internal/notify"
	"github.com/phrazzld/taskflow/internal/service"
	"github.com/phrazzld/taskflow/internal/testutils"
	"github.com/stretchr/testify/require"
)

var (
	testNow   = time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)
	testToday = domain.NewDate(2026, time.March, 10)
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// engineFixture wires the task service to a real notification engine over
// in-memory stores.
type engineFixture struct {
	stores *testutils.MemoryStores
	sender *testutils.RecordingSender
	engine *notify.Engine
	tasks  service.TaskService
}

func newEngineFixture(t *testing.T) *engineFixture {
	t.Helper()

	f := &engineFixture{
		stores: testutils.NewMemoryStores(),
		sender: testutils.NewRecordingSender(),
	}
	engine, err := notify.NewEngine(notify.Stores{
		Users:       f.stores.Users,
		Tasks:       f.stores.Tasks,
		Preferences: f.stores.Prefs,
		Logs:        f.stores.Logs,
		Inbox:       f.stores.Inbox,
	}, f.sender, config.NotificationConfig{
		Enabled:             true,
		ScheduleTimes:       notify.DefaultScheduleTimes,
		Timezone:            "UTC",
		PollIntervalSeconds: 60,
		DedupPolicy:         notify.PolicyBatch,
	}, testutils.NewFixedClock(testNow), discardLogger())
	require.NoError(t, err)
	f.engine = engine

	f.tasks, err = service.NewTaskService(service.TaskServiceDeps{
		Tasks:    f.stores.Tasks,
		Users:    f.stores.Users,
		Notifier: engine.Dispatcher,
		Inbox:    engine.Inbox,
		Logger:   discardLogger(),
	})
	require.NoError(t, err)
	return f
}

func datePtr(d domain.Date) *domain.Date { return &d }

func strPtr(s string) *string { return &s }

func boolPtr(b bool) *bool { return &b }
