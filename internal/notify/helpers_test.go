package notify

import (
	"io"
	"log/slog"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/phrazzld/taskflow/internal/config"
	"github.com/phrazzld/taskflow/internal/domain"
	"github.com/phrazzld/taskflow/internal/testutils"
	"github.com/stretchr/testify/require"
)

var (
	testNow   = time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)
	testToday = domain.NewDate(2026, time.March, 10)
)

type fixture struct {
	stores *testutils.MemoryStores
	sender *testutils.RecordingSender
	clock  *testutils.FixedClock
	engine *Engine
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig() config.NotificationConfig {
	return config.NotificationConfig{
		Enabled:             true,
		ScheduleTimes:       DefaultScheduleTimes,
		Timezone:            "UTC",
		PollIntervalSeconds: 60,
		DedupPolicy:         PolicyBatch,
	}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWithConfig(t, testConfig())
}

func newFixtureWithConfig(t *testing.T, cfg config.NotificationConfig) *fixture {
	t.Helper()

	f := &fixture{
		stores: testutils.NewMemoryStores(),
		sender: testutils.NewRecordingSender(),
		clock:  testutils.NewFixedClock(testNow),
	}
	engine, err := NewEngine(Stores{
		Users:       f.stores.Users,
		Tasks:       f.stores.Tasks,
		Preferences: f.stores.Prefs,
		Logs:        f.stores.Logs,
		Inbox:       f.stores.Inbox,
	}, f.sender, cfg, f.clock, discardLogger())
	require.NoError(t, err)
	f.engine = engine
	return f
}

func datePtr(d domain.Date) *domain.Date {
	return &d
}

func boolPtr(b bool) *bool {
	return &b
}

func intPtr(n int) *int {
	return &n
}
