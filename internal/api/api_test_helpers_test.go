package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/taskflow/internal/api/middleware"
	"github.com/phrazzld/taskflow/internal/config"
	"github.com/phrazzld/taskflow/internal/domain"
	"github.com/phrazzld/taskflow/internal/mocks"
	"github.com/phrazzld/taskflow/internal/notify"
	"github.com/phrazzld/taskflow/internal/service"
	"github.com/phrazzld/taskflow/internal/service/auth"
	"github.com/phrazzld/taskflow/internal/testutils"
	"github.com/stretchr/testify/require"
)

const testJWTSecret = "test-secret-that-is-at-least-32-chars-long"

var (
	testNow   = time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)
	testToday = domain.NewDate(2026, time.March, 10)
)

// testServer is a router over the real handlers, services and
// notification engine, backed by in-memory stores.
type testServer struct {
	t       *testing.T
	stores  *testutils.MemoryStores
	sender  *testutils.RecordingSender
	engine  *notify.Engine
	jwt     auth.JWTService
	router  http.Handler
	trigger CycleTrigger
}

type testServerOption func(*testServer)

// withoutTrigger wires the notification handler without a cycle trigger.
func withoutTrigger() testServerOption {
	return func(s *testServer) { s.trigger = nil }
}

func newTestServer(t *testing.T, opts ...testServerOption) *testServer {
	t.Helper()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	s := &testServer{
		t:      t,
		stores: testutils.NewMemoryStores(),
		sender: testutils.NewRecordingSender(),
	}

	engine, err := notify.NewEngine(notify.Stores{
		Users:       s.stores.Users,
		Tasks:       s.stores.Tasks,
		Preferences: s.stores.Prefs,
		Logs:        s.stores.Logs,
		Inbox:       s.stores.Inbox,
	}, s.sender, config.NotificationConfig{
		Enabled:             true,
		ScheduleTimes:       notify.DefaultScheduleTimes,
		Timezone:            "UTC",
		PollIntervalSeconds: 60,
		DedupPolicy:         notify.PolicyBatch,
	}, testutils.NewFixedClock(testNow), log)
	require.NoError(t, err)
	s.engine = engine
	s.trigger = engine.Scheduler

	for _, opt := range opts {
		opt(s)
	}

	s.jwt, err = auth.NewJWTService(config.AuthConfig{
		JWTSecret:            testJWTSecret,
		TokenLifetimeMinutes: 60,
	})
	require.NoError(t, err)

	users := service.NewUserService(s.stores.Users, &mocks.MockPasswordHasher{}, nil, log)
	tasks, err := service.NewTaskService(service.TaskServiceDeps{
		Tasks:    s.stores.Tasks,
		Users:    s.stores.Users,
		Notifier: engine.Dispatcher,
		Inbox:    engine.Inbox,
		Logger:   log,
	})
	require.NoError(t, err)

	authHandler := NewAuthHandler(users, s.jwt)
	taskHandler := NewTaskHandler(tasks)
	notificationHandler := NewNotificationHandler(engine.Inbox, engine.Preferences, s.trigger)
	authMiddleware := middleware.NewAuthMiddleware(s.jwt)

	r := chi.NewRouter()
	r.Use(middleware.TraceMiddleware(log))
	r.Post("/api/auth/register", authHandler.Register)
	r.Post("/api/auth/login", authHandler.Login)
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware.Authenticate)

		r.Get("/api/tasks", taskHandler.ListTasks)
		r.Post("/api/tasks", taskHandler.CreateTask)
		r.Get("/api/tasks/{id}", taskHandler.GetTask)
		r.Put("/api/tasks/{id}", taskHandler.UpdateTask)
		r.Delete("/api/tasks/{id}", taskHandler.DeleteTask)

		r.Get("/api/notifications", notificationHandler.ListNotifications)
		r.Get("/api/notifications/stats", notificationHandler.GetStats)
		r.Post("/api/notifications/trigger", notificationHandler.Trigger)
		r.Post("/api/notifications/{id}/mark-read", notificationHandler.MarkRead)

		r.Get("/api/notification-preferences", notificationHandler.GetPreferences)
		r.Put("/api/notification-preferences", notificationHandler.UpdatePreferences)
		r.Post("/api/notification-preferences", notificationHandler.UpdatePreferences)
	})
	s.router = r
	return s
}

// addUser creates a user whose password is its username and returns a
// valid access token for it.
func (s *testServer) addUser(username string) (*domain.User, string) {
	s.t.Helper()
	user := s.stores.MustAddUser(s.t, username)
	token, err := s.jwt.GenerateToken(context.Background(), user.ID)
	require.NoError(s.t, err)
	return user, token
}

// do sends body as JSON. A string body is sent verbatim; nil sends none.
func (s *testServer) do(method, path string, body any, token string) *httptest.ResponseRecorder {
	s.t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(s.t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)
	return rr
}

func decodeBody[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), "body: %s", rr.Body.String())
	return v
}

func errorMessage(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	return decodeBody[map[string]any](t, rr)["error"].(string)
}

func taskPath(id uuid.UUID) string {
	return "/api/tasks/" + id.String()
}
