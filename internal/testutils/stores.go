package testutils

import (
	"context"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/taskflow/internal/domain"
	"github.com/phrazzld/taskflow/internal/store"
)

// memoryState is the shared backing data of all memory stores.
type memoryState struct {
	mu          sync.Mutex
	users       map[uuid.UUID]domain.User
	tasks       map[uuid.UUID]domain.Task
	prefs       map[uuid.UUID]domain.NotificationPreferences
	prefInserts int
	logs        []domain.NotificationLogEntry
	inbox       []domain.InAppNotification
}

// MemoryStores bundles in-memory implementations of every store interface
// over one shared state.
type MemoryStores struct {
	state *memoryState
	Users *MemoryUserStore
	Tasks *MemoryTaskStore
	Prefs *MemoryPreferenceStore
	Logs  *MemoryLogStore
	Inbox *MemoryInboxStore
}

// NewMemoryStores creates empty in-memory stores.
func NewMemoryStores() *MemoryStores {
	st := &memoryState{
		users: make(map[uuid.UUID]domain.User),
		tasks: make(map[uuid.UUID]domain.Task),
		prefs: make(map[uuid.UUID]domain.NotificationPreferences),
	}
	return &MemoryStores{
		state: st,
		Users: &MemoryUserStore{state: st},
		Tasks: &MemoryTaskStore{state: st, listErrs: make(map[uuid.UUID]error)},
		Prefs: &MemoryPreferenceStore{state: st},
		Logs:  &MemoryLogStore{state: st},
		Inbox: &MemoryInboxStore{state: st},
	}
}

// MustAddUser stores a user named username with a placeholder hash.
func (m *MemoryStores) MustAddUser(t testing.TB, username string) *domain.User {
	t.Helper()
	user, err := domain.NewUser(username, username+"@example.com", "password123")
	require.NoError(t, err)
	user.Password = ""
	user.HashedPassword = "hashed:" + username
	require.NoError(t, m.Users.Create(context.Background(), user))
	return user
}

// MustAddTask stores an incomplete task.
func (m *MemoryStores) MustAddTask(
	t testing.TB,
	userID uuid.UUID,
	title string,
	due *domain.Date,
	priority domain.Priority,
) *domain.Task {
	t.Helper()
	task, err := domain.NewTask(userID, title, "", due, priority)
	require.NoError(t, err)
	require.NoError(t, m.Tasks.Create(context.Background(), task))
	return task
}

// LogEntries returns a user's ledger rows in append order.
func (m *MemoryStores) LogEntries(userID uuid.UUID) []domain.NotificationLogEntry {
	m.state.mu.Lock()
	defer m.state.mu.Unlock()
	var out []domain.NotificationLogEntry
	for _, e := range m.state.logs {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out
}

// LogEntriesOfKind returns a user's ledger rows of one kind.
func (m *MemoryStores) LogEntriesOfKind(userID uuid.UUID, kind domain.LogKind) []domain.NotificationLogEntry {
	var out []domain.NotificationLogEntry
	for _, e := range m.LogEntries(userID) {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

// Notifications returns a user's in-app notifications in creation order.
func (m *MemoryStores) Notifications(userID uuid.UUID) []domain.InAppNotification {
	m.state.mu.Lock()
	defer m.state.mu.Unlock()
	var out []domain.InAppNotification
	for _, n := range m.state.inbox {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out
}

// PreferenceInserts reports how many preference rows have been created.
func (m *MemoryStores) PreferenceInserts() int {
	m.state.mu.Lock()
	defer m.state.mu.Unlock()
	return m.state.prefInserts
}

func copyTask(t domain.Task) domain.Task {
	if t.DueDate != nil {
		d := *t.DueDate
		t.DueDate = &d
	}
	return t
}

// MemoryUserStore implements store.UserStore.
type MemoryUserStore struct {
	state   *memoryState
	listErr error
}

var _ store.UserStore = (*MemoryUserStore)(nil)

// FailList makes ListWithPendingTasks return err.
func (s *MemoryUserStore) FailList(err error) {
	s.state.mu.Lock()
	s.listErr = err
	s.state.mu.Unlock()
}

// Create implements store.UserStore.
func (s *MemoryUserStore) Create(_ context.Context, user *domain.User) error {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()
	for _, u := range s.state.users {
		if strings.EqualFold(u.Email, user.Email) {
			return store.ErrEmailExists
		}
		if u.Username == user.Username {
			return store.ErrUsernameExists
		}
	}
	s.state.users[user.ID] = *user
	return nil
}

// GetByID implements store.UserStore.
func (s *MemoryUserStore) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()
	u, ok := s.state.users[id]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	return &u, nil
}

// GetByEmail implements store.UserStore.
func (s *MemoryUserStore) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	return s.find(func(u domain.User) bool { return strings.EqualFold(u.Email, email) })
}

// GetByUsername implements store.UserStore.
func (s *MemoryUserStore) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	return s.find(func(u domain.User) bool { return u.Username == username })
}

func (s *MemoryUserStore) find(match func(domain.User) bool) (*domain.User, error) {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()
	for _, u := range s.state.users {
		if match(u) {
			return &u, nil
		}
	}
	return nil, store.ErrUserNotFound
}

// ListWithPendingTasks implements store.UserStore.
func (s *MemoryUserStore) ListWithPendingTasks(_ context.Context) ([]domain.User, error) {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}

	pending := make(map[uuid.UUID]bool)
	for _, t := range s.state.tasks {
		if !t.Completed && t.HasDueDate() {
			pending[t.UserID] = true
		}
	}
	var users []domain.User
	for id := range pending {
		if u, ok := s.state.users[id]; ok {
			users = append(users, u)
		}
	}
	slices.SortFunc(users, func(a, b domain.User) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID.String(), b.ID.String())
	})
	return users, nil
}

// WithTx implements store.UserStore.
func (s *MemoryUserStore) WithTx(*sqlx.Tx) store.UserStore { return s }

// MemoryTaskStore implements store.TaskStore.
type MemoryTaskStore struct {
	state    *memoryState
	listErrs map[uuid.UUID]error
}

var _ store.TaskStore = (*MemoryTaskStore)(nil)

// FailListFor makes listing the given user's tasks return err.
func (s *MemoryTaskStore) FailListFor(userID uuid.UUID, err error) {
	s.state.mu.Lock()
	s.listErrs[userID] = err
	s.state.mu.Unlock()
}

// Create implements store.TaskStore.
func (s *MemoryTaskStore) Create(_ context.Context, task *domain.Task) error {
	if err := task.Validate(); err != nil {
		return err
	}
	s.state.mu.Lock()
	defer s.state.mu.Unlock()
	if _, ok := s.state.users[task.UserID]; !ok {
		return store.ErrInvalidEntity
	}
	s.state.tasks[task.ID] = copyTask(*task)
	return nil
}

// GetByID implements store.TaskStore.
func (s *MemoryTaskStore) GetByID(_ context.Context, userID, id uuid.UUID) (*domain.Task, error) {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()
	t, ok := s.state.tasks[id]
	if !ok || t.UserID != userID {
		return nil, store.ErrTaskNotFound
	}
	t = copyTask(t)
	return &t, nil
}

// Update implements store.TaskStore.
func (s *MemoryTaskStore) Update(_ context.Context, task *domain.Task) error {
	if err := task.Validate(); err != nil {
		return err
	}
	s.state.mu.Lock()
	defer s.state.mu.Unlock()
	existing, ok := s.state.tasks[task.ID]
	if !ok || existing.UserID != task.UserID {
		return store.ErrTaskNotFound
	}
	s.state.tasks[task.ID] = copyTask(*task)
	return nil
}

// Delete implements store.TaskStore. Ledger rows of the task go with it
// and in-app notifications lose their task reference.
func (s *MemoryTaskStore) Delete(_ context.Context, userID, id uuid.UUID) error {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()
	t, ok := s.state.tasks[id]
	if !ok || t.UserID != userID {
		return store.ErrTaskNotFound
	}
	delete(s.state.tasks, id)

	s.state.logs = slices.DeleteFunc(s.state.logs, func(e domain.NotificationLogEntry) bool {
		return e.TaskID == id
	})
	for i := range s.state.inbox {
		if ref := s.state.inbox[i].TaskID; ref != nil && *ref == id {
			s.state.inbox[i].TaskID = nil
		}
	}
	return nil
}

// ListByUser implements store.TaskStore.
func (s *MemoryTaskStore) ListByUser(_ context.Context, userID uuid.UUID) ([]domain.Task, error) {
	tasks, err := s.collect(userID, func(domain.Task) bool { return true })
	if err != nil {
		return nil, err
	}
	slices.SortFunc(tasks, func(a, b domain.Task) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID.String(), b.ID.String())
	})
	return tasks, nil
}

// ListOpenWithDueDate implements store.TaskStore.
func (s *MemoryTaskStore) ListOpenWithDueDate(_ context.Context, userID uuid.UUID) ([]domain.Task, error) {
	tasks, err := s.collect(userID, func(t domain.Task) bool { return !t.Completed && t.HasDueDate() })
	if err != nil {
		return nil, err
	}
	slices.SortFunc(tasks, func(a, b domain.Task) int {
		if c := a.DueDate.Compare(*b.DueDate); c != 0 {
			return c
		}
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID.String(), b.ID.String())
	})
	return tasks, nil
}

func (s *MemoryTaskStore) collect(userID uuid.UUID, keep func(domain.Task) bool) ([]domain.Task, error) {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()
	if err := s.listErrs[userID]; err != nil {
		return nil, err
	}
	out := []domain.Task{}
	for _, t := range s.state.tasks {
		if t.UserID == userID && keep(t) {
			out = append(out, copyTask(t))
		}
	}
	return out, nil
}

// WithTx implements store.TaskStore.
func (s *MemoryTaskStore) WithTx(*sqlx.Tx) store.TaskStore { return s }

// MemoryPreferenceStore implements store.PreferenceStore.
type MemoryPreferenceStore struct {
	state  *memoryState
	getErr error
}

var _ store.PreferenceStore = (*MemoryPreferenceStore)(nil)

// FailGet makes GetOrCreate return err.
func (s *MemoryPreferenceStore) FailGet(err error) {
	s.state.mu.Lock()
	s.getErr = err
	s.state.mu.Unlock()
}

// Set stores prefs directly, replacing any existing row.
func (s *MemoryPreferenceStore) Set(prefs domain.NotificationPreferences) {
	s.state.mu.Lock()
	if _, ok := s.state.prefs[prefs.UserID]; !ok {
		s.state.prefInserts++
	}
	s.state.prefs[prefs.UserID] = prefs
	s.state.mu.Unlock()
}

// GetOrCreate implements store.PreferenceStore.
func (s *MemoryPreferenceStore) GetOrCreate(
	_ context.Context,
	defaults domain.NotificationPreferences,
) (*domain.NotificationPreferences, error) {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()
	if s.getErr != nil {
		return nil, s.getErr
	}
	p, ok := s.state.prefs[defaults.UserID]
	if !ok {
		p = defaults
		s.state.prefs[defaults.UserID] = p
		s.state.prefInserts++
	}
	return &p, nil
}

// Update implements store.PreferenceStore.
func (s *MemoryPreferenceStore) Update(_ context.Context, prefs *domain.NotificationPreferences) error {
	if err := prefs.Validate(); err != nil {
		return err
	}
	s.state.mu.Lock()
	defer s.state.mu.Unlock()
	existing, ok := s.state.prefs[prefs.UserID]
	if !ok {
		return store.ErrNotFound
	}
	updated := *prefs
	updated.CreatedAt = existing.CreatedAt
	s.state.prefs[prefs.UserID] = updated
	return nil
}

// WithTx implements store.PreferenceStore.
func (s *MemoryPreferenceStore) WithTx(*sqlx.Tx) store.PreferenceStore { return s }

// MemoryLogStore implements store.NotificationLogStore.
type MemoryLogStore struct {
	state     *memoryState
	appendErr error
	queryErr  error
}

var _ store.NotificationLogStore = (*MemoryLogStore)(nil)

// FailAppend makes Append return err without storing the entry.
func (s *MemoryLogStore) FailAppend(err error) {
	s.state.mu.Lock()
	s.appendErr = err
	s.state.mu.Unlock()
}

// FailQuery makes SentTaskIDs return err.
func (s *MemoryLogStore) FailQuery(err error) {
	s.state.mu.Lock()
	s.queryErr = err
	s.state.mu.Unlock()
}

// Append implements store.NotificationLogStore.
func (s *MemoryLogStore) Append(_ context.Context, entry *domain.NotificationLogEntry) error {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()
	if s.appendErr != nil {
		return s.appendErr
	}
	s.state.logs = append(s.state.logs, *entry)
	return nil
}

// SentTaskIDs implements store.NotificationLogStore.
func (s *MemoryLogStore) SentTaskIDs(_ context.Context, q store.SentQuery) ([]uuid.UUID, error) {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()
	if s.queryErr != nil {
		return nil, s.queryErr
	}

	ids := []uuid.UUID{}
	for _, e := range s.state.logs {
		if e.UserID != q.UserID || e.Kind != q.Kind || e.Status != domain.DeliverySent || e.SentAt == nil {
			continue
		}
		if e.SentAt.Before(q.From) || !e.SentAt.Before(q.To) {
			continue
		}
		if slices.Contains(q.TaskIDs, e.TaskID) && !slices.Contains(ids, e.TaskID) {
			ids = append(ids, e.TaskID)
		}
	}
	return ids, nil
}

// CountSentSince implements store.NotificationLogStore.
func (s *MemoryLogStore) CountSentSince(_ context.Context, userID uuid.UUID, since time.Time) (int, error) {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()
	n := 0
	for _, e := range s.state.logs {
		if e.UserID == userID && e.Status == domain.DeliverySent && e.SentAt != nil && !e.SentAt.Before(since) {
			n++
		}
	}
	return n, nil
}

// ListByUser implements store.NotificationLogStore.
func (s *MemoryLogStore) ListByUser(_ context.Context, userID uuid.UUID, limit int) ([]domain.NotificationLogEntry, error) {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()
	var out []domain.NotificationLogEntry
	for i := len(s.state.logs) - 1; i >= 0 && len(out) < limit; i-- {
		if s.state.logs[i].UserID == userID {
			out = append(out, s.state.logs[i])
		}
	}
	return out, nil
}

// WithTx implements store.NotificationLogStore.
func (s *MemoryLogStore) WithTx(*sqlx.Tx) store.NotificationLogStore { return s }

// MemoryInboxStore implements store.InboxStore.
type MemoryInboxStore struct {
	state     *memoryState
	createErr error
}

var _ store.InboxStore = (*MemoryInboxStore)(nil)

// FailCreate makes Create return err without storing.
func (s *MemoryInboxStore) FailCreate(err error) {
	s.state.mu.Lock()
	s.createErr = err
	s.state.mu.Unlock()
}

// Create implements store.InboxStore.
func (s *MemoryInboxStore) Create(_ context.Context, n *domain.InAppNotification) error {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()
	if s.createErr != nil {
		return s.createErr
	}
	s.state.inbox = append(s.state.inbox, *n)
	return nil
}

// List implements store.InboxStore. Newest first; ties keep the later
// insert first.
func (s *MemoryInboxStore) List(
	_ context.Context,
	userID uuid.UUID,
	unreadOnly bool,
	limit int,
) ([]domain.InAppNotification, error) {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()
	out := []domain.InAppNotification{}
	for i := len(s.state.inbox) - 1; i >= 0; i-- {
		n := s.state.inbox[i]
		if n.UserID != userID || (unreadOnly && n.Read) {
			continue
		}
		out = append(out, n)
	}
	slices.SortStableFunc(out, func(a, b domain.InAppNotification) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// MarkRead implements store.InboxStore.
func (s *MemoryInboxStore) MarkRead(_ context.Context, userID, id uuid.UUID) error {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()
	for i := range s.state.inbox {
		if s.state.inbox[i].ID == id && s.state.inbox[i].UserID == userID {
			s.state.inbox[i].Read = true
			return nil
		}
	}
	return store.ErrNotificationNotFound
}

// CountUnread implements store.InboxStore.
func (s *MemoryInboxStore) CountUnread(_ context.Context, userID uuid.UUID) (int, error) {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()
	n := 0
	for _, x := range s.state.inbox {
		if x.UserID == userID && !x.Read {
			n++
		}
	}
	return n, nil
}

// WithTx implements store.InboxStore.
func (s *MemoryInboxStore) WithTx(*sqlx.Tx) store.InboxStore { return s }
