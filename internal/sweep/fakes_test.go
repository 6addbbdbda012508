package sweep

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mmaliks/tasker-api/internal/domain"
	"github.com/mmaliks/tasker-api/internal/notify"
	"github.com/mmaliks/tasker-api/internal/store"
)

// memState is the shared backing state for the in-memory store fakes. The
// fake transaction runner snapshots and restores it to mimic rollback.
type memState struct {
	mu      sync.Mutex
	users   map[uuid.UUID]*domain.User
	tasks   map[uuid.UUID]*domain.Task
	failed  map[uuid.UUID]*domain.FailedTask // keyed by original task id
	notes   map[uuid.UUID]*domain.Note
	unlocks map[uuid.UUID][]uuid.UUID // user id -> achievement ids
	banned  map[string]bool

	// fault injection
	failNoteDelete     bool
	failListCandidates bool

	// call counters
	listCandidateCalls int
}

func newMemState() *memState {
	return &memState{
		users:   make(map[uuid.UUID]*domain.User),
		tasks:   make(map[uuid.UUID]*domain.Task),
		failed:  make(map[uuid.UUID]*domain.FailedTask),
		notes:   make(map[uuid.UUID]*domain.Note),
		unlocks: make(map[uuid.UUID][]uuid.UUID),
		banned:  make(map[string]bool),
	}
}

func (s *memState) clone() *memState {
	c := newMemState()
	for k, v := range s.users {
		u := *v
		c.users[k] = &u
	}
	for k, v := range s.tasks {
		t := *v
		c.tasks[k] = &t
	}
	for k, v := range s.failed {
		f := *v
		c.failed[k] = &f
	}
	for k, v := range s.notes {
		n := *v
		c.notes[k] = &n
	}
	for k, v := range s.unlocks {
		ids := make([]uuid.UUID, len(v))
		copy(ids, v)
		c.unlocks[k] = ids
	}
	for k, v := range s.banned {
		c.banned[k] = v
	}
	return c
}

func (s *memState) restore(from *memState) {
	s.users = from.users
	s.tasks = from.tasks
	s.failed = from.failed
	s.notes = from.notes
	s.unlocks = from.unlocks
	s.banned = from.banned
}

// memTxRunner mimics transactional semantics by snapshotting the state before
// the function runs and restoring it when the function errors.
type memTxRunner struct {
	state *memState
}

func (r *memTxRunner) RunInTransaction(ctx context.Context, fn store.TxFn) error {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()

	snapshot := r.state.clone()
	if err := fn(ctx, nil); err != nil {
		r.state.restore(snapshot)
		return err
	}
	return nil
}

// fakeTaskStore implements store.TaskStore over memState.
type fakeTaskStore struct {
	state *memState
}

func (f *fakeTaskStore) Create(_ context.Context, task *domain.Task) error {
	t := *task
	f.state.tasks[task.ID] = &t
	return nil
}

func (f *fakeTaskStore) GetByID(_ context.Context, id uuid.UUID) (*domain.Task, error) {
	task, ok := f.state.tasks[id]
	if !ok {
		return nil, store.ErrTaskNotFound
	}
	t := *task
	return &t, nil
}

func (f *fakeTaskStore) ListByUser(_ context.Context, userID uuid.UUID) ([]*domain.Task, error) {
	var out []*domain.Task
	for _, task := range f.state.tasks {
		if task.UserID == userID {
			t := *task
			out = append(out, &t)
		}
	}
	return out, nil
}

func (f *fakeTaskStore) Update(_ context.Context, task *domain.Task) error {
	if _, ok := f.state.tasks[task.ID]; !ok {
		return store.ErrTaskNotFound
	}
	t := *task
	f.state.tasks[task.ID] = &t
	return nil
}

func (f *fakeTaskStore) Delete(_ context.Context, id, userID uuid.UUID) error {
	task, ok := f.state.tasks[id]
	if !ok || task.UserID != userID {
		return store.ErrTaskNotFound
	}
	delete(f.state.tasks, id)
	return nil
}

func (f *fakeTaskStore) DeleteByID(_ context.Context, id uuid.UUID) error {
	if _, ok := f.state.tasks[id]; !ok {
		return store.ErrTaskNotFound
	}
	delete(f.state.tasks, id)
	return nil
}

func (f *fakeTaskStore) FindDeadlineCandidates(_ context.Context) ([]*domain.Task, error) {
	f.state.listCandidateCalls++
	if f.state.failListCandidates {
		return nil, errors.New("simulated candidate listing failure")
	}
	var out []*domain.Task
	for _, task := range f.state.tasks {
		if !task.IsCustom() && task.Deadline != nil && !task.IsCompleted && task.FCMToken != "" {
			t := *task
			out = append(out, &t)
		}
	}
	return out, nil
}

func (f *fakeTaskStore) FindCustomCandidates(_ context.Context) ([]*domain.Task, error) {
	var out []*domain.Task
	for _, task := range f.state.tasks {
		if task.IsCustom() && !task.IsCompleted && task.FCMToken != "" {
			t := *task
			out = append(out, &t)
		}
	}
	return out, nil
}

func (f *fakeTaskStore) FindOverdue(_ context.Context, now time.Time) ([]*domain.Task, error) {
	var out []*domain.Task
	for _, task := range f.state.tasks {
		if !task.IsCustom() && task.Deadline != nil && !task.IsCompleted && task.Deadline.Before(now) {
			t := *task
			out = append(out, &t)
		}
	}
	return out, nil
}

func (f *fakeTaskStore) CountCompleted(_ context.Context, userID uuid.UUID) (int, error) {
	count := 0
	for _, task := range f.state.tasks {
		if task.UserID == userID && task.IsCompleted {
			count++
		}
	}
	return count, nil
}

func (f *fakeTaskStore) CountByDeadlineDate(_ context.Context, userID uuid.UUID, day time.Time, completed bool) (int, error) {
	count := 0
	for _, task := range f.state.tasks {
		if task.UserID == userID && task.Deadline != nil &&
			task.Deadline.Truncate(24*time.Hour).Equal(day.Truncate(24*time.Hour)) &&
			task.IsCompleted == completed {
			count++
		}
	}
	return count, nil
}

func (f *fakeTaskStore) NextUpcoming(_ context.Context, userID uuid.UUID, now time.Time) (int, *time.Time, error) {
	count := 0
	var next *time.Time
	for _, task := range f.state.tasks {
		if task.UserID == userID && !task.IsCompleted && task.Deadline != nil && task.Deadline.After(now) {
			count++
			if next == nil || task.Deadline.Before(*next) {
				d := *task.Deadline
				next = &d
			}
		}
	}
	return count, next, nil
}

func (f *fakeTaskStore) DeleteByUser(_ context.Context, userID uuid.UUID) error {
	for id, task := range f.state.tasks {
		if task.UserID == userID {
			delete(f.state.tasks, id)
		}
	}
	return nil
}

func (f *fakeTaskStore) WithTx(_ *sql.Tx) store.TaskStore { return f }

// fakeUserStore implements store.UserStore over memState.
type fakeUserStore struct {
	state *memState
}

func (f *fakeUserStore) Create(_ context.Context, user *domain.User) error {
	u := *user
	f.state.users[user.ID] = &u
	return nil
}

func (f *fakeUserStore) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	user, ok := f.state.users[id]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	u := *user
	return &u, nil
}

func (f *fakeUserStore) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, user := range f.state.users {
		if user.Email == email {
			u := *user
			return &u, nil
		}
	}
	return nil, store.ErrUserNotFound
}

func (f *fakeUserStore) Update(_ context.Context, user *domain.User) error {
	if _, ok := f.state.users[user.ID]; !ok {
		return store.ErrUserNotFound
	}
	u := *user
	f.state.users[user.ID] = &u
	return nil
}

func (f *fakeUserStore) IncrementStrikes(_ context.Context, id uuid.UUID) (int, error) {
	user, ok := f.state.users[id]
	if !ok {
		return 0, store.ErrUserNotFound
	}
	user.TaskStrikes++
	return user.TaskStrikes, nil
}

func (f *fakeUserStore) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := f.state.users[id]; !ok {
		return store.ErrUserNotFound
	}
	delete(f.state.users, id)
	return nil
}

func (f *fakeUserStore) WithTx(_ *sql.Tx) store.UserStore { return f }

// fakeFailedTaskStore implements store.FailedTaskStore over memState.
type fakeFailedTaskStore struct {
	state *memState
}

func (f *fakeFailedTaskStore) Create(_ context.Context, failed *domain.FailedTask) error {
	if _, ok := f.state.failed[failed.TaskID]; ok {
		return store.ErrTaskAlreadyFailed
	}
	ft := *failed
	f.state.failed[failed.TaskID] = &ft
	return nil
}

func (f *fakeFailedTaskStore) ExistsForTask(_ context.Context, taskID uuid.UUID) (bool, error) {
	_, ok := f.state.failed[taskID]
	return ok, nil
}

func (f *fakeFailedTaskStore) ListByUser(_ context.Context, userID uuid.UUID) ([]*domain.FailedTask, error) {
	var out []*domain.FailedTask
	for _, failed := range f.state.failed {
		if failed.UserID == userID {
			ft := *failed
			out = append(out, &ft)
		}
	}
	return out, nil
}

func (f *fakeFailedTaskStore) DeleteByUser(_ context.Context, userID uuid.UUID) error {
	for id, failed := range f.state.failed {
		if failed.UserID == userID {
			delete(f.state.failed, id)
		}
	}
	return nil
}

func (f *fakeFailedTaskStore) WithTx(_ *sql.Tx) store.FailedTaskStore { return f }

// fakeNoteStore implements store.NoteStore over memState.
type fakeNoteStore struct {
	state *memState
}

func (f *fakeNoteStore) Create(_ context.Context, note *domain.Note) error {
	n := *note
	f.state.notes[note.ID] = &n
	return nil
}

func (f *fakeNoteStore) GetByID(_ context.Context, id uuid.UUID) (*domain.Note, error) {
	note, ok := f.state.notes[id]
	if !ok {
		return nil, store.ErrNoteNotFound
	}
	n := *note
	return &n, nil
}

func (f *fakeNoteStore) ListByUser(_ context.Context, userID uuid.UUID) ([]*domain.Note, error) {
	var out []*domain.Note
	for _, note := range f.state.notes {
		if note.UserID == userID {
			n := *note
			out = append(out, &n)
		}
	}
	return out, nil
}

func (f *fakeNoteStore) Update(_ context.Context, note *domain.Note) error {
	if _, ok := f.state.notes[note.ID]; !ok {
		return store.ErrNoteNotFound
	}
	n := *note
	f.state.notes[note.ID] = &n
	return nil
}

func (f *fakeNoteStore) Delete(_ context.Context, id, userID uuid.UUID) error {
	note, ok := f.state.notes[id]
	if !ok || note.UserID != userID {
		return store.ErrNoteNotFound
	}
	delete(f.state.notes, id)
	return nil
}

func (f *fakeNoteStore) DeleteByUser(_ context.Context, userID uuid.UUID) error {
	if f.state.failNoteDelete {
		return errors.New("simulated note delete failure")
	}
	for id, note := range f.state.notes {
		if note.UserID == userID {
			delete(f.state.notes, id)
		}
	}
	return nil
}

func (f *fakeNoteStore) WithTx(_ *sql.Tx) store.NoteStore { return f }

// fakeAchievementStore implements store.AchievementStore over memState.
type fakeAchievementStore struct {
	state *memState
}

func (f *fakeAchievementStore) ListAll(_ context.Context) ([]*domain.Achievement, error) {
	return nil, nil
}

func (f *fakeAchievementStore) ListProgress(_ context.Context, _ uuid.UUID) ([]*domain.AchievementProgress, error) {
	return nil, nil
}

func (f *fakeAchievementStore) Unlock(_ context.Context, userID, achievementID uuid.UUID, _ time.Time) (bool, error) {
	for _, id := range f.state.unlocks[userID] {
		if id == achievementID {
			return false, nil
		}
	}
	f.state.unlocks[userID] = append(f.state.unlocks[userID], achievementID)
	return true, nil
}

func (f *fakeAchievementStore) DeleteByUser(_ context.Context, userID uuid.UUID) error {
	delete(f.state.unlocks, userID)
	return nil
}

func (f *fakeAchievementStore) WithTx(_ *sql.Tx) store.AchievementStore { return f }

// fakeBannedStore implements store.BannedAccountStore over memState.
type fakeBannedStore struct {
	state *memState
}

func (f *fakeBannedStore) Add(_ context.Context, banned *domain.BannedAccount) error {
	f.state.banned[banned.Email] = true
	return nil
}

func (f *fakeBannedStore) IsBanned(_ context.Context, email string) (bool, error) {
	return f.state.banned[email], nil
}

func (f *fakeBannedStore) WithTx(_ *sql.Tx) store.BannedAccountStore { return f }

// recordingDispatcher captures enqueued notifications.
type recordingDispatcher struct {
	mu       sync.Mutex
	enqueued []recordedNotification
}

type recordedNotification struct {
	target string
	note   notify.Notification
}

func (d *recordingDispatcher) Enqueue(target string, note notify.Notification) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.enqueued = append(d.enqueued, recordedNotification{target: target, note: note})
	return true
}

func (d *recordingDispatcher) byKind(kind notify.Kind) []recordedNotification {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []recordedNotification
	for _, n := range d.enqueued {
		if n.note.Kind == kind {
			out = append(out, n)
		}
	}
	return out
}
