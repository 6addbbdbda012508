package api

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mmaliks/tasker-api/internal/domain"
	"github.com/mmaliks/tasker-api/internal/service/auth"
	"github.com/mmaliks/tasker-api/internal/store"
)

// In-memory store fakes shared by the handler tests. They implement only the
// behavior the handlers rely on; WithTx returns the receiver since the fakes
// have no real transactions.

type fakeUserStore struct {
	mu    sync.Mutex
	users map[uuid.UUID]*domain.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[uuid.UUID]*domain.User)}
}

func (s *fakeUserStore) Create(_ context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Email == user.Email {
			return store.ErrEmailExists
		}
	}
	copied := *user
	s.users[user.ID] = &copied
	return nil
}

func (s *fakeUserStore) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	copied := *user
	return &copied, nil
}

func (s *fakeUserStore) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range s.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, store.ErrUserNotFound
}

func (s *fakeUserStore) Update(_ context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[user.ID]; !ok {
		return store.ErrUserNotFound
	}
	copied := *user
	s.users[user.ID] = &copied
	return nil
}

func (s *fakeUserStore) IncrementStrikes(_ context.Context, id uuid.UUID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return 0, store.ErrUserNotFound
	}
	user.TaskStrikes++
	return user.TaskStrikes, nil
}

func (s *fakeUserStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return store.ErrUserNotFound
	}
	delete(s.users, id)
	return nil
}

func (s *fakeUserStore) WithTx(_ *sql.Tx) store.UserStore { return s }

type fakeTaskStore struct {
	mu    sync.Mutex
	tasks map[uuid.UUID]*domain.Task
}

func newFakeTaskStore() *fakeTaskStore {
	return &fakeTaskStore{tasks: make(map[uuid.UUID]*domain.Task)}
}

func (s *fakeTaskStore) Create(_ context.Context, task *domain.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *task
	s.tasks[task.ID] = &copied
	return nil
}

func (s *fakeTaskStore) GetByID(_ context.Context, id uuid.UUID) (*domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	task, ok := s.tasks[id]
	if !ok {
		return nil, store.ErrTaskNotFound
	}
	copied := *task
	return &copied, nil
}

func (s *fakeTaskStore) ListByUser(_ context.Context, userID uuid.UUID) ([]*domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var tasks []*domain.Task
	for _, task := range s.tasks {
		if task.UserID == userID {
			copied := *task
			tasks = append(tasks, &copied)
		}
	}
	sort.Slice(tasks, func(i, j int) bool {
		return tasks[i].CreatedAt.After(tasks[j].CreatedAt)
	})
	return tasks, nil
}

func (s *fakeTaskStore) Update(_ context.Context, task *domain.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.tasks[task.ID]
	if !ok || existing.UserID != task.UserID {
		return store.ErrTaskNotFound
	}
	copied := *task
	s.tasks[task.ID] = &copied
	return nil
}

func (s *fakeTaskStore) Delete(_ context.Context, id, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	task, ok := s.tasks[id]
	if !ok || task.UserID != userID {
		return store.ErrTaskNotFound
	}
	delete(s.tasks, id)
	return nil
}

func (s *fakeTaskStore) DeleteByID(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tasks[id]; !ok {
		return store.ErrTaskNotFound
	}
	delete(s.tasks, id)
	return nil
}

func (s *fakeTaskStore) FindDeadlineCandidates(_ context.Context) ([]*domain.Task, error) {
	return nil, nil
}

func (s *fakeTaskStore) FindCustomCandidates(_ context.Context) ([]*domain.Task, error) {
	return nil, nil
}

func (s *fakeTaskStore) FindOverdue(_ context.Context, _ time.Time) ([]*domain.Task, error) {
	return nil, nil
}

func (s *fakeTaskStore) CountCompleted(_ context.Context, userID uuid.UUID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, task := range s.tasks {
		if task.UserID == userID && task.IsCompleted {
			count++
		}
	}
	return count, nil
}

func (s *fakeTaskStore) CountByDeadlineDate(
	_ context.Context,
	userID uuid.UUID,
	day time.Time,
	completed bool,
) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	y, m, d := day.UTC().Date()
	for _, task := range s.tasks {
		if task.UserID != userID || task.Deadline == nil || task.IsCompleted != completed {
			continue
		}
		ty, tm, td := task.Deadline.UTC().Date()
		if ty == y && tm == m && td == d {
			count++
		}
	}
	return count, nil
}

func (s *fakeTaskStore) NextUpcoming(
	_ context.Context,
	userID uuid.UUID,
	now time.Time,
) (int, *time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	var next *time.Time
	for _, task := range s.tasks {
		if task.UserID != userID || task.IsCompleted || task.Deadline == nil {
			continue
		}
		if task.Deadline.After(now) {
			count++
			if next == nil || task.Deadline.Before(*next) {
				deadline := *task.Deadline
				next = &deadline
			}
		}
	}
	return count, next, nil
}

func (s *fakeTaskStore) DeleteByUser(_ context.Context, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, task := range s.tasks {
		if task.UserID == userID {
			delete(s.tasks, id)
		}
	}
	return nil
}

func (s *fakeTaskStore) WithTx(_ *sql.Tx) store.TaskStore { return s }

type fakeBannedStore struct {
	mu     sync.Mutex
	emails map[string]bool
}

func newFakeBannedStore() *fakeBannedStore {
	return &fakeBannedStore{emails: make(map[string]bool)}
}

func (s *fakeBannedStore) Add(_ context.Context, banned *domain.BannedAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.emails[banned.Email] = true
	return nil
}

func (s *fakeBannedStore) IsBanned(_ context.Context, email string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.emails[email], nil
}

func (s *fakeBannedStore) WithTx(_ *sql.Tx) store.BannedAccountStore { return s }

type fakeFailedTaskStore struct {
	mu     sync.Mutex
	failed map[uuid.UUID]*domain.FailedTask // keyed by original task id
}

func newFakeFailedTaskStore() *fakeFailedTaskStore {
	return &fakeFailedTaskStore{failed: make(map[uuid.UUID]*domain.FailedTask)}
}

func (s *fakeFailedTaskStore) Create(_ context.Context, failed *domain.FailedTask) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.failed[failed.TaskID]; ok {
		return store.ErrTaskAlreadyFailed
	}
	copied := *failed
	s.failed[failed.TaskID] = &copied
	return nil
}

func (s *fakeFailedTaskStore) ExistsForTask(_ context.Context, taskID uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.failed[taskID]
	return ok, nil
}

func (s *fakeFailedTaskStore) ListByUser(_ context.Context, userID uuid.UUID) ([]*domain.FailedTask, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.FailedTask
	for _, failed := range s.failed {
		if failed.UserID == userID {
			copied := *failed
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (s *fakeFailedTaskStore) DeleteByUser(_ context.Context, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, failed := range s.failed {
		if failed.UserID == userID {
			delete(s.failed, id)
		}
	}
	return nil
}

func (s *fakeFailedTaskStore) WithTx(_ *sql.Tx) store.FailedTaskStore { return s }

type fakeNoteStore struct {
	mu    sync.Mutex
	notes map[uuid.UUID]*domain.Note
}

func newFakeNoteStore() *fakeNoteStore {
	return &fakeNoteStore{notes: make(map[uuid.UUID]*domain.Note)}
}

func (s *fakeNoteStore) Create(_ context.Context, note *domain.Note) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *note
	s.notes[note.ID] = &copied
	return nil
}

func (s *fakeNoteStore) GetByID(_ context.Context, id uuid.UUID) (*domain.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	note, ok := s.notes[id]
	if !ok {
		return nil, store.ErrNoteNotFound
	}
	copied := *note
	return &copied, nil
}

func (s *fakeNoteStore) ListByUser(_ context.Context, userID uuid.UUID) ([]*domain.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var notes []*domain.Note
	for _, note := range s.notes {
		if note.UserID == userID {
			copied := *note
			notes = append(notes, &copied)
		}
	}
	sort.Slice(notes, func(i, j int) bool {
		return notes[i].CreatedAt.After(notes[j].CreatedAt)
	})
	return notes, nil
}

func (s *fakeNoteStore) Update(_ context.Context, note *domain.Note) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.notes[note.ID]
	if !ok || existing.UserID != note.UserID {
		return store.ErrNoteNotFound
	}
	copied := *note
	s.notes[note.ID] = &copied
	return nil
}

func (s *fakeNoteStore) Delete(_ context.Context, id, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	note, ok := s.notes[id]
	if !ok || note.UserID != userID {
		return store.ErrNoteNotFound
	}
	delete(s.notes, id)
	return nil
}

func (s *fakeNoteStore) DeleteByUser(_ context.Context, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, note := range s.notes {
		if note.UserID == userID {
			delete(s.notes, id)
		}
	}
	return nil
}

func (s *fakeNoteStore) WithTx(_ *sql.Tx) store.NoteStore { return s }

type unlockKey struct {
	userID        uuid.UUID
	achievementID uuid.UUID
}

type fakeAchievementStore struct {
	mu           sync.Mutex
	achievements []*domain.Achievement
	unlocks      map[unlockKey]time.Time
}

func newFakeAchievementStore(achievements ...*domain.Achievement) *fakeAchievementStore {
	return &fakeAchievementStore{
		achievements: achievements,
		unlocks:      make(map[unlockKey]time.Time),
	}
}

func (s *fakeAchievementStore) ListAll(_ context.Context) ([]*domain.Achievement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*domain.Achievement(nil), s.achievements...), nil
}

func (s *fakeAchievementStore) ListProgress(_ context.Context, userID uuid.UUID) ([]*domain.AchievementProgress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*domain.AchievementProgress, 0, len(s.achievements))
	for _, a := range s.achievements {
		p := &domain.AchievementProgress{
			ID:        a.ID,
			Title:     a.Title,
			SubTitle:  a.SubTitle,
			Condition: a.Condition,
		}
		if at, ok := s.unlocks[unlockKey{userID, a.ID}]; ok {
			p.IsCompleted = true
			achieved := at
			p.AchievedAt = &achieved
		}
		out = append(out, p)
	}
	return out, nil
}

func (s *fakeAchievementStore) Unlock(
	_ context.Context,
	userID, achievementID uuid.UUID,
	at time.Time,
) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := unlockKey{userID, achievementID}
	if _, ok := s.unlocks[key]; ok {
		return false, nil
	}
	s.unlocks[key] = at
	return true, nil
}

func (s *fakeAchievementStore) DeleteByUser(_ context.Context, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key := range s.unlocks {
		if key.userID == userID {
			delete(s.unlocks, key)
		}
	}
	return nil
}

func (s *fakeAchievementStore) WithTx(_ *sql.Tx) store.AchievementStore { return s }

// fakeStrikeChecker records whether a check ran and answers with a canned
// verdict.
type fakeStrikeChecker struct {
	strikes int
	banned  bool
	err     error
	calls   int
}

func (c *fakeStrikeChecker) CheckAndBan(_ context.Context, _ uuid.UUID) (int, bool, error) {
	c.calls++
	return c.strikes, c.banned, c.err
}

// fakeJWTService issues fixed token strings and treats "valid-refresh" as
// the only good refresh token, carrying userID in its claims.
type fakeJWTService struct {
	userID     uuid.UUID
	refreshErr error
}

func (s *fakeJWTService) GenerateToken(_ context.Context, _ uuid.UUID) (string, error) {
	return "test-access-token", nil
}

func (s *fakeJWTService) GenerateRefreshToken(_ context.Context, _ uuid.UUID) (string, error) {
	return "test-refresh-token", nil
}

func (s *fakeJWTService) ValidateToken(_ context.Context, _ string) (*auth.Claims, error) {
	return &auth.Claims{UserID: s.userID}, nil
}

func (s *fakeJWTService) ValidateRefreshToken(_ context.Context, token string) (*auth.Claims, error) {
	if s.refreshErr != nil {
		return nil, s.refreshErr
	}
	if token != "valid-refresh" {
		return nil, auth.ErrInvalidRefreshToken
	}
	return &auth.Claims{UserID: s.userID, TokenType: "refresh"}, nil
}

// fakeHasher sidesteps bcrypt so handler tests stay fast. Compare succeeds
// only when the stored "hash" matches what Hash would have produced.
type fakeHasher struct{}

func (fakeHasher) Hash(password string) (string, error) {
	return "hashed:" + password, nil
}

func (fakeHasher) Compare(hashedPassword, password string) error {
	if hashedPassword != "hashed:"+password {
		return errInvalidPassword
	}
	return nil
}

var errInvalidPassword = errors.New("password mismatch")
