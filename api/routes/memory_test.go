package routes

import (
	"context"
	"sort"
	"sync"
	"time"

	"coffeeshop/internal/entity"
	"coffeeshop/internal/repository"

	"github.com/google/uuid"
)

// memoryStore backs the three repositories in router tests.
type memoryStore struct {
	mu    sync.Mutex
	users map[uuid.UUID]entity.User
	codes map[uuid.UUID]entity.VerificationCode
	logs  []entity.SecurityLog
	seq   int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		users: make(map[uuid.UUID]entity.User),
		codes: make(map[uuid.UUID]entity.VerificationCode),
	}
}

type memoryUsers struct{ s *memoryStore }
type memoryCodes struct{ s *memoryStore }
type memoryLogs struct{ s *memoryStore }

func (r memoryUsers) Create(_ context.Context, user *entity.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Email == user.Email {
			return repository.ErrDuplicate
		}
	}
	r.s.seq++
	user.ID = uuid.New()
	user.CreatedAt = time.Unix(int64(r.s.seq), 0).UTC()
	user.UpdatedAt = user.CreatedAt
	r.s.users[user.ID] = *user
	return nil
}

func (r memoryUsers) FindByID(_ context.Context, id uuid.UUID) (*entity.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (r memoryUsers) FindByEmail(_ context.Context, email string) (*entity.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Email == email {
			found := u
			return &found, nil
		}
	}
	return nil, nil
}

func (r memoryUsers) Update(_ context.Context, id uuid.UUID, fields map[string]any) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil
	}
	for column, value := range fields {
		switch column {
		case "first_name":
			v := value.(string)
			u.FirstName = &v
		case "last_name":
			v := value.(string)
			u.LastName = &v
		case "password_hash":
			u.PasswordHash = value.(string)
		case "role":
			u.Role = entity.UserRole(value.(string))
		}
	}
	r.s.users[id] = u
	return nil
}

func (r memoryUsers) SetVerified(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u := r.s.users[id]
	u.IsVerified = true
	r.s.users[id] = u
	return nil
}

func (r memoryUsers) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.codes, id)
	delete(r.s.users, id)
	return nil
}

func (r memoryUsers) List(_ context.Context, offset, limit int) ([]entity.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	all := make([]entity.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		all = append(all, u)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.Before(all[j].CreatedAt) })
	if offset >= len(all) {
		return []entity.User{}, nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

func (r memoryUsers) Count(_ context.Context) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return int64(len(r.s.users)), nil
}

func (r memoryUsers) FindUnverifiedBefore(context.Context, time.Time) ([]uuid.UUID, error) {
	return nil, nil
}

func (r memoryUsers) DeleteUnverified(context.Context, []uuid.UUID, time.Time) (int64, error) {
	return 0, nil
}

func (r memoryCodes) Upsert(_ context.Context, code *entity.VerificationCode) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored := *code
	stored.ConsumedAt = nil
	stored.FailedAttempts = 0
	r.s.codes[code.UserID] = stored
	return nil
}

func (r memoryCodes) FindByUserID(_ context.Context, userID uuid.UUID) (*entity.VerificationCode, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.codes[userID]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (r memoryCodes) Consume(_ context.Context, code *entity.VerificationCode, at time.Time) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.codes[code.UserID]
	if !ok || c.ConsumedAt != nil || c.CodeHash != code.CodeHash || !c.IssuedAt.Equal(code.IssuedAt) {
		return false, nil
	}
	c.ConsumedAt = &at
	r.s.codes[code.UserID] = c
	return true, nil
}

func (r memoryCodes) RecordFailure(_ context.Context, code *entity.VerificationCode) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.codes[code.UserID]
	if ok && c.CodeHash == code.CodeHash && c.IssuedAt.Equal(code.IssuedAt) {
		c.FailedAttempts++
		r.s.codes[code.UserID] = c
	}
	return nil
}

func (r memoryLogs) Log(_ context.Context, log *entity.SecurityLog) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	log.ID = uuid.New()
	r.s.logs = append(r.s.logs, *log)
	return nil
}

func (r memoryLogs) ListByUser(_ context.Context, userID uuid.UUID, limit int) ([]entity.SecurityLog, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []entity.SecurityLog
	for i := len(r.s.logs) - 1; i >= 0 && len(out) < limit; i-- {
		if l := r.s.logs[i]; l.UserID != nil && *l.UserID == userID {
			out = append(out, l)
		}
	}
	return out, nil
}
