package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"coffeeshop/internal/entity"
	"coffeeshop/internal/repository"
	"coffeeshop/internal/utils"

	"github.com/google/uuid"
)

var errStoreDown = errors.New("db down")

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fakeGenerator struct {
	codes []string
	next  int
	err   error
}

func (g *fakeGenerator) Generate() (string, error) {
	if g.err != nil {
		return "", g.err
	}
	if g.next >= len(g.codes) {
		return "999999", nil
	}
	code := g.codes[g.next]
	g.next++
	return code, nil
}

type sentCode struct {
	email string
	code  string
}

type fakeSender struct {
	mu   sync.Mutex
	sent []sentCode
	err  error
}

func (s *fakeSender) SendVerificationCode(_ context.Context, email string, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, sentCode{email: email, code: code})
	return nil
}

func (s *fakeSender) last() sentCode {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.sent) == 0 {
		return sentCode{}
	}
	return s.sent[len(s.sent)-1]
}

// plainHasher keeps tests fast. Never use outside tests.
type plainHasher struct{}

func (plainHasher) Hash(password string) (string, error) {
	return "hashed:" + password, nil
}

func (plainHasher) Verify(hash string, password string) bool {
	return hash == "hashed:"+password
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]entity.User
	clock Clock
	err   error

	// beforeUpdate runs at the start of Update, outside the lock.
	beforeUpdate func()
}

func newFakeUserRepo(clock Clock) *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uuid.UUID]entity.User), clock: clock}
}

func (r *fakeUserRepo) Create(_ context.Context, user *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	for _, existing := range r.users {
		if existing.Email == user.Email {
			return repository.ErrDuplicate
		}
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	if user.Role == "" {
		user.Role = entity.UserRoleUser
	}
	user.CreatedAt = r.clock.Now()
	user.UpdatedAt = user.CreatedAt
	r.users[user.ID] = *user
	return nil
}

func (r *fakeUserRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	user, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	return &user, nil
}

func (r *fakeUserRepo) FindByEmail(_ context.Context, email string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	for _, user := range r.users {
		if user.Email == email {
			u := user
			return &u, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) Update(_ context.Context, userID uuid.UUID, fields map[string]any) error {
	if r.beforeUpdate != nil {
		r.beforeUpdate()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	user, ok := r.users[userID]
	if !ok {
		return nil
	}
	applyUserFields(&user, fields)
	user.UpdatedAt = r.clock.Now()
	r.users[userID] = user
	return nil
}

func applyUserFields(user *entity.User, fields map[string]any) {
	for column, value := range fields {
		switch column {
		case "first_name":
			v := value.(string)
			user.FirstName = &v
		case "last_name":
			v := value.(string)
			user.LastName = &v
		case "password_hash":
			user.PasswordHash = value.(string)
		case "role":
			user.Role = entity.UserRole(value.(string))
		case "is_verified":
			user.IsVerified = value.(bool)
		}
	}
}

func (r *fakeUserRepo) SetVerified(_ context.Context, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	user, ok := r.users[userID]
	if ok {
		user.IsVerified = true
		r.users[userID] = user
	}
	return nil
}

func (r *fakeUserRepo) Delete(_ context.Context, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	delete(r.users, userID)
	return nil
}

func (r *fakeUserRepo) List(_ context.Context, offset, limit int) ([]entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	all := make([]entity.User, 0, len(r.users))
	for _, user := range r.users {
		all = append(all, user)
	}
	sort.Slice(all, func(i, j int) bool { return strings.Compare(all[i].Email, all[j].Email) < 0 })
	if offset >= len(all) {
		return []entity.User{}, nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

func (r *fakeUserRepo) Count(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return 0, r.err
	}
	return int64(len(r.users)), nil
}

func (r *fakeUserRepo) FindUnverifiedBefore(_ context.Context, cutoff time.Time) ([]uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var ids []uuid.UUID
	for id, user := range r.users {
		if !user.IsVerified && user.CreatedAt.Before(cutoff) {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (r *fakeUserRepo) DeleteUnverified(_ context.Context, ids []uuid.UUID, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var deleted int64
	for _, id := range ids {
		user, ok := r.users[id]
		if ok && !user.IsVerified && user.CreatedAt.Before(cutoff) {
			delete(r.users, id)
			deleted++
		}
	}
	return deleted, nil
}

type fakeCodeRepo struct {
	mu    sync.Mutex
	codes map[uuid.UUID]entity.VerificationCode
	err   error
}

func newFakeCodeRepo() *fakeCodeRepo {
	return &fakeCodeRepo{codes: make(map[uuid.UUID]entity.VerificationCode)}
}

func (r *fakeCodeRepo) Upsert(_ context.Context, code *entity.VerificationCode) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	stored := *code
	stored.ConsumedAt = nil
	stored.FailedAttempts = 0
	r.codes[code.UserID] = stored
	return nil
}

func (r *fakeCodeRepo) FindByUserID(_ context.Context, userID uuid.UUID) (*entity.VerificationCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	code, ok := r.codes[userID]
	if !ok {
		return nil, nil
	}
	return &code, nil
}

func (r *fakeCodeRepo) Consume(_ context.Context, code *entity.VerificationCode, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return false, r.err
	}
	stored, ok := r.codes[code.UserID]
	if !ok || stored.ConsumedAt != nil || stored.CodeHash != code.CodeHash || !stored.IssuedAt.Equal(code.IssuedAt) {
		return false, nil
	}
	stored.ConsumedAt = &at
	r.codes[code.UserID] = stored
	return true, nil
}

func (r *fakeCodeRepo) RecordFailure(_ context.Context, code *entity.VerificationCode) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	stored, ok := r.codes[code.UserID]
	if !ok || stored.CodeHash != code.CodeHash || !stored.IssuedAt.Equal(code.IssuedAt) {
		return nil
	}
	stored.FailedAttempts++
	r.codes[code.UserID] = stored
	return nil
}

type fakeSecurityLogRepo struct {
	mu      sync.Mutex
	entries []entity.SecurityLog
	err     error
}

func (r *fakeSecurityLogRepo) Log(_ context.Context, log *entity.SecurityLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	log.ID = uuid.New()
	r.entries = append(r.entries, *log)
	return nil
}

func (r *fakeSecurityLogRepo) ListByUser(_ context.Context, userID uuid.UUID, limit int) ([]entity.SecurityLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	var out []entity.SecurityLog
	for i := len(r.entries) - 1; i >= 0 && len(out) < limit; i-- {
		entry := r.entries[i]
		if entry.UserID != nil && *entry.UserID == userID {
			out = append(out, entry)
		}
	}
	return out, nil
}

func (r *fakeSecurityLogRepo) actions() []entity.SecurityAction {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]entity.SecurityAction, 0, len(r.entries))
	for _, entry := range r.entries {
		out = append(out, entry.Action)
	}
	return out
}

type authFixture struct {
	clock     *fakeClock
	users     *fakeUserRepo
	codes     *fakeCodeRepo
	logs      *fakeSecurityLogRepo
	generator *fakeGenerator
	sender    *fakeSender
	jwt       *utils.JWTManager
	verify    *VerificationService
	auth      *AuthService
	userSvc   *UserService
}

func newAuthFixture(codes ...string) *authFixture {
	clock := newFakeClock()
	f := &authFixture{
		clock:     clock,
		users:     newFakeUserRepo(clock),
		codes:     newFakeCodeRepo(),
		logs:      &fakeSecurityLogRepo{},
		generator: &fakeGenerator{codes: codes},
		sender:    &fakeSender{},
		jwt: &utils.JWTManager{
			Secret: []byte("fixture-secret"),
			Now:    clock.Now,
		},
	}
	f.verify = NewVerificationService(f.codes, f.generator, clock, 0)
	f.auth = NewAuthService(f.users, f.verify, f.logs, f.sender, plainHasher{}, f.jwt, nil)
	f.userSvc = NewUserService(f.users, f.logs, plainHasher{}, nil)
	return f
}

func strPtr(s string) *string {
	return &s
}
