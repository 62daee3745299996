package credentials

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/jobhub/internal/common"
	"github.com/dmitrijs2005/jobhub/internal/cryptox"
	"github.com/dmitrijs2005/jobhub/internal/dbx"
	"github.com/dmitrijs2005/jobhub/internal/logging"
	"github.com/dmitrijs2005/jobhub/internal/server/config"
	"github.com/dmitrijs2005/jobhub/internal/server/models"
	"github.com/dmitrijs2005/jobhub/internal/server/repositories/sessions"
	"github.com/dmitrijs2005/jobhub/internal/server/repositories/users"
)

// --- fakes ---

type fakeUsers struct {
	mu      sync.Mutex
	byEmail map[string]*models.User
	creates int

	getErr    error
	createErr error
}

func (f *fakeUsers) Create(_ context.Context, u *models.User) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates++
	if f.createErr != nil {
		return nil, f.createErr
	}
	if _, ok := f.byEmail[u.Email]; ok {
		return nil, common.ErrorAlreadyExists
	}
	cp := *u
	cp.CreatedAt = time.Now()
	f.byEmail[u.Email] = &cp
	return &cp, nil
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.byEmail[email]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return u, nil
}

type fakeSessions struct {
	mu        sync.Mutex
	rows      []*models.Session
	createErr error
	finds     int
}

func (f *fakeSessions) Create(_ context.Context, s *models.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	f.rows = append(f.rows, s)
	return nil
}

func (f *fakeSessions) FindActive(_ context.Context, userID, tokenHash string, now time.Time) (*models.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.finds++
	for _, s := range f.rows {
		if s.UserID == userID && s.TokenHash == tokenHash && now.Before(s.ExpiresAt) {
			return s, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeSessions) DeleteExpired(_ context.Context, before time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var kept []*models.Session
	var n int64
	for _, s := range f.rows {
		if !s.ExpiresAt.After(before) {
			n++
			continue
		}
		kept = append(kept, s)
	}
	f.rows = kept
	return n, nil
}

type fakeRepoManager struct {
	users    *fakeUsers
	sessions *fakeSessions
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Users(dbx.DBTX) users.Repository             { return m.users }
func (m *fakeRepoManager) Sessions(dbx.DBTX) sessions.Repository       { return m.sessions }

// --- helpers ---

func newTestService(t *testing.T) (*Service, *fakeRepoManager, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	rm := &fakeRepoManager{
		users:    &fakeUsers{byEmail: map[string]*models.User{}},
		sessions: &fakeSessions{},
	}
	cfg := &config.Config{
		SecretKey:               "k",
		TokenValidityDuration:   time.Hour,
		SessionValidityDuration: 24 * time.Hour,
		PasswordHashCost:        4,
	}
	return NewService(db, rm, cfg, logging.Nop{}), rm, mock
}

func expectTx(mock sqlmock.Sqlmock, commit bool) {
	mock.ExpectBegin()
	if commit {
		mock.ExpectCommit()
	} else {
		mock.ExpectRollback()
	}
}

// --- tests ---

func TestRegisterLoginVerify_Roundtrip(t *testing.T) {
	svc, rm, mock := newTestService(t)
	ctx := context.Background()

	expectTx(mock, true)
	reg, err := svc.Register(ctx, "ann@example.com", "s3cret", "Ann", "Lee")
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())

	assert.NotEmpty(t, reg.Token)
	assert.Equal(t, "ann@example.com", reg.User.Email)
	assert.Equal(t, "Ann", reg.User.FirstName)
	assert.NotEmpty(t, reg.User.ID)

	stored := rm.users.byEmail["ann@example.com"]
	require.NotNil(t, stored)
	assert.NotEqual(t, "s3cret", stored.PasswordHash)
	assert.True(t, cryptox.CheckPassword(stored.PasswordHash, "s3cret"))

	login, err := svc.Login(ctx, "ann@example.com", "s3cret")
	require.NoError(t, err)

	claims := svc.VerifyToken(login.Token)
	require.NotNil(t, claims)
	assert.Equal(t, reg.User.ID, claims.UserID)
	assert.Equal(t, "ann@example.com", claims.Email)

	require.Len(t, rm.sessions.rows, 1)
	sess := rm.sessions.rows[0]
	assert.Equal(t, reg.User.ID, sess.UserID)
	assert.Equal(t, svc.HashToken(login.Token), sess.TokenHash)
	assert.NotEqual(t, login.Token, sess.TokenHash)

	active, err := svc.IsSessionActive(ctx, reg.User.ID, sess.TokenHash)
	require.NoError(t, err)
	assert.True(t, active)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc, rm, mock := newTestService(t)
	rm.users.byEmail["dup@example.com"] = &models.User{ID: "u1", Email: "dup@example.com"}

	expectTx(mock, false)
	_, err := svc.Register(context.Background(), "dup@example.com", "pw", "", "")
	assert.ErrorIs(t, err, common.ErrUserExists)
	assert.Equal(t, 0, rm.users.creates)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRegister_RaceOnInsert(t *testing.T) {
	svc, rm, mock := newTestService(t)
	rm.users.createErr = common.ErrorAlreadyExists

	expectTx(mock, false)
	_, err := svc.Register(context.Background(), "x@example.com", "pw", "", "")
	assert.ErrorIs(t, err, common.ErrUserExists)
}

func TestRegister_StoreFailureIsHidden(t *testing.T) {
	svc, rm, mock := newTestService(t)
	rm.users.getErr = errors.New("pq: relation users does not exist")

	expectTx(mock, false)
	_, err := svc.Register(context.Background(), "x@example.com", "pw", "", "")
	assert.ErrorIs(t, err, common.ErrPersistence)
	assert.NotContains(t, err.Error(), "relation")
}

func TestRegister_BeginFails(t *testing.T) {
	svc, _, mock := newTestService(t)
	mock.ExpectBegin().WillReturnError(errors.New("conn refused"))

	_, err := svc.Register(context.Background(), "x@example.com", "pw", "", "")
	assert.ErrorIs(t, err, common.ErrPersistence)
}

func TestRegister_EmptyInput(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.Register(context.Background(), " ", "pw", "", "")
	assert.ErrorIs(t, err, common.ErrValidation)
}

func TestLogin_FailuresAreIndistinguishable(t *testing.T) {
	svc, _, mock := newTestService(t)
	ctx := context.Background()

	expectTx(mock, true)
	_, err := svc.Register(ctx, "bob@example.com", "right", "", "")
	require.NoError(t, err)

	_, errWrong := svc.Login(ctx, "bob@example.com", "wrong")
	_, errUnknown := svc.Login(ctx, "nobody@example.com", "right")

	require.Error(t, errWrong)
	require.Error(t, errUnknown)
	assert.ErrorIs(t, errWrong, common.ErrInvalidCredentials)
	assert.ErrorIs(t, errUnknown, common.ErrInvalidCredentials)
	assert.Equal(t, errWrong.Error(), errUnknown.Error())
}

func TestLogin_EmailIsCaseSensitive(t *testing.T) {
	svc, _, mock := newTestService(t)
	ctx := context.Background()

	expectTx(mock, true)
	_, err := svc.Register(ctx, "Case@example.com", "pw", "", "")
	require.NoError(t, err)

	_, err = svc.Login(ctx, "case@example.com", "pw")
	assert.ErrorIs(t, err, common.ErrInvalidCredentials)
}

func TestLogin_SessionStoreFailure(t *testing.T) {
	svc, rm, mock := newTestService(t)
	ctx := context.Background()

	expectTx(mock, true)
	_, err := svc.Register(ctx, "c@example.com", "pw", "", "")
	require.NoError(t, err)

	rm.sessions.createErr = errors.New("disk full")
	_, err = svc.Login(ctx, "c@example.com", "pw")
	assert.ErrorIs(t, err, common.ErrPersistence)
}

func TestVerifyToken_Expiry(t *testing.T) {
	svc, _, mock := newTestService(t)
	issued := time.Unix(1_700_000_000, 0)
	svc.now = func() time.Time { return issued }

	expectTx(mock, true)
	res, err := svc.Register(context.Background(), "t@example.com", "pw", "", "")
	require.NoError(t, err)

	svc.now = func() time.Time { return issued.Add(time.Hour - time.Second) }
	assert.NotNil(t, svc.VerifyToken(res.Token))

	svc.now = func() time.Time { return issued.Add(time.Hour) }
	assert.Nil(t, svc.VerifyToken(res.Token))

	assert.Nil(t, svc.VerifyToken("garbage"))
}

func TestVerifyToken_IgnoresSessions(t *testing.T) {
	svc, rm, mock := newTestService(t)
	ctx := context.Background()

	expectTx(mock, true)
	_, err := svc.Register(ctx, "s@example.com", "pw", "", "")
	require.NoError(t, err)

	res, err := svc.Login(ctx, "s@example.com", "pw")
	require.NoError(t, err)

	rm.sessions.rows = nil
	assert.NotNil(t, svc.VerifyToken(res.Token))

	active, err := svc.IsSessionActive(ctx, res.User.ID, svc.HashToken(res.Token))
	require.NoError(t, err)
	assert.False(t, active)
}

func TestPurgeExpiredSessions(t *testing.T) {
	svc, rm, _ := newTestService(t)
	now := time.Unix(1_700_000_000, 0)
	svc.now = func() time.Time { return now }

	rm.sessions.rows = []*models.Session{
		{ID: "old", ExpiresAt: now.Add(-time.Minute)},
		{ID: "new", ExpiresAt: now.Add(time.Minute)},
	}

	n, err := svc.PurgeExpiredSessions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	require.Len(t, rm.sessions.rows, 1)
	assert.Equal(t, "new", rm.sessions.rows[0].ID)
}

func TestRegister_PasswordTooLong(t *testing.T) {
	svc, rm, mock := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "a@b.c", strings.Repeat("x", cryptox.MaxPasswordBytes+1), "A", "B")
	assert.ErrorIs(t, err, common.ErrValidation)
	assert.NotErrorIs(t, err, common.ErrPersistence)
	assert.Equal(t, 0, rm.users.creates)
	require.NoError(t, mock.ExpectationsWereMet())

	expectTx(mock, true)
	_, err = svc.Register(ctx, "a@b.c", strings.Repeat("x", cryptox.MaxPasswordBytes), "A", "B")
	require.NoError(t, err)

	_, err = svc.Login(ctx, "a@b.c", strings.Repeat("x", cryptox.MaxPasswordBytes))
	require.NoError(t, err)
}

func TestIsSessionActive_MalformedUserID(t *testing.T) {
	svc, rm, _ := newTestService(t)

	active, err := svc.IsSessionActive(context.Background(), "not-a-uuid", "hash")
	require.NoError(t, err)
	assert.False(t, active)
	assert.Equal(t, 0, rm.sessions.finds)
}
