// Package credentials implements the credential service: account
// registration, password login that issues signed access tokens, stateless
// token verification and the session records written on login.
package credentials

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/jobhub/internal/common"
	"github.com/dmitrijs2005/jobhub/internal/cryptox"
	"github.com/dmitrijs2005/jobhub/internal/dbx"
	"github.com/dmitrijs2005/jobhub/internal/logging"
	"github.com/dmitrijs2005/jobhub/internal/server/auth"
	"github.com/dmitrijs2005/jobhub/internal/server/config"
	"github.com/dmitrijs2005/jobhub/internal/server/models"
	"github.com/dmitrijs2005/jobhub/internal/server/repositories/repomanager"
)

// AuthResult is returned by Register and Login.
type AuthResult struct {
	Token     string            `json:"token"`
	ExpiresAt time.Time         `json:"expires_at"`
	User      models.PublicUser `json:"user"`
}

// Service is stateless apart from its collaborators and is safe for
// concurrent use.
type Service struct {
	db                      *sql.DB
	repomanager             repomanager.RepositoryManager
	logger                  logging.Logger
	jwtSecret               []byte
	tokenValidityDuration   time.Duration
	sessionValidityDuration time.Duration
	passwordCost            int
	dummyHash               string
	now                     func() time.Time
}

func NewService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config, logger logging.Logger) *Service {
	if logger == nil {
		logger = logging.Nop{}
	}

	s := &Service{
		db:                      db,
		repomanager:             m,
		logger:                  logger.With("module", "credentials"),
		jwtSecret:               []byte(cfg.SecretKey),
		tokenValidityDuration:   cfg.TokenValidityDuration,
		sessionValidityDuration: cfg.SessionValidityDuration,
		passwordCost:            cfg.PasswordHashCost,
		now:                     time.Now,
	}

	// compared against for unknown emails so both login failure paths pay for bcrypt
	filler, _ := common.MakeRandHexString(16)
	if h, err := cryptox.HashPassword(filler, s.passwordCost); err == nil {
		s.dummyHash = h
	}

	return s
}

// Register creates an account and returns a token for it. An existing email
// yields common.ErrUserExists without touching the store. Empty input and
// passwords longer than cryptox.MaxPasswordBytes yield common.ErrValidation.
func (s *Service) Register(ctx context.Context, email, password, firstName, lastName string) (*AuthResult, error) {
	if strings.TrimSpace(email) == "" || password == "" || len(password) > cryptox.MaxPasswordBytes {
		return nil, common.ErrValidation
	}

	var user *models.User
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)

		_, err := repo.GetByEmail(ctx, email)
		switch {
		case err == nil:
			return common.ErrUserExists
		case !errors.Is(err, common.ErrorNotFound):
			return s.persistence(ctx, "user lookup failed", err)
		}

		hash, err := cryptox.HashPassword(password, s.passwordCost)
		if err != nil {
			return s.persistence(ctx, "password hashing failed", err)
		}

		user, err = repo.Create(ctx, &models.User{
			ID:           uuid.NewString(),
			Email:        email,
			PasswordHash: hash,
			FirstName:    firstName,
			LastName:     lastName,
		})
		if errors.Is(err, common.ErrorAlreadyExists) {
			return common.ErrUserExists
		}
		if err != nil {
			return s.persistence(ctx, "user insert failed", err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, common.ErrUserExists) || errors.Is(err, common.ErrPersistence) {
			return nil, err
		}
		return nil, s.persistence(ctx, "register transaction failed", err)
	}

	token, claims, err := auth.GenerateToken(user.ID, user.Email, s.jwtSecret, s.tokenValidityDuration, s.now())
	if err != nil {
		return nil, s.persistence(ctx, "token signing failed", err)
	}

	s.logger.Info(ctx, "user registered", "user_id", user.ID)
	return &AuthResult{Token: token, ExpiresAt: claims.ExpiryTime(), User: user.Public()}, nil
}

// Login checks the password and returns a fresh token. Unknown emails and
// wrong passwords both yield common.ErrInvalidCredentials. A session row is
// recorded for every successful login.
func (s *Service) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.repomanager.Users(s.db).GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			cryptox.CheckPassword(s.dummyHash, password)
			return nil, common.ErrInvalidCredentials
		}
		return nil, s.persistence(ctx, "user lookup failed", err)
	}

	if !cryptox.CheckPassword(user.PasswordHash, password) {
		return nil, common.ErrInvalidCredentials
	}

	now := s.now()
	token, claims, err := auth.GenerateToken(user.ID, user.Email, s.jwtSecret, s.tokenValidityDuration, now)
	if err != nil {
		return nil, s.persistence(ctx, "token signing failed", err)
	}

	session := &models.Session{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		TokenHash: cryptox.HashToken(token),
		ExpiresAt: now.Add(s.sessionValidityDuration),
	}
	if err := s.repomanager.Sessions(s.db).Create(ctx, session); err != nil {
		return nil, s.persistence(ctx, "session insert failed", err)
	}

	s.logger.Info(ctx, "user logged in", "user_id", user.ID)
	return &AuthResult{Token: token, ExpiresAt: claims.ExpiryTime(), User: user.Public()}, nil
}

// VerifyToken returns the claims of a valid token, or nil. It never touches
// the store, so logged-out tokens stay valid until they expire.
func (s *Service) VerifyToken(token string) *auth.Claims {
	claims, err := auth.ParseToken(token, s.jwtSecret, s.now())
	if err != nil {
		return nil
	}
	return claims
}

// IsSessionActive reports whether a login session for tokenHash exists and
// has not lapsed. Callers that want revocation-style checks use it on top of
// VerifyToken.
func (s *Service) IsSessionActive(ctx context.Context, userID, tokenHash string) (bool, error) {
	if _, err := uuid.Parse(userID); err != nil {
		return false, nil
	}
	_, err := s.repomanager.Sessions(s.db).FindActive(ctx, userID, tokenHash, s.now())
	if errors.Is(err, common.ErrorNotFound) {
		return false, nil
	}
	if err != nil {
		return false, s.persistence(ctx, "session lookup failed", err)
	}
	return true, nil
}

// PurgeExpiredSessions deletes sessions that lapsed before now.
func (s *Service) PurgeExpiredSessions(ctx context.Context) (int64, error) {
	n, err := s.repomanager.Sessions(s.db).DeleteExpired(ctx, s.now())
	if err != nil {
		return 0, s.persistence(ctx, "session purge failed", err)
	}
	if n > 0 {
		s.logger.Debug(ctx, "expired sessions purged", "count", n)
	}
	return n, nil
}

// HashToken is the one-way fingerprint stored for sessions.
func (s *Service) HashToken(token string) string {
	return cryptox.HashToken(token)
}

// persistence logs the underlying failure and hides it from the caller.
func (s *Service) persistence(ctx context.Context, msg string, err error) error {
	s.logger.Error(ctx, msg, "error", err)
	return common.ErrPersistence
}
