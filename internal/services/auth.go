package services

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"finledger/internal/core"
	applog "finledger/internal/log"
	"finledger/internal/storage"
)

// AuthService registers users and checks their passwords. Hashes are bcrypt
// with a random per-user salt over a SHA-256 digest of the password.
type AuthService struct {
	users  UserStore
	cost   int
	logger *applog.Logger

	dummyOnce sync.Once
	dummyHash []byte
}

func NewAuthService(users UserStore, cost int, logger *applog.Logger) *AuthService {
	if logger == nil {
		logger = applog.Nop()
	}
	return &AuthService{
		users:  users,
		cost:   cost,
		logger: logger.WithComponent(applog.ComponentAuth),
	}
}

// Register creates a user. A taken username yields core.ErrDuplicateUsername.
func (s *AuthService) Register(ctx context.Context, username, password string) (core.User, error) {
	if strings.TrimSpace(username) == "" || password == "" {
		return core.User{}, core.ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword(prehash(password), s.cost)
	if err != nil {
		return core.User{}, fmt.Errorf("hash password: %w", err)
	}

	u, err := s.users.CreateUser(ctx, username, string(hash))
	if err != nil {
		if errors.Is(err, core.ErrDuplicateUsername) {
			s.logger.WarnContext(ctx, "Registration rejected",
				applog.FieldErrorType, applog.ErrorTypeConflict,
				applog.FieldUsername, username)
			return core.User{}, err
		}
		s.logger.OpError(ctx, applog.OpRegister, applog.ErrorTypeDatabase, err, applog.FieldUsername, username)
		return core.User{}, fmt.Errorf("register user: %w", err)
	}

	s.logger.InfoContext(ctx, "User registered", applog.FieldUserID, u.ID, applog.FieldUsername, u.Username)
	return u, nil
}

// Authenticate returns a Session on a matching password. An unknown
// username and a wrong password both yield core.ErrAuthenticationFailed.
func (s *AuthService) Authenticate(ctx context.Context, username, password string) (Session, error) {
	u, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			s.logger.OpError(ctx, applog.OpLogin, applog.ErrorTypeDatabase, err, applog.FieldUsername, username)
			return Session{}, fmt.Errorf("authenticate: %w", err)
		}
		// Unknown usernames cost one bcrypt comparison, same as a wrong password
		_ = bcrypt.CompareHashAndPassword(s.dummy(), prehash(password))
		s.logger.WarnContext(ctx, "Authentication failed", applog.FieldErrorType, applog.ErrorTypeAuth, applog.FieldUsername, username)
		return Session{}, core.ErrAuthenticationFailed
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), prehash(password)); err != nil {
		s.logger.WarnContext(ctx, "Authentication failed", applog.FieldErrorType, applog.ErrorTypeAuth, applog.FieldUsername, username)
		return Session{}, core.ErrAuthenticationFailed
	}

	s.logger.InfoContext(ctx, "User logged in", applog.FieldUserID, u.ID, applog.FieldUsername, u.Username)
	return newSession(u), nil
}

func (s *AuthService) dummy() []byte {
	s.dummyOnce.Do(func() {
		h, err := bcrypt.GenerateFromPassword(prehash("finledger-dummy-password"), s.cost)
		if err != nil {
			h = []byte{}
		}
		s.dummyHash = h
	})
	return s.dummyHash
}

// prehash maps a password of any length to 44 bytes; bcrypt only reads 72.
func prehash(password string) []byte {
	sum := sha256.Sum256([]byte(password))
	return []byte(base64.StdEncoding.EncodeToString(sum[:]))
}
