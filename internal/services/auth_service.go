package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/AI2HU/bulletcalc/internal/db"
	"github.com/AI2HU/bulletcalc/internal/logger"
	"github.com/AI2HU/bulletcalc/internal/models"
)

const maxUsernameLength = 150

// AuthService provides business logic for accounts and login sessions
type AuthService struct {
	db         db.SQLDatabase
	validators []PasswordValidator
	sessionTTL time.Duration
	cost       int
	now        func() time.Time
}

// AuthOption configures an AuthService
type AuthOption func(*AuthService)

// WithBcryptCost overrides the bcrypt work factor
func WithBcryptCost(cost int) AuthOption {
	return func(s *AuthService) { s.cost = cost }
}

// WithClock overrides the time source
func WithClock(now func() time.Time) AuthOption {
	return func(s *AuthService) { s.now = now }
}

// NewAuthService creates a new auth service
func NewAuthService(database db.SQLDatabase, validators []PasswordValidator, sessionTTL time.Duration, opts ...AuthOption) *AuthService {
	s := &AuthService{
		db:         database,
		validators: validators,
		sessionTTL: sessionTTL,
		cost:       bcrypt.DefaultCost,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SessionTTL returns how long a new session stays valid
func (s *AuthService) SessionTTL() time.Duration {
	return s.sessionTTL
}

// ValidateUsername checks the username format
func ValidateUsername(username string) error {
	if username == "" {
		return fmt.Errorf("%w: username is required", ErrInvalidRequest)
	}
	if len(username) > maxUsernameLength {
		return fmt.Errorf("%w: username must be %d characters or fewer", ErrInvalidRequest, maxUsernameLength)
	}
	for _, r := range username {
		if !(r == '@' || r == '.' || r == '+' || r == '-' || r == '_' ||
			(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')) {
			return fmt.Errorf("%w: username may contain only letters, digits and @/./+/-/_", ErrInvalidRequest)
		}
	}
	return nil
}

// CreateUser validates and stores a new account
func (s *AuthService) CreateUser(ctx context.Context, username, email, password string, staff bool) (*models.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)

	if err := ValidateUsername(username); err != nil {
		return nil, err
	}
	if email != "" && !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: enter a valid email address", ErrInvalidRequest)
	}

	user := &models.User{
		ID:       uuid.New().String(),
		Username: username,
		Email:    email,
		IsStaff:  staff,
		IsActive: true,
	}
	if err := ValidatePassword(password, user, s.validators); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	user.PasswordHash = string(hash)

	if err := s.db.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	logger.Info("Created user %s", user.Username)
	return user, nil
}

// Register creates a regular account from an API request
func (s *AuthService) Register(ctx context.Context, req *models.RegisterRequest) (*models.User, error) {
	return s.CreateUser(ctx, req.Username, req.Email, req.Password, false)
}

// Login checks credentials, records the login time and opens a session
func (s *AuthService) Login(ctx context.Context, username, password string) (*models.User, *models.Session, error) {
	user, err := s.db.GetUserByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, db.ErrNotFound) {
		return nil, nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, nil, ErrInactiveUser
	}

	now := s.now().UTC()
	if err := s.db.UpdateLastLogin(ctx, user.ID, now); err != nil {
		return nil, nil, fmt.Errorf("failed to record login: %w", err)
	}
	user.LastLogin = &now

	session := &models.Session{
		Key:       uuid.New().String(),
		UserID:    user.ID,
		ExpiresAt: now.Add(s.sessionTTL),
	}
	if err := s.db.CreateSession(ctx, session); err != nil {
		return nil, nil, fmt.Errorf("failed to create session: %w", err)
	}

	return user, session, nil
}

// Logout deletes a session
func (s *AuthService) Logout(ctx context.Context, sessionKey string) error {
	if sessionKey == "" {
		return nil
	}
	return s.db.DeleteSession(ctx, sessionKey)
}

// Authenticate resolves a session key to its active user. Expired sessions
// are deleted on sight.
func (s *AuthService) Authenticate(ctx context.Context, sessionKey string) (*models.User, error) {
	session, err := s.db.GetSession(ctx, sessionKey)
	if err != nil {
		return nil, err
	}
	if session.Expired(s.now()) {
		_ = s.db.DeleteSession(ctx, sessionKey)
		return nil, ErrSessionExpired
	}

	user, err := s.db.GetUser(ctx, session.UserID)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrInactiveUser
	}
	return user, nil
}

// ChangePassword validates and stores a new password for username
func (s *AuthService) ChangePassword(ctx context.Context, username, password string) error {
	user, err := s.db.GetUserByUsername(ctx, username)
	if err != nil {
		return err
	}
	if err := ValidatePassword(password, user, s.validators); err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	return s.db.SetPassword(ctx, user.ID, string(hash))
}

// ListUsers lists every account
func (s *AuthService) ListUsers(ctx context.Context) ([]*models.User, error) {
	return s.db.ListUsers(ctx)
}

// DeleteUser removes an account by username together with its sessions
func (s *AuthService) DeleteUser(ctx context.Context, username string) error {
	user, err := s.db.GetUserByUsername(ctx, username)
	if err != nil {
		return err
	}
	return s.db.DeleteUser(ctx, user.ID)
}

// PurgeExpiredSessions deletes every session that has expired
func (s *AuthService) PurgeExpiredSessions(ctx context.Context) (int64, error) {
	return s.db.PurgeExpiredSessions(ctx, s.now().UTC())
}
