// Package memdb provides in-memory implementations of the relational and
// document store interfaces for tests and offline tooling.
package memdb

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/AI2HU/bulletcalc/internal/db"
	"github.com/AI2HU/bulletcalc/internal/models"
	"github.com/AI2HU/bulletcalc/internal/shared"
)

// SQL is an in-memory db.SQLDatabase
type SQL struct {
	mu       sync.RWMutex
	users    map[string]*models.User
	sessions map[string]*models.Session
}

// NewSQL returns an empty relational store
func NewSQL() *SQL {
	return &SQL{
		users:    make(map[string]*models.User),
		sessions: make(map[string]*models.Session),
	}
}

func (s *SQL) Connect(ctx context.Context) error    { return nil }
func (s *SQL) Disconnect(ctx context.Context) error { return nil }
func (s *SQL) Ping(ctx context.Context) error       { return nil }

func (s *SQL) CreateUser(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[user.ID]; ok {
		return db.ErrDuplicate
	}
	for _, u := range s.users {
		if strings.EqualFold(u.Username, user.Username) {
			return fmt.Errorf("user %q: %w", user.Username, db.ErrDuplicate)
		}
	}

	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now
	cp := *user
	s.users[user.ID] = &cp
	return nil
}

func (s *SQL) GetUser(ctx context.Context, id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", id, db.ErrNotFound)
	}
	cp := *u
	return &cp, nil
}

func (s *SQL) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if strings.EqualFold(u.Username, username) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("user %s: %w", username, db.ErrNotFound)
}

func (s *SQL) ListUsers(ctx context.Context) ([]*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]*models.User, 0, len(s.users))
	for _, u := range s.users {
		cp := *u
		users = append(users, &cp)
	}
	sort.Slice(users, func(i, j int) bool {
		return strings.ToLower(users[i].Username) < strings.ToLower(users[j].Username)
	})
	return users, nil
}

func (s *SQL) SetPassword(ctx context.Context, id, passwordHash string) error {
	return s.updateUser(id, func(u *models.User) {
		u.PasswordHash = passwordHash
		u.UpdatedAt = time.Now().UTC()
	})
}

func (s *SQL) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	return s.updateUser(id, func(u *models.User) {
		at = at.UTC()
		u.LastLogin = &at
	})
}

func (s *SQL) updateUser(id string, fn func(*models.User)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return db.ErrNotFound
	}
	fn(u)
	return nil
}

func (s *SQL) DeleteUser(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[id]; !ok {
		return db.ErrNotFound
	}
	delete(s.users, id)
	for key, sess := range s.sessions {
		if sess.UserID == id {
			delete(s.sessions, key)
		}
	}
	return nil
}

func (s *SQL) CreateSession(ctx context.Context, session *models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[session.Key]; ok {
		return db.ErrDuplicate
	}
	if _, ok := s.users[session.UserID]; !ok {
		return fmt.Errorf("session user %s: %w", session.UserID, db.ErrNotFound)
	}
	session.CreatedAt = time.Now().UTC()
	cp := *session
	s.sessions[session.Key] = &cp
	return nil
}

func (s *SQL) GetSession(ctx context.Context, key string) (*models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[key]
	if !ok {
		return nil, db.ErrNotFound
	}
	cp := *sess
	return &cp, nil
}

func (s *SQL) DeleteSession(ctx context.Context, key string) error {
	s.mu.Lock()
	delete(s.sessions, key)
	s.mu.Unlock()
	return nil
}

func (s *SQL) PurgeExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var purged int64
	for key, sess := range s.sessions {
		if sess.Expired(now) {
			delete(s.sessions, key)
			purged++
		}
	}
	return purged, nil
}

// NoSQL is an in-memory db.NoSQLDatabase. ConnectErr, when set, is returned
// by Connect to simulate an unreachable server.
type NoSQL struct {
	ConnectErr error

	mu           sync.RWMutex
	calculations map[string]*models.Calculation
	profiles     map[string]*models.AmmoProfile
}

// ErrUnreachable is a ready-made ConnectErr
var ErrUnreachable = errors.New("server selection timeout")

// NewNoSQL returns an empty document store
func NewNoSQL() *NoSQL {
	return &NoSQL{
		calculations: make(map[string]*models.Calculation),
		profiles:     make(map[string]*models.AmmoProfile),
	}
}

func (n *NoSQL) Connect(ctx context.Context) error    { return n.ConnectErr }
func (n *NoSQL) Disconnect(ctx context.Context) error { return nil }
func (n *NoSQL) Ping(ctx context.Context) error       { return n.ConnectErr }

func (n *NoSQL) CreateCalculation(ctx context.Context, calc *models.Calculation) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if _, ok := n.calculations[calc.ID]; ok {
		return db.ErrDuplicate
	}
	if calc.CreatedAt.IsZero() {
		calc.CreatedAt = time.Now().UTC()
	}
	cp := *calc
	n.calculations[calc.ID] = &cp
	return nil
}

func (n *NoSQL) GetCalculation(ctx context.Context, id string) (*models.Calculation, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()

	c, ok := n.calculations[id]
	if !ok {
		return nil, fmt.Errorf("calculation %s: %w", id, db.ErrNotFound)
	}
	cp := *c
	return &cp, nil
}

func (n *NoSQL) matchingCalculations(filter shared.CalculationFilter) []*models.Calculation {
	var out []*models.Calculation
	for _, c := range n.calculations {
		if filter.UserID != "" && c.UserID != filter.UserID {
			continue
		}
		if filter.ProfileID != "" && c.ProfileID != filter.ProfileID {
			continue
		}
		if filter.StartTime != nil && c.CreatedAt.Before(*filter.StartTime) {
			continue
		}
		if filter.EndTime != nil && c.CreatedAt.After(*filter.EndTime) {
			continue
		}
		cp := *c
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (n *NoSQL) ListCalculations(ctx context.Context, filter shared.CalculationFilter) ([]*models.Calculation, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return page(n.matchingCalculations(filter), filter.Limit, filter.Offset), nil
}

func (n *NoSQL) CountCalculations(ctx context.Context, filter shared.CalculationFilter) (int64, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return int64(len(n.matchingCalculations(filter))), nil
}

func (n *NoSQL) DeleteCalculation(ctx context.Context, id string) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if _, ok := n.calculations[id]; !ok {
		return fmt.Errorf("calculation %s: %w", id, db.ErrNotFound)
	}
	delete(n.calculations, id)
	return nil
}

func (n *NoSQL) CreateProfile(ctx context.Context, profile *models.AmmoProfile) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if _, ok := n.profiles[profile.ID]; ok {
		return db.ErrDuplicate
	}
	now := time.Now().UTC()
	profile.CreatedAt = now
	profile.UpdatedAt = now
	cp := *profile
	n.profiles[profile.ID] = &cp
	return nil
}

func (n *NoSQL) GetProfile(ctx context.Context, id string) (*models.AmmoProfile, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()

	p, ok := n.profiles[id]
	if !ok {
		return nil, fmt.Errorf("profile %s: %w", id, db.ErrNotFound)
	}
	cp := *p
	return &cp, nil
}

func (n *NoSQL) matchingProfiles(filter shared.ProfileFilter) []*models.AmmoProfile {
	var out []*models.AmmoProfile
	for _, p := range n.profiles {
		if filter.UserID != "" && p.UserID != filter.UserID {
			continue
		}
		if filter.Caliber != "" && !strings.EqualFold(p.Caliber, filter.Caliber) {
			continue
		}
		if filter.Search != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(filter.Search)) {
			continue
		}
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (n *NoSQL) ListProfiles(ctx context.Context, filter shared.ProfileFilter) ([]*models.AmmoProfile, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return page(n.matchingProfiles(filter), filter.Limit, filter.Offset), nil
}

func (n *NoSQL) CountProfiles(ctx context.Context, filter shared.ProfileFilter) (int64, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return int64(len(n.matchingProfiles(filter))), nil
}

func (n *NoSQL) UpdateProfile(ctx context.Context, profile *models.AmmoProfile) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	existing, ok := n.profiles[profile.ID]
	if !ok {
		return fmt.Errorf("profile %s: %w", profile.ID, db.ErrNotFound)
	}
	profile.CreatedAt = existing.CreatedAt
	profile.UpdatedAt = time.Now().UTC()
	cp := *profile
	n.profiles[profile.ID] = &cp
	return nil
}

func (n *NoSQL) DeleteProfile(ctx context.Context, id string) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if _, ok := n.profiles[id]; !ok {
		return fmt.Errorf("profile %s: %w", id, db.ErrNotFound)
	}
	delete(n.profiles, id)
	return nil
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

// NewDatabase returns a connected hybrid database backed by memory. When
// nosqlErr is non-nil the document store behaves as unreachable.
func NewDatabase(ctx context.Context, nosqlErr error) (*db.Hybrid, *SQL, *NoSQL) {
	sql := NewSQL()
	nosql := NewNoSQL()
	nosql.ConnectErr = nosqlErr

	h := db.New(sql, nosql, "memory")
	_ = h.Connect(ctx)
	return h, sql, nosql
}
