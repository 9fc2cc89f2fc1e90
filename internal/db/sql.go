package db

import (
	"context"
	"time"

	"github.com/AI2HU/bulletcalc/internal/models"
)

// SQLDatabase defines the interface for relational database operations (users and sessions)
type SQLDatabase interface {
	// Connection management
	Connect(ctx context.Context) error
	Disconnect(ctx context.Context) error
	Ping(ctx context.Context) error

	// User operations
	CreateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	ListUsers(ctx context.Context) ([]*models.User, error)
	SetPassword(ctx context.Context, id, passwordHash string) error
	UpdateLastLogin(ctx context.Context, id string, at time.Time) error
	DeleteUser(ctx context.Context, id string) error

	// Session operations
	CreateSession(ctx context.Context, session *models.Session) error
	GetSession(ctx context.Context, key string) (*models.Session, error)
	DeleteSession(ctx context.Context, key string) error
	PurgeExpiredSessions(ctx context.Context, now time.Time) (int64, error)
}
