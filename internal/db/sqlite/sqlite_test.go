package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/AI2HU/bulletcalc/internal/db"
	"github.com/AI2HU/bulletcalc/internal/models"
)

func newTestStore(t *testing.T) *SQLite {
	t.Helper()

	store, err := New(&models.Config{Provider: "sqlite", URI: filepath.Join(t.TempDir(), "nested", "db.sqlite3")})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	ctx := context.Background()
	if err := store.Connect(ctx); err != nil {
		t.Fatalf("Connect returned error: %v", err)
	}
	t.Cleanup(func() { _ = store.Disconnect(ctx) })
	return store
}

func TestNewRequiresPath(t *testing.T) {
	if _, err := New(&models.Config{Provider: "sqlite"}); err == nil {
		t.Fatalf("expected error for empty path")
	}
}

func TestMigrationsApplied(t *testing.T) {
	store := newTestStore(t)

	version, dirty, err := db.MigrationVersion(store.DB())
	if err != nil {
		t.Fatalf("MigrationVersion returned error: %v", err)
	}
	if version != 2 || dirty {
		t.Fatalf("expected clean version 2, got %d dirty=%v", version, dirty)
	}

	// A second run is a no-op.
	if err := db.RunMigrations(context.Background(), store.DB()); err != nil {
		t.Fatalf("re-running migrations returned error: %v", err)
	}
}

func TestUserLifecycle(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	user := &models.User{ID: "u1", Username: "Marksman", Email: "m@example.com", PasswordHash: "hash", IsActive: true}
	if err := store.CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser returned error: %v", err)
	}

	dup := &models.User{ID: "u2", Username: "marksman", PasswordHash: "hash"}
	if err := store.CreateUser(ctx, dup); !errors.Is(err, db.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate for case-insensitive username clash, got %v", err)
	}

	got, err := store.GetUserByUsername(ctx, "MARKSMAN")
	if err != nil {
		t.Fatalf("GetUserByUsername returned error: %v", err)
	}
	if got.ID != "u1" || got.Email != "m@example.com" || !got.IsActive || got.LastLogin != nil {
		t.Fatalf("unexpected user: %+v", got)
	}

	loginAt := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	if err := store.UpdateLastLogin(ctx, "u1", loginAt); err != nil {
		t.Fatalf("UpdateLastLogin returned error: %v", err)
	}
	if err := store.SetPassword(ctx, "u1", "new-hash"); err != nil {
		t.Fatalf("SetPassword returned error: %v", err)
	}

	got, err = store.GetUser(ctx, "u1")
	if err != nil {
		t.Fatalf("GetUser returned error: %v", err)
	}
	if got.LastLogin == nil || !got.LastLogin.Equal(loginAt) {
		t.Fatalf("unexpected last login: %v", got.LastLogin)
	}
	if got.PasswordHash != "new-hash" {
		t.Fatalf("password hash not updated")
	}

	users, err := store.ListUsers(ctx)
	if err != nil || len(users) != 1 {
		t.Fatalf("ListUsers = %v, %v", users, err)
	}

	if err := store.DeleteUser(ctx, "u1"); err != nil {
		t.Fatalf("DeleteUser returned error: %v", err)
	}
	if _, err := store.GetUser(ctx, "u1"); !errors.Is(err, db.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := store.DeleteUser(ctx, "u1"); !errors.Is(err, db.ErrNotFound) {
		t.Fatalf("expected ErrNotFound deleting twice, got %v", err)
	}
}

func TestSessions(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.CreateUser(ctx, &models.User{ID: "u1", Username: "shooter", PasswordHash: "h", IsActive: true}); err != nil {
		t.Fatalf("CreateUser returned error: %v", err)
	}

	now := time.Now().UTC()
	live := &models.Session{Key: "live", UserID: "u1", ExpiresAt: now.Add(time.Hour)}
	stale := &models.Session{Key: "stale", UserID: "u1", ExpiresAt: now.Add(-time.Hour)}
	for _, s := range []*models.Session{live, stale} {
		if err := store.CreateSession(ctx, s); err != nil {
			t.Fatalf("CreateSession returned error: %v", err)
		}
	}

	got, err := store.GetSession(ctx, "stale")
	if err != nil {
		t.Fatalf("GetSession returned error: %v", err)
	}
	if !got.Expired(now) {
		t.Fatalf("expected stale session to be expired")
	}

	purged, err := store.PurgeExpiredSessions(ctx, now)
	if err != nil {
		t.Fatalf("PurgeExpiredSessions returned error: %v", err)
	}
	if purged != 1 {
		t.Fatalf("expected 1 purged session, got %d", purged)
	}
	if _, err := store.GetSession(ctx, "stale"); !errors.Is(err, db.ErrNotFound) {
		t.Fatalf("expected stale session gone, got %v", err)
	}

	if err := store.DeleteUser(ctx, "u1"); err != nil {
		t.Fatalf("DeleteUser returned error: %v", err)
	}
	if _, err := store.GetSession(ctx, "live"); !errors.Is(err, db.ErrNotFound) {
		t.Fatalf("expected sessions to cascade with the user, got %v", err)
	}
}

func TestPingBeforeConnect(t *testing.T) {
	store, err := New(&models.Config{URI: filepath.Join(t.TempDir(), "x.db")})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if err := store.Ping(context.Background()); err == nil {
		t.Fatalf("expected error pinging an unopened store")
	}
}
