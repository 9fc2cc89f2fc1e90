package db

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/AI2HU/bulletcalc/internal/models"
	"github.com/AI2HU/bulletcalc/internal/shared"
)

// Database combines the relational and document stores behind one handle
type Database interface {
	SQLDatabase
	NoSQLDatabase
	NoSQLConnected() bool
}

// Hybrid routes users and sessions to SQL and calculations and profiles to NoSQL.
// The SQL store is required; the NoSQL store is optional and degrades to
// ErrNoSQLUnavailable when its connection could not be established.
type Hybrid struct {
	SQLDatabase
	nosql     NoSQLDatabase
	nosqlName string
	connected atomic.Bool
}

// New creates a hybrid database from its two halves
func New(sql SQLDatabase, nosql NoSQLDatabase, nosqlName string) *Hybrid {
	return &Hybrid{
		SQLDatabase: sql,
		nosql:       nosql,
		nosqlName:   nosqlName,
	}
}

// Connect opens the SQL store and makes a best-effort attempt at the NoSQL store
func (h *Hybrid) Connect(ctx context.Context) error {
	if err := h.SQLDatabase.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to SQL database: %w", err)
	}
	if h.nosql != nil {
		h.connected.Store(ConnectBestEffort(ctx, h.nosql, h.nosqlName))
	}
	return nil
}

// Disconnect closes both stores
func (h *Hybrid) Disconnect(ctx context.Context) error {
	var nosqlErr error
	if h.nosql != nil && h.connected.Load() {
		nosqlErr = h.nosql.Disconnect(ctx)
		h.connected.Store(false)
	}
	if err := h.SQLDatabase.Disconnect(ctx); err != nil {
		return err
	}
	return nosqlErr
}

// Ping checks the SQL store. The NoSQL store is reported by NoSQLConnected.
func (h *Hybrid) Ping(ctx context.Context) error {
	return h.SQLDatabase.Ping(ctx)
}

// NoSQLConnected reports whether the document store is usable
func (h *Hybrid) NoSQLConnected() bool {
	return h.connected.Load()
}

func (h *Hybrid) doc() (NoSQLDatabase, error) {
	if h.nosql == nil || !h.connected.Load() {
		return nil, ErrNoSQLUnavailable
	}
	return h.nosql, nil
}

// Calculation operations

func (h *Hybrid) CreateCalculation(ctx context.Context, calc *models.Calculation) error {
	store, err := h.doc()
	if err != nil {
		return err
	}
	return store.CreateCalculation(ctx, calc)
}

func (h *Hybrid) GetCalculation(ctx context.Context, id string) (*models.Calculation, error) {
	store, err := h.doc()
	if err != nil {
		return nil, err
	}
	return store.GetCalculation(ctx, id)
}

func (h *Hybrid) ListCalculations(ctx context.Context, filter shared.CalculationFilter) ([]*models.Calculation, error) {
	store, err := h.doc()
	if err != nil {
		return nil, err
	}
	return store.ListCalculations(ctx, filter)
}

func (h *Hybrid) CountCalculations(ctx context.Context, filter shared.CalculationFilter) (int64, error) {
	store, err := h.doc()
	if err != nil {
		return 0, err
	}
	return store.CountCalculations(ctx, filter)
}

func (h *Hybrid) DeleteCalculation(ctx context.Context, id string) error {
	store, err := h.doc()
	if err != nil {
		return err
	}
	return store.DeleteCalculation(ctx, id)
}

// Profile operations

func (h *Hybrid) CreateProfile(ctx context.Context, profile *models.AmmoProfile) error {
	store, err := h.doc()
	if err != nil {
		return err
	}
	return store.CreateProfile(ctx, profile)
}

func (h *Hybrid) GetProfile(ctx context.Context, id string) (*models.AmmoProfile, error) {
	store, err := h.doc()
	if err != nil {
		return nil, err
	}
	return store.GetProfile(ctx, id)
}

func (h *Hybrid) ListProfiles(ctx context.Context, filter shared.ProfileFilter) ([]*models.AmmoProfile, error) {
	store, err := h.doc()
	if err != nil {
		return nil, err
	}
	return store.ListProfiles(ctx, filter)
}

func (h *Hybrid) CountProfiles(ctx context.Context, filter shared.ProfileFilter) (int64, error) {
	store, err := h.doc()
	if err != nil {
		return 0, err
	}
	return store.CountProfiles(ctx, filter)
}

func (h *Hybrid) UpdateProfile(ctx context.Context, profile *models.AmmoProfile) error {
	store, err := h.doc()
	if err != nil {
		return err
	}
	return store.UpdateProfile(ctx, profile)
}

func (h *Hybrid) DeleteProfile(ctx context.Context, id string) error {
	store, err := h.doc()
	if err != nil {
		return err
	}
	return store.DeleteProfile(ctx, id)
}
