package db

import (
	"context"

	"github.com/AI2HU/bulletcalc/internal/logger"
	"github.com/AI2HU/bulletcalc/internal/models"
	"github.com/AI2HU/bulletcalc/internal/shared"
)

// NoSQLDatabase defines the interface for document database operations (calculations and profiles)
type NoSQLDatabase interface {
	// Connection management
	Connect(ctx context.Context) error
	Disconnect(ctx context.Context) error
	Ping(ctx context.Context) error

	// Calculation operations
	CreateCalculation(ctx context.Context, calc *models.Calculation) error
	GetCalculation(ctx context.Context, id string) (*models.Calculation, error)
	ListCalculations(ctx context.Context, filter shared.CalculationFilter) ([]*models.Calculation, error)
	CountCalculations(ctx context.Context, filter shared.CalculationFilter) (int64, error)
	DeleteCalculation(ctx context.Context, id string) error

	// Profile operations
	CreateProfile(ctx context.Context, profile *models.AmmoProfile) error
	GetProfile(ctx context.Context, id string) (*models.AmmoProfile, error)
	ListProfiles(ctx context.Context, filter shared.ProfileFilter) ([]*models.AmmoProfile, error)
	CountProfiles(ctx context.Context, filter shared.ProfileFilter) (int64, error)
	UpdateProfile(ctx context.Context, profile *models.AmmoProfile) error
	DeleteProfile(ctx context.Context, id string) error
}

// ConnectBestEffort connects store and reports whether it succeeded. Failure is
// logged and swallowed so the caller can keep running without the document store.
func ConnectBestEffort(ctx context.Context, store NoSQLDatabase, name string) bool {
	if err := store.Connect(ctx); err != nil {
		logger.Warning("MongoDB connection failed: %v", err)
		logger.Warning("The API will still work, but calculation history and profiles are disabled.")
		return false
	}
	logger.Info("Connected to MongoDB: %s", name)
	return true
}
