package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/AI2HU/bulletcalc/internal/ballistics"
	"github.com/AI2HU/bulletcalc/internal/db"
	"github.com/AI2HU/bulletcalc/internal/logger"
	"github.com/AI2HU/bulletcalc/internal/models"
	"github.com/AI2HU/bulletcalc/internal/shared"
)

// Defaults applied when a request omits the optional shot setup. An omitted
// step is left to ballistics.Input.Normalize.
const (
	DefaultSightHeightCM = 3.8
	DefaultZeroRangeM    = 100.0
	DefaultMaxRangeM     = 1000.0
)

// CalculationService solves trajectories and keeps their history
type CalculationService struct {
	db     db.Database
	solver ballistics.Solver
}

// NewCalculationService creates a new calculation service
func NewCalculationService(database db.Database, solver ballistics.Solver) *CalculationService {
	if solver == nil {
		solver = ballistics.New()
	}
	return &CalculationService{
		db:     database,
		solver: solver,
	}
}

func orDefault(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}

// BuildInput converts a request into solver input, filling defaults
func BuildInput(req *models.CalculateRequest) (ballistics.Input, error) {
	model, err := ballistics.ParseDragModel(req.DragModel)
	if err != nil {
		return ballistics.Input{}, &ballistics.FieldError{Field: "drag_model", Reason: err.Error()}
	}

	in := ballistics.Input{
		BulletWeightGr:       req.BulletWeightGr,
		BallisticCoefficient: req.BallisticCoefficient,
		DragModel:            model,
		MuzzleVelocityMS:     req.MuzzleVelocityMS,
		SightHeightCM:        orDefault(req.SightHeightCM, DefaultSightHeightCM),
		ZeroRangeM:           orDefault(req.ZeroRangeM, DefaultZeroRangeM),
		MaxRangeM:            orDefault(req.MaxRangeM, DefaultMaxRangeM),
		StepM:                orDefault(req.StepM, 0),
		WindSpeedMS:          req.WindSpeedMS,
		WindAngleDeg:         req.WindAngleDeg,
		ShootingAngleDeg:     req.ShootingAngleDeg,
	}
	if req.Atmosphere != nil {
		in.Atmosphere = *req.Atmosphere
	}
	return in.Normalize(), nil
}

// ProfileInput applies per-shot overrides to a stored profile
func ProfileInput(profile *models.AmmoProfile, req *models.ProfileCalculateRequest) ballistics.Input {
	in := profile.Input()
	in.ZeroRangeM = orDefault(req.ZeroRangeM, in.ZeroRangeM)
	in.MaxRangeM = orDefault(req.MaxRangeM, DefaultMaxRangeM)
	in.StepM = orDefault(req.StepM, 0)
	in.WindSpeedMS = req.WindSpeedMS
	in.WindAngleDeg = req.WindAngleDeg
	in.ShootingAngleDeg = req.ShootingAngleDeg
	if req.Atmosphere != nil {
		in.Atmosphere = *req.Atmosphere
	}
	return in.Normalize()
}

// Calculate solves a request and stores it when the document store is up
func (s *CalculationService) Calculate(ctx context.Context, req *models.CalculateRequest, userID string) (*models.CalculationResponse, error) {
	in, err := BuildInput(req)
	if err != nil {
		return nil, err
	}
	return s.solveAndSave(ctx, in, strings.TrimSpace(req.Label), "", userID)
}

// CalculateProfile solves using a stored profile
func (s *CalculationService) CalculateProfile(ctx context.Context, profileID string, req *models.ProfileCalculateRequest, userID string) (*models.CalculationResponse, error) {
	profile, err := s.db.GetProfile(ctx, profileID)
	if err != nil {
		return nil, err
	}

	label := strings.TrimSpace(req.Label)
	if label == "" {
		label = profile.Name
	}
	return s.solveAndSave(ctx, ProfileInput(profile, req), label, profile.ID, userID)
}

func (s *CalculationService) solveAndSave(ctx context.Context, in ballistics.Input, label, profileID, userID string) (*models.CalculationResponse, error) {
	result, err := s.solver.Solve(in)
	if err != nil {
		return nil, err
	}

	calc := &models.Calculation{
		ID:        uuid.New().String(),
		UserID:    userID,
		ProfileID: profileID,
		Label:     label,
		Input:     in,
		Result:    result,
		CreatedAt: time.Now().UTC(),
	}

	resp := &models.CalculationResponse{
		Label:     calc.Label,
		ProfileID: calc.ProfileID,
		Input:     calc.Input,
		Result:    calc.Result,
		CreatedAt: calc.CreatedAt,
	}

	// A missing document store never fails the calculation itself.
	err = s.db.CreateCalculation(ctx, calc)
	switch {
	case err == nil:
		resp.ID = calc.ID
		resp.Saved = true
	case errors.Is(err, db.ErrNoSQLUnavailable):
		logger.Debug("Calculation not saved: %v", err)
	default:
		logger.Warning("Failed to save calculation: %v", err)
	}

	return resp, nil
}

// List returns one page of calculations and the total matching count
func (s *CalculationService) List(ctx context.Context, filter shared.CalculationFilter) ([]*models.Calculation, int64, error) {
	total, err := s.db.CountCalculations(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count calculations: %w", err)
	}
	calcs, err := s.db.ListCalculations(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list calculations: %w", err)
	}
	return calcs, total, nil
}

// Get returns a calculation by ID
func (s *CalculationService) Get(ctx context.Context, id string) (*models.Calculation, error) {
	return s.db.GetCalculation(ctx, id)
}

// Delete removes a calculation by ID
func (s *CalculationService) Delete(ctx context.Context, id string) error {
	return s.db.DeleteCalculation(ctx, id)
}
