package services

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"

	"github.com/AI2HU/bulletcalc/internal/ballistics"
	"github.com/AI2HU/bulletcalc/internal/db"
	"github.com/AI2HU/bulletcalc/internal/models"
	"github.com/AI2HU/bulletcalc/internal/shared"
)

const (
	maxProfileNameLength  = 100
	maxProfileNotesLength = 2000
)

// ProfileService manages stored ammunition profiles
type ProfileService struct {
	db     db.Database
	policy *bluemonday.Policy
}

// NewProfileService creates a new profile service
func NewProfileService(database db.Database) *ProfileService {
	return &ProfileService{
		db:     database,
		policy: bluemonday.StrictPolicy(),
	}
}

// sanitize strips markup from free text. StrictPolicy escapes what it keeps,
// so the result is unescaped again for storage as plain text.
func (s *ProfileService) sanitize(v string) string {
	return strings.TrimSpace(html.UnescapeString(s.policy.Sanitize(v)))
}

func (s *ProfileService) validate(p *models.AmmoProfile) error {
	if p.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidRequest)
	}
	if len(p.Name) > maxProfileNameLength {
		return fmt.Errorf("%w: name must be %d characters or fewer", ErrInvalidRequest, maxProfileNameLength)
	}
	if len(p.Notes) > maxProfileNotesLength {
		return fmt.Errorf("%w: notes must be %d characters or fewer", ErrInvalidRequest, maxProfileNotesLength)
	}

	// A profile must describe a load the solver accepts.
	in := p.Input()
	in.MaxRangeM = DefaultMaxRangeM
	if in.ZeroRangeM > in.MaxRangeM {
		in.MaxRangeM = in.ZeroRangeM
	}
	return ballistics.Validate(in.Normalize())
}

// Create validates, sanitises and stores a new profile
func (s *ProfileService) Create(ctx context.Context, req *models.CreateProfileRequest, userID string) (*models.AmmoProfile, error) {
	model, err := ballistics.ParseDragModel(req.DragModel)
	if err != nil {
		return nil, &ballistics.FieldError{Field: "drag_model", Reason: err.Error()}
	}

	profile := &models.AmmoProfile{
		ID:                   uuid.New().String(),
		UserID:               userID,
		Name:                 s.sanitize(req.Name),
		Caliber:              s.sanitize(req.Caliber),
		Notes:                s.sanitize(req.Notes),
		BulletWeightGr:       req.BulletWeightGr,
		BallisticCoefficient: req.BallisticCoefficient,
		DragModel:            model,
		MuzzleVelocityMS:     req.MuzzleVelocityMS,
		SightHeightCM:        orDefault(req.SightHeightCM, DefaultSightHeightCM),
		ZeroRangeM:           orDefault(req.ZeroRangeM, DefaultZeroRangeM),
	}
	if err := s.validate(profile); err != nil {
		return nil, err
	}

	if err := s.db.CreateProfile(ctx, profile); err != nil {
		return nil, err
	}
	return profile, nil
}

// Get returns a profile by ID
func (s *ProfileService) Get(ctx context.Context, id string) (*models.AmmoProfile, error) {
	return s.db.GetProfile(ctx, id)
}

// List returns one page of profiles and the total matching count
func (s *ProfileService) List(ctx context.Context, filter shared.ProfileFilter) ([]*models.AmmoProfile, int64, error) {
	total, err := s.db.CountProfiles(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count profiles: %w", err)
	}
	profiles, err := s.db.ListProfiles(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list profiles: %w", err)
	}
	return profiles, total, nil
}

// Update applies the fields present in req to an existing profile
func (s *ProfileService) Update(ctx context.Context, id string, req *models.UpdateProfileRequest) (*models.AmmoProfile, error) {
	profile, err := s.db.GetProfile(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		profile.Name = s.sanitize(*req.Name)
	}
	if req.Caliber != nil {
		profile.Caliber = s.sanitize(*req.Caliber)
	}
	if req.Notes != nil {
		profile.Notes = s.sanitize(*req.Notes)
	}
	if req.DragModel != nil {
		model, err := ballistics.ParseDragModel(*req.DragModel)
		if err != nil {
			return nil, &ballistics.FieldError{Field: "drag_model", Reason: err.Error()}
		}
		profile.DragModel = model
	}
	if req.BulletWeightGr != nil {
		profile.BulletWeightGr = *req.BulletWeightGr
	}
	if req.BallisticCoefficient != nil {
		profile.BallisticCoefficient = *req.BallisticCoefficient
	}
	if req.MuzzleVelocityMS != nil {
		profile.MuzzleVelocityMS = *req.MuzzleVelocityMS
	}
	if req.SightHeightCM != nil {
		profile.SightHeightCM = *req.SightHeightCM
	}
	if req.ZeroRangeM != nil {
		profile.ZeroRangeM = *req.ZeroRangeM
	}

	if err := s.validate(profile); err != nil {
		return nil, err
	}
	if err := s.db.UpdateProfile(ctx, profile); err != nil {
		return nil, err
	}
	return profile, nil
}

// Delete removes a profile by ID
func (s *ProfileService) Delete(ctx context.Context, id string) error {
	return s.db.DeleteProfile(ctx, id)
}
