package models

import (
	"time"

	"github.com/AI2HU/bulletcalc/internal/ballistics"
)

// Core domain models

// User is an account stored in the relational auth database
type User struct {
	ID           string     `json:"id"`
	Username     string     `json:"username"`
	Email        string     `json:"email,omitempty"`
	PasswordHash string     `json:"-"`
	IsStaff      bool       `json:"is_staff"`
	IsActive     bool       `json:"is_active"`
	LastLogin    *time.Time `json:"last_login,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// Session is a server-side login session referenced by the session cookie
type Session struct {
	Key       string    `json:"-"`
	UserID    string    `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// Expired reports whether the session is no longer valid at now
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// Calculation is a solved trajectory persisted in the document store
type Calculation struct {
	ID        string             `json:"id" bson:"_id"`
	UserID    string             `json:"user_id,omitempty" bson:"user_id,omitempty"`
	ProfileID string             `json:"profile_id,omitempty" bson:"profile_id,omitempty"`
	Label     string             `json:"label,omitempty" bson:"label,omitempty"`
	Input     ballistics.Input   `json:"input" bson:"input"`
	Result    *ballistics.Result `json:"result" bson:"result"`
	CreatedAt time.Time          `json:"created_at" bson:"created_at"`
}

// AmmoProfile is a saved load and rifle setup that calculations can start from
type AmmoProfile struct {
	ID                   string               `json:"id" bson:"_id"`
	UserID               string               `json:"user_id,omitempty" bson:"user_id,omitempty"`
	Name                 string               `json:"name" bson:"name"`
	Caliber              string               `json:"caliber,omitempty" bson:"caliber,omitempty"`
	Notes                string               `json:"notes,omitempty" bson:"notes,omitempty"`
	BulletWeightGr       float64              `json:"bullet_weight_gr" bson:"bullet_weight_gr"`
	BallisticCoefficient float64              `json:"ballistic_coefficient" bson:"ballistic_coefficient"`
	DragModel            ballistics.DragModel `json:"drag_model" bson:"drag_model"`
	MuzzleVelocityMS     float64              `json:"muzzle_velocity_ms" bson:"muzzle_velocity_ms"`
	SightHeightCM        float64              `json:"sight_height_cm" bson:"sight_height_cm"`
	ZeroRangeM           float64              `json:"zero_range_m" bson:"zero_range_m"`
	CreatedAt            time.Time            `json:"created_at" bson:"created_at"`
	UpdatedAt            time.Time            `json:"updated_at" bson:"updated_at"`
}

// Input returns a ballistics input seeded from the profile
func (p *AmmoProfile) Input() ballistics.Input {
	return ballistics.Input{
		BulletWeightGr:       p.BulletWeightGr,
		BallisticCoefficient: p.BallisticCoefficient,
		DragModel:            p.DragModel,
		MuzzleVelocityMS:     p.MuzzleVelocityMS,
		SightHeightCM:        p.SightHeightCM,
		ZeroRangeM:           p.ZeroRangeM,
	}
}
