package models

import (
	"time"

	"github.com/AI2HU/bulletcalc/internal/ballistics"
)

// API request/response models

// CalculateRequest carries a trajectory request. Pointer fields fall back to
// defaults when omitted.
type CalculateRequest struct {
	Label                string                 `json:"label,omitempty"`
	BulletWeightGr       float64                `json:"bullet_weight_gr" binding:"required"`
	BallisticCoefficient float64                `json:"ballistic_coefficient" binding:"required"`
	DragModel            string                 `json:"drag_model,omitempty"`
	MuzzleVelocityMS     float64                `json:"muzzle_velocity_ms" binding:"required"`
	SightHeightCM        *float64               `json:"sight_height_cm,omitempty"`
	ZeroRangeM           *float64               `json:"zero_range_m,omitempty"`
	MaxRangeM            *float64               `json:"max_range_m,omitempty"`
	StepM                *float64               `json:"step_m,omitempty"`
	WindSpeedMS          float64                `json:"wind_speed_ms,omitempty"`
	WindAngleDeg         float64                `json:"wind_angle_deg,omitempty"`
	ShootingAngleDeg     float64                `json:"shooting_angle_deg,omitempty"`
	Atmosphere           *ballistics.Atmosphere `json:"atmosphere,omitempty"`
}

// ProfileCalculateRequest overrides the shot conditions for a stored profile
type ProfileCalculateRequest struct {
	Label            string                 `json:"label,omitempty"`
	MaxRangeM        *float64               `json:"max_range_m,omitempty"`
	StepM            *float64               `json:"step_m,omitempty"`
	ZeroRangeM       *float64               `json:"zero_range_m,omitempty"`
	WindSpeedMS      float64                `json:"wind_speed_ms,omitempty"`
	WindAngleDeg     float64                `json:"wind_angle_deg,omitempty"`
	ShootingAngleDeg float64                `json:"shooting_angle_deg,omitempty"`
	Atmosphere       *ballistics.Atmosphere `json:"atmosphere,omitempty"`
}

// CalculationResponse is returned by the calculate endpoints
type CalculationResponse struct {
	ID        string             `json:"id,omitempty"`
	Saved     bool               `json:"saved"`
	Label     string             `json:"label,omitempty"`
	ProfileID string             `json:"profile_id,omitempty"`
	Input     ballistics.Input   `json:"input"`
	Result    *ballistics.Result `json:"result"`
	CreatedAt time.Time          `json:"created_at"`
}

// CreateProfileRequest creates an ammunition profile
type CreateProfileRequest struct {
	Name                 string   `json:"name" binding:"required"`
	Caliber              string   `json:"caliber,omitempty"`
	Notes                string   `json:"notes,omitempty"`
	BulletWeightGr       float64  `json:"bullet_weight_gr" binding:"required"`
	BallisticCoefficient float64  `json:"ballistic_coefficient" binding:"required"`
	DragModel            string   `json:"drag_model,omitempty"`
	MuzzleVelocityMS     float64  `json:"muzzle_velocity_ms" binding:"required"`
	SightHeightCM        *float64 `json:"sight_height_cm,omitempty"`
	ZeroRangeM           *float64 `json:"zero_range_m,omitempty"`
}

// UpdateProfileRequest updates only the fields that are present
type UpdateProfileRequest struct {
	Name                 *string  `json:"name,omitempty"`
	Caliber              *string  `json:"caliber,omitempty"`
	Notes                *string  `json:"notes,omitempty"`
	BulletWeightGr       *float64 `json:"bullet_weight_gr,omitempty"`
	BallisticCoefficient *float64 `json:"ballistic_coefficient,omitempty"`
	DragModel            *string  `json:"drag_model,omitempty"`
	MuzzleVelocityMS     *float64 `json:"muzzle_velocity_ms,omitempty"`
	SightHeightCM        *float64 `json:"sight_height_cm,omitempty"`
	ZeroRangeM           *float64 `json:"zero_range_m,omitempty"`
}

// RegisterRequest creates a user account
type RegisterRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email,omitempty"`
	Password string `json:"password" binding:"required"`
}

// LoginRequest authenticates a user
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// PaginatedResponse is the page-number pagination envelope
type PaginatedResponse struct {
	Count    int64       `json:"count"`
	Next     *string     `json:"next"`
	Previous *string     `json:"previous"`
	Results  interface{} `json:"results"`
}

// HealthResponse reports store connectivity
type HealthResponse struct {
	Status           string `json:"status"`
	SQLite           string `json:"sqlite"`
	MongoDBConnected bool   `json:"mongodb_connected"`
	Version          string `json:"version"`
}

// SettingsResponse is the non-secret view of the running configuration
type SettingsResponse struct {
	Debug         bool              `json:"debug"`
	AllowedHosts  []string          `json:"allowed_hosts"`
	InstalledApps []string          `json:"installed_apps"`
	Middleware    []string          `json:"middleware"`
	REST          map[string]any    `json:"rest_framework"`
	CORS          map[string]any    `json:"cors"`
	Databases     map[string]string `json:"databases"`
	StaticURL     string            `json:"static_url"`
	MediaURL      string            `json:"media_url"`
	LanguageCode  string            `json:"language_code"`
	TimeZone      string            `json:"time_zone"`
}

// ErrorResponse is the body of every error reply
type ErrorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}
