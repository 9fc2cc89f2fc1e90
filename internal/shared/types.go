package shared

import (
	"time"
)

// CalculationFilter provides filtering options for listing calculations
type CalculationFilter struct {
	UserID    string
	ProfileID string
	StartTime *time.Time
	EndTime   *time.Time
	Limit     int
	Offset    int
}

// ProfileFilter provides filtering options for listing ammunition profiles
type ProfileFilter struct {
	UserID  string
	Caliber string
	Search  string // case-insensitive substring of the profile name
	Limit   int
	Offset  int
}
