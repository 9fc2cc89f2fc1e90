package ballistics

// Input describes a load, a rifle setup and the shooting conditions.
//
// Wind angle is the direction the wind blows from, clockwise from the line of
// fire: 0 is a headwind, 90 blows from the right, 180 is a tailwind.
type Input struct {
	BulletWeightGr       float64    `json:"bullet_weight_gr" bson:"bullet_weight_gr"`
	BallisticCoefficient float64    `json:"ballistic_coefficient" bson:"ballistic_coefficient"`
	DragModel            DragModel  `json:"drag_model" bson:"drag_model"`
	MuzzleVelocityMS     float64    `json:"muzzle_velocity_ms" bson:"muzzle_velocity_ms"`
	SightHeightCM        float64    `json:"sight_height_cm" bson:"sight_height_cm"`
	ZeroRangeM           float64    `json:"zero_range_m" bson:"zero_range_m"`
	MaxRangeM            float64    `json:"max_range_m" bson:"max_range_m"`
	StepM                float64    `json:"step_m" bson:"step_m"`
	WindSpeedMS          float64    `json:"wind_speed_ms" bson:"wind_speed_ms"`
	WindAngleDeg         float64    `json:"wind_angle_deg" bson:"wind_angle_deg"`
	ShootingAngleDeg     float64    `json:"shooting_angle_deg" bson:"shooting_angle_deg"`
	Atmosphere           Atmosphere `json:"atmosphere" bson:"atmosphere"`
}

// Point is the projectile state at one downrange distance. Drop and windage
// are measured from the line of sight; negative windage is to the left.
type Point struct {
	RangeM     float64 `json:"range_m" bson:"range_m"`
	DropCM     float64 `json:"drop_cm" bson:"drop_cm"`
	DropMOA    float64 `json:"drop_moa" bson:"drop_moa"`
	DropMil    float64 `json:"drop_mil" bson:"drop_mil"`
	WindageCM  float64 `json:"windage_cm" bson:"windage_cm"`
	WindageMOA float64 `json:"windage_moa" bson:"windage_moa"`
	VelocityMS float64 `json:"velocity_ms" bson:"velocity_ms"`
	Mach       float64 `json:"mach" bson:"mach"`
	EnergyJ    float64 `json:"energy_j" bson:"energy_j"`
	TimeS      float64 `json:"time_s" bson:"time_s"`
}

// Result is a solved trajectory.
type Result struct {
	Points         []Point `json:"points" bson:"points"`
	ZeroAngleMOA   float64 `json:"zero_angle_moa" bson:"zero_angle_moa"`
	MaxOrdinateCM  float64 `json:"max_ordinate_cm" bson:"max_ordinate_cm"`
	SubsonicRangeM float64 `json:"subsonic_range_m" bson:"subsonic_range_m"` // -1 when supersonic through max range
	SpeedOfSoundMS float64 `json:"speed_of_sound_ms" bson:"speed_of_sound_ms"`
	AirDensity     float64 `json:"air_density" bson:"air_density"`
	Complete       bool    `json:"complete" bson:"complete"` // false if the projectile stalled before max range
}

// Solver computes trajectories.
type Solver interface {
	Solve(in Input) (*Result, error)
}
