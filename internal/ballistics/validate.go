package ballistics

import (
	"errors"
	"math"
)

const maxPoints = 1000

// Normalize fills optional fields: G1 drag, a 100 m step (or the max range if
// shorter) and standard atmosphere when no atmosphere is given.
func (in Input) Normalize() Input {
	if in.DragModel == "" {
		in.DragModel = G1
	}
	if in.StepM == 0 {
		in.StepM = math.Min(100, in.MaxRangeM)
	}
	if in.Atmosphere == (Atmosphere{}) {
		in.Atmosphere = Standard()
	}
	return in
}

// Validate reports every out-of-range field. The returned error matches
// ErrInvalidInput with errors.Is.
func Validate(in Input) error {
	var errs []error
	check := func(ok bool, field, format string, args ...any) {
		if !ok {
			errs = append(errs, fieldErr(field, format, args...))
		}
	}

	check(in.BulletWeightGr > 0 && in.BulletWeightGr <= 1000, "bullet_weight_gr", "must be in (0, 1000]")
	check(in.BallisticCoefficient > 0 && in.BallisticCoefficient <= 2, "ballistic_coefficient", "must be in (0, 2]")
	check(in.DragModel == G1 || in.DragModel == G7, "drag_model", "must be G1 or G7")
	check(in.MuzzleVelocityMS >= 50 && in.MuzzleVelocityMS <= 2000, "muzzle_velocity_ms", "must be in [50, 2000]")
	check(in.SightHeightCM >= 0 && in.SightHeightCM <= 30, "sight_height_cm", "must be in [0, 30]")
	check(in.ZeroRangeM >= 0 && in.ZeroRangeM <= 2000, "zero_range_m", "must be in [0, 2000]")
	check(in.MaxRangeM >= 1 && in.MaxRangeM <= 5000, "max_range_m", "must be in [1, 5000]")
	check(in.StepM > 0 && in.StepM <= in.MaxRangeM, "step_m", "must be positive and not exceed max_range_m")
	if in.StepM > 0 {
		check(in.MaxRangeM/in.StepM <= maxPoints, "step_m", "produces more than %d points", maxPoints)
	}
	check(in.WindSpeedMS >= 0 && in.WindSpeedMS <= 50, "wind_speed_ms", "must be in [0, 50]")
	check(in.ShootingAngleDeg >= -80 && in.ShootingAngleDeg <= 80, "shooting_angle_deg", "must be in [-80, 80]")

	atm := in.Atmosphere
	check(atm.TemperatureC >= -60 && atm.TemperatureC <= 60, "atmosphere.temperature_c", "must be in [-60, 60]")
	check(atm.PressureHPa == 0 || (atm.PressureHPa >= 300 && atm.PressureHPa <= 1200), "atmosphere.pressure_hpa", "must be 0 or in [300, 1200]")
	check(atm.HumidityPct >= 0 && atm.HumidityPct <= 100, "atmosphere.humidity_pct", "must be in [0, 100]")
	check(atm.AltitudeM >= -500 && atm.AltitudeM <= 9000, "atmosphere.altitude_m", "must be in [-500, 9000]")

	return errors.Join(errs...)
}
