package ballistics

import "math"

const (
	standardTemperatureC = 15.0
	standardPressureHPa  = 1013.25

	gasConstantDryAir = 287.058
	gasConstantVapor  = 461.495
)

// Atmosphere describes the air the projectile flies through. PressureHPa is
// station pressure; when it is zero the pressure is derived from AltitudeM.
type Atmosphere struct {
	TemperatureC float64 `json:"temperature_c" bson:"temperature_c"`
	PressureHPa  float64 `json:"pressure_hpa" bson:"pressure_hpa"`
	HumidityPct  float64 `json:"humidity_pct" bson:"humidity_pct"`
	AltitudeM    float64 `json:"altitude_m" bson:"altitude_m"`
}

// Standard returns ICAO sea-level conditions with dry air.
func Standard() Atmosphere {
	return Atmosphere{
		TemperatureC: standardTemperatureC,
		PressureHPa:  standardPressureHPa,
	}
}

// Pressure returns the station pressure in hPa.
func (a Atmosphere) Pressure() float64 {
	if a.PressureHPa > 0 {
		return a.PressureHPa
	}
	return standardPressureHPa * math.Pow(1-2.25577e-5*a.AltitudeM, 5.25588)
}

// Density returns the air density in kg/m³, accounting for water vapour.
func (a Atmosphere) Density() float64 {
	tempK := a.TemperatureC + 273.15
	saturation := 6.1078 * math.Pow(10, 7.5*a.TemperatureC/(a.TemperatureC+237.3))
	vapor := a.HumidityPct / 100 * saturation
	dry := a.Pressure() - vapor

	return (dry*100)/(gasConstantDryAir*tempK) + (vapor*100)/(gasConstantVapor*tempK)
}

// SpeedOfSound returns the speed of sound in m/s.
func (a Atmosphere) SpeedOfSound() float64 {
	return 331.3 * math.Sqrt(1+a.TemperatureC/273.15)
}
