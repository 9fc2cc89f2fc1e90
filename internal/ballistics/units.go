package ballistics

import "math"

const (
	// GrainsToKg converts bullet weight in grains to kilograms.
	GrainsToKg = 6.479891e-5
	// FpsToMs converts feet per second to metres per second.
	FpsToMs = 0.3048
	// bcToSI converts a ballistic coefficient in lb/in² to kg/m².
	bcToSI = 703.0696

	gravity = 9.80665
)

// MsToFps converts metres per second to feet per second.
func MsToFps(v float64) float64 { return v / FpsToMs }

// RadToMOA converts an angle in radians to minutes of angle.
func RadToMOA(rad float64) float64 { return rad * 180 / math.Pi * 60 }

// MOAToRad converts minutes of angle to radians.
func MOAToRad(moa float64) float64 { return moa / 60 * math.Pi / 180 }

// RadToMil converts an angle in radians to milliradians.
func RadToMil(rad float64) float64 { return rad * 1000 }

func degToRad(deg float64) float64 { return deg * math.Pi / 180 }
