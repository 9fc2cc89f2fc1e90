package ballistics

import (
	"errors"
	"math"
	"testing"
)

func rifleLoad() Input {
	return Input{
		BulletWeightGr:       168,
		BallisticCoefficient: 0.462,
		DragModel:            G1,
		MuzzleVelocityMS:     800,
		SightHeightCM:        3.8,
		ZeroRangeM:           100,
		MaxRangeM:            600,
		StepM:                100,
		Atmosphere:           Standard(),
	}
}

func pointAt(t *testing.T, res *Result, rangeM float64) Point {
	t.Helper()
	for _, p := range res.Points {
		if math.Abs(p.RangeM-rangeM) < 1e-9 {
			return p
		}
	}
	t.Fatalf("no point at %v m", rangeM)
	return Point{}
}

func TestSolveLevelTrajectory(t *testing.T) {
	res, err := Solve(rifleLoad())
	if err != nil {
		t.Fatalf("Solve returned error: %v", err)
	}

	if len(res.Points) != 7 {
		t.Fatalf("expected 7 points (0..600 by 100), got %d", len(res.Points))
	}
	if !res.Complete {
		t.Fatalf("expected complete trajectory")
	}

	muzzle := res.Points[0]
	if math.Abs(muzzle.DropCM+3.8) > 1e-9 {
		t.Fatalf("drop at muzzle should equal minus sight height, got %v", muzzle.DropCM)
	}
	if math.Abs(muzzle.VelocityMS-800) > 1e-9 {
		t.Fatalf("unexpected muzzle velocity %v", muzzle.VelocityMS)
	}

	if zero := pointAt(t, res, 100); math.Abs(zero.DropCM) > 0.5 {
		t.Fatalf("drop at zero range should be ~0, got %v cm", zero.DropCM)
	}

	for i := 1; i < len(res.Points); i++ {
		prev, cur := res.Points[i-1], res.Points[i]
		if cur.VelocityMS >= prev.VelocityMS {
			t.Fatalf("velocity must decrease: %v at %v m then %v at %v m", prev.VelocityMS, prev.RangeM, cur.VelocityMS, cur.RangeM)
		}
		if cur.TimeS <= prev.TimeS {
			t.Fatalf("time must increase at %v m", cur.RangeM)
		}
		if cur.WindageCM != 0 {
			t.Fatalf("no wind should give zero windage, got %v", cur.WindageCM)
		}
	}

	d300 := pointAt(t, res, 300).DropCM
	if d300 > -25 || d300 < -70 {
		t.Fatalf("drop at 300 m outside plausible band: %v cm", d300)
	}
	d500 := pointAt(t, res, 500)
	if d500.DropCM > -100 || d500.DropCM < -230 {
		t.Fatalf("drop at 500 m outside plausible band: %v cm", d500.DropCM)
	}
	if d500.VelocityMS < 450 || d500.VelocityMS > 650 {
		t.Fatalf("velocity at 500 m outside plausible band: %v", d500.VelocityMS)
	}
	if d500.DropMOA >= 0 || d500.DropMil >= 0 {
		t.Fatalf("angular drop below line of sight should be negative: %+v", d500)
	}

	if res.ZeroAngleMOA <= 0 {
		t.Fatalf("zeroing should elevate the bore, got %v MOA", res.ZeroAngleMOA)
	}
	if res.MaxOrdinateCM <= 0 {
		t.Fatalf("expected the trajectory to rise above the line of sight, got %v", res.MaxOrdinateCM)
	}
	if res.SubsonicRangeM != -1 {
		t.Fatalf("expected supersonic through 600 m, got %v", res.SubsonicRangeM)
	}

	wantEnergy := 0.5 * 168 * GrainsToKg * 800 * 800
	if math.Abs(muzzle.EnergyJ-wantEnergy) > 1e-3 {
		t.Fatalf("unexpected muzzle energy %v, want %v", muzzle.EnergyJ, wantEnergy)
	}
}

func TestSolveCrosswindPushesDownwind(t *testing.T) {
	in := rifleLoad()
	in.WindSpeedMS = 5
	in.WindAngleDeg = 90

	res, err := Solve(in)
	if err != nil {
		t.Fatalf("Solve returned error: %v", err)
	}

	w300 := pointAt(t, res, 300).WindageCM
	if w300 >= 0 {
		t.Fatalf("wind from the right should push left, got %v cm", w300)
	}
	if w500 := pointAt(t, res, 500).WindageCM; w500 >= w300 {
		t.Fatalf("wind drift should grow with range: %v then %v", w300, w500)
	}

	in.WindAngleDeg = 270
	mirrored, err := Solve(in)
	if err != nil {
		t.Fatalf("Solve returned error: %v", err)
	}
	if got := pointAt(t, mirrored, 300).WindageCM; math.Abs(got+w300) > 0.01 {
		t.Fatalf("left wind should mirror right wind: %v vs %v", got, w300)
	}
}

func TestSolveHigherBCDropsLess(t *testing.T) {
	low, err := Solve(rifleLoad())
	if err != nil {
		t.Fatalf("Solve returned error: %v", err)
	}

	in := rifleLoad()
	in.BallisticCoefficient = 0.6
	high, err := Solve(in)
	if err != nil {
		t.Fatalf("Solve returned error: %v", err)
	}

	if pointAt(t, high, 600).DropCM <= pointAt(t, low, 600).DropCM {
		t.Fatalf("higher BC should drop less at 600 m")
	}
	if pointAt(t, high, 600).VelocityMS <= pointAt(t, low, 600).VelocityMS {
		t.Fatalf("higher BC should retain more velocity")
	}
}

func TestSolveInclineReducesDrop(t *testing.T) {
	level, err := Solve(rifleLoad())
	if err != nil {
		t.Fatalf("Solve returned error: %v", err)
	}

	in := rifleLoad()
	in.ShootingAngleDeg = 30
	uphill, err := Solve(in)
	if err != nil {
		t.Fatalf("Solve returned error: %v", err)
	}

	if pointAt(t, uphill, 400).DropCM <= pointAt(t, level, 400).DropCM {
		t.Fatalf("inclined shot should drop less relative to line of sight")
	}
}

func TestSolveSubsonicLoad(t *testing.T) {
	in := Input{
		BulletWeightGr:       220,
		BallisticCoefficient: 0.6,
		DragModel:            G7,
		MuzzleVelocityMS:     310,
		SightHeightCM:        5,
		ZeroRangeM:           50,
		MaxRangeM:            200,
		StepM:                25,
	}

	res, err := Solve(in)
	if err != nil {
		t.Fatalf("Solve returned error: %v", err)
	}
	if res.SubsonicRangeM != 0 {
		t.Fatalf("subsonic muzzle velocity should report 0, got %v", res.SubsonicRangeM)
	}
	if len(res.Points) != 9 {
		t.Fatalf("expected 9 points, got %d", len(res.Points))
	}
	if res.AirDensity < 1.2 || res.AirDensity > 1.25 {
		t.Fatalf("normalized input should use standard atmosphere, density %v", res.AirDensity)
	}
}

func TestSolveIncludesMaxRangeOffStep(t *testing.T) {
	in := rifleLoad()
	in.MaxRangeM = 250

	res, err := Solve(in)
	if err != nil {
		t.Fatalf("Solve returned error: %v", err)
	}
	last := res.Points[len(res.Points)-1]
	if last.RangeM != 250 {
		t.Fatalf("expected last point at max range, got %v", last.RangeM)
	}
}

func TestSolveNoZero(t *testing.T) {
	in := rifleLoad()
	in.ZeroRangeM = 0

	res, err := Solve(in)
	if err != nil {
		t.Fatalf("Solve returned error: %v", err)
	}
	if res.ZeroAngleMOA != 0 {
		t.Fatalf("expected bore parallel to sight line, got %v", res.ZeroAngleMOA)
	}
	if pointAt(t, res, 100).DropCM >= -3.8 {
		t.Fatalf("unzeroed bullet should fall below the bore line")
	}
}

func TestValidateRejectsBadInput(t *testing.T) {
	in := rifleLoad()
	in.BulletWeightGr = 0
	in.MuzzleVelocityMS = 5000
	in.StepM = 1000
	in.Atmosphere.HumidityPct = 120

	_, err := Solve(in)
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}

	var fe *FieldError
	if !errors.As(err, &fe) {
		t.Fatalf("expected a FieldError in %v", err)
	}

	for _, field := range []string{"bullet_weight_gr", "muzzle_velocity_ms", "step_m", "atmosphere.humidity_pct"} {
		if !containsField(err, field) {
			t.Fatalf("expected %s to be rejected: %v", field, err)
		}
	}
}

func containsField(err error, field string) bool {
	joined, ok := err.(interface{ Unwrap() []error })
	if !ok {
		return false
	}
	for _, e := range joined.Unwrap() {
		var fe *FieldError
		if errors.As(e, &fe) && fe.Field == field {
			return true
		}
	}
	return false
}

func TestZeroUnreachable(t *testing.T) {
	in := Input{
		BulletWeightGr:       40,
		BallisticCoefficient: 0.05,
		MuzzleVelocityMS:     60,
		ZeroRangeM:           2000,
		MaxRangeM:            2000,
	}

	if _, err := Solve(in); !errors.Is(err, ErrZeroUnreachable) {
		t.Fatalf("expected ErrZeroUnreachable, got %v", err)
	}
}
