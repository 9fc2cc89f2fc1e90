package ballistics

import (
	"math"
)

const (
	defaultTimeStep = 0.0005
	maxFlightTime   = 60.0
	maxElevationRad = 0.6
	zeroIterations  = 60
)

// Option configures a Solver.
type Option func(*pointMassSolver)

// WithTimeStep overrides the integration step in seconds.
func WithTimeStep(dt float64) Option {
	return func(s *pointMassSolver) {
		if dt > 0 {
			s.dt = dt
		}
	}
}

type pointMassSolver struct {
	dt float64
}

// New creates a point-mass Solver.
func New(opts ...Option) Solver {
	s := &pointMassSolver{dt: defaultTimeStep}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Solve normalizes, validates and solves in with the default solver.
func Solve(in Input) (*Result, error) {
	return New().Solve(in)
}

type state struct {
	t, x, y, z, vx, vy, vz float64
}

func (s state) speed() float64 {
	return math.Sqrt(s.vx*s.vx + s.vy*s.vy + s.vz*s.vz)
}

func lerp(a, b state, frac float64) state {
	mix := func(p, q float64) float64 { return p + frac*(q-p) }
	return state{
		t:  mix(a.t, b.t),
		x:  mix(a.x, b.x),
		y:  mix(a.y, b.y),
		z:  mix(a.z, b.z),
		vx: mix(a.vx, b.vx),
		vy: mix(a.vy, b.vy),
		vz: mix(a.vz, b.vz),
	}
}

// flight holds the constants of one shot in the line-of-sight frame:
// x downrange, y up, z to the right.
type flight struct {
	dt     float64
	k      float64
	model  DragModel
	sound  float64
	gx, gy float64
	wx, wz float64
}

func newFlight(in Input, dt float64, withConditions bool) *flight {
	f := &flight{
		dt:    dt,
		k:     in.Atmosphere.Density() * math.Pi / (8 * in.BallisticCoefficient * bcToSI),
		model: in.DragModel,
		sound: in.Atmosphere.SpeedOfSound(),
		gy:    -gravity,
	}
	if withConditions {
		incline := degToRad(in.ShootingAngleDeg)
		f.gx = -gravity * math.Sin(incline)
		f.gy = -gravity * math.Cos(incline)

		wind := degToRad(in.WindAngleDeg)
		f.wx = -in.WindSpeedMS * math.Cos(wind)
		f.wz = -in.WindSpeedMS * math.Sin(wind)
	}
	return f
}

func (f *flight) step(s state) state {
	rx, ry, rz := s.vx-f.wx, s.vy, s.vz-f.wz
	vrel := math.Sqrt(rx*rx + ry*ry + rz*rz)
	drag := f.k * f.model.Coefficient(vrel/f.sound) * vrel

	s.vx += (-drag*rx + f.gx) * f.dt
	s.vy += (-drag*ry + f.gy) * f.dt
	s.vz += -drag * rz * f.dt
	s.x += s.vx * f.dt
	s.y += s.vy * f.dt
	s.z += s.vz * f.dt
	s.t += f.dt
	return s
}

// fly integrates from the muzzle until x passes stopX, the projectile stalls,
// or visit returns false. It reports whether stopX was reached.
func (f *flight) fly(v0, elevation, sightHeight, stopX float64, visit func(prev, cur state) bool) bool {
	cur := state{
		y:  -sightHeight,
		vx: v0 * math.Cos(elevation),
		vy: v0 * math.Sin(elevation),
	}
	for cur.x < stopX {
		if cur.vx <= 0 || cur.t > maxFlightTime {
			return false
		}
		next := f.step(cur)
		if visit != nil && !visit(cur, next) {
			return next.x >= stopX
		}
		cur = next
	}
	return true
}

// heightAt returns the height above the line of sight at range x, or -Inf if
// the projectile never gets there.
func (f *flight) heightAt(v0, elevation, sightHeight, x float64) float64 {
	height := math.Inf(-1)
	f.fly(v0, elevation, sightHeight, x, func(prev, cur state) bool {
		if cur.x >= x {
			height = lerp(prev, cur, (x-prev.x)/(cur.x-prev.x)).y
			return false
		}
		return true
	})
	return height
}

// zeroElevation finds the bore angle that crosses the line of sight at the
// zero range on a level range in still air.
func (s *pointMassSolver) zeroElevation(in Input) (float64, error) {
	if in.ZeroRangeM == 0 {
		return 0, nil
	}

	f := newFlight(in, s.dt, false)
	sight := in.SightHeightCM / 100
	lo, hi := 0.0, maxElevationRad
	if f.heightAt(in.MuzzleVelocityMS, hi, sight, in.ZeroRangeM) < 0 {
		return 0, ErrZeroUnreachable
	}

	for i := 0; i < zeroIterations; i++ {
		mid := (lo + hi) / 2
		if f.heightAt(in.MuzzleVelocityMS, mid, sight, in.ZeroRangeM) < 0 {
			lo = mid
		} else {
			hi = mid
		}
	}
	return (lo + hi) / 2, nil
}

func (s *pointMassSolver) Solve(in Input) (*Result, error) {
	in = in.Normalize()
	if err := Validate(in); err != nil {
		return nil, err
	}

	elevation, err := s.zeroElevation(in)
	if err != nil {
		return nil, err
	}

	f := newFlight(in, s.dt, true)
	mass := in.BulletWeightGr * GrainsToKg
	sight := in.SightHeightCM / 100

	ranges := recordRanges(in.MaxRangeM, in.StepM)
	points := make([]Point, 0, len(ranges))

	start := state{y: -sight, vx: in.MuzzleVelocityMS * math.Cos(elevation), vy: in.MuzzleVelocityMS * math.Sin(elevation)}
	points = append(points, makePoint(start, 0, mass, f.sound))

	result := &Result{
		ZeroAngleMOA:   RadToMOA(elevation),
		MaxOrdinateCM:  -sight * 100,
		SubsonicRangeM: -1,
		SpeedOfSoundMS: f.sound,
		AirDensity:     in.Atmosphere.Density(),
	}
	if in.MuzzleVelocityMS < f.sound {
		result.SubsonicRangeM = 0
	}

	next := 1
	result.Complete = f.fly(in.MuzzleVelocityMS, elevation, sight, in.MaxRangeM, func(prev, cur state) bool {
		if cur.x <= in.MaxRangeM && cur.y*100 > result.MaxOrdinateCM {
			result.MaxOrdinateCM = cur.y * 100
		}
		if result.SubsonicRangeM < 0 && cur.speed() < f.sound && prev.speed() >= f.sound {
			frac := (prev.speed() - f.sound) / (prev.speed() - cur.speed())
			result.SubsonicRangeM = prev.x + frac*(cur.x-prev.x)
		}
		for next < len(ranges) && cur.x >= ranges[next] {
			r := ranges[next]
			at := lerp(prev, cur, (r-prev.x)/(cur.x-prev.x))
			points = append(points, makePoint(at, r, mass, f.sound))
			next++
		}
		return true
	})
	if result.SubsonicRangeM > in.MaxRangeM {
		result.SubsonicRangeM = -1
	}

	result.Points = points
	return result, nil
}

func recordRanges(maxRange, step float64) []float64 {
	n := int(math.Floor(maxRange/step + 1e-9))
	ranges := make([]float64, 0, n+2)
	for i := 0; i <= n; i++ {
		ranges = append(ranges, float64(i)*step)
	}
	if last := ranges[len(ranges)-1]; maxRange-last > 1e-9 {
		ranges = append(ranges, maxRange)
	}
	return ranges
}

func makePoint(s state, rangeM, mass, sound float64) Point {
	v := s.speed()
	p := Point{
		RangeM:     rangeM,
		DropCM:     s.y * 100,
		WindageCM:  s.z * 100,
		VelocityMS: v,
		Mach:       v / sound,
		EnergyJ:    0.5 * mass * v * v,
		TimeS:      s.t,
	}
	if rangeM > 0 {
		p.DropMOA = RadToMOA(math.Atan2(s.y, rangeM))
		p.DropMil = RadToMil(math.Atan2(s.y, rangeM))
		p.WindageMOA = RadToMOA(math.Atan2(s.z, rangeM))
	}
	return p
}
