package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/AI2HU/bulletcalc/internal/ballistics"
	"github.com/AI2HU/bulletcalc/internal/models"
	"github.com/AI2HU/bulletcalc/internal/services"
)

var calcOpts struct {
	weightGr    float64
	bc          float64
	dragModel   string
	velocityMS  float64
	sightCM     float64
	zeroM       float64
	maxRangeM   float64
	stepM       float64
	windMS      float64
	windDeg     float64
	angleDeg    float64
	temperature float64
	altitude    float64
	pressure    float64
	humidity    float64
	units       string
	profileID   string
	save        bool
}

var calcCmd = &cobra.Command{
	Use:   "calc",
	Short: "Solve a trajectory and print the drop table",
	Long: `Solve a point-mass trajectory and print drop, windage, velocity and energy
at each step. Inputs come from flags, or from a saved profile with --profile.

Wind angle is measured clockwise from the line of fire: 90 is a full-value
wind from the right, which pushes the bullet left.`,
	Example: `  bulletcalc calc --weight 168 --bc 0.462 --velocity 800 --zero 100 --max-range 800
  bulletcalc calc --profile 0b6c... --wind 4 --wind-angle 90 --units mil`,
	RunE: runCalc,
}

func init() {
	f := calcCmd.Flags()
	f.Float64Var(&calcOpts.weightGr, "weight", 0, "Bullet weight in grains")
	f.Float64Var(&calcOpts.bc, "bc", 0, "Ballistic coefficient")
	f.StringVar(&calcOpts.dragModel, "drag", "G1", "Drag model (G1 or G7)")
	f.Float64Var(&calcOpts.velocityMS, "velocity", 0, "Muzzle velocity in m/s")
	f.Float64Var(&calcOpts.sightCM, "sight-height", services.DefaultSightHeightCM, "Sight height over bore in cm")
	f.Float64Var(&calcOpts.zeroM, "zero", services.DefaultZeroRangeM, "Zero range in metres")
	f.Float64Var(&calcOpts.maxRangeM, "max-range", services.DefaultMaxRangeM, "Maximum range in metres")
	f.Float64Var(&calcOpts.stepM, "step", 0, "Table step in metres (default 100, or the max range if shorter)")
	f.Float64Var(&calcOpts.windMS, "wind", 0, "Wind speed in m/s")
	f.Float64Var(&calcOpts.windDeg, "wind-angle", 90, "Wind direction in degrees, clockwise from the line of fire")
	f.Float64Var(&calcOpts.angleDeg, "angle", 0, "Shooting angle in degrees (positive uphill)")
	f.Float64Var(&calcOpts.temperature, "temperature", 15, "Air temperature in Celsius")
	f.Float64Var(&calcOpts.altitude, "altitude", 0, "Altitude in metres, used when --pressure is not set")
	f.Float64Var(&calcOpts.pressure, "pressure", 0, "Station pressure in hPa")
	f.Float64Var(&calcOpts.humidity, "humidity", 0, "Relative humidity in percent")
	f.StringVar(&calcOpts.units, "units", "moa", "Angular units for corrections (moa or mil)")
	f.StringVar(&calcOpts.profileID, "profile", "", "Solve from a saved profile (requires MongoDB)")
	f.BoolVar(&calcOpts.save, "save", false, "Save the calculation to MongoDB when connected")
}

func calcAtmosphere() *ballistics.Atmosphere {
	atm := ballistics.Standard()
	atm.TemperatureC = calcOpts.temperature
	atm.AltitudeM = calcOpts.altitude
	atm.HumidityPct = calcOpts.humidity
	atm.PressureHPa = calcOpts.pressure
	if calcOpts.pressure == 0 && calcOpts.altitude == 0 {
		atm.PressureHPa = ballistics.Standard().PressureHPa
	}
	return &atm
}

func runCalc(cmd *cobra.Command, args []string) error {
	units := strings.ToLower(calcOpts.units)
	if units != "moa" && units != "mil" {
		return fmt.Errorf("invalid units %q (choose moa or mil)", calcOpts.units)
	}

	ctx := context.Background()
	if calcOpts.profileID == "" && !calcOpts.save {
		in, err := services.BuildInput(calcRequest(cmd))
		if err != nil {
			return err
		}
		result, err := ballistics.New().Solve(in)
		if err != nil {
			return err
		}
		printTrajectory(os.Stdout, in, result, units)
		return nil
	}

	database, err := openDatabase(ctx)
	if err != nil {
		return err
	}
	defer database.Disconnect(ctx)

	svc := services.NewCalculationService(database, nil)

	var resp *models.CalculationResponse
	if calcOpts.profileID != "" {
		resp, err = svc.CalculateProfile(ctx, calcOpts.profileID, &models.ProfileCalculateRequest{
			MaxRangeM:        &calcOpts.maxRangeM,
			StepM:            stepFlag(cmd),
			WindSpeedMS:      calcOpts.windMS,
			WindAngleDeg:     calcOpts.windDeg,
			ShootingAngleDeg: calcOpts.angleDeg,
			Atmosphere:       calcAtmosphere(),
		}, "")
	} else {
		resp, err = svc.Calculate(ctx, calcRequest(cmd), "")
	}
	if err != nil {
		return err
	}

	printTrajectory(os.Stdout, resp.Input, resp.Result, units)
	if resp.Saved {
		fmt.Printf("\n%s💾 Saved as %s%s\n", SuccessStyle, FormatSecondary(resp.ID), Reset)
	} else if calcOpts.save {
		fmt.Println(FormatWarning("\n⚠️  MongoDB unavailable: calculation not saved"))
	}
	return nil
}

// stepFlag returns nil unless --step was given
func stepFlag(cmd *cobra.Command) *float64 {
	if !cmd.Flags().Changed("step") {
		return nil
	}
	return &calcOpts.stepM
}

func calcRequest(cmd *cobra.Command) *models.CalculateRequest {
	return &models.CalculateRequest{
		BulletWeightGr:       calcOpts.weightGr,
		BallisticCoefficient: calcOpts.bc,
		DragModel:            calcOpts.dragModel,
		MuzzleVelocityMS:     calcOpts.velocityMS,
		SightHeightCM:        &calcOpts.sightCM,
		ZeroRangeM:           &calcOpts.zeroM,
		MaxRangeM:            &calcOpts.maxRangeM,
		StepM:                stepFlag(cmd),
		WindSpeedMS:          calcOpts.windMS,
		WindAngleDeg:         calcOpts.windDeg,
		ShootingAngleDeg:     calcOpts.angleDeg,
		Atmosphere:           calcAtmosphere(),
	}
}

// printTrajectory writes the summary and drop table
func printTrajectory(out io.Writer, in ballistics.Input, r *ballistics.Result, units string) {
	fmt.Fprintf(out, "%s🎯 Trajectory%s\n", HeaderStyle, Reset)
	fmt.Fprintf(out, "%s============%s\n", DimStyle, Reset)
	fmt.Fprintln(out, FormatLabelValue("Load:", fmt.Sprintf("%.0f gr, %s BC %.3f, %.0f m/s", in.BulletWeightGr, in.DragModel, in.BallisticCoefficient, in.MuzzleVelocityMS)))
	fmt.Fprintln(out, FormatLabelValue("Zero:", fmt.Sprintf("%.0f m (bore angle %.2f MOA)", in.ZeroRangeM, r.ZeroAngleMOA)))
	fmt.Fprintln(out, FormatLabelValue("Air:", fmt.Sprintf("%.3f kg/m³, speed of sound %.1f m/s", r.AirDensity, r.SpeedOfSoundMS)))
	fmt.Fprintln(out, FormatLabelValue("Max ordinate:", fmt.Sprintf("%.1f cm", r.MaxOrdinateCM)))
	if r.SubsonicRangeM >= 0 {
		fmt.Fprintln(out, FormatLabelValue("Goes subsonic:", fmt.Sprintf("%.0f m", r.SubsonicRangeM)))
	} else {
		fmt.Fprintln(out, FormatLabelValue("Goes subsonic:", "beyond max range"))
	}
	fmt.Fprintln(out)

	unit := strings.ToUpper(units)
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(w, "RANGE m\tDROP cm\tDROP %s\tWIND cm\tWIND %s\tVEL m/s\tMACH\tENERGY J\tTIME s\t\n", unit, unit)

	for _, p := range r.Points {
		drop, wind := p.DropMOA, p.WindageMOA
		if units == "mil" {
			drop = p.DropMil
			wind = ballistics.RadToMil(ballistics.MOAToRad(p.WindageMOA))
		}
		fmt.Fprintf(w, "%.0f\t%.1f\t%.2f\t%.1f\t%.2f\t%.0f\t%.2f\t%.0f\t%.3f\t\n",
			p.RangeM, p.DropCM, drop, p.WindageCM, wind, p.VelocityMS, p.Mach, p.EnergyJ, p.TimeS)
	}
	w.Flush()

	if !r.Complete {
		fmt.Fprintln(out, FormatWarning("⚠️  Projectile stalled before reaching max range"))
	}
}
