package main

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/wheelsim/internal/automation"
	"github.com/san-kum/wheelsim/internal/config"
	"github.com/san-kum/wheelsim/internal/drivetrain"
	"github.com/san-kum/wheelsim/internal/experiment"
	"github.com/san-kum/wheelsim/internal/friction"
	"github.com/san-kum/wheelsim/internal/optim"
	"github.com/san-kum/wheelsim/internal/sim"
	"github.com/san-kum/wheelsim/internal/storage"
)

var (
	sweepPath  string
	sweepMin   float64
	sweepMax   float64
	sweepSteps int

	mcPaths   []string
	mcPerturb float64
	mcTrials  int
	mcSeed    int64

	tuneParams   []string
	tuneMetric   string
	tuneMaximize bool

	benchTime float64
)

func toolCommands() []*cobra.Command {
	presetsCmd := &cobra.Command{
		Use:   "presets [name]",
		Short: "list vehicle presets, or print one as yaml",
		Args:  cobra.MaximumNArgs(1),
		RunE:  showPresets,
	}

	registryCmd := &cobra.Command{
		Use:   "registry",
		Short: "list named drivers, terrains and metric sets",
		Args:  cobra.NoArgs,
		RunE:  showRegistry,
	}

	curveCmd := &cobra.Command{
		Use:   "curve [surface...]",
		Short: "plot tire friction curves",
		RunE:  showCurves,
	}

	dynoCmd := &cobra.Command{
		Use:   "dyno [preset]",
		Short: "print a preset's engine power and torque",
		Args:  cobra.ExactArgs(1),
		RunE:  showDyno,
	}

	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run a yaml scenario and check its expectations",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "run one setup across a range of a config value",
		Args:  cobra.NoArgs,
		RunE:  runSweep,
	}
	addSetupFlags(sweepCmd)
	sweepCmd.Flags().StringVar(&sweepPath, "path", "vehicle.body.mass", "config path to sweep")
	sweepCmd.Flags().Float64Var(&sweepMin, "min", 800, "first value")
	sweepCmd.Flags().Float64Var(&sweepMax, "max", 2000, "last value")
	sweepCmd.Flags().IntVar(&sweepSteps, "steps", 5, "number of values")

	mcCmd := &cobra.Command{
		Use:   "montecarlo",
		Short: "run randomly perturbed copies of one setup",
		Args:  cobra.NoArgs,
		RunE:  runMonteCarlo,
	}
	addSetupFlags(mcCmd)
	mcCmd.Flags().StringSliceVar(&mcPaths, "paths", []string{"vehicle.body.mass"}, "config paths to perturb")
	mcCmd.Flags().Float64Var(&mcPerturb, "perturb", 0.1, "perturbation as a fraction of the base value")
	mcCmd.Flags().IntVar(&mcTrials, "trials", 20, "number of trials")
	mcCmd.Flags().Int64Var(&mcSeed, "seed", 0, "random seed, 0 for time based")

	tuneCmd := &cobra.Command{
		Use:   "tune",
		Short: "grid search config values for the best metric",
		Args:  cobra.NoArgs,
		RunE:  runTune,
	}
	addSetupFlags(tuneCmd)
	tuneCmd.Flags().StringArrayVar(&tuneParams, "param", nil, "path=lo:hi:n, repeatable")
	tuneCmd.Flags().StringVar(&tuneMetric, "metric", "distance", "metric to optimize")
	tuneCmd.Flags().BoolVar(&tuneMaximize, "maximize", false, "maximize instead of minimize")

	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "measure simulation speed for each preset",
		Args:  cobra.NoArgs,
		RunE:  runBench,
	}
	benchCmd.Flags().Float64Var(&benchTime, "time", 10, "simulated seconds per preset")

	return []*cobra.Command{presetsCmd, registryCmd, curveCmd, dynoCmd, scenarioCmd, sweepCmd, mcCmd, tuneCmd, benchCmd}
}

func showPresets(cmd *cobra.Command, args []string) error {
	if len(args) == 1 {
		cfg, err := config.GetPreset(args[0])
		if err != nil {
			return err
		}
		out, err := yaml.Marshal(cfg)
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(out)
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PRESET\tWHEELS\tMASS\tPOWER\tENGINE")
	for _, name := range config.ListPresets() {
		cfg, err := config.GetPreset(name)
		if err != nil {
			return err
		}
		v := cfg.Vehicle
		fmt.Fprintf(w, "%s\t%d\t%.0f kg\t%.0f kW\t%s\n", name, len(v.Wheels), v.Body.Mass, v.Engine.MaxPower, v.Engine.Type)
	}
	return w.Flush()
}

func showRegistry(cmd *cobra.Command, args []string) error {
	reg := experiment.NewRegistry()
	fmt.Printf("drivers:     %s\n", strings.Join(reg.ListDrivers(), ", "))
	fmt.Printf("terrains:    %s\n", strings.Join(reg.ListTerrains(), ", "))
	fmt.Printf("metric sets: %s\n", strings.Join(reg.ListMetricSets(), ", "))
	return nil
}

func showCurves(cmd *cobra.Command, args []string) error {
	presets := friction.Presets()
	if len(args) > 0 {
		presets = presets[:0]
		for _, a := range args {
			p, err := friction.ParsePreset(a)
			if err != nil {
				return err
			}
			presets = append(presets, p)
		}
	}

	var series [][]float64
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SURFACE\tPEAK\tPEAK SLIP\tAT FULL SLIP")
	for _, p := range presets {
		c := friction.Get(p)
		_, values := c.Samples(80, 1)
		series = append(series, values)
		fmt.Fprintf(w, "%s\t%.3f\t%.3f\t%.3f\n", p, c.Peak(), c.PeakSlip(), c.Evaluate(1))
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Println()

	names := lo.Map(presets, func(p friction.Preset, _ int) string { return p.String() })
	fmt.Println(asciigraph.PlotMany(series,
		asciigraph.Height(15),
		asciigraph.Caption("friction vs slip 0-1: "+strings.Join(names, ", ")),
	))
	return nil
}

func showDyno(cmd *cobra.Command, args []string) error {
	cfg, err := config.GetPreset(args[0])
	if err != nil {
		return err
	}
	e := cfg.Vehicle.Engine

	const points = 40
	power := make([]float64, 0, points)
	torque := make([]float64, 0, points)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RPM\tPOWER\tTORQUE")
	for i := 1; i <= points; i++ {
		frac := float64(i) / points
		rpm := frac * e.RevLimiterRPM
		p := e.PowerCurve.Evaluate(frac) * e.MaxPower
		t := p * 1000 / drivetrain.RPMToAngularVelocity(rpm)
		power = append(power, p)
		torque = append(torque, t)
		if i%4 == 0 {
			fmt.Fprintf(w, "%.0f\t%.1f kW\t%.0f Nm\n", rpm, p, t)
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(asciigraph.PlotMany([][]float64{power, torque},
		asciigraph.Height(12),
		asciigraph.Width(points*2),
		asciigraph.SeriesColors(asciigraph.Red, asciigraph.Blue),
		asciigraph.Caption(fmt.Sprintf("%s: power kW (red), torque Nm (blue), 0-%.0f rpm", args[0], e.RevLimiterRPM)),
	))

	pt, ptRPM := e.PeakTorque()
	pp, ppRPM := e.PeakPower()
	fmt.Printf("\npeak torque: %.0f Nm @ %.0f rpm\n", pt, ptRPM)
	fmt.Printf("peak power:  %.1f kW @ %.0f rpm\n", pp, ppRPM)
	return nil
}

func runScenario(cmd *cobra.Command, args []string) error {
	sc, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}
	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	fmt.Printf("scenario: %s\n", sc.Name)
	if sc.Description != "" {
		fmt.Println(sc.Description)
	}
	results, err := automation.RunScenario(ctx, sc, experiment.NewRegistry(), st)
	for _, r := range results {
		status := "PASS"
		if !r.Passed() {
			status = "FAIL"
		}
		line := fmt.Sprintf("  [%s] %s", status, r.Name)
		if r.RunID != "" {
			line += " (" + r.RunID + ")"
		}
		fmt.Println(line)
		for _, f := range r.Failures {
			fmt.Printf("      %s\n", f)
		}
	}
	if err != nil {
		return err
	}

	failed := lo.CountBy(results, func(r automation.StepResult) bool { return !r.Passed() })
	if failed > 0 {
		return fmt.Errorf("%d of %d steps failed", failed, len(results))
	}
	return nil
}

// experimentConfig turns the setup flags into an experiment config for
// the batch commands.
func experimentConfig() (experiment.Config, error) {
	if configFile != "" {
		return experiment.Config{}, fmt.Errorf("--config is not supported here; use --preset and --set")
	}
	set, err := parseAssignments(overrides)
	if err != nil {
		return experiment.Config{}, err
	}
	return experiment.Config{
		Preset:   preset,
		Driver:   driver,
		Terrain:  terrain,
		Metrics:  metricSet,
		Dt:       dt,
		Duration: duration,
		Set:      set,
	}, nil
}

func runSweep(cmd *cobra.Command, args []string) error {
	base, err := experimentConfig()
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	sweep := &automation.ParameterSweep{Base: base, Path: sweepPath, Min: sweepMin, Max: sweepMax, Steps: sweepSteps}
	results, err := automation.RunSweep(ctx, sweep, experiment.NewRegistry())
	if err != nil {
		return err
	}

	names := lo.Uniq(lo.FlatMap(results, func(r automation.SweepResult, _ int) []string { return sortedKeys(r.Metrics) }))
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\t%s\n", sweepPath, strings.Join(names, "\t"))
	for _, r := range results {
		if r.Err != nil {
			fmt.Fprintf(w, "%.4g\terror: %v\n", r.Value, r.Err)
			continue
		}
		cells := lo.Map(names, func(n string, _ int) string { return strconv.FormatFloat(r.Metrics[n], 'g', 5, 64) })
		fmt.Fprintf(w, "%.4g\t%s\n", r.Value, strings.Join(cells, "\t"))
	}
	return w.Flush()
}

func runMonteCarlo(cmd *cobra.Command, args []string) error {
	base, err := experimentConfig()
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	mc := &automation.MonteCarloConfig{
		Base:         base,
		Paths:        mcPaths,
		Perturbation: mcPerturb,
		NumTrials:    mcTrials,
		Seed:         mcSeed,
	}
	start := time.Now()
	results, err := automation.RunMonteCarlo(ctx, mc, experiment.NewRegistry())
	if err != nil {
		return err
	}

	stable, unstable := automation.MonteCarloStats(results)
	fmt.Printf("%d trials in %v\n", len(results), time.Since(start).Round(time.Millisecond))
	fmt.Printf("stable: %d  unstable: %d (%.1f%%)\n\n", stable, unstable, 100*float64(stable)/float64(max(len(results), 1)))

	names := lo.Uniq(lo.FlatMap(results, func(r automation.MonteCarloResult, _ int) []string { return sortedKeys(r.Metrics) }))
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "METRIC\tMIN\tMEAN\tMAX")
	for _, n := range names {
		vals := lo.FilterMap(results, func(r automation.MonteCarloResult, _ int) (float64, bool) {
			v, ok := r.Metrics[n]
			return v, ok && !math.IsNaN(v)
		})
		if len(vals) == 0 {
			continue
		}
		fmt.Fprintf(w, "%s\t%.4g\t%.4g\t%.4g\n", n, lo.Min(vals), lo.Sum(vals)/float64(len(vals)), lo.Max(vals))
	}
	return w.Flush()
}

// parseRange reads path=lo:hi:n.
func parseRange(s string) (string, []float64, error) {
	path, spec, ok := strings.Cut(s, "=")
	parts := strings.Split(spec, ":")
	if !ok || len(parts) != 3 {
		return "", nil, fmt.Errorf("expected path=lo:hi:n, got %q", s)
	}
	low, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return "", nil, err
	}
	high, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return "", nil, err
	}
	n, err := strconv.Atoi(parts[2])
	if err != nil {
		return "", nil, err
	}
	return path, optim.Linspace(low, high, n), nil
}

func runTune(cmd *cobra.Command, args []string) error {
	if len(tuneParams) == 0 {
		return fmt.Errorf("at least one --param is required")
	}
	cfg, err := buildConfig()
	if err != nil {
		return err
	}

	var (
		paths  []string
		ranges [][]float64
	)
	for _, p := range tuneParams {
		path, values, err := parseRange(p)
		if err != nil {
			return err
		}
		paths = append(paths, path)
		ranges = append(ranges, values)
	}

	ctx, cancel := signalContext()
	defer cancel()

	gs := optim.NewGridSearch(paths, ranges)
	gs.Maximize = tuneMaximize
	best, err := gs.Search(ctx, cfg, tuneMetric)
	if err != nil {
		return err
	}

	fmt.Printf("evaluated %d points (%d failed)\n", best.Evaluated, best.Failed)
	fmt.Printf("best %s: %.6g\n", tuneMetric, best.Value)
	for _, p := range paths {
		fmt.Printf("  %s = %.6g\n", p, best.Params[p])
	}
	return nil
}

func runBench(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PRESET\tSTEPS\tELAPSED\tSTEPS/S\tREALTIME")
	for _, name := range config.ListPresets() {
		cfg, err := config.GetPreset(name)
		if err != nil {
			return err
		}
		cfg.Sim.Duration = benchTime
		cfg.Sim.Metrics = nil
		s, err := sim.FromConfig(cfg)
		if err != nil {
			return err
		}

		start := time.Now()
		result, err := s.Run(ctx, cfg.Sim.Dynamo())
		elapsed := time.Since(start)
		if err != nil {
			fmt.Fprintf(w, "%s\terror: %v\n", name, err)
			continue
		}
		rate := float64(result.StepsTaken) / elapsed.Seconds()
		fmt.Fprintf(w, "%s\t%d\t%v\t%.0f\t%.0fx\n", name, result.StepsTaken, elapsed.Round(time.Microsecond), rate, benchTime/elapsed.Seconds())
	}
	return w.Flush()
}
