package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/san-kum/wheelsim/internal/config"
	"github.com/san-kum/wheelsim/internal/dynamo"
	"github.com/san-kum/wheelsim/internal/experiment"
	"github.com/san-kum/wheelsim/internal/sim"
	"github.com/san-kum/wheelsim/internal/storage"
	"github.com/san-kum/wheelsim/internal/viz"
)

var (
	dataDir  string
	logLevel string

	dt         float64
	duration   float64
	configFile string
	preset     string
	driver     string
	terrain    string
	metricSet  string
	overrides  []string
	noSave     bool
	mongoURI   string
	mongoDB    string

	frameRate int
	theme     string
	gifPath   string
)

// main registers the commands and runs the root command. With no
// subcommand it opens the interactive vehicle picker.
func main() {
	rootCmd := &cobra.Command{
		Use:           "wheelsim",
		Short:         "per-wheel vehicle dynamics simulator",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogging(logLevel)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return viz.RunInteractive(liveOptions())
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".wheelsim", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run a simulation and store its telemetry",
		Args:  cobra.NoArgs,
		RunE:  runSimulation,
	}
	addSetupFlags(runCmd)
	runCmd.Flags().BoolVar(&noSave, "no-save", false, "print metrics without storing the run")
	runCmd.Flags().StringVar(&mongoURI, "mongo", "", "also write the run to this MongoDB uri")
	runCmd.Flags().StringVar(&mongoDB, "mongo-db", "wheelsim", "MongoDB database")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}
	listCmd.Flags().StringVar(&mongoURI, "mongo", "", "list runs from this MongoDB uri instead")
	listCmd.Flags().StringVar(&mongoDB, "mongo-db", "wheelsim", "MongoDB database")

	showCmd := &cobra.Command{
		Use:   "show [run_id]",
		Short: "show run metadata, metrics and column statistics",
		Args:  cobra.ExactArgs(1),
		RunE:  showRun,
	}

	deleteCmd := &cobra.Command{
		Use:   "delete [run_id]",
		Short: "delete a stored run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return storage.New(dataDir).Delete(args[0])
		},
	}

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "drive a vehicle live in the terminal",
		Args:  cobra.NoArgs,
		RunE:  runLive,
	}
	addSetupFlags(liveCmd)
	liveCmd.Flags().IntVar(&frameRate, "fps", 30, "frame rate")
	liveCmd.Flags().StringVar(&theme, "theme", viz.ThemeAsphalt.Name, "color theme ("+strings.Join(viz.ThemeNames(), ", ")+")")
	liveCmd.Flags().StringVar(&gifPath, "gif", "wheelsim.gif", "where g saves recordings")

	rootCmd.AddCommand(runCmd, listCmd, showCmd, deleteCmd, liveCmd)
	rootCmd.AddCommand(analysisCommands()...)
	rootCmd.AddCommand(toolCommands()...)

	if err := rootCmd.Execute(); err != nil {
		logrus.Error(err)
		os.Exit(1)
	}
}

func setupLogging(level string) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return err
	}
	logrus.SetLevel(lvl)
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return nil
}

// addSetupFlags adds the flags that pick and adjust the simulated setup.
func addSetupFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "vehicle preset ("+strings.Join(config.ListPresets(), ", ")+")")
	cmd.Flags().StringVar(&driver, "driver", "", "named driver program, see `wheelsim registry`")
	cmd.Flags().StringVar(&terrain, "terrain", "", "named terrain, see `wheelsim registry`")
	cmd.Flags().StringVar(&metricSet, "metrics", "", "named metric set")
	cmd.Flags().Float64Var(&dt, "dt", 0, "timestep (s)")
	cmd.Flags().Float64Var(&duration, "time", 0, "duration (s)")
	cmd.Flags().StringArrayVar(&overrides, "set", nil, "override a config field, e.g. --set vehicle.body.mass=1400")
}

// buildConfig resolves the setup flags. A config file is the base when
// given; flags override it.
func buildConfig() (*config.Config, error) {
	set, err := parseAssignments(overrides)
	if err != nil {
		return nil, err
	}
	exp := experiment.Config{
		Preset:   preset,
		Driver:   driver,
		Terrain:  terrain,
		Metrics:  metricSet,
		Dt:       dt,
		Duration: duration,
		Set:      set,
	}
	reg := experiment.NewRegistry()
	if configFile == "" {
		return exp.Resolve(reg)
	}

	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if preset != "" {
		return nil, fmt.Errorf("--preset and --config are exclusive; put `preset: %s` in the file", preset)
	}
	if driver != "" {
		if cfg.Driver, err = reg.GetDriver(driver); err != nil {
			return nil, err
		}
	}
	if terrain != "" {
		if cfg.Terrain, err = reg.GetTerrain(terrain); err != nil {
			return nil, err
		}
	}
	if metricSet != "" {
		if cfg.Sim.Metrics, err = reg.GetMetrics(metricSet); err != nil {
			return nil, err
		}
	}
	if dt > 0 {
		cfg.Sim.Dt = dt
	}
	if duration > 0 {
		cfg.Sim.Duration = duration
	}
	for _, k := range sortedKeys(set) {
		if err := cfg.Set(k, set[k]); err != nil {
			return nil, err
		}
	}
	return cfg, cfg.Validate()
}

func parseAssignments(list []string) (map[string]string, error) {
	out := make(map[string]string, len(list))
	for _, a := range list {
		k, v, ok := strings.Cut(a, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("expected path=value, got %q", a)
		}
		out[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	return out, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// signalContext is cancelled by Ctrl-C so long runs stop cleanly.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig()
	if err != nil {
		return err
	}
	s, err := sim.FromConfig(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	fmt.Printf("running %s with %s driver for %.1fs...\n", cfg.Vehicle.Name, cfg.Driver.Kind, cfg.Sim.Duration)
	start := time.Now()
	result, err := s.Run(ctx, cfg.Sim.Dynamo())
	if result == nil {
		return err
	}
	if err != nil {
		logrus.WithError(err).Warn("run stopped early")
	}
	elapsed := time.Since(start)

	fmt.Printf("completed in %v\n", elapsed.Round(time.Millisecond))
	fmt.Printf("steps: %d (%.0f steps/s)\n", result.StepsTaken, float64(result.StepsTaken)/elapsed.Seconds())

	if !noSave {
		st := storage.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
		runID, err := st.Save(cfg, result)
		if err != nil {
			return err
		}
		fmt.Printf("run id: %s\n", runID)

		if mongoURI != "" {
			if err := writeMongo(ctx, cfg, runID, result); err != nil {
				return err
			}
		}
	}

	fmt.Println("\nmetrics:")
	printMetrics(result.Metrics)
	return nil
}

func writeMongo(ctx context.Context, cfg *config.Config, runID string, result *dynamo.Result) error {
	sink, err := storage.NewMongoSink(ctx, mongoURI, mongoDB, "runs")
	if err != nil {
		return err
	}
	defer sink.Close(context.Background())

	meta := storage.NewMetadata(cfg, result)
	meta.ID = runID
	if err := sink.Write(ctx, meta, result); err != nil {
		return err
	}
	fmt.Printf("written to %s/%s\n", mongoDB, "runs")
	return nil
}

func printMetrics(m map[string]float64) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, name := range sortedKeys(m) {
		fmt.Fprintf(w, "  %s\t%.6g\n", name, m[name])
	}
	w.Flush()
}

func listRuns(cmd *cobra.Command, args []string) error {
	var (
		runs []storage.RunMetadata
		err  error
	)
	if mongoURI != "" {
		ctx, cancel := signalContext()
		defer cancel()
		sink, serr := storage.NewMongoSink(ctx, mongoURI, mongoDB, "runs")
		if serr != nil {
			return serr
		}
		defer sink.Close(context.Background())
		runs, err = sink.List(ctx, 50)
	} else {
		runs, err = storage.New(dataDir).List()
	}
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tVEHICLE\tDRIVER\tTIME\tDURATION\tDT\tSTEPS")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.2fs\t%.4fs\t%d\n",
			run.ID,
			run.Name,
			run.Driver,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Duration,
			run.Dt,
			run.Steps,
		)
	}
	return w.Flush()
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig()
	if err != nil {
		return err
	}
	s, err := sim.FromConfig(cfg)
	if err != nil {
		return err
	}
	opts := liveOptions()
	opts.Title = cfg.Vehicle.Name
	return viz.Run(s, cfg.Sim, opts)
}

func liveOptions() viz.Options {
	opts := viz.DefaultOptions()
	if frameRate > 0 {
		opts.FPS = frameRate
	}
	if theme != "" {
		opts.Theme = theme
	}
	if gifPath != "" {
		opts.GIFPath = gifPath
	}
	return opts
}
