package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/wheelsim/internal/analysis"
	"github.com/san-kum/wheelsim/internal/dynamo"
	"github.com/san-kum/wheelsim/internal/export"
	"github.com/san-kum/wheelsim/internal/storage"
	"github.com/san-kum/wheelsim/internal/vehicle"
)

var (
	columns   []string
	outPath   string
	minHz     float64
	xColumn   string
	yColumn   string
	spectCol  string
	crossCol  string
	crossAt   float64
	plotWidth int
)

var summaryColumns = []string{"speed", "engine_rpm", "slip_angle", "roll", "pitch", "yaw_rate", "combined_load"}

func analysisCommands() []*cobra.Command {
	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot telemetry columns in the terminal, or to png/svg/pdf with --out",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringSliceVar(&columns, "columns", []string{"speed", "engine_rpm", "steer"}, "columns to plot")
	plotCmd.Flags().StringVar(&outPath, "out", "", "write one chart image instead")
	plotCmd.Flags().IntVar(&plotWidth, "width", 80, "terminal plot width")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export a run as json, or its driving line as svg",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}
	exportCmd.Flags().StringVar(&outPath, "out", "", "output file (.json or .svg); stdout json when empty")

	spectrumCmd := &cobra.Command{
		Use:   "spectrum [run_id]",
		Short: "frequency analysis of a telemetry column",
		Args:  cobra.ExactArgs(1),
		RunE:  spectrumRun,
	}
	spectrumCmd.Flags().StringVar(&spectCol, "column", "pos_y", "column to analyze")
	spectrumCmd.Flags().Float64Var(&minHz, "min-hz", 0.2, "ignore frequencies below this")

	scatterCmd := &cobra.Command{
		Use:   "scatter [run_id]",
		Short: "scatter one column against another, optionally only at crossings",
		Args:  cobra.ExactArgs(1),
		RunE:  scatterRun,
	}
	scatterCmd.Flags().StringVar(&xColumn, "x", "speed", "x column")
	scatterCmd.Flags().StringVar(&yColumn, "y", "slip_angle", "y column")
	scatterCmd.Flags().StringVar(&crossCol, "cross", "", "only sample where this column rises through --at")
	scatterCmd.Flags().Float64Var(&crossAt, "at", 0, "crossing threshold")

	return []*cobra.Command{plotCmd, exportCmd, spectrumCmd, scatterCmd}
}

// loadRun reads a stored run's metadata and telemetry.
func loadRun(runID string) (*storage.RunMetadata, *dynamo.Result, error) {
	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return nil, nil, err
	}
	result, err := st.LoadTelemetry(runID)
	if err != nil {
		return nil, nil, err
	}
	if len(result.Telemetry) == 0 {
		return nil, nil, fmt.Errorf("no data in run %s", runID)
	}
	return meta, result, nil
}

func column(meta *storage.RunMetadata, name string) (int, error) {
	for i, c := range meta.Columns {
		if c == name {
			return i, nil
		}
	}
	return -1, fmt.Errorf("unknown column %q (have %s)", name, strings.Join(meta.Columns, ", "))
}

func showRun(cmd *cobra.Command, args []string) error {
	meta, result, err := loadRun(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("run:      %s\n", meta.ID)
	fmt.Printf("vehicle:  %s\n", meta.Name)
	fmt.Printf("driver:   %s\n", meta.Driver)
	fmt.Printf("recorded: %s\n", meta.Timestamp.Format("2006-01-02 15:04:05"))
	fmt.Printf("steps:    %d (dt %.4fs, %.2fs)\n", meta.Steps, meta.Dt, meta.Duration)
	fmt.Printf("wheels:   %s\n", strings.Join(meta.Wheels, ", "))
	for _, e := range meta.Errors {
		fmt.Printf("error:    %s\n", e)
	}

	fmt.Println("\nmetrics:")
	printMetrics(meta.Metrics)

	fmt.Println("\ncolumns:")
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, name := range summaryColumns {
		idx, err := column(meta, name)
		if err != nil {
			continue
		}
		fmt.Fprintf(w, "  %s\t%s\n", name, analysis.Summarize(result.Column(idx)))
	}
	for i, wheel := range meta.Wheels {
		load := analysis.Summarize(result.Column(vehicle.WheelColumn(i, vehicle.WheelLoad)))
		fmt.Fprintf(w, "  %s.load\t%s\n", wheel, load)
	}
	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	meta, result, err := loadRun(args[0])
	if err != nil {
		return err
	}

	if outPath != "" {
		chart, err := export.TimeChart(result, meta.Columns, columns...)
		if err != nil {
			return err
		}
		chart.Title = fmt.Sprintf("%s: %s", meta.ID, chart.Title)
		if err := chart.Save(outPath); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", outPath)
		return nil
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("vehicle: %s\n", meta.Name)
	fmt.Printf("samples: %d\n\n", len(result.Telemetry))

	for _, name := range columns {
		idx, err := column(meta, name)
		if err != nil {
			return err
		}
		data := result.Column(idx)
		if name == "speed" {
			for i := range data {
				data[i] *= 3.6
			}
			name = "speed (km/h)"
		}
		graph := asciigraph.Plot(data,
			asciigraph.Height(10),
			asciigraph.Width(plotWidth),
			asciigraph.Caption(name),
		)
		fmt.Println(graph)
		fmt.Println()
	}
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	meta, result, err := loadRun(args[0])
	if err != nil {
		return err
	}

	switch strings.ToLower(filepath.Ext(outPath)) {
	case "":
		return storage.WriteJSON(os.Stdout, *meta, result)
	case ".json":
		if err := storage.ExportJSON(outPath, *meta, result); err != nil {
			return err
		}
	case ".svg":
		path := analysis.NewScatter(result, vehicle.ColPosX, vehicle.ColPosZ)
		if path == nil {
			return fmt.Errorf("run %s has no position data", meta.ID)
		}
		svg := export.PathSVG(path.Points, 800, 800, "#00ccff")
		if err := os.WriteFile(outPath, []byte(svg), 0644); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unsupported export format %q", filepath.Ext(outPath))
	}
	fmt.Printf("wrote %s\n", outPath)
	return nil
}

func spectrumRun(cmd *cobra.Command, args []string) error {
	meta, result, err := loadRun(args[0])
	if err != nil {
		return err
	}
	idx, err := column(meta, spectCol)
	if err != nil {
		return err
	}
	if len(result.Times) < 8 {
		return fmt.Errorf("need at least 8 samples, have %d", len(result.Times))
	}

	sampleDt := result.Times[1] - result.Times[0]
	data := result.Column(idx)
	freqs, power := analysis.Spectrum(data, sampleDt)

	// plot the part of the spectrum up to 10 Hz, where ride modes live
	n := len(freqs)
	for n > 1 && freqs[n-1] > 10 {
		n--
	}

	fmt.Printf("frequency analysis: %s\n", meta.ID)
	fmt.Printf("column: %s (%s)\n\n", spectCol, analysis.Summarize(data))

	graph := asciigraph.Plot(power[:n],
		asciigraph.Height(15),
		asciigraph.Width(80),
		asciigraph.Caption(fmt.Sprintf("amplitude spectrum 0-%.1f Hz", freqs[n-1])),
	)
	fmt.Println(graph)
	fmt.Println()

	freq := analysis.DominantFrequency(data, sampleDt, minHz)
	fmt.Printf("dominant frequency: %.3f hz\n", freq)
	if freq > 0 {
		fmt.Printf("period: %.3f s\n", 1.0/freq)
	}
	return nil
}

func scatterRun(cmd *cobra.Command, args []string) error {
	meta, result, err := loadRun(args[0])
	if err != nil {
		return err
	}
	xi, err := column(meta, xColumn)
	if err != nil {
		return err
	}
	yi, err := column(meta, yColumn)
	if err != nil {
		return err
	}

	var sc *analysis.Scatter
	if crossCol != "" {
		ci, err := column(meta, crossCol)
		if err != nil {
			return err
		}
		sc = analysis.NewSection(result, ci, crossAt, xi, yi)
		fmt.Printf("%s vs %s where %s rises through %g\n\n", yColumn, xColumn, crossCol, crossAt)
	} else {
		sc = analysis.NewScatter(result, xi, yi)
		fmt.Printf("%s vs %s\n\n", yColumn, xColumn)
	}
	fmt.Println(sc.ASCII(80, 24))
	return nil
}
