package storage

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"github.com/san-kum/wheelsim/internal/config"
	"github.com/san-kum/wheelsim/internal/dynamo"
	"github.com/san-kum/wheelsim/internal/vehicle"
)

var log = logrus.WithField("module", "storage")

var ErrRunNotFound = errors.New("storage: run not found")

const (
	metadataFile  = "metadata.json"
	telemetryFile = "telemetry.csv"
	configFile    = "config.yaml"
)

// Sink receives finished runs.
type Sink interface {
	Write(ctx context.Context, meta RunMetadata, result *dynamo.Result) error
}

type RunMetadata struct {
	ID        string             `json:"id" bson:"_id"`
	Name      string             `json:"name" bson:"name"`
	Preset    string             `json:"preset,omitempty" bson:"preset,omitempty"`
	Driver    string             `json:"driver" bson:"driver"`
	Timestamp time.Time          `json:"timestamp" bson:"timestamp"`
	Dt        float64            `json:"dt" bson:"dt"`
	Duration  float64            `json:"duration" bson:"duration"`
	Steps     int                `json:"steps" bson:"steps"`
	Wheels    []string           `json:"wheels" bson:"wheels"`
	Columns   []string           `json:"columns" bson:"columns"`
	Metrics   map[string]float64 `json:"metrics" bson:"metrics"`
	Errors    []string           `json:"errors,omitempty" bson:"errors,omitempty"`
}

// NewMetadata describes a run of cfg. The ID is left for the sink.
func NewMetadata(cfg *config.Config, result *dynamo.Result) RunMetadata {
	wheels := lo.Map(cfg.Vehicle.Wheels, func(w vehicle.WheelConfig, _ int) string { return w.Name })
	name := cfg.Vehicle.Name
	if name == "" {
		name = "run"
	}
	return RunMetadata{
		Name:      name,
		Preset:    cfg.Preset,
		Driver:    cfg.Driver.Kind,
		Timestamp: time.Now(),
		Dt:        cfg.Sim.Dt,
		Duration:  cfg.Sim.Duration,
		Steps:     result.StepsTaken,
		Wheels:    wheels,
		Columns:   vehicle.ColumnNames(wheels),
		// JSON has no NaN
		Metrics: lo.PickBy(result.Metrics, func(_ string, v float64) bool {
			return !math.IsNaN(v) && !math.IsInf(v, 0)
		}),
		Errors: lo.Map(result.Errors, func(err error, _ int) string { return err.Error() }),
	}
}

// Store keeps one directory per run holding metadata.json, telemetry.csv
// and, when saved through Save, the config that produced it.
type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

// Dir is the directory of a run.
func (s *Store) Dir(runID string) string { return filepath.Join(s.baseDir, runID) }

// Save writes a run of cfg and returns its ID.
func (s *Store) Save(cfg *config.Config, result *dynamo.Result) (string, error) {
	meta := NewMetadata(cfg, result)
	meta.ID = fmt.Sprintf("%s_%d", meta.Name, meta.Timestamp.UnixNano())
	if err := s.Write(context.Background(), meta, result); err != nil {
		return "", err
	}
	if err := config.Save(filepath.Join(s.Dir(meta.ID), configFile), cfg); err != nil {
		return "", err
	}
	return meta.ID, nil
}

func (s *Store) Write(ctx context.Context, meta RunMetadata, result *dynamo.Result) error {
	if meta.ID == "" {
		return fmt.Errorf("storage: run without id")
	}
	runDir := s.Dir(meta.ID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return err
	}

	metaFile, err := os.Create(filepath.Join(runDir, metadataFile))
	if err != nil {
		return err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return err
	}

	if err := writeTelemetry(filepath.Join(runDir, telemetryFile), meta.Columns, result); err != nil {
		return err
	}

	log.WithFields(logrus.Fields{
		"id":   meta.ID,
		"rows": len(result.Telemetry),
	}).Info("run saved")
	return nil
}

func writeTelemetry(path string, columns []string, result *dynamo.Result) error {
	csvFile, err := os.Create(path)
	if err != nil {
		return err
	}
	defer csvFile.Close()

	w := csv.NewWriter(csvFile)

	if len(result.Telemetry) == 0 {
		w.Flush()
		return w.Error()
	}

	width := len(result.Telemetry[0])
	header := []string{"time"}
	for i := 0; i < width; i++ {
		if i < len(columns) {
			header = append(header, columns[i])
		} else {
			header = append(header, fmt.Sprintf("x%d", i))
		}
	}
	header = append(header, dynamo.ControlNames[:]...)
	if err := w.Write(header); err != nil {
		return err
	}

	for i, state := range result.Telemetry {
		row := []string{formatFloat(result.Times[i])}
		for _, val := range state {
			row = append(row, formatFloat(val))
		}
		for j := 0; j < dynamo.ControlDim; j++ {
			val := 0.0
			if i < len(result.Controls) && j < len(result.Controls[i]) {
				val = result.Controls[i][j]
			}
			row = append(row, formatFloat(val))
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func formatFloat(v float64) string { return strconv.FormatFloat(v, 'g', 8, 64) }

// List returns every readable run, newest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			log.WithError(err).WithField("dir", entry.Name()).Debug("skipping run")
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.After(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.Dir(runID), metadataFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("storage: %s: %w", runID, err)
	}
	return &meta, nil
}

// LoadConfig reads back the config a run was saved with.
func (s *Store) LoadConfig(runID string) (*config.Config, error) {
	return config.Load(filepath.Join(s.Dir(runID), configFile))
}

// LoadTelemetry rebuilds a run's result from its files.
func (s *Store) LoadTelemetry(runID string) (*dynamo.Result, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(filepath.Join(s.Dir(runID), telemetryFile))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}

	result := &dynamo.Result{
		Metrics:    meta.Metrics,
		StepsTaken: meta.Steps,
	}
	if len(records) < 2 {
		return result, nil
	}

	controls := 0
	if len(records[0]) > dynamo.ControlDim+1 {
		controls = dynamo.ControlDim
	}
	for line, record := range records[1:] {
		vals := make([]float64, len(record))
		for j, field := range record {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("storage: %s line %d: %w", runID, line+2, err)
			}
			vals[j] = v
		}
		split := len(vals) - controls
		result.Times = append(result.Times, vals[0])
		result.Telemetry = append(result.Telemetry, dynamo.State(vals[1:split]))
		result.Controls = append(result.Controls, dynamo.Control(vals[split:]))
	}
	return result, nil
}

func (s *Store) Delete(runID string) error {
	if _, err := s.Load(runID); err != nil {
		return err
	}
	if err := os.RemoveAll(s.Dir(runID)); err != nil {
		return err
	}
	log.WithField("id", runID).Info("run deleted")
	return nil
}
