package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/wheelsim/internal/control"
	"github.com/san-kum/wheelsim/internal/dynamo"
	"github.com/san-kum/wheelsim/internal/ground"
	"github.com/san-kum/wheelsim/internal/metrics"
	"github.com/san-kum/wheelsim/internal/vehicle"
)

const (
	DefaultDt       = 0.01
	DefaultDuration = 10.0
)

var ErrInvalid = errors.New("config: invalid")

// Vehicle is the vehicle section of a config file.
type Vehicle = vehicle.Config

type Sim struct {
	Dt            float64 `yaml:"dt"`
	Duration      float64 `yaml:"duration"`
	RecordEvery   int     `yaml:"record_every"`
	ValidateState bool    `yaml:"validate_state"`
	// Spawn places the body origin. A zero height means resting on the
	// ground below the spawn point.
	Spawn [3]float64 `yaml:"spawn"`
	// Heading in degrees, clockwise from +z.
	Heading      float64  `yaml:"heading"`
	InitialSpeed float64  `yaml:"initial_speed"`
	Metrics      []string `yaml:"metrics,omitempty"`
}

// Dynamo converts the section into runner parameters.
func (s Sim) Dynamo() dynamo.Config {
	return dynamo.Config{
		Dt:            s.Dt,
		Duration:      s.Duration,
		RecordEvery:   s.RecordEvery,
		ValidateState: s.ValidateState,
	}
}

type Config struct {
	// Preset, when set in a file, is the base the rest of the file overrides.
	Preset  string       `yaml:"preset,omitempty"`
	Sim     Sim          `yaml:"sim"`
	Vehicle Vehicle      `yaml:"vehicle"`
	Terrain ground.Spec  `yaml:"terrain"`
	Driver  control.Spec `yaml:"driver"`
}

func DefaultSim() Sim {
	return Sim{
		Dt:            DefaultDt,
		Duration:      DefaultDuration,
		RecordEvery:   1,
		ValidateState: true,
	}
}

func DefaultConfig() *Config {
	return &Config{
		Sim:     DefaultSim(),
		Vehicle: vehicle.DefaultConfig(),
		Terrain: ground.DefaultSpec(),
		Driver:  control.Spec{Kind: control.KindIdle},
	}
}

// Clone deep-copies c through yaml so slices are not shared.
func (c *Config) Clone() *Config {
	data, err := yaml.Marshal(c)
	if err != nil {
		panic(fmt.Sprintf("config: clone marshal: %v", err))
	}
	out := &Config{}
	if err := yaml.Unmarshal(data, out); err != nil {
		panic(fmt.Sprintf("config: clone unmarshal: %v", err))
	}
	return out
}

func (c *Config) Validate() error {
	if c.Sim.Dt <= 0 {
		return fmt.Errorf("%w: dt must be positive, got %v", ErrInvalid, c.Sim.Dt)
	}
	if c.Sim.Duration <= 0 {
		return fmt.Errorf("%w: duration must be positive, got %v", ErrInvalid, c.Sim.Duration)
	}
	if c.Sim.RecordEvery < 1 {
		return fmt.Errorf("%w: record_every must be at least 1, got %d", ErrInvalid, c.Sim.RecordEvery)
	}
	for _, m := range c.Sim.Metrics {
		if _, err := metrics.New(m, len(c.Vehicle.Wheels)); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalid, err)
		}
	}
	if err := c.Vehicle.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if len(c.Terrain.Shapes) == 0 {
		return fmt.Errorf("%w: terrain has no shapes", ErrInvalid)
	}
	if _, err := c.Terrain.Build(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if _, err := c.Driver.Build(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return nil
}

// Load reads a yaml config. Fields the file leaves out keep the values of
// its preset, or of DefaultConfig when it names none.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse is Load on an in-memory document.
func Parse(data []byte) (*Config, error) {
	var head struct {
		Preset string `yaml:"preset"`
	}
	if err := yaml.Unmarshal(data, &head); err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if head.Preset != "" {
		p, err := GetPreset(head.Preset)
		if err != nil {
			return nil, err
		}
		cfg = p
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
