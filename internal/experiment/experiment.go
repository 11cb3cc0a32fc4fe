// Package experiment assembles runs from a preset plus named pieces out of
// a Registry.
package experiment

import (
	"context"
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/san-kum/wheelsim/internal/config"
	"github.com/san-kum/wheelsim/internal/dynamo"
	"github.com/san-kum/wheelsim/internal/sim"
)

var log = logrus.WithField("module", "experiment")

// Config picks the pieces of one experiment. Empty names keep what the
// preset already has; zero Dt and Duration likewise.
type Config struct {
	Preset   string  `yaml:"preset"`
	Driver   string  `yaml:"driver,omitempty"`
	Terrain  string  `yaml:"terrain,omitempty"`
	Metrics  string  `yaml:"metrics,omitempty"`
	Dt       float64 `yaml:"dt,omitempty"`
	Duration float64 `yaml:"duration,omitempty"`
	// Set holds dotted config paths to override, see config.Config.Set.
	Set map[string]string `yaml:"set,omitempty"`
}

type Experiment struct {
	cfg       Config
	config    *config.Config
	simulator *sim.Simulator
}

func New(cfg Config) *Experiment {
	return &Experiment{cfg: cfg}
}

// Resolve builds the full config for c without creating a simulator.
func (c Config) Resolve(reg *Registry) (*config.Config, error) {
	preset := c.Preset
	if preset == "" {
		preset = "street"
	}
	out, err := config.GetPreset(preset)
	if err != nil {
		return nil, err
	}
	if c.Driver != "" {
		if out.Driver, err = reg.GetDriver(c.Driver); err != nil {
			return nil, err
		}
	}
	if c.Terrain != "" {
		if out.Terrain, err = reg.GetTerrain(c.Terrain); err != nil {
			return nil, err
		}
	}
	if c.Metrics != "" {
		if out.Sim.Metrics, err = reg.GetMetrics(c.Metrics); err != nil {
			return nil, err
		}
	}
	if c.Dt > 0 {
		out.Sim.Dt = c.Dt
	}
	if c.Duration > 0 {
		out.Sim.Duration = c.Duration
	}

	// sorted so that errors are reproducible
	paths := make([]string, 0, len(c.Set))
	for p := range c.Set {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	for _, p := range paths {
		if err := out.Set(p, c.Set[p]); err != nil {
			return nil, err
		}
	}
	return out, out.Validate()
}

func (e *Experiment) Setup(reg *Registry) error {
	cfg, err := e.cfg.Resolve(reg)
	if err != nil {
		return err
	}
	s, err := sim.FromConfig(cfg)
	if err != nil {
		return err
	}
	e.config, e.simulator = cfg, s
	return nil
}

func (e *Experiment) Run(ctx context.Context) (*dynamo.Result, error) {
	if e.simulator == nil {
		return nil, fmt.Errorf("experiment not setup")
	}
	log.WithFields(logrus.Fields{
		"preset":  e.cfg.Preset,
		"driver":  e.cfg.Driver,
		"terrain": e.cfg.Terrain,
	}).Debug("running experiment")
	return e.simulator.Run(ctx, e.config.Sim.Dynamo())
}

// Config is the resolved config, nil before Setup.
func (e *Experiment) Config() *config.Config { return e.config }

// GetSimulator returns the underlying simulator for adding observers
func (e *Experiment) GetSimulator() *sim.Simulator {
	return e.simulator
}
