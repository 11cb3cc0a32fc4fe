// Package automation runs scripted scenario files and parameter studies.
package automation

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/wheelsim/internal/config"
	"github.com/san-kum/wheelsim/internal/control"
	"github.com/san-kum/wheelsim/internal/dynamo"
	"github.com/san-kum/wheelsim/internal/experiment"
	"github.com/san-kum/wheelsim/internal/sim"
	"github.com/san-kum/wheelsim/internal/storage"
)

var log = logrus.WithField("module", "automation")

var ErrScenario = errors.New("automation: invalid scenario")

// Scenario defines a scripted simulation sequence
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep is one run plus the bounds its metrics must meet.
type ScenarioStep struct {
	Name              string `yaml:"name"`
	experiment.Config `yaml:",inline"`
	// DriverSpec replaces the named driver with an inline one.
	DriverSpec *control.Spec    `yaml:"driver_spec,omitempty"`
	Expect     map[string]Bound `yaml:"expect,omitempty"`
	SaveAs     string           `yaml:"save_as,omitempty"`
}

// Bound limits a metric; a nil side is open.
type Bound struct {
	Min *float64 `yaml:"min,omitempty"`
	Max *float64 `yaml:"max,omitempty"`
}

func (b Bound) Check(v float64) error {
	switch {
	case math.IsNaN(v):
		return fmt.Errorf("is NaN")
	case b.Min != nil && v < *b.Min:
		return fmt.Errorf("%.4g below min %.4g", v, *b.Min)
	case b.Max != nil && v > *b.Max:
		return fmt.Errorf("%.4g above max %.4g", v, *b.Max)
	}
	return nil
}

// StepResult is the outcome of one scenario step.
type StepResult struct {
	Name     string
	Config   *config.Config
	Result   *dynamo.Result
	RunID    string
	Failures []string
}

func (r StepResult) Passed() bool { return len(r.Failures) == 0 }

// LoadScenario loads a scenario from a YAML file
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseScenario(data)
}

func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, err
	}
	if len(scenario.Steps) == 0 {
		return nil, fmt.Errorf("%w: no steps", ErrScenario)
	}
	return &scenario, nil
}

// RunScenario executes every step in order. A step whose metrics miss
// their bounds is recorded as failed and the scenario continues; build and
// run errors stop it. Steps with SaveAs are written to store when it is
// not nil.
func RunScenario(ctx context.Context, scenario *Scenario, registry *experiment.Registry, store *storage.Store) ([]StepResult, error) {
	results := make([]StepResult, 0, len(scenario.Steps))

	for i, step := range scenario.Steps {
		name := step.Name
		if name == "" {
			name = fmt.Sprintf("step%d", i+1)
		}
		log.WithField("scenario", scenario.Name).Infof("running step %d/%d: %s", i+1, len(scenario.Steps), name)

		cfg, err := step.Config.Resolve(registry)
		if err != nil {
			return results, fmt.Errorf("step %s: %w", name, err)
		}
		if step.DriverSpec != nil {
			cfg.Driver = *step.DriverSpec
		}
		for metric := range step.Expect {
			if !lo.Contains(cfg.Sim.Metrics, metric) && len(cfg.Sim.Metrics) > 0 {
				cfg.Sim.Metrics = append(cfg.Sim.Metrics, metric)
			}
		}

		s, err := sim.FromConfig(cfg)
		if err != nil {
			return results, fmt.Errorf("step %s setup: %w", name, err)
		}
		result, err := s.Run(ctx, cfg.Sim.Dynamo())
		if err != nil {
			return results, fmt.Errorf("step %s run: %w", name, err)
		}

		sr := StepResult{Name: name, Config: cfg, Result: result, Failures: checkExpect(step.Expect, result.Metrics)}
		if step.SaveAs != "" && store != nil {
			cfg.Vehicle.Name = step.SaveAs
			if sr.RunID, err = store.Save(cfg, result); err != nil {
				return results, fmt.Errorf("step %s save: %w", name, err)
			}
		}
		if !sr.Passed() {
			log.WithField("step", name).Warnf("%d expectation(s) failed", len(sr.Failures))
		}
		results = append(results, sr)
	}

	return results, nil
}

func checkExpect(expect map[string]Bound, got map[string]float64) []string {
	var failures []string
	for _, name := range lo.Keys(expect) {
		v, ok := got[name]
		if !ok {
			failures = append(failures, fmt.Sprintf("%s: not measured", name))
			continue
		}
		if err := expect[name].Check(v); err != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", name, err))
		}
	}
	sort.Strings(failures)
	return failures
}

// ParameterSweep runs one experiment across evenly spaced values of a
// config path.
type ParameterSweep struct {
	Base  experiment.Config `yaml:"base"`
	Path  string            `yaml:"path"`
	Min   float64           `yaml:"min"`
	Max   float64           `yaml:"max"`
	Steps int               `yaml:"steps"`
}

// SweepResult holds results from a parameter sweep
type SweepResult struct {
	Value      float64
	Metrics    map[string]float64
	FinalState dynamo.State
	Err        error
}

func (s *ParameterSweep) Values() []float64 {
	if s.Steps <= 1 {
		return []float64{s.Min}
	}
	step := (s.Max - s.Min) / float64(s.Steps-1)
	return lo.Times(s.Steps, func(i int) float64 { return s.Min + float64(i)*step })
}

// RunSweep executes a parameter sweep, all values in parallel. A value
// whose run fails carries the error in its SweepResult.
func RunSweep(ctx context.Context, sweep *ParameterSweep, registry *experiment.Registry) ([]SweepResult, error) {
	base, err := sweep.Base.Resolve(registry)
	if err != nil {
		return nil, err
	}
	if _, err := base.Get(sweep.Path); err != nil {
		return nil, err
	}

	values := sweep.Values()
	jobs := make([]sim.Job, len(values))
	for i, v := range values {
		cfg := base.Clone()
		if err := cfg.SetFloat(sweep.Path, v); err != nil {
			return nil, err
		}
		jobs[i] = sim.Job{Name: fmt.Sprintf("%s=%g", sweep.Path, v), Config: cfg}
	}

	outcomes := sim.RunParallel(ctx, jobs)
	results := make([]SweepResult, len(values))
	for i, o := range outcomes {
		results[i] = SweepResult{Value: values[i], Err: o.Err}
		if o.Result != nil {
			results[i].Metrics = o.Result.Metrics
			if n := len(o.Result.Telemetry); n > 0 {
				results[i].FinalState = o.Result.Telemetry[n-1]
			}
		}
	}
	return results, ctx.Err()
}

// MonteCarloConfig perturbs config paths by a random fraction of their
// base values, e.g. Perturbation 0.1 draws each from ±10%.
type MonteCarloConfig struct {
	Base         experiment.Config
	Paths        []string
	Perturbation float64
	NumTrials    int
	Seed         int64
}

type MonteCarloResult struct {
	TrialID int
	Values  map[string]float64
	Metrics map[string]float64
	// Stable is false when the run failed or any step exceeded the
	// stability metric's roll or pitch limit.
	Stable bool
	Err    error
}

// RunMonteCarlo executes multiple trials with random perturbations
func RunMonteCarlo(ctx context.Context, cfg *MonteCarloConfig, registry *experiment.Registry) ([]MonteCarloResult, error) {
	base, err := cfg.Base.Resolve(registry)
	if err != nil {
		return nil, err
	}
	nominal := make(map[string]float64, len(cfg.Paths))
	for _, p := range cfg.Paths {
		s, err := base.Get(p)
		if err != nil {
			return nil, err
		}
		if nominal[p], err = strconv.ParseFloat(s, 64); err != nil {
			return nil, fmt.Errorf("%w: %s is not numeric", ErrScenario, p)
		}
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	if cfg.Seed == 0 {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	results := make([]MonteCarloResult, cfg.NumTrials)
	jobs := make([]sim.Job, cfg.NumTrials)
	for trial := range jobs {
		c := base.Clone()
		values := make(map[string]float64, len(cfg.Paths))
		for _, p := range cfg.Paths {
			v := nominal[p] * (1 + (rng.Float64()*2-1)*cfg.Perturbation)
			if err := c.SetFloat(p, v); err != nil {
				return nil, err
			}
			values[p] = v
		}
		results[trial] = MonteCarloResult{TrialID: trial, Values: values}
		jobs[trial] = sim.Job{Name: fmt.Sprintf("trial%d", trial), Config: c}
	}

	for i, o := range sim.RunParallel(ctx, jobs) {
		r := &results[i]
		r.Err = o.Err
		if o.Result != nil {
			r.Metrics = o.Result.Metrics
		}
		stability, measured := r.Metrics["stability"]
		r.Stable = o.Err == nil && (!measured || stability >= 1)
	}
	return results, ctx.Err()
}

// MonteCarloStats computes summary statistics from Monte Carlo results
func MonteCarloStats(results []MonteCarloResult) (stableCount int, unstableCount int) {
	stableCount = lo.CountBy(results, func(r MonteCarloResult) bool { return r.Stable })
	return stableCount, len(results) - stableCount
}
