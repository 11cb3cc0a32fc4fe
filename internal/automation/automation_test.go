package automation

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/san-kum/wheelsim/internal/experiment"
	"github.com/san-kum/wheelsim/internal/storage"
)

const scenarioYAML = `
name: smoke
description: launch then idle
steps:
  - name: launch
    preset: street
    driver: launch
    duration: 2
    expect:
      top_speed: {min: 1, max: 100}
    save_as: launch_run
  - preset: street
    driver_spec:
      kind: constant
      constant: {brake: 1}
    duration: 1
    metrics: traction
    expect:
      distance: {min: 1000000}
`

func TestScenario(t *testing.T) {
	sc, err := ParseScenario([]byte(scenarioYAML))
	if err != nil {
		t.Fatal(err)
	}
	if sc.Steps[0].Preset != "street" || sc.Steps[1].DriverSpec == nil {
		t.Fatalf("parsed %+v", sc.Steps)
	}

	store := storage.New(t.TempDir())
	results, err := RunScenario(context.Background(), sc, experiment.NewRegistry(), store)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results", len(results))
	}
	if !results[0].Passed() {
		t.Errorf("launch failed: %v", results[0].Failures)
	}
	if results[0].RunID == "" {
		t.Error("save_as step was not stored")
	}
	if results[1].Passed() || results[1].Name != "step2" {
		t.Errorf("second step %q should fail: %v", results[1].Name, results[1].Failures)
	}
	if results[1].Config.Driver.Constant.Brake != 1 {
		t.Error("inline driver not applied")
	}

	runs, err := store.List()
	if err != nil || len(runs) != 1 || runs[0].Name != "launch_run" {
		t.Errorf("stored runs %v, %v", runs, err)
	}
}

func TestParseScenarioRejectsEmpty(t *testing.T) {
	if _, err := ParseScenario([]byte("name: empty\n")); !errors.Is(err, ErrScenario) {
		t.Errorf("got %v", err)
	}
}

func TestBound(t *testing.T) {
	lo, hi := 1.0, 2.0
	tests := []struct {
		name string
		b    Bound
		v    float64
		ok   bool
	}{
		{"open", Bound{}, 5, true},
		{"inside", Bound{Min: &lo, Max: &hi}, 1.5, true},
		{"below", Bound{Min: &lo}, 0.5, false},
		{"above", Bound{Max: &hi}, 3, false},
		{"nan", Bound{}, math.NaN(), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.b.Check(tt.v); (err == nil) != tt.ok {
				t.Errorf("Check(%v) = %v", tt.v, err)
			}
		})
	}
}

func TestSweepValues(t *testing.T) {
	s := &ParameterSweep{Min: 1, Max: 2, Steps: 3}
	got := s.Values()
	want := []float64{1, 1.5, 2}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-12 {
			t.Fatalf("got %v", got)
		}
	}
	if v := (&ParameterSweep{Min: 4, Steps: 1}).Values(); len(v) != 1 || v[0] != 4 {
		t.Errorf("single step %v", v)
	}
}

func TestRunSweep(t *testing.T) {
	sweep := &ParameterSweep{
		Base:  experiment.Config{Preset: "street", Driver: "launch", Duration: 1},
		Path:  "vehicle.body.mass",
		Min:   800,
		Max:   2400,
		Steps: 2,
	}
	results, err := RunSweep(context.Background(), sweep, experiment.NewRegistry())
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d", len(results))
	}
	for _, r := range results {
		if r.Err != nil || r.FinalState == nil {
			t.Fatalf("value %v: %v", r.Value, r.Err)
		}
	}
	// the lighter car gets further on the same throttle
	if results[0].Metrics["distance"] <= results[1].Metrics["distance"] {
		t.Errorf("distance %v vs %v", results[0].Metrics["distance"], results[1].Metrics["distance"])
	}

	sweep.Path = "vehicle.nope"
	if _, err := RunSweep(context.Background(), sweep, experiment.NewRegistry()); err == nil {
		t.Error("unknown path should fail")
	}
}

func TestMonteCarlo(t *testing.T) {
	cfg := &MonteCarloConfig{
		Base:         experiment.Config{Preset: "street", Driver: "idle", Duration: 1},
		Paths:        []string{"vehicle.body.mass"},
		Perturbation: 0.1,
		NumTrials:    3,
		Seed:         1,
	}
	results, err := RunMonteCarlo(context.Background(), cfg, experiment.NewRegistry())
	if err != nil {
		t.Fatal(err)
	}
	base, _ := cfg.Base.Resolve(experiment.NewRegistry())
	nominal := base.Vehicle.Body.Mass
	for _, r := range results {
		m := r.Values["vehicle.body.mass"]
		if math.Abs(m-nominal) > 0.1*nominal+1e-9 {
			t.Errorf("trial %d mass %v outside ±10%% of %v", r.TrialID, m, nominal)
		}
	}
	stable, unstable := MonteCarloStats(results)
	if stable != 3 || unstable != 0 {
		t.Errorf("stable %d unstable %d", stable, unstable)
	}
}
