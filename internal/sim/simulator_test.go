package sim

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/san-kum/wheelsim/internal/body"
	"github.com/san-kum/wheelsim/internal/config"
	"github.com/san-kum/wheelsim/internal/control"
	"github.com/san-kum/wheelsim/internal/dynamo"
	"github.com/san-kum/wheelsim/internal/vehicle"
)

func newSim(t *testing.T, mutate func(*config.Config)) (*Simulator, *config.Config) {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Sim.Duration = 2
	if mutate != nil {
		mutate(cfg)
	}
	s, err := FromConfig(cfg)
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	return s, cfg
}

func TestSimulatorRun(t *testing.T) {
	s, cfg := newSim(t, nil)

	result, err := s.Run(context.Background(), cfg.Sim.Dynamo())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if result.StepsTaken != 200 {
		t.Errorf("expected 200 steps, got %d", result.StepsTaken)
	}
	if len(result.Telemetry) != 201 || len(result.Times) != 201 || len(result.Controls) != 201 {
		t.Errorf("expected 201 rows, got %d/%d/%d", len(result.Telemetry), len(result.Times), len(result.Controls))
	}
	if last := result.Times[len(result.Times)-1]; math.Abs(last-2) > 1e-9 {
		t.Errorf("expected final time 2, got %f", last)
	}
	if len(result.Errors) != 0 {
		t.Errorf("unexpected errors: %v", result.Errors)
	}

	final := result.Telemetry[len(result.Telemetry)-1]
	mg := s.Body.Mass() * 9.81
	if load := final[vehicle.ColCombinedLoad]; math.Abs(load-mg) > 0.1*mg {
		t.Errorf("expected combined load ~%.0f, got %.0f", mg, load)
	}
	if s.Vehicle.GroundedWheels() != 4 {
		t.Errorf("expected 4 grounded wheels, got %d", s.Vehicle.GroundedWheels())
	}
	if _, ok := result.Metrics["top_speed"]; !ok {
		t.Errorf("expected every metric by default, got %v", result.Metrics)
	}
}

func TestSimulatorRecordEvery(t *testing.T) {
	s, cfg := newSim(t, nil)
	dc := cfg.Sim.Dynamo()
	dc.RecordEvery = 10

	result, err := s.Run(context.Background(), dc)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if len(result.Telemetry) != 21 {
		t.Errorf("expected 21 rows, got %d", len(result.Telemetry))
	}
	if result.StepsTaken != 200 {
		t.Errorf("expected 200 steps, got %d", result.StepsTaken)
	}
}

func TestSimulatorRejectsBadConfig(t *testing.T) {
	s, _ := newSim(t, nil)
	tests := []struct {
		name string
		cfg  dynamo.Config
	}{
		{"zero dt", dynamo.Config{Dt: 0, Duration: 1}},
		{"negative duration", dynamo.Config{Dt: 0.01, Duration: -1}},
		{"record every", dynamo.Config{Dt: 0.01, Duration: 1, RecordEvery: -2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Run(context.Background(), tt.cfg)
			if !errors.Is(err, dynamo.ErrParameterBounds) {
				t.Errorf("expected ErrParameterBounds, got %v", err)
			}
		})
	}
}

func TestSimulatorContextCancel(t *testing.T) {
	s, cfg := newSim(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := s.Run(ctx, cfg.Sim.Dynamo())
	if !errors.Is(err, dynamo.ErrContextCanceled) {
		t.Fatalf("expected ErrContextCanceled, got %v", err)
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected the context error to be kept, got %v", err)
	}
	if result.StepsTaken != 0 {
		t.Errorf("expected no steps, got %d", result.StepsTaken)
	}
}

func TestSimulatorStopsOnInvalidState(t *testing.T) {
	s, cfg := newSim(t, nil)
	s.Body.State[body.VelY] = math.NaN()

	result, err := s.Run(context.Background(), cfg.Sim.Dynamo())
	var simErr *dynamo.SimulationError
	if !errors.As(err, &simErr) {
		t.Fatalf("expected SimulationError, got %v", err)
	}
	if !errors.Is(err, dynamo.ErrInvalidState) {
		t.Errorf("expected ErrInvalidState, got %v", err)
	}
	if simErr.Step != 0 || result.StepsTaken != 1 {
		t.Errorf("expected to stop on the first step, got step %d after %d", simErr.Step, result.StepsTaken)
	}
	if len(result.Errors) != 1 {
		t.Errorf("expected one recorded error, got %d", len(result.Errors))
	}
}

type countingObserver struct{ n int }

func (o *countingObserver) OnStep(x dynamo.State, u dynamo.Control, t float64) { o.n++ }

func TestSimulatorObservers(t *testing.T) {
	s, cfg := newSim(t, func(c *config.Config) { c.Sim.Metrics = []string{"distance"} })
	obs := &countingObserver{}
	s.AddObserver(obs)

	result, err := s.Run(context.Background(), cfg.Sim.Dynamo())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if obs.n != result.StepsTaken {
		t.Errorf("observer saw %d steps, want %d", obs.n, result.StepsTaken)
	}
	if len(result.Metrics) != 1 {
		t.Errorf("expected only the configured metric, got %v", result.Metrics)
	}
}

func TestSpawn(t *testing.T) {
	s, _ := newSim(t, func(c *config.Config) {
		c.Sim.Spawn = [3]float64{5, 0, -3}
		c.Sim.Heading = 90
		c.Sim.InitialSpeed = 10
	})

	pos := s.Body.Position()
	want := s.Vehicle.Config.RideHeight()
	if math.Abs(pos.Y()-want) > 1e-9 || pos.X() != 5 || pos.Z() != -3 {
		t.Errorf("unexpected spawn position %v, want height %.3f", pos, want)
	}
	row := s.Vehicle.Telemetry()
	if math.Abs(row[vehicle.ColYaw]-90) > 1e-6 {
		t.Errorf("expected yaw 90, got %f", row[vehicle.ColYaw])
	}
	if math.Abs(row[vehicle.ColSpeed]-10) > 1e-6 {
		t.Errorf("expected forward speed 10, got %f", row[vehicle.ColSpeed])
	}
	if math.Abs(s.Body.Velocity().X()-10) > 1e-6 {
		t.Errorf("expected to move along +x, got %v", s.Body.Velocity())
	}
	for _, w := range s.Vehicle.Wheels {
		if math.Abs(w.AngularVelocity*w.Radius-10) > 1e-9 {
			t.Errorf("%s: wheel not rolling at spawn speed", w.Name)
		}
	}
}

func TestCruiseRun(t *testing.T) {
	s, cfg := newSim(t, func(c *config.Config) {
		c.Sim.Duration = 8
		c.Driver = control.Spec{Kind: control.KindCruise, Speed: 10}
	})

	result, err := s.Run(context.Background(), cfg.Sim.Dynamo())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	speed := result.Telemetry[len(result.Telemetry)-1][vehicle.ColSpeed]
	if math.Abs(speed-10) > 2 {
		t.Errorf("expected cruise near 10 m/s, got %.2f", speed)
	}
	if result.Metrics["distance"] < 20 {
		t.Errorf("expected to cover ground, got %.1f m", result.Metrics["distance"])
	}
}

func TestRunWithCallback(t *testing.T) {
	s, cfg := newSim(t, nil)
	calls := 0
	err := s.RunWithCallback(context.Background(), cfg.Sim.Dynamo(), func(x dynamo.State, u dynamo.Control, tm float64) bool {
		calls++
		return calls < 5
	})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if calls != 5 {
		t.Errorf("expected callback to stop the run after 5 calls, got %d", calls)
	}
}

func TestRunParallel(t *testing.T) {
	var jobs []Job
	for _, name := range []string{"street", "truck", "electric"} {
		cfg, err := config.GetPreset(name)
		if err != nil {
			t.Fatal(err)
		}
		cfg.Sim.Duration = 1
		cfg.Driver = control.Spec{Kind: control.KindConstant, Constant: control.Constant{Throttle: 0.5}}
		jobs = append(jobs, Job{Name: name, Config: cfg})
	}
	bad := config.DefaultConfig()
	bad.Sim.Dt = 0
	jobs = append(jobs, Job{Name: "bad", Config: bad})

	out := RunParallel(context.Background(), jobs)
	if len(out) != len(jobs) {
		t.Fatalf("expected %d outcomes, got %d", len(jobs), len(out))
	}
	for i, o := range out[:3] {
		if o.Name != jobs[i].Name {
			t.Errorf("outcome %d out of order: %s", i, o.Name)
		}
		if o.Err != nil {
			t.Errorf("%s: %v", o.Name, o.Err)
			continue
		}
		if o.Result.StepsTaken != 100 {
			t.Errorf("%s: expected 100 steps, got %d", o.Name, o.Result.StepsTaken)
		}
	}
	if !errors.Is(out[3].Err, config.ErrInvalid) {
		t.Errorf("expected the bad job to fail validation, got %v", out[3].Err)
	}
}
