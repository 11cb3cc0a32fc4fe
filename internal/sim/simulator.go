package sim

import (
	"context"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/sirupsen/logrus"

	"github.com/san-kum/wheelsim/internal/body"
	"github.com/san-kum/wheelsim/internal/config"
	"github.com/san-kum/wheelsim/internal/control"
	"github.com/san-kum/wheelsim/internal/dynamo"
	"github.com/san-kum/wheelsim/internal/ground"
	"github.com/san-kum/wheelsim/internal/metrics"
	"github.com/san-kum/wheelsim/internal/vehicle"
)

var log = logrus.WithField("module", "sim")

// divergeLimit bounds the body position before a run counts as unstable.
const divergeLimit = 1e5

// Simulator drives one vehicle over one terrain. Each step runs the driver,
// then the vehicle stepper, then integrates the body.
type Simulator struct {
	Vehicle *vehicle.Vehicle
	Body    *body.Rigid
	Terrain *ground.Terrain
	Stepper *vehicle.Stepper
	Driver  control.Driver

	metrics   []dynamo.Metric
	observers []dynamo.Observer
	t         float64
}

func New(v *vehicle.Vehicle, rb *body.Rigid, terrain *ground.Terrain, driver control.Driver) *Simulator {
	if driver == nil {
		driver = control.Idle{}
	}
	return &Simulator{
		Vehicle:   v,
		Body:      rb,
		Terrain:   terrain,
		Stepper:   vehicle.NewStepper(terrain),
		Driver:    driver,
		metrics:   make([]dynamo.Metric, 0),
		observers: make([]dynamo.Observer, 0),
	}
}

// FromConfig assembles terrain, body, vehicle, driver and metrics from cfg
// and places the vehicle at its spawn point.
func FromConfig(cfg *config.Config) (*Simulator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	terrain, err := cfg.Terrain.Build()
	if err != nil {
		return nil, err
	}
	bc := cfg.Vehicle.Body
	rb, err := body.NewBox(bc.Mass, mgl64.Vec3(bc.Size), bc.Integrator)
	if err != nil {
		return nil, err
	}
	rb.LinearDrag = bc.LinearDrag
	rb.AngularDrag = bc.AngularDrag

	v, err := vehicle.Build(cfg.Vehicle, rb)
	if err != nil {
		return nil, err
	}
	driver, err := cfg.Driver.Build()
	if err != nil {
		return nil, err
	}

	s := New(v, rb, terrain, driver)
	names := cfg.Sim.Metrics
	if len(names) == 0 {
		names = metrics.Names()
	}
	for _, name := range names {
		m, err := metrics.New(name, len(v.Wheels))
		if err != nil {
			return nil, err
		}
		s.AddMetric(m)
	}
	s.Spawn(cfg.Sim)
	return s, nil
}

func (s *Simulator) AddMetric(m dynamo.Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o dynamo.Observer) { s.observers = append(s.observers, o) }

// Time is the simulated time since the last spawn.
func (s *Simulator) Time() float64 { return s.t }

// Step advances the vehicle by dt and returns the new telemetry row and
// the input that produced it.
func (s *Simulator) Step(dt float64) (dynamo.State, dynamo.Control) {
	in := s.Driver.Input(control.Observe(s.Vehicle), s.t)
	s.Stepper.Step(s.Vehicle, in, dt)
	s.Body.Step(s.t, dt)
	s.t += dt
	return s.Vehicle.Telemetry(), s.Vehicle.DriverControl()
}

func (s *Simulator) Run(ctx context.Context, cfg dynamo.Config) (*dynamo.Result, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	steps := int(math.Round(cfg.Duration / cfg.Dt))
	every := max(cfg.RecordEvery, 1)
	rows := steps/every + 1
	result := &dynamo.Result{
		Telemetry: make([]dynamo.State, 0, rows),
		Controls:  make([]dynamo.Control, 0, rows),
		Times:     make([]float64, 0, rows),
		Metrics:   make(map[string]float64),
		Errors:    make([]error, 0),
	}

	for _, m := range s.metrics {
		m.Reset()
	}
	control.Reset(s.Driver)

	log.WithFields(logrus.Fields{
		"vehicle":  s.Vehicle.Config.Name,
		"dt":       cfg.Dt,
		"duration": cfg.Duration,
	}).Debug("run started")

	row, u := s.Vehicle.Telemetry(), s.Vehicle.DriverControl()
	record(result, row, u, s.t)

	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			err := &dynamo.SimulationError{
				Step:    i,
				Time:    s.t,
				State:   row,
				Wrapped: fmt.Errorf("%w: %w", dynamo.ErrContextCanceled, ctx.Err()),
			}
			result.Errors = append(result.Errors, err)
			s.finish(result)
			return result, err
		default:
		}

		row, u = s.Step(cfg.Dt)
		result.StepsTaken++

		if cfg.ValidateState {
			if err := s.check(i, row); err != nil {
				result.Errors = append(result.Errors, err)
				log.WithError(err).Warn("run stopped")
				s.finish(result)
				return result, err
			}
		}

		for _, m := range s.metrics {
			m.Observe(row, u, s.t)
		}
		for _, obs := range s.observers {
			obs.OnStep(row, u, s.t)
		}

		if (i+1)%every == 0 {
			record(result, row, u, s.t)
		}
	}

	s.finish(result)
	log.WithFields(logrus.Fields{
		"steps":     result.StepsTaken,
		"top_speed": result.Metrics["top_speed"],
	}).Debug("run finished")
	return result, nil
}

// RunWithCallback steps until the duration elapses or callback returns
// false. Nothing is recorded.
func (s *Simulator) RunWithCallback(ctx context.Context, cfg dynamo.Config, callback func(dynamo.State, dynamo.Control, float64) bool) error {
	if err := validateConfig(cfg); err != nil {
		return err
	}
	steps := int(math.Round(cfg.Duration / cfg.Dt))
	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %w", dynamo.ErrContextCanceled, ctx.Err())
		default:
		}
		row, u := s.Step(cfg.Dt)
		if cfg.ValidateState {
			if err := s.check(i, row); err != nil {
				return err
			}
		}
		if !callback(row, u, s.t) {
			return nil
		}
	}
	return nil
}

func (s *Simulator) check(step int, row dynamo.State) error {
	var wrapped error
	switch {
	case !s.Body.State.IsValid() || !row.IsValid():
		wrapped = dynamo.ErrInvalidState
	case s.Body.Position().Len() > divergeLimit:
		wrapped = dynamo.ErrUnstable
	default:
		return nil
	}
	return &dynamo.SimulationError{Step: step, Time: s.t, State: s.Body.State.Clone(), Wrapped: wrapped}
}

func (s *Simulator) finish(result *dynamo.Result) {
	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
}

func record(r *dynamo.Result, row dynamo.State, u dynamo.Control, t float64) {
	r.Telemetry = append(r.Telemetry, row)
	r.Controls = append(r.Controls, u)
	r.Times = append(r.Times, t)
}

func validateConfig(cfg dynamo.Config) error {
	if cfg.Dt <= 0 {
		return fmt.Errorf("%w: dt must be positive, got %f", dynamo.ErrParameterBounds, cfg.Dt)
	}
	if cfg.Duration <= 0 {
		return fmt.Errorf("%w: duration must be positive, got %f", dynamo.ErrParameterBounds, cfg.Duration)
	}
	if cfg.RecordEvery < 0 {
		return fmt.Errorf("%w: record every %d", dynamo.ErrParameterBounds, cfg.RecordEvery)
	}
	return nil
}
