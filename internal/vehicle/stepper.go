package vehicle

import (
	"github.com/san-kum/wheelsim/internal/ground"
)

// Stepper advances vehicles against one terrain. It keeps no per-vehicle
// state, so one Stepper can serve many vehicles.
type Stepper struct {
	Caster ground.Caster
}

func NewStepper(c ground.Caster) *Stepper {
	return &Stepper{Caster: c}
}

// Step runs one fixed step of v and leaves the resulting forces on its
// body. Integrating the body is up to the caller.
//
// Every suspension is updated before any tire runs, because each tire
// reads its share of the combined load.
func (s *Stepper) Step(v *Vehicle, in Input, dt float64) {
	if dt <= 0 {
		return
	}
	in = in.Clamped()
	v.Input = in
	v.handleEvents(in)
	v.steer(in, dt)

	for _, w := range v.Wheels {
		w.probe(s.Caster, dt)
	}
	v.Manager.Update()

	v.brake(in)
	v.Throttle = v.transmission(in)
	v.Engine.Step(v.Throttle, dt)
	for _, w := range v.Wheels {
		if !w.solved {
			w.Solve(0, w.Inertia(), dt)
		}
	}

	for _, w := range v.Wheels {
		w.applyForces()
	}
}

func (v *Vehicle) handleEvents(in Input) {
	if in.EngineStartStop {
		if v.Engine.Ignition {
			v.Engine.Stop()
		} else {
			v.Engine.Start()
		}
	}
	switch {
	case in.ShiftInto != nil:
		if err := v.Gearbox.SetGear(*in.ShiftInto); err != nil {
			log.WithError(err).Warn("shift ignored")
		}
	case in.ShiftUp:
		v.Gearbox.ShiftUp()
	case in.ShiftDown:
		v.Gearbox.ShiftDown()
	}
}
