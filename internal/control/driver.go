package control

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/wheelsim/internal/vehicle"
)

// Observation is the part of the vehicle state a driver reacts to.
type Observation struct {
	// Speed is the forward speed in m/s, negative when reversing.
	Speed     float64
	RPM       float64
	Gear      int
	Yaw       float64
	YawRate   float64
	SlipAngle float64
	Position  mgl64.Vec3
}

// Observe reads an Observation off a built vehicle.
func Observe(v *vehicle.Vehicle) Observation {
	row := v.Telemetry()
	return Observation{
		Speed:     row[vehicle.ColSpeed],
		RPM:       row[vehicle.ColEngineRPM],
		Gear:      v.Gearbox.Gear,
		Yaw:       row[vehicle.ColYaw],
		YawRate:   row[vehicle.ColYawRate],
		SlipAngle: row[vehicle.ColSlipAngle],
		Position:  v.Body.Position(),
	}
}

type Driver interface {
	Input(obs Observation, t float64) vehicle.Input
}

// Resetter is implemented by drivers that carry state between steps.
type Resetter interface {
	Reset()
}

// Reset clears d's state if it has any.
func Reset(d Driver) {
	if r, ok := d.(Resetter); ok {
		r.Reset()
	}
}

// Idle never touches the controls.
type Idle struct{}

func (Idle) Input(Observation, float64) vehicle.Input { return vehicle.Input{} }

// Constant holds the same axes for the whole run.
type Constant struct {
	Throttle  float64 `yaml:"throttle"`
	Brake     float64 `yaml:"brake"`
	Steering  float64 `yaml:"steering"`
	Handbrake float64 `yaml:"handbrake"`
}

func (c Constant) Input(Observation, float64) vehicle.Input {
	return vehicle.Input{Throttle: c.Throttle, Brake: c.Brake, Steering: c.Steering, Handbrake: c.Handbrake}
}
