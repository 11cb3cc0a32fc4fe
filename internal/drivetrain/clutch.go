package drivetrain

import (
	"math"

	"github.com/samber/lo"
)

// Clutch couples the engine to the gearbox. Engagement 1 transmits
// everything, 0 fully decouples.
type Clutch struct {
	Component `yaml:",inline"`

	Stiffness      float64 `yaml:"stiffness"`
	Damping        float64 `yaml:"damping"`
	TorqueCapacity float64 `yaml:"torque_capacity"`
	// Automatic drives engagement from engine rpm instead of the pedal.
	Automatic     bool    `yaml:"automatic"`
	EngagementRPM float64 `yaml:"engagement_rpm"`

	Pedal      float64 `yaml:"-"`
	Engagement float64 `yaml:"-"`
	Torque     float64 `yaml:"-"`
}

func NewClutch() *Clutch {
	return &Clutch{
		Component:      Component{Name: "clutch", Inertia: 0.02},
		Stiffness:      20,
		Damping:        0.5,
		TorqueCapacity: 400,
		EngagementRPM:  1200,
		Engagement:     1,
	}
}

// SetPedal sets the pedal position, 0 released and 1 fully pressed.
func (c *Clutch) SetPedal(p float64) {
	c.Pedal = lo.Clamp(p, 0, 1)
	if !c.Automatic {
		c.Engagement = 1 - c.Pedal
	}
}

// UpdateAutomatic engages progressively between idle and EngagementRPM.
// A pressed pedal still overrides.
func (c *Clutch) UpdateAutomatic(engineRPM, idleRPM float64) {
	if !c.Automatic {
		return
	}
	span := math.Max(c.EngagementRPM-idleRPM, 1)
	e := lo.Clamp((engineRPM-idleRPM)/span, 0, 1)
	c.Engagement = math.Min(e, 1-c.Pedal)
}

func (c *Clutch) QueryAngularVelocity(av, dt float64) float64 {
	c.InputAV = av
	out := c.Output()
	if out == nil {
		c.OutputAV = av
		return av
	}
	c.OutputAV = out.QueryAngularVelocity(av, dt)
	return c.OutputAV*c.Engagement + av*(1-c.Engagement)
}

func (c *Clutch) ForwardStep(torque, inertiaSum, dt float64) float64 {
	c.InputTorque = torque
	out := c.Output()
	if out == nil {
		c.OutputTorque = torque
		return torque
	}
	e := c.Engagement
	slip := c.InputAV - c.OutputAV
	target := (torque + slip*c.Stiffness) * e
	limit := c.TorqueCapacity * e
	c.Torque = lo.Clamp(c.Torque+(target-c.Torque)*c.Damping, -limit, limit)
	c.OutputTorque = c.Torque

	ret := out.ForwardStep(c.Torque, (inertiaSum+c.Inertia)*e, dt)
	return lo.Clamp(ret*e, -limit, limit)
}
