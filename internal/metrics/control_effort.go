package metrics

import (
	"github.com/san-kum/wheelsim/internal/dynamo"
)

// ControlEffort is the mean pedal use, throttle plus brake, per step.
type ControlEffort struct {
	name    string
	sum     float64
	samples int
}

func NewControlEffort() *ControlEffort {
	return &ControlEffort{
		name: "control_effort",
	}
}

func (c *ControlEffort) Name() string {
	return c.name
}

func (c *ControlEffort) Observe(x dynamo.State, u dynamo.Control, t float64) {
	if len(u) < dynamo.ControlDim {
		return
	}
	c.sum += u[dynamo.ControlThrottle] + u[dynamo.ControlBrake]
	c.samples++
}

func (c *ControlEffort) Value() float64 {
	if c.samples == 0 {
		return 0
	}
	return c.sum / float64(c.samples)
}

func (c *ControlEffort) Reset() {
	c.sum = 0
	c.samples = 0
}
