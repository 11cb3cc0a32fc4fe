package metrics

import (
	"math"

	"github.com/san-kum/wheelsim/internal/dynamo"
	"github.com/san-kum/wheelsim/internal/vehicle"
)

// WheelPeak tracks the largest magnitude of one per-wheel column over the
// grounded wheels.
type WheelPeak struct {
	name   string
	field  int
	wheels int
	peak   float64
}

// NewMaxSlip tracks the largest longitudinal slip.
func NewMaxSlip(wheels int) *WheelPeak {
	return &WheelPeak{name: "max_slip", field: vehicle.WheelFwdSlip, wheels: wheels}
}

// NewMaxSideSlip tracks the largest lateral slip.
func NewMaxSideSlip(wheels int) *WheelPeak {
	return &WheelPeak{name: "max_side_slip", field: vehicle.WheelSideSlip, wheels: wheels}
}

func (m *WheelPeak) Name() string { return m.name }

func (m *WheelPeak) Observe(x dynamo.State, u dynamo.Control, t float64) {
	for i := 0; i < m.wheels; i++ {
		col := vehicle.WheelColumn(i, m.field)
		if col >= len(x) || x[vehicle.WheelColumn(i, vehicle.WheelGrounded)] == 0 {
			continue
		}
		m.peak = math.Max(m.peak, math.Abs(x[col]))
	}
}

func (m *WheelPeak) Value() float64 { return m.peak }

func (m *WheelPeak) Reset() { m.peak = 0 }
