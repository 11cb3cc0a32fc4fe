package metrics

import (
	"github.com/samber/lo"

	"github.com/san-kum/wheelsim/internal/dynamo"
	"github.com/san-kum/wheelsim/internal/vehicle"
)

// PeakLoadTransfer is the largest spread between the most and least loaded
// wheel, as a fraction of the combined load.
type PeakLoadTransfer struct {
	wheels int
	peak   float64
	loads  []float64
}

func NewPeakLoadTransfer(wheels int) *PeakLoadTransfer {
	return &PeakLoadTransfer{wheels: wheels, loads: make([]float64, wheels)}
}

func (m *PeakLoadTransfer) Name() string { return "peak_load_transfer" }

func (m *PeakLoadTransfer) Observe(x dynamo.State, u dynamo.Control, t float64) {
	combined := x[vehicle.ColCombinedLoad]
	if combined <= 0 || m.wheels == 0 {
		return
	}
	for i := range m.loads {
		m.loads[i] = x[vehicle.WheelColumn(i, vehicle.WheelLoad)]
	}
	spread := (lo.Max(m.loads) - lo.Min(m.loads)) / combined
	m.peak = max(m.peak, spread)
}

func (m *PeakLoadTransfer) Value() float64 { return m.peak }
func (m *PeakLoadTransfer) Reset()         { m.peak = 0 }
