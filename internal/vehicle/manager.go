package vehicle

import "github.com/samber/lo"

// WheelManager aggregates the wheels that share one body. Combined load
// must be recomputed after every suspension update and before any tire
// reads LoadContribution.
type WheelManager struct {
	wheels       []*Wheel
	CombinedLoad float64
}

func NewWheelManager() *WheelManager {
	return &WheelManager{}
}

func (m *WheelManager) Register(w *Wheel) {
	if lo.Contains(m.wheels, w) {
		return
	}
	m.wheels = append(m.wheels, w)
}

func (m *WheelManager) Deregister(w *Wheel) {
	m.wheels = lo.Without(m.wheels, w)
}

func (m *WheelManager) Wheels() []*Wheel { return m.wheels }

// Update sums wheel loads and sets each wheel's share. With no load at all
// every wheel gets an equal share.
func (m *WheelManager) Update() float64 {
	m.CombinedLoad = lo.SumBy(m.wheels, func(w *Wheel) float64 { return w.Load })
	n := float64(len(m.wheels))
	for _, w := range m.wheels {
		if m.CombinedLoad > 0 {
			w.LoadContribution = w.Load / m.CombinedLoad
		} else {
			w.LoadContribution = 1 / n
		}
	}
	return m.CombinedLoad
}
