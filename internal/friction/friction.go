package friction

// Friction is the per-axis result of one tire solve.
// Nothing in it carries over between steps.
type Friction struct {
	Slip  float64
	Speed float64
	Grip  float64
	Force float64
}

// Reset clears the per-step outputs and keeps Grip.
func (f *Friction) Reset() {
	f.Slip = 0
	f.Speed = 0
	f.Force = 0
}
