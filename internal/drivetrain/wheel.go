package drivetrain

// Tractor is the wheel a WheelNode drives. Solve runs the tire for one
// step with the given motor torque and the drivetrain inertia behind it,
// and returns the counter torque felt by the drivetrain.
type Tractor interface {
	Solve(motorTorque, effectiveInertia, dt float64) float64
	AngularVelocity() float64
	Inertia() float64
}

// WheelNode is always terminal. It reports the wheel's measured speed
// upstream and applies torque through the tire.
type WheelNode struct {
	Component
	Wheel Tractor
}

func NewWheelNode(name string, w Tractor) *WheelNode {
	return &WheelNode{Component: Component{Name: name}, Wheel: w}
}

func (w *WheelNode) QueryInertia() float64 {
	return w.Inertia + w.Wheel.Inertia()
}

func (w *WheelNode) QueryAngularVelocity(av, dt float64) float64 {
	w.InputAV = av
	w.OutputAV = w.Wheel.AngularVelocity()
	return w.OutputAV
}

func (w *WheelNode) ForwardStep(torque, inertiaSum, dt float64) float64 {
	w.InputTorque = torque
	w.OutputTorque = torque
	return w.Wheel.Solve(torque, w.QueryInertia()+inertiaSum, dt)
}
