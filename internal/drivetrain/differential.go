package drivetrain

// Differential splits torque between two branches and applies a locking
// torque proportional to their speed difference.
type Differential struct {
	Component `yaml:",inline"`

	FinalDrive      float64 `yaml:"final_drive"`
	Bias            float64 `yaml:"bias"`
	LockCoefficient float64 `yaml:"lock_coefficient"`

	LeftTorque  float64 `yaml:"-"`
	RightTorque float64 `yaml:"-"`

	left, right NodeID
	wired       bool
}

func NewDifferential() *Differential {
	return &Differential{
		Component:  Component{Name: "differential", Inertia: 0.02},
		FinalDrive: 4.3,
		Bias:       0.5,
	}
}

func (d *Differential) branches() []NodeID {
	if !d.wired {
		return nil
	}
	return []NodeID{d.left, d.right}
}

func (d *Differential) setBranches(left, right NodeID) {
	d.left, d.right, d.wired = left, right, true
}

// Branches returns the left and right nodes, nil until connected.
func (d *Differential) Branches() (Node, Node) {
	if !d.wired || d.graph == nil {
		return nil, nil
	}
	return d.graph.Node(d.left), d.graph.Node(d.right)
}

func (d *Differential) ratio() float64 {
	if d.FinalDrive == 0 {
		return 1
	}
	return d.FinalDrive
}

func (d *Differential) QueryInertia() float64 {
	l, r := d.Branches()
	if l == nil {
		return d.Inertia
	}
	return d.Inertia + l.QueryInertia() + r.QueryInertia()
}

func (d *Differential) QueryAngularVelocity(av, dt float64) float64 {
	d.InputAV = av
	l, r := d.Branches()
	if l == nil {
		d.OutputAV = av
		return av
	}
	f := d.ratio()
	d.OutputAV = (l.QueryAngularVelocity(av/f, dt) + r.QueryAngularVelocity(av/f, dt)) * 0.5
	return d.OutputAV * f
}

func (d *Differential) ForwardStep(torque, inertiaSum, dt float64) float64 {
	d.InputTorque = torque
	l, r := d.Branches()
	if l == nil {
		d.OutputTorque = torque
		return torque
	}
	f := d.ratio()
	tw := torque * f
	d.OutputTorque = tw

	var lock float64
	if d.LockCoefficient != 0 && dt > 0 {
		wl := l.QueryAngularVelocity(d.OutputAV, dt)
		wr := r.QueryAngularVelocity(d.OutputAV, dt)
		lock = (wl - wr) * 0.5 * (l.QueryInertia() + r.QueryInertia()) / dt * d.LockCoefficient
	}
	branchInertia := (inertiaSum + d.Inertia) * f * f * 0.5
	d.LeftTorque = tw*d.Bias - lock
	d.RightTorque = tw*(1-d.Bias) + lock
	rl := l.ForwardStep(d.LeftTorque, branchInertia, dt)
	rr := r.ForwardStep(d.RightTorque, branchInertia, dt)
	return (rl + rr) / f
}
