package drivetrain

// Component carries what every node shares. Used on its own it is a plain
// shaft that adds its inertia and passes torque and speed through.
type Component struct {
	Name    string  `yaml:"name"`
	Inertia float64 `yaml:"inertia"`

	InputAV      float64 `yaml:"-"`
	OutputAV     float64 `yaml:"-"`
	InputTorque  float64 `yaml:"-"`
	OutputTorque float64 `yaml:"-"`

	graph  *Graph
	id     NodeID
	input  NodeID
	output NodeID
}

func NewShaft(name string, inertia float64) *Component {
	return &Component{Name: name, Inertia: inertia}
}

func (c *Component) Base() *Component { return c }

func (c *Component) ID() NodeID { return c.id }

// Output returns the downstream node, or nil for a terminal node.
func (c *Component) Output() Node {
	if c.graph == nil {
		return nil
	}
	return c.graph.Node(c.output)
}

func (c *Component) QueryInertia() float64 {
	out := c.Output()
	if out == nil {
		return c.Inertia
	}
	return c.Inertia + out.QueryInertia()
}

func (c *Component) QueryAngularVelocity(av, dt float64) float64 {
	c.InputAV = av
	c.OutputAV = av
	out := c.Output()
	if out == nil {
		return av
	}
	return out.QueryAngularVelocity(av, dt)
}

// ForwardStep passes torque on. A terminal node hands its input torque
// straight back.
func (c *Component) ForwardStep(torque, inertiaSum, dt float64) float64 {
	c.InputTorque = torque
	c.OutputTorque = torque
	out := c.Output()
	if out == nil {
		return torque
	}
	return out.ForwardStep(torque, inertiaSum+c.Inertia, dt)
}
