package vehicle

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/sirupsen/logrus"

	"github.com/san-kum/wheelsim/internal/drivetrain"
)

var log = logrus.WithField("module", "vehicle")

// Body is the rigid body the wheels push on.
type Body interface {
	Position() mgl64.Vec3
	Rotation() mgl64.Quat
	Velocity() mgl64.Vec3
	AngularVelocity() mgl64.Vec3
	Mass() float64
	VelocityAtPoint(p mgl64.Vec3) mgl64.Vec3
	ApplyForceAt(p, f mgl64.Vec3)
	ApplyTorque(t mgl64.Vec3)
}

type Vehicle struct {
	Config  Config
	Body    Body
	Wheels  []*Wheel
	Manager *WheelManager

	Graph         *drivetrain.Graph
	Engine        *drivetrain.Engine
	Clutch        *drivetrain.Clutch
	Gearbox       *drivetrain.Gearbox
	Differentials []*drivetrain.Differential

	Input     Input
	Throttle  float64
	ABSActive bool
	ESCActive bool
}

// Build assembles a vehicle from cfg around body. The config is copied, so
// one Config can build any number of vehicles.
func Build(cfg Config, body Body) (*Vehicle, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if body == nil {
		return nil, fmt.Errorf("%w: nil body", ErrInvalidConfig)
	}
	cfg.Wheels = append([]WheelConfig(nil), cfg.Wheels...)
	cfg.Gearbox.Ratios = append([]float64(nil), cfg.Gearbox.Ratios...)

	v := &Vehicle{
		Config:  cfg,
		Body:    body,
		Manager: NewWheelManager(),
	}
	for _, wc := range cfg.Wheels {
		w := newWheel(wc, &v.Config)
		w.body = body
		v.Wheels = append(v.Wheels, w)
		v.Manager.Register(w)
	}
	if err := v.buildDrivetrain(); err != nil {
		return nil, err
	}

	log.WithFields(logrus.Fields{
		"name":   cfg.Name,
		"wheels": len(v.Wheels),
		"drive":  cfg.DriveType,
		"mass":   body.Mass(),
	}).Debug("vehicle built")
	return v, nil
}

func (v *Vehicle) buildDrivetrain() error {
	cfg := &v.Config
	g := drivetrain.NewGraph()

	engine := cfg.Engine
	clutch := cfg.Clutch
	gearbox := cfg.Gearbox
	v.Engine, v.Clutch, v.Gearbox = &engine, &clutch, &gearbox
	v.Gearbox.Reset()
	v.Clutch.SetPedal(0)
	if !v.Clutch.Automatic {
		v.Clutch.Engagement = 1
	}

	cl := g.Add(v.Clutch)
	gb := g.Add(v.Gearbox)
	if _, err := v.Engine.Attach(g, cl); err != nil {
		return err
	}
	if err := g.Connect(cl, gb); err != nil {
		return err
	}

	axleDiff := func(axle Axle) (drivetrain.NodeID, error) {
		d := cfg.Differential
		d.Name = string(axle) + "_differential"
		v.Differentials = append(v.Differentials, &d)
		id := g.Add(&d)
		idx := cfg.axleWheels(axle)
		var nodes [2]drivetrain.NodeID
		for i, wi := range idx {
			w := v.Wheels[wi]
			w.Driven = true
			nodes[i] = g.Add(drivetrain.NewWheelNode(w.Name, tractor{w}))
		}
		return id, g.ConnectDifferential(id, nodes[0], nodes[1])
	}

	switch cfg.DriveType {
	case AWD:
		center := cfg.CenterDifferential
		v.Differentials = append(v.Differentials, &center)
		cid := g.Add(&center)
		front, err := axleDiff(Front)
		if err != nil {
			return err
		}
		rear, err := axleDiff(Rear)
		if err != nil {
			return err
		}
		if err := g.Connect(gb, cid); err != nil {
			return err
		}
		if err := g.ConnectDifferential(cid, front, rear); err != nil {
			return err
		}
	default:
		id, err := axleDiff(cfg.drivenAxles()[0])
		if err != nil {
			return err
		}
		if err := g.Connect(gb, id); err != nil {
			return err
		}
	}

	v.Graph = g
	v.Engine.Reset()
	return nil
}

// ForwardSpeed is the body velocity along its heading in m/s.
func (v *Vehicle) ForwardSpeed() float64 {
	return v.Body.Velocity().Dot(v.Body.Rotation().Rotate(mgl64.Vec3{0, 0, 1}))
}

func (v *Vehicle) SpeedKmh() float64 { return v.ForwardSpeed() * msToKmh }

func (v *Vehicle) Wheel(name string) *Wheel {
	for _, w := range v.Wheels {
		if w.Name == name {
			return w
		}
	}
	return nil
}

func (v *Vehicle) GroundedWheels() int {
	n := 0
	for _, w := range v.Wheels {
		if w.Grounded() {
			n++
		}
	}
	return n
}

// Reset clears the wheels and restarts the engine in first gear.
func (v *Vehicle) Reset() {
	for _, w := range v.Wheels {
		w.Reset()
	}
	v.Engine.Reset()
	v.Gearbox.Gear = 1
	v.Gearbox.Reset()
	v.Clutch.Torque = 0
	v.Input = Input{}
}
