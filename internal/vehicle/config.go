package vehicle

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/wheelsim/internal/drivetrain"
	"github.com/san-kum/wheelsim/internal/ground"
	"github.com/san-kum/wheelsim/internal/suspension"
	"github.com/san-kum/wheelsim/internal/tire"
)

var ErrInvalidConfig = errors.New("vehicle: invalid configuration")

type DriveType int

const (
	RWD DriveType = iota
	FWD
	AWD
)

func (d DriveType) String() string {
	switch d {
	case FWD:
		return "fwd"
	case AWD:
		return "awd"
	default:
		return "rwd"
	}
}

func (d DriveType) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

func (d *DriveType) UnmarshalText(b []byte) error {
	switch string(b) {
	case "rwd", "":
		*d = RWD
	case "fwd":
		*d = FWD
	case "awd":
		*d = AWD
	default:
		return fmt.Errorf("%w: drive type %q", ErrInvalidConfig, b)
	}
	return nil
}

type Axle string

const (
	Front Axle = "front"
	Rear  Axle = "rear"
)

type BodyConfig struct {
	Mass float64 `yaml:"mass"`
	// Size is width, height, length of the inertia box.
	Size        [3]float64 `yaml:"size"`
	Integrator  string     `yaml:"integrator"`
	LinearDrag  float64    `yaml:"linear_drag"`
	AngularDrag float64    `yaml:"angular_drag"`
}

type WheelConfig struct {
	Name string `yaml:"name"`
	Axle Axle   `yaml:"axle"`
	// Position is the suspension anchor in body space. Negative x is left.
	Position [3]float64 `yaml:"position"`
	Radius   float64    `yaml:"radius"`
	Width    float64    `yaml:"width"`
	Mass     float64    `yaml:"mass"`
	Steered  bool       `yaml:"steered"`
}

func (w WheelConfig) Anchor() mgl64.Vec3 { return mgl64.Vec3(w.Position) }

type BrakeConfig struct {
	MaxBrakeTorque     float64 `yaml:"max_brake_torque"`
	RollingResistance  float64 `yaml:"rolling_resistance"`
	HandbrakeStiffness float64 `yaml:"handbrake_stiffness"`
}

type SteeringConfig struct {
	MaxSteerAngle float64 `yaml:"max_steer_angle"`
	// MaxSpeedForMinAngle is the speed in km/h where the steer range bottoms out.
	MaxSpeedForMinAngle  float64 `yaml:"max_speed_for_min_angle"`
	MinAngleFactor       float64 `yaml:"min_angle_factor"`
	SteerSpeed           float64 `yaml:"steer_speed"`
	MinSpeedForSteerHelp float64 `yaml:"min_speed_for_steer_help"`
	HelpSteerPower       float64 `yaml:"help_steer_power"`
}

type ABSConfig struct {
	Enabled       bool    `yaml:"enabled"`
	LowerSpeed    float64 `yaml:"lower_speed"`
	SlipThreshold float64 `yaml:"slip_threshold"`
	Intensity     float64 `yaml:"intensity"`
}

type ESCConfig struct {
	Enabled        bool    `yaml:"enabled"`
	LowerSpeed     float64 `yaml:"lower_speed"`
	AngleThreshold float64 `yaml:"angle_threshold"`
	Gain           float64 `yaml:"gain"`
	Intensity      float64 `yaml:"intensity"`
}

// Config is everything needed to assemble one vehicle.
type Config struct {
	Name      string        `yaml:"name"`
	Body      BodyConfig    `yaml:"body"`
	Wheels    []WheelConfig `yaml:"wheels"`
	DriveType DriveType     `yaml:"drive_type"`

	Suspension suspension.Unit `yaml:"suspension"`
	Probe      ground.Probe    `yaml:"probe"`
	Tire       tire.Solver     `yaml:"tire"`

	Engine             drivetrain.Engine       `yaml:"engine"`
	Clutch             drivetrain.Clutch       `yaml:"clutch"`
	Gearbox            drivetrain.Gearbox      `yaml:"gearbox"`
	Differential       drivetrain.Differential `yaml:"differential"`
	CenterDifferential drivetrain.Differential `yaml:"center_differential"`

	Brakes   BrakeConfig    `yaml:"brakes"`
	Steering SteeringConfig `yaml:"steering"`
	ABS      ABSConfig      `yaml:"abs"`
	ESC      ESCConfig      `yaml:"esc"`
}

// StandardWheels lays out four wheels, front pair steered, with anchors at
// height in body space and the axles at z = front and z = rear.
func StandardWheels(track, front, rear, height, radius, width, mass float64) []WheelConfig {
	x := track / 2
	return []WheelConfig{
		{Name: "front_left", Axle: Front, Position: [3]float64{-x, height, front}, Radius: radius, Width: width, Mass: mass, Steered: true},
		{Name: "front_right", Axle: Front, Position: [3]float64{x, height, front}, Radius: radius, Width: width, Mass: mass, Steered: true},
		{Name: "rear_left", Axle: Rear, Position: [3]float64{-x, height, rear}, Radius: radius, Width: width, Mass: mass},
		{Name: "rear_right", Axle: Rear, Position: [3]float64{x, height, rear}, Radius: radius, Width: width, Mass: mass},
	}
}

// DefaultConfig is a 1200 kg rear-wheel-drive street car with an
// automatic gearbox.
func DefaultConfig() Config {
	center := *drivetrain.NewDifferential()
	center.Name = "center_differential"
	center.FinalDrive = 1

	gearbox := *drivetrain.NewGearbox()
	gearbox.Automatic = true
	clutch := *drivetrain.NewClutch()
	clutch.Automatic = true

	return Config{
		Name: "street",
		Body: BodyConfig{
			Mass:        1200,
			Size:        [3]float64{1.8, 1.2, 4.2},
			Integrator:  "rk4",
			AngularDrag: 0.05,
		},
		Wheels:             StandardWheels(1.6, 1.3, -1.3, 0.15, 0.33, 0.22, 20), // anchors above the center of mass keep it low
		DriveType:          RWD,
		Suspension:         *suspension.NewUnit(suspension.DefaultSpring(), suspension.DefaultDamper()),
		Probe:              ground.DefaultProbe(),
		Tire:               *tire.NewSolver(),
		Engine:             *drivetrain.NewEngine(),
		Clutch:             clutch,
		Gearbox:            gearbox,
		Differential:       *drivetrain.NewDifferential(),
		CenterDifferential: center,
		Brakes: BrakeConfig{
			MaxBrakeTorque:     3000,
			RollingResistance:  5,
			HandbrakeStiffness: 0.5,
		},
		Steering: SteeringConfig{
			MaxSteerAngle:        25,
			MaxSpeedForMinAngle:  250,
			MinAngleFactor:       0.05,
			SteerSpeed:           5,
			MinSpeedForSteerHelp: 20,
			HelpSteerPower:       0.8,
		},
		ABS: ABSConfig{Enabled: true, LowerSpeed: 1, SlipThreshold: 0.1, Intensity: 0.01},
		ESC: ESCConfig{Enabled: true, LowerSpeed: 4, AngleThreshold: 2, Gain: 50, Intensity: 0.4},
	}
}

// Validate rejects configurations that cannot be assembled.
func (c *Config) Validate() error {
	if c.Body.Mass <= 0 {
		return fmt.Errorf("%w: body mass %v", ErrInvalidConfig, c.Body.Mass)
	}
	if len(c.Wheels) == 0 {
		return fmt.Errorf("%w: no wheels", ErrInvalidConfig)
	}
	for _, w := range c.Wheels {
		if w.Radius <= 0 || w.Mass <= 0 || w.Width <= 0 {
			return fmt.Errorf("%w: wheel %q radius %v width %v mass %v", ErrInvalidConfig, w.Name, w.Radius, w.Width, w.Mass)
		}
		if w.Axle != Front && w.Axle != Rear {
			return fmt.Errorf("%w: wheel %q axle %q", ErrInvalidConfig, w.Name, w.Axle)
		}
	}
	if len(c.Gearbox.Ratios) == 0 {
		return fmt.Errorf("%w: empty gear table", ErrInvalidConfig)
	}
	for i, r := range c.Gearbox.Ratios {
		if r <= 0 {
			return fmt.Errorf("%w: gear %d ratio %v", ErrInvalidConfig, i+1, r)
		}
	}
	if c.Suspension.Spring.MaxLength <= 0 || c.Suspension.Spring.MaxForce <= 0 {
		return fmt.Errorf("%w: spring length %v force %v", ErrInvalidConfig, c.Suspension.Spring.MaxLength, c.Suspension.Spring.MaxForce)
	}
	if c.Brakes.MaxBrakeTorque < 0 {
		return fmt.Errorf("%w: max brake torque %v", ErrInvalidConfig, c.Brakes.MaxBrakeTorque)
	}
	if err := c.Engine.Validate(); err != nil {
		return err
	}
	for _, axle := range c.drivenAxles() {
		if n := len(c.axleWheels(axle)); n != 2 {
			return fmt.Errorf("%w: driven %s axle has %d wheels, need 2", ErrInvalidConfig, axle, n)
		}
	}
	return nil
}

func (c *Config) drivenAxles() []Axle {
	switch c.DriveType {
	case FWD:
		return []Axle{Front}
	case AWD:
		return []Axle{Front, Rear}
	default:
		return []Axle{Rear}
	}
}

// axleWheels returns the indices of the wheels on an axle, left first.
func (c *Config) axleWheels(axle Axle) []int {
	var idx []int
	for i, w := range c.Wheels {
		if w.Axle == axle {
			idx = append(idx, i)
		}
	}
	if len(idx) == 2 && c.Wheels[idx[0]].Position[0] > c.Wheels[idx[1]].Position[0] {
		idx[0], idx[1] = idx[1], idx[0]
	}
	return idx
}

// RideHeight is the height of the body origin above flat ground with every
// spring fully extended and the tires just touching.
func (c *Config) RideHeight() float64 {
	s := c.Suspension.Spring
	h := 0.0
	for _, w := range c.Wheels {
		h = math.Max(h, w.Radius+s.MaxLength+s.MinLength-w.Position[1])
	}
	return h
}
