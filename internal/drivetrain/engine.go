package drivetrain

import (
	"errors"
	"fmt"
	"math"

	"github.com/samber/lo"

	"github.com/san-kum/wheelsim/internal/dynamo"
)

var ErrEngineConfig = errors.New("drivetrain: invalid engine configuration")

type EngineType int

const (
	ICE EngineType = iota
	Electric
)

func (t EngineType) String() string {
	if t == Electric {
		return "electric"
	}
	return "ice"
}

func (t EngineType) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

func (t *EngineType) UnmarshalText(b []byte) error {
	switch string(b) {
	case "ice", "":
		*t = ICE
	case "electric":
		*t = Electric
	default:
		return fmt.Errorf("%w: engine type %q", ErrEngineConfig, b)
	}
	return nil
}

const (
	revOvershoot     = 1.05
	idleAssistBand   = 1.1
	idleAssistTarget = 1.08
	idleAssistGain   = 0.01
	stallFraction    = 0.4
	lowSpeedLoss     = 0.03
	limiterLossScale = 0.25
	electricLoss     = 0.3
	minStartDuration = 0.1
)

// Engine is the root of a drivetrain. Step drives the graph below it
// once per fixed step.
type Engine struct {
	Component `yaml:",inline"`

	Type             EngineType   `yaml:"type"`
	IdleRPM          float64      `yaml:"idle_rpm"`
	RevLimiterRPM    float64      `yaml:"rev_limiter_rpm"`
	MaxPower         float64      `yaml:"max_power"`
	Loss             float64      `yaml:"loss"`
	PowerCurve       dynamo.Curve `yaml:"power_curve"`
	RevLimiterCutoff float64      `yaml:"rev_limiter_cutoff"`
	StallingEnabled  bool         `yaml:"stalling_enabled"`
	StartDuration    float64      `yaml:"start_duration"`
	FlyingStart      bool         `yaml:"flying_start"`

	Ignition         bool    `yaml:"-"`
	AngularVelocity  float64 `yaml:"-"`
	Throttle         float64 `yaml:"-"`
	GeneratedTorque  float64 `yaml:"-"`
	LossTorque       float64 `yaml:"-"`
	GeneratedPower   float64 `yaml:"-"`
	ReactionTorque   float64 `yaml:"-"`
	RevLimiterActive bool    `yaml:"-"`
	Stalled          bool    `yaml:"-"`
	RPMPercent       float64 `yaml:"-"`
	Load             float64 `yaml:"-"`

	limiterTimer  float64
	starterTimer  float64
	starterTorque float64
}

func DefaultPowerCurve() dynamo.Curve {
	return dynamo.NewCurve(
		dynamo.Key{T: 0, V: 0},
		dynamo.Key{T: 0.2, V: 0.28},
		dynamo.Key{T: 0.4, V: 0.58},
		dynamo.Key{T: 0.6, V: 0.82},
		dynamo.Key{T: 0.8, V: 1},
		dynamo.Key{T: 1, V: 0.9},
	)
}

func NewEngine() *Engine {
	e := &Engine{
		Component:        Component{Name: "engine", Inertia: 0.154},
		IdleRPM:          800,
		RevLimiterRPM:    4700,
		MaxPower:         120,
		Loss:             0.25,
		PowerCurve:       DefaultPowerCurve(),
		RevLimiterCutoff: 0.05,
		StallingEnabled:  true,
		StartDuration:    0.5,
		FlyingStart:      true,
	}
	e.output = NoNode
	e.Start()
	return e
}

func NewElectricMotor() *Engine {
	e := NewEngine()
	e.Name = "motor"
	e.Type = Electric
	e.IdleRPM = 0
	e.RevLimiterRPM = 12000
	e.StallingEnabled = false
	e.RevLimiterCutoff = 0
	e.PowerCurve = dynamo.LinearCurve()
	e.Start()
	return e
}

// Validate rejects configurations that cannot produce a usable engine.
func (e *Engine) Validate() error {
	switch {
	case e.Inertia <= 0:
		return fmt.Errorf("%w: inertia %v", ErrEngineConfig, e.Inertia)
	case e.MaxPower <= 0:
		return fmt.Errorf("%w: max power %v", ErrEngineConfig, e.MaxPower)
	case e.RevLimiterRPM <= e.IdleRPM:
		return fmt.Errorf("%w: rev limiter %v below idle %v", ErrEngineConfig, e.RevLimiterRPM, e.IdleRPM)
	case len(e.PowerCurve) == 0:
		return fmt.Errorf("%w: empty power curve", ErrEngineConfig)
	}
	return nil
}

// Attach adds the engine to g as the root driving out.
func (e *Engine) Attach(g *Graph, out NodeID) (NodeID, error) {
	id := g.Add(e)
	if err := g.Connect(id, out); err != nil {
		return id, err
	}
	return id, nil
}

func (e *Engine) IdleAV() float64 { return RPMToAngularVelocity(e.IdleRPM) }

func (e *Engine) RevLimiterAV() float64 { return RPMToAngularVelocity(e.RevLimiterRPM) }

func (e *Engine) RPM() float64 { return AngularVelocityToRPM(e.AngularVelocity) }

func (e *Engine) Starting() bool { return e.starterTimer > 0 }

// Start turns the ignition on. Without a flying start the starter motor
// spins the engine up to idle over StartDuration.
func (e *Engine) Start() {
	e.Ignition = true
	if e.Type == Electric || e.FlyingStart {
		e.AngularVelocity = e.IdleAV()
		e.starterTimer = 0
		return
	}
	d := math.Max(e.StartDuration, minStartDuration)
	e.starterTimer = d
	e.starterTorque = (e.IdleAV() - e.AngularVelocity) * e.Inertia / d
}

func (e *Engine) Stop() {
	e.Ignition = false
	e.starterTimer = 0
}

func (e *Engine) Reset() {
	e.AngularVelocity = 0
	e.RevLimiterActive = false
	e.limiterTimer = 0
	e.Stalled = false
	e.Start()
}

// Step runs one fixed step: query the load's inertia and speed, generate
// torque, push it down the chain and integrate with the reaction.
func (e *Engine) Step(throttle, dt float64) {
	if dt <= 0 {
		return
	}
	out := e.Output()
	inertiaOut := 0.0
	downstreamAV := e.AngularVelocity
	if out != nil {
		inertiaOut = out.QueryInertia()
		downstreamAV = out.QueryAngularVelocity(e.AngularVelocity, dt)
	}
	sum := e.Inertia + inertiaOut
	target := e.Inertia/sum*e.AngularVelocity + inertiaOut/sum*downstreamAV
	e.InputAV = e.AngularVelocity
	e.OutputAV = downstreamAV

	e.updateLimiter(dt)
	gen := e.torque(throttle)
	reaction := (target - e.AngularVelocity) * e.Inertia / dt
	e.OutputTorque = gen - reaction

	ret := 0.0
	if out != nil {
		ret = out.ForwardStep(e.OutputTorque, e.Inertia, dt)
	}
	e.ReactionTorque = ret

	e.AngularVelocity += (gen + ret + reaction) / sum * dt
	maxAV := e.RevLimiterAV() * revOvershoot
	minAV := 0.0
	if e.Type == Electric {
		minAV = -maxAV
	}
	e.AngularVelocity = lo.Clamp(e.AngularVelocity, minAV, maxAV)
	e.RPMPercent = lo.Clamp(e.AngularVelocity/e.RevLimiterAV(), 0, 1)
	e.Load = lo.Clamp(e.GeneratedPower/e.MaxPower, 0, 1)
	if e.starterTimer > 0 {
		e.starterTimer -= dt
	}
}

func (e *Engine) updateLimiter(dt float64) {
	if e.RevLimiterActive {
		e.limiterTimer -= dt
		if e.limiterTimer <= 0 {
			e.RevLimiterActive = false
		}
	}
	if e.Type == ICE && !e.RevLimiterActive && e.RevLimiterCutoff > 0 && e.AngularVelocity >= e.RevLimiterAV() {
		e.RevLimiterActive = true
		e.limiterTimer = e.RevLimiterCutoff
	}
}

// torque returns generated plus loss torque for the current speed.
func (e *Engine) torque(user float64) float64 {
	user = lo.Clamp(user, 0, 1)
	if e.Type == Electric {
		return e.electricTorque(user)
	}
	w := e.AngularVelocity
	idleAV := e.IdleAV()
	revAV := e.RevLimiterAV()
	starting := e.Starting()

	th := user
	switch {
	case starting:
		th = 0
	case e.Ignition && w < idleAV*idleAssistBand:
		assist := lo.Clamp(math.Max(0, idleAV*idleAssistTarget-w)*idleAssistGain, 0, 1)
		th = math.Max(user, assist)
	}
	e.Throttle = th

	stallAV := -1e10
	if e.StallingEnabled {
		stallAV = idleAV * stallFraction
	}
	e.Stalled = e.StallingEnabled && !starting && w < stallAV

	e.GeneratedPower = 0
	gen := 0.0
	if e.Ignition && !starting && !e.Stalled && !e.RevLimiterActive {
		e.GeneratedPower = e.PowerCurve.Evaluate(lo.Clamp(w/revAV, 0, 1)) * e.MaxPower * (1 + e.Loss) * th
		gen = PowerToTorque(w, e.GeneratedPower)
	}
	if starting {
		gen += e.starterTorque
	}

	loss := 0.0
	if !starting {
		if w < 10 {
			loss = -w * e.MaxPower * lowSpeedLoss
		} else {
			p := e.PowerCurve.Evaluate(lo.Clamp(w, stallAV, revAV)/revAV) * -e.MaxPower * lo.Clamp(user+0.5, 0, 1) * e.Loss
			loss = PowerToTorque(w, p)
		}
		if e.RevLimiterActive {
			loss *= limiterLossScale
		}
	}
	e.GeneratedTorque = gen
	e.LossTorque = loss
	return gen + loss
}

func (e *Engine) electricTorque(th float64) float64 {
	e.Throttle = th
	e.Stalled = false
	if !e.Ignition {
		e.GeneratedPower, e.GeneratedTorque, e.LossTorque = 0, 0, 0
		return 0
	}
	rpmPct := lo.Clamp(math.Abs(e.AngularVelocity)/e.RevLimiterAV(), 0, 1)
	lossP := electricLoss * e.MaxPower * (1 - th) * rpmPct
	total := e.MaxPower*th - lossP
	total = lerp(total*0.1, total, lo.Clamp(rpmPct*10, 0, 1))
	e.GeneratedPower = math.Max(total, 0)
	t := PowerToTorque(math.Max(math.Abs(e.AngularVelocity), 10), total)
	e.GeneratedTorque = t
	e.LossTorque = 0
	return t
}

// PeakTorque scans the power curve above idle and returns the highest
// torque and the rpm it occurs at.
func (e *Engine) PeakTorque() (torque, rpm float64) {
	for i := 1; i < 20; i++ {
		r := float64(i) * 0.05 * e.RevLimiterRPM
		if r < e.IdleRPM {
			continue
		}
		p := e.PowerCurve.Evaluate(float64(i)*0.05) * e.MaxPower
		t := p * 1000 / RPMToAngularVelocity(r)
		if t > torque {
			torque, rpm = t, r
		}
	}
	return torque, rpm
}

// PeakPower returns the highest power in kW and its rpm.
func (e *Engine) PeakPower() (power, rpm float64) {
	for i := 0; i <= 20; i++ {
		p := e.PowerCurve.Evaluate(float64(i)*0.05) * e.MaxPower
		if p > power {
			power, rpm = p, float64(i)*0.05*e.RevLimiterRPM
		}
	}
	return power, rpm
}

func lerp(a, b, t float64) float64 { return a + (b-a)*t }
