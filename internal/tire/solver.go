package tire

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/samber/lo"

	"github.com/san-kum/wheelsim/internal/friction"
)

const (
	minDt        = 1e-4
	eps          = 1e-6
	blockedSpeed = 1e-3
	// slip denominators never drop below baseSpeedClamp at a 5 ms step
	baseSpeedClamp  = 1.5
	baseStep        = 0.005
	maxSpeedClamp   = 10
	slipLoadFalloff = 0.4
)

// Input is everything the solver needs for one wheel and one step.
type Input struct {
	MotorTorque       float64
	BrakeTorque       float64
	RollingResistance float64

	Radius  float64
	Inertia float64

	Load             float64
	LoadContribution float64
	BodyMass         float64

	Grounded        bool
	ContactVelocity mgl64.Vec3
	ContactPoint    mgl64.Vec3
	ContactNormal   mgl64.Vec3
	// Forward and Up are the steered wheel's axes in world space.
	Forward mgl64.Vec3
	Up      mgl64.Vec3

	Curve           friction.Curve
	SurfaceFriction float64
	// Travel is the suspension travel used to offset the force application point.
	Travel float64
	Dt     float64
}

type Output struct {
	Forward         friction.Friction
	Side            friction.Friction
	AngularVelocity float64
	CounterTorque   float64
	// Force is the world-space tire force, applied at Point.
	Force mgl64.Vec3
	Point mgl64.Vec3
}

// Solver keeps the state of one tire between steps. The wheel's angular
// velocity is the only real state; the rest is the anti-creep anchor.
type Solver struct {
	LoadRating                    float64 `yaml:"load_rating"`
	ForwardLoadFactor             float64 `yaml:"forward_load_factor"`
	SideLoadFactor                float64 `yaml:"side_load_factor"`
	FrictionCircleShape           float64 `yaml:"friction_circle_shape"`
	FrictionCircleStrength        float64 `yaml:"friction_circle_strength"`
	AntiCreepSpeed                float64 `yaml:"anti_creep_speed"`
	AirDecay                      float64 `yaml:"air_decay"`
	ForceApplicationPointDistance float64 `yaml:"force_application_point_distance"`
	ForwardGrip                   float64 `yaml:"forward_grip"`
	SideGrip                      float64 `yaml:"side_grip"`

	AngularVelocity float64 `yaml:"-"`

	creepRef   mgl64.Vec3
	creepArmed bool
}

func NewSolver() *Solver {
	return &Solver{
		LoadRating:             5400,
		ForwardLoadFactor:      1.35,
		SideLoadFactor:         1.9,
		FrictionCircleShape:    0.9,
		FrictionCircleStrength: 1,
		AntiCreepSpeed:         0.12,
		AirDecay:               10,
		ForwardGrip:            1,
		SideGrip:               1,
	}
}

func (s *Solver) Reset() {
	s.AngularVelocity = 0
	s.creepArmed = false
}

// Solve runs one step and stores the new angular velocity.
func (s *Solver) Solve(in Input) Output {
	dt := math.Max(in.Dt, minDt)
	r := math.Max(in.Radius, eps)
	inertia := math.Max(in.Inertia, eps)
	combinedBrake := math.Max(0, in.BrakeTorque+in.RollingResistance)

	if !in.Grounded {
		return s.airborne(in.MotorTorque, combinedBrake, inertia, dt)
	}

	n := in.ContactNormal
	fwd := in.Forward.Sub(n.Mul(n.Dot(in.Forward)))
	if fwd.Len() < eps {
		fwd = in.Forward
	}
	fwd = fwd.Normalize()
	side := n.Cross(fwd).Normalize()

	vF := in.ContactVelocity.Dot(fwd)
	vS := in.ContactVelocity.Dot(side)
	absF, absS := math.Abs(vF), math.Abs(vS)

	mu := in.SurfaceFriction
	curve := in.Curve
	peak := curve.Peak()
	peakSlip := math.Max(curve.PeakSlip(), eps)

	// load sensitivity
	load := lo.Clamp(in.Load, 0, s.LoadRating)
	fwdLF := load * s.ForwardLoadFactor
	sideLF := load * s.SideLoadFactor
	slipMod := 1 - slipLoadFalloff*lo.Clamp(in.Load/math.Max(s.LoadRating, eps), 0, 1)

	cornerMass := in.BodyMass * in.LoadContribution
	fwdClamp := cornerMass * absF / dt
	sideClamp := cornerMass * absS / dt

	speedClamp := lo.Clamp(baseSpeedClamp*dt/baseStep, baseSpeedClamp, maxSpeedClamp)
	clampedSpeed := math.Max(absF, speedClamp)

	peakF := peak * fwdLF * s.ForwardGrip * mu
	peakS := peak * sideLF * s.SideGrip * mu

	// brake always opposes the direction of travel, or of spin when stopped
	ref := vF
	if absF <= blockedSpeed {
		ref = s.AngularVelocity * r
	}
	brakeSign := -1.0
	if ref < 0 {
		brakeSign = 1
	}
	brakeF := combinedBrake / r * brakeSign
	inputF := in.MotorTorque/r + brakeF

	maxF := peakF
	if math.Abs(in.MotorTorque) <= combinedBrake {
		maxF = math.Min(peakF, fwdClamp)
	}

	// implicit angular velocity integration
	cand := s.AngularVelocity + in.MotorTorque/inertia*dt
	blocked := false
	if bd := combinedBrake / inertia * dt; bd > 0 {
		if math.Abs(cand) <= bd {
			cand = 0
			// the wheel only stays locked if the brake can out-torque the ground
			blocked = absF > blockedSpeed && combinedBrake-math.Abs(in.MotorTorque) >= maxF*r
		} else {
			cand -= sign(cand) * bd
		}
	}

	var force, w float64
	if blocked {
		w = 0
		force = lo.Clamp(inputF, -maxF, maxF)
	} else {
		slip := lo.Clamp((vF-cand*r)/clampedSpeed*slipMod, -1, 1)
		limit := maxF
		if math.Abs(slip) > peakSlip {
			limit = math.Min(maxF, curve.Evaluate(slip)*fwdLF*s.ForwardGrip*mu)
		}
		force = lo.Clamp((cand-vF/r)*inertia/(r*dt), -limit, limit)
		w = cand - force*r/inertia*dt
	}

	counter := (brakeF - force) * r
	maxCounter := inertia * math.Abs(w)
	counter = lo.Clamp(counter, -maxCounter, maxCounter)

	fwdSlip := lo.Clamp((vF-w*r)/clampedSpeed*slipMod, -1, 1)
	sideSlip := lo.Clamp(mgl64.RadToDeg(math.Atan2(vS, clampedSpeed))*0.01*slipMod, -1, 1)

	camber := math.Max(0, in.Up.Dot(n))
	sideF := -sign(sideSlip) * curve.Evaluate(sideSlip) * sideLF * s.SideGrip * mu * camber
	sideF = lo.Clamp(sideF, -sideClamp, sideClamp)

	// anti-creep
	if absF < s.AntiCreepSpeed && absS < s.AntiCreepSpeed {
		if !s.creepArmed {
			s.creepRef = in.ContactPoint
			s.creepArmed = true
		} else {
			drift := s.creepRef.Sub(in.ContactPoint)
			k := cornerMass / dt
			if math.Abs(in.MotorTorque) <= combinedBrake {
				force += drift.Dot(fwd) * k
			}
			sideF += drift.Dot(side) * k
		}
	} else {
		s.creepArmed = false
	}

	force = lo.Clamp(force, -peakF, peakF)
	sideF = lo.Clamp(sideF, -peakS, peakS)

	force, sideF = s.frictionCircle(force, sideF, fwdSlip, sideSlip, peakF, peakS, peakSlip)

	s.AngularVelocity = w

	point := in.ContactPoint.Add(n.Mul(s.ForceApplicationPointDistance * in.Travel))
	return Output{
		Forward:         friction.Friction{Slip: fwdSlip, Speed: vF, Grip: s.ForwardGrip, Force: force},
		Side:            friction.Friction{Slip: sideSlip, Speed: vS, Grip: s.SideGrip, Force: sideF},
		AngularVelocity: w,
		CounterTorque:   counter,
		Force:           fwd.Mul(force).Add(side.Mul(sideF)),
		Point:           point,
	}
}

// frictionCircle shares grip between the axes once combined slip leaves the
// unit circle, then bounds the result to the peak ellipse.
func (s *Solver) frictionCircle(force, sideF, fwdSlip, sideSlip, peakF, peakS, peakSlip float64) (float64, float64) {
	if peakF <= eps || peakS <= eps {
		return 0, 0
	}

	pF := fwdSlip / peakSlip
	pS := sideSlip / peakSlip
	if math.Hypot(pF, pS) > 1 {
		beta := math.Atan2(math.Abs(pS), math.Abs(pF)*s.FrictionCircleShape)
		m := math.Min(1, math.Hypot(force/peakF, sideF/peakS))
		targetF := -sign(fwdSlip) * m * math.Cos(beta) * peakF
		targetS := -sign(sideSlip) * m * math.Sin(beta) * peakS
		k := lo.Clamp(s.FrictionCircleStrength, 0, 1)
		force += (targetF - force) * k
		sideF += (targetS - sideF) * k
	}

	if e := math.Hypot(force/peakF, sideF/peakS); e > 1 {
		force /= e
		sideF /= e
	}
	return force, sideF
}

func (s *Solver) airborne(motor, combinedBrake, inertia, dt float64) Output {
	w := s.AngularVelocity + motor/inertia*dt
	bd := combinedBrake / inertia * dt
	if math.Abs(w) <= bd {
		w = 0
	} else {
		w -= sign(w) * bd
	}
	w /= 1 + s.AirDecay*dt

	s.AngularVelocity = w
	s.creepArmed = false
	return Output{
		Forward:         friction.Friction{Grip: s.ForwardGrip},
		Side:            friction.Friction{Grip: s.SideGrip},
		AngularVelocity: w,
	}
}

func sign(x float64) float64 {
	if x < 0 {
		return -1
	}
	return 1
}
