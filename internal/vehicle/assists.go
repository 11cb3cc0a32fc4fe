package vehicle

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/samber/lo"
)

const (
	msToKmh         = 3.6
	steerHelpMargin = 10
	escSteerShare   = 0.5
	handbrakeGain   = 2
	handbrakeABSCut = 0.1
	antiStallRPM    = 0.6
)

// steer moves the steered wheels toward the driver's target angle. Above
// MinSpeedForSteerHelp the target is pulled toward the direction of travel
// so the car counter-steers out of a slide.
func (v *Vehicle) steer(in Input, dt float64) {
	cfg := v.Config.Steering
	kmh := math.Abs(v.ForwardSpeed()) * msToKmh
	rangeFactor := 1.0
	if cfg.MaxSpeedForMinAngle > 0 {
		rangeFactor = lo.Clamp(1-kmh/cfg.MaxSpeedForMinAngle, cfg.MinAngleFactor, 1)
	}
	target := in.Steering * cfg.MaxSteerAngle * rangeFactor

	if cfg.HelpSteerPower > 0 && kmh > cfg.MinSpeedForSteerHelp && v.ForwardSpeed() > 0 {
		target += v.SlipAngle() * cfg.HelpSteerPower
	}
	limit := cfg.MaxSteerAngle + steerHelpMargin
	target = lo.Clamp(target, -limit, limit)

	for _, w := range v.Wheels {
		if !w.Steered {
			continue
		}
		w.SteerAngle += (target - w.SteerAngle) * lo.Clamp(cfg.SteerSpeed*dt, 0, 1)
	}
}

// SteerAngle is the mean angle of the steered wheels in degrees.
func (v *Vehicle) SteerAngle() float64 {
	steered := lo.Filter(v.Wheels, func(w *Wheel, _ int) bool { return w.Steered })
	if len(steered) == 0 {
		return 0
	}
	return lo.MeanBy(steered, func(w *Wheel) float64 { return w.SteerAngle })
}

// SlipAngle is the angle in degrees from the body's heading to its
// horizontal velocity, positive when the car travels to its right.
func (v *Vehicle) SlipAngle() float64 {
	vel := v.Body.Velocity()
	fwd := v.Body.Rotation().Rotate(mgl64.Vec3{0, 0, 1})
	right := v.Body.Rotation().Rotate(mgl64.Vec3{1, 0, 0})
	vf, vr := vel.Dot(fwd), vel.Dot(right)
	if math.Hypot(vf, vr) < 0.1 {
		return 0
	}
	return mgl64.RadToDeg(math.Atan2(vr, math.Abs(vf)))
}

// brake sets each wheel's brake torque from the pedal, the handbrake and
// the assists.
func (v *Vehicle) brake(in Input) {
	maxBrake := v.Config.Brakes.MaxBrakeTorque
	for _, w := range v.Wheels {
		w.BrakeTorque = 0
		w.CurveStiffness = 1
		w.AddBrakeTorque(in.Brake*maxBrake, maxBrake)
	}
	if in.Handbrake > 0 {
		for _, w := range v.Wheels {
			if w.Driven {
				w.AddBrakeTorque(handbrakeGain*maxBrake*in.Handbrake, handbrakeGain*maxBrake)
				w.CurveStiffness = v.Config.Brakes.HandbrakeStiffness
			}
		}
	}
	v.ABSActive = v.abs(in)
	v.ESCActive = v.esc()
}

// abs cuts brake torque once any grounded wheel locks past the slip
// threshold.
func (v *Vehicle) abs(in Input) bool {
	cfg := v.Config.ABS
	if !cfg.Enabled || in.Brake <= 0 || in.Handbrake >= handbrakeABSCut || v.Engine.RevLimiterActive {
		return false
	}
	speed := v.ForwardSpeed()
	if math.Abs(speed) < cfg.LowerSpeed {
		return false
	}
	dir := 1.0
	if speed < 0 {
		dir = -1
	}
	locked := lo.SomeBy(v.Wheels, func(w *Wheel) bool {
		return w.Grounded() && w.ForwardFriction.Slip*dir > cfg.SlipThreshold
	})
	if !locked {
		return false
	}
	for _, w := range v.Wheels {
		w.BrakeTorque *= cfg.Intensity
	}
	return true
}

// esc brakes the wheels on one side when the car yaws away from where the
// driver is steering.
func (v *Vehicle) esc() bool {
	cfg := v.Config.ESC
	if !cfg.Enabled || v.ForwardSpeed() < cfg.LowerSpeed {
		return false
	}
	// in a clean turn the slip angle mirrors about half the steer angle
	angle := v.SlipAngle() + v.SteerAngle()*escSteerShare
	if math.Abs(angle) < cfg.AngleThreshold {
		return false
	}
	maxBrake := v.Config.Brakes.MaxBrakeTorque
	for _, w := range v.Wheels {
		if !w.Grounded() {
			continue
		}
		side := 1.0
		if w.Position.X() < 0 {
			side = -1
		}
		w.AddBrakeTorque(angle*side*cfg.Gain*cfg.Intensity, maxBrake)
	}
	return true
}

// transmission runs the automatic clutch and gearbox and returns the
// throttle the engine should see.
func (v *Vehicle) transmission(in Input) float64 {
	e := v.Engine
	if v.Clutch.Automatic {
		pedal := 0.0
		if (in.Brake > 0 && in.Throttle == 0) || e.RPM() < e.IdleRPM*antiStallRPM {
			pedal = 1
		}
		v.Clutch.SetPedal(math.Max(pedal, in.Clutch))
		v.Clutch.UpdateAutomatic(e.RPM(), e.IdleRPM)
	} else {
		v.Clutch.SetPedal(in.Clutch)
	}

	if v.Gearbox.Automatic {
		v.Gearbox.AutoShift(e.RPM(), v.maxDrivenSlip())
	}

	throttle := in.Throttle
	if v.Gearbox.Shifting() && e.AngularVelocity > e.IdleAV() {
		throttle = 0
	}
	return throttle
}

func (v *Vehicle) maxDrivenSlip() float64 {
	return lo.Max(lo.FilterMap(v.Wheels, func(w *Wheel, _ int) (float64, bool) {
		return math.Abs(w.ForwardFriction.Slip), w.Driven
	}))
}
