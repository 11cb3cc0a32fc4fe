package drivetrain

import (
	"errors"
	"fmt"
)

var ErrInvalidGear = errors.New("drivetrain: invalid gear")

const (
	GearReverse = -1
	GearNeutral = 0
)

// Gearbox holds a discrete gear. Gear -1 is reverse, 0 neutral and
// 1..len(Ratios) the forward gears.
type Gearbox struct {
	Component `yaml:",inline"`

	Ratios        []float64 `yaml:"ratios"`
	ReverseRatio  float64   `yaml:"reverse_ratio"`
	ShiftDuration float64   `yaml:"shift_duration"`

	Automatic    bool    `yaml:"automatic"`
	UpshiftRPM   float64 `yaml:"upshift_rpm"`
	DownshiftRPM float64 `yaml:"downshift_rpm"`
	MaxShiftSlip float64 `yaml:"max_shift_slip"`

	Gear       int `yaml:"-"`
	shiftTimer float64
}

func NewGearbox() *Gearbox {
	return &Gearbox{
		Component:     Component{Name: "gearbox", Inertia: 0.02},
		Ratios:        []float64{3.59, 2.02, 1.38, 1, 0.87},
		ReverseRatio:  4,
		ShiftDuration: 0.14,
		UpshiftRPM:    4400,
		DownshiftRPM:  2000,
		MaxShiftSlip:  0.5,
		Gear:          1,
		shiftTimer:    1,
	}
}

// Reset ends any shift in progress.
func (g *Gearbox) Reset() {
	g.shiftTimer = g.ShiftDuration + 1
}

// Ratio is the signed ratio of the current gear, 0 in neutral.
func (g *Gearbox) Ratio() float64 {
	switch {
	case g.Gear < 0:
		return -g.ReverseRatio
	case g.Gear == 0 || g.Gear > len(g.Ratios):
		return 0
	default:
		return g.Ratios[g.Gear-1]
	}
}

func (g *Gearbox) Shifting() bool { return g.shiftTimer < g.ShiftDuration }

func (g *Gearbox) CanShift() bool { return g.shiftTimer > g.ShiftDuration }

// SetGear selects a gear and starts the shift cooldown.
func (g *Gearbox) SetGear(gear int) error {
	if gear < GearReverse || gear > len(g.Ratios) {
		return fmt.Errorf("%w: %d (have reverse..%d)", ErrInvalidGear, gear, len(g.Ratios))
	}
	if gear == g.Gear {
		return nil
	}
	g.Gear = gear
	g.shiftTimer = 0
	return nil
}

// ShiftUp moves one gear up. It reports whether the gear changed.
func (g *Gearbox) ShiftUp() bool {
	if !g.CanShift() || g.Gear >= len(g.Ratios) {
		return false
	}
	return g.SetGear(g.Gear+1) == nil
}

func (g *Gearbox) ShiftDown() bool {
	if !g.CanShift() || g.Gear <= GearReverse {
		return false
	}
	return g.SetGear(g.Gear-1) == nil
}

// AutoShift picks the next forward gear from engine rpm. Reverse and
// neutral are left to the driver.
func (g *Gearbox) AutoShift(engineRPM, drivenSlip float64) {
	if !g.Automatic || g.Gear < 1 || !g.CanShift() {
		return
	}
	switch {
	case engineRPM > g.UpshiftRPM && drivenSlip <= g.MaxShiftSlip:
		g.ShiftUp()
	case engineRPM < g.DownshiftRPM && g.Gear > 1:
		g.ShiftDown()
	}
}

func (g *Gearbox) QueryAngularVelocity(av, dt float64) float64 {
	g.InputAV = av
	r := g.Ratio()
	out := g.Output()
	if out == nil {
		g.OutputAV = av
		return av
	}
	if r == 0 {
		g.OutputAV = out.QueryAngularVelocity(0, dt)
		return av
	}
	g.OutputAV = out.QueryAngularVelocity(av/r, dt)
	return g.OutputAV * r
}

// ForwardStep multiplies torque by the ratio. In neutral or mid-shift the
// output still steps with zero torque so the wheels keep solving.
func (g *Gearbox) ForwardStep(torque, inertiaSum, dt float64) float64 {
	g.shiftTimer += dt
	g.InputTorque = torque
	out := g.Output()
	if out == nil {
		g.OutputTorque = torque
		return torque
	}
	r := g.Ratio()
	if r == 0 || g.Shifting() {
		g.OutputTorque = 0
		out.ForwardStep(0, 0, dt)
		return 0
	}
	g.OutputTorque = torque * r
	ret := out.ForwardStep(g.OutputTorque, (inertiaSum+g.Inertia)*r*r, dt)
	return ret / r
}
