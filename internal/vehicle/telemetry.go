package vehicle

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/wheelsim/internal/dynamo"
)

// Telemetry row layout. Per-wheel blocks of WheelColumns follow
// ColWheelBase, in wheel order.
const (
	ColPosX = iota
	ColPosY
	ColPosZ
	ColSpeed
	ColLateralSpeed
	ColVerticalSpeed
	ColYaw
	ColPitch
	// ColRoll is positive when the right side rises.
	ColRoll
	ColYawRate
	ColSlipAngle
	ColEngineRPM
	ColGear
	ColThrottle
	ColBrake
	ColSteer
	ColClutch
	ColCombinedLoad
	ColABS
	ColESC
	ColWheelBase
)

const (
	WheelLoad = iota
	WheelFwdSlip
	WheelSideSlip
	WheelAngularVelocity
	WheelCompression
	WheelGrounded
	WheelColumns
)

var baseColumnNames = [...]string{
	"pos_x", "pos_y", "pos_z", "speed", "lateral_speed", "vertical_speed",
	"yaw", "pitch", "roll", "yaw_rate", "slip_angle",
	"engine_rpm", "gear", "throttle", "brake", "steer", "clutch",
	"combined_load", "abs", "esc",
}

var wheelColumnNames = [...]string{"load", "fwd_slip", "side_slip", "av", "compression", "grounded"}

// WheelColumn returns the telemetry index of field for wheel i.
func WheelColumn(i, field int) int { return ColWheelBase + i*WheelColumns + field }

// ColumnNames names every telemetry column for a vehicle with the given
// wheel names.
func ColumnNames(wheels []string) []string {
	names := append([]string(nil), baseColumnNames[:]...)
	for _, w := range wheels {
		for _, f := range wheelColumnNames {
			names = append(names, fmt.Sprintf("%s.%s", w, f))
		}
	}
	return names
}

// ColumnIndex finds a column by name, or -1.
func ColumnIndex(wheels []string, name string) int {
	for i, n := range ColumnNames(wheels) {
		if n == name {
			return i
		}
	}
	return -1
}

func (v *Vehicle) WheelNames() []string {
	names := make([]string, len(v.Wheels))
	for i, w := range v.Wheels {
		names[i] = w.Name
	}
	return names
}

// Telemetry snapshots the vehicle into one row.
func (v *Vehicle) Telemetry() dynamo.State {
	row := make(dynamo.State, ColWheelBase+len(v.Wheels)*WheelColumns)
	pos := v.Body.Position()
	rot := v.Body.Rotation()
	vel := v.Body.Velocity()
	fwd := rot.Rotate(mgl64.Vec3{0, 0, 1})
	up := rot.Rotate(mgl64.Vec3{0, 1, 0})
	right := rot.Rotate(mgl64.Vec3{1, 0, 0})

	copy(row[ColPosX:ColPosZ+1], pos[:])
	row[ColSpeed] = vel.Dot(fwd)
	row[ColLateralSpeed] = vel.Dot(right)
	row[ColVerticalSpeed] = vel.Dot(up)
	row[ColYaw] = mgl64.RadToDeg(math.Atan2(fwd.X(), fwd.Z()))
	row[ColPitch] = mgl64.RadToDeg(math.Asin(clampUnit(fwd.Y())))
	row[ColRoll] = mgl64.RadToDeg(math.Asin(clampUnit(right.Y())))
	row[ColYawRate] = mgl64.RadToDeg(v.Body.AngularVelocity().Dot(up))
	row[ColSlipAngle] = v.SlipAngle()
	row[ColEngineRPM] = v.Engine.RPM()
	row[ColGear] = float64(v.Gearbox.Gear)
	row[ColThrottle] = v.Throttle
	row[ColBrake] = v.Input.Brake
	row[ColSteer] = v.SteerAngle()
	row[ColClutch] = v.Clutch.Engagement
	row[ColCombinedLoad] = v.Manager.CombinedLoad
	row[ColABS] = boolColumn(v.ABSActive)
	row[ColESC] = boolColumn(v.ESCActive)

	for i, w := range v.Wheels {
		row[WheelColumn(i, WheelLoad)] = w.Load
		row[WheelColumn(i, WheelFwdSlip)] = w.ForwardFriction.Slip
		row[WheelColumn(i, WheelSideSlip)] = w.SideFriction.Slip
		row[WheelColumn(i, WheelAngularVelocity)] = w.AngularVelocity
		row[WheelColumn(i, WheelCompression)] = w.Suspension.Spring.Compression()
		row[WheelColumn(i, WheelGrounded)] = boolColumn(w.Grounded())
	}
	return row
}

// DriverControl packs the applied input into a control row.
func (v *Vehicle) DriverControl() dynamo.Control {
	u := make(dynamo.Control, dynamo.ControlDim)
	u[dynamo.ControlThrottle] = v.Throttle
	u[dynamo.ControlBrake] = v.Input.Brake
	u[dynamo.ControlSteering] = v.Input.Steering
	u[dynamo.ControlHandbrake] = v.Input.Handbrake
	u[dynamo.ControlClutch] = v.Input.Clutch
	return u
}

func boolColumn(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func clampUnit(x float64) float64 { return math.Max(-1, math.Min(1, x)) }
