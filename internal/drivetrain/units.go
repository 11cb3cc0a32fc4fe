package drivetrain

import "math"

func RPMToAngularVelocity(rpm float64) float64 { return rpm * 2 * math.Pi / 60 }

func AngularVelocityToRPM(av float64) float64 { return av * 60 / (2 * math.Pi) }

// PowerToTorque converts kW at av rad/s to Nm. Speeds below 1 rad/s are
// treated as 1 so the result stays finite near standstill.
func PowerToTorque(av, kw float64) float64 {
	if math.Abs(av) < 1 {
		av = math.Copysign(1, av)
	}
	return kw * 1000 / av
}

// TorqueToPower converts Nm at av rad/s to kW.
func TorqueToPower(av, torque float64) float64 { return torque * av / 1000 }
