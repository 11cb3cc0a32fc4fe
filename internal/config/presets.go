package config

import (
	"errors"
	"fmt"
	"sort"

	"github.com/san-kum/wheelsim/internal/drivetrain"
	"github.com/san-kum/wheelsim/internal/friction"
	"github.com/san-kum/wheelsim/internal/vehicle"
)

var ErrUnknownPreset = errors.New("config: unknown preset")

// Presets build a fresh config each call so callers can mutate the result.
var Presets = map[string]func() *Config{
	"street":   street,
	"drift":    drift,
	"offroad":  offroad,
	"electric": electric,
	"truck":    truck,
}

// GetPreset returns a new config for the named preset.
func GetPreset(name string) (*Config, error) {
	build, ok := Presets[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPreset, name)
	}
	cfg := build()
	cfg.Preset = name
	cfg.Vehicle.Name = name
	return cfg, nil
}

// ListPresets returns the preset names, sorted.
func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for n := range Presets {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func street() *Config {
	return DefaultConfig()
}

// drift is a light, powerful rear-driver with the assists off and a wide
// steering lock.
func drift() *Config {
	cfg := DefaultConfig()
	v := &cfg.Vehicle
	v.Name = "drift"
	v.Body.Mass = 1100
	v.Engine.MaxPower = 220
	v.Engine.RevLimiterRPM = 7000
	v.Gearbox.UpshiftRPM = 6600
	v.Gearbox.DownshiftRPM = 3500
	v.Differential.LockCoefficient = 0.5
	v.Tire.SideGrip = 0.85
	v.Steering.MaxSteerAngle = 40
	v.Steering.HelpSteerPower = 0.3
	v.ABS.Enabled = false
	v.ESC.Enabled = false
	return cfg
}

// offroad is an all-wheel-drive car on tall, soft suspension.
func offroad() *Config {
	cfg := DefaultConfig()
	v := &cfg.Vehicle
	v.Name = "offroad"
	v.Body.Mass = 1800
	v.Body.Size = [3]float64{1.9, 1.6, 4.5}
	v.DriveType = vehicle.AWD
	v.Wheels = vehicle.StandardWheels(1.7, 1.4, -1.4, 0.2, 0.4, 0.28, 30)
	v.Suspension.Spring.MaxLength = 0.45
	v.Suspension.Spring.MaxForce = 20000
	v.Suspension.Damper.BumpRate = 3500
	v.Suspension.Damper.ReboundRate = 3500
	v.Engine.MaxPower = 150
	v.Gearbox.Ratios = []float64{4.2, 2.5, 1.6, 1.2, 1}
	v.Differential.LockCoefficient = 0.3
	v.Tire.LoadRating = 7000
	cfg.Terrain.Shapes[0].Surface.Name = "gravel"
	cfg.Terrain.Shapes[0].Surface.Preset = friction.Gravel
	return cfg
}

// electric uses a single-speed reduction behind a motor, so the clutch stays
// locked.
func electric() *Config {
	cfg := DefaultConfig()
	v := &cfg.Vehicle
	v.Name = "electric"
	v.Body.Mass = 1700
	v.Engine = *drivetrain.NewElectricMotor()
	v.Engine.MaxPower = 150
	v.Clutch.Automatic = false
	v.Gearbox.Ratios = []float64{1}
	v.Gearbox.Automatic = false
	v.Differential.FinalDrive = 9
	v.Suspension.Spring.MaxForce = 22000
	return cfg
}

// truck is a heavy, long rear-driver with big wheels and brakes.
func truck() *Config {
	cfg := DefaultConfig()
	v := &cfg.Vehicle
	v.Name = "truck"
	v.Body.Mass = 3500
	v.Body.Size = [3]float64{2.3, 2.4, 6.5}
	v.Wheels = vehicle.StandardWheels(2, 2.3, -2.3, 0.25, 0.5, 0.3, 60)
	v.Suspension.Spring.MaxForce = 40000
	v.Suspension.Damper.BumpRate = 8000
	v.Suspension.Damper.ReboundRate = 8000
	v.Tire.LoadRating = 14000
	v.Engine.MaxPower = 260
	v.Engine.Inertia = 0.6
	v.Engine.IdleRPM = 700
	v.Engine.RevLimiterRPM = 3200
	v.Gearbox.Ratios = []float64{5.5, 3.4, 2.2, 1.5, 1.1, 0.85}
	v.Gearbox.UpshiftRPM = 3000
	v.Gearbox.DownshiftRPM = 1300
	v.Gearbox.ShiftDuration = 0.3
	v.Clutch.TorqueCapacity = 1500
	v.Clutch.EngagementRPM = 1000
	v.Differential.FinalDrive = 4.8
	v.Brakes.MaxBrakeTorque = 9000
	v.Brakes.RollingResistance = 15
	return cfg
}
