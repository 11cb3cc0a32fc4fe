// Package control provides the drivers that steer a vehicle through a run.
//
// A [Driver] maps an [Observation] of the vehicle to one step of
// [vehicle.Input]:
//
//   - [Idle] and [Constant]: open loop
//   - [Script]: a keyframed timeline of axes and gear events
//   - [Cruise]: PID speed hold, with [Circle] and [Slalom] variants
//   - [Lane]: cruise plus [LQR] steering onto a straight line
//   - [Manual]: whatever a keyboard handler last set
//
// Drivers are usually built from a [Spec] read out of a config file.
//
// # Usage
//
//	d, err := control.Spec{Kind: control.KindCruise, Speed: 20}.Build()
//	in := d.Input(control.Observe(v), t)
package control
