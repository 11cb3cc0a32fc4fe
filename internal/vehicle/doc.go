// Package vehicle assembles wheels, suspension, tires and a drivetrain
// around a rigid body and steps them together.
//
// A step runs in two phases. First every wheel probes the ground and
// updates its suspension, and the WheelManager sums the loads. Then the
// assists set brake torque, the engine drives the drivetrain (which solves
// the driven tires), the remaining tires are solved directly, and all
// suspension and tire forces are applied to the body. Forces only
// accumulate, so wheel order does not change the result beyond rounding.
package vehicle
