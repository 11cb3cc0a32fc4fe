// Package tire computes longitudinal and lateral tire forces and integrates
// the wheel's angular velocity.
//
// A [Solver] integrates spin implicitly: motor torque first proposes a new
// angular velocity, brake torque pulls it toward zero without crossing it
// (a wheel that would cross is locked), and a no-slip correction bounded by
// the available grip removes the rest. Forward and side forces then come from
// the friction curve, share grip through the friction circle, and are bounded
// by the peak ellipse
//
//	(Fx/peakFx)² + (Fy/peakFy)² ≤ 1
//
// At rest an anti-creep spring holds the contact patch in place. An airborne
// wheel produces no force and its spin decays.
package tire
