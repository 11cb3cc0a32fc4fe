// Package body integrates a single rigid body for the vehicle chassis.
//
// The state vector is position, velocity, orientation quaternion and world
// angular velocity (see the Pos*, Vel*, Rot* and Ang* indices). Forces and
// torques applied during a step are summed and handed to the integrator as
// a constant control over that step.
package body
