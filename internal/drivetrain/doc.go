// Package drivetrain moves torque from an engine to the wheels through a
// graph of nodes (clutch, gearbox, differential, wheel).
//
// Every step the engine asks its output for the combined inertia and the
// speed the load wants, then pushes torque down the chain with
// ForwardStep. QueryInertia is a plain sum of every node's own inertia.
// ForwardStep scales torque and the running inertia by each ratio on the
// way down and returns the reaction on the way up. Wheel nodes are terminal
// and hand the torque to the tire, returning its counter torque. Any other
// node left without an output returns its input torque unchanged.
//
// This is not an exact solve of the coupled system. The engine integrates
// against last step's wheel speeds, so the chain lags by one step.
//
// Nodes live in a Graph arena and refer to each other by NodeID. Connect
// enforces one output per node (two for a Differential), one input per
// node and no cycles.
package drivetrain
