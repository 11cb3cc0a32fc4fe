// Package dynamo provides the shared simulation primitives.
//
// The package defines the types every other package builds on:
//
//   - [State]: a flat vector, used both for rigid-body state and for
//     per-step telemetry rows
//   - [System]: an ODE (dX/dt = f(X, u, t)) integrated by an [Integrator]
//   - [Metric] and [Observer]: per-step hooks owned by the runner
//   - [Curve]: keyframed lookup used for power curves and spring rates
//   - [Config] and [Result]: run parameters and recorded output
//
// # Example
//
//	power := dynamo.NewCurve(dynamo.Key{T: 0, V: 0}, dynamo.Key{T: 1, V: 1})
//	p := power.Evaluate(0.35)
//
// # Thread Safety
//
// Values in this package carry no shared state. [ParallelFor] runs
// independent chunks concurrently; callers must not share mutable data
// between chunks.
package dynamo
