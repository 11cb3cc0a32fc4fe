// Package friction implements the sampled magic-formula tire curve and the
// shared surface presets.
//
// A [Curve] is an immutable value: two curves built from the same B, C, D
// and E evaluate identically. Wheels keep their own copy so they can be
// perturbed locally, for example by [Curve.WithStiffness] while the
// handbrake is pulled.
package friction
