// Package suspension implements the per-wheel spring and damper.
//
// The spring length is clamped to [0, MaxLength] every update and its
// [State] follows from the length alone: zero is [BottomedOut], MaxLength is
// [OverExtended] (and the wheel is treated as airborne), anything between
// is [Normal]. The load a [Unit] reports is never negative.
package suspension
