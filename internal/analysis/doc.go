// Package analysis reduces recorded telemetry to numbers and terminal
// plots.
//
//   - [Spectrum] and [DominantFrequency]: ride and oscillation frequencies
//     of a telemetry column (body heave, pitch, wheel load)
//   - [Summarize]: min, max, mean, spread and RMS of a column
//   - [NewScatter] and [NewSection]: two-column plots such as the g-g
//     diagram or slip angle against yaw rate
//
// # Ride frequency
//
// The pitch column of a car dropped onto flat ground rings at the body's
// pitch frequency:
//
//	hz := analysis.DominantFrequency(result.Column(vehicle.ColPitch), dt, 0.2)
package analysis
