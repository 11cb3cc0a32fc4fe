// Package viz is the terminal front end for live driving.
//
// [Model] steps a [sim.Simulator] in real time inside a Bubble Tea
// program and shows a chase view of the car, a top-down track map, a
// speed history and per-wheel load and slip. The keyboard can take over
// from the configured driver at any point; since terminals report key
// presses but not releases, pedals and steering are held as levels that
// each press moves by a quarter.
//
// Drawing goes through [Canvas], a braille grid with 2x4 dots per cell.
// [Recorder] turns canvas frames into a GIF.
package viz
