// Package ground finds where each wheel meets the world.
//
// The world is anything implementing [Caster]; [Plane], [Box] and
// [Heightfield] cover flat roads, curbs and bumpy tracks, and [Terrain]
// combines them. A [Probe] turns casts into a [ContactSample].
//
// # Why a fan
//
// A single ray straight down from the hub only sees the ground directly
// below the axle. When the tire meets a curb edge or a change of slope the
// first point of contact is ahead of or behind the axle, and the ray
// reports the wheel as floating. The fan samples ±Spread degrees around the
// axle, converts each hit to the wheel-center height at which the tire
// circle would touch it, and keeps the highest. Treat this as a correctness
// requirement of the wheel, not an optimization.
package ground
