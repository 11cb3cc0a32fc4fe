// Package metrics reduces a run's telemetry rows to scalar scores. Every
// metric implements dynamo.Metric and reads the vehicle telemetry layout.
package metrics

import (
	"errors"
	"fmt"
	"sort"

	"github.com/san-kum/wheelsim/internal/dynamo"
)

var ErrUnknownMetric = errors.New("metrics: unknown metric")

// DefaultRollLimit is the roll or pitch, in degrees, past which a step
// counts as unstable.
const DefaultRollLimit = 45

var registry = map[string]func(wheels int) dynamo.Metric{
	"max_slip":           func(n int) dynamo.Metric { return NewMaxSlip(n) },
	"max_side_slip":      func(n int) dynamo.Metric { return NewMaxSideSlip(n) },
	"top_speed":          func(int) dynamo.Metric { return NewTopSpeed() },
	"distance":           func(int) dynamo.Metric { return NewDistance() },
	"stopping_distance":  func(int) dynamo.Metric { return NewStoppingDistance() },
	"peak_load_transfer": func(n int) dynamo.Metric { return NewPeakLoadTransfer(n) },
	"stability":          func(int) dynamo.Metric { return NewStability(DefaultRollLimit) },
	"control_effort":     func(int) dynamo.Metric { return NewControlEffort() },
}

// New returns a fresh metric by name for a vehicle with the given wheel count.
func New(name string, wheels int) (dynamo.Metric, error) {
	f, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMetric, name)
	}
	return f(wheels), nil
}

// Names lists every metric New knows, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Standard returns one of every metric.
func Standard(wheels int) []dynamo.Metric {
	out := make([]dynamo.Metric, 0, len(registry))
	for _, n := range Names() {
		out = append(out, registry[n](wheels))
	}
	return out
}
