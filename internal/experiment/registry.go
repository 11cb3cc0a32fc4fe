package experiment

import (
	"errors"
	"fmt"
	"sort"

	"github.com/samber/lo"

	"github.com/san-kum/wheelsim/internal/control"
	"github.com/san-kum/wheelsim/internal/friction"
	"github.com/san-kum/wheelsim/internal/ground"
	"github.com/san-kum/wheelsim/internal/metrics"
)

var ErrNotRegistered = errors.New("experiment: not registered")

// Registry names the reusable pieces of an experiment: driver programs,
// terrains and metric sets. Entries are returned as copies.
type Registry struct {
	drivers  map[string]control.Spec
	terrains map[string]ground.Spec
	metrics  map[string][]string
}

func NewRegistry() *Registry {
	r := &Registry{
		drivers:  make(map[string]control.Spec),
		terrains: make(map[string]ground.Spec),
		metrics:  make(map[string][]string),
	}

	r.drivers["idle"] = control.Spec{Kind: control.KindIdle}
	r.drivers["launch"] = control.Spec{Kind: control.KindConstant, Constant: control.Constant{Throttle: 1}}
	r.drivers["cruise"] = control.Spec{Kind: control.KindCruise, Speed: 20}
	r.drivers["circle"] = control.Spec{Kind: control.KindCircle, Speed: 12, Steering: 0.5}
	r.drivers["slalom"] = control.Spec{Kind: control.KindSlalom, Speed: 15, Amplitude: 0.4, Period: 3}
	r.drivers["lane"] = control.Spec{Kind: control.KindLane, Speed: 20}
	r.drivers["brake_test"] = control.Spec{Kind: control.KindScript, Keys: []control.Keyframe{
		{At: 0, Throttle: 1},
		{At: 6, Brake: 1},
	}}
	r.drivers["step_steer"] = control.Spec{Kind: control.KindScript, Keys: []control.Keyframe{
		{At: 0, Throttle: 0.6},
		{At: 4, Throttle: 0.3, Steering: 0.6},
	}}
	r.drivers["handbrake_turn"] = control.Spec{Kind: control.KindScript, Keys: []control.Keyframe{
		{At: 0, Throttle: 0.8},
		{At: 4, Steering: 0.8, Handbrake: 1},
		{At: 5, Throttle: 0.4},
	}}

	asphalt := ground.DefaultSurface()
	r.terrains["flat"] = ground.DefaultSpec()
	r.terrains["wet"] = flatOn(ground.Surface{Name: "asphalt_wet", Friction: 1, Preset: friction.AsphaltWet})
	r.terrains["ice"] = flatOn(ground.Surface{Name: "ice", Friction: 1, Preset: friction.Ice})
	r.terrains["gravel"] = flatOn(ground.Surface{Name: "gravel", Friction: 1, Preset: friction.Gravel})
	r.terrains["hill"] = ground.Spec{Shapes: []ground.ShapeSpec{{Kind: "slope", Angle: 10, Surface: asphalt}}}
	r.terrains["curb"] = ground.Spec{Shapes: []ground.ShapeSpec{
		{Kind: "flat", Surface: asphalt},
		{Kind: "box", Name: "curb", Min: [3]float64{-4, 0, 12}, Max: [3]float64{4, 0.1, 12.5}, Surface: asphalt},
	}}
	r.terrains["bumps"] = ground.Spec{Shapes: []ground.ShapeSpec{
		{Kind: "flat", Surface: asphalt},
		{Kind: "bumps", Length: 80, Width: 10, Amplitude: 0.05, Wavelength: 4, Cell: 0.5, Surface: asphalt},
	}}

	r.metrics["all"] = metrics.Names()
	r.metrics["handling"] = []string{"max_side_slip", "peak_load_transfer", "stability"}
	r.metrics["traction"] = []string{"max_slip", "top_speed", "distance"}
	r.metrics["braking"] = []string{"stopping_distance", "max_slip", "stability"}

	return r
}

func flatOn(s ground.Surface) ground.Spec {
	return ground.Spec{Shapes: []ground.ShapeSpec{{Kind: "flat", Surface: s}}}
}

func (r *Registry) RegisterDriver(name string, s control.Spec)  { r.drivers[name] = s }
func (r *Registry) RegisterTerrain(name string, s ground.Spec)  { r.terrains[name] = s }
func (r *Registry) RegisterMetrics(name string, names []string) { r.metrics[name] = names }

func (r *Registry) GetDriver(name string) (control.Spec, error) {
	s, ok := r.drivers[name]
	if !ok {
		return control.Spec{}, fmt.Errorf("%w: driver %q", ErrNotRegistered, name)
	}
	s.Keys = append([]control.Keyframe(nil), s.Keys...)
	return s, nil
}

func (r *Registry) GetTerrain(name string) (ground.Spec, error) {
	s, ok := r.terrains[name]
	if !ok {
		return ground.Spec{}, fmt.Errorf("%w: terrain %q", ErrNotRegistered, name)
	}
	s.Shapes = append([]ground.ShapeSpec(nil), s.Shapes...)
	return s, nil
}

func (r *Registry) GetMetrics(name string) ([]string, error) {
	m, ok := r.metrics[name]
	if !ok {
		return nil, fmt.Errorf("%w: metric set %q", ErrNotRegistered, name)
	}
	return append([]string(nil), m...), nil
}

func (r *Registry) ListDrivers() []string    { return sortedKeys(r.drivers) }
func (r *Registry) ListTerrains() []string   { return sortedKeys(r.terrains) }
func (r *Registry) ListMetricSets() []string { return sortedKeys(r.metrics) }

func sortedKeys[V any](m map[string]V) []string {
	keys := lo.Keys(m)
	sort.Strings(keys)
	return keys
}
