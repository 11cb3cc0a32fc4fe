package control

import (
	"sort"

	"github.com/san-kum/wheelsim/internal/dynamo"
	"github.com/san-kum/wheelsim/internal/vehicle"
)

// Keyframe sets the driver's axes from At onwards. Gear and StartStop are
// one-shot events fired when the script reaches At.
type Keyframe struct {
	At        float64 `yaml:"at"`
	Throttle  float64 `yaml:"throttle"`
	Brake     float64 `yaml:"brake"`
	Steering  float64 `yaml:"steering"`
	Handbrake float64 `yaml:"handbrake"`
	Clutch    float64 `yaml:"clutch"`
	Gear      *int    `yaml:"gear,omitempty"`
	StartStop bool    `yaml:"start_stop,omitempty"`
}

// Script replays a keyframed timeline. By default each key holds until the
// next one; Smooth interpolates the axes linearly between keys instead.
type Script struct {
	Keys   []Keyframe
	Smooth bool

	next   int
	curves [5]dynamo.Curve
}

func NewScript(smooth bool, keys ...Keyframe) *Script {
	s := &Script{Keys: append([]Keyframe(nil), keys...), Smooth: smooth}
	s.Reset()
	return s
}

// Duration is the time of the last key.
func (s *Script) Duration() float64 {
	if len(s.Keys) == 0 {
		return 0
	}
	return s.Keys[len(s.Keys)-1].At
}

func (s *Script) Reset() {
	sort.SliceStable(s.Keys, func(i, j int) bool { return s.Keys[i].At < s.Keys[j].At })
	s.next = 0
	for i := range s.curves {
		s.curves[i] = s.curves[i][:0]
	}
	for _, k := range s.Keys {
		for i, v := range k.axes() {
			s.curves[i] = append(s.curves[i], dynamo.Key{T: k.At, V: v})
		}
	}
}

func (s *Script) Input(_ Observation, t float64) vehicle.Input {
	var in vehicle.Input
	if len(s.Keys) == 0 {
		return in
	}
	if len(s.curves[0]) != len(s.Keys) {
		s.Reset()
	}

	var axes [5]float64
	if s.Smooth {
		for i, c := range s.curves {
			axes[i] = c.Evaluate(t)
		}
	} else if i := sort.Search(len(s.Keys), func(i int) bool { return s.Keys[i].At > t }); i > 0 {
		axes = s.Keys[i-1].axes()
	}
	in.Throttle, in.Brake, in.Steering, in.Handbrake, in.Clutch = axes[0], axes[1], axes[2], axes[3], axes[4]

	for s.next < len(s.Keys) && s.Keys[s.next].At <= t {
		k := s.Keys[s.next]
		if k.Gear != nil {
			in.ShiftInto = vehicle.Gear(*k.Gear)
		}
		in.EngineStartStop = in.EngineStartStop != k.StartStop
		s.next++
	}
	return in
}

func (k Keyframe) axes() [5]float64 {
	return [5]float64{k.Throttle, k.Brake, k.Steering, k.Handbrake, k.Clutch}
}
