package friction

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var ErrUnknownPreset = errors.New("friction: unknown preset")

// Preset names a shared surface curve.
type Preset int

const (
	Default Preset = iota
	Asphalt
	AsphaltWet
	Generic
	Grass
	Dirt
	Gravel
	Ice
	Rock
	Sand
	Snow
	Tracks
	Arcade
	Street
)

var presetNames = map[Preset]string{
	Default:    "default",
	Asphalt:    "asphalt",
	AsphaltWet: "asphalt_wet",
	Generic:    "generic",
	Grass:      "grass",
	Dirt:       "dirt",
	Gravel:     "gravel",
	Ice:        "ice",
	Rock:       "rock",
	Sand:       "sand",
	Snow:       "snow",
	Tracks:     "tracks",
	Arcade:     "arcade",
	Street:     "street",
}

var presets = map[Preset]Curve{
	Default:    NewCurve(12.5, 2.05, 0.925, 0.97),
	Asphalt:    NewCurve(9, 2.15, 0.933, 0.871),
	AsphaltWet: NewCurve(9, 2.35, 0.82, 0.907),
	Generic:    NewCurve(8, 1.9, 0.8, 0.99),
	Grass:      NewCurve(7.38, 1.1, 0.538, 1),
	Dirt:       NewCurve(7.38, 1.1, 0.538, 1),
	Gravel:     NewCurve(5.39, 1.03, 0.634, 1),
	Ice:        NewCurve(1.2, 2, 0.16, 1),
	Rock:       NewCurve(7.24, 2.11, 0.59, 1),
	Sand:       NewCurve(5.13, 1.2, 0.443, 0.5),
	Snow:       NewCurve(8.5, 1.1, 0.4, 0.9),
	Tracks:     NewCurve(0.1, 2, 2, 1),
	Arcade:     NewCurve(7.09, 0.87, 2, 0.5),
	Street:     NewCurve(9, 1.87, 1, 0.6),
}

func (p Preset) String() string {
	if n, ok := presetNames[p]; ok {
		return n
	}
	return fmt.Sprintf("preset(%d)", int(p))
}

// Get returns a copy of the preset curve. Unknown presets fall back to Default.
func Get(p Preset) Curve {
	if c, ok := presets[p]; ok {
		return c
	}
	return presets[Default]
}

func ParsePreset(name string) (Preset, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for p, n := range presetNames {
		if n == name {
			return p, nil
		}
	}
	return Default, fmt.Errorf("%w: %q", ErrUnknownPreset, name)
}

// Presets lists every preset in enum order.
func Presets() []Preset {
	out := make([]Preset, 0, len(presetNames))
	for p := range presetNames {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (p Preset) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Preset) UnmarshalText(b []byte) error {
	v, err := ParsePreset(string(b))
	if err != nil {
		return err
	}
	*p = v
	return nil
}
