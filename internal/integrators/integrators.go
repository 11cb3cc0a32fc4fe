package integrators

import (
	"errors"
	"fmt"
	"sort"

	"github.com/san-kum/wheelsim/internal/dynamo"
)

var ErrUnknownIntegrator = errors.New("integrators: unknown integrator")

var registry = map[string]func() dynamo.Integrator{
	"euler": func() dynamo.Integrator { return NewEuler() },
	"rk4":   func() dynamo.Integrator { return NewRK4() },
	"rk45":  func() dynamo.Integrator { return NewRK45() },
}

// ByName returns a fresh integrator. Integrators keep scratch buffers, so
// each body needs its own.
func ByName(name string) (dynamo.Integrator, error) {
	f, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownIntegrator, name)
	}
	return f(), nil
}

func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// axpy writes x + a*y into dst.
func axpy(dst, x dynamo.State, a float64, y dynamo.State) {
	for i := range dst {
		dst[i] = x[i] + a*y[i]
	}
}
