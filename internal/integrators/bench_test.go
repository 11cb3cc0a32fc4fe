package integrators

import (
	"testing"

	"github.com/san-kum/wheelsim/internal/dynamo"
)

func benchmarkIntegrator(b *testing.B, name string) {
	integrator, err := ByName(name)
	if err != nil {
		b.Fatal(err)
	}
	dyn := &oscillator{}
	x := dynamo.State{1.0, 0.0}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		x = integrator.Step(dyn, x, nil, 0, 0.01)
	}
}

func BenchmarkEuler(b *testing.B) { benchmarkIntegrator(b, "euler") }
func BenchmarkRK4(b *testing.B)   { benchmarkIntegrator(b, "rk4") }
func BenchmarkRK45(b *testing.B)  { benchmarkIntegrator(b, "rk45") }
