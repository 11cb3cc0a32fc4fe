package analysis

import (
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"gonum.org/v1/gonum/stat"
)

// Spectrum returns the one-sided amplitude spectrum of data sampled every
// dt seconds. The mean is removed and a Hann window applied first.
// freqs[i] is the frequency in Hz of power[i].
func Spectrum(data []float64, dt float64) (freqs, power []float64) {
	n := len(data)
	if n < 2 || dt <= 0 {
		return nil, nil
	}

	mean := stat.Mean(data, nil)
	windowed := make([]float64, n)
	for i, v := range data {
		w := 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(n-1)))
		windowed[i] = (v - mean) * w
	}
	spectrum := fft.FFTReal(windowed)

	half := n/2 + 1
	freqs = make([]float64, half)
	power = make([]float64, half)
	for i := 0; i < half; i++ {
		freqs[i] = float64(i) / (float64(n) * dt)
		power[i] = cmplx.Abs(spectrum[i]) * 2 / float64(n)
	}
	return freqs, power
}

// DominantFrequency is the frequency with the most power at or above
// minHz, or 0 when the signal is flat.
func DominantFrequency(data []float64, dt, minHz float64) float64 {
	freqs, power := Spectrum(data, dt)
	best, bestIdx := 0.0, -1
	for i := 1; i < len(power); i++ {
		if freqs[i] < minHz {
			continue
		}
		if power[i] > best {
			best = power[i]
			bestIdx = i
		}
	}
	if bestIdx < 0 || best < 1e-12 {
		return 0
	}
	return freqs[bestIdx]
}
