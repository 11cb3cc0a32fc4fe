package analysis

import (
	"fmt"
	"math"

	"github.com/samber/lo"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

type Summary struct {
	N     int
	Min   float64
	Max   float64
	Mean  float64
	Std   float64
	RMS   float64
	Final float64
}

// Summarize skips NaN samples.
func Summarize(data []float64) Summary {
	clean := lo.Filter(data, func(v float64, _ int) bool { return !math.IsNaN(v) })
	if len(clean) == 0 {
		return Summary{}
	}
	mean, std := stat.MeanStdDev(clean, nil)
	if len(clean) < 2 {
		std = 0
	}
	return Summary{
		N:     len(clean),
		Min:   floats.Min(clean),
		Max:   floats.Max(clean),
		Mean:  mean,
		Std:   std,
		RMS:   floats.Norm(clean, 2) / math.Sqrt(float64(len(clean))),
		Final: clean[len(clean)-1],
	}
}

func (s Summary) String() string {
	return fmt.Sprintf("n=%d min=%.4g max=%.4g mean=%.4g std=%.4g rms=%.4g final=%.4g",
		s.N, s.Min, s.Max, s.Mean, s.Std, s.RMS, s.Final)
}
