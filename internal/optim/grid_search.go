// Package optim tunes vehicle config values against a run metric.
package optim

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"github.com/san-kum/wheelsim/internal/config"
	"github.com/san-kum/wheelsim/internal/sim"
)

var log = logrus.WithField("module", "optim")

var ErrNoCandidate = errors.New("optim: no candidate produced the metric")

// GridSearch tries every combination of values for a set of config paths.
type GridSearch struct {
	paramNames []string
	ranges     [][]float64
	// Maximize flips the objective; by default the metric is minimized.
	Maximize bool
}

func NewGridSearch(params []string, ranges [][]float64) *GridSearch {
	return &GridSearch{paramNames: params, ranges: ranges}
}

// Linspace returns n evenly spaced values from lo to hi inclusive.
func Linspace(lo, hi float64, n int) []float64 {
	if n <= 1 {
		return []float64{lo}
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = lo + (hi-lo)*float64(i)/float64(n-1)
	}
	return out
}

type Best struct {
	Params    map[string]float64
	Value     float64
	Evaluated int
	Failed    int
}

// Search runs base once per grid point, in parallel, and returns the point
// with the best value of metricName. Points whose runs fail or do not
// produce a finite metric are skipped.
func (g *GridSearch) Search(ctx context.Context, base *config.Config, metricName string) (Best, error) {
	if len(g.paramNames) != len(g.ranges) {
		return Best{}, fmt.Errorf("optim: %d params but %d ranges", len(g.paramNames), len(g.ranges))
	}
	var points []map[string]float64
	g.searchRecursive(0, make(map[string]float64), &points)

	jobs := make([]sim.Job, 0, len(points))
	for _, p := range points {
		cfg := base.Clone()
		for k, v := range p {
			if err := cfg.SetFloat(k, v); err != nil {
				return Best{}, err
			}
		}
		if len(cfg.Sim.Metrics) > 0 && !lo.Contains(cfg.Sim.Metrics, metricName) {
			cfg.Sim.Metrics = append(cfg.Sim.Metrics, metricName)
		}
		jobs = append(jobs, sim.Job{Name: fmt.Sprint(p), Config: cfg})
	}

	sign := 1.0
	if g.Maximize {
		sign = -1
	}
	best := Best{Value: math.Inf(1), Evaluated: len(points)}
	for i, o := range sim.RunParallel(ctx, jobs) {
		if o.Err != nil {
			best.Failed++
			continue
		}
		val, ok := o.Result.Metrics[metricName]
		if !ok || math.IsNaN(val) || math.IsInf(val, 0) {
			best.Failed++
			continue
		}
		if best.Params == nil || sign*val < sign*best.Value {
			best.Value = val
			best.Params = points[i]
		}
	}
	if err := ctx.Err(); err != nil {
		return best, err
	}
	if best.Params == nil {
		return best, fmt.Errorf("%w: %s", ErrNoCandidate, metricName)
	}

	log.WithFields(logrus.Fields{
		"metric":    metricName,
		"value":     best.Value,
		"evaluated": best.Evaluated,
		"failed":    best.Failed,
	}).Info("grid search finished")
	return best, nil
}

func (g *GridSearch) searchRecursive(depth int, current map[string]float64, out *[]map[string]float64) {
	if depth == len(g.paramNames) {
		*out = append(*out, current)
		return
	}

	paramName := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		newParams := make(map[string]float64, len(current)+1)
		for k, v := range current {
			newParams[k] = v
		}
		newParams[paramName] = val

		g.searchRecursive(depth+1, newParams, out)
	}
}
