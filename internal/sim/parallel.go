package sim

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/san-kum/wheelsim/internal/config"
	"github.com/san-kum/wheelsim/internal/dynamo"
)

// Job is one independent run of RunParallel.
type Job struct {
	Name   string
	Config *config.Config
}

type Outcome struct {
	Name   string
	Result *dynamo.Result
	Err    error
}

// RunParallel runs every job on its own simulator. Vehicles share nothing,
// so jobs run concurrently; outcomes come back in job order.
func RunParallel(ctx context.Context, jobs []Job) []Outcome {
	out := make([]Outcome, len(jobs))
	start := time.Now()
	dynamo.ParallelFor(len(jobs), 1, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			out[i] = runJob(ctx, jobs[i])
		}
	})

	failed := 0
	for _, o := range out {
		if o.Err != nil {
			failed++
		}
	}
	log.WithFields(logrus.Fields{
		"jobs":    len(jobs),
		"failed":  failed,
		"elapsed": time.Since(start).Round(time.Millisecond),
	}).Info("parallel runs finished")
	return out
}

func runJob(ctx context.Context, job Job) Outcome {
	o := Outcome{Name: job.Name}
	s, err := FromConfig(job.Config)
	if err != nil {
		o.Err = err
		return o
	}
	o.Result, o.Err = s.Run(ctx, job.Config.Sim.Dynamo())
	return o
}
