package sim

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Ensemble repeats a simulation over consecutive seeds. Each run gets its
// own Simulator from build, since metrics are stateful.
type Ensemble struct {
	build     func() (*Simulator, error)
	numRuns   int
	seedStart int64
}

func NewEnsemble(build func() (*Simulator, error), numRuns int, seedStart int64) *Ensemble {
	return &Ensemble{build: build, numRuns: numRuns, seedStart: seedStart}
}

func (e *Ensemble) Run(ctx context.Context, cfg Config) ([]*Result, error) {
	results := make([]*Result, e.numRuns)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := 0; i < e.numRuns; i++ {
		i := i
		g.Go(func() error {
			s, err := e.build()
			if err != nil {
				return err
			}
			cfgCopy := cfg
			cfgCopy.Seed = e.seedStart + int64(i)
			results[i], err = s.Run(ctx, cfgCopy)
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
