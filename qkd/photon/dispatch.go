package photon

import (
	"context"
	"runtime"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// MeasureAll measures every trial exactly once, running at most workers
// measurements at a time, and returns the outcomes in trial order. A
// non-positive workers uses GOMAXPROCS. On error or cancellation, outstanding
// measurements are abandoned and no outcomes are returned.
func MeasureAll(ctx context.Context, sim Simulator, trials []Trial, workers int) ([]Outcome, error) {
	if sim == nil {
		return nil, errors.New("must provide a Simulator")
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	outcomes := make([]Outcome, len(trials))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range trials {
		if gctx.Err() != nil {
			break
		}
		i := i
		g.Go(func() error {
			o, err := sim.Measure(gctx, trials[i])
			if err != nil {
				return errors.Wrapf(err, "measuring trial %d", i)
			}
			outcomes[i] = o
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return outcomes, nil
}
