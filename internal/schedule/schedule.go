package schedule

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/maax3v3/retile/internal/dictionary"
	"github.com/maax3v3/retile/internal/match"
	"github.com/maax3v3/retile/internal/raster"
)

// ErrMissingResult is returned when a block could not be matched. The frame
// it belongs to cannot be reconstructed.
var ErrMissingResult = errors.New("missing match result")

// MatchFunc matches one target block. match.Match is the production
// implementation.
type MatchFunc func(target *raster.Grid, b raster.Block, d *dictionary.Dictionary) (match.Result, error)

// Options controls the worker pool.
type Options struct {
	// Workers bounds the number of concurrent match tasks.
	// 0 means runtime.GOMAXPROCS(0).
	Workers int

	// Match overrides the matcher. Nil means match.Match.
	Match MatchFunc
}

// Run matches every block against d on a bounded worker pool and returns
// the winning prototype indices in the order of blocks. It returns once
// every task has finished. The first failing task cancels the remaining
// ones and its error is returned wrapped in ErrMissingResult.
func Run(ctx context.Context, target *raster.Grid, blocks []raster.Block, d *dictionary.Dictionary, opts Options) ([]int, error) {
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	matchFn := opts.Match
	if matchFn == nil {
		matchFn = match.Match
	}

	results := make([]int, len(blocks))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, b := range blocks {
		i, b := i, b
		if gctx.Err() != nil {
			break
		}
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("%w: block (%d,%d): panic: %v", ErrMissingResult, b.X, b.Y, r)
				}
			}()
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := matchFn(target, b, d)
			if err != nil {
				return fmt.Errorf("%w: block (%d,%d): %w", ErrMissingResult, b.X, b.Y, err)
			}
			results[i] = res.Index
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}
