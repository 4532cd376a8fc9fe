// Package worker provides the concurrent fetch pool for source ingestion.
package worker

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-pkgz/pool"
	"github.com/rs/zerolog"

	"patrol_server/core/port/out"
)

// FetchPool fans target fetches out over a bounded go-pkgz worker pool.
// Concurrency stays here at the adapter layer; providers and the flagging
// pipeline remain sequential code.
type FetchPool struct {
	workers   int
	queueSize int
	log       zerolog.Logger
}

// NewFetchPool creates a fetch pool. queueSize bounds each worker's
// submission channel, so producers block instead of queueing unbounded.
func NewFetchPool(workers, queueSize int, log zerolog.Logger) *FetchPool {
	if workers <= 0 {
		workers = 4
	}
	if queueSize <= 0 {
		queueSize = 64
	}
	return &FetchPool{
		workers:   workers,
		queueSize: queueSize,
		log:       log.With().Str("component", "fetch_pool").Logger(),
	}
}

type fetchWorker struct {
	provider out.SourceProvider
	mu       *sync.Mutex
	results  map[string]out.FetchResult
}

// Do implements pool.Worker.
func (w *fetchWorker) Do(ctx context.Context, target string) error {
	captures, err := w.provider.Fetch(ctx, target)

	w.mu.Lock()
	w.results[target] = out.FetchResult{Target: target, Captures: captures, Err: err}
	w.mu.Unlock()

	// Errors are recorded per target; returning nil keeps the pool going.
	return nil
}

// FetchAll fetches every target concurrently and returns results in the
// order the targets were given.
func (p *FetchPool) FetchAll(ctx context.Context, provider out.SourceProvider, targets []string) ([]out.FetchResult, error) {
	if len(targets) == 0 {
		return nil, nil
	}

	w := &fetchWorker{
		provider: provider,
		mu:       &sync.Mutex{},
		results:  make(map[string]out.FetchResult, len(targets)),
	}

	workers := p.workers
	if workers > len(targets) {
		workers = len(targets)
	}

	grp := pool.New[string](workers, w).
		WithWorkerChanSize(p.queueSize).
		WithContinueOnError()
	if err := grp.Go(ctx); err != nil {
		return nil, fmt.Errorf("fetch pool: start: %w", err)
	}

	for _, target := range targets {
		grp.Submit(target)
	}

	if err := grp.Close(ctx); err != nil {
		p.log.Warn().Err(err).Msg("fetch pool closed with error")
	}

	results := make([]out.FetchResult, 0, len(targets))
	w.mu.Lock()
	for _, target := range targets {
		if res, ok := w.results[target]; ok {
			results = append(results, res)
		} else {
			results = append(results, out.FetchResult{Target: target, Err: ctx.Err()})
		}
	}
	w.mu.Unlock()

	p.log.Debug().
		Str("source", string(provider.Source())).
		Int("targets", len(targets)).
		Msg("fetch round complete")

	return results, nil
}

var _ out.FetchDispatcher = (*FetchPool)(nil)
