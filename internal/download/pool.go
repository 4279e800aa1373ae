package download

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/i474232898/weather-reader/internal/fetch"
	"github.com/i474232898/weather-reader/internal/geo"
	"github.com/i474232898/weather-reader/internal/reading"
)

// Pool is the bounded-parallel strategy: a fixed set of workers consumes one
// fetch+flatten job per city and results are merged in completion order.
type Pool struct {
	fetcher fetch.Fetcher
	workers int
	logger  *zap.Logger
}

// NewPool creates the pool strategy with the given max concurrency.
func NewPool(fetcher fetch.Fetcher, workers int, logger *zap.Logger) *Pool {
	if workers < 1 {
		workers = 1
	}
	return &Pool{fetcher: fetcher, workers: workers, logger: logger}
}

func (p *Pool) Name() string { return "pool" }

// Download fans the city set out to the worker pool. On cancellation the feed
// stops, in-flight jobs report as cancelled, and the partial batch is
// returned. Workers are joined on every exit path.
func (p *Pool) Download(ctx context.Context, cities []geo.ResolvedCity) (reading.Batch, reading.Tally) {
	jobs := make(chan geo.ResolvedCity)
	results := make(chan result, len(cities))

	var wg sync.WaitGroup
	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for city := range jobs {
				results <- downloadOne(ctx, p.fetcher, city, p.logger)
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, city := range cities {
			select {
			case jobs <- city:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	batch := newBatch()
	for res := range results {
		collect(&batch, res)
	}

	return batch, batch.Tally
}
