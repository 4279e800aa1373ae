package download

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/i474232898/weather-reader/internal/fetch"
	"github.com/i474232898/weather-reader/internal/geo"
	"github.com/i474232898/weather-reader/internal/reading"
)

// Gate is the admission-gate strategy: every city gets its own task up front,
// but a counting semaphore of the configured capacity caps how many fetches
// are in flight at once. Tasks suspend at gate acquisition and at the network
// call; each task builds its own private record and only the single collecting
// loop touches the batch and tally.
type Gate struct {
	fetcher  fetch.Fetcher
	capacity int
	logger   *zap.Logger
}

// NewGate creates the gate strategy with the given in-flight capacity.
func NewGate(fetcher fetch.Fetcher, capacity int, logger *zap.Logger) *Gate {
	if capacity < 1 {
		capacity = 1
	}
	return &Gate{fetcher: fetcher, capacity: capacity, logger: logger}
}

func (g *Gate) Name() string { return "gate" }

// Download launches one task per city behind the gate and merges results as
// they complete. A task that cannot acquire the gate before cancellation
// reports as cancelled and stays out of the tally.
func (g *Gate) Download(ctx context.Context, cities []geo.ResolvedCity) (reading.Batch, reading.Tally) {
	sem := make(chan struct{}, g.capacity)
	results := make(chan result, len(cities))

	var wg sync.WaitGroup
	for _, city := range cities {
		wg.Add(1)
		go func(city geo.ResolvedCity) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				results <- result{city: city.Name, cancelled: true}
				return
			}
			defer func() { <-sem }()

			results <- downloadOne(ctx, g.fetcher, city, g.logger)
		}(city)
	}

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
