package download

import (
	"context"

	"go.uber.org/zap"

	"github.com/i474232898/weather-reader/internal/fetch"
	"github.com/i474232898/weather-reader/internal/geo"
	"github.com/i474232898/weather-reader/internal/reading"
)

// Sequential processes cities one at a time in submission order. The baseline
// strategy: fully deterministic, no concurrency.
type Sequential struct {
	fetcher fetch.Fetcher
	logger  *zap.Logger
}

// NewSequential creates the sequential strategy.
func NewSequential(fetcher fetch.Fetcher, logger *zap.Logger) *Sequential {
	return &Sequential{fetcher: fetcher, logger: logger}
}

func (s *Sequential) Name() string { return "sequential" }

// Download fetches each city in turn. Cancellation stops before the next city
// and returns whatever completed so far.
func (s *Sequential) Download(ctx context.Context, cities []geo.ResolvedCity) (reading.Batch, reading.Tally) {
	batch := newBatch()

	for _, city := range cities {
		if ctx.Err() != nil {
			break
		}
		collect(&batch, downloadOne(ctx, s.fetcher, city, s.logger))
	}

	return batch, batch.Tally
}
