// Package download drives the per-city fetch+flatten operations under one of
// several interchangeable concurrency strategies and aggregates the outcomes
// into a batch and a per-status tally.
package download

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/i474232898/weather-reader/internal/fetch"
	"github.com/i474232898/weather-reader/internal/geo"
	"github.com/i474232898/weather-reader/internal/reading"
)

// Strategy downloads readings for a resolved city set. All implementations
// share the same contract: every submitted city is accounted for in the tally
// exactly once, unless cancellation truncates the run, in which case the tally
// sums to the number of tasks that completed and the batch holds the partial
// results. No strategy guarantees row order.
type Strategy interface {
	Name() string
	Download(ctx context.Context, cities []geo.ResolvedCity) (reading.Batch, reading.Tally)
}

// ForName selects a strategy by name. "process" is accepted as an alias for
// "pool": goroutines multiplex onto OS threads, so a separate process-level
// backend buys nothing here.
func ForName(name string, fetcher fetch.Fetcher, maxConcurrency int, logger *zap.Logger) (Strategy, error) {
	switch name {
	case "", "sequential":
		return NewSequential(fetcher, logger), nil
	case "pool", "process":
		return NewPool(fetcher, maxConcurrency, logger), nil
	case "gate":
		return NewGate(fetcher, maxConcurrency, logger), nil
	default:
		return nil, fmt.Errorf("unknown download strategy %q", name)
	}
}

// result carries one per-city outcome from a task to the aggregating loop.
// Row is nil for every status but OK. A cancelled result is a task that was
// interrupted by operator cancellation rather than completing; it stays out of
// the tally so the tally sums to the tasks that actually finished.
type result struct {
	city      string
	status    reading.Status
	row       *reading.Reading
	cancelled bool
}

// downloadOne runs the shared per-task protocol: fetch, classify, flatten.
// Errors never escape; they are folded into the status.
func downloadOne(ctx context.Context, fetcher fetch.Fetcher, city geo.ResolvedCity, logger *zap.Logger) result {
	logger.Info("getting weather",
		zap.String("city", city.Name),
		zap.Float64("lat", city.Lat),
		zap.Float64("lon", city.Lon),
	)

	raw, err := fetcher.Current(ctx, city.Lat, city.Lon)
	if err != nil {
		if ctx.Err() != nil {
			return result{city: city.Name, cancelled: true}
		}
		if errors.Is(err, fetch.ErrNotFound) {
			logger.Error("city not found",
				zap.String("city", city.Name),
				zap.Float64("lat", city.Lat),
				zap.Float64("lon", city.Lon),
			)
			return result{city: city.Name, status: reading.StatusNotFound}
		}
		logger.Error("download failed", zap.String("city", city.Name), zap.Error(err))
		return result{city: city.Name, status: reading.StatusError}
	}

	row := reading.Bind(reading.FlattenReading(city.Name, raw, time.Now()))
	logger.Info("successful retrieval", zap.String("city", city.Name))
	return result{city: city.Name, status: reading.StatusOK, row: &row}
}

// collect folds one result into the batch under construction. Only the single
// aggregating goroutine ever calls it.
func collect(batch *reading.Batch, res result) {
	if res.cancelled {
		return
	}
	batch.Tally.Add(res.status)
	if res.row != nil {
		batch.Rows = append(batch.Rows, *res.row)
	}
}

func newBatch() reading.Batch {
	return reading.Batch{Tally: make(reading.Tally)}
}
