// Package pipeline wires one full run: resolve coordinates, download readings
// under the configured strategy, validate, persist, report.
package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/i474232898/weather-reader/internal/download"
	"github.com/i474232898/weather-reader/internal/geo"
	"github.com/i474232898/weather-reader/internal/reading"
	"github.com/i474232898/weather-reader/internal/sink"
)

// RunSummary is the user-visible outcome of one run: per-status counts and
// elapsed time. Row-level error detail stays in logs.
type RunSummary struct {
	RunID       uuid.UUID     `json:"runId"`
	Strategy    string        `json:"strategy"`
	Started     time.Time     `json:"started"`
	Elapsed     time.Duration `json:"elapsedNs"`
	OK          int           `json:"ok"`
	NotFound    int           `json:"notFound"`
	Errors      int           `json:"errors"`
	Rows        int           `json:"rows"`
	ParquetPath string        `json:"parquetPath,omitempty"`
}

// Pipeline owns the collaborators of one configured run. Construct once,
// reuse across runs; no package-level state.
type Pipeline struct {
	cities    []geo.CityEntry
	resolver  *geo.CachedResolver
	strategy  download.Strategy
	validator *reading.Validator
	parquet   *sink.ParquetWriter
	postgres  *sink.PostgresWriter // nil when no database is configured
	logger    *zap.Logger
}

// New creates a Pipeline. postgres may be nil.
func New(
	cities []geo.CityEntry,
	resolver *geo.CachedResolver,
	strategy download.Strategy,
	validator *reading.Validator,
	parquet *sink.ParquetWriter,
	postgres *sink.PostgresWriter,
	logger *zap.Logger,
) *Pipeline {
	return &Pipeline{
		cities:    cities,
		resolver:  resolver,
		strategy:  strategy,
		validator: validator,
		parquet:   parquet,
		postgres:  postgres,
		logger:    logger,
	}
}

// Run executes one full pipeline pass. Coordinate resolution failure is fatal
// to the run; per-city download failures are classified into the tally and
// never abort siblings. Cancellation yields a truncated but valid summary.
func (p *Pipeline) Run(ctx context.Context) (RunSummary, error) {
	started := time.Now()
	summary := RunSummary{
		RunID:    uuid.New(),
		Strategy: p.strategy.Name(),
		Started:  started,
	}

	names := make([]string, len(p.cities))
	for i, c := range p.cities {
		names[i] = c.Name
	}
	p.logger.Info("starting run",
		zap.String("run_id", summary.RunID.String()),
		zap.Strings("cities", names),
		zap.String("strategy", summary.Strategy),
	)

	resolved, err := p.resolver.EnsureResolved(ctx, p.cities)
	if err != nil {
		return summary, err
	}

	batch, tally := p.strategy.Download(ctx, resolved)
	batch = p.validator.Validate(batch)

	if path, err := p.parquet.Write(batch, started); err != nil {
		p.logger.Error("error saving to parquet", zap.Error(err))
	} else {
		summary.ParquetPath = path
	}

	if p.postgres != nil {
		if err := p.postgres.Write(ctx, batch); err != nil {
			p.logger.Error("error writing to database", zap.Error(err))
		}
	}

	summary.Elapsed = time.Since(started)
	summary.OK = tally[reading.StatusOK]
	summary.NotFound = tally[reading.StatusNotFound]
	summary.Errors = tally[reading.StatusError]
	summary.Rows = len(batch.Rows)

	p.report(summary)
	return summary, nil
}

// report logs the final per-status counts and elapsed time.
func (p *Pipeline) report(s RunSummary) {
	p.logger.Info("readings downloaded", zap.Int("count", s.OK))
	if s.NotFound > 0 {
		p.logger.Error("cities not found", zap.Int("count", s.NotFound))
	}
	if s.Errors > 0 {
		p.logger.Error("download errors", zap.Int("count", s.Errors))
	}
	p.logger.Info("run finished",
		zap.String("run_id", s.RunID.String()),
		zap.Duration("elapsed", s.Elapsed),
	)
}
