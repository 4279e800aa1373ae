package sink

import (
	"context"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib" // Postgres driver for database/sql
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/i474232898/weather-reader/internal/reading"
)

// Connect opens a sqlx connection pool against the readings database.
func Connect(ctx context.Context, dsn string) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, "pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

const insertReading = `
INSERT INTO readings (
	time, city, lat, lon, timezone, timezone_offset, dt, sunrise, sunset,
	temp, feels_like, pressure, humidity, dew_point, uvi, clouds, visibility,
	wind_speed, wind_deg, wind_gust, weather_id, weather_main,
	weather_description, weather_icon, rain_1h, snow_1h
) VALUES (
	:time, :city, :lat, :lon, :timezone, :timezone_offset, :dt, :sunrise, :sunset,
	:temp, :feels_like, :pressure, :humidity, :dew_point, :uvi, :clouds, :visibility,
	:wind_speed, :wind_deg, :wind_gust, :weather_id, :weather_main,
	:weather_description, :weather_icon, :rain_1h, :snow_1h
)`

// PostgresWriter appends validated batches to the fixed-schema readings table,
// keyed by (time, lat, lon).
type PostgresWriter struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// NewPostgresWriter creates a PostgresWriter over an open connection pool.
func NewPostgresWriter(db *sqlx.DB, logger *zap.Logger) *PostgresWriter {
	return &PostgresWriter{db: db, logger: logger}
}

// Write appends all batch rows in one transaction.
func (w *PostgresWriter) Write(ctx context.Context, batch reading.Batch) error {
	if len(batch.Rows) == 0 {
		w.logger.Info("no rows to write to database")
		return nil
	}

	tx, err := w.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	if _, err := tx.NamedExecContext(ctx, insertReading, batch.Rows); err != nil {
		tx.Rollback()
		return fmt.Errorf("inserting readings: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing readings: %w", err)
	}

	w.logger.Info("wrote readings to database", zap.Int("rows", len(batch.Rows)))
	return nil
}
