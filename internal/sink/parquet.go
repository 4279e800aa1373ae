// Package sink persists validated batches: one Parquet file per run and an
// append into the relational readings table.
package sink

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"
	"go.uber.org/zap"

	"github.com/i474232898/weather-reader/internal/reading"
)

// parquetRow is the on-disk representation of one reading. Timestamps are
// stored as epoch milliseconds.
type parquetRow struct {
	Time               int64   `parquet:"name=time, type=INT64, convertedtype=TIMESTAMP_MILLIS"`
	City               string  `parquet:"name=city, type=BYTE_ARRAY, convertedtype=UTF8"`
	Lat                float64 `parquet:"name=lat, type=DOUBLE"`
	Lon                float64 `parquet:"name=lon, type=DOUBLE"`
	Timezone           string  `parquet:"name=timezone, type=BYTE_ARRAY, convertedtype=UTF8"`
	TimezoneOffset     int64   `parquet:"name=timezone_offset, type=INT64"`
	Dt                 int64   `parquet:"name=dt, type=INT64"`
	Sunrise            int64   `parquet:"name=sunrise, type=INT64"`
	Sunset             int64   `parquet:"name=sunset, type=INT64"`
	Temp               float64 `parquet:"name=temp, type=DOUBLE"`
	FeelsLike          float64 `parquet:"name=feels_like, type=DOUBLE"`
	Pressure           float64 `parquet:"name=pressure, type=DOUBLE"`
	Humidity           float64 `parquet:"name=humidity, type=DOUBLE"`
	DewPoint           float64 `parquet:"name=dew_point, type=DOUBLE"`
	UVI                float64 `parquet:"name=uvi, type=DOUBLE"`
	Clouds             float64 `parquet:"name=clouds, type=DOUBLE"`
	Visibility         float64 `parquet:"name=visibility, type=DOUBLE"`
	WindSpeed          float64 `parquet:"name=wind_speed, type=DOUBLE"`
	WindDeg            float64 `parquet:"name=wind_deg, type=DOUBLE"`
	WindGust           float64 `parquet:"name=wind_gust, type=DOUBLE"`
	WeatherID          int64   `parquet:"name=weather_id, type=INT64"`
	WeatherMain        string  `parquet:"name=weather_main, type=BYTE_ARRAY, convertedtype=UTF8"`
	WeatherDescription string  `parquet:"name=weather_description, type=BYTE_ARRAY, convertedtype=UTF8"`
	WeatherIcon        string  `parquet:"name=weather_icon, type=BYTE_ARRAY, convertedtype=UTF8"`
	Rain1h             float64 `parquet:"name=rain_1h, type=DOUBLE"`
	Snow1h             float64 `parquet:"name=snow_1h, type=DOUBLE"`
}

func toParquetRow(r reading.Reading) parquetRow {
	return parquetRow{
		Time:               r.Timestamp.UnixMilli(),
		City:               r.City,
		Lat:                r.Lat,
		Lon:                r.Lon,
		Timezone:           r.Timezone,
		TimezoneOffset:     r.TimezoneOffset,
		Dt:                 r.Dt,
		Sunrise:            r.Sunrise,
		Sunset:             r.Sunset,
		Temp:               r.Temp,
		FeelsLike:          r.FeelsLike,
		Pressure:           r.Pressure,
		Humidity:           r.Humidity,
		DewPoint:           r.DewPoint,
		UVI:                r.UVI,
		Clouds:             r.Clouds,
		Visibility:         r.Visibility,
		WindSpeed:          r.WindSpeed,
		WindDeg:            r.WindDeg,
		WindGust:           r.WindGust,
		WeatherID:          r.WeatherID,
		WeatherMain:        r.WeatherMain,
		WeatherDescription: r.WeatherDescription,
		WeatherIcon:        r.WeatherIcon,
		Rain1h:             r.Rain1h,
		Snow1h:             r.Snow1h,
	}
}

// ParquetWriter writes one Parquet file per run into a data directory, named
// by the run's start timestamp.
type ParquetWriter struct {
	dir    string
	logger *zap.Logger
}

// NewParquetWriter creates a ParquetWriter rooted at dir.
func NewParquetWriter(dir string, logger *zap.Logger) *ParquetWriter {
	return &ParquetWriter{dir: dir, logger: logger}
}

// Write persists the batch rows to <dir>/<started>.parquet and returns the
// file path.
func (w *ParquetWriter) Write(batch reading.Batch, started time.Time) (string, error) {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("creating data directory: %w", err)
	}

	path := filepath.Join(w.dir, started.Format("2006-01-02_15-04-05")+".parquet")

	fw, err := local.NewLocalFileWriter(path)
	if err != nil {
		return "", fmt.Errorf("creating parquet file: %w", err)
	}

	pw, err := writer.NewParquetWriter(fw, new(parquetRow), 1)
	if err != nil {
		fw.Close()
		return "", fmt.Errorf("creating parquet writer: %w", err)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	for _, row := range batch.Rows {
		if err := pw.Write(toParquetRow(row)); err != nil {
			pw.WriteStop()
			fw.Close()
			return "", fmt.Errorf("writing parquet row: %w", err)
		}
	}

	if err := pw.WriteStop(); err != nil {
		fw.Close()
		return "", fmt.Errorf("finalizing parquet file: %w", err)
	}
	if err := fw.Close(); err != nil {
		return "", fmt.Errorf("closing parquet file: %w", err)
	}

	w.logger.Info("saved parquet file",
		zap.String("path", path),
		zap.Int("rows", len(batch.Rows)),
	)
	return path, nil
}
