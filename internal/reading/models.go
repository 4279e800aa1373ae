package reading

import (
	"time"
)

// Status classifies the outcome of one per-city download attempt.
// It is a closed enumeration so results stay aggregable by exact category;
// free-form error detail belongs in logs, never in the tally.
type Status int

const (
	StatusOK Status = iota
	StatusNotFound
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "OK"
	case StatusNotFound:
		return "NOT_FOUND"
	case StatusError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Tally counts download outcomes by status for one run.
// Absent cancellation, Sum() equals the number of cities submitted.
type Tally map[Status]int

// Add increments the count for the given status.
func (t Tally) Add(s Status) {
	t[s]++
}

// Sum returns the total number of accounted attempts.
func (t Tally) Sum() int {
	n := 0
	for _, c := range t {
		n += c
	}
	return n
}

// Reading is one flat weather record: one city, one fetch instant.
// Timestamp is the fetch wall-clock time; the API's own dt is kept alongside.
type Reading struct {
	Lat                float64   `json:"lat" db:"lat" validate:"gt=-90,lt=90"`
	Lon                float64   `json:"lon" db:"lon" validate:"gt=-180,lt=180"`
	Timezone           string    `json:"timezone" db:"timezone" validate:"required"`
	TimezoneOffset     int64     `json:"timezone_offset" db:"timezone_offset"`
	Dt                 int64     `json:"dt" db:"dt" validate:"required"`
	Sunrise            int64     `json:"sunrise" db:"sunrise"`
	Sunset             int64     `json:"sunset" db:"sunset"`
	Temp               float64   `json:"temp" db:"temp"`
	FeelsLike          float64   `json:"feels_like" db:"feels_like"`
	Pressure           float64   `json:"pressure" db:"pressure"`
	Humidity           float64   `json:"humidity" db:"humidity" validate:"gte=0,lte=100"`
	DewPoint           float64   `json:"dew_point" db:"dew_point"`
	UVI                float64   `json:"uvi" db:"uvi"`
	Clouds             float64   `json:"clouds" db:"clouds"`
	Visibility         float64   `json:"visibility" db:"visibility"`
	WindSpeed          float64   `json:"wind_speed" db:"wind_speed"`
	WindDeg            float64   `json:"wind_deg" db:"wind_deg"`
	WindGust           float64   `json:"wind_gust" db:"wind_gust"`
	WeatherID          int64     `json:"weather_id" db:"weather_id"`
	WeatherMain        string    `json:"weather_main" db:"weather_main"`
	WeatherDescription string    `json:"weather_description" db:"weather_description"`
	WeatherIcon        string    `json:"weather_icon" db:"weather_icon"`
	Rain1h             float64   `json:"rain_1h" db:"rain_1h"`
	Snow1h             float64   `json:"snow_1h" db:"snow_1h"`
	Timestamp          time.Time `json:"timestamp" db:"time" validate:"required"`
	City               string    `json:"city" db:"city" validate:"required"`
}

// Batch is the aggregation of one run: every successful flat record plus the
// per-status tally. Row order is insignificant.
type Batch struct {
	Rows  []Reading
	Tally Tally
}
