package reading

import (
	"time"
)

// Flatten collapses all nested objects in the decoded JSON into a single-level
// map. Leaf keys are kept as-is unless a prefix is given, in which case every
// key at this level is written as prefix+sep+key.
//
// Known limitation: sibling keys from different nesting levels can collide, in
// which case later keys silently overwrite earlier ones. Callers that care
// about a specific nested value (e.g. rain.1h) must extract it explicitly
// before flattening loses it.
func Flatten(nested map[string]any, prefix, sep string) map[string]any {
	items := make(map[string]any, len(nested))
	flattenInto(items, nested, prefix, sep)
	return items
}

func flattenInto(dst map[string]any, src map[string]any, prefix, sep string) {
	for k, v := range src {
		key := k
		if prefix != "" {
			key = prefix + sep + k
		}
		if m, ok := v.(map[string]any); ok {
			flattenInto(dst, m, prefix, sep)
			continue
		}
		dst[key] = v
	}
}

// FlattenReading converts one nested weather response into exactly one flat
// row. The first element of current.weather is promoted into weather_-prefixed
// fields, wind_gust / rain.1h / snow.1h default to 0 when absent, and the row
// is stamped with the fetch wall-clock time and the city name.
func FlattenReading(city string, raw map[string]any, now time.Time) map[string]any {
	row := Flatten(raw, "", "_")

	current, _ := raw["current"].(map[string]any)

	if weather, ok := current["weather"].([]any); ok && len(weather) > 0 {
		if info, ok := weather[0].(map[string]any); ok {
			for k, v := range Flatten(info, "weather", "_") {
				row[k] = v
			}
		}
	}

	row["wind_gust"] = numberOr(current["wind_gust"], 0)
	row["rain_1h"] = nestedNumberOr(current, "rain", "1h", 0)
	row["snow_1h"] = nestedNumberOr(current, "snow", "1h", 0)

	row["timestamp"] = now
	row["city"] = city

	// The weather list is fully promoted above; the bare 1h key is a flattening
	// artifact of the rain/snow objects.
	delete(row, "weather")
	delete(row, "1h")

	return row
}

// Bind converts a flat row into a typed Reading. Missing or mistyped fields
// bind to zero values; range problems are the validator's job, not Bind's.
func Bind(row map[string]any) Reading {
	r := Reading{
		Lat:                toFloat(row["lat"]),
		Lon:                toFloat(row["lon"]),
		Timezone:           toString(row["timezone"]),
		TimezoneOffset:     toInt(row["timezone_offset"]),
		Dt:                 toInt(row["dt"]),
		Sunrise:            toInt(row["sunrise"]),
		Sunset:             toInt(row["sunset"]),
		Temp:               toFloat(row["temp"]),
		FeelsLike:          toFloat(row["feels_like"]),
		Pressure:           toFloat(row["pressure"]),
		Humidity:           toFloat(row["humidity"]),
		DewPoint:           toFloat(row["dew_point"]),
		UVI:                toFloat(row["uvi"]),
		Clouds:             toFloat(row["clouds"]),
		Visibility:         toFloat(row["visibility"]),
		WindSpeed:          toFloat(row["wind_speed"]),
		WindDeg:            toFloat(row["wind_deg"]),
		WindGust:           toFloat(row["wind_gust"]),
		WeatherID:          toInt(row["weather_id"]),
		WeatherMain:        toString(row["weather_main"]),
		WeatherDescription: toString(row["weather_description"]),
		WeatherIcon:        toString(row["weather_icon"]),
		Rain1h:             toFloat(row["rain_1h"]),
		Snow1h:             toFloat(row["snow_1h"]),
		City:               toString(row["city"]),
	}
	if ts, ok := row["timestamp"].(time.Time); ok {
		r.Timestamp = ts
	}
	return r
}

func numberOr(v any, def float64) float64 {
	if v == nil {
		return def
	}
	return toFloat(v)
}

func nestedNumberOr(m map[string]any, outer, inner string, def float64) float64 {
	obj, ok := m[outer].(map[string]any)
	if !ok {
		return def
	}
	return numberOr(obj[inner], def)
}

// toFloat accepts the numeric shapes encoding/json produces plus native ints
// from tests and callers.
func toFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	default:
		return 0
	}
}

func toInt(v any) int64 {
	switch n := v.(type) {
	case float64:
		return int64(n)
	case int:
		return int64(n)
	case int64:
		return n
	default:
		return 0
	}
}

func toString(v any) string {
	s, _ := v.(string)
	return s
}
