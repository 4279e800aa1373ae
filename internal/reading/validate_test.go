package reading

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func validReading() Reading {
	return Reading{
		Lat:       48.8534,
		Lon:       2.3488,
		Timezone:  "Europe/Paris",
		Dt:        1684929490,
		Humidity:  89,
		Timestamp: time.Now(),
		City:      "Paris",
	}
}

func TestValidateIsObservational(t *testing.T) {
	v := NewValidator(zap.NewNop())

	bad := validReading()
	bad.Humidity = 140

	batch := Batch{
		Rows:  []Reading{validReading(), bad},
		Tally: Tally{StatusOK: 2},
	}

	out := v.Validate(batch)

	// Validation reports but never filters.
	assert.Len(t, out.Rows, 2)
	assert.Equal(t, batch.Tally, out.Tally)
}

func TestCountClassifiesRows(t *testing.T) {
	v := NewValidator(zap.NewNop())

	tests := []struct {
		name    string
		mutate  func(*Reading)
		invalid bool
	}{
		{"valid row", func(r *Reading) {}, false},
		{"humidity above range", func(r *Reading) { r.Humidity = 101 }, true},
		{"latitude out of range", func(r *Reading) { r.Lat = 95 }, true},
		{"longitude out of range", func(r *Reading) { r.Lon = -200 }, true},
		{"missing timezone", func(r *Reading) { r.Timezone = "" }, true},
		{"missing city", func(r *Reading) { r.City = "" }, true},
		{"humidity at bounds", func(r *Reading) { r.Humidity = 100 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := validReading()
			tt.mutate(&r)

			valid, invalid := v.Count([]Reading{r})
			if tt.invalid {
				assert.Equal(t, 1, invalid)
				assert.Equal(t, 0, valid)
			} else {
				assert.Equal(t, 1, valid)
				assert.Equal(t, 0, invalid)
			}
		})
	}
}
