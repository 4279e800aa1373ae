package reading

import (
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// Validator checks aggregated rows against the record schema. Validation is
// observational: it counts and logs valid vs invalid rows but does not filter
// the batch. Persisting everything and flagging problems in logs is the
// intended behavior, not an oversight.
type Validator struct {
	validate *validator.Validate
	logger   *zap.Logger
}

// NewValidator creates a Validator.
func NewValidator(logger *zap.Logger) *Validator {
	return &Validator{
		validate: validator.New(),
		logger:   logger,
	}
}

// Validate reports per-row findings and returns the batch unchanged.
func (v *Validator) Validate(batch Batch) Batch {
	valid, invalid := v.Count(batch.Rows)

	v.logger.Info("validated readings", zap.Int("valid_rows", valid))
	if invalid > 0 {
		v.logger.Warn("invalid readings in batch", zap.Int("invalid_rows", invalid))
	} else {
		v.logger.Info("all rows are valid")
	}

	return batch
}

// Count returns how many rows pass and fail schema validation.
func (v *Validator) Count(rows []Reading) (valid, invalid int) {
	for i := range rows {
		if err := v.validate.Struct(rows[i]); err != nil {
			invalid++
			v.logger.Error("validation error",
				zap.Int("row", i),
				zap.String("city", rows[i].City),
				zap.Error(err),
			)
			continue
		}
		valid++
	}
	return valid, invalid
}
