package shared

import (
	"errors"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// Validator returns the process-wide validator instance. All string-to-number
// coercion and range checking happens at the HTTP boundary through struct
// tags, so core operations always receive already-typed, already-validated
// values.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// ValidateStruct runs tag validation and converts failures into a single
// KindValidation error listing the offending fields.
func ValidateStruct(v any) error {
	if err := Validator().Struct(v); err != nil {
		var invalid validator.ValidationErrors
		fields := make([]string, 0, 4)
		if errors.As(err, &invalid) {
			for _, fe := range invalid {
				fields = append(fields, fe.Field())
			}
			return E(KindValidation, "invalid fields: %s", strings.Join(fields, ", "))
		}
		return E(KindValidation, "invalid request: %v", err)
	}
	return nil
}
