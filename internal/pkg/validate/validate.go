// Package validate checks request DTOs against their `validate` struct tags
// and turns the first failure into a validation-class domain error.
package validate

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/ivankudzin/automarket/backend/internal/domain/errs"
)

var (
	instance *validator.Validate
	once     sync.Once
)

func get() *validator.Validate {
	once.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return f.Name
			}
			return name
		})
		// decimal amounts arrive as strings
		_ = v.RegisterValidation("positive_amount", func(fl validator.FieldLevel) bool {
			raw := strings.TrimSpace(fl.Field().String())
			if raw == "" {
				return true
			}
			d, err := decimal.NewFromString(raw)
			return err == nil && d.IsPositive()
		})
		_ = v.RegisterValidation("nonnegative_amount", func(fl validator.FieldLevel) bool {
			raw := strings.TrimSpace(fl.Field().String())
			if raw == "" {
				return true
			}
			d, err := decimal.NewFromString(raw)
			return err == nil && !d.IsNegative()
		})
		instance = v
	})
	return instance
}

// Struct validates payload and returns nil or an *errs.Error wrapping
// errs.ErrValidation that names the first offending field.
func Struct(payload any) error {
	err := get().Struct(payload)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		return errs.Invalid(describe(fieldErrs[0]))
	}
	return errs.Invalid(err.Error())
}

func describe(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "gte", "min":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "lte", "max":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "positive_amount":
		return fmt.Sprintf("%s must be a positive amount", field)
	case "nonnegative_amount":
		return fmt.Sprintf("%s must be a non-negative amount", field)
	}
	return fmt.Sprintf("%s is invalid", field)
}
