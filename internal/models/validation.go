package models

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// NewValidator returns a validator that reports fields by their JSON names
// and understands the case enum tags.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	v.RegisterCustomTypeFunc(flexNumberValue, FlexNumber[int]{}, FlexNumber[float64]{})
	RegisterValidators(v)
	return v
}

// RegisterValidators adds the watersource, severity and casestatus tags to v.
func RegisterValidators(v *validator.Validate) {
	_ = v.RegisterValidation("watersource", func(fl validator.FieldLevel) bool {
		return WaterSource(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("severity", func(fl validator.FieldLevel) bool {
		return Severity(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("casestatus", func(fl validator.FieldLevel) bool {
		return Status(fl.Field().String()).Valid()
	})
}

// DescribeValidation rewrites validator failures into one readable error,
// e.g. "severity: \"extreme\" is not a valid value". Other errors are
// returned unchanged.
func DescribeValidation(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, describeField(fe))
	}
	return errors.New(strings.Join(msgs, ", "))
}

func describeField(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s: is required", fe.Field())
	case "min":
		return fmt.Sprintf("%s: must be at least %s", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s: must be at most %s", fe.Field(), fe.Param())
	case "watersource", "severity", "casestatus":
		return fmt.Sprintf("%s: %q is not a valid value", fe.Field(), fmt.Sprint(fe.Value()))
	default:
		return fmt.Sprintf("%s: failed %s", fe.Field(), fe.Tag())
	}
}
