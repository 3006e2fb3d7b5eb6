package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// FieldError describes a single rejected field.
type FieldError struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

// FieldErrors is returned by Validator.Struct when one or more fields fail.
type FieldErrors []FieldError

func (fe FieldErrors) Error() string {
	parts := make([]string, 0, len(fe))
	for _, e := range fe {
		parts = append(parts, e.Message)
	}
	return strings.Join(parts, "; ")
}

// Validator wraps go-playground/validator with the ConstructTrack rules.
type Validator struct {
	validate *validator.Validate
}

// New returns a Validator with the ct_* tags registered.
func New() *Validator {
	v := validator.New()

	// Report JSON names instead of Go field names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	rules := map[string]validator.Func{
		"ct_email": func(fl validator.FieldLevel) bool {
			return IsValidEmail(fl.Field().String())
		},
		"ct_latitude": func(fl validator.FieldLevel) bool {
			return IsValidLatitude(fl.Field().Float())
		},
		"ct_longitude": func(fl validator.FieldLevel) bool {
			return IsValidLongitude(fl.Field().Float())
		},
		"ct_budget": func(fl validator.FieldLevel) bool {
			return IsValidBudget(fl.Field().Float())
		},
	}
	for tag, fn := range rules {
		// Registration only fails for empty tags or nil funcs.
		_ = v.RegisterValidation(tag, fn)
	}

	return &Validator{validate: v}
}

// Struct validates s and returns FieldErrors on failure.
func (v *Validator) Struct(s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	out := make(FieldErrors, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, FieldError{
			Field:   fe.Field(),
			Rule:    fe.Tag(),
			Message: message(fe),
		})
	}
	return out
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	case "ct_email":
		return fmt.Sprintf("%s must be a valid email address", fe.Field())
	case "ct_latitude":
		return fmt.Sprintf("%s must be between -90 and 90", fe.Field())
	case "ct_longitude":
		return fmt.Sprintf("%s must be between -180 and 180", fe.Field())
	case "ct_budget":
		return fmt.Sprintf("%s must be greater than zero", fe.Field())
	default:
		return fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
	}
}
