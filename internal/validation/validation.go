// Package validation checks external input against declared shapes and reports
// per-field messages keyed by JSON path.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/trust-erp-api/internal/models"
	appErrors "github.com/noah-isme/trust-erp-api/pkg/errors"
)

const (
	monthLayout = "2006-01"
	dateLayout  = "2006-01-02"
)

var identifierPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]{0,63}$`)

// New returns a validator configured with JSON field names and domain tags.
func New() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})
	mustRegister(v, "month", func(fl validator.FieldLevel) bool {
		_, err := time.Parse(monthLayout, fl.Field().String())
		return err == nil
	})
	mustRegister(v, "isodate", func(fl validator.FieldLevel) bool {
		_, err := time.Parse(dateLayout, fl.Field().String())
		return err == nil
	})
	mustRegister(v, "identifier", func(fl validator.FieldLevel) bool {
		return identifierPattern.MatchString(fl.Field().String())
	})
	mustRegister(v, "role", func(fl validator.FieldLevel) bool {
		return models.Role(fl.Field().String()).Valid()
	})
	mustRegister(v, "program", func(fl validator.FieldLevel) bool {
		return models.Program(fl.Field().String()).Valid()
	})
	mustRegister(v, "notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register %s validation: %v", tag, err))
	}
}

// Struct validates req and converts failures into a VALIDATION_FAILED error with field messages.
func Struct(v *validator.Validate, req interface{}, message string) error {
	err := v.Struct(req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		// InvalidValidationError means the caller passed a non-struct.
		panic(err)
	}
	if message == "" {
		message = appErrors.ErrValidation.Message
	}
	return appErrors.Validation(message, FieldErrors(verrs))
}

// FieldErrors maps each failing field's JSON path to a readable message.
func FieldErrors(verrs validator.ValidationErrors) map[string]string {
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		path := fe.Namespace()
		if idx := strings.Index(path, "."); idx >= 0 {
			path = path[idx+1:]
		}
		if _, seen := fields[path]; !seen {
			fields[path] = message(fe)
		}
	}
	return fields
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "notblank":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s characters", fe.Param())
		}
		if fe.Kind() == reflect.Slice || fe.Kind() == reflect.Map {
			return fmt.Sprintf("must contain at least %s item(s)", fe.Param())
		}
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at most %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be less than or equal to %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", fe.Param())
	case "month":
		return "must be a month in YYYY-MM format"
	case "isodate":
		return "must be a date in YYYY-MM-DD format"
	case "identifier":
		return "must be a valid identifier"
	case "role":
		return "must be a known role"
	case "program":
		return "must be one of [MRHSS MRA RFL]"
	case "unique":
		return "must not contain duplicates"
	case "uuid":
		return "must be a valid id"
	}
	return fmt.Sprintf("failed %s validation", fe.Tag())
}

// OptionalID maps absent sentinels ("", "none", "null") to nil.
func OptionalID(raw *string) *string {
	if raw == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*raw)
	switch strings.ToLower(trimmed) {
	case "", "none", "null":
		return nil
	}
	return &trimmed
}

// ResolveProgram applies the hostel override: boarding students always belong to the hostel program.
func ResolveProgram(submitted models.Program, needsHostel bool) models.Program {
	if needsHostel {
		return models.HostelProgram
	}
	return submitted
}

// ParseMonth returns the first day of a YYYY-MM month in UTC.
func ParseMonth(raw string) (time.Time, error) {
	t, err := time.Parse(monthLayout, raw)
	if err != nil {
		return time.Time{}, appErrors.Validation("invalid month", map[string]string{"month": "must be a month in YYYY-MM format"})
	}
	return t.UTC(), nil
}

// ParseDate parses a YYYY-MM-DD date in UTC, reporting failures against field.
func ParseDate(field, raw string) (time.Time, error) {
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return time.Time{}, appErrors.Validation("invalid date", map[string]string{field: "must be a date in YYYY-MM-DD format"})
	}
	return t.UTC(), nil
}

// Ratings checks that ratings covers exactly the declared metrics with scores in 1..5.
func Ratings(ratings map[string]int, declared []string, field string) error {
	fields := map[string]string{}
	allowed := make(map[string]struct{}, len(declared))
	for _, m := range declared {
		allowed[m] = struct{}{}
		if _, ok := ratings[m]; !ok {
			fields[field+"."+m] = "is required"
		}
	}
	for name, score := range ratings {
		key := field + "." + name
		if _, ok := allowed[name]; !ok {
			fields[key] = "is not a metric of this form"
			continue
		}
		if score < 1 || score > 5 {
			fields[key] = "must be between 1 and 5"
		}
	}
	if len(fields) > 0 {
		return appErrors.Validation("invalid ratings", fields)
	}
	return nil
}
