// Package validation wraps go-playground/validator for request DTOs.
//
// Services receive a shared *validator.Validate from New and call Struct,
// which turns the first failing rule into an apperror.ValidationFailed with
// a readable message. Every failure message is also kept in Details so the
// HTTP layer can return them all.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/sakif/student-dashboard/internal/apperror"
)

// Roll numbers are institution IDs such as "21CS045" or "2021-CSE-12".
var rollNumberRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9/_-]*$`)

// New returns a validator that reports JSON field names and knows the
// custom "rollnumber" and "notblank" tags.
func New() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	_ = v.RegisterValidation("rollnumber", validRollNumber)
	_ = v.RegisterValidation("notblank", notBlank)
	return v
}

func validRollNumber(fl validator.FieldLevel) bool {
	val := fl.Field().String()
	if val == "" {
		return true
	}
	return rollNumberRegex.MatchString(val)
}

func notBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

// Struct validates s. It returns nil, an *apperror.AppError for rule
// violations, or a plain error when s is not a struct.
func Struct(v *validator.Validate, s any) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validation: %w", err)
	}

	messages := Messages(verrs)
	appErr := apperror.ValidationFailed(verrs[0].Field(), messages[0])
	appErr.Details = messages
	return appErr
}

// Messages renders each field error as a sentence.
func Messages(verrs validator.ValidationErrors) []string {
	out := make([]string, 0, len(verrs))
	for _, e := range verrs {
		out = append(out, message(e))
	}
	return out
}

func message(e validator.FieldError) string {
	field := e.Field()
	switch e.Tag() {
	case "required", "notblank":
		return fmt.Sprintf("%s is required", field)
	case "required_without":
		return fmt.Sprintf("%s or %s is required", field, lowerFirst(e.Param()))
	case "email":
		return fmt.Sprintf("%s must be a valid email address", field)
	case "min":
		if e.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters", field, e.Param())
		}
		return fmt.Sprintf("%s must contain at least %s items", field, e.Param())
	case "max":
		if e.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters", field, e.Param())
		}
		return fmt.Sprintf("%s must contain at most %s items", field, e.Param())
	case "rollnumber":
		return fmt.Sprintf("%s may only contain letters, digits, '-', '_' and '/'", field)
	default:
		return fmt.Sprintf("%s is invalid (%s)", field, e.Tag())
	}
}

// required_without reports the Go field name; the message uses JSON casing.
func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
