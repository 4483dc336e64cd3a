// Package validator wraps go-playground/validator with the rules and field
// naming used by the task and team payloads.
package validator

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/go-playground/validator/v10"
)

// Date and clock layouts accepted on the wire.
const (
	DateLayout     = "2006-01-02"
	ClockLayout    = "15:04"
	ClockLayoutSec = "15:04:05"
	maxIdentifier  = 64
)

var (
	once     sync.Once
	validate *validator.Validate
)

// ValidationError is one failed rule. Field is the json path of the offending
// value, e.g. "tasks[2].start_date" inside an import batch.
type ValidationError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Param   string `json:"param,omitempty"`
	Message string `json:"message"`
}

// ValidationErrors is returned by ValidateStruct when any rule fails.
type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return "validation failed"
	}
	parts := make([]string, len(v))
	for i, failure := range v {
		parts[i] = failure.Message
	}
	return strings.Join(parts, "; ")
}

// ValidateStruct applies the struct's validate tags.
func ValidateStruct(s any) error {
	err := engine().Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	failures := make(ValidationErrors, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		failure := ValidationError{
			Field: fieldPath(fe.Namespace()),
			Tag:   fe.Tag(),
			Param: fe.Param(),
		}
		failure.Message = describe(failure)
		failures = append(failures, failure)
	}
	return failures
}

// RegisterValidation adds a custom rule to the shared validator.
func RegisterValidation(tag string, fn validator.Func) error {
	return engine().RegisterValidation(tag, fn)
}

// fieldPath drops the root struct name from a namespace such as
// "importRequest.tasks[2].start_date".
func fieldPath(namespace string) string {
	if idx := strings.Index(namespace, "."); idx >= 0 {
		return namespace[idx+1:]
	}
	return namespace
}

func describe(failure ValidationError) string {
	field := failure.Field
	if field == "" {
		field = "field"
	}
	switch failure.Tag {
	case "required":
		return field + " is required"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, failure.Param)
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, failure.Param)
	case "datetime", "date":
		return field + " must be a date formatted as YYYY-MM-DD"
	case "clock":
		return field + " must be a time formatted as HH:MM or HH:MM:SS"
	case "identifier", "successor":
		return fmt.Sprintf("%s must be at most %d characters without spaces or slashes", field, maxIdentifier)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, failure.Param)
	}
	if failure.Param != "" {
		return fmt.Sprintf("%s failed %s=%s", field, failure.Tag, failure.Param)
	}
	return fmt.Sprintf("%s failed %s", field, failure.Tag)
}

// validClock accepts HH:MM and HH:MM:SS.
func validClock(fl validator.FieldLevel) bool {
	value := strings.TrimSpace(fl.Field().String())
	for _, layout := range []string{ClockLayout, ClockLayoutSec} {
		if _, err := time.Parse(layout, value); err == nil {
			return true
		}
	}
	return false
}

// validDate accepts calendar dates in DateLayout.
func validDate(fl validator.FieldLevel) bool {
	_, err := time.Parse(DateLayout, strings.TrimSpace(fl.Field().String()))
	return err == nil
}

// validIdentifier guards ids that end up in URL paths and stream names.
func validIdentifier(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" || len(value) > maxIdentifier {
		return false
	}
	return !strings.ContainsFunc(value, func(r rune) bool {
		return r == '/' || unicode.IsSpace(r) || unicode.IsControl(r)
	})
}

// validSuccessor is identifier that also admits "", the value that clears a
// successor link.
func validSuccessor(fl validator.FieldLevel) bool {
	if fl.Field().String() == "" {
		return true
	}
	return validIdentifier(fl)
}

func jsonName(fld reflect.StructField) string {
	name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
	if name == "" || name == "-" {
		return fld.Name
	}
	return name
}

func engine() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(jsonName)
		for tag, fn := range map[string]validator.Func{
			"clock":      validClock,
			"date":       validDate,
			"identifier": validIdentifier,
			"successor":  validSuccessor,
		} {
			_ = validate.RegisterValidation(tag, fn)
		}
	})
	return validate
}
