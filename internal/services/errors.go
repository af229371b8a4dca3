package services

import (
	"errors"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Service-level errors
var (
	ErrValidation         = errors.New("validation failed")
	ErrPropertyNotFound   = errors.New("property not found")
	ErrPermitTypeNotFound = errors.New("permit type not found")
	ErrGoalNotFound       = errors.New("statewide goal not found")
	ErrCheckNotFound      = errors.New("compliance check not found")
)

// ValidationError reports invalid input. Field names the first offending
// field; Fields holds every field error when more than one was found.
type ValidationError struct {
	Fields  map[string]string
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// Unwrap lets errors.Is match ErrValidation.
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

func invalid(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
		Fields:  map[string]string{field: message},
	}
}

// detailsValidator checks the validate tags of request models. It caches
// struct metadata and is safe for concurrent use.
var detailsValidator = newValidator()

// newValidator returns a validator that reports fields by their JSON name.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// validateStruct runs struct validation and converts the result.
func validateStruct(v *validator.Validate, s interface{}) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return &ValidationError{Message: err.Error()}
	}

	fields := make(map[string]string, len(fieldErrs))
	for _, fe := range fieldErrs {
		fields[fe.Field()] = describe(fe)
	}
	first := fieldErrs[0].Field()
	return &ValidationError{Field: first, Message: fields[first], Fields: fields}
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gte":
		return "must be greater than or equal to " + fe.Param()
	case "lte":
		return "must be less than or equal to " + fe.Param()
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "oneof":
		return "must be one of: " + fe.Param()
	case "email":
		return "must be a valid email address"
	}
	return "failed validation: " + fe.Tag()
}

// sortedFields lists the field names of a ValidationError in order.
func sortedFields(e *ValidationError) []string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
