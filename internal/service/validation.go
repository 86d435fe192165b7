package service

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/alumni-survey-api/internal/repository"
	appErrors "github.com/noah-isme/alumni-survey-api/pkg/errors"
)

// NewValidator returns a validator that reports fields by their JSON name.
func NewValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return field.Name
		}
		return name
	})
	return v
}

// validationError turns validator output into a 400 with a field detail map.
func validationError(err error, message string) error {
	if message == "" {
		message = appErrors.ErrValidation.Message
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, message)
	}

	details := make(map[string]interface{}, len(fieldErrs))
	for _, fe := range fieldErrs {
		details[fe.Field()] = []string{fieldMessage(fe)}
	}
	return appErrors.WithDetails(appErrors.ErrValidation, message, details)
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "email":
		return "Enter a valid email address."
	case "min":
		return "Ensure this field has at least " + fe.Param() + " characters."
	case "max":
		return "Ensure this field has no more than " + fe.Param() + " characters."
	case "oneof":
		return "Must be one of: " + fe.Param() + "."
	}
	return "Invalid value."
}

func fieldError(field, message string) error {
	return appErrors.WithDetails(appErrors.ErrValidation, message, map[string]interface{}{field: []string{message}})
}

// conflictError maps a unique violation on username or email onto the
// friendly "already exists" envelope. ok is false for any other error.
func conflictError(err error, entity string) (error, bool) {
	constraint, ok := repository.IsUniqueViolation(err)
	if !ok {
		return nil, false
	}
	details := map[string]interface{}{}
	switch {
	case strings.Contains(constraint, "username"):
		details["username"] = []string{entity + " with this username already exists."}
	case strings.Contains(constraint, "email"):
		details["email"] = []string{entity + " with this email already exists."}
	default:
		details["non_field_errors"] = []string{"A conflicting record already exists."}
	}
	return appErrors.WithDetails(appErrors.ErrValidation, "Username or email already exists.", details), true
}

func internalError(err error, message string) error {
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
}

func notFound(message string) error {
	return appErrors.Clone(appErrors.ErrNotFound, message)
}
