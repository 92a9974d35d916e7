package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

// FieldError is one entry of a VALIDATION_ERROR response.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return field.Name
		}
		return name
	})
	_ = v.RegisterValidation("notblank", validators.NotBlank)
	return v
}

// validateInput runs struct validation and returns a VALIDATION_ERROR on failure.
func validateInput(input interface{}) error {
	if err := validate.Struct(input); err != nil {
		return ValidationFromError(err)
	}
	return nil
}

// ValidationFromError converts validator and JSON decoding failures into a
// VALIDATION_ERROR with per-field messages.
func ValidationFromError(err error) *AppError {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]FieldError, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, FieldError{Field: fe.Field(), Message: fieldMessage(fe)})
		}
		return Validation(fields)
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return Validation([]FieldError{{
			Field:   typeErr.Field,
			Message: fmt.Sprintf("must be of type %s", typeErr.Type.String()),
		}})
	}

	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) || errors.Is(err, ErrEmptyBody) {
		return Validation([]FieldError{{Field: "body", Message: "must be valid JSON"}})
	}

	return Validation([]FieldError{{Field: "body", Message: err.Error()}})
}

// ErrEmptyBody lets handlers report a missing request body the same way as
// malformed JSON.
var ErrEmptyBody = errors.New("empty body")

func fieldMessage(fe validator.FieldError) string {
	isString := fe.Kind() == reflect.String
	switch fe.Tag() {
	case "required":
		return "is required"
	case "notblank":
		return "must not be blank"
	case "email":
		return "must be a valid email address"
	case "min":
		if isString {
			return fmt.Sprintf("must be at least %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		if isString {
			return fmt.Sprintf("must be at most %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "len":
		return fmt.Sprintf("must be exactly %s characters", fe.Param())
	case "alphanum":
		return "must contain only letters and digits"
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}

// trimOptional trims an optional string in place and reports whether it was
// supplied but blank. omitempty skips validation of an empty value behind a
// pointer, so callers check this before validateInput.
func trimOptional(p *string) bool {
	if p == nil {
		return false
	}
	*p = strings.TrimSpace(*p)
	return *p == ""
}

func blankField(field string) *AppError {
	return Validation([]FieldError{{Field: field, Message: "must not be blank"}})
}
