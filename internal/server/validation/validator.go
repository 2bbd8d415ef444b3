// Package validation provides struct validation using go-playground/validator v10
// and the username rule shared by registration and request structs.
//
// Failures are reported as *RequestValidationError, which matches
// common.ErrorValidation via errors.Is and renders as a field to messages map:
//
//	if err := validation.ValidateStruct(&req); err != nil {
//	    return err // 400 {"username": ["..."]}
//	}
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/dmitrijs2005/foodgram/internal/common"
	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

var usernameRe = regexp.MustCompile(`^[A-Za-z0-9_.@+-]+$`)

// FieldError is a single failed rule on a field.
type FieldError struct {
	Field   string
	Tag     string
	Message string
}

// RequestValidationError collects the field errors of one request.
type RequestValidationError struct {
	errors []FieldError
}

// NewError builds a validation error for one field.
func NewError(field, message string) *RequestValidationError {
	return &RequestValidationError{errors: []FieldError{{Field: field, Message: message}}}
}

func (ve *RequestValidationError) Errors() []FieldError {
	return ve.errors
}

func (ve *RequestValidationError) Error() string {
	if len(ve.errors) == 0 {
		return "validation failed"
	}
	messages := make([]string, len(ve.errors))
	for i, e := range ve.errors {
		messages[i] = e.Field + ": " + e.Message
	}
	return strings.Join(messages, "; ")
}

// Unwrap lets errors.Is(err, common.ErrorValidation) succeed.
func (ve *RequestValidationError) Unwrap() error {
	return common.ErrorValidation
}

// Fields groups messages by field, the shape returned to API clients.
func (ve *RequestValidationError) Fields() map[string][]string {
	out := make(map[string][]string, len(ve.errors))
	for _, e := range ve.errors {
		out[e.Field] = append(out[e.Field], e.Message)
	}
	return out
}

// GetValidator returns the singleton validator instance.
func GetValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())

		// report json names, clients never see Go field names
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			if name == "" {
				return f.Name
			}
			return name
		})

		_ = validate.RegisterValidation("username", func(fl validator.FieldLevel) bool {
			return usernameRe.MatchString(fl.Field().String())
		})
	})

	return validate
}

// ValidateUsername accepts non-empty names made of letters, digits and _.@+-
func ValidateUsername(s string) error {
	if !usernameRe.MatchString(s) {
		return NewError("username", "Enter a valid username. It may contain only letters, digits and @/./+/-/_ characters.")
	}
	return nil
}

// ValidateStruct validates s and returns nil or a *RequestValidationError.
func ValidateStruct(s any) error {
	err := GetValidator().Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", common.ErrorValidation, err)
	}

	out := &RequestValidationError{errors: make([]FieldError, 0, len(verrs))}
	for _, fe := range verrs {
		out.errors = append(out.errors, FieldError{
			Field:   fieldPath(fe.Namespace()),
			Tag:     fe.Tag(),
			Message: message(fe),
		})
	}
	sort.SliceStable(out.errors, func(i, j int) bool { return out.errors[i].Field < out.errors[j].Field })
	return out
}

// fieldPath drops the root struct name: "RecipeRequest.ingredients[0].amount" -> "ingredients[0].amount".
func fieldPath(ns string) string {
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "email":
		return "Enter a valid email address."
	case "username":
		return "Enter a valid username. It may contain only letters, digits and @/./+/-/_ characters."
	case "min", "gte":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("Ensure this field has at least %s characters.", fe.Param())
		}
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("Ensure this list has at least %s items.", fe.Param())
		}
		return fmt.Sprintf("Ensure this value is greater than or equal to %s.", fe.Param())
	case "max", "lte":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("Ensure this field has no more than %s characters.", fe.Param())
		}
		return fmt.Sprintf("Ensure this value is less than or equal to %s.", fe.Param())
	case "unique":
		return "Items must be unique."
	}
	return fmt.Sprintf("Failed on the '%s' rule.", fe.Tag())
}
