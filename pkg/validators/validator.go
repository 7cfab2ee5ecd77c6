// Package validators adapts go-playground/validator to echo's Validator interface.
package validators

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/anonto42/foodgram/backend/internal/apperrors"
	"github.com/go-playground/validator/v10"
)

var (
	usernamePattern   = regexp.MustCompile(`^[\w.@+-]+$`)
	personNamePattern = regexp.MustCompile(`^[\p{L}\s]+$`)
)

// CustomValidator implements echo.Validator.
type CustomValidator struct {
	v *validator.Validate
}

// NewValidator creates a validator that reports fields by their JSON names.
func NewValidator() *CustomValidator {
	v := validator.New()

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})

	// "me" is reserved for the /users/me route.
	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return s != "me" && usernamePattern.MatchString(s)
	})
	_ = v.RegisterValidation("personname", func(fl validator.FieldLevel) bool {
		return personNamePattern.MatchString(fl.Field().String())
	})

	return &CustomValidator{v: v}
}

// Validate validates a struct and returns an *apperrors.Error with per-field messages.
func (cv *CustomValidator) Validate(i interface{}) error {
	if err := cv.v.Struct(i); err != nil {
		return formatError(err)
	}
	return nil
}

func formatError(err error) error {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return apperrors.Validation(err.Error())
	}

	fields := make(map[string]string, len(validationErrs))
	for _, e := range validationErrs {
		fields[fieldPath(e)] = friendlyMessage(e)
	}
	return apperrors.ValidationWithDetails("validation failed", fields)
}

// fieldPath drops the top-level struct name: "CreateRecipeRequest.ingredients[0].amount" -> "ingredients[0].amount".
func fieldPath(e validator.FieldError) string {
	ns := e.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return e.Field()
}

func friendlyMessage(e validator.FieldError) string {
	isNumber := false
	switch e.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Float32, reflect.Float64:
		isNumber = true
	}

	switch e.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		if isNumber {
			return "must be at least " + e.Param()
		}
		if e.Kind() == reflect.Slice {
			return fmt.Sprintf("must contain at least %s item(s)", e.Param())
		}
		return fmt.Sprintf("must be at least %s characters", e.Param())
	case "max":
		if isNumber {
			return "must be at most " + e.Param()
		}
		return fmt.Sprintf("must not exceed %s characters", e.Param())
	case "username":
		return "may contain only letters, digits and @/./+/-/_ and must not be \"me\""
	case "personname":
		return "may contain only letters and spaces"
	case "oneof":
		return "must be one of: " + e.Param()
	default:
		return "is invalid"
	}
}
