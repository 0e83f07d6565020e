package validation

import (
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

// ParseSlider reads a 0-100 slider value; blank selects def
func ParseSlider(value string, def int) (int, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return def, true
	}
	n, err := strconv.Atoi(value)
	if err != nil || n < 0 || n > 100 {
		return 0, false
	}
	return n, true
}

// ValidateSlider accepts integer strings between 0 and 100
func ValidateSlider(fl validator.FieldLevel) bool {
	_, ok := ParseSlider(fl.Field().String(), 0)
	return ok
}

// RegisterFormValidators registers the custom tags used by the generation form
func RegisterFormValidators(v *validator.Validate) {
	v.RegisterValidation("notblank", validators.NotBlank)
	v.RegisterValidation("slider", ValidateSlider)
	v.RegisterTagNameFunc(formFieldName)
}

// New returns a validator with the form tags registered
func New() *validator.Validate {
	v := validator.New()
	RegisterFormValidators(v)
	return v
}

// formFieldName reports fields by their form name so error details match the request
func formFieldName(field reflect.StructField) string {
	name, _, _ := strings.Cut(field.Tag.Get("form"), ",")
	if name == "" || name == "-" {
		return field.Name
	}
	return name
}

// FieldErrors maps validation failures to field name and failed tag
func FieldErrors(err error) map[string]string {
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return nil
	}

	fields := make(map[string]string, len(validationErrors))
	for _, fe := range validationErrors {
		fields[fe.Field()] = fe.Tag()
	}
	return fields
}
