package service

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var clockPattern = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
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
	_ = v.RegisterValidation("clock", func(fl validator.FieldLevel) bool {
		return clockPattern.MatchString(fl.Field().String())
	})
	return v
}

// validateStruct runs struct tags and reports failures as a ValidationError.
// "required" failures land in MissingFields, everything else in InvalidFields.
func validateStruct(input any) error {
	err := validate.Struct(input)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return &ValidationError{Reason: err.Error()}
	}

	out := &ValidationError{}
	for _, fe := range fieldErrs {
		field := fieldPath(fe.Namespace())
		switch fe.Tag() {
		case "required", "required_without", "required_if":
			out.missing(field)
		default:
			out.invalid(field)
		}
	}
	return out.orNil()
}

// fieldPath drops the struct name validator puts in front of the namespace.
func fieldPath(namespace string) string {
	if idx := strings.Index(namespace, "."); idx >= 0 {
		return namespace[idx+1:]
	}
	return namespace
}

// validateWith runs struct tags and then extra checks that tags cannot
// express, merging both into one ValidationError.
func validateWith(input any, extra func(v *ValidationError)) error {
	out := &ValidationError{}
	if err := validateStruct(input); err != nil {
		var ve *ValidationError
		if !errors.As(err, &ve) {
			return err
		}
		out = ve
	}
	if extra != nil {
		extra(out)
	}
	return out.orNil()
}
