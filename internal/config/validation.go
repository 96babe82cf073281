package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ValidationError represents a validation error with context
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

// Error implements the error interface
func (ve ValidationError) Error() string {
	if ve.Field == "" {
		return ve.Message
	}
	return fmt.Sprintf("field '%s': %s", ve.Field, ve.Message)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for multiple validation errors
func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "no validation errors"
	}
	if len(ve) == 1 {
		return ve[0].Error()
	}

	var messages []string
	for _, err := range ve {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(messages, "; "))
}

// HasErrors returns true if there are any validation errors
func (ve ValidationErrors) HasErrors() bool {
	return len(ve) > 0
}

// Add adds a new validation error
func (ve *ValidationErrors) Add(field, message string, value ...interface{}) {
	var val interface{}
	if len(value) > 0 {
		val = value[0]
	}
	*ve = append(*ve, ValidationError{
		Field:   field,
		Value:   val,
		Message: message,
	})
}

var validate = newValidator()

// newValidator reports fields by their yaml name.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// Validate checks cfg for values the server cannot start with.
func Validate(cfg Config) error {
	var errs ValidationErrors
	collect(&errs, validate.Struct(cfg))

	switch cfg.Storage.Type {
	case StorageFile:
		if strings.TrimSpace(cfg.Storage.File.Path) == "" {
			errs.Add("storage.file.path", "is required for the file store")
		}
	case StorageRedis:
		if strings.TrimSpace(cfg.Storage.Redis.Address) == "" {
			errs.Add("storage.redis.address", "is required for the redis store")
		}
	}

	if errs.HasErrors() {
		return errs
	}
	return nil
}

// ValidateProvider checks a single client registration.
func ValidateProvider(p ProviderConfig) error {
	var errs ValidationErrors
	collect(&errs, validate.Struct(p))
	if errs.HasErrors() {
		return errs
	}
	return nil
}

func collect(errs *ValidationErrors, err error) {
	if err == nil {
		return
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		errs.Add("", err.Error())
		return
	}
	for _, fe := range verrs {
		errs.Add(fieldPath(fe.Namespace()), describe(fe), fe.Value())
	}
}

// fieldPath turns "Config.server.port" into "server.port".
func fieldPath(namespace string) string {
	if i := strings.Index(namespace, "."); i >= 0 {
		return namespace[i+1:]
	}
	return namespace
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return fmt.Sprintf("must be one of: %s", strings.ReplaceAll(fe.Param(), " ", ", "))
	case "url":
		return "must be an absolute URL"
	case "min", "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max", "lte":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "startswith":
		return fmt.Sprintf("must start with %q", fe.Param())
	}
	return fmt.Sprintf("failed %q validation", fe.Tag())
}
