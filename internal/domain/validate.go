package domain

import (
	"errors"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// Validator returns the shared validator with the domain tags registered.
// "cefr" accepts a CEFR level string (A1..C2).
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		_ = validate.RegisterValidation("cefr", func(fl validator.FieldLevel) bool {
			return Level(fl.Field().String()).IsValid()
		})
	})
	return validate
}

// Validate checks the content of a card before it is introduced.
func (c CardContent) Validate() error {
	return ValidateStruct(c)
}

// ValidateStruct runs the shared validator and converts its failures into
// a *ValidationError.
func ValidateStruct(v any) error {
	err := Validator().Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, FieldError{
			Field:   strings.ToLower(fe.Field()),
			Message: "failed " + fe.Tag(),
		})
	}
	return &ValidationError{Errors: out}
}
