// Package validation adapts go-playground/validator to the field-validation
// capability runners call from their steps. Rules live in `validate` struct
// tags on the payload; this package only runs them and reports failures.
package validation

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// FieldValidator checks a struct payload, either as a whole or one field at a time.
type FieldValidator interface {
	ValidateStruct(ctx context.Context, s interface{}) error
	ValidateField(ctx context.Context, s interface{}, field string) error
}

// FieldError describes one failed rule.
type FieldError struct {
	Field string      // name as exposed to users (json tag when present)
	Rule  string      // failing tag, e.g. "email"
	Param string      // tag parameter, e.g. "10" for min=10
	Value interface{} // offending value
}

func (e FieldError) String() string {
	if e.Param != "" {
		return fmt.Sprintf("%s: rule '%s' expected '%s', got '%v'", e.Field, e.Rule, e.Param, e.Value)
	}
	return fmt.Sprintf("%s: failed '%s' rule", e.Field, e.Rule)
}

// Errors is the error returned when one or more rules fail.
type Errors []FieldError

func (e Errors) Error() string {
	msgs := make([]string, 0, len(e))
	for _, fe := range e {
		msgs = append(msgs, fe.String())
	}
	return strings.Join(msgs, "; ")
}

// Fields returns the names of the failing fields in order.
func (e Errors) Fields() []string {
	out := make([]string, 0, len(e))
	for _, fe := range e {
		out = append(out, fe.Field)
	}
	return out
}

// AsErrors returns the Errors in err's chain, if any.
func AsErrors(err error) (Errors, bool) {
	var errs Errors
	ok := errors.As(err, &errs)
	return errs, ok
}

// Validator is the go-playground/validator backed FieldValidator. Safe for
// concurrent use once rules are registered.
type Validator struct {
	validate *validator.Validate
}

var _ FieldValidator = (*Validator)(nil)

// New returns a Validator that reports fields by their json name.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return &Validator{validate: v}
}

// RegisterRule adds a custom tag usable in `validate` struct tags.
func (v *Validator) RegisterRule(tag string, fn func(value string) bool) error {
	return v.validate.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
		return fn(fl.Field().String())
	})
}

// ValidateStruct runs every rule of s.
func (v *Validator) ValidateStruct(ctx context.Context, s interface{}) error {
	return convert(v.validate.StructCtx(ctx, s))
}

// ValidateField runs only the rules of the named struct field (Go field name).
func (v *Validator) ValidateField(ctx context.Context, s interface{}, field string) error {
	return convert(v.validate.StructPartialCtx(ctx, s, field))
}

func convert(err error) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validation: %w", err)
	}
	out := make(Errors, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, FieldError{
			Field: fe.Field(),
			Rule:  fe.Tag(),
			Param: fe.Param(),
			Value: fe.Value(),
		})
	}
	return out
}
