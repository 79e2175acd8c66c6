package common

import (
	"fmt"
	"slices"
	"strings"
)

// ValidationError is one failed rule for one field.
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

func (e ValidationError) Error() string {
	return e.Field + " " + e.Message
}

// Validator collects rule failures across fields so a caller can report them all at once.
type Validator struct {
	errors []ValidationError
}

func NewValidator() *Validator {
	return &Validator{}
}

// Field runs rules against value and records every failure.
func (v *Validator) Field(name string, value any, rules ...ValidationRule) *Validator {
	for _, rule := range rules {
		if err := rule(name, value); err != nil {
			v.errors = append(v.errors, *err)
		}
	}
	return v
}

// Check records message against name when ok is false. It covers cross-field
// conditions that do not fit a single-value rule.
func (v *Validator) Check(ok bool, name, message string) *Validator {
	if !ok {
		v.errors = append(v.errors, ValidationError{Field: name, Message: message})
	}
	return v
}

func (v *Validator) HasErrors() bool { return len(v.errors) > 0 }

func (v *Validator) Errors() []ValidationError { return v.errors }

// ErrorMessage joins all failures with "; ".
func (v *Validator) ErrorMessage() string {
	msgs := make([]string, len(v.errors))
	for i, e := range v.errors {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "; ")
}

// AsError returns nil, or an AppError with code wrapping ErrInvalidInput.
func (v *Validator) AsError(code string) error {
	if !v.HasErrors() {
		return nil
	}
	return NewAppError(code, v.ErrorMessage(), ErrInvalidInput)
}

// ValidationRule checks one value.
type ValidationRule func(name string, value any) *ValidationError

// Required rejects nil and blank strings.
func Required(name string, value any) *ValidationError {
	blank := value == nil
	switch s := value.(type) {
	case string:
		blank = strings.TrimSpace(s) == ""
	case *string:
		blank = s == nil || strings.TrimSpace(*s) == ""
	}
	if blank {
		return &ValidationError{Field: name, Value: value, Message: "is required"}
	}
	return nil
}

// IntRange checks min <= value <= max.
func IntRange(min, max int) ValidationRule {
	return func(name string, value any) *ValidationError {
		n, ok := value.(int)
		if !ok {
			return &ValidationError{Field: name, Value: value, Message: "must be an integer"}
		}
		if n < min || n > max {
			return &ValidationError{Field: name, Value: value, Message: fmt.Sprintf("must be between %d and %d", min, max)}
		}
		return nil
	}
}

// FloatRange checks min <= value <= max.
func FloatRange(min, max float64) ValidationRule {
	return func(name string, value any) *ValidationError {
		f, ok := value.(float64)
		if !ok {
			return &ValidationError{Field: name, Value: value, Message: "must be a number"}
		}
		if f < min || f > max {
			return &ValidationError{Field: name, Value: value, Message: fmt.Sprintf("must be between %g and %g", min, max)}
		}
		return nil
	}
}

// OneOf accepts only the listed strings. Named string types are compared by value.
func OneOf(allowed ...string) ValidationRule {
	return func(name string, value any) *ValidationError {
		s := fmt.Sprint(value)
		if slices.Contains(allowed, s) {
			return nil
		}
		return &ValidationError{
			Field:   name,
			Value:   value,
			Message: fmt.Sprintf("must be one of %s, got %q", strings.Join(allowed, ", "), s),
		}
	}
}

// ValidateAndReturnError returns an INVALID_INPUT AppError if validation failed.
func ValidateAndReturnError(validator *Validator) error {
	return validator.AsError("INVALID_INPUT")
}
