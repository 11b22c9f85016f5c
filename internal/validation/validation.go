// Package validation collects field rule violations for request payloads.
package validation

import (
	"strings"
	"unicode/utf8"

	"collegeconnect/internal/models"
)

// Errors accumulates every violated rule so a request reports them all at once.
type Errors struct {
	fields []models.FieldError
}

// Add records a violation on field.
func (e *Errors) Add(field, message string) {
	e.fields = append(e.fields, models.FieldError{Field: field, Message: message})
}

// Len is the number of recorded violations.
func (e *Errors) Len() int {
	return len(e.fields)
}

// Fields returns a copy of the recorded violations.
func (e *Errors) Fields() []models.FieldError {
	out := make([]models.FieldError, len(e.fields))
	copy(out, e.fields)
	return out
}

// Err returns nil when no rule failed, otherwise a validation AppError.
func (e *Errors) Err() error {
	if len(e.fields) == 0 {
		return nil
	}
	return models.NewFieldValidationError(e.Fields())
}

// Length checks that the trimmed value has between min and max runes.
func (e *Errors) Length(field, value string, min, max int, message string) {
	n := utf8.RuneCountInString(strings.TrimSpace(value))
	if n < min || (max > 0 && n > max) {
		e.Add(field, message)
	}
}

// MaxLength checks an optional value against an upper bound only.
func (e *Errors) MaxLength(field, value string, max int, message string) {
	if utf8.RuneCountInString(strings.TrimSpace(value)) > max {
		e.Add(field, message)
	}
}

// Range checks min <= v <= max.
func (e *Errors) Range(field string, v, min, max int64, message string) {
	if v < min || v > max {
		e.Add(field, message)
	}
}

// Require records message when ok is false.
func (e *Errors) Require(ok bool, field, message string) {
	if !ok {
		e.Add(field, message)
	}
}

// OneOf checks value against a closed set. Empty values pass when optional is true.
func OneOf[T ~string](e *Errors, field string, value T, allowed []T, optional bool, message string) {
	if value == "" && optional {
		return
	}
	for _, a := range allowed {
		if a == value {
			return
		}
	}
	e.Add(field, message)
}
