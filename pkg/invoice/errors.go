package invoice

import (
	"errors"
	"strings"
)

// ErrInvalidInput indicates business parameters outside their allowed range.
var ErrInvalidInput = errors.New("invoice: invalid input")

// FieldError describes a single rejected parameter.
type FieldError struct {
	Field string
	Rule  string
	Param string
	Value any
}

func (e FieldError) String() string {
	if e.Param == "" {
		return e.Field + " failed " + e.Rule
	}
	return e.Field + " failed " + e.Rule + "=" + e.Param
}

// ValidationError lists every parameter that failed validation.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.String())
	}
	return ErrInvalidInput.Error() + ": " + strings.Join(parts, "; ")
}

// Is reports ErrInvalidInput as the error kind.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// HasField reports whether name is among the rejected fields.
func (e *ValidationError) HasField(name string) bool {
	for _, f := range e.Fields {
		if f.Field == name {
			return true
		}
	}
	return false
}
