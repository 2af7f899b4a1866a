package page

import (
	"fmt"
	"strings"
)

// FieldProblem names a single invalid configuration field.
type FieldProblem struct {
	Field  string
	Reason string
}

// ConfigurationError is returned when page configuration cannot be rendered.
// It is fatal at startup.
type ConfigurationError struct {
	Problems []FieldProblem
}

func (e *ConfigurationError) add(field, reason string) {
	e.Problems = append(e.Problems, FieldProblem{Field: field, Reason: reason})
}

// Error implements the error interface.
func (e *ConfigurationError) Error() string {
	if e == nil || len(e.Problems) == 0 {
		return "page configuration invalid"
	}
	parts := make([]string, 0, len(e.Problems))
	for _, p := range e.Problems {
		parts = append(parts, p.Field+": "+p.Reason)
	}
	return fmt.Sprintf("page configuration invalid: %s", strings.Join(parts, "; "))
}

// Fields returns the invalid field names in the order they were found.
func (e *ConfigurationError) Fields() []string {
	if e == nil {
		return nil
	}
	out := make([]string, 0, len(e.Problems))
	for _, p := range e.Problems {
		out = append(out, p.Field)
	}
	return out
}

// Resource kinds reported by ResourceLoadFailure.
const (
	ResourceEmbed = "embed"
	ResourceImage = "image"
)

// ResourceLoadFailure describes a remote resource that could not be loaded or refuses
// to be framed. It is never fatal.
type ResourceLoadFailure struct {
	Resource string
	URL      string
	Reason   string
	Err      error
}

// Error implements the error interface.
func (e *ResourceLoadFailure) Error() string {
	msg := fmt.Sprintf("%s %s: %s", e.Resource, e.URL, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes the underlying error.
func (e *ResourceLoadFailure) Unwrap() error { return e.Err }
