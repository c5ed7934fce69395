package config

import (
	"fmt"
	"strings"
)

// ValidationError describes one problem with a configuration field.
// Warnings do not block a run.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Warning bool   `json:"warning,omitempty"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("config validation error in field '%s': %s", e.Field, e.Message)
}

// ValidationErrors collects the results of validating a Config.
type ValidationErrors struct {
	Entries []ValidationError `json:"errors"`
}

func (e *ValidationErrors) add(field, message string, warning bool) {
	e.Entries = append(e.Entries, ValidationError{Field: field, Message: message, Warning: warning})
}

func (e ValidationErrors) Error() string {
	errs := e.Blocking()
	if len(errs) == 0 {
		return "no validation errors"
	}
	if len(errs) == 1 {
		return errs[0].Error()
	}
	var messages []string
	for _, err := range errs {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("multiple validation errors:\n  - %s", strings.Join(messages, "\n  - "))
}

// Blocking returns the entries that prevent a run from starting.
func (e ValidationErrors) Blocking() []ValidationError {
	var out []ValidationError
	for _, entry := range e.Entries {
		if !entry.Warning {
			out = append(out, entry)
		}
	}
	return out
}

// Warnings returns the non-blocking entries.
func (e ValidationErrors) Warnings() []ValidationError {
	var out []ValidationError
	for _, entry := range e.Entries {
		if entry.Warning {
			out = append(out, entry)
		}
	}
	return out
}

// HasErrors reports whether any blocking entry exists.
func (e ValidationErrors) HasErrors() bool {
	return len(e.Blocking()) > 0
}
