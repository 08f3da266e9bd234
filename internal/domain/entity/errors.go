package entity

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownBot  = errors.New("unknown bot")
	ErrStepTimeout = errors.New("bot timed out")
)

// MissingFieldError reports required context values that were absent.
type MissingFieldError struct {
	Fields []string
}

func (e *MissingFieldError) Error() string {
	if len(e.Fields) == 1 {
		return "missing required field: " + e.Fields[0]
	}
	return "missing required fields: " + strings.Join(e.Fields, ", ")
}

// AutomationError wraps a failed UI step.
type AutomationError struct {
	Step string
	Err  error
}

func (e *AutomationError) Error() string {
	return fmt.Sprintf("step %s failed: %v", e.Step, e.Err)
}

func (e *AutomationError) Unwrap() error { return e.Err }

// SessionError means no browser session could be created or attached.
type SessionError struct {
	Err error
}

func (e *SessionError) Error() string {
	return fmt.Sprintf("browser session unavailable: %v", e.Err)
}

func (e *SessionError) Unwrap() error { return e.Err }
