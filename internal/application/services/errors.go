// Package services provides application-level services that orchestrate
// harness imports, templates, settings and authentication.
package services

import (
	"errors"
	"strings"
)

var (
	ErrPartNotFound     = errors.New("part not found")
	ErrHarnessNotFound  = errors.New("no harness stored for part")
	ErrTemplateNotFound = errors.New("template not found")
	ErrInvalidFile      = errors.New("invalid wireviz file")
	ErrInvalidSetting   = errors.New("invalid setting")
)

// ParseFailureMessage heads the messages of a rejected harness file.
const ParseFailureMessage = "Failed to parse wireviz file:"

// ValidationError carries user-facing messages for a rejected request.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Messages, " ")
}

// Unwrap lets errors.Is match ErrInvalidFile.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidFile
}

func newValidationError(messages ...string) *ValidationError {
	return &ValidationError{Messages: messages}
}
