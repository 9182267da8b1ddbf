package core

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds surfaced by the core services. Handlers map them to HTTP status codes.
var (
	ErrAuthenticationRequired = errors.New("authentication required")
	ErrInvalidInput           = errors.New("invalid input")
	ErrPrincipalNotFound      = errors.New("principal not found")
	ErrRecordNotFound         = errors.New("record not found")
	ErrGenerationFailed       = errors.New("generation failed")
	ErrBillingUnavailable     = errors.New("billing unavailable")
	ErrExportFailed           = errors.New("export failed")
)

// InvalidInputError names the request fields that failed validation.
type InvalidInputError struct {
	Fields []string
	Reason string
}

func (e *InvalidInputError) Error() string {
	msg := ErrInvalidInput.Error()
	if len(e.Fields) > 0 {
		msg += ": missing required fields: " + strings.Join(e.Fields, ", ")
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

func (e *InvalidInputError) Unwrap() error { return ErrInvalidInput }

func invalidField(field, reason string) error {
	return &InvalidInputError{Reason: fmt.Sprintf("%s %s", field, reason)}
}

// GenerationFailedError carries the language model provider's message.
type GenerationFailedError struct {
	Message string
	Err     error
}

func (e *GenerationFailedError) Error() string {
	return fmt.Sprintf("%s: %s", ErrGenerationFailed, e.Message)
}

func (e *GenerationFailedError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrGenerationFailed}
	}
	return []error{ErrGenerationFailed, e.Err}
}

// ExportFailedError carries the export collaborator's message.
type ExportFailedError struct {
	Message string
	Err     error
}

func (e *ExportFailedError) Error() string {
	return fmt.Sprintf("%s: %s", ErrExportFailed, e.Message)
}

func (e *ExportFailedError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrExportFailed}
	}
	return []error{ErrExportFailed, e.Err}
}
