package errors

import (
	"errors"
	"fmt"
)

// Domain error types for business logic

var (
	// ErrNotFound indicates a resource was not found
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput indicates invalid input parameters
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnauthorized indicates a rejected credential
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInternal indicates an internal server error
	ErrInternal = errors.New("internal error")

	// ErrTimeout indicates an operation timeout
	ErrTimeout = errors.New("operation timeout")

	// ErrExternal indicates a remote service returned an error
	ErrExternal = errors.New("external service error")

	// ErrUnavailable indicates a remote service is unavailable
	ErrUnavailable = errors.New("service unavailable")

	// ErrRateLimitExceeded indicates API rate limit exceeded
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
)

// Agent platform errors

var (
	// ErrEmptyInstructions indicates a prompt resolved to empty instructions
	ErrEmptyInstructions = errors.New("agent instructions are empty")

	// ErrPromptNotFound indicates the prompt server does not expose the prompt
	ErrPromptNotFound = errors.New("prompt not found on server")

	// ErrNoAssistantMessage indicates a conversation finished without an assistant reply
	ErrNoAssistantMessage = errors.New("no assistant message in conversation output")
)

// Structured output errors

var (
	// ErrUnknownSchema indicates a response schema name has no registered shape
	ErrUnknownSchema = errors.New("unknown response schema")

	// ErrSchemaValidation indicates an agent reply does not match its declared schema
	ErrSchemaValidation = errors.New("response schema validation failed")

	// ErrPlanOutOfRange indicates a search plan size outside the configured bounds
	ErrPlanOutOfRange = errors.New("search plan size out of range")
)

// Helper functions

// Is checks if err is or wraps target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target type
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Wrap wraps an error with context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

func New(message string) error {
	return errors.New(message)
}

func Newf(format string, args ...interface{}) error {
	return fmt.Errorf(format, args...)
}
