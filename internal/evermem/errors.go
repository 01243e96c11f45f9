package evermem

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrTimeout        = errors.New("request timed out")
	ErrAuthentication = errors.New("authentication rejected")
	ErrNotFound       = errors.New("memory not found")
	ErrTransient      = errors.New("transient network failure")
)

// APIError is a non-retryable client-side rejection (4xx) that is not an
// authentication or not-found failure.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api error: HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("api error: HTTP %d: %s", e.StatusCode, e.Message)
}

// ValidationError reports malformed or missing input before any network call.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// InvalidMethodError reports a retrieve method outside the supported set.
type InvalidMethodError struct {
	Method string
}

func (e *InvalidMethodError) Error() string {
	return fmt.Sprintf("unsupported retrieve method %q (valid: %s)",
		e.Method, strings.Join(MethodNames(), ", "))
}
