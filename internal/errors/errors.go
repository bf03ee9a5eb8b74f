package errors

import (
	"fmt"
	"strings"
)

// ErrorCode represents a unique error identifier
type ErrorCode string

// Error categories
const (
	// Configuration errors (CONFIG-001 to CONFIG-099)
	ErrCodeConfigCredentialMissing ErrorCode = "CONFIG-001"
	ErrCodeConfigURLMissing        ErrorCode = "CONFIG-002"
	ErrCodeConfigAppNotFound       ErrorCode = "CONFIG-003"
	ErrCodeConfigInvalid           ErrorCode = "CONFIG-004"

	// Authentication errors (AUTH-001 to AUTH-099)
	ErrCodeAuthInvalidCredentials ErrorCode = "AUTH-001"
	ErrCodeAuthEndpointNotFound   ErrorCode = "AUTH-002"
	ErrCodeAuthFailure            ErrorCode = "AUTH-003"
	ErrCodeAuthRoleInsufficient   ErrorCode = "AUTH-004"
	ErrCodeAuthSessionClosed      ErrorCode = "AUTH-005"

	// Remote API errors (REMOTE-001 to REMOTE-099)
	ErrCodeRemoteResponse    ErrorCode = "REMOTE-001"
	ErrCodeRemoteParse       ErrorCode = "REMOTE-002"
	ErrCodeRemoteUnreachable ErrorCode = "REMOTE-003"

	// Scan errors (SCAN-001 to SCAN-099)
	ErrCodeScanFailed       ErrorCode = "SCAN-001"
	ErrCodeScanRiskExceeded ErrorCode = "SCAN-002"
	ErrCodeScanWaitTimeout  ErrorCode = "SCAN-003"
	ErrCodeScanSubmitFailed ErrorCode = "SCAN-004"
	ErrCodeScanReportFailed ErrorCode = "SCAN-005"

	// File I/O errors (IO-001 to IO-099)
	ErrCodeFileNotFound    ErrorCode = "IO-001"
	ErrCodeFileReadFailed  ErrorCode = "IO-002"
	ErrCodeFileWriteFailed ErrorCode = "IO-003"
)

// AppRayError represents an enhanced error with code, suggestions, and documentation
type AppRayError struct {
	Code        ErrorCode
	Message     string
	Suggestions []string
	DocsURL     string
	Cause       error

	// Status carries the HTTP status code for REMOTE-* and AUTH-* errors;
	// zero when the error did not originate from an HTTP response.
	Status int
}

// Error implements the error interface
func (e *AppRayError) Error() string {
	var b strings.Builder

	// Error code and message
	b.WriteString(fmt.Sprintf("[%s] %s", e.Code, e.Message))

	// Add cause if present
	if e.Cause != nil {
		b.WriteString(fmt.Sprintf(": %v", e.Cause))
	}

	// Add suggestions
	if len(e.Suggestions) > 0 {
		b.WriteString("\n\nSuggestions:")
		for _, suggestion := range e.Suggestions {
			b.WriteString(fmt.Sprintf("\n  • %s", suggestion))
		}
	}

	// Add documentation link
	if e.DocsURL != "" {
		b.WriteString(fmt.Sprintf("\n\nDocumentation: %s", e.DocsURL))
	}

	return b.String()
}

// Unwrap implements error unwrapping for errors.Is and errors.As
func (e *AppRayError) Unwrap() error {
	return e.Cause
}

// New creates a new AppRayError
func New(code ErrorCode, message string) *AppRayError {
	return &AppRayError{
		Code:    code,
		Message: message,
	}
}

// Wrap creates a new AppRayError wrapping an existing error
func Wrap(code ErrorCode, message string, cause error) *AppRayError {
	return &AppRayError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// WithSuggestion adds a suggestion to the error
func (e *AppRayError) WithSuggestion(suggestion string) *AppRayError {
	e.Suggestions = append(e.Suggestions, suggestion)
	return e
}

// WithSuggestions adds multiple suggestions to the error
func (e *AppRayError) WithSuggestions(suggestions ...string) *AppRayError {
	e.Suggestions = append(e.Suggestions, suggestions...)
	return e
}

// WithDocs adds a documentation URL to the error
func (e *AppRayError) WithDocs(url string) *AppRayError {
	e.DocsURL = url
	return e
}

// WithStatus records the HTTP status code that produced the error
func (e *AppRayError) WithStatus(status int) *AppRayError {
	e.Status = status
	return e
}

// Common error constructors for frequently used errors

// NewCredentialMissingError creates a missing-credential configuration error
func NewCredentialMissingError(id string) *AppRayError {
	return New(ErrCodeConfigCredentialMissing, fmt.Sprintf("credential is missing: %s", id)).
		WithSuggestion("Set APPRAY_USERNAME and APPRAY_PASSWORD in the build environment").
		WithSuggestion("Check if the configured credential has been deleted or moved")
}

// NewURLMissingError creates a missing-service-URL configuration error
func NewURLMissingError() *AppRayError {
	return New(ErrCodeConfigURLMissing, "required App-Ray url is missing").
		WithSuggestion("Set the url in .appray.yaml or via --url").
		WithSuggestion("The default service is https://demo.app-ray.co")
}

// NewAppNotFoundError creates an application-file-not-found configuration error
func NewAppNotFoundError(path string) *AppRayError {
	return New(ErrCodeConfigAppNotFound, fmt.Sprintf("application does not exist: %s", path)).
		WithSuggestion("Check that the build produced the binary at the configured path").
		WithSuggestion("Paths are resolved relative to the workspace directory")
}

// NewInvalidCredentialsError creates an invalid-credentials authentication error
func NewInvalidCredentialsError(username string) *AppRayError {
	return New(ErrCodeAuthInvalidCredentials, fmt.Sprintf("authentication failure (%s)", username)).
		WithStatus(401).
		WithSuggestion("Verify the username and password are valid for the configured service")
}

// NewEndpointNotFoundError creates a bad-base-URL authentication error
func NewEndpointNotFoundError(url string) *AppRayError {
	return New(ErrCodeAuthEndpointNotFound, fmt.Sprintf("authentication endpoint is missing, specify a valid URL; %s", url)).
		WithStatus(404).
		WithSuggestion("Check the service URL for typos; the client appends /api/v1 itself")
}

// NewAuthFailureError creates an unexpected-status authentication error
func NewAuthFailureError(status int) *AppRayError {
	return New(ErrCodeAuthFailure, fmt.Sprintf("authentication failure, status code: %d", status)).
		WithStatus(status)
}

// NewRemoteError creates an error for a non-2xx authenticated API response
func NewRemoteError(status int, title, detail string) *AppRayError {
	return New(ErrCodeRemoteResponse, fmt.Sprintf("error(%d) response: %s %s", status, title, detail)).
		WithStatus(status)
}

// NewRemoteParseError creates an error for an unparseable API response body
func NewRemoteParseError(status int, cause error, body string) *AppRayError {
	return Wrap(ErrCodeRemoteParse, fmt.Sprintf("error(%d) response: unparseable body: %s", status, body), cause).
		WithStatus(status)
}

// NewScanFailedError creates an error for a scan the service reported as failed
func NewScanFailedError(reason string) *AppRayError {
	return New(ErrCodeScanFailed, fmt.Sprintf("scan failed: %s", reason))
}

// NewRiskExceededError creates an error for a finished scan above the risk threshold
func NewRiskExceededError(score, threshold int) *AppRayError {
	return New(ErrCodeScanRiskExceeded, fmt.Sprintf("scan finished, application has too high risk score: %d (threshold: %d)", score, threshold)).
		WithSuggestion("Review the findings at the result URL").
		WithSuggestion("Raise risk-score-threshold only if the findings are accepted risks")
}

// NewWaitTimeoutError creates an error for a poll loop that hit its deadline
func NewWaitTimeoutError() *AppRayError {
	return New(ErrCodeScanWaitTimeout, "scan wait timeout exceeded, try to increase wait-timeout").
		WithSuggestion("The scan may still complete server-side; check the result URL later")
}
