package exitcode

import (
	stderrors "errors"
	"os"
	"strings"

	"github.com/appraysec/appray-cli/internal/errors"
)

// Exit codes for consistent error handling across the CLI
const (
	// Success indicates successful execution
	Success = 0

	// GeneralError indicates a general error condition
	GeneralError = 1

	// UsageError indicates invalid command usage (bad flags, missing args, etc.)
	UsageError = 2

	// ConfigError indicates missing or invalid configuration
	ConfigError = 3

	// AuthError indicates an authentication or authorization failure
	AuthError = 4

	// NetworkError indicates a remote API or network failure
	NetworkError = 5

	// ScanFailed indicates the scan verdict failed the build
	ScanFailed = 6

	// ScanTimeout indicates the scan did not reach a terminal state in time
	ScanTimeout = 7

	// Interrupted indicates the run was cancelled by a signal
	Interrupted = 130
)

// Exit terminates the program with the given exit code
func Exit(code int) {
	os.Exit(code)
}

// ExitWithError exits with an appropriate code based on error type
func ExitWithError(err error) {
	if err == nil {
		Exit(Success)
		return
	}

	code := DetermineExitCode(err)
	Exit(code)
}

// DetermineExitCode analyzes an error and returns the appropriate exit code.
// Coded AppRayErrors map by their code category; anything else falls back to
// a small amount of message matching before defaulting to GeneralError.
func DetermineExitCode(err error) int {
	if err == nil {
		return Success
	}

	var appErr *errors.AppRayError
	if stderrors.As(err, &appErr) {
		switch appErr.Code {
		case errors.ErrCodeScanWaitTimeout:
			return ScanTimeout
		case errors.ErrCodeScanFailed, errors.ErrCodeScanRiskExceeded:
			return ScanFailed
		}

		switch {
		case strings.HasPrefix(string(appErr.Code), "CONFIG-"):
			return ConfigError
		case strings.HasPrefix(string(appErr.Code), "AUTH-"):
			return AuthError
		case strings.HasPrefix(string(appErr.Code), "REMOTE-"):
			return NetworkError
		case strings.HasPrefix(string(appErr.Code), "SCAN-"):
			return ScanFailed
		}
		return GeneralError
	}

	errMsg := strings.ToLower(err.Error())

	if strings.Contains(errMsg, "unknown command") || strings.Contains(errMsg, "unknown flag") ||
		strings.Contains(errMsg, "required flag") || strings.Contains(errMsg, "invalid argument") {
		return UsageError
	}

	if strings.Contains(errMsg, "connection") || strings.Contains(errMsg, "timeout") ||
		strings.Contains(errMsg, "unreachable") {
		return NetworkError
	}

	return GeneralError
}

// GetExitCodeDescription returns a human-readable description of an exit code
func GetExitCodeDescription(code int) string {
	switch code {
	case Success:
		return "Success"
	case GeneralError:
		return "General error"
	case UsageError:
		return "Usage error (invalid flags or arguments)"
	case ConfigError:
		return "Configuration error"
	case AuthError:
		return "Authentication error"
	case NetworkError:
		return "Network or remote API error"
	case ScanFailed:
		return "Scan verdict failed the build"
	case ScanTimeout:
		return "Scan wait timeout exceeded"
	case Interrupted:
		return "Interrupted"
	default:
		return "Unknown error"
	}
}
