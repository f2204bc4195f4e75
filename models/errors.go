package models

import "fmt"

// Error codes used in API responses and internal error handling.
const (
	ErrCodeInvalidInput  = "INVALID_INPUT"
	ErrCodeLoginPage     = "LOGIN_PAGE_FAILED"
	ErrCodeLoginFailed   = "LOGIN_FAILED"
	ErrCodeNavigation    = "NAVIGATION_FAILED"
	ErrCodeBrowserCrash  = "BROWSER_CRASH"
	ErrCodeTimeout       = "HARVEST_TIMEOUT"
	ErrCodeRateLimited   = "RATE_LIMITED"
	ErrCodeUnauthorized  = "UNAUTHORIZED"
	ErrCodeInternal      = "INTERNAL_ERROR"
	ErrCodeNotAccessible = "ACCOUNT_NOT_ACCESSIBLE"
)

// Client-facing message prefixes. The wrapped cause, when present, is
// appended after ": ".
const (
	MsgHandleRequired      = "Twitter handle is required"
	MsgCredentialsRequired = "Twitter login credentials are required to view followers"
	MsgLoginPageFailed     = "Failed to load Twitter login page"
	MsgLoginFailed         = "Login failed"
	MsgNavigationFailed    = "Failed to navigate to followers page"
	MsgNotAccessible       = "Account not accessible, private, or does not exist"
	MsgHarvestFailed       = "Failed to fetch followers"
)

// HarvestError is the internal error type carrying an error code.
// It implements the error interface and supports error wrapping via Unwrap.
type HarvestError struct {
	Code    string
	Message string
	Err     error // wrapped original error
}

func (e *HarvestError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *HarvestError) Unwrap() error {
	return e.Err
}

// Public renders the message shown to API clients.
func (e *HarvestError) Public() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// NewHarvestError creates a new HarvestError.
func NewHarvestError(code, message string, err error) *HarvestError {
	return &HarvestError{Code: code, Message: message, Err: err}
}
