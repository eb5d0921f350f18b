package google

import "fmt"

// AuthError indicates that no usable credential could be resolved: no source
// is configured, the stored token can no longer be refreshed, or interactive
// authorization is required but unavailable in this environment.
type AuthError struct {
	Reason string
	Err    error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("auth: %s: %v", e.Reason, e.Err)
	}
	return "auth: " + e.Reason
}

func (e *AuthError) Unwrap() error {
	return e.Err
}
