package calendar

import "fmt"

// ValidationError indicates invalid request input, such as a missing required
// query parameter. The gateway maps it to HTTP 400.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

// RemoteError wraps any failure from the Google Calendar collaborator,
// including not-found on get, update and delete.
type RemoteError struct {
	Op  string
	Err error
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("calendar %s: %v", e.Op, e.Err)
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}
