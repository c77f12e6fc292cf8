// File: internal/portal/errors.go
package portal

import "fmt"

// FetchError reports a failed availability fetch: a network error, a
// non-success response, or a body whose shape did not match expectations.
type FetchError struct {
	// Endpoint is the URL the fetch was issued against, without credentials.
	Endpoint string
	// Detail describes what was expected versus what was observed.
	Detail string
	// Err is the underlying cause, if any.
	Err error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetch %s: %s: %v", e.Endpoint, e.Detail, e.Err)
	}
	return fmt.Sprintf("fetch %s: %s", e.Endpoint, e.Detail)
}

func (e *FetchError) Unwrap() error { return e.Err }

// RefreshError reports a failed credential refresh, identifying the login
// flow step that failed so the run can be diagnosed without repeating it.
type RefreshError struct {
	// Step names the UI step that failed (e.g. "login", "two-factor").
	Step string
	// Err is the underlying cause.
	Err error
}

func (e *RefreshError) Error() string {
	return fmt.Sprintf("refresh failed at step %q: %v", e.Step, e.Err)
}

func (e *RefreshError) Unwrap() error { return e.Err }
