package api

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

var (
	// ErrAuthBootstrap marks a failure on a login or registration call.
	ErrAuthBootstrap = errors.New("authentication failed")
	// ErrSessionInvalidated marks a failure that cleared the session.
	ErrSessionInvalidated = errors.New("session invalidated")
	// ErrMalformedBody marks a 2xx response whose body could not be decoded.
	ErrMalformedBody = errors.New("malformed response body")
)

// TransportError reports a request that never produced an HTTP response.
type TransportError struct {
	Method string
	Path   string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("api: %s %s: %s", e.Method, e.Path, e.Text())
}

func (e *TransportError) Unwrap() error { return e.Err }

// Text returns the network cause without the request URL, which may carry a
// credential path segment.
func (e *TransportError) Text() string {
	if e == nil || e.Err == nil {
		return ""
	}
	var urlErr *url.Error
	if errors.As(e.Err, &urlErr) && urlErr.Err != nil {
		return urlErr.Err.Error()
	}
	return e.Err.Error()
}

// StatusError reports a response that arrived but could not be used: a non-2xx
// status, or a 2xx status whose body failed to decode (Err is then
// ErrMalformedBody).
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Status     string
	Body       []byte
	Err        error
}

func (e *StatusError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("api: %s %s returned %s: %v", e.Method, e.Path, e.Text(), e.Err)
	}
	return fmt.Sprintf("api: %s %s returned %s", e.Method, e.Path, e.Text())
}

func (e *StatusError) Unwrap() error { return e.Err }

// Text returns the HTTP status line, e.g. "403 Forbidden".
func (e *StatusError) Text() string {
	if e == nil {
		return ""
	}
	if status := strings.TrimSpace(e.Status); status != "" {
		return status
	}
	return fmt.Sprintf("%d", e.StatusCode)
}

// AuthError is returned by Pipeline for bootstrap failures and for failures
// that invalidated the session. Kind is ErrAuthBootstrap or
// ErrSessionInvalidated; Err is the underlying gateway error, so errors.As
// still reaches *StatusError and *TransportError.
type AuthError struct {
	Kind    error
	Message string
	Err     error
}

func (e *AuthError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%v: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("%v: %v", e.Kind, e.Err)
}

func (e *AuthError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

// StatusCode returns the HTTP status carried by err, or 0 when the failure
// never reached the server.
func StatusCode(err error) int {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode
	}
	return 0
}

// TransportText returns the transport-level description of err: the status
// line for HTTP failures, the network cause for transport failures, and the
// error text otherwise.
func TransportText(err error) string {
	if err == nil {
		return ""
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Text()
	}
	var transportErr *TransportError
	if errors.As(err, &transportErr) {
		return transportErr.Text()
	}
	return err.Error()
}

func responseBody(err error) []byte {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Body
	}
	return nil
}
