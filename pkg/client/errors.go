package client

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Error kinds. Match them with errors.Is.
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrServer       = errors.New("server error")
	ErrStatus       = errors.New("unexpected status")
	ErrTransport    = errors.New("transport error")
	ErrDecode       = errors.New("undecodable response")
)

// APIError describes a failed put.io API call.
type APIError struct {
	Kind       error  // one of the Err* kinds above
	Route      string // router endpoint name
	StatusCode int    // 0 when no response was received
	Type       string // put.io error_type, when sent
	Message    string // put.io error_message, when sent
	Err        error  // underlying cause, if any
}

func (e *APIError) Error() string {
	var b strings.Builder
	b.WriteString("putio")
	if e.Route != "" {
		b.WriteString(" " + e.Route)
	}
	b.WriteString(": " + e.Kind.Error())
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " (%d)", e.StatusCode)
	}
	if e.Type != "" {
		b.WriteString(" " + e.Type)
	}
	if e.Message != "" {
		b.WriteString(": " + e.Message)
	}
	if e.Err != nil {
		b.WriteString(": " + e.Err.Error())
	}
	return b.String()
}

func (e *APIError) Unwrap() []error {
	errs := []error{e.Kind}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// AsAPIError checks if an error is an APIError and returns it.
func AsAPIError(err error) (*APIError, bool) {
	var ae *APIError
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

// OK is the boolean projection of an operation result.
func OK(err error) bool {
	return err == nil
}

// KindForStatus classifies a non-2xx status code.
func KindForStatus(status int) error {
	switch {
	case status == http.StatusUnauthorized:
		return ErrUnauthorized
	case status == http.StatusForbidden:
		return ErrForbidden
	case status == http.StatusNotFound:
		return ErrNotFound
	case status >= 500:
		return ErrServer
	default:
		return ErrStatus
	}
}

// IsSuccess reports whether status is in [200,300).
func IsSuccess(status int) bool {
	return status >= 200 && status < 300
}
