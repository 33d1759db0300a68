package schemeclient

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrMissingSchemes is returned when a catalog response has no schemes array.
var ErrMissingSchemes = errors.New(`response has no "schemes" field`)

// CatalogLoadError reports a failure to fetch or parse the scheme catalog.
type CatalogLoadError struct {
	// StatusCode is the HTTP status, or 0 when no response was received.
	StatusCode int
	Err        error
}

func (e *CatalogLoadError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("loading schemes failed (status %d): %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("loading schemes failed: %v", e.Err)
}

func (e *CatalogLoadError) Unwrap() error {
	return e.Err
}

// ConversionError reports a conversion rejected by the scheme service or a
// conversion that never reached it.
type ConversionError struct {
	// StatusCode is the HTTP status, or 0 when the service was unreachable.
	StatusCode int
	// Detail is the service's diagnostic message, if it sent one.
	Detail string
	Err    error
}

func (e *ConversionError) Error() string {
	switch {
	case e.Detail != "":
		return fmt.Sprintf("conversion failed: %s (status %d)", e.Detail, e.StatusCode)
	case e.Rejected():
		return fmt.Sprintf("conversion failed: status %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	default:
		return fmt.Sprintf("conversion failed: %v", e.Err)
	}
}

func (e *ConversionError) Unwrap() error {
	return e.Err
}

// Rejected reports whether the service answered and refused the request.
func (e *ConversionError) Rejected() bool {
	return e.StatusCode != 0 && (e.StatusCode < 200 || e.StatusCode > 299)
}
