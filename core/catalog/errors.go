package catalog

import "fmt"

// APIError is a non-2xx response from the platform.
type APIError struct {
	// Status is the HTTP status code.
	Status int
	// Path is the request path that failed.
	Path string
	// Detail is the server-reported error body, truncated.
	Detail string
}

func (e *APIError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("catalog API %s: status %d", e.Path, e.Status)
	}
	return fmt.Sprintf("catalog API %s: status %d: %s", e.Path, e.Status, e.Detail)
}

// Transient reports whether the request may succeed on retry. Rate limits
// and server errors are retryable; other client errors are validation
// rejections and are not.
func (e *APIError) Transient() bool {
	return e.Status == 429 || e.Status >= 500
}

// TransportError is a network-level failure: the request never produced an
// HTTP response. Always retryable.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string   { return fmt.Sprintf("catalog API request: %v", e.Err) }
func (e *TransportError) Unwrap() error   { return e.Err }
func (e *TransportError) Transient() bool { return true }
