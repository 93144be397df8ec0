package api

import (
	"errors"
	"fmt"
)

// Failure kinds. Every error returned by the client wraps exactly one of
// these or is an *HTTPError.
var (
	ErrInvalidRequest = errors.New("invalid request")
	ErrEncoding       = errors.New("encoding error")
	ErrTransport      = errors.New("transport error")
	ErrDecoding       = errors.New("decoding error")
)

// HTTPError reports a response status outside 200-299. The body is not inspected.
type HTTPError struct {
	StatusCode int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("http error: status %d", e.StatusCode)
}

// ApplicationError is a 2xx response whose envelope status is not "success".
type ApplicationError struct {
	Message string
}

func (e *ApplicationError) Error() string {
	return e.Message
}

// StatusCode extracts the HTTP status from err, or 0 if err is not an *HTTPError.
func StatusCode(err error) int {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode
	}
	return 0
}
