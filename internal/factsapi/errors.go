package factsapi

import (
	"errors"
	"fmt"
)

var (
	// ErrTransport indicates the request never produced a response
	ErrTransport = errors.New("transport failure")

	// ErrHTTPStatus matches any *StatusError
	ErrHTTPStatus = errors.New("unexpected HTTP status")

	// ErrContentType indicates an OK response that is not JSON
	ErrContentType = errors.New("unexpected content type")

	// ErrMalformed indicates a body that does not parse as the expected JSON
	ErrMalformed = errors.New("malformed response")

	// ErrIncomplete indicates a fact without id, title or body
	ErrIncomplete = errors.New("incomplete fact")
)

// StatusError is returned for non-2xx responses
type StatusError struct {
	Code int
	Path string
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: HTTP %d", e.Path, e.Code)
}

// Is makes errors.Is(err, ErrHTTPStatus) true for every StatusError
func (e *StatusError) Is(target error) bool {
	return target == ErrHTTPStatus
}

// IsPayload reports whether err is about the shape of a response rather than
// getting one
func IsPayload(err error) bool {
	return errors.Is(err, ErrContentType) || errors.Is(err, ErrMalformed) || errors.Is(err, ErrIncomplete)
}
