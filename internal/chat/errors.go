package chat

import (
	"errors"
	"fmt"
)

// ErrMissingCredential means neither the request nor the server config
// carried a usable API key. Detected before any network call.
var ErrMissingCredential = errors.New("no DeepSeek API key provided and no default key configured")

// UpstreamRejectedError is a non-2xx response before any chunk was streamed.
type UpstreamRejectedError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamRejectedError) Error() string {
	return fmt.Sprintf("upstream rejected request: %d - %s", e.StatusCode, e.Body)
}

// UpstreamStreamError is a transport or protocol failure after streaming
// began. The stream is not retried.
type UpstreamStreamError struct {
	Err error
}

func (e *UpstreamStreamError) Error() string {
	return fmt.Sprintf("upstream stream failed: %v", e.Err)
}

func (e *UpstreamStreamError) Unwrap() error { return e.Err }
