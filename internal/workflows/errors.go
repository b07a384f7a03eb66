package workflows

import "errors"

var (
	// ErrWorkflowNotFound is returned when a workflow is not registered
	ErrWorkflowNotFound = errors.New("workflow not found")

	// ErrInvalidRequest is returned when the request is invalid
	ErrInvalidRequest = errors.New("invalid workflow request")

	// ErrSourceNotFound is returned when the input image does not exist
	ErrSourceNotFound = errors.New("source image not found")

	// ErrSourceRead is returned when the input exists but cannot be read
	ErrSourceRead = errors.New("source read failed")

	// ErrEmptyInput is returned for zero-length inputs
	ErrEmptyInput = errors.New("source image is empty")

	// ErrDecode is returned when the input cannot be decoded as an image
	ErrDecode = errors.New("image decode failed")

	// ErrEncode is returned when the output cannot be encoded
	ErrEncode = errors.New("image encode failed")

	// ErrWrite is returned when the output cannot be stored
	ErrWrite = errors.New("output write failed")

	// ErrUnsupportedFormat is returned when the configured extension has no encoder
	ErrUnsupportedFormat = errors.New("unsupported output format")

	// ErrAsyncUnavailable is returned when durable execution is not configured
	ErrAsyncUnavailable = errors.New("DBOS runtime not initialized")
)
