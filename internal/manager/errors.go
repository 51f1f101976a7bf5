package manager

// tooBusyError signals queue timeout/overflow for 429 mapping.
type tooBusyError struct{ modelID string }

func (e tooBusyError) Error() string { return "too busy: " + e.modelID }

// IsTooBusy reports whether err indicates backpressure (return 429).
func IsTooBusy(err error) bool {
	_, ok := err.(tooBusyError)
	return ok
}

// modelNotFoundError indicates a requested model id is not in the registry.
type modelNotFoundError struct{ id string }

func (e modelNotFoundError) Error() string { return "model not found: " + e.id }

// ErrModelNotFound constructs a modelNotFoundError.
func ErrModelNotFound(id string) error { return modelNotFoundError{id: id} }

// IsModelNotFound reports whether the error indicates a missing model id.
func IsModelNotFound(err error) bool {
	_, ok := err.(modelNotFoundError)
	return ok
}

// capabilityMismatchError indicates the request's input shape does not match
// the target model's capability (e.g. a prompt sent to a classifier).
type capabilityMismatchError struct{ msg string }

func (e capabilityMismatchError) Error() string { return e.msg }

// ErrCapabilityMismatch constructs a capabilityMismatchError.
func ErrCapabilityMismatch(msg string) error { return capabilityMismatchError{msg: msg} }

// IsCapabilityMismatch reports whether err indicates a request/model shape
// conflict (return 409).
func IsCapabilityMismatch(err error) bool {
	_, ok := err.(capabilityMismatchError)
	return ok
}

// invalidInputError indicates a malformed prompt or unreadable image (return 400).
type invalidInputError struct{ msg string }

func (e invalidInputError) Error() string { return e.msg }

// ErrInvalidInput constructs an invalidInputError.
func ErrInvalidInput(msg string) error { return invalidInputError{msg: msg} }

// IsInvalidInput reports whether err indicates a bad request payload.
func IsInvalidInput(err error) bool {
	_, ok := err.(invalidInputError)
	return ok
}

// backendUnavailableError signals a runtime backend that cannot serve (missing
// shared library, unset API key, unreachable endpoint) so the HTTP layer can
// return 503 Service Unavailable instead of 500.
type backendUnavailableError struct{ msg string }

func (e backendUnavailableError) Error() string { return e.msg }

// ErrBackendUnavailable constructs a backendUnavailableError.
func ErrBackendUnavailable(msg string) error { return backendUnavailableError{msg: msg} }

// IsBackendUnavailable reports whether err indicates a missing/failed runtime backend.
func IsBackendUnavailable(err error) bool {
	_, ok := err.(backendUnavailableError)
	return ok
}
