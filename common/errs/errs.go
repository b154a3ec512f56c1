package errs

// ErrorKind identifies a kind of internal error.
// fully support for errors.Is and errors.As.
type ErrorKind string

const (
	// SomethingWentWrong is returned when an unexpected error occurs.
	SomethingWentWrong = ErrorKind("Something went wrong")

	// InternalError is returned when an internal invariant is broken.
	InternalError = ErrorKind("Internal Error")

	// NotFound is returned when a requested item is not found.
	NotFound = ErrorKind("Not Found")

	// InvalidArgument is returned when the argument or configuration is invalid.
	InvalidArgument = ErrorKind("Invalid Argument")

	// Unsupported is returned when a feature or setting is not supported.
	Unsupported = ErrorKind("Unsupported")

	// ConflictSetting is returned when the persisted state conflicts with the current settings.
	ConflictSetting = ErrorKind("Conflict Setting")

	// Duplicate is returned when a unique item already exists.
	Duplicate = ErrorKind("Duplicate")

	// Timeout is returned when an operation times out.
	Timeout = ErrorKind("Timeout")

	// Closed is returned when a resource is already closed.
	Closed = ErrorKind("Closed")
)

// Error satisfies the error interface and prints human-readable errors.
func (e ErrorKind) Error() string {
	return string(e)
}
