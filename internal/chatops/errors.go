package chatops

// ErrorCode represents specific error conditions that can occur while
// serving a chat interaction.
type ErrorCode string

const (
	// ErrorCodeContainerNotFound indicates that the requested container
	// was not found by the container backend.
	ErrorCodeContainerNotFound ErrorCode = "CONTAINER_NOT_FOUND"

	// ErrorCodeBadCallback indicates that a callback token could not be decoded.
	ErrorCodeBadCallback ErrorCode = "BAD_CALLBACK"
)

// Error represents a domain-specific error.
type Error struct {
	// Code is the specific error type that occurred
	Code ErrorCode

	// Message provides human-readable details about the error
	Message string
}

func (e *Error) Error() string {
	return e.Message
}
