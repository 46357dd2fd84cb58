package protocol

import (
	"errors"
	"fmt"
)

var (
	// ErrTruncated is returned when a header line is too short to hold a
	// token. Framing is lost, the connection should be discarded.
	ErrTruncated = errors.New("Reply is malformed, it appears to be truncated")

	// ErrInvalidMarker is returned when the first byte of a header line is
	// not a known token kind.
	ErrInvalidMarker = errors.New("Reply is malformed, unknown type marker")

	// ErrLengthMismatch is returned when a blob body does not end where its
	// declared length says it should.
	ErrLengthMismatch = errors.New("Blob length does not match its declared size")

	// ErrDepthExceeded is returned when a reply nests aggregates deeper than
	// MaxDepth levels.
	ErrDepthExceeded = errors.New("Reply nests deeper than the supported depth")

	// ErrSinkMismatch is returned when the supplied sink cannot absorb a
	// token kind the reply contains.
	ErrSinkMismatch = errors.New("Sink does not support the received reply shape")
)

// ErrorKind says which wire form carried a server error reply.
type ErrorKind int

const (
	ErrorNone ErrorKind = iota
	ErrorSimple
	ErrorBlob
)

// ServerError is a well formed error reply from the server. It is not fatal
// to the connection; the parse that received it completes successfully and
// the error is surfaced through the sink's status.
type ServerError struct {
	Kind    ErrorKind
	Message string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server replied with an error: %s", e.Message)
}
