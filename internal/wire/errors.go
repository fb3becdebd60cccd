package wire

import "errors"

// DecodeError wraps a failure to decode a header or body buffer. It is
// distinguished from a transport error: it always describes a shape
// problem with bytes already read off the wire.
type DecodeError struct {
	Stage string // "header", "body", "watch-event"
	Err   error
}

func (e *DecodeError) Error() string {
	return "decode " + e.Stage + ": " + e.Err.Error()
}

func (e *DecodeError) Unwrap() error { return e.Err }

var (
	// ErrShortBuffer is returned when a buffer ends before a fixed-shape
	// field has been fully consumed.
	ErrShortBuffer = errors.New("wire: short buffer")
	// ErrUnknownOpcode is returned by the body decoder table when no
	// decoder is registered for an opcode.
	ErrUnknownOpcode = errors.New("wire: unknown opcode")
)
