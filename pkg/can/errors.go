package can

import "errors"

var (
	// ErrFrameTooShort is returned by decodeResponse when a frame is
	// truncated before a required field.
	ErrFrameTooShort = errors.New("can: frame truncated")

	// ErrCommandIDTooLong is returned when encoding a command whose ID
	// does not fit in the wire's fixed command-ID field, including its
	// null terminator.
	ErrCommandIDTooLong = errors.New("can: command ID exceeds wire field width")

	// ErrPayloadTooLarge is returned when an encoded request would
	// exceed the CAN-FD frame's maximum data length.
	ErrPayloadTooLarge = errors.New("can: encoded payload exceeds CANFD_MAX_DLEN")

	// ErrNotInitialized is returned by the I/O loop's send when no socket
	// has been opened yet (Init has not succeeded).
	ErrNotInitialized = errors.New("can: dispatcher not initialized")
)
