package codec

import "errors"

// State-codec error taxonomy (spec §7 "State codec errors").
var (
	ErrEndOfStream     = errors.New("state codec: end of stream")
	ErrInvalidFormat   = errors.New("state codec: invalid format (ordering or framing)")
	ErrInvalidStateType = errors.New("state codec: invalid tagged-union discriminator")
	ErrInvalidValue    = errors.New("state codec: invalid value")
	ErrOutOfMemory     = errors.New("state codec: out of memory")
)
