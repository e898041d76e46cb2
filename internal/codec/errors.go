package codec

import "errors"

// ErrEndOfStream is returned whenever a decoder runs out of input bytes
// before it has consumed a complete value.
var ErrEndOfStream = errors.New("codec: end of stream")
