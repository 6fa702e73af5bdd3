package protocol

import "errors"

// Size limits applied when decoding a stream.
const (
	// DefaultMaxFrameSize is the default maximum size of one frame (1MB).
	// This is sufficient for a fully rendered list container.
	DefaultMaxFrameSize = 1 << 20

	// HardMaxFrameSize is the absolute ceiling for a frame (16MB).
	// Even if configured higher, frames are capped at this limit.
	HardMaxFrameSize = 16 << 20
)

// ErrFrameTooLarge is returned when a frame exceeds the decoder's size limit.
var ErrFrameTooLarge = errors.New("protocol: frame too large")
