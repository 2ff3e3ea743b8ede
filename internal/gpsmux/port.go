package gpsmux

import (
	"io"
)

// Porter defines the minimal interface needed for a GPS receiver link.
// This abstraction enables unit testing without real hardware.
type Porter interface {
	io.ReadWriter
	io.Closer
}
