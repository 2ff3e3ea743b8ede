package gpsmux

import (
	"go.bug.st/serial"
)

// NewDeviceMux creates a Mux instance backed by a real receiver at the
// given serial device path using the provided port options.
func NewDeviceMux(path string, opts PortOptions) (*Mux[serial.Port], error) {
	mode, err := opts.SerialMode()
	if err != nil {
		return nil, err
	}

	port, err := serial.Open(path, mode)
	if err != nil {
		return nil, err
	}

	return NewMux[serial.Port](port), nil
}
