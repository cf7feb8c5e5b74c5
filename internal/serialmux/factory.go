package serialmux

import (
	"errors"

	"go.bug.st/serial"
)

// ErrNoPort is returned by Open when the radar is enabled without a port.
var ErrNoPort = errors.New("serial port is required unless the radar is disabled")

// NewRealSerialMux opens the serial port at path with opts.
func NewRealSerialMux(path string, opts PortOptions) (*SerialMux[serial.Port], error) {
	mode, err := opts.SerialMode()
	if err != nil {
		return nil, err
	}

	port, err := serial.Open(path, mode)
	if err != nil {
		return nil, err
	}

	return NewSerialMux[serial.Port](port), nil
}

// Open returns a DisabledSerialMux when disabled is set, so callers keep the
// same admin routes and shutdown path with or without a radar attached.
func Open(path string, opts PortOptions, disabled bool) (SerialMuxInterface, error) {
	if disabled {
		return NewDisabledSerialMux(), nil
	}
	if path == "" {
		return nil, ErrNoPort
	}
	return NewRealSerialMux(path, opts)
}

var _ SerialMuxInterface = (*SerialMux[serial.Port])(nil)
