package serialmux

import "io"

// SerialPorter is the subset of a serial port SerialMux needs. go.bug.st's
// serial.Port satisfies it, as does TestableSerialPort.
type SerialPorter interface {
	io.ReadWriter
	io.Closer
}
