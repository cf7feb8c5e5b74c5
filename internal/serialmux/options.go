package serialmux

import (
	"fmt"
	"strconv"
	"strings"

	"go.bug.st/serial"
)

// The reference radar ships configured for 19200 baud, 8N1.
const (
	DefaultBaudRate = 19200
	DefaultFrame    = "8N1"
)

var parities = map[string]serial.Parity{
	"N": serial.NoParity,
	"E": serial.EvenParity,
	"O": serial.OddParity,
}

var parityAliases = map[string]string{"NONE": "N", "EVEN": "E", "ODD": "O"}

var stopBits = map[int]serial.StopBits{
	1: serial.OneStopBit,
	2: serial.TwoStopBits,
}

// PortOptions are the line settings for the radar's serial port. Zero values
// select the radar's factory settings.
type PortOptions struct {
	BaudRate int    `json:"baud_rate"`
	DataBits int    `json:"data_bits"`
	StopBits int    `json:"stop_bits"`
	Parity   string `json:"parity"`
}

// ParseFrame reads a frame written as data bits, parity letter and stop
// bits, e.g. "8N1" or "7E2", into options with the given baud rate.
func ParseFrame(frame string, baud int) (PortOptions, error) {
	f := strings.ToUpper(strings.TrimSpace(frame))
	if len(f) != 3 {
		return PortOptions{}, fmt.Errorf("invalid frame %q: expected e.g. %s", frame, DefaultFrame)
	}
	data, err := strconv.Atoi(f[:1])
	if err != nil {
		return PortOptions{}, fmt.Errorf("invalid frame %q: data bits: %w", frame, err)
	}
	stop, err := strconv.Atoi(f[2:])
	if err != nil {
		return PortOptions{}, fmt.Errorf("invalid frame %q: stop bits: %w", frame, err)
	}
	return PortOptions{BaudRate: baud, DataBits: data, StopBits: stop, Parity: f[1:2]}.Normalize()
}

// Normalize applies the factory defaults and rejects settings the radar
// cannot use.
func (o PortOptions) Normalize() (PortOptions, error) {
	if o.BaudRate <= 0 {
		o.BaudRate = DefaultBaudRate
	}
	if o.DataBits == 0 {
		o.DataBits = 8
	}
	if o.DataBits < 5 || o.DataBits > 8 {
		return o, fmt.Errorf("invalid data bits %d: must be between 5 and 8", o.DataBits)
	}
	if o.StopBits == 0 {
		o.StopBits = 1
	}
	if _, ok := stopBits[o.StopBits]; !ok {
		return o, fmt.Errorf("invalid stop bits %d: supported values are 1 or 2", o.StopBits)
	}

	p := strings.ToUpper(strings.TrimSpace(o.Parity))
	if alias, ok := parityAliases[p]; ok {
		p = alias
	}
	if p == "" {
		p = "N"
	}
	if _, ok := parities[p]; !ok {
		return o, fmt.Errorf("unsupported parity %q: expected N, E, or O", o.Parity)
	}
	o.Parity = p
	return o, nil
}

// String formats normalized options as "19200 8N1". Invalid options are
// printed as given.
func (o PortOptions) String() string {
	n, err := o.Normalize()
	if err != nil {
		return fmt.Sprintf("%d %d%s%d (invalid)", o.BaudRate, o.DataBits, o.Parity, o.StopBits)
	}
	return fmt.Sprintf("%d %d%s%d", n.BaudRate, n.DataBits, n.Parity, n.StopBits)
}

// SerialMode converts the options into the mode go.bug.st/serial opens the
// port with.
func (o PortOptions) SerialMode() (*serial.Mode, error) {
	n, err := o.Normalize()
	if err != nil {
		return nil, err
	}
	return &serial.Mode{
		BaudRate: n.BaudRate,
		DataBits: n.DataBits,
		StopBits: stopBits[n.StopBits],
		Parity:   parities[n.Parity],
	}, nil
}
