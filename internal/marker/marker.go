// Package marker records the two timed marks (A and B) that bracket the
// interval over which the shuttle's speed is measured.
package marker

import (
	"errors"
	"math"

	"github.com/banshee-data/shuttle.report/internal/geom"
)

// Mode is the marking state machine's state.
type Mode string

const (
	Idle     Mode = "idle"
	MarkingA Mode = "marking_a"
	MarkingB Mode = "marking_b"
)

var (
	ErrIncomplete   = errors.New("mark both A and B first")
	ErrUncalibrated = errors.New("calibrate before measuring distance")
)

// Pair is the measurement pair. It is only usable for computation when both
// marks are set.
type Pair struct {
	A *geom.TimedPoint `json:"a"`
	B *geom.TimedPoint `json:"b"`
}

// Complete reports whether both marks are recorded.
func (p Pair) Complete() bool {
	return p.A != nil && p.B != nil
}

// ElapsedSeconds returns |A.t - B.t|. Zero is a valid return value here and
// is rejected by the speed formula.
func (p Pair) ElapsedSeconds() (float64, error) {
	if !p.Complete() {
		return 0, ErrIncomplete
	}
	return math.Abs(p.A.T - p.B.T), nil
}

// PixelDistance returns the distance between A and B in source pixels.
func (p Pair) PixelDistance(size geom.MediaSize) (float64, error) {
	if !p.Complete() {
		return 0, ErrIncomplete
	}
	return geom.PixelDistance(p.A.Point, p.B.Point, size), nil
}

// DistanceMeters converts the pixel distance with a calibration factor.
// calibrated must be false when no factor is available.
func (p Pair) DistanceMeters(size geom.MediaSize, metersPerPixel float64, calibrated bool) (float64, error) {
	px, err := p.PixelDistance(size)
	if err != nil {
		return 0, err
	}
	if !calibrated {
		return 0, ErrUncalibrated
	}
	return px * metersPerPixel, nil
}

// Marker is the idle/markingA/markingB state machine.
type Marker struct {
	mode Mode
	pair Pair
}

func New() *Marker {
	return &Marker{mode: Idle}
}

func (m *Marker) Mode() Mode { return m.mode }

// BeginA arms the next surface click to record mark A.
func (m *Marker) BeginA() { m.mode = MarkingA }

// BeginB arms the next surface click to record mark B.
func (m *Marker) BeginB() { m.mode = MarkingB }

// Cancel returns to Idle without recording anything.
func (m *Marker) Cancel() { m.mode = Idle }

// Click records p into the armed slot and returns to Idle. It reports false
// when no mark was armed.
func (m *Marker) Click(p geom.TimedPoint) bool {
	switch m.mode {
	case MarkingA:
		m.pair.A = &p
	case MarkingB:
		m.pair.B = &p
	default:
		return false
	}
	m.mode = Idle
	return true
}

// Pair returns a copy of the recorded marks.
func (m *Marker) Pair() Pair {
	var out Pair
	if m.pair.A != nil {
		a := *m.pair.A
		out.A = &a
	}
	if m.pair.B != nil {
		b := *m.pair.B
		out.B = &b
	}
	return out
}

// Clear drops both marks together and returns to Idle.
func (m *Marker) Clear() {
	m.pair = Pair{}
	m.mode = Idle
}
