// Package calibration converts a known real-world length, marked by two
// points on a video frame, into a metres-per-pixel scale factor.
package calibration

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/banshee-data/shuttle.report/internal/geom"
)

// Status strings reported while the model is uncalibrated.
const (
	StatusNeedPoints     = "Mark both calibration points"
	StatusNeedLength     = "Known length must be a positive number"
	StatusNeedMedia      = "Load a video before calibrating"
	StatusPointsCoincide = "Calibration points must not coincide"
)

// Compute returns metres per source pixel for a known length spanning p1–p2.
// When any precondition fails ok is false and status explains which one;
// this is not an error, the calculation is simply withheld.
func Compute(p1, p2 *geom.Point, knownLengthMeters float64, size geom.MediaSize) (mpp float64, status string, ok bool) {
	if p1 == nil || p2 == nil {
		return 0, StatusNeedPoints, false
	}
	if math.IsNaN(knownLengthMeters) || math.IsInf(knownLengthMeters, 0) || knownLengthMeters <= 0 {
		return 0, StatusNeedLength, false
	}
	if !size.Valid() {
		return 0, StatusNeedMedia, false
	}
	px := geom.PixelDistance(*p1, *p2, size)
	if !(px > 0) {
		return 0, StatusPointsCoincide, false
	}
	mpp = knownLengthMeters / px
	return mpp, fmt.Sprintf("Calibrated: %.6f m/px (%.1f px = %.3f m)", mpp, px, knownLengthMeters), true
}

// State is the calibration state of one session. MetersPerPixel is non-nil
// only while every precondition of Compute holds.
type State struct {
	P1                *geom.Point `json:"p1"`
	P2                *geom.Point `json:"p2"`
	KnownLengthMeters float64     `json:"known_length_m"`
	MetersPerPixel    *float64    `json:"meters_per_pixel"`
	Status            string      `json:"status"`
}

// MarshalJSON encodes a non-finite known length as null.
func (s State) MarshalJSON() ([]byte, error) {
	type plain State
	out := struct {
		plain
		KnownLengthMeters *float64 `json:"known_length_m"`
	}{plain: plain(s)}
	if !math.IsNaN(s.KnownLengthMeters) && !math.IsInf(s.KnownLengthMeters, 0) {
		out.KnownLengthMeters = &s.KnownLengthMeters
	}
	return json.Marshal(out)
}

// Model owns a State and recomputes the scale factor from scratch after
// every mutation.
type Model struct {
	state State
	size  geom.MediaSize
}

// NewModel returns an uncalibrated model.
func NewModel() *Model {
	m := &Model{}
	m.recompute()
	return m
}

// State returns a copy of the current state.
func (m *Model) State() State {
	s := m.state
	if s.P1 != nil {
		p := *s.P1
		s.P1 = &p
	}
	if s.P2 != nil {
		p := *s.P2
		s.P2 = &p
	}
	if s.MetersPerPixel != nil {
		v := *s.MetersPerPixel
		s.MetersPerPixel = &v
	}
	return s
}

// MetersPerPixel returns the scale factor, if calibrated.
func (m *Model) MetersPerPixel() (float64, bool) {
	if m.state.MetersPerPixel == nil {
		return 0, false
	}
	return *m.state.MetersPerPixel, true
}

func (m *Model) SetPoint1(p geom.Point) {
	m.state.P1 = &p
	m.recompute()
}

func (m *Model) SetPoint2(p geom.Point) {
	m.state.P2 = &p
	m.recompute()
}

func (m *Model) SetKnownLength(meters float64) {
	m.state.KnownLengthMeters = meters
	m.recompute()
}

// SetMediaSize updates the intrinsic dimensions the points are scaled by.
func (m *Model) SetMediaSize(size geom.MediaSize) {
	m.size = size
	m.recompute()
}

// Reset clears both points and the known length. The media size is kept.
func (m *Model) Reset() {
	m.state = State{}
	m.recompute()
}

func (m *Model) recompute() {
	mpp, status, ok := Compute(m.state.P1, m.state.P2, m.state.KnownLengthMeters, m.size)
	m.state.Status = status
	if !ok {
		m.state.MetersPerPixel = nil
		return
	}
	m.state.MetersPerPixel = &mpp
}
