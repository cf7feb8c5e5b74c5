package session

import "github.com/banshee-data/shuttle.report/internal/geom"

// Surface names the measurement surface an event was raised on.
type Surface string

const (
	// VideoSurface is the paused video frame. Positions are normalized.
	VideoSurface Surface = "video"
	// AngleSurface is the angle rig canvas. Positions are in surface units.
	AngleSurface Surface = "angle"
)

// EventKind is the kind of pointer event.
type EventKind string

const (
	Click       EventKind = "click"
	PointerDown EventKind = "pointer_down"
	PointerMove EventKind = "pointer_move"
	PointerUp   EventKind = "pointer_up"
)

// Modifiers are the keyboard modifiers held while the event fired.
type Modifiers struct {
	Shift bool `json:"shift,omitempty"`
	Alt   bool `json:"alt,omitempty"`
	Ctrl  bool `json:"ctrl,omitempty"`
	Meta  bool `json:"meta,omitempty"`
}

// InputEvent is a pointer event decoupled from any rendering surface.
// MediaTime is the video's current time in seconds when the event fired.
type InputEvent struct {
	Kind      EventKind  `json:"kind"`
	Surface   Surface    `json:"surface"`
	Pos       geom.Point `json:"pos"`
	MediaTime float64    `json:"media_time"`
	Modifiers Modifiers  `json:"modifiers"`
}
