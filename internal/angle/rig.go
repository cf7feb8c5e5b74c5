package angle

import (
	"fmt"
	"math"

	"github.com/banshee-data/shuttle.report/internal/geom"
)

// Handle identifies one of the rig's draggable points.
type Handle int

const (
	NoHandle Handle = iota - 1
	BaselineStart
	Vertex
	Free
)

func (h Handle) String() string {
	switch h {
	case BaselineStart:
		return "baseline_start"
	case Vertex:
		return "vertex"
	case Free:
		return "free"
	default:
		return "none"
	}
}

// ParseHandle is the inverse of Handle.String for the three real handles.
func ParseHandle(s string) (Handle, error) {
	for _, h := range []Handle{BaselineStart, Vertex, Free} {
		if h.String() == s {
			return h, nil
		}
	}
	return NoHandle, fmt.Errorf("unknown angle handle %q", s)
}

// DefaultHitRadius is the pick distance, in surface units, used when a rig
// is created with a non-positive radius.
const DefaultHitRadius = 12.0

// Rig is the three-point angle widget. Its angle is recomputed after every
// mutation so it is never stale.
type Rig struct {
	points    [3]geom.Point
	hitRadius float64
	held      Handle
	degrees   float64
}

// NewRig places the three handles. hitRadius <= 0 selects DefaultHitRadius.
func NewRig(start, vertex, free geom.Point, hitRadius float64) *Rig {
	if !(hitRadius > 0) {
		hitRadius = DefaultHitRadius
	}
	r := &Rig{
		points:    [3]geom.Point{start, vertex, free},
		hitRadius: hitRadius,
		held:      NoHandle,
	}
	r.update()
	return r
}

// DefaultRig returns a rig with a 200-unit horizontal baseline and the free
// arm raised 45 degrees.
func DefaultRig(hitRadius float64) *Rig {
	return NewRig(
		geom.Point{X: 40, Y: 240},
		geom.Point{X: 240, Y: 240},
		geom.Point{X: 240 + 100, Y: 240 - 100},
		hitRadius,
	)
}

// Degrees returns the current angle.
func (r *Rig) Degrees() float64 { return r.degrees }

// Point returns the position of h.
func (r *Rig) Point(h Handle) geom.Point {
	if h < BaselineStart || h > Free {
		return geom.Point{}
	}
	return r.points[h]
}

// Points returns start, vertex and free.
func (r *Rig) Points() (start, vertex, free geom.Point) {
	return r.points[BaselineStart], r.points[Vertex], r.points[Free]
}

// Held returns the handle being dragged, or NoHandle.
func (r *Rig) Held() Handle { return r.held }

// HitTest returns the handle closest to p within the hit radius.
func (r *Rig) HitTest(p geom.Point) Handle {
	best, bestDist := NoHandle, math.Inf(1)
	for i, q := range r.points {
		d := geom.Distance(p, q)
		if d <= r.hitRadius && d < bestDist {
			best, bestDist = Handle(i), d
		}
	}
	return best
}

// PointerDown starts dragging the handle under p, if any.
func (r *Rig) PointerDown(p geom.Point) Handle {
	r.held = r.HitTest(p)
	return r.held
}

// PointerMove moves the held handle to p. It reports whether anything moved.
func (r *Rig) PointerMove(p geom.Point) bool {
	if r.held == NoHandle {
		return false
	}
	r.points[r.held] = p
	r.update()
	return true
}

// PointerUp releases the held handle.
func (r *Rig) PointerUp() {
	r.held = NoHandle
}

// Set places h directly.
func (r *Rig) Set(h Handle, p geom.Point) {
	if h < BaselineStart || h > Free {
		return
	}
	r.points[h] = p
	r.update()
}

// Flip mirrors the free end across the baseline, keeping the magnitude of
// the angle and moving it to the other side.
func (r *Rig) Flip() {
	r.points[Free] = Reflect(r.points[Free], r.points[BaselineStart], r.points[Vertex])
	r.update()
}

func (r *Rig) update() {
	r.degrees = Angle(r.points[BaselineStart], r.points[Vertex], r.points[Free])
}
