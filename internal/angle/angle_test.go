package angle

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/shuttle.report/internal/geom"
)

func p(x, y float64) geom.Point { return geom.Point{X: x, Y: y} }

func TestAngle(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name              string
		start, vertex, fr geom.Point
		want              float64
	}{
		{"right angle", p(0, 0), p(10, 0), p(10, 10), 90},
		{"right angle other side", p(0, 0), p(10, 0), p(10, -10), 90},
		{"straight continuation", p(0, 0), p(10, 0), p(20, 0), 0},
		{"fold back", p(0, 0), p(10, 0), p(0, 0.0000001), 0},
		{"45 degrees", p(0, 0), p(10, 0), p(20, 10), 45},
		{"obtuse reflected", p(0, 0), p(10, 0), p(0, 10), 45},
		{"30 degrees", p(0, 0), p(1, 0), p(1 + math.Cos(math.Pi/6), math.Sin(math.Pi/6)), 30},
		{"zero baseline", p(5, 5), p(5, 5), p(10, 10), 0},
		{"zero free arm", p(0, 0), p(10, 0), p(10, 0), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Angle(tt.start, tt.vertex, tt.fr)
			assert.False(t, math.IsNaN(got))
			assert.InDelta(t, tt.want, got, 0.1)
			assert.GreaterOrEqual(t, got, 0.0)
			assert.LessOrEqual(t, got, 90.0)
		})
	}
}

func TestReflect(t *testing.T) {
	t.Parallel()

	got := Reflect(p(3, 4), p(0, 0), p(10, 0))
	assert.InDelta(t, 3, got.X, 1e-12)
	assert.InDelta(t, -4, got.Y, 1e-12)

	// Diagonal line y = x swaps coordinates.
	got = Reflect(p(1, 0), p(0, 0), p(1, 1))
	assert.InDelta(t, 0, got.X, 1e-12)
	assert.InDelta(t, 1, got.Y, 1e-12)

	// Degenerate line leaves the point alone.
	assert.Equal(t, p(7, 8), Reflect(p(7, 8), p(1, 1), p(1, 1)))
}

func TestRigFlipRoundTrip(t *testing.T) {
	t.Parallel()

	r := NewRig(p(12, 80), p(140, 30), p(200, 90), 0)
	before := r.Degrees()
	_, _, free := r.Points()

	r.Flip()
	assert.InDelta(t, before, r.Degrees(), 1e-9, "flip preserves magnitude")
	_, _, flipped := r.Points()
	assert.NotEqual(t, free, flipped)

	r.Flip()
	assert.InDelta(t, before, r.Degrees(), 1e-9)
	_, _, back := r.Points()
	assert.InDelta(t, free.X, back.X, 1e-9)
	assert.InDelta(t, free.Y, back.Y, 1e-9)
}

func TestRigRightAngle(t *testing.T) {
	t.Parallel()

	r := NewRig(p(0, 100), p(100, 100), p(100, 0), 5)
	assert.InDelta(t, 90.0, r.Degrees(), 0.1)
	r.Flip()
	assert.InDelta(t, 90.0, r.Degrees(), 0.1)
}

func TestRigDrag(t *testing.T) {
	t.Parallel()

	r := DefaultRig(10)
	require.InDelta(t, 45, r.Degrees(), 1e-9)

	// Miss: nothing held, moves ignored.
	assert.Equal(t, NoHandle, r.PointerDown(p(0, 0)))
	assert.False(t, r.PointerMove(p(50, 50)))
	assert.InDelta(t, 45, r.Degrees(), 1e-9)

	// Grab the free end slightly off-centre and drag it straight up.
	_, vertex, free := r.Points()
	assert.Equal(t, Free, r.PointerDown(p(free.X+3, free.Y-3)))
	assert.True(t, r.PointerMove(p(vertex.X, vertex.Y-50)))
	assert.InDelta(t, 90, r.Degrees(), 1e-9)

	r.PointerUp()
	assert.Equal(t, NoHandle, r.Held())
	assert.False(t, r.PointerMove(p(0, 0)))
}

func TestRigHitTestPicksNearest(t *testing.T) {
	t.Parallel()

	r := NewRig(p(0, 0), p(8, 0), p(8, 8), 10)
	assert.Equal(t, Vertex, r.HitTest(p(7, 0)))
	assert.Equal(t, BaselineStart, r.HitTest(p(1, 0)))
	assert.Equal(t, NoHandle, r.HitTest(p(100, 100)))
}

func TestRigDegenerateDragReportsZero(t *testing.T) {
	t.Parallel()

	r := DefaultRig(0)
	start, _, _ := r.Points()
	r.Set(Vertex, start)
	assert.Equal(t, 0.0, r.Degrees())
}

func TestHandleString(t *testing.T) {
	assert.Equal(t, "free", Free.String())
	assert.Equal(t, "none", NoHandle.String())
}

func TestParseHandle(t *testing.T) {
	for _, h := range []Handle{BaselineStart, Vertex, Free} {
		got, err := ParseHandle(h.String())
		assert.NoError(t, err)
		assert.Equal(t, h, got)
	}
	_, err := ParseHandle("none")
	assert.Error(t, err)
}
