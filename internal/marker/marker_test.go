package marker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/shuttle.report/internal/geom"
)

func tp(x, y, t float64) geom.TimedPoint {
	return geom.TimedPoint{Point: geom.Point{X: x, Y: y}, T: t}
}

func TestStateMachine(t *testing.T) {
	t.Parallel()

	m := New()
	assert.Equal(t, Idle, m.Mode())

	// Clicks while idle are not consumed.
	assert.False(t, m.Click(tp(0.1, 0.1, 1)))
	assert.False(t, m.Pair().Complete())

	m.BeginA()
	assert.Equal(t, MarkingA, m.Mode())
	assert.True(t, m.Click(tp(0.1, 0.5, 1.00)))
	assert.Equal(t, Idle, m.Mode())

	m.BeginB()
	assert.Equal(t, MarkingB, m.Mode())
	assert.True(t, m.Click(tp(0.6, 0.5, 1.25)))
	assert.Equal(t, Idle, m.Mode())

	p := m.Pair()
	require.True(t, p.Complete())
	dt, err := p.ElapsedSeconds()
	require.NoError(t, err)
	assert.InDelta(t, 0.25, dt, 1e-12)
}

func TestCancel(t *testing.T) {
	t.Parallel()

	m := New()
	m.BeginB()
	m.Cancel()
	assert.Equal(t, Idle, m.Mode())
	assert.False(t, m.Click(tp(0, 0, 0)))
	assert.Nil(t, m.Pair().B)
}

func TestElapsedIsAbsolute(t *testing.T) {
	t.Parallel()

	p := Pair{A: ptr(tp(0, 0, 3.5)), B: ptr(tp(0, 0, 3.0))}
	dt, err := p.ElapsedSeconds()
	require.NoError(t, err)
	assert.InDelta(t, 0.5, dt, 1e-12)
}

func TestSameTimestampYieldsZeroElapsed(t *testing.T) {
	t.Parallel()

	m := New()
	m.BeginA()
	m.Click(tp(0.1, 0.1, 2.0))
	m.BeginB()
	m.Click(tp(0.9, 0.9, 2.0))

	dt, err := m.Pair().ElapsedSeconds()
	require.NoError(t, err)
	assert.Zero(t, dt)
}

func TestIncompletePair(t *testing.T) {
	t.Parallel()

	p := Pair{A: ptr(tp(0, 0, 0))}
	_, err := p.ElapsedSeconds()
	assert.ErrorIs(t, err, ErrIncomplete)
	_, err = p.PixelDistance(geom.MediaSize{Width: 10, Height: 10})
	assert.ErrorIs(t, err, ErrIncomplete)
}

func TestDistanceMeters(t *testing.T) {
	t.Parallel()

	size := geom.MediaSize{Width: 1000, Height: 500}
	p := Pair{A: ptr(tp(0.1, 0.5, 0)), B: ptr(tp(0.6, 0.5, 0.1))}

	_, err := p.DistanceMeters(size, 0, false)
	assert.ErrorIs(t, err, ErrUncalibrated)

	d, err := p.DistanceMeters(size, 0.01036, true)
	require.NoError(t, err)
	assert.InDelta(t, 5.18, d, 1e-9)
}

func TestClearResetsBothMarks(t *testing.T) {
	t.Parallel()

	m := New()
	m.BeginA()
	m.Click(tp(0.1, 0.1, 1))
	m.BeginB()
	m.Clear()

	p := m.Pair()
	assert.Nil(t, p.A)
	assert.Nil(t, p.B)
	assert.Equal(t, Idle, m.Mode())
}

func ptr(p geom.TimedPoint) *geom.TimedPoint { return &p }
