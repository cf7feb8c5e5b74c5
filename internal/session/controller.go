// Package session owns everything one user's measurement session knows:
// the loaded media, calibration, A/B marks, the angle rig, the numeric input
// fields and the most recent calculation. All derived values are computed by
// the pure functions in the calibration, marker, angle and speed packages.
//
// A Controller is not safe for concurrent use. Callers feed it one event at a
// time and each call runs to completion before the next.
package session

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/shuttle.report/internal/angle"
	"github.com/banshee-data/shuttle.report/internal/calibration"
	"github.com/banshee-data/shuttle.report/internal/config"
	"github.com/banshee-data/shuttle.report/internal/geom"
	"github.com/banshee-data/shuttle.report/internal/marker"
	"github.com/banshee-data/shuttle.report/internal/monitoring"
	"github.com/banshee-data/shuttle.report/internal/speed"
	"github.com/banshee-data/shuttle.report/internal/timeutil"
)

var logf = monitoring.Prefixed("session")

var (
	ErrMissingComponent = errors.New("missing required component")
	ErrNoMedia          = errors.New("load a video first")
	ErrMediaNotReady    = errors.New("video metadata not loaded yet")
	ErrInvalidMediaSize = errors.New("video size must be positive")
	ErrUnknownSurface   = errors.New("unknown surface")
)

// Mode is what the next click on the video surface will do.
type Mode string

const (
	Idle          Mode = "idle"
	MarkingA      Mode = "marking_a"
	MarkingB      Mode = "marking_b"
	CalibratingP1 Mode = "calibrating_p1"
	CalibratingP2 Mode = "calibrating_p2"
)

// MediaHandle is the temporary blob behind the loaded video.
type MediaHandle interface {
	Release() error
}

// ReferenceSource supplies an independent speed reading, such as a radar
// gun, observed within window of now.
type ReferenceSource interface {
	Peak(now time.Time, window time.Duration) (mps float64, ok bool)
}

// Record is a completed calculation handed to a ResultSink.
type Record struct {
	ID           string
	SessionID    string
	Result       speed.Result
	ReferenceMPS *float64
	CreatedAt    time.Time
}

// ResultSink receives every successful calculation.
type ResultSink interface {
	RecordResult(Record) error
}

// Options configures a Controller. Config is required.
type Options struct {
	ID        string
	Config    *config.Config
	Clock     timeutil.Clock
	Sink      ResultSink
	Reference ReferenceSource
}

// Outcome is a successful calculation as shown to the user.
type Outcome struct {
	ID           string       `json:"id"`
	Result       speed.Result `json:"result"`
	MPSText      string       `json:"mps_text"`
	KMHText      string       `json:"kmh_text"`
	MPHText      string       `json:"mph_text"`
	Notes        []string     `json:"notes"`
	ReferenceMPS *float64     `json:"reference_mps,omitempty"`
}

// Controller is a single session.
type Controller struct {
	id  string
	cfg *config.Config
	clk timeutil.Clock

	sink      ResultSink
	reference ReferenceSource

	media MediaHandle
	size  geom.MediaSize
	ready bool

	mode   Mode
	chain  bool
	calib  *calibration.Model
	marks  *marker.Marker
	rig    *angle.Rig
	fields map[Field]string
	model  speed.Model

	status  string
	outcome *Outcome
}

// New creates a session seeded from the configured defaults.
func New(opts Options) (*Controller, error) {
	if opts.Config == nil {
		return nil, fmt.Errorf("%w: config", ErrMissingComponent)
	}
	if opts.Clock == nil {
		opts.Clock = timeutil.RealClock{}
	}
	if opts.ID == "" {
		opts.ID = uuid.NewString()
	}

	c := &Controller{
		id:        opts.ID,
		cfg:       opts.Config,
		clk:       opts.Clock,
		sink:      opts.Sink,
		reference: opts.Reference,
		model:     opts.Config.GetDefaultModel(),
	}
	c.fields = map[Field]string{
		DistanceField: formatNumber(c.cfg.GetDefaultDistanceM()),
		TimeField:     formatNumber(c.cfg.GetDefaultTimeS()),
		AngleField:    formatNumber(c.cfg.GetDefaultAngleDeg()),
		DragField:     formatNumber(c.cfg.GetDefaultDragConstant()),
	}
	c.resetDerived()
	return c, nil
}

// ID returns the session identifier.
func (c *Controller) ID() string { return c.id }

// resetDerived drops everything tied to the current media dimensions.
func (c *Controller) resetDerived() {
	c.mode = Idle
	c.calib = calibration.NewModel()
	c.calib.SetKnownLength(c.cfg.GetDefaultKnownLengthM())
	c.marks = marker.New()
	c.rig = angle.DefaultRig(c.cfg.GetHitRadius())
	c.outcome = nil
}

// SelectMedia swaps in a new video. The previous blob is released and
// calibration, marks and the angle rig are reset so nothing measured on the
// old video is mixed with the new one's dimensions.
func (c *Controller) SelectMedia(h MediaHandle) {
	c.releaseMedia()
	c.media = h
	c.size = geom.MediaSize{}
	c.ready = false
	c.resetDerived()
	c.status = "Loading video…"
}

// MediaReady records the intrinsic size once the client has the metadata.
func (c *Controller) MediaReady(size geom.MediaSize) error {
	if c.media == nil {
		return ErrNoMedia
	}
	if !size.Valid() {
		return fmt.Errorf("%w: %vx%v", ErrInvalidMediaSize, size.Width, size.Height)
	}
	c.size = size
	c.ready = true
	c.calib.SetMediaSize(size)
	c.status = fmt.Sprintf("Video ready (%.0fx%.0f)", size.Width, size.Height)
	return nil
}

// Close releases the media blob.
func (c *Controller) Close() {
	c.releaseMedia()
}

func (c *Controller) releaseMedia() {
	if c.media == nil {
		return
	}
	if err := c.media.Release(); err != nil {
		logf("%s: failed to release media: %v", c.id, err)
	}
	c.media = nil
}

// Mode returns the current video-surface mode.
func (c *Controller) Mode() Mode { return c.mode }

// BeginMarkA arms the next video click to record mark A.
func (c *Controller) BeginMarkA() {
	c.marks.BeginA()
	c.mode = MarkingA
}

// BeginMarkB arms the next video click to record mark B.
func (c *Controller) BeginMarkB() {
	c.marks.BeginB()
	c.mode = MarkingB
}

// BeginCalibration arms the next two video clicks to record the calibration
// endpoints.
func (c *Controller) BeginCalibration() {
	c.marks.Cancel()
	c.mode = CalibratingP1
	c.chain = true
}

// BeginCalibrationPoint arms a single calibration endpoint (1 or 2).
func (c *Controller) BeginCalibrationPoint(n int) error {
	c.marks.Cancel()
	c.chain = false
	switch n {
	case 1:
		c.mode = CalibratingP1
	case 2:
		c.mode = CalibratingP2
	default:
		return fmt.Errorf("calibration point must be 1 or 2, got %d", n)
	}
	return nil
}

// CancelMode disarms any pending click.
func (c *Controller) CancelMode() {
	c.marks.Cancel()
	c.mode = Idle
}

// HandleEvent routes a pointer event to the model it belongs to. It reports
// whether the event changed any state.
func (c *Controller) HandleEvent(ev InputEvent) (bool, error) {
	switch ev.Surface {
	case VideoSurface:
		return c.handleVideo(ev)
	case AngleSurface:
		return c.handleAngle(ev), nil
	default:
		return false, fmt.Errorf("%w: %q", ErrUnknownSurface, ev.Surface)
	}
}

func (c *Controller) handleVideo(ev InputEvent) (bool, error) {
	if ev.Kind != Click {
		return false, nil
	}
	if c.media == nil {
		return false, ErrNoMedia
	}
	if !c.ready {
		return false, ErrMediaNotReady
	}

	switch c.mode {
	case CalibratingP1:
		c.calib.SetPoint1(ev.Pos)
		c.mode = Idle
		if c.chain {
			c.mode = CalibratingP2
		}
	case CalibratingP2:
		c.calib.SetPoint2(ev.Pos)
		c.mode = Idle
	case MarkingA, MarkingB:
		c.marks.Click(geom.TimedPoint{Point: ev.Pos, T: ev.MediaTime})
		c.mode = Idle
	default:
		return false, nil
	}
	c.status = c.describeVideoState()
	return true, nil
}

func (c *Controller) handleAngle(ev InputEvent) bool {
	switch ev.Kind {
	case PointerDown:
		return c.rig.PointerDown(ev.Pos) != angle.NoHandle
	case PointerMove:
		return c.rig.PointerMove(ev.Pos)
	case PointerUp:
		held := c.rig.Held() != angle.NoHandle
		c.rig.PointerUp()
		return held
	default:
		return false
	}
}

func (c *Controller) describeVideoState() string {
	pair := c.marks.Pair()
	if !pair.Complete() {
		return c.calib.State().Status
	}
	dt, _ := pair.ElapsedSeconds()
	return fmt.Sprintf("%s; Δt = %.3f s", c.calib.State().Status, dt)
}

// SetKnownLength parses the calibration length field. Invalid text leaves
// the session uncalibrated; the status says why.
func (c *Controller) SetKnownLength(text string) calibration.State {
	v, err := parseNumber("known_length", text)
	if err != nil {
		v = math.NaN()
	}
	c.calib.SetKnownLength(v)
	c.status = c.calib.State().Status
	return c.calib.State()
}

// ResetCalibration clears both calibration points and the known length.
func (c *Controller) ResetCalibration() {
	c.calib.Reset()
	c.calib.SetMediaSize(c.size)
	if c.mode == CalibratingP1 || c.mode == CalibratingP2 {
		c.mode = Idle
	}
	c.status = c.calib.State().Status
}

// ClearMarks drops marks A and B together.
func (c *Controller) ClearMarks() {
	c.marks.Clear()
	if c.mode == MarkingA || c.mode == MarkingB {
		c.mode = Idle
	}
}

// FlipAngle mirrors the rig's free end across its baseline.
func (c *Controller) FlipAngle() float64 {
	c.rig.Flip()
	return c.rig.Degrees()
}

// SetAnglePoint places one rig handle directly.
func (c *Controller) SetAnglePoint(h angle.Handle, p geom.Point) float64 {
	c.rig.Set(h, p)
	return c.rig.Degrees()
}

// SetField stores the raw text of an input field. Parsing is deferred to
// Calculate.
func (c *Controller) SetField(f Field, text string) {
	c.fields[f] = text
}

// Field returns the raw text of an input field.
func (c *Controller) Field(f Field) string { return c.fields[f] }

// SetModel selects the speed model.
func (c *Controller) SetModel(m speed.Model) { c.model = m }

// Model returns the selected speed model.
func (c *Controller) Model() speed.Model { return c.model }

// ApplyMeasurement copies the distance and elapsed time derived from the A/B
// marks into the distance and time fields.
func (c *Controller) ApplyMeasurement() error {
	pair := c.marks.Pair()
	mpp, calibrated := c.calib.MetersPerPixel()
	dist, err := pair.DistanceMeters(c.size, mpp, calibrated)
	if err != nil {
		c.status = err.Error()
		return err
	}
	dt, err := pair.ElapsedSeconds()
	if err != nil {
		c.status = err.Error()
		return err
	}
	c.fields[DistanceField] = formatNumber(dist)
	c.fields[TimeField] = formatNumber(dt)
	c.status = fmt.Sprintf("Measured %.3f m in %.3f s", dist, dt)
	return nil
}

// ApplyAngle copies the rig's angle into the angle field.
func (c *Controller) ApplyAngle() float64 {
	deg := c.rig.Degrees()
	c.fields[AngleField] = formatNumber(deg)
	return deg
}

// Inputs parses the current field values for the selected model. Time is
// checked before any other field is read. The drag field is only read by the
// exponential model.
func (c *Controller) Inputs() (speed.Inputs, error) {
	var in speed.Inputs
	var err error
	if in.TimeSeconds, err = parseNumber(TimeField, c.fields[TimeField]); err != nil {
		return in, err
	}
	if !(in.TimeSeconds > 0) {
		return in, speed.ErrTimeNotPositive
	}
	if in.DistanceMeters, err = parseNumber(DistanceField, c.fields[DistanceField]); err != nil {
		return in, err
	}
	if in.AngleDegrees, err = parseNumber(AngleField, c.fields[AngleField]); err != nil {
		return in, err
	}
	if c.model == speed.Exponential {
		if in.DragConstant, err = parseNumber(DragField, c.fields[DragField]); err != nil {
			return in, err
		}
	}
	return in, nil
}

// Calculate evaluates the selected model on the current field values. The
// status is cleared first; on failure it carries the reason and no result is
// visible, so an old result is never mistaken for a new one.
func (c *Controller) Calculate() (*Outcome, error) {
	c.status = ""
	c.outcome = nil

	in, err := c.Inputs()
	if err != nil {
		c.status = err.Error()
		return nil, err
	}
	res, err := speed.Evaluate(c.model, in)
	if err != nil {
		c.status = err.Error()
		return nil, err
	}

	now := c.clk.Now()
	out := &Outcome{
		ID:     uuid.NewString(),
		Result: res,
		Notes:  res.Notes(),
	}
	out.MPSText, out.KMHText, out.MPHText = res.Formatted()
	if c.reference != nil {
		if ref, ok := c.reference.Peak(now, c.cfg.GetReferenceWindow()); ok {
			out.ReferenceMPS = &ref
			out.Notes = append(out.Notes, fmt.Sprintf("reference radar: %.3f m/s", ref))
		}
	}

	if c.sink != nil {
		rec := Record{
			ID:           out.ID,
			SessionID:    c.id,
			Result:       res,
			ReferenceMPS: out.ReferenceMPS,
			CreatedAt:    now,
		}
		if err := c.sink.RecordResult(rec); err != nil {
			logf("%s: failed to record result %s: %v", c.id, out.ID, err)
		}
	}

	c.outcome = out
	return out, nil
}

// Status returns the most recent status message.
func (c *Controller) Status() string { return c.status }

// Outcome returns the visible result, or nil while an error is active.
func (c *Controller) Outcome() *Outcome { return c.outcome }
