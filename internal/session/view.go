package session

import (
	"github.com/banshee-data/shuttle.report/internal/angle"
	"github.com/banshee-data/shuttle.report/internal/calibration"
	"github.com/banshee-data/shuttle.report/internal/geom"
	"github.com/banshee-data/shuttle.report/internal/marker"
	"github.com/banshee-data/shuttle.report/internal/speed"
)

// AngleView is the rig as drawn by the client.
type AngleView struct {
	BaselineStart geom.Point `json:"baseline_start"`
	Vertex        geom.Point `json:"vertex"`
	Free          geom.Point `json:"free"`
	Degrees       float64    `json:"degrees"`
	Held          string     `json:"held"`
}

// MeasurementView summarises the A/B marks.
type MeasurementView struct {
	Pair           marker.Pair `json:"pair"`
	ElapsedSeconds *float64    `json:"elapsed_s,omitempty"`
	PixelDistance  *float64    `json:"pixel_distance,omitempty"`
	DistanceMeters *float64    `json:"distance_m,omitempty"`
}

// Snapshot is everything a client needs to redraw the session.
type Snapshot struct {
	ID          string            `json:"id"`
	Mode        Mode              `json:"mode"`
	MediaLoaded bool              `json:"media_loaded"`
	MediaReady  bool              `json:"media_ready"`
	MediaSize   geom.MediaSize    `json:"media_size"`
	Calibration calibration.State `json:"calibration"`
	Measurement MeasurementView   `json:"measurement"`
	Angle       AngleView         `json:"angle"`
	Fields      map[Field]string  `json:"fields"`
	Model       speed.Model       `json:"model"`
	Status      string            `json:"status"`
	Result      *Outcome          `json:"result"`
}

// Snapshot returns a copy of the session's visible state.
func (c *Controller) Snapshot() Snapshot {
	start, vertex, free := c.rig.Points()
	held := ""
	if h := c.rig.Held(); h != angle.NoHandle {
		held = h.String()
	}

	fields := make(map[Field]string, len(c.fields))
	for k, v := range c.fields {
		fields[k] = v
	}

	return Snapshot{
		ID:          c.id,
		Mode:        c.mode,
		MediaLoaded: c.media != nil,
		MediaReady:  c.ready,
		MediaSize:   c.size,
		Calibration: c.calib.State(),
		Measurement: c.measurementView(),
		Angle: AngleView{
			BaselineStart: start,
			Vertex:        vertex,
			Free:          free,
			Degrees:       c.rig.Degrees(),
			Held:          held,
		},
		Fields: fields,
		Model:  c.model,
		Status: c.status,
		Result: c.outcome,
	}
}

func (c *Controller) measurementView() MeasurementView {
	pair := c.marks.Pair()
	v := MeasurementView{Pair: pair}
	if !pair.Complete() {
		return v
	}
	if dt, err := pair.ElapsedSeconds(); err == nil {
		v.ElapsedSeconds = &dt
	}
	if c.ready {
		if px, err := pair.PixelDistance(c.size); err == nil {
			v.PixelDistance = &px
		}
		mpp, ok := c.calib.MetersPerPixel()
		if m, err := pair.DistanceMeters(c.size, mpp, ok); err == nil {
			v.DistanceMeters = &m
		}
	}
	return v
}
