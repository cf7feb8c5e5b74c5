// Package radargun turns lines from a Doppler radar on a serial port into
// timestamped speed readings and keeps the recent peak, which is attached to
// each calculated result as an independent reference.
package radargun

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/banshee-data/shuttle.report/internal/monitoring"
	"github.com/banshee-data/shuttle.report/internal/serialmux"
	"github.com/banshee-data/shuttle.report/internal/timeutil"
)

var logf = monitoring.Prefixed("radargun")

var ErrNotSpeed = errors.New("line is not a speed report")

// Reading is one speed report. Speed is signed (negative is outbound) and in
// m/s; the radar is put into m/s mode by serialmux.InitCommands.
type Reading struct {
	Uptime    float64   `json:"uptime"`
	Magnitude float64   `json:"magnitude"`
	Speed     float64   `json:"speed"`
	At        time.Time `json:"at"`
}

// number accepts both 12.5 and "12.5"; the radar quotes values in some modes.
type number float64

func (n *number) UnmarshalJSON(b []byte) error {
	b = bytes.Trim(b, `"`)
	if len(b) == 0 {
		return nil
	}
	v, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return err
	}
	*n = number(v)
	return nil
}

type speedReport struct {
	Uptime    number  `json:"uptime"`
	Magnitude number  `json:"magnitude"`
	Speed     *number `json:"speed"`
}

// ParseLine parses a JSON report ({"speed": ...}) or a CSV report. A CSV line
// with one field is a bare speed; with three it is uptime,magnitude,speed.
func ParseLine(line string) (Reading, error) {
	line = strings.TrimSpace(line)
	if serialmux.ClassifyPayload(line) != serialmux.EventTypeSpeed {
		return Reading{}, ErrNotSpeed
	}

	var r Reading
	if strings.HasPrefix(line, "{") {
		var rep speedReport
		if err := json.Unmarshal([]byte(line), &rep); err != nil {
			return Reading{}, fmt.Errorf("failed to parse speed report: %w", err)
		}
		if rep.Speed == nil {
			return Reading{}, ErrNotSpeed
		}
		r = Reading{Uptime: float64(rep.Uptime), Magnitude: float64(rep.Magnitude), Speed: float64(*rep.Speed)}
	} else {
		fields := strings.Split(line, ",")
		vals := make([]float64, len(fields))
		for i, f := range fields {
			v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
			if err != nil {
				return Reading{}, fmt.Errorf("failed to parse field %d of %q: %w", i, line, err)
			}
			vals[i] = v
		}
		switch len(vals) {
		case 1:
			r.Speed = vals[0]
		case 3:
			r = Reading{Uptime: vals[0], Magnitude: vals[1], Speed: vals[2]}
		default:
			return Reading{}, fmt.Errorf("unexpected field count %d in %q", len(vals), line)
		}
	}

	if math.IsNaN(r.Speed) || math.IsInf(r.Speed, 0) {
		return Reading{}, fmt.Errorf("non-finite speed in %q", line)
	}
	return r, nil
}

// Tracker keeps the readings seen within its retention period.
type Tracker struct {
	mux       serialmux.SerialMuxInterface
	clock     timeutil.Clock
	retention time.Duration

	mu       sync.Mutex
	readings []Reading
}

// DefaultRetention bounds how far back Peak can look.
const DefaultRetention = time.Minute

// NewTracker creates a tracker fed by mux. retention <= 0 selects
// DefaultRetention.
func NewTracker(mux serialmux.SerialMuxInterface, clock timeutil.Clock, retention time.Duration) *Tracker {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &Tracker{mux: mux, clock: clock, retention: retention}
}

// Run consumes lines until ctx is done or the mux closes the subscription.
func (t *Tracker) Run(ctx context.Context) error {
	id, lines := t.mux.Subscribe()
	defer t.mux.Unsubscribe(id)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			r, err := ParseLine(line)
			if errors.Is(err, ErrNotSpeed) {
				continue
			}
			if err != nil {
				logf("%v", err)
				continue
			}
			t.Observe(r)
		}
	}
}

// Observe records a reading, stamping it with the tracker's clock when it
// has no timestamp.
func (t *Tracker) Observe(r Reading) {
	now := t.clock.Now()
	if r.At.IsZero() {
		r.At = now
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.readings = append(t.readings, r)

	cutoff := now.Add(-t.retention)
	i := 0
	for i < len(t.readings) && t.readings[i].At.Before(cutoff) {
		i++
	}
	if i > 0 {
		t.readings = append(t.readings[:0], t.readings[i:]...)
	}
}

// Peak returns the largest |speed| seen in [now-window, now].
func (t *Tracker) Peak(now time.Time, window time.Duration) (float64, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	from := now.Add(-window)
	best, found := 0.0, false
	for _, r := range t.readings {
		if r.At.Before(from) || r.At.After(now) {
			continue
		}
		if s := math.Abs(r.Speed); !found || s > best {
			best, found = s, true
		}
	}
	return best, found
}

// Recent returns a copy of the retained readings, oldest first.
func (t *Tracker) Recent() []Reading {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Reading, len(t.readings))
	copy(out, t.readings)
	return out
}
