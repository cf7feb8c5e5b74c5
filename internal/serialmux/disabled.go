package serialmux

import (
	"context"
	"net/http"
	"sync"

	"github.com/banshee-data/shuttle.report/internal/httputil"
)

// DisabledSerialMux stands in for the radar when the server runs with
// --disable-radar. No lines are ever delivered; subscriptions stay open until
// Unsubscribe or Close so a tracker blocks the same way it would on a quiet
// radar.
type DisabledSerialMux struct {
	mu     sync.Mutex
	subs   map[string]chan string
	closed bool
}

func NewDisabledSerialMux() *DisabledSerialMux {
	return &DisabledSerialMux{subs: make(map[string]chan string)}
}

func (d *DisabledSerialMux) Subscribe() (string, chan string) {
	id, ch := randomID(), make(chan string)

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		close(ch)
	} else {
		d.subs[id] = ch
	}
	return id, ch
}

func (d *DisabledSerialMux) Unsubscribe(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.drop(id)
}

// drop closes and forgets one subscription. d.mu must be held.
func (d *DisabledSerialMux) drop(id string) {
	if ch, ok := d.subs[id]; ok {
		close(ch)
		delete(d.subs, id)
	}
}

// Close ends every subscription. Later calls are no-ops.
func (d *DisabledSerialMux) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	for id := range d.subs {
		d.drop(id)
	}
	return nil
}

func (d *DisabledSerialMux) Initialize() error         { return nil }
func (d *DisabledSerialMux) SendCommand(string) error { return nil }

func (d *DisabledSerialMux) Monitor(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}

func (d *DisabledSerialMux) subscriberCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.subs)
}

// AttachAdminRoutes exposes /debug/serial-disabled, which reports that no
// radar is attached.
func (d *DisabledSerialMux) AttachAdminRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/debug/serial-disabled", func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSONOK(w, map[string]any{
			"radar":       "disabled",
			"subscribers": d.subscriberCount(),
		})
	})
}

var _ SerialMuxInterface = (*DisabledSerialMux)(nil)
