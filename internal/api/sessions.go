package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"sync"

	"github.com/banshee-data/shuttle.report/internal/angle"
	"github.com/banshee-data/shuttle.report/internal/db"
	"github.com/banshee-data/shuttle.report/internal/geom"
	"github.com/banshee-data/shuttle.report/internal/httputil"
	"github.com/banshee-data/shuttle.report/internal/marker"
	"github.com/banshee-data/shuttle.report/internal/media"
	"github.com/banshee-data/shuttle.report/internal/monitoring"
	"github.com/banshee-data/shuttle.report/internal/session"
	"github.com/banshee-data/shuttle.report/internal/speed"
)

// sessionEntry serialises every request for one session under mu.
type sessionEntry struct {
	mu     sync.Mutex
	ctrl   *session.Controller
	media  *media.Handle
	closed bool
}

func (e *sessionEntry) close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.closed = true
	e.ctrl.Close()
	e.media = nil
}

// resultLog adapts the results store to session.ResultSink.
type resultLog struct {
	db *db.DB
}

func (l resultLog) RecordResult(rec session.Record) error {
	res := rec.Result
	return l.db.InsertResult(db.ResultRecord{
		ID:           rec.ID,
		SessionID:    rec.SessionID,
		Model:        string(res.Model),
		DistanceM:    res.Inputs.DistanceMeters,
		TimeS:        res.Inputs.TimeSeconds,
		AngleDeg:     res.Inputs.AngleDegrees,
		DragConstant: res.Inputs.DragConstant,
		MPS:          res.MPS,
		KMH:          res.KMH,
		MPH:          res.MPH,
		Numerator:    res.Numerator,
		Denominator:  res.Denominator,
		ReferenceMPS: rec.ReferenceMPS,
		CreatedAt:    rec.CreatedAt,
	})
}

func (s *Server) newSession() (*sessionEntry, error) {
	opts := session.Options{
		Config: s.cfg,
		Clock:  s.clock,
		Sink:   resultLog{db: s.db},
	}
	if s.radar != nil {
		opts.Reference = s.radar
	}
	ctrl, err := session.New(opts)
	if err != nil {
		return nil, err
	}
	e := &sessionEntry{ctrl: ctrl}

	s.mu.Lock()
	s.sessions[ctrl.ID()] = e
	s.mu.Unlock()
	monitoring.Logf("api: session %s created", ctrl.ID())
	return e, nil
}

// withSession runs fn with the session named in the path locked.
func (s *Server) withSession(w http.ResponseWriter, r *http.Request, fn func(e *sessionEntry)) {
	id := r.PathValue("id")
	s.mu.RLock()
	e, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		httputil.NotFound(w, fmt.Sprintf("session %q not found", id))
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		httputil.NotFound(w, fmt.Sprintf("session %q not found", id))
		return
	}
	fn(e)
}

// mutate decodes an optional JSON body into req, runs fn, then replies with
// the session snapshot. fn's error is mapped to a status code.
func mutate[T any](s *Server, w http.ResponseWriter, r *http.Request, req *T, fn func(e *sessionEntry) error) {
	if req != nil {
		if err := httputil.DecodeJSON(r, req); err != nil {
			httputil.BadRequest(w, err.Error())
			return
		}
	}
	s.withSession(w, r, func(e *sessionEntry) {
		if err := fn(e); err != nil {
			writeSessionError(w, err)
			return
		}
		httputil.WriteJSONOK(w, e.ctrl.Snapshot())
	})
}

var errBadRequest = errors.New("bad request")

func writeSessionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrNoMedia), errors.Is(err, session.ErrMediaNotReady):
		httputil.Conflict(w, err.Error())
	case errors.Is(err, marker.ErrIncomplete), errors.Is(err, marker.ErrUncalibrated):
		httputil.Conflict(w, err.Error())
	case errors.Is(err, media.ErrNotVideo):
		httputil.WriteJSONError(w, http.StatusUnsupportedMediaType, err.Error())
	case errors.Is(err, media.ErrTooLarge):
		httputil.WriteJSONError(w, http.StatusRequestEntityTooLarge, err.Error())
	case errors.Is(err, session.ErrUnknownSurface), errors.Is(err, session.ErrInvalidMediaSize), errors.Is(err, errBadRequest):
		httputil.BadRequest(w, err.Error())
	default:
		var fe *session.FieldError
		if errors.As(err, &fe) || isSpeedError(err) {
			httputil.UnprocessableEntity(w, err.Error())
			return
		}
		httputil.InternalServerError(w, err.Error())
	}
}

func isSpeedError(err error) bool {
	for _, target := range []error{
		speed.ErrTimeNotPositive,
		speed.ErrZeroDragConstant,
		speed.ErrNonFiniteInput,
		speed.ErrNonFiniteIntermediate,
		speed.ErrDenominatorTooSmall,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	e, err := s.newSession()
	if err != nil {
		httputil.InternalServerError(w, err.Error())
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	httputil.WriteJSON(w, http.StatusCreated, e.ctrl.Snapshot())
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	s.mu.RUnlock()
	sort.Strings(ids)
	httputil.WriteJSONOK(w, map[string][]string{"sessions": ids})
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(e *sessionEntry) {
		httputil.WriteJSONOK(w, e.ctrl.Snapshot())
	})
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	s.mu.Lock()
	e, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()
	if !ok {
		httputil.NotFound(w, fmt.Sprintf("session %q not found", id))
		return
	}
	e.close()
	monitoring.Logf("api: session %s closed", id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleUploadMedia(w http.ResponseWriter, r *http.Request) {
	if !s.sessionExists(r.PathValue("id")) {
		httputil.NotFound(w, fmt.Sprintf("session %q not found", r.PathValue("id")))
		return
	}
	if limit := s.cfg.GetMaxUploadBytes(); limit > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, limit+httputil.MaxJSONBodyBytes)
	}
	mr, err := r.MultipartReader()
	if err != nil {
		httputil.BadRequest(w, fmt.Sprintf("expected multipart upload: %v", err))
		return
	}

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			httputil.BadRequest(w, `missing "file" part`)
			return
		}
		if err != nil {
			writeUploadError(w, err)
			return
		}
		if part.FormName() != "file" {
			part.Close()
			continue
		}

		h, err := s.media.Save(part.FileName(), part.Header.Get("Content-Type"), part)
		part.Close()
		if err != nil {
			writeUploadError(w, err)
			return
		}

		attached := false
		s.withSession(w, r, func(e *sessionEntry) {
			e.ctrl.SelectMedia(h)
			e.media = h
			attached = true
			httputil.WriteJSON(w, http.StatusCreated, map[string]interface{}{
				"media":   h,
				"session": e.ctrl.Snapshot(),
			})
		})
		if !attached {
			if err := h.Release(); err != nil {
				monitoring.Logf("api: failed to release orphaned media %s: %v", h.ID, err)
			}
		}
		return
	}
}

func (s *Server) sessionExists(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.sessions[id]
	return ok
}

func writeUploadError(w http.ResponseWriter, err error) {
	var tooBig *http.MaxBytesError
	if errors.As(err, &tooBig) {
		httputil.WriteJSONError(w, http.StatusRequestEntityTooLarge, media.ErrTooLarge.Error())
		return
	}
	writeSessionError(w, err)
}

func (s *Server) handleStreamMedia(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(e *sessionEntry) {
		if e.media == nil {
			httputil.NotFound(w, session.ErrNoMedia.Error())
			return
		}
		rc, err := s.media.Open(e.media)
		if err != nil {
			httputil.InternalServerError(w, err.Error())
			return
		}
		defer rc.Close()
		w.Header().Set("Content-Type", e.media.MediaType)
		if _, err := io.Copy(w, rc); err != nil {
			monitoring.Logf("api: streaming media %s: %v", e.media.ID, err)
		}
	})
}

func (s *Server) handleMediaReady(w http.ResponseWriter, r *http.Request) {
	var req geom.MediaSize
	mutate(s, w, r, &req, func(e *sessionEntry) error {
		return e.ctrl.MediaReady(req)
	})
}

func (s *Server) handleEvent(w http.ResponseWriter, r *http.Request) {
	var ev session.InputEvent
	if err := httputil.DecodeJSON(r, &ev); err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	s.withSession(w, r, func(e *sessionEntry) {
		changed, err := e.ctrl.HandleEvent(ev)
		if err != nil {
			writeSessionError(w, err)
			return
		}
		httputil.WriteJSONOK(w, map[string]interface{}{
			"changed": changed,
			"session": e.ctrl.Snapshot(),
		})
	})
}

func (s *Server) handleCancelMode(w http.ResponseWriter, r *http.Request) {
	mutate[struct{}](s, w, r, nil, func(e *sessionEntry) error {
		e.ctrl.CancelMode()
		return nil
	})
}

// handleBeginCalibration arms calibration clicks. ?point=1 or ?point=2 arms
// a single endpoint; no point arms both in turn.
func (s *Server) handleBeginCalibration(w http.ResponseWriter, r *http.Request) {
	point := r.URL.Query().Get("point")
	mutate[struct{}](s, w, r, nil, func(e *sessionEntry) error {
		if point == "" {
			e.ctrl.BeginCalibration()
			return nil
		}
		n, err := strconv.Atoi(point)
		if err == nil {
			err = e.ctrl.BeginCalibrationPoint(n)
		}
		if err != nil {
			return fmt.Errorf("%w: %v", errBadRequest, err)
		}
		return nil
	})
}

type textRequest struct {
	Text string `json:"text"`
}

func (s *Server) handleKnownLength(w http.ResponseWriter, r *http.Request) {
	var req textRequest
	mutate(s, w, r, &req, func(e *sessionEntry) error {
		e.ctrl.SetKnownLength(req.Text)
		return nil
	})
}

func (s *Server) handleResetCalibration(w http.ResponseWriter, r *http.Request) {
	mutate[struct{}](s, w, r, nil, func(e *sessionEntry) error {
		e.ctrl.ResetCalibration()
		return nil
	})
}

func (s *Server) handleBeginMark(w http.ResponseWriter, r *http.Request) {
	which := r.PathValue("which")
	mutate[struct{}](s, w, r, nil, func(e *sessionEntry) error {
		switch which {
		case "a", "A":
			e.ctrl.BeginMarkA()
		case "b", "B":
			e.ctrl.BeginMarkB()
		default:
			return fmt.Errorf("%w: mark must be a or b, got %q", errBadRequest, which)
		}
		return nil
	})
}

func (s *Server) handleClearMarks(w http.ResponseWriter, r *http.Request) {
	mutate[struct{}](s, w, r, nil, func(e *sessionEntry) error {
		e.ctrl.ClearMarks()
		return nil
	})
}

func (s *Server) handleApplyMeasurement(w http.ResponseWriter, r *http.Request) {
	mutate[struct{}](s, w, r, nil, func(e *sessionEntry) error {
		return e.ctrl.ApplyMeasurement()
	})
}

func (s *Server) handleFlipAngle(w http.ResponseWriter, r *http.Request) {
	mutate[struct{}](s, w, r, nil, func(e *sessionEntry) error {
		e.ctrl.FlipAngle()
		return nil
	})
}

func (s *Server) handleSetAnglePoint(w http.ResponseWriter, r *http.Request) {
	h, err := angle.ParseHandle(r.PathValue("handle"))
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	var p geom.Point
	mutate(s, w, r, &p, func(e *sessionEntry) error {
		e.ctrl.SetAnglePoint(h, p)
		return nil
	})
}

func (s *Server) handleApplyAngle(w http.ResponseWriter, r *http.Request) {
	mutate[struct{}](s, w, r, nil, func(e *sessionEntry) error {
		e.ctrl.ApplyAngle()
		return nil
	})
}

func (s *Server) handleSetField(w http.ResponseWriter, r *http.Request) {
	f, err := session.ParseField(r.PathValue("field"))
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	var req textRequest
	mutate(s, w, r, &req, func(e *sessionEntry) error {
		e.ctrl.SetField(f, req.Text)
		return nil
	})
}

type modelRequest struct {
	Model string `json:"model"`
}

func (s *Server) handleSetModel(w http.ResponseWriter, r *http.Request) {
	var req modelRequest
	mutate(s, w, r, &req, func(e *sessionEntry) error {
		m, err := speed.ParseModel(req.Model)
		if err != nil {
			return fmt.Errorf("%w: %v", errBadRequest, err)
		}
		e.ctrl.SetModel(m)
		return nil
	})
}

func (s *Server) handleCalculate(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(e *sessionEntry) {
		out, err := e.ctrl.Calculate()
		if err != nil {
			writeSessionError(w, err)
			return
		}
		httputil.WriteJSONOK(w, out)
	})
}
