// Package api exposes measurement sessions and the results log over HTTP.
package api

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/banshee-data/shuttle.report/internal/config"
	"github.com/banshee-data/shuttle.report/internal/db"
	"github.com/banshee-data/shuttle.report/internal/httputil"
	"github.com/banshee-data/shuttle.report/internal/media"
	"github.com/banshee-data/shuttle.report/internal/radargun"
	"github.com/banshee-data/shuttle.report/internal/timeutil"
	"github.com/banshee-data/shuttle.report/internal/version"
)

// ANSI escape codes for cyan and reset
const colorCyan = "\033[36m"
const colorReset = "\033[0m"
const colorYellow = "\033[33m"
const colorBoldGreen = "\033[1;32m"
const colorBoldRed = "\033[1;31m"

var errMissingDependency = errors.New("api: missing dependency")

// Options wires a Server. Config, DB and Media are required; Radar is nil
// when no reference radar is attached.
type Options struct {
	Config *config.Config
	DB     *db.DB
	Media  *media.Store
	Radar  *radargun.Tracker
	Clock  timeutil.Clock
}

type Server struct {
	cfg   *config.Config
	db    *db.DB
	media *media.Store
	radar *radargun.Tracker
	clock timeutil.Clock

	mu       sync.RWMutex
	sessions map[string]*sessionEntry
}

// NewServer validates opts and returns a server with no sessions.
func NewServer(opts Options) (*Server, error) {
	switch {
	case opts.Config == nil:
		return nil, fmt.Errorf("%w: config", errMissingDependency)
	case opts.DB == nil:
		return nil, fmt.Errorf("%w: results store", errMissingDependency)
	case opts.Media == nil:
		return nil, fmt.Errorf("%w: media store", errMissingDependency)
	}
	if opts.Clock == nil {
		opts.Clock = timeutil.RealClock{}
	}
	return &Server{
		cfg:      opts.Config,
		db:       opts.DB,
		media:    opts.Media,
		radar:    opts.Radar,
		clock:    opts.Clock,
		sessions: make(map[string]*sessionEntry),
	}, nil
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Flush() {
	if flusher, ok := lrw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func statusCodeColor(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return colorBoldGreen + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 300 && statusCode < 400:
		return colorYellow + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 400:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	default:
		return strconv.Itoa(statusCode)
	}
}

// LoggingMiddleware logs status, method, URI and latency of every request.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)
		log.Printf(
			"[%s] %s %s%s%s %vms",
			statusCodeColor(lrw.statusCode), r.Method,
			colorCyan, r.RequestURI, colorReset,
			float64(time.Since(start).Nanoseconds())/1e6,
		)
	})
}

func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/sessions", s.handleCreateSession)
	mux.HandleFunc("GET /api/sessions", s.handleListSessions)
	mux.HandleFunc("GET /api/sessions/{id}", s.handleSnapshot)
	mux.HandleFunc("DELETE /api/sessions/{id}", s.handleDeleteSession)

	mux.HandleFunc("POST /api/sessions/{id}/media", s.handleUploadMedia)
	mux.HandleFunc("GET /api/sessions/{id}/media", s.handleStreamMedia)
	mux.HandleFunc("POST /api/sessions/{id}/media/ready", s.handleMediaReady)

	mux.HandleFunc("POST /api/sessions/{id}/events", s.handleEvent)
	mux.HandleFunc("POST /api/sessions/{id}/mode/cancel", s.handleCancelMode)

	mux.HandleFunc("POST /api/sessions/{id}/calibration/begin", s.handleBeginCalibration)
	mux.HandleFunc("PUT /api/sessions/{id}/calibration/known-length", s.handleKnownLength)
	mux.HandleFunc("POST /api/sessions/{id}/calibration/reset", s.handleResetCalibration)

	mux.HandleFunc("POST /api/sessions/{id}/marks/{which}", s.handleBeginMark)
	mux.HandleFunc("DELETE /api/sessions/{id}/marks", s.handleClearMarks)
	mux.HandleFunc("POST /api/sessions/{id}/measurement/apply", s.handleApplyMeasurement)

	mux.HandleFunc("POST /api/sessions/{id}/angle/flip", s.handleFlipAngle)
	mux.HandleFunc("PUT /api/sessions/{id}/angle/{handle}", s.handleSetAnglePoint)
	mux.HandleFunc("POST /api/sessions/{id}/angle/apply", s.handleApplyAngle)

	mux.HandleFunc("PUT /api/sessions/{id}/fields/{field}", s.handleSetField)
	mux.HandleFunc("PUT /api/sessions/{id}/model", s.handleSetModel)
	mux.HandleFunc("POST /api/sessions/{id}/calculate", s.handleCalculate)

	mux.HandleFunc("GET /api/results", s.handleListResults)
	mux.HandleFunc("DELETE /api/results", s.handleDeleteResults)
	mux.HandleFunc("GET /api/results/summary", s.handleSummary)
	mux.HandleFunc("GET /api/results/chart", s.handleChart)
	mux.HandleFunc("GET /api/results/histogram.png", s.handleHistogram)
	mux.HandleFunc("GET /api/results/{rid}", s.handleGetResult)

	mux.HandleFunc("GET /api/radar/recent", s.handleRadarRecent)
	mux.HandleFunc("GET /api/config", s.showConfig)
	return mux
}

// Close closes every session, releasing their media.
func (s *Server) Close() {
	s.mu.Lock()
	entries := s.sessions
	s.sessions = make(map[string]*sessionEntry)
	s.mu.Unlock()

	ids := make([]string, 0, len(entries))
	for id := range entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		entries[id].close()
	}
}

func (s *Server) showConfig(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSONOK(w, map[string]interface{}{
		"units":                 s.cfg.GetUnits(),
		"default_model":         s.cfg.GetDefaultModelName(),
		"default_drag_constant": s.cfg.GetDefaultDragConstant(),
		"hit_radius":            s.cfg.GetHitRadius(),
		"max_upload_bytes":      s.cfg.GetMaxUploadBytes(),
		"reference_window":      s.cfg.GetReferenceWindow().String(),
		"radar_enabled":         s.radar != nil,
		"version":               version.Version,
	})
}

func (s *Server) handleRadarRecent(w http.ResponseWriter, r *http.Request) {
	if s.radar == nil {
		httputil.WriteJSONOK(w, []radargun.Reading{})
		return
	}
	httputil.WriteJSONOK(w, s.radar.Recent())
}
