package api

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/banshee-data/shuttle.report/internal/db"
	"github.com/banshee-data/shuttle.report/internal/httputil"
	"github.com/banshee-data/shuttle.report/internal/report"
	"github.com/banshee-data/shuttle.report/internal/units"
)

// resultQuery reads the filter and display unit shared by the results
// endpoints: ?session=&model=&since=RFC3339&limit=&units=
func (s *Server) resultQuery(r *http.Request) (db.ResultFilter, string, error) {
	q := r.URL.Query()
	f := db.ResultFilter{
		SessionID: q.Get("session"),
		Model:     q.Get("model"),
	}
	if v := q.Get("since"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return f, "", fmt.Errorf("invalid 'since' parameter: %w", err)
		}
		f.Since = t
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return f, "", fmt.Errorf("invalid 'limit' parameter %q", v)
		}
		f.Limit = n
	}

	unit := s.cfg.GetUnits()
	if v := q.Get("units"); v != "" {
		if !units.IsValid(v) {
			return f, "", fmt.Errorf("invalid 'units' parameter %q: must be one of %s", v, units.GetValidUnitsString())
		}
		unit = v
	}
	return f, unit, nil
}

func (s *Server) loadResults(w http.ResponseWriter, r *http.Request) ([]db.ResultRecord, string, bool) {
	f, unit, err := s.resultQuery(r)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return nil, "", false
	}
	records, err := s.db.ListResults(f)
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("Failed to retrieve results: %v", err))
		return nil, "", false
	}
	return records, unit, true
}

func (s *Server) handleListResults(w http.ResponseWriter, r *http.Request) {
	records, _, ok := s.loadResults(w, r)
	if !ok {
		return
	}
	if records == nil {
		records = []db.ResultRecord{}
	}
	httputil.WriteJSONOK(w, records)
}

// handleDeleteResults removes the results of one session: DELETE
// /api/results?session=ID.
func (s *Server) handleDeleteResults(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("session")
	if id == "" {
		httputil.BadRequest(w, "missing 'session' parameter")
		return
	}
	n, err := s.db.DeleteSessionResults(id)
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("Failed to delete results: %v", err))
		return
	}
	httputil.WriteJSONOK(w, map[string]int64{"deleted": n})
}

func (s *Server) handleGetResult(w http.ResponseWriter, r *http.Request) {
	rec, err := s.db.GetResult(r.PathValue("rid"))
	if errors.Is(err, db.ErrResultNotFound) {
		httputil.NotFound(w, err.Error())
		return
	}
	if err != nil {
		httputil.InternalServerError(w, err.Error())
		return
	}
	httputil.WriteJSONOK(w, rec)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	records, unit, ok := s.loadResults(w, r)
	if !ok {
		return
	}
	summaries := report.Summarize(records, unit)
	if summaries == nil {
		summaries = []report.Summary{}
	}
	httputil.WriteJSONOK(w, summaries)
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	records, unit, ok := s.loadResults(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := report.RenderChart(&buf, records, unit); err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("Failed to render chart: %v", err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}

func (s *Server) handleHistogram(w http.ResponseWriter, r *http.Request) {
	records, unit, ok := s.loadResults(w, r)
	if !ok {
		return
	}
	bins := 0
	if v := r.URL.Query().Get("bins"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 500 {
			httputil.BadRequest(w, fmt.Sprintf("invalid 'bins' parameter %q", v))
			return
		}
		bins = n
	}

	var buf bytes.Buffer
	err := report.RenderHistogram(&buf, records, unit, bins)
	if errors.Is(err, report.ErrNoData) {
		httputil.NotFound(w, err.Error())
		return
	}
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("Failed to render histogram: %v", err))
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Write(buf.Bytes())
}
