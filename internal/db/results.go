package db

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrResultNotFound = errors.New("result not found")

// ResultRecord is one completed calculation in the results log.
type ResultRecord struct {
	ID           string    `json:"id"`
	SessionID    string    `json:"session_id"`
	Model        string    `json:"model"`
	DistanceM    float64   `json:"distance_m"`
	TimeS        float64   `json:"time_s"`
	AngleDeg     float64   `json:"angle_deg"`
	DragConstant float64   `json:"drag_constant"`
	MPS          float64   `json:"mps"`
	KMH          float64   `json:"kmh"`
	MPH          float64   `json:"mph"`
	Numerator    float64   `json:"numerator"`
	Denominator  float64   `json:"denominator"`
	ReferenceMPS *float64  `json:"reference_mps,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// ResultFilter narrows ListResults. Zero values match everything; Limit <= 0
// selects DefaultResultLimit.
type ResultFilter struct {
	SessionID string
	Model     string
	Since     time.Time
	Limit     int
}

const DefaultResultLimit = 500

func (db *DB) InsertResult(r ResultRecord) error {
	if r.ID == "" || r.SessionID == "" || r.Model == "" {
		return fmt.Errorf("result record requires id, session_id and model")
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}

	_, err := db.Exec(`INSERT INTO speed_results (
			result_id, session_id, model, distance_m, time_s, angle_deg,
			drag_constant, mps, kmh, mph, numerator, denominator,
			reference_mps, created_unix_nanos
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.SessionID, r.Model, r.DistanceM, r.TimeS, r.AngleDeg,
		r.DragConstant, r.MPS, r.KMH, r.MPH, r.Numerator, r.Denominator,
		nullFloat(r.ReferenceMPS), r.CreatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert result %s: %w", r.ID, err)
	}
	return nil
}

const resultColumns = `result_id, session_id, model, distance_m, time_s, angle_deg,
	drag_constant, mps, kmh, mph, numerator, denominator, reference_mps,
	created_unix_nanos`

// GetResult returns a single result by ID.
func (db *DB) GetResult(id string) (*ResultRecord, error) {
	row := db.QueryRow(`SELECT `+resultColumns+` FROM speed_results WHERE result_id = ?`, id)
	r, err := scanResult(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrResultNotFound
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

// ListResults returns results newest first.
func (db *DB) ListResults(f ResultFilter) ([]ResultRecord, error) {
	var (
		where []string
		args  []interface{}
	)
	if f.SessionID != "" {
		where = append(where, "session_id = ?")
		args = append(args, f.SessionID)
	}
	if f.Model != "" {
		where = append(where, "model = ?")
		args = append(args, f.Model)
	}
	if !f.Since.IsZero() {
		where = append(where, "created_unix_nanos >= ?")
		args = append(args, f.Since.UnixNano())
	}
	limit := f.Limit
	if limit <= 0 {
		limit = DefaultResultLimit
	}

	q := `SELECT ` + resultColumns + ` FROM speed_results`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY created_unix_nanos DESC LIMIT ?"
	args = append(args, limit)

	rows, err := db.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []ResultRecord
	for rows.Next() {
		r, err := scanResult(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// DeleteSessionResults drops every result recorded by a session and returns
// how many were removed.
func (db *DB) DeleteSessionResults(sessionID string) (int64, error) {
	res, err := db.Exec(`DELETE FROM speed_results WHERE session_id = ?`, sessionID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanResult(s scanner) (*ResultRecord, error) {
	var (
		r     ResultRecord
		ref   sql.NullFloat64
		nanos int64
	)
	if err := s.Scan(
		&r.ID, &r.SessionID, &r.Model, &r.DistanceM, &r.TimeS, &r.AngleDeg,
		&r.DragConstant, &r.MPS, &r.KMH, &r.MPH, &r.Numerator, &r.Denominator,
		&ref, &nanos,
	); err != nil {
		return nil, err
	}
	if ref.Valid {
		v := ref.Float64
		r.ReferenceMPS = &v
	}
	r.CreatedAt = time.Unix(0, nanos).UTC()
	return &r, nil
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}
