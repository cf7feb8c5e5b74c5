package db

import (
	"bytes"
	"compress/gzip"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := NewDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func floatPtr(f float64) *float64 { return &f }

func sampleResult(id, session string, mps float64, at time.Time) ResultRecord {
	return ResultRecord{
		ID:           id,
		SessionID:    session,
		Model:        "exponential",
		DistanceM:    10,
		TimeS:        2,
		AngleDeg:     0,
		DragConstant: 0.05,
		MPS:          mps,
		KMH:          mps * 3.6,
		MPH:          mps * 2.236936,
		Numerator:    mps * 0.1,
		Denominator:  0.1,
		CreatedAt:    at,
	}
}

func TestPragmasApplied(t *testing.T) {
	db := newTestDB(t)

	var journalMode string
	if err := db.QueryRow("PRAGMA journal_mode").Scan(&journalMode); err != nil {
		t.Fatalf("Failed to query journal_mode: %v", err)
	}
	if journalMode != "wal" {
		t.Errorf("Expected journal_mode=wal, got %s", journalMode)
	}

	var busyTimeout int
	if err := db.QueryRow("PRAGMA busy_timeout").Scan(&busyTimeout); err != nil {
		t.Fatalf("Failed to query busy_timeout: %v", err)
	}
	if busyTimeout != 5000 {
		t.Errorf("Expected busy_timeout=5000, got %d", busyTimeout)
	}
}

func TestInMemoryDatabase(t *testing.T) {
	db, err := NewDB(":memory:")
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.InsertResult(sampleResult("r1", "s1", 6.5, time.Now())))
	got, err := db.ListResults(ResultFilter{})
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestMigrationsReachLatest(t *testing.T) {
	db := newTestDB(t)

	latest, err := GetLatestMigrationVersion(MigrationsFS())
	require.NoError(t, err)
	assert.Equal(t, uint(2), latest)

	version, dirty, err := db.MigrateVersion(MigrationsFS())
	require.NoError(t, err)
	assert.Equal(t, latest, version)
	assert.False(t, dirty)

	// Re-running is a no-op.
	require.NoError(t, db.MigrateUp(MigrationsFS()))
}

func TestMigrateDownAndUp(t *testing.T) {
	db := newTestDB(t)
	migrations := MigrationsFS()

	require.NoError(t, db.MigrateDown(migrations))
	version, _, err := db.MigrateVersion(migrations)
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)

	// reference_mps is gone at version 1.
	_, err = db.Exec(`INSERT INTO speed_results (result_id, session_id, model, distance_m, time_s, angle_deg,
		mps, kmh, mph, numerator, denominator, reference_mps, created_unix_nanos)
		VALUES ('x', 's', 'linear', 1, 1, 0, 1, 3.6, 2.2, 1, 1, 1, 0)`)
	assert.Error(t, err)

	require.NoError(t, db.MigrateTo(migrations, 2))
	require.NoError(t, db.InsertResult(sampleResult("r1", "s1", 6.5, time.Now())))
}

func TestGetLatestMigrationVersionErrors(t *testing.T) {
	_, err := GetLatestMigrationVersion(fstest.MapFS{})
	assert.Error(t, err)

	_, err = GetLatestMigrationVersion(fstest.MapFS{"init.up.sql": {Data: []byte("")}})
	assert.Error(t, err)
}

func TestInsertAndGetResult(t *testing.T) {
	db := newTestDB(t)
	at := time.Date(2025, 3, 1, 12, 0, 0, 123, time.UTC)

	rec := sampleResult("r1", "s1", 6.4872, at)
	rec.ReferenceMPS = floatPtr(6.3)
	require.NoError(t, db.InsertResult(rec))

	got, err := db.GetResult("r1")
	require.NoError(t, err)
	assert.True(t, at.Equal(got.CreatedAt))
	got.CreatedAt = at
	assert.Equal(t, rec, *got)

	_, err = db.GetResult("missing")
	assert.ErrorIs(t, err, ErrResultNotFound)
}

func TestInsertResultValidation(t *testing.T) {
	db := newTestDB(t)
	assert.Error(t, db.InsertResult(ResultRecord{SessionID: "s1", Model: "linear"}))
	assert.Error(t, db.InsertResult(ResultRecord{ID: "r1", Model: "linear"}))

	rec := sampleResult("r1", "s1", 1, time.Time{})
	require.NoError(t, db.InsertResult(rec))
	got, err := db.GetResult("r1")
	require.NoError(t, err)
	assert.False(t, got.CreatedAt.IsZero(), "zero CreatedAt is stamped on insert")

	assert.Error(t, db.InsertResult(rec), "duplicate id")
}

func TestListResultsFilters(t *testing.T) {
	db := newTestDB(t)
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, db.InsertResult(sampleResult("r1", "s1", 5, base)))
	require.NoError(t, db.InsertResult(sampleResult("r2", "s1", 6, base.Add(time.Minute))))
	lin := sampleResult("r3", "s2", 7, base.Add(2*time.Minute))
	lin.Model = "linear"
	lin.DragConstant = 0
	require.NoError(t, db.InsertResult(lin))

	all, err := db.ListResults(ResultFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"r3", "r2", "r1"}, []string{all[0].ID, all[1].ID, all[2].ID})
	assert.Nil(t, all[0].ReferenceMPS)

	bySession, err := db.ListResults(ResultFilter{SessionID: "s1"})
	require.NoError(t, err)
	assert.Len(t, bySession, 2)

	byModel, err := db.ListResults(ResultFilter{Model: "linear"})
	require.NoError(t, err)
	require.Len(t, byModel, 1)
	assert.Equal(t, "r3", byModel[0].ID)

	since, err := db.ListResults(ResultFilter{Since: base.Add(30 * time.Second)})
	require.NoError(t, err)
	assert.Len(t, since, 2)

	limited, err := db.ListResults(ResultFilter{Limit: 1})
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, "r3", limited[0].ID)
}

func TestDeleteSessionResults(t *testing.T) {
	db := newTestDB(t)
	now := time.Now()
	require.NoError(t, db.InsertResult(sampleResult("r1", "s1", 5, now)))
	require.NoError(t, db.InsertResult(sampleResult("r2", "s1", 6, now)))
	require.NoError(t, db.InsertResult(sampleResult("r3", "s2", 7, now)))

	n, err := db.DeleteSessionResults("s1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	rest, err := db.ListResults(ResultFilter{})
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Equal(t, "s2", rest[0].SessionID)
}

func TestBackupHandler(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.InsertResult(sampleResult("r1", "s1", 5, time.Now())))

	w := httptest.NewRecorder()
	db.handleBackup(w, httptest.NewRequest(http.MethodGet, "/debug/backup", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/gzip", w.Header().Get("Content-Type"))

	gz, err := gzip.NewReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	data, err := io.ReadAll(gz)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("SQLite format 3")))
}

func TestAttachAdminRoutes(t *testing.T) {
	db := newTestDB(t)
	mux := http.NewServeMux()
	assert.NotPanics(t, func() { db.AttachAdminRoutes(mux) })
}

func TestRunMigrateCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cli.db")
	var out bytes.Buffer

	require.NoError(t, RunMigrateCommand([]string{"up"}, path, &out))
	assert.Contains(t, out.String(), "Current version: 2")

	out.Reset()
	require.NoError(t, RunMigrateCommand([]string{"down"}, path, &out))
	assert.Contains(t, out.String(), "Current version: 1")

	out.Reset()
	require.NoError(t, RunMigrateCommand([]string{"version", "2"}, path, &out))
	assert.Contains(t, out.String(), "Current version: 2")

	out.Reset()
	require.NoError(t, RunMigrateCommand([]string{"help"}, path, &out))
	assert.Contains(t, out.String(), "Usage: shuttle migrate")

	assert.Error(t, RunMigrateCommand(nil, path, &out))
	assert.Error(t, RunMigrateCommand([]string{"sideways"}, path, &out))
	assert.Error(t, RunMigrateCommand([]string{"version", "abc"}, path, &out))
	assert.Error(t, RunMigrateCommand([]string{"force"}, path, &out))
}
