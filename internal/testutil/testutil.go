// Package testutil provides shared test helpers and fixtures.
package testutil

import (
	"testing"

	"github.com/banshee-data/shuttle.report/internal/db"
)

// AssertStatusCode checks that the response status code matches expected.
func AssertStatusCode(t testing.TB, got, want int) {
	t.Helper()
	if got != want {
		t.Errorf("status code = %d, want %d", got, want)
	}
}

// NewResultsDB opens a migrated in-memory results store that is closed when
// the test ends.
func NewResultsDB(t testing.TB) *db.DB {
	t.Helper()
	store, err := db.NewDB(":memory:")
	if err != nil {
		t.Fatalf("failed to open results db: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

// Float returns a pointer to v.
func Float(v float64) *float64 { return &v }
