// Package testutil provides shared fixtures for package tests.
package testutil

import (
	"testing"

	"accent-go/internal/database"
)

// NewTestStore creates a migrated in-memory SQLite store.
// It is automatically closed when the test completes.
func NewTestStore(t *testing.T) *database.SQLiteStore {
	t.Helper()

	store, err := database.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	t.Cleanup(func() {
		store.Close()
	})

	return store
}
