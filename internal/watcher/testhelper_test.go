package watcher

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/blackwell-systems/habitlens/internal/store"
)

// setupTestStore creates an in-memory SQLite store for tests and registers
// cleanup with t.Cleanup so callers don't need explicit defer.
func setupTestStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.New(":memory:")
	if err != nil {
		t.Fatalf("setupTestStore: open: %v", err)
	}
	if err := st.CreateSchema(); err != nil {
		st.Close()
		t.Fatalf("setupTestStore: schema: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

// insertApp is a convenience helper for test app creation.
func insertApp(t *testing.T, st *store.Store, id, execName string) {
	t.Helper()
	app := &store.App{
		PackageID:   id,
		Label:       id,
		ExecName:    execName,
		Category:    -1,
		InstalledAt: time.Now(),
	}
	if err := st.UpsertApp(app); err != nil {
		t.Fatalf("UpsertApp(%s): %v", id, err)
	}
}

// appendLog appends raw lines to the session log at path.
func appendLog(t *testing.T, path string, lines ...string) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		t.Fatalf("open log: %v", err)
	}
	defer f.Close()
	for _, line := range lines {
		if _, err := f.WriteString(line + "\n"); err != nil {
			t.Fatalf("write log: %v", err)
		}
	}
}

func logPaths(t *testing.T) (logPath, offsetPath string) {
	t.Helper()
	dir := t.TempDir()
	return filepath.Join(dir, "usage.log"), filepath.Join(dir, "usage.offset")
}
