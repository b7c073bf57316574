package scanner

import (
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/blackwell-systems/habitlens/internal/store"
	"github.com/blackwell-systems/habitlens/internal/usage"
)

func setupTestStore(t *testing.T) *store.Store {
	t.Helper()

	s, err := store.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	if err := s.CreateSchema(); err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}
	return s
}

func writeDesktop(t *testing.T, dir, rel, content string) {
	t.Helper()
	path := filepath.Join(dir, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

const mapsEntry = `[Desktop Entry]
Name=Maps
Exec=gnome-maps %U
Type=Application
Categories=GNOME;GTK;Utility;Maps;
`

func TestNew(t *testing.T) {
	s := setupTestStore(t)
	defer s.Close()

	scanner := New(s, nil)
	if scanner == nil {
		t.Fatal("expected non-nil scanner")
	}
	if scanner.store != s {
		t.Fatal("scanner store does not match provided store")
	}
}

func TestScanApps(t *testing.T) {
	s := setupTestStore(t)
	defer s.Close()

	user := t.TempDir()
	system := t.TempDir()

	writeDesktop(t, system, "org.gnome.Maps.desktop", mapsEntry)
	writeDesktop(t, system, "org.gnome.Settings.desktop", `[Desktop Entry]
Name=Settings
Exec=gnome-control-center
Type=Application
Categories=GNOME;GTK;Settings;
`)
	writeDesktop(t, system, "kde/okular.desktop", `[Desktop Entry]
Name=Okular
Exec=env QT_SCALE_FACTOR=1 okular %U
Categories=Qt;KDE;Graphics;Viewer;
`)
	writeDesktop(t, system, "link.desktop", `[Desktop Entry]
Type=Link
Name=Website
URL=https://example.com
`)
	writeDesktop(t, system, "hidden-by-user.desktop", `[Desktop Entry]
Name=Hidden
Exec=hidden
`)
	writeDesktop(t, system, "broken.desktop", "not a desktop file")
	// The user dir shadows and hides system entries.
	writeDesktop(t, user, "hidden-by-user.desktop", `[Desktop Entry]
Name=Hidden
Exec=hidden
Hidden=true
`)
	writeDesktop(t, user, "org.gnome.Maps.desktop", `[Desktop Entry]
Name=My Maps
Exec="/opt/maps app/bin/maps"
Categories=Maps;
`)

	sc := New(s, nil)
	result, err := sc.ScanApps([]string{user, system, filepath.Join(t.TempDir(), "missing")})
	if err != nil {
		t.Fatalf("ScanApps() error: %v", err)
	}
	if result.Found != 3 || result.Added != 3 || result.Removed != 0 {
		t.Errorf("ScanApps() = %+v, want found=3 added=3 removed=0", result)
	}

	maps, err := s.GetApp("org.gnome.Maps")
	if err != nil {
		t.Fatalf("GetApp(maps) error: %v", err)
	}
	if maps.Label != "My Maps" || maps.ExecName != "maps" {
		t.Errorf("maps = %+v, want user entry to shadow system entry", maps)
	}
	if maps.Category != usage.CodeMaps {
		t.Errorf("maps category = %d, want %d", maps.Category, usage.CodeMaps)
	}

	settings, err := s.GetApp("org.gnome.Settings")
	if err != nil {
		t.Fatalf("GetApp(settings) error: %v", err)
	}
	if !settings.IsSystem {
		t.Error("settings should be a system app")
	}

	okular, err := s.GetApp("kde-okular")
	if err != nil {
		t.Fatalf("GetApp(okular) error: %v", err)
	}
	if okular.ExecName != "okular" || okular.Category != usage.CodeImage {
		t.Errorf("okular = %+v", okular)
	}

	names, err := sc.ExecNames()
	if err != nil {
		t.Fatalf("ExecNames() error: %v", err)
	}
	sort.Strings(names)
	if len(names) != 2 || names[0] != "maps" || names[1] != "okular" {
		t.Errorf("ExecNames() = %v, want [maps okular]", names)
	}
}

func TestScanApps_RemovesUninstalled(t *testing.T) {
	s := setupTestStore(t)
	defer s.Close()

	dir := t.TempDir()
	writeDesktop(t, dir, "org.gnome.Maps.desktop", mapsEntry)

	sc := New(s, nil)
	if _, err := sc.ScanApps([]string{dir}); err != nil {
		t.Fatalf("first ScanApps() error: %v", err)
	}

	if err := os.Remove(filepath.Join(dir, "org.gnome.Maps.desktop")); err != nil {
		t.Fatal(err)
	}
	result, err := sc.ScanApps([]string{dir})
	if err != nil {
		t.Fatalf("second ScanApps() error: %v", err)
	}
	if result.Removed != 1 {
		t.Errorf("Removed = %d, want 1", result.Removed)
	}

	apps, err := sc.GetInventory()
	if err != nil {
		t.Fatalf("GetInventory() error: %v", err)
	}
	if len(apps) != 0 {
		t.Errorf("GetInventory() = %d apps, want 0", len(apps))
	}
}

func TestScanApps_Uninitialized(t *testing.T) {
	s, err := store.New(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	if _, err := New(s, nil).ScanApps(nil); err == nil {
		t.Error("ScanApps() on uninitialized store should fail")
	}
}
