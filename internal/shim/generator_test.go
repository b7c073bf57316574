package shim

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
)

func TestGetShimDir(t *testing.T) {
	dir, err := GetShimDir()
	if err != nil {
		t.Fatalf("GetShimDir() error: %v", err)
	}
	if !strings.HasSuffix(dir, filepath.Join(".habitlens", "bin")) {
		t.Errorf("GetShimDir() = %q, want suffix %q", dir, filepath.Join(".habitlens", "bin"))
	}
}

func TestGetUsageLogPath(t *testing.T) {
	path, err := GetUsageLogPath()
	if err != nil {
		t.Fatalf("GetUsageLogPath() error: %v", err)
	}
	if !strings.HasSuffix(path, filepath.Join(".habitlens", "usage.log")) {
		t.Errorf("GetUsageLogPath() = %q, want suffix .habitlens/usage.log", path)
	}
}

func TestIsShimSetup_NotInPath(t *testing.T) {
	t.Setenv("PATH", "/usr/bin:/bin:/usr/sbin:/sbin")

	ok, reason := IsShimSetup()
	if ok {
		t.Fatal("IsShimSetup() = true, want false when shim dir not in PATH")
	}
	if reason == "" {
		t.Fatal("IsShimSetup() returned empty reason")
	}
}

func TestIsShimSetup_AfterSystemDirs(t *testing.T) {
	shimDir, err := GetShimDir()
	if err != nil {
		t.Fatal(err)
	}
	t.Setenv("PATH", "/usr/bin:"+shimDir+":/bin")

	ok, reason := IsShimSetup()
	if ok {
		t.Fatal("IsShimSetup() = true, want false when shim dir follows /usr/bin")
	}
	if !strings.Contains(reason, "/usr/bin") {
		t.Errorf("reason %q should name the shadowing directory", reason)
	}
}

func TestIsShimSetup_InPathFirst(t *testing.T) {
	shimDir, err := GetShimDir()
	if err != nil {
		t.Fatal(err)
	}
	t.Setenv("PATH", shimDir+":/usr/local/bin:/usr/bin:/bin")

	ok, reason := IsShimSetup()
	if !ok {
		t.Errorf("IsShimSetup() = false (%s), want true when shim dir is first", reason)
	}
}

func TestGenerateShims_NoShimBinary(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	_, err := GenerateShims([]string{"firefox"})
	if err == nil {
		t.Fatal("GenerateShims() expected error when shim binary missing, got nil")
	}
}

func TestRemoveShims_EmptyDir(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	if err := RemoveShims(); err != nil {
		t.Errorf("RemoveShims() on missing dir = %v, want nil", err)
	}
}

func TestRemoveShims_LeavesShimBinaryIntact(t *testing.T) {
	tmpHome := t.TempDir()
	t.Setenv("HOME", tmpHome)

	shimDir := filepath.Join(tmpHome, ".habitlens", "bin")
	if err := os.MkdirAll(shimDir, 0755); err != nil {
		t.Fatal(err)
	}

	shimBin := filepath.Join(shimDir, shimBinaryName)
	if err := os.WriteFile(shimBin, []byte("fake"), 0755); err != nil {
		t.Fatal(err)
	}
	symlink := filepath.Join(shimDir, "gimp")
	if err := os.Symlink(shimBin, symlink); err != nil {
		t.Fatal(err)
	}

	if err := RemoveShims(); err != nil {
		t.Fatalf("RemoveShims() error: %v", err)
	}
	if _, err := os.Stat(shimBin); err != nil {
		t.Errorf("shim binary was removed: %v", err)
	}
	if _, err := os.Lstat(symlink); !os.IsNotExist(err) {
		t.Errorf("symlink was not removed")
	}
}

// setupShimEnv creates a temp home with a fake shim binary and an app bin
// directory holding fake executables. PATH is set so the app bin dir
// resolves and the shim dir is listed first, as in a real install.
func setupShimEnv(t *testing.T, names ...string) (shimDir, appBinDir string) {
	t.Helper()

	tmpHome := t.TempDir()
	t.Setenv("HOME", tmpHome)

	shimDir = filepath.Join(tmpHome, ".habitlens", "bin")
	if err := os.MkdirAll(shimDir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(shimDir, shimBinaryName), []byte("fake-shim"), 0755); err != nil {
		t.Fatal(err)
	}

	appBinDir = filepath.Join(tmpHome, "apps", "bin")
	if err := os.MkdirAll(appBinDir, 0755); err != nil {
		t.Fatal(err)
	}
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(appBinDir, name), []byte("#!/bin/sh\n"), 0755); err != nil {
			t.Fatal(err)
		}
	}

	t.Setenv("PATH", shimDir+":"+appBinDir)
	return shimDir, appBinDir
}

func TestFindRealBinary_SkipsShimDir(t *testing.T) {
	shimDir, appBinDir := setupShimEnv(t, "gimp")
	if err := os.Symlink(filepath.Join(shimDir, shimBinaryName), filepath.Join(shimDir, "gimp")); err != nil {
		t.Fatal(err)
	}

	if got := FindRealBinary("gimp", shimDir); got != filepath.Join(appBinDir, "gimp") {
		t.Errorf("FindRealBinary() = %q, want %q", got, filepath.Join(appBinDir, "gimp"))
	}
	if got := FindRealBinary("missing", shimDir); got != "" {
		t.Errorf("FindRealBinary(missing) = %q, want empty", got)
	}
}

func TestGenerateShims_SkipsUnresolvable(t *testing.T) {
	shimDir, _ := setupShimEnv(t, "gimp")

	count, err := GenerateShims([]string{"gimp", "not-installed", shimBinaryName, "/usr/share/app/gimp"})
	if err != nil {
		t.Fatalf("GenerateShims() error: %v", err)
	}
	if count != 1 {
		t.Errorf("GenerateShims() = %d, want 1", count)
	}

	target, err := os.Readlink(filepath.Join(shimDir, "gimp"))
	if err != nil {
		t.Fatalf("symlink not created: %v", err)
	}
	if target != filepath.Join(shimDir, shimBinaryName) {
		t.Errorf("symlink target = %q", target)
	}
}

func TestRefreshShims_NoShimBinary(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	if _, _, err := RefreshShims([]string{"gimp"}); err == nil {
		t.Fatal("RefreshShims() expected error when shim binary missing, got nil")
	}
}

func TestRefreshShims_Idempotent(t *testing.T) {
	setupShimEnv(t, "gimp", "inkscape")

	added, removed, err := RefreshShims([]string{"gimp", "inkscape"})
	if err != nil {
		t.Fatalf("first RefreshShims() error: %v", err)
	}
	if added != 2 || removed != 0 {
		t.Errorf("first call: added=%d removed=%d, want 2/0", added, removed)
	}

	added, removed, err = RefreshShims([]string{"gimp", "inkscape"})
	if err != nil {
		t.Fatalf("second RefreshShims() error: %v", err)
	}
	if added != 0 || removed != 0 {
		t.Errorf("second call: added=%d removed=%d, want 0/0", added, removed)
	}

	names, err := ListShims()
	if err != nil {
		t.Fatalf("ListShims() error: %v", err)
	}
	sort.Strings(names)
	if strings.Join(names, ",") != "gimp,inkscape" {
		t.Errorf("ListShims() = %v", names)
	}
}

func TestRefreshShims_RemovesStaleSymlinks(t *testing.T) {
	shimDir, _ := setupShimEnv(t, "gimp")

	if _, _, err := RefreshShims([]string{"gimp"}); err != nil {
		t.Fatalf("first RefreshShims() error: %v", err)
	}

	added, removed, err := RefreshShims(nil)
	if err != nil {
		t.Fatalf("second RefreshShims() error: %v", err)
	}
	if added != 0 || removed != 1 {
		t.Errorf("added=%d removed=%d, want 0/1", added, removed)
	}
	if _, err := os.Lstat(filepath.Join(shimDir, "gimp")); !os.IsNotExist(err) {
		t.Errorf("stale symlink was not removed")
	}
}
