// Package shim manages the PATH shim layer that times application sessions.
//
// Architecture:
//   - A single Go binary (~/.habitlens/bin/habitlens-shim) handles all shimmed apps.
//   - Symlinks are created for each scanned app's executable pointing to that binary.
//   - The shim resolves the invoked name via filepath.Base(os.Args[0]), runs the
//     real executable as a child, and waits for it to exit.
//   - Each session is appended to ~/.habitlens/usage.log as
//     "<start_ms>,<end_ms>,<argv0>" for batch ingestion by the watcher.
package shim

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

const shimBinaryName = "habitlens-shim"

// GetDataDir returns the habitlens data directory. Default: ~/.habitlens
func GetDataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".habitlens"), nil
}

// GetShimDir returns the directory where shim symlinks are stored.
// Default: ~/.habitlens/bin
func GetShimDir() (string, error) {
	dir, err := GetDataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "bin"), nil
}

// GetUsageLogPath returns the path to the session log written by the shim binary.
func GetUsageLogPath() (string, error) {
	dir, err := GetDataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "usage.log"), nil
}

// systemBinDirs are the directories the shim dir has to precede in PATH.
var systemBinDirs = map[string]bool{
	"/usr/local/bin": true,
	"/usr/bin":       true,
	"/bin":           true,
	"/snap/bin":      true,
}

// IsShimSetup reports whether the shim directory is in PATH ahead of the
// system binary directories. Returns (true, "") on success, or
// (false, reason) explaining what needs fixing.
func IsShimSetup() (bool, string) {
	shimDir, err := GetShimDir()
	if err != nil {
		return false, fmt.Sprintf("cannot get shim dir: %v", err)
	}

	pathDirs := filepath.SplitList(os.Getenv("PATH"))
	shimIdx := -1
	sysIdx := -1

	for i, dir := range pathDirs {
		if dir == shimDir && shimIdx == -1 {
			shimIdx = i
		}
		if sysIdx == -1 && (systemBinDirs[dir] || strings.HasSuffix(dir, "/flatpak/exports/bin")) {
			sysIdx = i
		}
	}

	if shimIdx == -1 {
		return false, fmt.Sprintf(
			"add shim directory to PATH:\n  export PATH=%q:$PATH",
			shimDir,
		)
	}
	if sysIdx != -1 && shimIdx > sysIdx {
		return false, fmt.Sprintf(
			"shim directory must appear before %s in PATH\n  export PATH=%q:$PATH",
			pathDirs[sysIdx], shimDir,
		)
	}
	return true, ""
}

// InstallShimBinary copies habitlens-shim from next to the running habitlens
// binary into the shim directory.
func InstallShimBinary() error {
	shimDir, err := GetShimDir()
	if err != nil {
		return fmt.Errorf("cannot get shim dir: %w", err)
	}
	if err := os.MkdirAll(shimDir, 0755); err != nil {
		return fmt.Errorf("cannot create shim dir %s: %w", shimDir, err)
	}

	self, err := os.Executable()
	if err != nil {
		return fmt.Errorf("cannot locate habitlens binary: %w", err)
	}
	candidate := filepath.Join(filepath.Dir(self), shimBinaryName)
	if _, err := os.Stat(candidate); err != nil {
		return fmt.Errorf("%s not found next to %s; install both binaries with 'go install ./cmd/...'", shimBinaryName, self)
	}

	return copyFile(candidate, filepath.Join(shimDir, shimBinaryName))
}

// copyFile copies src to dst, making dst executable.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0755)
	if err != nil {
		return fmt.Errorf("open dest: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("copy: %w", err)
	}
	return nil
}

// GenerateShims creates a symlink in the shim directory for each executable
// name that currently resolves on PATH outside the shim directory. Names
// that do not resolve are skipped, so the shim never shadows nothing.
// Returns the count of newly created symlinks.
func GenerateShims(execNames []string) (int, error) {
	shimDir, err := GetShimDir()
	if err != nil {
		return 0, fmt.Errorf("cannot get shim dir: %w", err)
	}

	shimBinary := filepath.Join(shimDir, shimBinaryName)
	if _, err := os.Stat(shimBinary); os.IsNotExist(err) {
		return 0, fmt.Errorf(
			"shim binary not found at %s; run 'habitlens scan' first to install it",
			shimBinary,
		)
	}

	count := 0
	for _, name := range execNames {
		name = filepath.Base(name)
		if name == "" || name == "." || name == shimBinaryName {
			continue
		}

		if FindRealBinary(name, shimDir) == "" {
			continue
		}

		symlinkPath := filepath.Join(shimDir, name)
		if existing, err := os.Readlink(symlinkPath); err == nil && existing == shimBinary {
			continue
		}

		os.Remove(symlinkPath)

		if err := os.Symlink(shimBinary, symlinkPath); err != nil {
			return count, fmt.Errorf("failed to create shim for %s: %w", name, err)
		}
		count++
	}

	return count, nil
}

// FindRealBinary searches PATH for name, skipping shimDir. Returns "" when
// only the shim (or nothing) would be found.
func FindRealBinary(name, shimDir string) string {
	for _, dir := range filepath.SplitList(os.Getenv("PATH")) {
		if dir == "" || filepath.Clean(dir) == filepath.Clean(shimDir) {
			continue
		}
		p := filepath.Join(dir, name)
		info, err := os.Stat(p)
		if err != nil || info.IsDir() || info.Mode()&0111 == 0 {
			continue
		}
		return p
	}
	return ""
}

// ListShims returns the names of the executables currently shimmed.
func ListShims() ([]string, error) {
	shimDir, err := GetShimDir()
	if err != nil {
		return nil, fmt.Errorf("cannot get shim dir: %w", err)
	}

	entries, err := os.ReadDir(shimDir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cannot read shim dir %s: %w", shimDir, err)
	}

	var names []string
	for _, entry := range entries {
		if entry.Name() == shimBinaryName || entry.Type()&os.ModeSymlink == 0 {
			continue
		}
		names = append(names, entry.Name())
	}
	return names, nil
}

// RemoveShims removes all symlinks in the shim directory.
// Leaves the habitlens-shim binary itself intact.
func RemoveShims() error {
	shimDir, err := GetShimDir()
	if err != nil {
		return fmt.Errorf("cannot get shim dir: %w", err)
	}

	entries, err := os.ReadDir(shimDir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("cannot read shim dir %s: %w", shimDir, err)
	}

	for _, entry := range entries {
		if entry.Name() == shimBinaryName {
			continue
		}
		if entry.Type()&os.ModeSymlink != 0 {
			os.Remove(filepath.Join(shimDir, entry.Name()))
		}
	}

	return nil
}

// RefreshShims brings the shim directory in line with execNames: missing
// shims are created and symlinks for names no longer listed are removed.
func RefreshShims(execNames []string) (added, removed int, err error) {
	shimDir, err := GetShimDir()
	if err != nil {
		return 0, 0, fmt.Errorf("cannot get shim dir: %w", err)
	}

	added, err = GenerateShims(execNames)
	if err != nil {
		return added, 0, err
	}

	want := make(map[string]bool, len(execNames))
	for _, name := range execNames {
		want[filepath.Base(name)] = true
	}

	current, err := ListShims()
	if err != nil {
		return added, 0, err
	}
	for _, name := range current {
		if want[name] {
			continue
		}
		if err := os.Remove(filepath.Join(shimDir, name)); err != nil && !os.IsNotExist(err) {
			return added, removed, fmt.Errorf("failed to remove stale shim %s: %w", name, err)
		}
		removed++
	}

	return added, removed, nil
}
