package scanner

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/blackwell-systems/habitlens/internal/store"
	"go.uber.org/zap"
)

// ScanResult summarizes a scan.
type ScanResult struct {
	Found   int
	Added   int
	Removed int
}

// ScanApps walks dirs in XDG precedence order (earlier dirs shadow later
// ones with the same desktop id) and syncs the apps table: new entries are
// inserted, existing ones refreshed, and apps no longer present removed.
// Missing directories are skipped.
func (s *Scanner) ScanApps(dirs []string) (*ScanResult, error) {
	existing, err := s.store.ListApps()
	if err != nil {
		return nil, fmt.Errorf("failed to list apps: %w", err)
	}
	known := make(map[string]bool, len(existing))
	for _, app := range existing {
		known[app.PackageID] = true
	}

	found := make(map[string]*store.App)
	seen := make(map[string]bool)
	for _, dir := range dirs {
		if err := s.scanDir(dir, seen, found); err != nil {
			return nil, err
		}
	}

	result := &ScanResult{Found: len(found)}
	for id, app := range found {
		if err := s.store.UpsertApp(app); err != nil {
			return nil, fmt.Errorf("failed to store app %s: %w", id, err)
		}
		if !known[id] {
			result.Added++
		}
	}

	for id := range known {
		if _, ok := found[id]; ok {
			continue
		}
		if err := s.store.DeleteApp(id); err != nil {
			return nil, fmt.Errorf("failed to remove app %s: %w", id, err)
		}
		result.Removed++
	}

	s.logger.Info("app scan complete",
		zap.Int("found", result.Found),
		zap.Int("added", result.Added),
		zap.Int("removed", result.Removed))

	return result, nil
}

func (s *Scanner) scanDir(dir string, seen map[string]bool, found map[string]*store.App) error {
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) && path == dir {
				return filepath.SkipDir
			}
			s.logger.Debug("skipping unreadable path", zap.String("path", path), zap.Error(err))
			return nil
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".desktop") {
			return nil
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return nil
		}
		id := DesktopID(rel)
		if seen[id] {
			return nil
		}

		entry, err := ParseDesktopEntry(path, id)
		if err != nil {
			s.logger.Debug("skipping malformed desktop entry", zap.String("path", path), zap.Error(err))
			return nil
		}
		if entry == nil {
			return nil
		}
		// Hidden=true in a user dir deletes the entry for lower dirs too.
		seen[id] = true
		if entry.Hidden {
			return nil
		}

		installedAt := time.Now()
		if info, err := d.Info(); err == nil {
			installedAt = info.ModTime()
		}

		found[id] = &store.App{
			PackageID:   id,
			Label:       entry.Name,
			ExecName:    entry.ExecName,
			IsSystem:    entry.IsSystem(),
			Category:    entry.CategoryCode(),
			InstalledAt: installedAt,
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to scan %s: %w", dir, err)
	}
	return nil
}

// GetInventory returns the current app inventory from the database.
func (s *Scanner) GetInventory() ([]*store.App, error) {
	apps, err := s.store.ListApps()
	if err != nil {
		return nil, fmt.Errorf("failed to get inventory: %w", err)
	}
	return apps, nil
}

// ExecNames returns the executables of user-facing apps, the set that
// should be shimmed.
func (s *Scanner) ExecNames() ([]string, error) {
	apps, err := s.GetInventory()
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var names []string
	for _, app := range apps {
		if app.IsSystem || app.ExecName == "" || seen[app.ExecName] {
			continue
		}
		seen[app.ExecName] = true
		names = append(names, app.ExecName)
	}
	return names, nil
}
