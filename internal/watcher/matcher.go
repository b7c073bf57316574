package watcher

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/blackwell-systems/habitlens/internal/config"
	"github.com/blackwell-systems/habitlens/internal/store"
)

// Matcher resolves a shim argv0 to a package id. User aliases take
// precedence over the exec names recorded by the app scan.
type Matcher struct {
	mu      sync.RWMutex
	aliases *config.AliasConfig
	byExec  map[string]string
}

// NewMatcher creates a matcher with the given aliases (may be nil).
func NewMatcher(aliases *config.AliasConfig) *Matcher {
	return &Matcher{aliases: aliases, byExec: make(map[string]string)}
}

// Build reloads the exec name map from the apps table. When two apps share
// an executable the first by package id wins.
func (m *Matcher) Build(st *store.Store) error {
	apps, err := st.ListApps()
	if err != nil {
		return fmt.Errorf("failed to list apps: %w", err)
	}

	byExec := make(map[string]string, len(apps))
	for _, app := range apps {
		if app.ExecName == "" {
			continue
		}
		if _, taken := byExec[app.ExecName]; !taken {
			byExec[app.ExecName] = app.PackageID
		}
	}

	m.mu.Lock()
	m.byExec = byExec
	m.mu.Unlock()
	return nil
}

// Match returns the package id for argv0.
func (m *Matcher) Match(argv0 string) (string, bool) {
	name := filepath.Base(argv0)
	if id, ok := m.aliases.Resolve(name); ok {
		return id, true
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.byExec[name]
	return id, ok
}
