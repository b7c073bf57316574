// Package scanner builds the installed-app inventory from XDG desktop
// entries. The inventory backs package-metadata lookups and decides which
// executables get a session shim.
package scanner

import (
	"github.com/blackwell-systems/habitlens/internal/store"
	"go.uber.org/zap"
)

// Scanner manages the app inventory.
type Scanner struct {
	store  *store.Store
	logger *zap.Logger
}

// New creates a new Scanner instance with the given store.
func New(store *store.Store, logger *zap.Logger) *Scanner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scanner{store: store, logger: logger}
}
