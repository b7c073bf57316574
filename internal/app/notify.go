package app

import (
	"context"

	"github.com/blackwell-systems/habitlens/internal/permission"
	"github.com/blackwell-systems/habitlens/internal/settings"
	"github.com/gen2brain/beeep"
	"go.uber.org/zap"
)

// notifyFunc posts a desktop notification. Replaced in tests.
var notifyFunc = func(title, message string) error {
	beeep.AppName = "habitlens"
	return beeep.Notify(title, message, "")
}

// notifyOnGrant posts a desktop notification each time the permission moves
// to granted from a committed denial, when notifications are enabled. It
// returns when ctx is done or snaps is closed.
func notifyOnGrant(ctx context.Context, snaps <-chan permission.Snapshot, prefs *settings.Store, log *zap.Logger) {
	prev := permission.Unknown
	for {
		var snap permission.Snapshot
		select {
		case <-ctx.Done():
			return
		case s, ok := <-snaps:
			if !ok {
				return
			}
			snap = s
		}

		if !snap.State.Committed() {
			continue
		}
		granted := snap.State == permission.Granted && prev == permission.Denied
		prev = snap.State
		if !granted {
			continue
		}

		cfg, err := prefs.Load()
		if err != nil {
			log.Warn("failed to load settings", zap.Error(err))
			continue
		}
		if !cfg.NotificationsEnabled {
			continue
		}
		if err := notifyFunc("habitlens", "Usage access granted. Usage data is now available."); err != nil {
			log.Debug("desktop notification failed", zap.Error(err))
		}
	}
}
