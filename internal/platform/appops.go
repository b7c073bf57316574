package platform

import (
	"context"

	"github.com/blackwell-systems/habitlens/internal/store"
)

// AppOps exposes the usage-stats app-op recorded in the store.
type AppOps struct {
	store *store.Store
}

// NewAppOps creates an AppOps view of st.
func NewAppOps(st *store.Store) *AppOps {
	return &AppOps{store: st}
}

// UsageAllowed reports whether the usage-stats op is in the allowed mode.
// Store failures are returned as errors; the permission gate treats them as
// a failed check.
func (a *AppOps) UsageAllowed(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	mode, err := a.store.GetOpMode(store.OpGetUsageStats)
	if err != nil {
		return false, err
	}
	return mode == store.ModeAllowed, nil
}

// Mode returns the raw mode of the usage-stats op.
func (a *AppOps) Mode() (string, error) {
	return a.store.GetOpMode(store.OpGetUsageStats)
}

// SetMode changes the usage-stats op. This is the user's grant surface and
// is never called by the pipeline itself.
func (a *AppOps) SetMode(mode string) error {
	return a.store.SetOpMode(store.OpGetUsageStats, mode)
}
