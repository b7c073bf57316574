package permission

import (
	"context"
	"errors"
	"fmt"

	"github.com/blackwell-systems/habitlens/internal/usage"
	"go.uber.org/zap"
)

// OpChecker reports whether the usage-stats app-op is allowed for this
// process.
type OpChecker interface {
	UsageAllowed(ctx context.Context) (bool, error)
}

// Launcher opens the system surface where the user grants usage access. It
// returns once the surface is launched, not once the user has decided.
type Launcher interface {
	OpenUsageAccessSettings(ctx context.Context) error
}

// Gate answers whether usage access is granted. Check fails closed: when
// the answer cannot be obtained it returns false together with an error
// matching usage.ErrPermissionUnavailable.
type Gate interface {
	Check(ctx context.Context) (bool, error)
	Request(ctx context.Context) error
}

// AppOpsGate is a Gate backed by the app-ops table and a settings launcher.
type AppOpsGate struct {
	ops      OpChecker
	launcher Launcher
	logger   *zap.Logger
}

// NewAppOpsGate creates a gate. Either collaborator may be nil, in which
// case the corresponding operation reports the service as unavailable.
func NewAppOpsGate(ops OpChecker, launcher Launcher, logger *zap.Logger) *AppOpsGate {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AppOpsGate{ops: ops, launcher: launcher, logger: logger}
}

// Check polls the app-ops service.
func (g *AppOpsGate) Check(ctx context.Context) (bool, error) {
	if g.ops == nil {
		return false, fmt.Errorf("%w: no app-ops service", usage.ErrPermissionUnavailable)
	}

	allowed, err := g.ops.UsageAllowed(ctx)
	if err != nil {
		g.logger.Warn("usage access check failed, treating as denied", zap.Error(err))
		return false, fmt.Errorf("%w: %w", usage.ErrPermissionUnavailable, err)
	}
	return allowed, nil
}

// Request opens the usage-access settings surface.
func (g *AppOpsGate) Request(ctx context.Context) error {
	if g.launcher == nil {
		return errors.New("no settings launcher configured")
	}
	if err := g.launcher.OpenUsageAccessSettings(ctx); err != nil {
		return fmt.Errorf("failed to open usage access settings: %w", err)
	}
	return nil
}
