package usage

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

// Normalizer turns raw records into UsageInfo. It is a pure filter/map stage:
// output order follows input order and ranking is left to callers.
type Normalizer struct {
	resolver MetadataResolver
	logger   *zap.Logger
}

// NewNormalizer creates a Normalizer backed by resolver.
func NewNormalizer(resolver MetadataResolver, logger *zap.Logger) *Normalizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Normalizer{resolver: resolver, logger: logger}
}

// Normalize drops records with no foreground time, records whose package can
// no longer be resolved, and system apps. Resolution failures never fail the
// batch.
func (n *Normalizer) Normalize(ctx context.Context, records []UsageRecord) []UsageInfo {
	out := make([]UsageInfo, 0, len(records))
	if n.resolver == nil {
		return out
	}

	for _, rec := range records {
		if rec.TotalForeground <= 0 {
			continue
		}

		meta, err := n.resolver.Resolve(ctx, rec.PackageID)
		if err != nil {
			if errors.Is(err, ErrMetadataNotFound) {
				n.logger.Debug("dropping usage for uninstalled package", zap.String("package", rec.PackageID))
			} else {
				n.logger.Warn("dropping usage for unresolvable package",
					zap.String("package", rec.PackageID),
					zap.Error(err))
			}
			continue
		}

		if meta.IsSystemApp {
			continue
		}

		name := meta.DisplayName
		if name == "" {
			name = rec.PackageID
		}

		out = append(out, UsageInfo{
			PackageID:       rec.PackageID,
			AppName:         name,
			TotalForeground: rec.TotalForeground,
			LastUsedAt:      rec.LastUsedAt,
			FirstUsedAt:     rec.FirstUsedAt,
			LaunchCount:     rec.LaunchCount,
		})
	}

	return out
}
