package usage

import "context"

// StatsService is the platform usage-accounting service. QueryDaily returns
// daily-granularity per-app aggregates overlapping [startMs, endMs].
type StatsService interface {
	QueryDaily(ctx context.Context, startMs, endMs int64) ([]UsageRecord, error)
}

// MetadataResolver is the package-metadata service. Resolve returns an error
// matching ErrMetadataNotFound when the package is not installed.
type MetadataResolver interface {
	Resolve(ctx context.Context, packageID string) (AppMetadata, error)
}

// PermissionReader exposes the committed permission decision. The query
// adapter consults it instead of re-deriving permission itself.
type PermissionReader interface {
	Granted() bool
}
