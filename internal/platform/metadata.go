package platform

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/blackwell-systems/habitlens/internal/store"
	"github.com/blackwell-systems/habitlens/internal/usage"
)

// MetadataResolver resolves package ids against the scanned apps table.
type MetadataResolver struct {
	store *store.Store
	caps  usage.Capabilities
}

// NewMetadataResolver creates a resolver.
func NewMetadataResolver(st *store.Store, caps usage.Capabilities) *MetadataResolver {
	return &MetadataResolver{store: st, caps: caps}
}

// Resolve looks up packageID. Packages missing from the apps table are
// reported with usage.ErrMetadataNotFound.
func (r *MetadataResolver) Resolve(ctx context.Context, packageID string) (usage.AppMetadata, error) {
	if err := ctx.Err(); err != nil {
		return usage.AppMetadata{}, err
	}

	app, err := r.store.GetApp(packageID)
	if errors.Is(err, sql.ErrNoRows) {
		return usage.AppMetadata{}, fmt.Errorf("%w: %s", usage.ErrMetadataNotFound, packageID)
	}
	if err != nil {
		return usage.AppMetadata{}, err
	}

	name := app.Label
	if name == "" {
		name = packageID
	}

	return usage.AppMetadata{
		PackageID:   packageID,
		DisplayName: name,
		IsSystemApp: app.IsSystem,
		Category:    usage.CategoryFromCode(app.Category, r.caps.CategoriesSupported),
	}, nil
}
