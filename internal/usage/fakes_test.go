package usage

import (
	"context"
	"fmt"
	"sync"
)

type fakeStats struct {
	mu      sync.Mutex
	records []UsageRecord
	err     error
	block   chan struct{}
	calls   int
}

func (f *fakeStats) QueryDaily(ctx context.Context, startMs, endMs int64) ([]UsageRecord, error) {
	f.mu.Lock()
	f.calls++
	block := f.block
	f.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f.records, f.err
}

func (f *fakeStats) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeResolver map[string]AppMetadata

func (f fakeResolver) Resolve(_ context.Context, packageID string) (AppMetadata, error) {
	meta, ok := f[packageID]
	if !ok {
		return AppMetadata{}, fmt.Errorf("package %s: %w", packageID, ErrMetadataNotFound)
	}
	return meta, nil
}

type staticPermission bool

func (p staticPermission) Granted() bool { return bool(p) }
