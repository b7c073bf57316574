package usage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestAggregator(perms PermissionReader, stats *fakeStats) *Aggregator {
	now := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	resolver := fakeResolver{
		"com.example.social":   {PackageID: "com.example.social", DisplayName: "Social App", Category: CategorySocial},
		"com.android.systemui": {PackageID: "com.android.systemui", DisplayName: "System UI", IsSystemApp: true},
	}
	return NewAggregator(
		NewWindows(fixedClock(now), time.UTC),
		NewQueryAdapter(stats, perms, time.Second, nil),
		NewNormalizer(resolver, nil),
	)
}

func TestAggregator_Pipeline(t *testing.T) {
	stats := &fakeStats{records: []UsageRecord{
		{PackageID: "com.android.systemui", TotalForeground: 5000},
		{PackageID: "com.example.social", TotalForeground: 1800000, LaunchCount: 5},
		{PackageID: "com.example.gone", TotalForeground: 10},
	}}
	agg := newTestAggregator(staticPermission(true), stats)
	ctx := context.Background()

	calls := []func() ([]UsageInfo, error){
		func() ([]UsageInfo, error) { return agg.Today(ctx) },
		func() ([]UsageInfo, error) { return agg.Yesterday(ctx) },
		func() ([]UsageInfo, error) { return agg.PastDays(ctx, 7) },
		func() ([]UsageInfo, error) { return agg.ForDate(ctx, time.Date(2024, 2, 1, 12, 0, 0, 0, time.UTC)) },
	}
	for _, call := range calls {
		got, err := call()
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "Social App", got[0].AppName)
		assert.Equal(t, 30*time.Minute, got[0].Foreground())
	}
	assert.Equal(t, len(calls), stats.callCount())
}

func TestAggregator_PastDaysInvalid(t *testing.T) {
	stats := &fakeStats{}
	agg := newTestAggregator(staticPermission(true), stats)

	_, err := agg.PastDays(context.Background(), 0)
	assert.ErrorIs(t, err, ErrInvalidDays)
	assert.Zero(t, stats.callCount())
}

func TestAggregator_Denied(t *testing.T) {
	stats := &fakeStats{}
	agg := newTestAggregator(staticPermission(false), stats)

	_, err := agg.Today(context.Background())
	assert.ErrorIs(t, err, ErrPermissionDenied)
	assert.Zero(t, stats.callCount())
}
