package usage

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type errResolver struct{}

func (errResolver) Resolve(context.Context, string) (AppMetadata, error) {
	return AppMetadata{}, errors.New("binder died")
}

func TestNormalize_SocialApp(t *testing.T) {
	const now = int64(1710496800000)
	n := NewNormalizer(fakeResolver{
		"com.example.social": {PackageID: "com.example.social", DisplayName: "Social App"},
	}, nil)

	got := n.Normalize(context.Background(), []UsageRecord{{
		PackageID:       "com.example.social",
		TotalForeground: 1800000,
		LastUsedAt:      now,
		FirstUsedAt:     now - 1800000,
		LaunchCount:     5,
	}})

	want := []UsageInfo{{
		PackageID:       "com.example.social",
		AppName:         "Social App",
		TotalForeground: 1800000,
		LastUsedAt:      now,
		FirstUsedAt:     now - 1800000,
		LaunchCount:     5,
	}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Normalize() mismatch (-want +got):\n%s", diff)
	}
}

func TestNormalize_DropsSystemApps(t *testing.T) {
	n := NewNormalizer(fakeResolver{
		"com.android.systemui": {PackageID: "com.android.systemui", DisplayName: "System UI", IsSystemApp: true},
	}, nil)

	got := n.Normalize(context.Background(), []UsageRecord{
		{PackageID: "com.android.systemui", TotalForeground: 86400000},
		{PackageID: "com.android.systemui", TotalForeground: 1},
	})
	assert.Empty(t, got)
}

func TestNormalize_DropsZeroUsage(t *testing.T) {
	n := NewNormalizer(fakeResolver{
		"a": {PackageID: "a", DisplayName: "A"},
		"b": {PackageID: "b", DisplayName: "B"},
	}, nil)

	got := n.Normalize(context.Background(), []UsageRecord{
		{PackageID: "a", TotalForeground: 0},
		{PackageID: "b", TotalForeground: 10},
		{PackageID: "a", TotalForeground: -5},
	})
	require.Len(t, got, 1)
	assert.Equal(t, "b", got[0].PackageID)
	for _, info := range got {
		assert.Positive(t, info.TotalForeground)
	}
}

func TestNormalize_DropsUnresolvablePackages(t *testing.T) {
	n := NewNormalizer(fakeResolver{
		"kept": {PackageID: "kept", DisplayName: "Kept"},
	}, nil)

	got := n.Normalize(context.Background(), []UsageRecord{
		{PackageID: "uninstalled", TotalForeground: 100},
		{PackageID: "kept", TotalForeground: 200},
	})
	require.Len(t, got, 1)
	assert.Equal(t, "Kept", got[0].AppName)

	// Any resolution failure drops the record, not the batch.
	assert.Empty(t, NewNormalizer(errResolver{}, nil).Normalize(context.Background(), []UsageRecord{
		{PackageID: "kept", TotalForeground: 200},
	}))
}

func TestNormalize_LabelFallsBackToPackageID(t *testing.T) {
	n := NewNormalizer(fakeResolver{
		"org.example.nolabel": {PackageID: "org.example.nolabel"},
	}, nil)

	got := n.Normalize(context.Background(), []UsageRecord{{PackageID: "org.example.nolabel", TotalForeground: 1}})
	require.Len(t, got, 1)
	assert.Equal(t, "org.example.nolabel", got[0].AppName)
}

func TestNormalize_PreservesOrderAndIsPure(t *testing.T) {
	resolver := fakeResolver{
		"c": {PackageID: "c", DisplayName: "C"},
		"a": {PackageID: "a", DisplayName: "A"},
		"b": {PackageID: "b", DisplayName: "B"},
		"s": {PackageID: "s", DisplayName: "S", IsSystemApp: true},
	}
	n := NewNormalizer(resolver, nil)
	records := []UsageRecord{
		{PackageID: "c", TotalForeground: 1},
		{PackageID: "s", TotalForeground: 900},
		{PackageID: "a", TotalForeground: 3},
		{PackageID: "b", TotalForeground: 2},
	}

	first := n.Normalize(context.Background(), records)
	second := n.Normalize(context.Background(), records)

	var order []string
	for _, info := range first {
		order = append(order, info.PackageID)
	}
	assert.Equal(t, []string{"c", "a", "b"}, order)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("second Normalize() differs (-first +second):\n%s", diff)
	}
}

func TestNormalize_NilResolver(t *testing.T) {
	got := NewNormalizer(nil, nil).Normalize(context.Background(), []UsageRecord{{PackageID: "a", TotalForeground: 1}})
	assert.NotNil(t, got)
	assert.Empty(t, got)
}
