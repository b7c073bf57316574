package usage

import (
	"context"
	"time"
)

// Aggregator resolves named windows to normalized usage.
type Aggregator struct {
	windows    Windows
	adapter    *QueryAdapter
	normalizer *Normalizer
}

// NewAggregator wires the window builder, query adapter and normalizer.
func NewAggregator(windows Windows, adapter *QueryAdapter, normalizer *Normalizer) *Aggregator {
	return &Aggregator{
		windows:    windows,
		adapter:    adapter,
		normalizer: normalizer,
	}
}

// Windows returns the window builder the aggregator uses.
func (a *Aggregator) Windows() Windows {
	return a.windows
}

// Usage queries and normalizes an arbitrary window.
func (a *Aggregator) Usage(ctx context.Context, w TimeWindow) ([]UsageInfo, error) {
	records, err := a.adapter.QueryUsage(ctx, w)
	if err != nil {
		return nil, err
	}
	return a.normalizer.Normalize(ctx, records), nil
}

// Today returns usage from local midnight to now.
func (a *Aggregator) Today(ctx context.Context) ([]UsageInfo, error) {
	return a.Usage(ctx, a.windows.Today())
}

// Yesterday returns usage for the whole previous calendar day.
func (a *Aggregator) Yesterday(ctx context.Context) ([]UsageInfo, error) {
	return a.Usage(ctx, a.windows.Yesterday())
}

// PastDays returns usage from midnight n days ago to now.
func (a *Aggregator) PastDays(ctx context.Context, n int) ([]UsageInfo, error) {
	w, err := a.windows.PastDays(n)
	if err != nil {
		return nil, err
	}
	return a.Usage(ctx, w)
}

// ForDate returns usage for the calendar day containing d.
func (a *Aggregator) ForDate(ctx context.Context, d time.Time) ([]UsageInfo, error) {
	return a.Usage(ctx, a.windows.ForDate(d))
}
