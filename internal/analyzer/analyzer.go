// Package analyzer turns normalized usage into rankings, category totals and
// multi-day trends.
package analyzer

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/blackwell-systems/habitlens/internal/usage"
)

// Source is the slice of usage.Aggregator the analyzer needs.
type Source interface {
	Windows() usage.Windows
	Usage(ctx context.Context, w usage.TimeWindow) ([]usage.UsageInfo, error)
}

// maxParallelDays bounds concurrent per-day queries in DailyTrend.
const maxParallelDays = 4

// Analyzer computes statistics over usage returned by a Source.
type Analyzer struct {
	source   Source
	resolver usage.MetadataResolver
	logger   *zap.Logger
}

// New creates a new Analyzer. resolver is only needed for CategoryTotals and
// may be nil otherwise.
func New(source Source, resolver usage.MetadataResolver, logger *zap.Logger) *Analyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Analyzer{source: source, resolver: resolver, logger: logger}
}

// Window fetches usage for w and merges it per app, ranked by foreground time.
func (a *Analyzer) Window(ctx context.Context, w usage.TimeWindow) ([]AppUsage, error) {
	infos, err := a.source.Usage(ctx, w)
	if err != nil {
		return nil, err
	}
	return Merge(infos), nil
}

// TopApps returns the n apps with the most foreground time over the past
// days days (today only when days is 0). n <= 0 returns every app.
func (a *Analyzer) TopApps(ctx context.Context, days, n int) ([]AppUsage, error) {
	w := a.source.Windows().Today()
	if days > 0 {
		var err error
		if w, err = a.source.Windows().PastDays(days); err != nil {
			return nil, err
		}
	}
	apps, err := a.Window(ctx, w)
	if err != nil {
		return nil, err
	}
	return Top(apps, n), nil
}

// dayKey formats t as a local calendar date.
func dayKey(t time.Time) string {
	return t.Format(time.DateOnly)
}
