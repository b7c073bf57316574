package analyzer

import (
	"context"
	"errors"
	"sort"

	"go.uber.org/zap"

	"github.com/blackwell-systems/habitlens/internal/usage"
)

// Merge folds the per-day records of a window into one entry per app:
// foreground time and launches are summed, first and last use widened. The
// result is ranked by foreground time, then app name.
func Merge(infos []usage.UsageInfo) []AppUsage {
	apps := make([]AppUsage, 0, len(infos))
	for _, info := range infos {
		apps = append(apps, AppUsage{
			PackageID:    info.PackageID,
			AppName:      info.AppName,
			ForegroundMs: info.TotalForeground,
			LaunchCount:  info.LaunchCount,
			FirstUsedAt:  info.FirstUsedAt,
			LastUsedAt:   info.LastUsedAt,
		})
	}
	return mergeApps(apps)
}

// Top returns the first n apps of a ranked slice. n <= 0 returns all of them.
func Top(apps []AppUsage, n int) []AppUsage {
	if n <= 0 || n >= len(apps) {
		return apps
	}
	return apps[:n]
}

func sortApps(apps []AppUsage) {
	sort.SliceStable(apps, func(i, j int) bool {
		if apps[i].ForegroundMs != apps[j].ForegroundMs {
			return apps[i].ForegroundMs > apps[j].ForegroundMs
		}
		if apps[i].AppName != apps[j].AppName {
			return apps[i].AppName < apps[j].AppName
		}
		return apps[i].PackageID < apps[j].PackageID
	})
}

// CategoryTotals sums foreground time per category, largest first. Apps the
// resolver cannot place are counted as usage.CategoryUnknown.
func (a *Analyzer) CategoryTotals(ctx context.Context, apps []AppUsage) ([]CategoryTotal, error) {
	totals := make(map[usage.Category]*CategoryTotal)

	for _, app := range apps {
		cat := usage.CategoryUnknown
		if a.resolver != nil {
			meta, err := a.resolver.Resolve(ctx, app.PackageID)
			switch {
			case err == nil:
				cat = meta.Category
			case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
				return nil, err
			default:
				a.logger.Debug("category lookup failed",
					zap.String("package", app.PackageID),
					zap.Error(err))
			}
		}

		t, ok := totals[cat]
		if !ok {
			t = &CategoryTotal{Category: cat}
			totals[cat] = t
		}
		t.ForegroundMs += app.ForegroundMs
		t.Apps++
	}

	result := make([]CategoryTotal, 0, len(totals))
	for _, t := range totals {
		result = append(result, *t)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].ForegroundMs != result[j].ForegroundMs {
			return result[i].ForegroundMs > result[j].ForegroundMs
		}
		return result[i].Category < result[j].Category
	})
	return result, nil
}
