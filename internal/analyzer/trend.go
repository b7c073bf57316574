package analyzer

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DailyTrend returns one DayUsage per calendar day for the last days days,
// oldest first and ending with today. Days are fetched concurrently; the
// first failing day cancels the rest.
func (a *Analyzer) DailyTrend(ctx context.Context, days int) ([]DayUsage, error) {
	if days < 1 {
		return nil, fmt.Errorf("days must be at least 1, got %d", days)
	}

	windows := a.source.Windows()
	today := windows.Today().StartTime(windows.Location())
	result := make([]DayUsage, days)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelDays)

	for i := 0; i < days; i++ {
		day := today.AddDate(0, 0, i-(days-1))
		g.Go(func() error {
			infos, err := a.source.Usage(gctx, windows.ForDate(day))
			if err != nil {
				return fmt.Errorf("failed to load usage for %s: %w", dayKey(day), err)
			}
			apps := Merge(infos)
			var total int64
			for _, app := range apps {
				total += app.ForegroundMs
			}
			result[i] = DayUsage{Date: dayKey(day), ForegroundMs: total, Apps: apps}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	a.logger.Debug("daily trend loaded", zap.Int("days", days))
	return result, nil
}

// Stats summarizes each app over a trend: totals, the number of days it was
// used and a frequency class. Results are ranked by foreground time.
func Stats(trend []DayUsage) []AppStats {
	byPkg := make(map[string]*AppStats)
	var all []AppUsage

	for _, day := range trend {
		for _, app := range day.Apps {
			all = append(all, app)
			st, ok := byPkg[app.PackageID]
			if !ok {
				st = &AppStats{}
				byPkg[app.PackageID] = st
			}
			st.ActiveDays++
		}
	}

	merged := mergeApps(all)
	stats := make([]AppStats, 0, len(merged))
	for _, app := range merged {
		st := byPkg[app.PackageID]
		st.AppUsage = app
		st.Days = len(trend)
		st.DailyAvgMs = app.ForegroundMs / int64(st.ActiveDays)
		st.Frequency = ClassifyFrequency(st.ActiveDays, st.Days)
		stats = append(stats, *st)
	}
	return stats
}

// mergeApps folds entries sharing a package id and ranks the result.
func mergeApps(apps []AppUsage) []AppUsage {
	byPkg := make(map[string]*AppUsage)
	var order []string
	var total int64

	for _, app := range apps {
		total += app.ForegroundMs
		cur, ok := byPkg[app.PackageID]
		if !ok {
			c := app
			byPkg[app.PackageID] = &c
			order = append(order, app.PackageID)
			continue
		}
		cur.ForegroundMs += app.ForegroundMs
		cur.LaunchCount += app.LaunchCount
		if app.FirstUsedAt < cur.FirstUsedAt {
			cur.FirstUsedAt = app.FirstUsedAt
		}
		if app.LastUsedAt > cur.LastUsedAt {
			cur.LastUsedAt = app.LastUsedAt
		}
	}

	out := make([]AppUsage, 0, len(order))
	for _, pkg := range order {
		app := byPkg[pkg]
		app.Foreground = msDuration(app.ForegroundMs)
		if total > 0 {
			app.Share = float64(app.ForegroundMs) / float64(total)
		}
		out = append(out, *app)
	}
	sortApps(out)
	return out
}

// ClassifyFrequency buckets how regularly an app was used: on at least 70%
// of days is daily, at least once a week is weekly, at least once in 30 days
// is monthly, anything less is rare.
func ClassifyFrequency(activeDays, days int) string {
	if activeDays <= 0 || days <= 0 {
		return FrequencyNever
	}
	switch {
	case activeDays*10 >= days*7:
		return FrequencyDaily
	case activeDays*7 >= days:
		return FrequencyWeekly
	case activeDays*30 >= days:
		return FrequencyMonthly
	default:
		return FrequencyRare
	}
}

// Busiest returns the day with the most foreground time, or false for an
// empty trend.
func Busiest(trend []DayUsage) (DayUsage, bool) {
	if len(trend) == 0 {
		return DayUsage{}, false
	}
	sorted := append([]DayUsage(nil), trend...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].ForegroundMs > sorted[j].ForegroundMs
	})
	return sorted[0], true
}

func msDuration(ms int64) time.Duration {
	return time.Duration(ms) * time.Millisecond
}
