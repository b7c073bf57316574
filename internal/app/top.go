package app

import (
	"fmt"
	"time"

	"github.com/blackwell-systems/habitlens/internal/analyzer"
	"github.com/blackwell-systems/habitlens/internal/output"
	"github.com/spf13/cobra"
)

var (
	topDays   int
	topLimit  int
	topTrend  bool
	topFormat string

	topCmd = &cobra.Command{
		Use:   "top",
		Short: "Rank apps by usage over the past days",
		Long: `Rank applications by foreground time over the last N calendar days and
classify how often each one is used.

--days N counts today as the first day: --days 7 covers today and the six
days before it. This differs from 'habitlens usage past N', which starts at
midnight N days ago and so also includes today on top of the N full days.

Each day is queried on its own, so the days used and the daily average
reflect real calendar days. Frequency is daily when an app was used on at
least 70% of the days, then weekly, monthly or rare.`,
		Example: `  # Past week
  habitlens top

  # Past month with a per-day breakdown
  habitlens top --days 30 --trend`,
		Args: cobra.NoArgs,
		RunE: runTop,
	}
)

func init() {
	topCmd.Flags().IntVarP(&topDays, "days", "d", 7, "number of calendar days, including today")
	topCmd.Flags().IntVarP(&topLimit, "top", "n", 10, "number of apps to show (0 = all)")
	topCmd.Flags().BoolVar(&topTrend, "trend", false, "also show one row per day")
	topCmd.Flags().StringVar(&topFormat, "format", "table", "output format: table, json or yaml")

	RootCmd.AddCommand(topCmd)
}

type topReport struct {
	Days  int                 `json:"days" yaml:"days"`
	Apps  []analyzer.AppStats `json:"apps" yaml:"apps"`
	Trend []analyzer.DayUsage `json:"trend,omitempty" yaml:"trend,omitempty"`

	AccessSkipped bool `json:"accessSkipped,omitempty" yaml:"accessSkipped,omitempty"`
}

func runTop(cmd *cobra.Command, args []string) error {
	format, err := output.ParseFormat(topFormat)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	e, err := openEnv(out)
	if err != nil {
		return err
	}
	defer e.Close()

	ctx := cmd.Context()
	checkAccess(ctx, e.perms)

	spinner := output.NewSpinner(out, fmt.Sprintf("Loading %d days of usage...", topDays))
	if format == output.FormatTable {
		spinner.Start()
	}
	trend, err := e.analyzer.DailyTrend(ctx, topDays)
	spinner.Stop()
	skipped := false
	if err != nil {
		if !skippedAccessError(e, err) {
			return err
		}
		skipped = true
	}

	stats := analyzer.Stats(trend)
	if topLimit > 0 && len(stats) > topLimit {
		stats = stats[:topLimit]
	}

	if format != output.FormatTable {
		report := topReport{Days: topDays, Apps: stats, AccessSkipped: skipped}
		if topTrend {
			report.Trend = trend
		}
		return output.Encode(out, format, report)
	}

	opts := output.Options{Color: output.IsColorEnabled(out)}
	fmt.Fprintf(out, "Top apps, last %d days\n\n", topDays)
	if skipped {
		fmt.Fprintln(out, output.SkippedNotice)
		return nil
	}
	fmt.Fprint(out, output.RenderStatsTable(stats, opts))

	if busiest, ok := analyzer.Busiest(trend); ok && busiest.ForegroundMs > 0 {
		fmt.Fprintf(out, "\nBusiest day: %s (%s)\n", busiest.Date, output.FormatDuration(time.Duration(busiest.ForegroundMs)*time.Millisecond))
	}
	if topTrend {
		fmt.Fprintln(out)
		fmt.Fprint(out, output.RenderTrendTable(trend, opts))
	}
	return nil
}
