package app

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/blackwell-systems/habitlens/internal/analyzer"
	"github.com/blackwell-systems/habitlens/internal/output"
	"github.com/blackwell-systems/habitlens/internal/usage"
	"github.com/spf13/cobra"
)

var (
	usageTop        int
	usageFormat     string
	usageCategories bool

	usageCmd = &cobra.Command{
		Use:   "usage",
		Short: "Show per-app foreground time for a time window",
		Long: `Show how long each application was in the foreground during a window.

Windows are local calendar days: today runs from midnight to now, yesterday
and single dates cover the whole day, and "past N" runs from midnight N days
ago to now, so it covers the N previous days plus today. ('habitlens top
--days N' instead counts today as one of its N days.)

Apps are ranked by foreground time. Apps that are no longer installed are
left out.`,
		Example: `  habitlens usage today
  habitlens usage yesterday --top 5
  habitlens usage past 7 --categories
  habitlens usage date 2024-03-15 --format json`,
	}

	usageTodayCmd = &cobra.Command{
		Use:   "today",
		Short: "Usage since local midnight",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUsage(cmd, func(w usage.Windows) (usage.TimeWindow, error) {
				return w.Today(), nil
			})
		},
	}

	usageYesterdayCmd = &cobra.Command{
		Use:   "yesterday",
		Short: "Usage for the previous calendar day",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUsage(cmd, func(w usage.Windows) (usage.TimeWindow, error) {
				return w.Yesterday(), nil
			})
		},
	}

	usagePastCmd = &cobra.Command{
		Use:   "past N",
		Short: "Usage from midnight N days ago until now",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid number of days %q", args[0])
			}
			return runUsage(cmd, func(w usage.Windows) (usage.TimeWindow, error) {
				return w.PastDays(n)
			})
		},
	}

	usageDateCmd = &cobra.Command{
		Use:   "date YYYY-MM-DD",
		Short: "Usage for a single calendar day",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := time.ParseInLocation(time.DateOnly, args[0], time.Local)
			if err != nil {
				return fmt.Errorf("invalid date %q (expected YYYY-MM-DD)", args[0])
			}
			return runUsage(cmd, func(w usage.Windows) (usage.TimeWindow, error) {
				return w.ForDate(d), nil
			})
		},
	}
)

func init() {
	usageCmd.PersistentFlags().IntVarP(&usageTop, "top", "n", 0, "show only the N most used apps (0 = all)")
	usageCmd.PersistentFlags().StringVar(&usageFormat, "format", "table", "output format: table, json or yaml")
	usageCmd.PersistentFlags().BoolVar(&usageCategories, "categories", false, "also show totals per category")

	usageCmd.AddCommand(usageTodayCmd, usageYesterdayCmd, usagePastCmd, usageDateCmd)
	RootCmd.AddCommand(usageCmd)
}

// usageReport is the machine-readable form of a usage view.
type usageReport struct {
	Start      time.Time                `json:"start" yaml:"start"`
	End        time.Time                `json:"end" yaml:"end"`
	Apps       []analyzer.AppUsage      `json:"apps" yaml:"apps"`
	Categories []analyzer.CategoryTotal `json:"categories,omitempty" yaml:"categories,omitempty"`

	// AccessSkipped is set when the view is empty because the user
	// continues without usage access.
	AccessSkipped bool `json:"accessSkipped,omitempty" yaml:"accessSkipped,omitempty"`
}

func runUsage(cmd *cobra.Command, pick func(usage.Windows) (usage.TimeWindow, error)) error {
	format, err := output.ParseFormat(usageFormat)
	if err != nil {
		return err
	}
	if usageTop < 0 {
		return fmt.Errorf("--top must not be negative")
	}

	out := cmd.OutOrStdout()
	e, err := openEnv(out)
	if err != nil {
		return err
	}
	defer e.Close()

	w, err := pick(e.usage.Windows())
	if err != nil {
		return err
	}

	report, err := buildUsageReport(cmd.Context(), e, w)
	if err != nil {
		return err
	}

	if format != output.FormatTable {
		return output.Encode(out, format, report)
	}

	opts := output.Options{Color: output.IsColorEnabled(out), Launches: cfg.LaunchCountSupported}
	fmt.Fprintf(out, "%s → %s\n\n", report.Start.Format("Mon Jan 2 15:04"), report.End.Format("Mon Jan 2 15:04"))
	if report.AccessSkipped {
		fmt.Fprintln(out, output.SkippedNotice)
		return nil
	}
	fmt.Fprint(out, output.RenderUsageTable(report.Apps, opts))
	if usageCategories && len(report.Categories) > 0 {
		fmt.Fprintln(out)
		fmt.Fprint(out, output.RenderCategoryTable(report.Categories))
	}
	return nil
}

// buildUsageReport checks access, then queries and ranks w. The permission
// error surfaces from the query adapter when access is not granted, unless
// the user skipped the prompt.
func buildUsageReport(ctx context.Context, e *env, w usage.TimeWindow) (usageReport, error) {
	checkAccess(ctx, e.perms)

	report := usageReport{
		Start: time.UnixMilli(w.Start()),
		End:   time.UnixMilli(w.End()),
		Apps:  []analyzer.AppUsage{},
	}

	apps, err := e.analyzer.Window(ctx, w)
	if err != nil {
		if skippedAccessError(e, err) {
			report.AccessSkipped = true
			return report, nil
		}
		return usageReport{}, err
	}

	report.Apps = analyzer.Top(apps, usageTop)
	if usageCategories {
		// Totals cover every app in the window, not only the top N.
		if report.Categories, err = e.analyzer.CategoryTotals(ctx, apps); err != nil {
			return usageReport{}, err
		}
	}
	return report, nil
}
