// Package output renders usage, trends and permission state for the
// terminal.
//
// Tables are built with go-pretty and returned as strings. Color is used
// only when the target is a terminal and NO_COLOR is unset. Structured
// output (JSON, YAML) goes through Encode.
package output

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/blackwell-systems/habitlens/internal/analyzer"
	"github.com/blackwell-systems/habitlens/internal/permission"
	"github.com/blackwell-systems/habitlens/internal/usage"
)

// IsColorEnabled reports whether ANSI colors should be written to w.
func IsColorEnabled(w io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return writerIsTTY(w)
}

// Options controls table rendering.
type Options struct {
	Now      time.Time // reference for relative times; zero means time.Now
	Color    bool
	Launches bool // show the launch count column
	Skipped  bool // the user chose to continue without usage access
}

func (o Options) now() time.Time {
	if o.Now.IsZero() {
		return time.Now()
	}
	return o.Now
}

func (o Options) paint(c text.Colors, s string) string {
	if !o.Color {
		return s
	}
	return c.Sprint(s)
}

func newTable() table.Writer {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleLight)
	tw.Style().Options.SeparateRows = false
	tw.Style().Format.Header = text.FormatDefault
	tw.Style().Format.Footer = text.FormatDefault
	return tw
}

// RenderUsageTable renders ranked per-app usage with a total footer.
func RenderUsageTable(apps []analyzer.AppUsage, opts Options) string {
	if len(apps) == 0 {
		return "No usage recorded for this period.\n"
	}

	now := opts.now()
	tw := newTable()

	header := table.Row{"#", "App", "Time", "Share"}
	if opts.Launches {
		header = append(header, "Launches")
	}
	header = append(header, "Last Used")
	tw.AppendHeader(header)

	var total int64
	for i, app := range apps {
		total += app.ForegroundMs
		row := table.Row{
			i + 1,
			truncate(app.AppName, 28),
			FormatDuration(app.Foreground),
			fmt.Sprintf("%.0f%%", app.Share*100),
		}
		if opts.Launches {
			row = append(row, app.LaunchCount)
		}
		row = append(row, FormatLastUsed(app.LastUsedAt, now))
		tw.AppendRow(row)
	}

	footer := table.Row{"", "Total", opts.paint(text.Colors{text.Bold}, FormatDuration(msDuration(total))), ""}
	if opts.Launches {
		footer = append(footer, "")
	}
	footer = append(footer, "")
	tw.AppendFooter(footer)

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
	})

	return tw.Render() + "\n"
}

// RenderStatsTable renders per-app summaries of a multi-day trend.
func RenderStatsTable(stats []analyzer.AppStats, opts Options) string {
	if len(stats) == 0 {
		return "No usage recorded for this period.\n"
	}

	tw := newTable()
	tw.AppendHeader(table.Row{"App", "Total", "Days Used", "Daily Avg", "Frequency"})
	for _, st := range stats {
		tw.AppendRow(table.Row{
			truncate(st.AppName, 28),
			FormatDuration(st.Foreground),
			fmt.Sprintf("%d/%d", st.ActiveDays, st.Days),
			FormatDuration(msDuration(st.DailyAvgMs)),
			opts.paint(frequencyColor(st.Frequency), st.Frequency),
		})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
	})
	return tw.Render() + "\n"
}

// RenderTrendTable renders one row per day with a proportional bar.
func RenderTrendTable(trend []analyzer.DayUsage, opts Options) string {
	if len(trend) == 0 {
		return "No days to show.\n"
	}

	var peak int64
	for _, d := range trend {
		peak = max(peak, d.ForegroundMs)
	}

	tw := newTable()
	tw.AppendHeader(table.Row{"Date", "Time", "", "Top App"})
	for _, d := range trend {
		top := "-"
		if len(d.Apps) > 0 {
			top = truncate(d.Apps[0].AppName, 24)
		}
		tw.AppendRow(table.Row{
			d.Date,
			FormatDuration(msDuration(d.ForegroundMs)),
			opts.paint(text.Colors{text.FgCyan}, bar(d.ForegroundMs, peak, 20)),
			top,
		})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{{Number: 2, Align: text.AlignRight}})
	return tw.Render() + "\n"
}

// RenderCategoryTable renders foreground time per category.
func RenderCategoryTable(totals []analyzer.CategoryTotal) string {
	if len(totals) == 0 {
		return "No categories to show.\n"
	}

	tw := newTable()
	tw.AppendHeader(table.Row{"Category", "Time", "Apps"})
	for _, c := range totals {
		tw.AppendRow(table.Row{string(c.Category), FormatDuration(msDuration(c.ForegroundMs)), c.Apps})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
	})
	return tw.Render() + "\n"
}

// RenderPermission describes the permission snapshot in one or two lines.
func RenderPermission(snap permission.Snapshot, opts Options) string {
	var sb strings.Builder

	state := snap.State.String()
	switch snap.State {
	case permission.Granted:
		state = opts.paint(text.Colors{text.FgGreen}, state)
	case permission.Denied:
		state = opts.paint(text.Colors{text.FgRed}, state)
	default:
		state = opts.paint(text.Colors{text.FgHiBlack}, state)
	}

	fmt.Fprintf(&sb, "Usage access: %s", state)
	if !snap.CheckedAt.IsZero() {
		fmt.Fprintf(&sb, " (checked %s)", humanize.RelTime(snap.CheckedAt, opts.now(), "ago", "from now"))
	}
	sb.WriteString("\n")

	switch {
	case snap.Err != nil:
		fmt.Fprintf(&sb, "  %s\n", PermissionMessage(snap.Err, opts.Skipped))
	case snap.State == permission.Denied && opts.Skipped:
		fmt.Fprintf(&sb, "  %s\n", SkippedNotice)
	case snap.State == permission.Denied:
		sb.WriteString("  Run 'habitlens access request' to grant usage access.\n")
	}
	return sb.String()
}

// SkippedNotice replaces the grant prompt once the user has skipped it.
const SkippedNotice = "Continuing without usage access. Usage views stay empty until access is granted."

// PermissionMessage is UserMessage without the grant prompt when the user
// has skipped it.
func PermissionMessage(err error, skipped bool) string {
	if skipped && (errors.Is(err, usage.ErrPermissionDenied) || errors.Is(err, usage.ErrPermissionUnavailable)) {
		return SkippedNotice
	}
	return UserMessage(err)
}

// UserMessage maps pipeline errors to what the user should be told.
// Metadata errors never reach the user; they are dropped by the normalizer.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, usage.ErrPermissionDenied), errors.Is(err, usage.ErrPermissionUnavailable):
		return "Usage access is not granted. Run 'habitlens access request' to grant it."
	case errors.Is(err, usage.ErrQuery):
		return "Couldn't load usage data. Check that the watcher is running and try again."
	default:
		return err.Error()
	}
}

// FormatDuration renders foreground time as "2h 05m", "42m" or "<1m".
func FormatDuration(d time.Duration) string {
	switch {
	case d <= 0:
		return "0m"
	case d < time.Minute:
		return "<1m"
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d/time.Minute))
	default:
		h := int(d / time.Hour)
		m := int((d % time.Hour) / time.Minute)
		return fmt.Sprintf("%dh %02dm", h, m)
	}
}

// FormatLastUsed renders an epoch-ms timestamp relative to now.
func FormatLastUsed(ms int64, now time.Time) string {
	if ms <= 0 {
		return "never"
	}
	return humanize.RelTime(time.UnixMilli(ms), now, "ago", "from now")
}

func frequencyColor(freq string) text.Colors {
	switch freq {
	case analyzer.FrequencyDaily:
		return text.Colors{text.FgRed}
	case analyzer.FrequencyWeekly:
		return text.Colors{text.FgYellow}
	default:
		return text.Colors{text.FgGreen}
	}
}

func bar(value, peak int64, width int) string {
	if peak <= 0 || value <= 0 {
		return ""
	}
	n := int(value * int64(width) / peak)
	if n == 0 {
		n = 1
	}
	return strings.Repeat("█", n)
}

// truncate shortens s to maxLen runes, adding "..." when cut.
func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}

func msDuration(ms int64) time.Duration {
	return time.Duration(ms) * time.Millisecond
}
