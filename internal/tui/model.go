// Package tui is the live dashboard of today's usage and the usage-access
// state.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/blackwell-systems/habitlens/internal/analyzer"
	"github.com/blackwell-systems/habitlens/internal/output"
	"github.com/blackwell-systems/habitlens/internal/permission"
)

// FetchFunc loads today's ranked usage.
type FetchFunc func(context.Context) ([]analyzer.AppUsage, error)

type Options struct {
	Interval  time.Duration
	Timeout   time.Duration
	NoColor   bool
	AltScreen bool
	Launches  bool
	Fetch     FetchFunc

	// Permission delivers controller snapshots; Initial is shown until the
	// first one arrives.
	Permission <-chan permission.Snapshot
	Initial    permission.Snapshot

	// Resume is called when the terminal regains focus or the user asks
	// for a refresh. It should trigger a permission re-check.
	Resume func()
	// Request opens the usage-access settings surface.
	Request func(context.Context) error
	// Skipped hides the grant prompt for a user who chose to continue
	// without usage access.
	Skipped bool
}

type Model struct {
	interval time.Duration
	timeout  time.Duration
	fetch    FetchFunc
	perms    <-chan permission.Snapshot
	resume   func()
	request  func(context.Context) error
	launches bool
	skipped  bool

	width  int
	height int
	now    time.Time

	perm          permission.Snapshot
	fetching      bool
	lastSuccessAt time.Time
	lastError     error
	notice        string
	nextFetchAt   time.Time

	apps   []analyzer.AppUsage
	styles styles
}

type styles struct {
	title   lipgloss.Style
	dim     lipgloss.Style
	panel   lipgloss.Style
	label   lipgloss.Style
	value   lipgloss.Style
	ok      lipgloss.Style
	warn    lipgloss.Style
	bad     lipgloss.Style
	accent  lipgloss.Style
	loading lipgloss.Style
}

type pollTickMsg struct {
	at time.Time
}

type clockTickMsg struct {
	at time.Time
}

type fetchResultMsg struct {
	at   time.Time
	apps []analyzer.AppUsage
	err  error
}

type permissionMsg struct {
	snap permission.Snapshot
	ok   bool
}

type requestResultMsg struct {
	err error
}

const (
	defaultInterval = 30 * time.Second
	defaultTimeout  = 10 * time.Second
)

func NewModel(opts Options) Model {
	interval := opts.Interval
	if interval <= 0 {
		interval = defaultInterval
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	fetch := opts.Fetch
	if fetch == nil {
		fetch = func(context.Context) ([]analyzer.AppUsage, error) {
			return nil, errors.New("missing fetch function")
		}
	}
	resume := opts.Resume
	if resume == nil {
		resume = func() {}
	}
	now := time.Now()

	return Model{
		interval:    interval,
		timeout:     timeout,
		fetch:       fetch,
		perms:       opts.Permission,
		resume:      resume,
		request:     opts.Request,
		launches:    opts.Launches,
		skipped:     opts.Skipped,
		now:         now,
		perm:        opts.Initial,
		fetching:    true,
		nextFetchAt: now.Add(interval),
		styles:      defaultStyles(opts.NoColor),
	}
}

func defaultStyles(noColor bool) styles {
	basePanel := lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	if noColor {
		bold := lipgloss.NewStyle().Bold(true)
		plain := lipgloss.NewStyle()
		return styles{
			title:   bold,
			dim:     plain,
			panel:   basePanel,
			label:   bold,
			value:   plain,
			ok:      bold,
			warn:    bold,
			bad:     bold,
			accent:  bold,
			loading: plain,
		}
	}
	return styles{
		title:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("230")).Background(lipgloss.Color("29")).Padding(0, 1),
		dim:     lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		panel:   basePanel.BorderForeground(lipgloss.Color("66")),
		label:   lipgloss.NewStyle().Foreground(lipgloss.Color("109")),
		value:   lipgloss.NewStyle().Foreground(lipgloss.Color("255")),
		ok:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42")),
		warn:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214")),
		bad:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196")),
		accent:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("81")),
		loading: lipgloss.NewStyle().Foreground(lipgloss.Color("117")),
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(fetchCmd(m.fetch, m.timeout), pollCmd(m.interval), clockCmd(), waitPermission(m.perms))
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch v := msg.(type) {
	case tea.KeyMsg:
		switch v.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "r":
			m.resume()
			return m.startFetch()
		case "g":
			if m.request != nil && m.perm.State != permission.Granted {
				return m, requestCmd(m.request, m.timeout)
			}
		}
	case tea.FocusMsg:
		m.resume()
	case tea.WindowSizeMsg:
		m.width = v.Width
		m.height = v.Height
	case pollTickMsg:
		m.nextFetchAt = v.at.Add(m.interval)
		next, cmd := m.startFetch()
		return next, tea.Batch(pollCmd(m.interval), cmd)
	case clockTickMsg:
		m.now = v.at
		return m, clockCmd()
	case permissionMsg:
		if !v.ok {
			m.perms = nil
			return m, nil
		}
		wasGranted := m.perm.State == permission.Granted
		m.perm = v.snap
		cmds := []tea.Cmd{waitPermission(m.perms)}
		if !wasGranted && v.snap.State == permission.Granted {
			m.notice = ""
			next, cmd := m.startFetch()
			m = next.(Model)
			cmds = append(cmds, cmd)
		}
		return m, tea.Batch(cmds...)
	case requestResultMsg:
		if v.err != nil {
			m.notice = "could not open settings: " + v.err.Error()
		} else {
			m.notice = "settings opened; waiting for access to be granted"
		}
	case fetchResultMsg:
		m.fetching = false
		if v.err != nil {
			m.lastError = v.err
			return m, nil
		}
		m.lastError = nil
		m.lastSuccessAt = v.at
		m.apps = v.apps
	}
	return m, nil
}

func (m Model) startFetch() (tea.Model, tea.Cmd) {
	if m.fetching {
		return m, nil
	}
	m.fetching = true
	return m, fetchCmd(m.fetch, m.timeout)
}

func (m Model) View() string {
	if m.width <= 0 || m.height <= 0 {
		return "initializing..."
	}

	header := m.renderHeader()
	body := m.renderBody()
	help := m.styles.dim.Render("q quit · r refresh · g grant access")

	top := lipgloss.JoinVertical(lipgloss.Left, header, body, "")
	return clipToViewport(pinFooterToBottom(top, help, m.height), m.width, m.height)
}

func (m Model) renderHeader() string {
	title := m.styles.title.Render(" habitlens · today ")

	stateStyle := m.styles.dim
	switch m.perm.State {
	case permission.Granted:
		stateStyle = m.styles.ok
	case permission.Denied:
		stateStyle = m.styles.bad
	case permission.Checking:
		stateStyle = m.styles.loading
	}
	left := title + "  " + m.styles.label.Render("access: ") + stateStyle.Render(m.perm.State.String())
	if m.fetching {
		left += " " + m.styles.loading.Render("[refreshing]")
	} else if !m.nextFetchAt.IsZero() {
		left += " " + m.styles.dim.Render("[next refresh in "+humanDuration(m.nextFetchAt.Sub(m.now))+"]")
	}
	right := m.styles.dim.Render(m.now.Format("2006-01-02 15:04:05"))
	return joinWithPaddingKeepRight(left, right, m.width)
}

func (m Model) renderBody() string {
	contentWidth := max(20, m.width-4)
	panel := m.styles.panel.Width(contentWidth)

	if m.perm.State == permission.Denied {
		var lines []string
		if m.skipped {
			lines = []string{m.styles.dim.Render(output.SkippedNotice)}
		} else {
			lines = []string{
				m.styles.bad.Render("Usage access is not granted."),
				m.styles.value.Render("Press g to open the settings, or run 'habitlens access grant'."),
			}
			if m.perm.Err != nil {
				lines = append(lines, m.styles.dim.Render(output.UserMessage(m.perm.Err)))
			}
		}
		if m.notice != "" {
			lines = append(lines, m.styles.warn.Render(m.notice))
		}
		return panel.Render(truncateLines(lines, contentWidth-2))
	}

	if m.lastError != nil && len(m.apps) == 0 {
		return panel.Render(truncateLines([]string{m.styles.bad.Render(output.UserMessage(m.lastError))}, contentWidth-2))
	}
	if m.lastSuccessAt.IsZero() {
		return panel.Render(m.styles.loading.Render("loading usage data..."))
	}
	if len(m.apps) == 0 {
		return panel.Render(m.styles.dim.Render("No usage recorded today."))
	}

	var total int64
	for _, app := range m.apps {
		total += app.ForegroundMs
	}

	nameWidth := min(28, max(8, contentWidth/3))
	barWidth := max(4, contentWidth-nameWidth-24)
	peak := m.apps[0].ForegroundMs

	lines := []string{
		m.styles.label.Render("total: ") + m.styles.accent.Render(output.FormatDuration(time.Duration(total)*time.Millisecond)) +
			m.styles.dim.Render(fmt.Sprintf("  across %d apps", len(m.apps))),
		"",
	}
	rows := max(1, m.height-8)
	for i, app := range m.apps {
		if i >= rows {
			lines = append(lines, m.styles.dim.Render(fmt.Sprintf("… %d more", len(m.apps)-rows)))
			break
		}
		name := ansi.Truncate(app.AppName, nameWidth, "…")
		name += strings.Repeat(" ", max(0, nameWidth-lipgloss.Width(name)))
		n := int(app.ForegroundMs * int64(barWidth) / max(peak, 1))
		line := fmt.Sprintf("%s %8s %s %3.0f%%",
			m.styles.value.Render(name),
			output.FormatDuration(app.Foreground),
			m.styles.accent.Render(strings.Repeat("█", max(n, 1))+strings.Repeat(" ", max(0, barWidth-max(n, 1)))),
			app.Share*100)
		if m.launches {
			line += m.styles.dim.Render(fmt.Sprintf("  ×%d", app.LaunchCount))
		}
		lines = append(lines, line)
	}
	if m.lastError != nil {
		lines = append(lines, "", m.styles.warn.Render("last refresh failed: "+output.UserMessage(m.lastError)))
	}
	return panel.Render(truncateLines(lines, contentWidth-2))
}

func pollCmd(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return pollTickMsg{at: t}
	})
}

func clockCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return clockTickMsg{at: t}
	})
}

func fetchCmd(fetch FetchFunc, timeout time.Duration) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		apps, err := fetch(ctx)
		return fetchResultMsg{at: time.Now(), apps: apps, err: err}
	}
}

func requestCmd(request func(context.Context) error, timeout time.Duration) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return requestResultMsg{err: request(ctx)}
	}
}

// waitPermission blocks for the next snapshot. A nil channel yields no
// command.
func waitPermission(ch <-chan permission.Snapshot) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		snap, ok := <-ch
		return permissionMsg{snap: snap, ok: ok}
	}
}

// Run starts the dashboard and blocks until the user quits or ctx is done.
func Run(ctx context.Context, opts Options) error {
	progOpts := []tea.ProgramOption{tea.WithContext(ctx), tea.WithReportFocus()}
	if opts.AltScreen {
		progOpts = append(progOpts, tea.WithAltScreen())
	}
	_, err := tea.NewProgram(NewModel(opts), progOpts...).Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
