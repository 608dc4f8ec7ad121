package monitor

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/rileyhilliard/pimon/internal/metrics"
)

// defaultWidth is used before the first WindowSizeMsg arrives.
const defaultWidth = 120

// chartHeight is the number of bar rows in the queries chart.
const chartHeight = 8

// renderDashboard renders the complete dashboard view.
func (m Model) renderDashboard() string {
	width := m.width
	if width <= 0 {
		width = defaultWidth
	}

	c := m.state.Selected()
	snap := c.Snapshot()

	sections := []string{
		m.renderHeader(),
		m.renderTabs(),
		m.renderOverview(snap, c.Target().HasCredential(), width),
		m.renderChart(snap.Series, width),
		m.renderLeaderboards(snap, width),
		m.renderStatusLine(c),
		FooterStyle.Render(m.help.View(m.keys)),
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// renderHeader renders the title line.
func (m Model) renderHeader() string {
	title := lipgloss.NewStyle().
		Foreground(ColorAccent).
		Bold(true).
		Render("pimon")

	stats := lipgloss.NewStyle().
		Foreground(ColorTextSecondary).
		Render(fmt.Sprintf(" | %d servers | every %s", len(m.state.Targets()), m.state.RefreshInterval()))

	return HeaderStyle.Render(title + stats)
}

// renderTabs renders one tab per target with its fetch state glyph.
func (m Model) renderTabs() string {
	tabs := make([]string, 0, len(m.state.Targets()))
	for i, c := range m.state.Targets() {
		label := targetGlyph(c) + " " + c.Target().Name
		if i == m.state.SelectedIndex() {
			tabs = append(tabs, TabActiveStyle.Render(label))
		} else {
			tabs = append(tabs, TabStyle.Render(label))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func targetGlyph(c *Coordinator) string {
	switch {
	case c.InFlight():
		return StatusPending
	case !c.LastUpdate().IsZero():
		return StatusIdle
	case !c.Snapshot().IsEmpty():
		return StatusStale
	default:
		return StatusNoData
	}
}

// renderOverview renders the Summary, Query stats, Other stats and
// Responses panels. Wide terminals get one row, narrow ones two.
func (m Model) renderOverview(snap metrics.Snapshot, hasKey bool, width int) string {
	perRow := 4
	if width < BreakpointPanels {
		perRow = 2
	}
	panelWidth := width/perRow - 2

	var panels []string
	s := snap.Summary
	if s == nil {
		for _, title := range []string{"Summary", "Query stats", "Other stats", "Responses"} {
			panels = append(panels, renderPanel(title, []string{MutedStyle.Render("No data")}, panelWidth))
		}
	} else {
		panels = []string{
			renderPanel("Summary", []string{
				kv("Status", BoolStyle(s.Enabled()).Render(s.Status)),
				kv("API key", BoolStyle(hasKey).Render(fmt.Sprintf("%t", hasKey))),
				kv("Privacy level", fmt.Sprintf("%d", s.PrivacyLevel)),
				kv("Blocklist size", humanize.Comma(int64(s.DomainsBeingBlocked))),
			}, panelWidth),
			renderPanel("Query stats", []string{
				kv("Queries", humanize.Comma(int64(s.DNSQueriesToday))),
				kv("Ads blocked", humanize.Comma(int64(s.AdsBlockedToday))),
				kv("Ads percent", fmt.Sprintf("%.2f%%", s.AdsPercentageToday)),
				ProgressBar(panelWidth-4, s.AdsPercentageToday, ColorBlocked),
				kv("Unique domains", humanize.Comma(int64(s.UniqueDomains))),
			}, panelWidth),
			renderPanel("Other stats", []string{
				kv("Forwarded", humanize.Comma(int64(s.QueriesForwarded))),
				kv("Cached", humanize.Comma(int64(s.QueriesCached))),
				kv("Unique clients", humanize.Comma(int64(s.UniqueClients))),
			}, panelWidth),
			renderPanel("Responses", []string{
				kv("NODATA", humanize.Comma(int64(s.ReplyNODATA))),
				kv("NXDOMAIN", humanize.Comma(int64(s.ReplyNXDOMAIN))),
				kv("CNAME", humanize.Comma(int64(s.ReplyCNAME))),
				kv("IP", humanize.Comma(int64(s.ReplyIP))),
			}, panelWidth),
		}
	}

	var rows []string
	for i := 0; i < len(panels); i += perRow {
		end := i + perRow
		if end > len(panels) {
			end = len(panels)
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, panels[i:end]...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

// renderChart renders the queries-over-time chart, newest bucket on the left.
func (m Model) renderChart(series metrics.TimeSeries, width int) string {
	factor := m.state.SquashFactor()
	// Outer width-2, minus border and padding.
	inner := width - 6

	if series == nil {
		return renderPanel("Total queries", []string{MutedStyle.Render("No data")}, width-2)
	}

	buckets := metrics.Squash(series.Descending(), factor)
	title := fmt.Sprintf("Total queries (%s, zoom 1:%d)", humanize.Comma(int64(series.Total())), factor)

	var body string
	if inner < chartBarWidth*4 {
		body = renderMiniSparkline(buckets, inner, ColorGraph)
	} else {
		body = renderBarChart(buckets, inner, chartHeight, ColorGraph)
	}
	if body == "" {
		body = MutedStyle.Render("No samples")
	}
	return renderPanel(title, []string{body}, width-2)
}

// renderLeaderboards renders Top Queries, Top Blocked and Top Clients.
func (m Model) renderLeaderboards(snap metrics.Snapshot, width int) string {
	if width < BreakpointBoards {
		boardWidth := width - 2
		return lipgloss.JoinVertical(lipgloss.Left,
			renderBoard("Top Queries", snap.TopItems, m.topRows, boardWidth),
			renderBoard("Top Blocked", snap.TopBlocked, m.topRows, boardWidth),
			renderBoard("Top Clients", snap.TopSources, m.topRows, boardWidth),
		)
	}
	boardWidth := width/3 - 2
	return lipgloss.JoinHorizontal(lipgloss.Top,
		renderBoard("Top Queries", snap.TopItems, m.topRows, boardWidth),
		renderBoard("Top Blocked", snap.TopBlocked, m.topRows, boardWidth),
		renderBoard("Top Clients", snap.TopSources, m.topRows, boardWidth),
	)
}

// renderBoard renders one sorted ranking as label/count rows.
func renderBoard(title string, r metrics.Ranking, rows, width int) string {
	if r == nil {
		return renderPanel(title, []string{MutedStyle.Render("No data")}, width)
	}
	entries := r.Top(rows)
	if len(entries) == 0 {
		return renderPanel(title, []string{MutedStyle.Render("Nothing yet")}, width)
	}

	inner := width - 4
	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		count := humanize.Comma(int64(e.Count))
		labelWidth := inner - lipgloss.Width(count) - 1
		label := truncate(e.Label, labelWidth)
		pad := inner - lipgloss.Width(label) - lipgloss.Width(count)
		if pad < 1 {
			pad = 1
		}
		lines = append(lines, LabelStyle.Render(label)+strings.Repeat(" ", pad)+ValueStyle.Render(count))
	}
	return renderPanel(title, lines, width)
}

// renderStatusLine shows fetch progress, data age and the last status message.
func (m Model) renderStatusLine(c *Coordinator) string {
	var parts []string

	switch {
	case c.InFlight():
		parts = append(parts, m.spinner.View()+" updating")
	case !c.LastUpdate().IsZero():
		parts = append(parts, StatusEnabledStyle.Render(StatusIdle)+" updated "+humanize.Time(c.LastUpdate()))
	case !c.CachedAt().IsZero():
		parts = append(parts, MutedStyle.Render(StatusStale+" cached from "+humanize.Time(c.CachedAt())))
	default:
		parts = append(parts, MutedStyle.Render(StatusNoData+" waiting for first update"))
	}

	if msg, isErr := m.state.Status(); msg != "" {
		if isErr {
			parts = append(parts, StatusErrorStyle.Render(msg))
		} else {
			parts = append(parts, StatusMessageStyle.Render(msg))
		}
	}

	return FooterStyle.Render(strings.Join(parts, "  "))
}

// renderPanel renders a rounded box with a title line. width is the outer width.
func renderPanel(title string, lines []string, width int) string {
	inner := width - 2
	if inner < 1 {
		inner = 1
	}
	content := PanelTitleStyle.Render(truncate(title, inner-2)) + "\n" + strings.Join(lines, "\n")
	return PanelStyle.Width(inner).Render(content)
}

// kv renders a "Label: value" line.
func kv(label, value string) string {
	return LabelStyle.Render(label+": ") + ValueStyle.Render(value)
}

// truncate shortens s to at most n display cells, marking the cut with "…".
func truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if lipgloss.Width(s) <= n {
		return s
	}
	runes := []rune(s)
	for len(runes) > 0 && lipgloss.Width(string(runes))+1 > n {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "…"
}
