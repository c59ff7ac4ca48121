// ABOUTME: Terminal rendering of pipeline dashboard statistics
// ABOUTME: Draws stage bars, conversion, trend, and task totals sized to the terminal
package viz

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/harperreed/dealflow/aggregate"
)

const (
	defaultWidth = 80
	minBarWidth  = 10
	maxBarWidth  = 40
	labelWidth   = 18
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("170"))
	sectionStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252")).MarginTop(1)
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	wonStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	lostStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
)

// TerminalWidth returns the width of stdout, or 80 when it is not a terminal.
func TerminalWidth() int {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return defaultWidth
	}
	w, _, err := term.GetSize(fd)
	if err != nil || w <= 0 {
		return defaultWidth
	}
	return w
}

func barWidth(width int) int {
	w := width - labelWidth - 24
	if w < minBarWidth {
		return minBarWidth
	}
	if w > maxBarWidth {
		return maxBarWidth
	}
	return w
}

func bar(n, top, width int) string {
	if top <= 0 {
		top = 1
	}
	filled := n * width / top
	if n > 0 && filled == 0 {
		filled = 1
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

func money(v float64) string {
	switch {
	case v >= 1_000_000:
		return fmt.Sprintf("$%.1fM", v/1_000_000)
	case v >= 1_000:
		return fmt.Sprintf("$%.1fK", v/1_000)
	default:
		return fmt.Sprintf("$%.0f", v)
	}
}

// RenderDashboard formats stats for a terminal of the given width.
func RenderDashboard(stats aggregate.DashboardStats, width int) string {
	if width <= 0 {
		width = defaultWidth
	}
	bw := barWidth(width)
	var out strings.Builder

	window := "all time"
	if stats.WindowDays > 0 {
		window = fmt.Sprintf("last %d days", stats.WindowDays)
	}
	out.WriteString(headerStyle.Render("DEALFLOW DASHBOARD"))
	out.WriteString(mutedStyle.Render("  " + window))
	out.WriteString("\n")

	out.WriteString(sectionStyle.Render("PIPELINE"))
	out.WriteString("\n")
	maxCount := 0
	for _, s := range stats.ByStage {
		if s.Count > maxCount {
			maxCount = s.Count
		}
	}
	for _, s := range stats.ByStage {
		title := s.Title
		if r := []rune(title); len(r) > labelWidth-2 {
			title = string(r[:labelWidth-3]) + "…"
		}
		fmt.Fprintf(&out, "  %-*s %s %3d  %s\n", labelWidth-2, title, bar(s.Count, maxCount, bw), s.Count, money(s.Value))
	}

	out.WriteString(sectionStyle.Render("OUTCOMES"))
	out.WriteString("\n")
	fmt.Fprintf(&out, "  %d opportunities  %s total\n", stats.Total, money(stats.TotalValue))
	fmt.Fprintf(&out, "  %s  %s  %d open  %d abandoned\n",
		wonStyle.Render(fmt.Sprintf("%d won", stats.Won)),
		lostStyle.Render(fmt.Sprintf("%d lost", stats.Lost)),
		stats.Open, stats.Abandoned)
	fmt.Fprintf(&out, "  conversion %.1f%%\n", stats.ConversionRate)

	if len(stats.Trend) > 0 {
		out.WriteString(sectionStyle.Render("CUMULATIVE VALUE"))
		out.WriteString("\n")
		out.WriteString("  " + sparkline(stats.Trend, width-4) + "\n")
		first, last := stats.Trend[0], stats.Trend[len(stats.Trend)-1]
		out.WriteString(mutedStyle.Render(fmt.Sprintf("  %s → %s  %s", first.Date, last.Date, money(last.Value))))
		out.WriteString("\n")
	}

	out.WriteString(sectionStyle.Render("TASKS"))
	out.WriteString("\n")
	fmt.Fprintf(&out, "  %d total  %d done  %d pending", stats.Tasks.Total, stats.Tasks.Completed, stats.Tasks.Pending)
	if stats.Tasks.Overdue > 0 {
		out.WriteString("  " + warnStyle.Render(fmt.Sprintf("%d overdue", stats.Tasks.Overdue)))
	}
	out.WriteString("\n")

	return out.String()
}

var sparkRunes = []rune("▁▂▃▄▅▆▇█")

// sparkline draws the last width points of trend.
func sparkline(trend []aggregate.TrendPoint, width int) string {
	if width < 1 {
		width = 1
	}
	if len(trend) > width {
		trend = trend[len(trend)-width:]
	}
	lo, hi := trend[0].Value, trend[0].Value
	for _, p := range trend {
		lo = min(lo, p.Value)
		hi = max(hi, p.Value)
	}

	var b strings.Builder
	for _, p := range trend {
		i := len(sparkRunes) - 1
		if hi > lo {
			i = int((p.Value - lo) / (hi - lo) * float64(len(sparkRunes)-1))
		}
		b.WriteRune(sparkRunes[i])
	}
	return b.String()
}
