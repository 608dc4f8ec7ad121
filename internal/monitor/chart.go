package monitor

import (
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/rileyhilliard/pimon/internal/metrics"
)

// sparklineBlocks are block characters for 8-level vertical resolution (lowest to highest).
var sparklineBlocks = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// Bar geometry. A bar is as wide as its HH:MM label.
const (
	chartBarWidth = 5
	chartBarGap   = 1
)

// renderBarChart draws buckets left to right in the order given, one bar per
// bucket, scaled to the largest bucket shown. Buckets that do not fit in
// width are dropped from the right. Each bar gets a UTC HH:MM label.
func renderBarChart(buckets metrics.TimeSeries, width, height int, color lipgloss.Color) string {
	if len(buckets) == 0 || width <= 0 || height <= 0 {
		return ""
	}

	n := (width + chartBarGap) / (chartBarWidth + chartBarGap)
	if n < 1 {
		n = 1
	}
	if n > len(buckets) {
		n = len(buckets)
	}
	shown := buckets[:n]

	var peak uint64
	for _, p := range shown {
		if p.Count > peak {
			peak = p.Count
		}
	}

	levels := height * len(sparklineBlocks)
	heights := make([]int, len(shown))
	for i, p := range shown {
		if peak == 0 {
			continue
		}
		h := int(math.Round(float64(p.Count) / float64(peak) * float64(levels)))
		if h == 0 && p.Count > 0 {
			h = 1
		}
		heights[i] = h
	}

	gap := strings.Repeat(" ", chartBarGap)
	barStyle := lipgloss.NewStyle().Foreground(color)

	lines := make([]string, 0, height+1)
	for row := 0; row < height; row++ {
		// Row 0 is the top of the chart.
		base := (height - 1 - row) * len(sparklineBlocks)
		cells := make([]string, len(shown))
		for i, h := range heights {
			level := h - base
			switch {
			case level <= 0:
				cells[i] = strings.Repeat(" ", chartBarWidth)
			case level >= len(sparklineBlocks):
				cells[i] = strings.Repeat(string(sparklineBlocks[len(sparklineBlocks)-1]), chartBarWidth)
			default:
				cells[i] = strings.Repeat(string(sparklineBlocks[level-1]), chartBarWidth)
			}
		}
		lines = append(lines, barStyle.Render(strings.Join(cells, gap)))
	}

	labels := make([]string, len(shown))
	for i, p := range shown {
		labels[i] = bucketLabel(p.Timestamp)
	}
	lines = append(lines, LabelStyle.Render(strings.Join(labels, gap)))

	return strings.Join(lines, "\n")
}

// bucketLabel formats an epoch timestamp as UTC HH:MM, padded to the bar width.
func bucketLabel(ts int64) string {
	label := time.Unix(ts, 0).UTC().Format("15:04")
	if len(label) < chartBarWidth {
		label += strings.Repeat(" ", chartBarWidth-len(label))
	}
	return label
}

// renderMiniSparkline renders a single-row sparkline of bucket counts, one
// character per bucket, truncated to width.
func renderMiniSparkline(buckets metrics.TimeSeries, width int, color lipgloss.Color) string {
	if len(buckets) == 0 || width <= 0 {
		return ""
	}
	if len(buckets) > width {
		buckets = buckets[:width]
	}

	var peak uint64
	for _, p := range buckets {
		if p.Count > peak {
			peak = p.Count
		}
	}

	var b strings.Builder
	top := len(sparklineBlocks) - 1
	for _, p := range buckets {
		idx := 0
		if peak > 0 {
			idx = int(float64(p.Count) / float64(peak) * float64(top))
		}
		b.WriteRune(sparklineBlocks[idx])
	}
	return lipgloss.NewStyle().Foreground(color).Render(b.String())
}
