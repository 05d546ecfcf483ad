package viz

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
)

var (
	canvasStyle = lipgloss.NewStyle().Padding(1, 2)
	statsStyle  = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(lipgloss.Color("240")).
			Padding(1, 2).
			Width(48)
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true).MarginBottom(1)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(14)
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	graphStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("49")).Padding(1, 0)
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(1)

	StatusRunning = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00ff88"))
	StatusPaused  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ffaa00"))
	StatusStopped = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ff4444"))

	ledOn  = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff3333")).Render("●")
	ledOff = lipgloss.NewStyle().Foreground(lipgloss.Color("#444444")).Render("○")

	SparkHigh = lipgloss.NewStyle().Foreground(lipgloss.Color("#00ff88"))
	SparkMid  = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffcc00"))
	SparkLow  = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff4444"))
)

func led(on bool) string {
	if on {
		return ledOn
	}
	return ledOff
}

// Gauge renders a motor command in [-1, 1] as a bar centered on zero.
func Gauge(v float64, width int) string {
	half := width / 2
	n := int(v*float64(half) + 0.5*sign(v))
	if n > half {
		n = half
	}
	if n < -half {
		n = -half
	}

	left := strings.Repeat("░", half)
	right := strings.Repeat("░", half)
	if n < 0 {
		left = strings.Repeat("░", half+n) + strings.Repeat("█", -n)
	} else {
		right = strings.Repeat("█", n) + strings.Repeat("░", half-n)
	}

	style := SparkHigh
	switch a := abs(v); {
	case a > 0.9:
		style = SparkLow
	case a > 0.6:
		style = SparkMid
	}
	return style.Render(left + "│" + right)
}

// Chart plots a series with asciigraph, thinning it to the given width.
func Chart(values []float64, height, width int, caption string) string {
	if len(values) < 2 {
		return ""
	}
	return asciigraph.Plot(thin(values, width),
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(caption),
	)
}

// ChartMulti plots several series on one set of axes.
func ChartMulti(series [][]float64, height, width int, caption string) string {
	data := make([][]float64, 0, len(series))
	for _, s := range series {
		if len(s) > 1 {
			data = append(data, thin(s, width))
		}
	}
	if len(data) == 0 {
		return ""
	}
	return asciigraph.PlotMany(data,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(caption),
		asciigraph.SeriesColors(asciigraph.Green, asciigraph.Yellow, asciigraph.Red),
	)
}

func thin(values []float64, width int) []float64 {
	if width <= 0 || len(values) <= width {
		return values
	}
	out := make([]float64, width)
	for i := range out {
		out[i] = values[i*len(values)/width]
	}
	return out
}

func sign(v float64) float64 {
	if v < 0 {
		return -1
	}
	return 1
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
