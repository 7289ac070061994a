package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

type styles struct {
	title   lipgloss.Style
	panel   lipgloss.Style
	label   lipgloss.Style
	value   lipgloss.Style
	hint    lipgloss.Style
	running lipgloss.Style
	done    lipgloss.Style
	failed  lipgloss.Style
	high    lipgloss.Style
	mid     lipgloss.Style
	low     lipgloss.Style
}

func newStyles(t Theme) styles {
	return styles{
		title: lipgloss.NewStyle().Bold(true).Foreground(t.Secondary).
			BorderStyle(lipgloss.NormalBorder()).BorderBottom(true).BorderForeground(t.Muted),
		panel:   lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(t.Muted).Padding(0, 1),
		label:   lipgloss.NewStyle().Foreground(t.Muted),
		value:   lipgloss.NewStyle().Bold(true).Foreground(t.Secondary),
		hint:    lipgloss.NewStyle().Italic(true).Foreground(t.Muted),
		running: lipgloss.NewStyle().Bold(true).Foreground(t.Success),
		done:    lipgloss.NewStyle().Bold(true).Foreground(t.Accent),
		failed:  lipgloss.NewStyle().Bold(true).Foreground(t.Error),
		high:    lipgloss.NewStyle().Foreground(t.Success),
		mid:     lipgloss.NewStyle().Foreground(t.Warning),
		low:     lipgloss.NewStyle().Foreground(t.Error),
	}
}

// progressBar fills width cells for fraction in [0, 1].
func (s styles) progressBar(fraction float64, width int) string {
	filled := int(fraction * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}

	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	switch {
	case fraction > 0.8:
		return s.high.Render(bar)
	case fraction > 0.4:
		return s.mid.Render(bar)
	}
	return s.low.Render(bar)
}

// sparkline squeezes values into width block characters.
func (s styles) sparkline(values []float64, width int) string {
	if len(values) == 0 {
		return strings.Repeat("─", width)
	}

	chars := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}
	lo, hi := values[0], values[0]
	for _, v := range values {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	rng := hi - lo
	if rng == 0 {
		rng = 1
	}

	step := max(len(values)/width, 1)
	var b strings.Builder
	for i := 0; i < width && i*step < len(values); i++ {
		norm := (values[i*step] - lo) / rng
		idx := min(max(int(norm*float64(len(chars)-1)), 0), len(chars)-1)
		b.WriteRune(chars[idx])
	}
	return s.value.Render(b.String())
}
