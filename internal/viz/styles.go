package viz

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"
)

// styles holds the lipgloss styles derived from one Theme.
type styles struct {
	theme Theme

	panel   lipgloss.Style
	title   lipgloss.Style
	label   lipgloss.Style
	value   lipgloss.Style
	hint    lipgloss.Style
	muted   lipgloss.Style
	running lipgloss.Style
	paused  lipgloss.Style
	record  lipgloss.Style
	view    lipgloss.Style
	high    lipgloss.Style
	mid     lipgloss.Style
	low     lipgloss.Style
	active  lipgloss.Style
}

func newStyles(t Theme) styles {
	return styles{
		theme: t,
		panel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.Border).
			Padding(0, 1),
		title:   lipgloss.NewStyle().Bold(true).Foreground(t.Primary),
		label:   lipgloss.NewStyle().Foreground(t.Muted),
		value:   lipgloss.NewStyle().Bold(true).Foreground(t.Text),
		hint:    lipgloss.NewStyle().Italic(true).Foreground(t.Muted),
		muted:   lipgloss.NewStyle().Foreground(t.Muted),
		running: lipgloss.NewStyle().Bold(true).Foreground(t.Good),
		paused:  lipgloss.NewStyle().Bold(true).Foreground(t.Warn),
		record:  lipgloss.NewStyle().Bold(true).Foreground(t.Alert).Blink(true),
		view:    lipgloss.NewStyle().Foreground(t.Secondary),
		high:    lipgloss.NewStyle().Foreground(t.Alert),
		mid:     lipgloss.NewStyle().Foreground(t.Warn),
		low:     lipgloss.NewStyle().Foreground(t.Good),
		active:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#000000")).Background(t.Alert),
	}
}

// GradientText colors each rune of text on a blend from start to end.
func GradientText(text string, start, end lipgloss.Color) string {
	runes := []rune(text)
	if len(runes) == 0 {
		return ""
	}
	a, err := colorful.Hex(string(start))
	if err != nil {
		return text
	}
	b, err := colorful.Hex(string(end))
	if err != nil {
		return text
	}

	var sb strings.Builder
	for i, r := range runes {
		t := 0.0
		if len(runes) > 1 {
			t = float64(i) / float64(len(runes)-1)
		}
		c := a.BlendLab(b, t).Clamped()
		sb.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(c.Hex())).Render(string(r)))
	}
	return sb.String()
}

// Bar renders a filled gauge for a fraction in [0,1]. Fill colors go from
// low to high as the fraction passes 0.4 and 0.8.
func (s styles) Bar(frac float64, width int) string {
	if math.IsNaN(frac) {
		frac = 0
	}
	filled := int(math.Round(math.Max(0, math.Min(1, frac)) * float64(width)))
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	switch {
	case frac > 0.8:
		return s.high.Render(bar)
	case frac > 0.4:
		return s.mid.Render(bar)
	default:
		return s.low.Render(bar)
	}
}

// Sparkline renders the last width values, scaled to their own range.
func (s styles) Sparkline(values []float64, width int) string {
	if len(values) == 0 || width <= 0 {
		return strings.Repeat("─", max(width, 0))
	}
	if len(values) > width {
		values = values[len(values)-width:]
	}
	chars := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

	low, high := values[0], values[0]
	for _, v := range values {
		low, high = math.Min(low, v), math.Max(high, v)
	}
	rng := high - low
	if rng == 0 {
		rng = 1
	}

	var sb strings.Builder
	for _, v := range values {
		norm := (v - low) / rng
		idx := int(norm * float64(len(chars)-1))
		idx = max(0, min(idx, len(chars)-1))
		sb.WriteRune(chars[idx])
	}
	return s.view.Render(sb.String())
}

func (s styles) separator(width int) string {
	return s.muted.Render(strings.Repeat("─", max(width, 0)))
}
