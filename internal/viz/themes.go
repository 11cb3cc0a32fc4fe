package viz

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/samber/lo"
)

// Theme is the dashboard color scheme.
type Theme struct {
	Name    string
	Primary lipgloss.Color
	// Secondary colors the track and chase views.
	Secondary lipgloss.Color
	Accent    lipgloss.Color
	Text      lipgloss.Color
	Muted     lipgloss.Color
	Border    lipgloss.Color
	Good      lipgloss.Color
	Warn      lipgloss.Color
	Alert     lipgloss.Color
}

var (
	ThemeAsphalt = Theme{
		Name:      "asphalt",
		Primary:   lipgloss.Color("#00ccff"),
		Secondary: lipgloss.Color("#dddddd"),
		Accent:    lipgloss.Color("#ffcc00"),
		Text:      lipgloss.Color("#ffffff"),
		Muted:     lipgloss.Color("#777788"),
		Border:    lipgloss.Color("#444466"),
		Good:      lipgloss.Color("#00ff88"),
		Warn:      lipgloss.Color("#ffaa00"),
		Alert:     lipgloss.Color("#ff4444"),
	}

	ThemeRacing = Theme{
		Name:      "racing",
		Primary:   lipgloss.Color("#ff2a2a"),
		Secondary: lipgloss.Color("#ffffff"),
		Accent:    lipgloss.Color("#ffd700"),
		Text:      lipgloss.Color("#f5f5f5"),
		Muted:     lipgloss.Color("#8a6a6a"),
		Border:    lipgloss.Color("#662222"),
		Good:      lipgloss.Color("#5fd068"),
		Warn:      lipgloss.Color("#ffc048"),
		Alert:     lipgloss.Color("#ff4757"),
	}

	ThemePhosphor = Theme{
		Name:      "phosphor",
		Primary:   lipgloss.Color("#00ff00"),
		Secondary: lipgloss.Color("#00cc00"),
		Accent:    lipgloss.Color("#88ff88"),
		Text:      lipgloss.Color("#00ff00"),
		Muted:     lipgloss.Color("#005500"),
		Border:    lipgloss.Color("#003300"),
		Good:      lipgloss.Color("#88ff88"),
		Warn:      lipgloss.Color("#ffff00"),
		Alert:     lipgloss.Color("#ff0000"),
	}

	ThemeMinimal = Theme{
		Name:      "minimal",
		Primary:   lipgloss.Color("#ffffff"),
		Secondary: lipgloss.Color("#cccccc"),
		Accent:    lipgloss.Color("#0088ff"),
		Text:      lipgloss.Color("#ffffff"),
		Muted:     lipgloss.Color("#888888"),
		Border:    lipgloss.Color("#555555"),
		Good:      lipgloss.Color("#00ff00"),
		Warn:      lipgloss.Color("#ffaa00"),
		Alert:     lipgloss.Color("#ff0000"),
	}

	Themes = []Theme{ThemeAsphalt, ThemeRacing, ThemePhosphor, ThemeMinimal}
)

// ThemeByName falls back to the first theme for unknown names.
func ThemeByName(name string) Theme {
	t, ok := lo.Find(Themes, func(t Theme) bool { return t.Name == name })
	if !ok {
		return Themes[0]
	}
	return t
}

// NextTheme cycles through Themes after current.
func NextTheme(current Theme) Theme {
	i := lo.IndexOf(ThemeNames(), current.Name)
	return Themes[(i+1)%len(Themes)]
}

func ThemeNames() []string {
	return lo.Map(Themes, func(t Theme, _ int) string { return t.Name })
}
