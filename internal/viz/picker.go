package viz

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/wheelsim/internal/config"
	"github.com/san-kum/wheelsim/internal/control"
	"github.com/san-kum/wheelsim/internal/sim"
)

const (
	stagePreset = iota
	stageDriver
	stageLive
)

var presetInfo = map[string]string{
	"street":   "front-drive hatch, automatic",
	"drift":    "rear-drive coupe, locked diff, low side grip",
	"offroad":  "four-wheel drive on soft ground",
	"electric": "single ratio, instant torque",
	"truck":    "heavy, long wheelbase, slow shifts",
}

var driverInfo = map[string]string{
	control.KindIdle:     "keyboard only",
	control.KindConstant: "fixed pedals and steering",
	control.KindCruise:   "PID speed hold",
	control.KindCircle:   "constant radius circle",
	control.KindSlalom:   "sinusoidal weave",
	control.KindScript:   "keyframed inputs",
}

// picker chooses a preset and a driver, then hands over to the dashboard.
type picker struct {
	stage   int
	cursor  int
	presets []string
	drivers []string
	preset  string
	opts    Options
	styles  styles
	live    Model
	err     error
}

func newPicker(opts Options) picker {
	return picker{
		presets: config.ListPresets(),
		drivers: []string{control.KindIdle, control.KindCruise, control.KindCircle, control.KindSlalom},
		opts:    opts,
		styles:  newStyles(ThemeByName(opts.Theme)),
	}
}

// RunInteractive lets the user pick a preset and driver, then drives it live.
func RunInteractive(opts Options) error {
	final, err := tea.NewProgram(newPicker(opts), tea.WithAltScreen()).Run()
	if err != nil {
		return err
	}
	if p, ok := final.(picker); ok && p.err != nil {
		return p.err
	}
	return nil
}

func (p picker) Init() tea.Cmd { return nil }

func (p picker) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if p.stage == stageLive {
		next, cmd := p.live.Update(msg)
		p.live = next.(Model)
		return p, cmd
	}
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return p, nil
	}
	items := p.items()
	switch key.String() {
	case "q", "ctrl+c":
		return p, tea.Quit
	case "esc":
		if p.stage == stageDriver {
			p.stage, p.cursor = stagePreset, 0
		}
	case "up", "k":
		if p.cursor > 0 {
			p.cursor--
		}
	case "down", "j":
		if p.cursor < len(items)-1 {
			p.cursor++
		}
	case "enter", " ":
		if p.stage == stagePreset {
			p.preset = items[p.cursor]
			p.stage, p.cursor = stageDriver, 0
			return p, nil
		}
		return p.launch(items[p.cursor])
	}
	return p, nil
}

func (p picker) items() []string {
	if p.stage == stagePreset {
		return p.presets
	}
	return p.drivers
}

func (p picker) launch(kind string) (tea.Model, tea.Cmd) {
	cfg, err := config.GetPreset(p.preset)
	if err != nil {
		p.err = err
		return p, tea.Quit
	}
	cfg.Driver = control.Spec{Kind: kind, Speed: 15, Steering: 0.3, Amplitude: 0.4, Period: 4}
	s, err := sim.FromConfig(cfg)
	if err != nil {
		p.err = fmt.Errorf("start %s: %w", p.preset, err)
		return p, tea.Quit
	}
	opts := p.opts
	opts.Title = p.preset + " / " + kind
	p.live = NewModel(s, cfg.Sim, opts)
	p.stage = stageLive
	log.WithField("preset", p.preset).WithField("driver", kind).Info("live session started")
	return p, p.live.Init()
}

func (p picker) View() string {
	if p.stage == stageLive {
		return p.live.View()
	}
	st := p.styles
	title, info := "SELECT VEHICLE", presetInfo
	if p.stage == stageDriver {
		title, info = "SELECT DRIVER  ("+p.preset+")", driverInfo
	}

	var b strings.Builder
	b.WriteString(GradientText("WHEELSIM", st.theme.Primary, st.theme.Accent) + "\n\n")
	b.WriteString(st.title.Render(title) + "\n\n")
	for i, name := range p.items() {
		if i == p.cursor {
			b.WriteString(st.value.Render(fmt.Sprintf("▸ %-10s", name)) + " " + st.hint.Render(info[name]) + "\n")
		} else {
			b.WriteString(st.muted.Render(fmt.Sprintf("  %-10s", name)) + "\n")
		}
	}
	b.WriteString("\n" + st.hint.Render("↑↓ move  enter select  esc back  q quit"))
	return st.panel.Render(b.String())
}
