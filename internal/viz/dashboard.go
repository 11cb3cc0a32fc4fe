package viz

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/sirupsen/logrus"

	"github.com/san-kum/wheelsim/internal/config"
	"github.com/san-kum/wheelsim/internal/control"
	"github.com/san-kum/wheelsim/internal/drivetrain"
	"github.com/san-kum/wheelsim/internal/dynamo"
	"github.com/san-kum/wheelsim/internal/sim"
	"github.com/san-kum/wheelsim/internal/vehicle"
)

var log = logrus.WithField("module", "viz")

const (
	viewWidth       = 44
	viewHeight      = 18
	historyCapacity = 600
	// pedalStep is how far one key press moves a pedal or the wheel.
	pedalStep = 0.25
)

// Options tune the dashboard.
type Options struct {
	Title   string
	Theme   string
	FPS     int
	GIFPath string
}

func DefaultOptions() Options {
	return Options{Title: "wheelsim", Theme: ThemeAsphalt.Name, FPS: 30, GIFPath: "wheelsim.gif"}
}

type tickMsg time.Time

// snapshot is one recorded frame for replay.
type snapshot struct {
	Time float64
	Row  dynamo.State
}

// Model is the live dashboard. It steps the simulator in real time and
// lets the keyboard take over from the configured driver.
type Model struct {
	sim    *sim.Simulator
	spawn  config.Sim
	opts   Options
	frame  time.Duration
	dt     float64
	steps  int
	styles styles

	manual     *control.Manual
	auto       control.Driver
	manualMode bool
	pedal      float64
	steer      float64
	handbrake  bool

	running   bool
	chase     *Canvas
	track     *Canvas
	camera    *Camera
	trackMap  *TrackMap
	speedHist []float64
	history   []snapshot
	playHead  int
	recorder  *Recorder
	recording bool
	showHelp  bool
	status    string
}

// NewModel wraps s, which must already be spawned per spawn.
func NewModel(s *sim.Simulator, spawn config.Sim, opts Options) Model {
	if opts.FPS <= 0 {
		opts.FPS = DefaultOptions().FPS
	}
	frame := time.Second / time.Duration(opts.FPS)
	steps := int(math.Round(frame.Seconds() / spawn.Dt))
	return Model{
		sim:       s,
		spawn:     spawn,
		opts:      opts,
		frame:     frame,
		dt:        spawn.Dt,
		steps:     max(1, steps),
		styles:    newStyles(ThemeByName(opts.Theme)),
		manual:    control.NewManual(),
		auto:      s.Driver,
		running:   true,
		chase:     NewCanvas(viewWidth, viewHeight),
		track:     NewCanvas(viewWidth, viewHeight),
		camera:    NewCamera(),
		trackMap:  NewTrackMap(historyCapacity),
		speedHist: make([]float64, 0, historyCapacity),
		history:   make([]snapshot, 0, historyCapacity),
		playHead:  -1,
		recorder:  NewRecorder(),
	}
}

// Run shows the dashboard until the user quits.
func Run(s *sim.Simulator, spawn config.Sim, opts Options) error {
	_, err := tea.NewProgram(NewModel(s, spawn, opts), tea.WithAltScreen()).Run()
	return err
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.frame, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m Model) Init() tea.Cmd { return m.tick() }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tickMsg:
		if m.running {
			if m.playHead == -1 {
				m.advance()
			} else {
				m.playHead++
				if m.playHead >= len(m.history) {
					m.playHead = -1
				}
			}
		}
		m.draw()
		if m.recording {
			m.recorder.Capture(m.chase)
		}
		return m, m.tick()
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "p":
		m.running = !m.running
	case "r":
		m.reset()
	case "m":
		m.toggleManual()
	case "w", "up":
		m.pedal = math.Min(1, m.pedal+pedalStep)
		m.takeOver()
	case "s", "down":
		m.pedal = math.Max(-1, m.pedal-pedalStep)
		m.takeOver()
	case "a", "left":
		m.steer = math.Max(-1, m.steer-pedalStep)
		m.takeOver()
	case "d", "right":
		m.steer = math.Min(1, m.steer+pedalStep)
		m.takeOver()
	case "x":
		m.pedal, m.steer, m.handbrake = 0, 0, false
		m.takeOver()
	case " ":
		m.handbrake = !m.handbrake
		m.takeOver()
	case ".":
		m.takeOver()
		m.manual.Update(func(in *vehicle.Input) { in.ShiftUp = true })
	case ",":
		m.takeOver()
		m.manual.Update(func(in *vehicle.Input) { in.ShiftDown = true })
	case "i":
		m.takeOver()
		m.manual.Update(func(in *vehicle.Input) { in.EngineStartStop = true })
	case "t":
		m.styles = newStyles(NextTheme(m.styles.theme))
	case "g":
		m.toggleRecording()
	case "[":
		m.scrub(-1)
	case "]":
		m.scrub(1)
	case "h":
		m.camera.Orbit(-0.1, 0)
	case "l":
		m.camera.Orbit(0.1, 0)
	case "j":
		m.camera.Orbit(0, -0.05)
	case "k":
		m.camera.Orbit(0, 0.05)
	case "+", "=":
		m.camera.ZoomIn()
		m.trackMap.ZoomIn()
	case "-", "_":
		m.camera.ZoomOut()
		m.trackMap.ZoomOut()
	case "?":
		m.showHelp = !m.showHelp
	}
	return m, nil
}

// takeOver switches to the keyboard and pushes the held pedal levels.
func (m *Model) takeOver() {
	if !m.manualMode {
		m.manualMode = true
		m.sim.Driver = m.manual
	}
	in := vehicle.Input{Steering: m.steer}.WithPedals(m.pedal)
	if m.handbrake {
		in.Handbrake = 1
	}
	m.manual.Update(func(held *vehicle.Input) {
		held.Throttle, held.Brake = in.Throttle, in.Brake
		held.Steering, held.Handbrake = in.Steering, in.Handbrake
	})
}

func (m *Model) toggleManual() {
	if m.manualMode {
		m.manualMode = false
		m.sim.Driver = m.auto
		m.status = "driver: auto"
		return
	}
	m.takeOver()
	m.status = "driver: keyboard"
}

func (m *Model) toggleRecording() {
	if !m.recording {
		m.recording = true
		m.recorder.Reset()
		m.status = "recording"
		return
	}
	m.recording = false
	if err := m.recorder.Save(m.opts.GIFPath); err != nil {
		log.WithError(err).Warn("gif not saved")
		m.status = err.Error()
		return
	}
	m.status = fmt.Sprintf("saved %d frames to %s", m.recorder.Len(), m.opts.GIFPath)
}

// advance steps the simulation by one frame of wall time.
func (m *Model) advance() {
	var row dynamo.State
	for i := 0; i < m.steps; i++ {
		row, _ = m.sim.Step(m.dt)
	}
	if !row.IsValid() {
		m.running = false
		m.status = fmt.Sprintf("invalid state at t=%.2fs, press r", m.sim.Time())
		log.WithField("time", m.sim.Time()).Warn("simulation diverged")
		return
	}
	m.record(row)
}

func (m *Model) record(row dynamo.State) {
	m.speedHist = append(m.speedHist, row[vehicle.ColSpeed]*3.6)
	if len(m.speedHist) > historyCapacity {
		m.speedHist = m.speedHist[1:]
	}
	m.history = append(m.history, snapshot{Time: m.sim.Time(), Row: row})
	if len(m.history) > historyCapacity {
		m.history = m.history[1:]
	}
	m.trackMap.Add(row[vehicle.ColPosX], row[vehicle.ColPosZ])
}

// scrub moves the replay head, pausing the live view on first use.
func (m *Model) scrub(dir int) {
	if m.playHead == -1 {
		if len(m.history) == 0 {
			return
		}
		m.playHead = len(m.history) - 1
		m.running = false
	}
	m.playHead = max(0, m.playHead+dir)
	if m.playHead >= len(m.history) {
		m.playHead = -1
	}
}

func (m *Model) reset() {
	m.sim.Spawn(m.spawn)
	m.pedal, m.steer, m.handbrake = 0, 0, false
	m.manual.Set(vehicle.Input{})
	m.speedHist = m.speedHist[:0]
	m.history = m.history[:0]
	m.trackMap.Reset()
	m.playHead = -1
	m.running = true
	m.status = "reset"
}

// current returns the row and time the panels should show.
func (m Model) current() (dynamo.State, float64) {
	if m.playHead >= 0 && m.playHead < len(m.history) {
		s := m.history[m.playHead]
		return s.Row, s.Time
	}
	return m.sim.Vehicle.Telemetry(), m.sim.Time()
}

func (m *Model) draw() {
	m.chase.Clear()
	Render3D(m.chase, CarWireframe(m.sim.Vehicle), m.camera)

	row, _ := m.current()
	m.track.Clear()
	m.trackMap.Draw(m.track, m.playHead, row[vehicle.ColYaw])
}

func (m Model) View() string {
	st := m.styles
	row, t := m.current()

	chase := st.panel.Render(st.title.Render("CHASE") + "\n" + st.view.Render(m.chase.String()))
	track := st.panel.Render(st.title.Render("TRACK") + "\n" + st.view.Render(m.track.String()))
	views := lipgloss.JoinHorizontal(lipgloss.Top, chase, track)

	var graph string
	if len(m.speedHist) > 1 {
		graph = asciigraph.Plot(m.speedHist,
			asciigraph.Height(6),
			asciigraph.Width(2*viewWidth),
			asciigraph.Caption("speed km/h"))
	}
	left := lipgloss.JoinVertical(lipgloss.Left, views, st.view.Render(graph))
	main := lipgloss.JoinHorizontal(lipgloss.Top, left, st.panel.Render(m.stats(row, t)))

	header := GradientText(strings.ToUpper(m.opts.Title), st.theme.Primary, st.theme.Accent)
	out := header + "  " + m.statusLine(t) + "\n" + main
	if m.showHelp {
		out += "\n" + st.panel.Render(helpText)
	}
	return out
}

func (m Model) statusLine(t float64) string {
	st := m.styles
	var s string
	switch {
	case m.playHead != -1:
		live := m.sim.Time()
		s = st.paused.Render(fmt.Sprintf("REPLAY %+.1fs", t-live))
	case !m.running:
		s = st.paused.Render("PAUSED")
	default:
		s = st.running.Render("RUNNING")
	}
	if m.recording {
		s += " " + st.record.Render(fmt.Sprintf("● REC %d", m.recorder.Len()))
	}
	if m.status != "" {
		s += " " + st.hint.Render(m.status)
	}
	return s
}

func (m Model) stats(row dynamo.State, t float64) string {
	st := m.styles
	v := m.sim.Vehicle
	var b strings.Builder
	line := func(label, value string) {
		b.WriteString(st.label.Render(fmt.Sprintf("%-9s", label)) + st.value.Render(value) + "\n")
	}

	line("time", fmt.Sprintf("%.2fs", t))
	line("speed", fmt.Sprintf("%6.1f km/h", row[vehicle.ColSpeed]*3.6))
	rpm := row[vehicle.ColEngineRPM]
	b.WriteString(st.label.Render(fmt.Sprintf("%-9s", "rpm")) + st.Bar(rpm/v.Engine.RevLimiterRPM, 14) + st.value.Render(fmt.Sprintf(" %5.0f", rpm)) + "\n")
	line("gear", gearLabel(int(row[vehicle.ColGear])))
	ignition := "off"
	if v.Engine.Ignition {
		ignition = "on"
	}
	line("engine", ignition)
	b.WriteString(st.separator(30) + "\n")

	pedal := func(label string, x float64) {
		b.WriteString(st.label.Render(fmt.Sprintf("%-9s", label)) + st.Bar(x, 14) + "\n")
	}
	pedal("throttle", row[vehicle.ColThrottle])
	pedal("brake", row[vehicle.ColBrake])
	pedal("clutch", row[vehicle.ColClutch])
	line("steer", fmt.Sprintf("%+5.1f°", row[vehicle.ColSteer]))
	line("slip", fmt.Sprintf("%+5.1f°", row[vehicle.ColSlipAngle]))

	badge := func(name string, on bool) string {
		if on {
			return st.active.Render(" " + name + " ")
		}
		return st.muted.Render(" " + name + " ")
	}
	b.WriteString(badge("ABS", row[vehicle.ColABS] > 0) + " " + badge("ESC", row[vehicle.ColESC] > 0))
	mode := "auto"
	if m.manualMode {
		mode = "keys"
	}
	b.WriteString("  " + st.hint.Render("driver: "+mode) + "\n")
	b.WriteString(st.separator(30) + "\n")

	b.WriteString(st.label.Render("wheel     load   fwd   side") + "\n")
	for i, w := range v.Wheels {
		mark := " "
		if row[vehicle.WheelColumn(i, vehicle.WheelGrounded)] > 0 {
			mark = "●"
		}
		b.WriteString(fmt.Sprintf("%s %-6s %5.1fk %+5.2f %+5.2f\n", mark, w.Name,
			row[vehicle.WheelColumn(i, vehicle.WheelLoad)]/1000,
			row[vehicle.WheelColumn(i, vehicle.WheelFwdSlip)],
			row[vehicle.WheelColumn(i, vehicle.WheelSideSlip)]))
	}
	b.WriteString(st.separator(30) + "\n")
	b.WriteString(st.hint.Render("w/s pedal  a/d steer  x release\n,/. shift  m driver  ? help"))
	return b.String()
}

func gearLabel(g int) string {
	switch g {
	case drivetrain.GearReverse:
		return "R"
	case drivetrain.GearNeutral:
		return "N"
	}
	return fmt.Sprint(g)
}

const helpText = `KEYS
  w s / up down   throttle and brake level
  a d / left right  steering level
  x               release pedals and wheel
  space           toggle handbrake
  , .             shift down, up
  i               engine start/stop
  m               toggle keyboard / configured driver
  p               pause          r  respawn
  [ ]             replay back, forward
  h l j k         orbit chase camera
  + -             zoom           t  theme
  g               start/stop gif recording
  q               quit`
