package viz

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/linefollow/internal/sim"
	"github.com/san-kum/linefollow/internal/track"
)

const (
	width           = 72
	height          = 22
	historyCapacity = 600
	trailCapacity   = 400
)

type TickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(time.Second/30, func(t time.Time) tea.Msg { return TickMsg(t) })
}

// Model is the live view of a simulation session.
type Model struct {
	sess          *sim.Session
	canvas        *Canvas
	view          Viewport
	trackPts      []track.Point
	marks         []track.Point
	trail         []track.Point
	offsets       []float64
	last          sim.Sample
	running       bool
	stepsPerFrame int
	err           error
}

func NewModel(sess *sim.Session, stepsPerFrame int) Model {
	if stepsPerFrame < 1 {
		stepsPerFrame = 1
	}
	c := NewCanvas(width, height)
	tr := sess.Track()

	var marks []track.Point
	for _, s := range tr.RightMarks {
		p := tr.At(s)
		marks = append(marks, track.Point{X: p.X, Y: p.Y})
	}

	return Model{
		sess:          sess,
		canvas:        c,
		view:          FitViewport(c, tr.Points(), 0.15),
		trackPts:      tr.Points(),
		marks:         marks,
		trail:         make([]track.Point, 0, trailCapacity),
		offsets:       make([]float64, 0, historyCapacity),
		running:       true,
		stepsPerFrame: stepsPerFrame,
	}
}

// Err reports the error that stopped the session, if any.
func (m Model) Err() error { return m.err }

func (m Model) Init() tea.Cmd {
	return tick()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "1":
			m.sess.Press(1)
		case "2":
			m.sess.Press(2)
		case "r":
			m.sess.Reset()
			m.trail = m.trail[:0]
			m.offsets = m.offsets[:0]
		case "+", "=":
			m.stepsPerFrame *= 2
		case "-", "_":
			if m.stepsPerFrame > 1 {
				m.stepsPerFrame /= 2
			}
		}
	case TickMsg:
		if m.running && !m.sess.Done().Terminal() {
			if err := m.step(); err != nil {
				m.err = err
				return m, tea.Quit
			}
		}
		return m, tick()
	}
	return m, nil
}

func (m *Model) step() error {
	for i := 0; i < m.stepsPerFrame; i++ {
		s, err := m.sess.Step()
		if err != nil {
			return err
		}
		m.last = s
		if m.sess.Done().Terminal() {
			break
		}
	}

	m.trail = appendCapped(m.trail, track.Point{X: m.last.X, Y: m.last.Y}, trailCapacity)
	m.offsets = appendCapped(m.offsets, m.last.Offset*1000, historyCapacity)
	return nil
}

func appendCapped[T any](s []T, v T, capacity int) []T {
	if len(s) == capacity {
		copy(s, s[1:])
		s = s[:len(s)-1]
	}
	return append(s, v)
}

func (m *Model) draw() {
	m.canvas.Clear()
	m.canvas.DrawPath(m.view, m.trackPts)
	for _, p := range m.marks {
		x, y := m.view.Map(p)
		m.canvas.DrawLine(x, y+2, x, y+5)
	}
	for _, p := range m.trail {
		x, y := m.view.Map(p)
		m.canvas.Set(x, y)
	}
	m.canvas.DrawRobot(m.view, m.sess.Pose(), 0.08)
}

func (m Model) View() string {
	m.draw()
	snap := m.sess.Follower.Snapshot()

	var s strings.Builder
	s.WriteString(headerStyle.Render(strings.ToUpper(m.sess.Track().Name)) + "\n")

	status := StatusRunning.Render("DRIVING")
	switch reason := m.sess.Done(); {
	case reason != "":
		status = StatusStopped.Render("STOPPED: " + string(reason))
	case !m.running:
		status = StatusPaused.Render("PAUSED")
	case !snap.MotorsActive:
		status = StatusPaused.Render("READY (press 1)")
	}
	s.WriteString(status + "\n\n")

	l1, l2 := m.sess.LEDs()
	row := func(label, value string) {
		s.WriteString(labelStyle.Render(label) + valueStyle.Render(value) + "\n")
	}
	row("Time", fmt.Sprintf("%.2fs  x%d", m.sess.Time(), m.stepsPerFrame))
	row("Mode", fmt.Sprintf("%s  %s%s", snap.Mode, led(l1), led(l2)))
	row("Controller", snap.Controller.String())
	row("Input", fmt.Sprintf("%.2f / %.2f", snap.SensorInput, snap.SensorTarget))
	row("Rot speed", fmt.Sprintf("%.1f → %.1f °/s", snap.RotSpeed, snap.RotSpeedTarget))
	row("Correction", fmt.Sprintf("%+.3f", snap.PIDResult))
	row("Left", Gauge(snap.LeftOutput, 20))
	row("Right", Gauge(snap.RightOutput, 20))
	row("Crossings", fmt.Sprintf("%d  (last run %d)", snap.Crossings, snap.LastRunCrossings))
	row("Handoffs", fmt.Sprintf("%d", snap.Handoffs))

	if chart := Chart(m.offsets, 5, 36, "offset (mm)"); chart != "" {
		s.WriteString(graphStyle.Render(chart) + "\n")
	}
	s.WriteString(helpStyle.Render("1:Start/Stop 2:Mode SP:Pause\nR:Reset +/-:Speed Q:Quit"))

	canvasView := canvasStyle.Render(m.canvas.String())
	return lipgloss.JoinHorizontal(lipgloss.Top, canvasView, statsStyle.Render(s.String()))
}
