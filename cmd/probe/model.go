package main

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tw93/probe/internal/app"
)

type tickMsg time.Time

// screen is the renderer side of the controller. It only turns scene
// events into status text; the model redraws from Controller.Frame.
type screen struct {
	status string
}

func (s *screen) Spawn(f app.Frame) {
	s.status = fmt.Sprintf("%d items", len(f.Bodies)+f.Overflow)
}

func (s *screen) Despawn() {}

func (s *screen) UpdateBody(b app.Body) {
	s.status = fmt.Sprintf("Measured %s: %s", b.Name, humanizeBytes(b.Size))
}

func (s *screen) StartTransition(t app.Transition) {
	if t.Kind == app.Drilldown {
		s.status = "Zooming in..."
	} else {
		s.status = "Resetting view..."
	}
}

type model struct {
	ctrl    *app.Controller
	screen  *screen
	frame   app.Frame
	cursor  int
	offset  int
	spinner int
	picking bool
	input   string
	err     string
}

func newModel(ctrl *app.Controller) model {
	s := &screen{status: "Ready"}
	ctrl.SetRenderer(s)
	return model{
		ctrl:   ctrl,
		screen: s,
		frame:  ctrl.Frame(),
	}
}

func (m model) Init() tea.Cmd {
	return tickCmd()
}

func tickCmd() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		m, cmd := m.updateKey(msg)
		m.sync()
		return m, cmd
	case tickMsg:
		m.ctrl.Tick()
		m.spinner = (m.spinner + 1) % len(spinnerFrames)
		m.sync()
		return m, tickCmd()
	default:
		return m, nil
	}
}

// sync refreshes the frame and keeps the cursor on a body.
func (m *model) sync() {
	m.frame = m.ctrl.Frame()
	n := m.listLen()
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+entryViewport {
		m.offset = m.cursor - entryViewport + 1
	}
	if !m.inPicker() && m.frame.View == app.SceneView {
		if b, ok := m.cursorBody(); ok {
			m.ctrl.Hover(b.ID)
			m.frame.Hovered = b.ID
		}
	}
}

func (m model) inPicker() bool {
	return m.picking || m.frame.State == app.NoFolder
}

func (m model) listLen() int {
	if m.inPicker() {
		return min(len(m.frame.Recent), recentLimit)
	}
	return len(m.frame.Bodies)
}

func (m model) cursorBody() (app.Body, bool) {
	if m.cursor < 0 || m.cursor >= len(m.frame.Bodies) {
		return app.Body{}, false
	}
	return m.frame.Bodies[m.cursor], true
}

func (m model) updateKey(msg tea.KeyMsg) (model, tea.Cmd) {
	key := msg.String()
	if key == "ctrl+c" {
		return m, tea.Quit
	}
	if m.inPicker() {
		return m.updatePicker(msg)
	}
	if m.frame.View == app.SettingsView {
		return m.updateSettings(key), nil
	}

	m.err = ""
	switch key {
	case "q":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < m.listLen()-1 {
			m.cursor++
		}
	case "enter", "right", "l":
		b, ok := m.cursorBody()
		if !ok {
			break
		}
		if b.IsDir {
			if m.ctrl.DrillDown(b.ID, app.Point{X: float64(b.Slot)}) {
				m.cursor, m.offset = 0, 0
			}
		} else {
			m.ctrl.Select(b.ID)
		}
	case "s":
		if b, ok := m.cursorBody(); ok {
			m.ctrl.Select(b.ID)
		}
	case "esc":
		m.ctrl.ClearSelection()
	case " ":
		m.ctrl.ResetView()
	case "left", "h", "b":
		if m.ctrl.Back() {
			m.cursor, m.offset = 0, 0
		}
	case "f":
		if m.ctrl.Forward() {
			m.cursor, m.offset = 0, 0
		}
	case "u", "backspace":
		if m.ctrl.Up() {
			m.cursor, m.offset = 0, 0
		}
	case "r":
		m.ctrl.Refresh()
		m.screen.status = "Refreshed"
	case ".":
		m.ctrl.SetShowHidden(!m.ctrl.ShowHidden())
	case ",":
		m.ctrl.ShowSettings()
	case "o":
		m.picking, m.input = true, ""
		m.cursor, m.offset = 0, 0
	default:
		if idx, ok := digit(key); ok && idx < len(m.frame.Breadcrumb) {
			// 1 is the root segment.
			seg := m.frame.Breadcrumb[idx]
			if err := m.ctrl.NavigateTo(seg.Path); err != nil {
				m.err = err.Error()
			}
			m.cursor, m.offset = 0, 0
		}
	}
	return m, nil
}

func digit(key string) (int, bool) {
	if len(key) != 1 || key[0] < '1' || key[0] > '9' {
		return 0, false
	}
	return int(key[0] - '1'), true
}

// updatePicker drives the folder dialog: a path prompt plus the recent list.
func (m model) updatePicker(msg tea.KeyMsg) (model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		if m.ctrl.State() != app.NoFolder {
			m.picking, m.input = false, ""
			m.cursor, m.offset = 0, 0
			return m, nil
		}
		return m, tea.Quit
	case tea.KeyUp:
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil
	case tea.KeyDown:
		if m.cursor < m.listLen()-1 {
			m.cursor++
		}
		return m, nil
	case tea.KeyBackspace:
		if r := []rune(m.input); len(r) > 0 {
			m.input = string(r[:len(r)-1])
		}
		return m, nil
	case tea.KeyEnter:
		path := m.input
		if path == "" && m.cursor < len(m.frame.Recent) {
			path = m.frame.Recent[m.cursor]
		}
		if path == "" {
			return m, nil
		}
		if err := m.ctrl.ChooseFolder(path); err != nil {
			m.err = err.Error()
			return m, nil
		}
		m.picking, m.input, m.err = false, "", ""
		m.cursor, m.offset = 0, 0
		return m, nil
	case tea.KeySpace:
		m.input += " "
		return m, nil
	case tea.KeyRunes:
		m.input += string(msg.Runes)
		return m, nil
	}
	return m, nil
}

func (m model) updateSettings(key string) model {
	switch key {
	case "q", "esc", ",":
		m.ctrl.ShowScene()
	case "+", "=", "right":
		m.ctrl.SetHistoryLimit(m.ctrl.HistoryLimit() + 1)
	case "-", "left":
		m.ctrl.SetHistoryLimit(m.ctrl.HistoryLimit() - 1)
	case "h", ".":
		m.ctrl.SetShowHidden(!m.ctrl.ShowHidden())
	}
	return m
}
