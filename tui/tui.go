package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nathoo/arena/engine"
	"github.com/nathoo/arena/engine/state"
	"github.com/nathoo/arena/types"
)

// Options configures the TUI run.
type Options struct {
	Cells    int           // grid cells per side
	Every    time.Duration // grid refresh interval
	Duration time.Duration // run length; the program quits when it elapses
	LogLines int           // fight log capacity
}

// Model is the Bubble Tea model for the arena TUI.
type Model struct {
	engine *engine.Engine
	opts   Options

	viewport viewport.Model
	log      *FightLog

	grid     [][]rune
	alive    map[types.Kind]int
	elapsed  time.Duration
	duration time.Duration

	width    int
	height   int
	ready    bool
	quitting bool
}

// tickMsg triggers a grid refresh.
type tickMsg time.Time

// fightMsg carries one resolved fight from the resolver goroutine into the
// Update loop. Entities are copied so the model never touches live state.
type fightMsg struct {
	attacker    types.Snapshot
	attackRoll  int
	defender    types.Snapshot
	defenseRoll int
	win         bool
}

// Observer forwards fights to a running program.
type Observer struct {
	Send func(tea.Msg)
}

func (o *Observer) OnFight(attacker *state.NPC, attackRoll int, defender *state.NPC, defenseRoll int, win bool) {
	o.Send(fightMsg{
		attacker:    attacker.Snapshot(),
		attackRoll:  attackRoll,
		defender:    defender.Snapshot(),
		defenseRoll: defenseRoll,
		win:         win,
	})
}

// New creates a TUI model watching eng.
func New(eng *engine.Engine, opts Options) Model {
	if opts.LogLines <= 0 {
		opts.LogLines = 500
	}
	m := Model{
		engine:   eng,
		opts:     opts,
		log:      NewFightLog(opts.LogLines),
		duration: opts.Duration,
	}
	m.refreshWorld()
	return m
}

// Run starts the engine, shows the program until the duration elapses or
// the user quits, then stops the engine.
func Run(eng *engine.Engine, opts Options) error {
	m := New(eng, opts)
	p := tea.NewProgram(m, tea.WithAltScreen())
	eng.Bus.Subscribe(&Observer{Send: p.Send})

	if err := eng.Start(); err != nil {
		return err
	}
	_, runErr := p.Run()
	if err := eng.Stop(); err != nil {
		return err
	}
	return runErr
}

// Init schedules the first refresh.
func (m Model) Init() tea.Cmd {
	return m.tick()
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.opts.Every, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update handles messages (key presses, window resize, ticks, fights).
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		vpHeight := m.height - m.opts.Cells - 3 // title, grid, blank, status
		if vpHeight < 1 {
			vpHeight = 1
		}

		if !m.ready {
			m.viewport = viewport.New(m.width, vpHeight)
			m.viewport.KeyMap = viewportKeyMap()
			m.ready = true
		} else {
			m.viewport.Width = m.width
			m.viewport.Height = vpHeight
		}
		m.refreshViewport()

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit

		case "pgup", "pgdown", "up", "down", "ctrl+u", "ctrl+d":
			var vpCmd tea.Cmd
			m.viewport, vpCmd = m.viewport.Update(msg)
			return m, vpCmd
		}

	case tickMsg:
		m.elapsed += m.opts.Every
		m.refreshWorld()
		if m.elapsed >= m.duration {
			m.log.Push(fmt.Sprintf("Time is up after %s.", m.duration), kindSystem)
			m.refreshViewport()
			m.quitting = true
			return m, tea.Quit
		}
		return m, m.tick()

	case fightMsg:
		m = m.appendFight(msg)
	}

	return m, nil
}

// refreshWorld re-reads the registry into the grid and alive counts.
func (m *Model) refreshWorld() {
	m.grid = m.engine.Grid(m.opts.Cells).Rows
	m.alive = m.engine.Registry.CountAlive()
}

// appendFight adds a fight line and refreshes the viewport.
func (m Model) appendFight(f fightMsg) Model {
	kind := kindSurvive
	verdict := "survived"
	if f.win {
		kind = kindKill
		verdict = "died"
	}
	line := fmt.Sprintf("%s #%d (%d) vs %s #%d (%d): defender %s",
		f.attacker.Kind, f.attacker.ID, f.attackRoll,
		f.defender.Kind, f.defender.ID, f.defenseRoll, verdict)
	m.log.Push(line, kind)
	m.refreshViewport()
	return m
}

// refreshViewport re-styles the fight log and scrolls to the newest line.
func (m *Model) refreshViewport() {
	if !m.ready {
		return
	}
	styled := make([]string, 0, m.log.Len())
	for _, l := range m.log.entries {
		styled = append(styled, renderLineKind(l.text, l.kind))
	}
	m.viewport.SetContent(strings.Join(styled, "\n"))
	m.viewport.GotoBottom()
}

// View renders the full TUI layout: grid + fight log + status bar.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "Loading..."
	}

	title := styleTitle.Render(fmt.Sprintf("Arena %dx%d", m.opts.Cells, m.opts.Cells))
	return title + "\n" + renderGrid(m.grid) + "\n\n" + m.viewport.View() + "\n" + m.renderStatusBar()
}

// viewportKeyMap returns a viewport keymap limited to paging.
func viewportKeyMap() viewport.KeyMap {
	return viewport.KeyMap{
		PageDown:     key.NewBinding(key.WithKeys("pgdown")),
		PageUp:       key.NewBinding(key.WithKeys("pgup")),
		HalfPageDown: key.NewBinding(key.WithKeys("ctrl+d")),
		HalfPageUp:   key.NewBinding(key.WithKeys("ctrl+u")),
		Up:           key.NewBinding(key.WithKeys("up")),
		Down:         key.NewBinding(key.WithKeys("down")),
	}
}
