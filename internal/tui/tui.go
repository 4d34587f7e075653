// Package tui plays a session in the terminal.
package tui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"numberbaseball/internal/baseball"
	"numberbaseball/internal/session"
	"numberbaseball/internal/timer"
	"numberbaseball/internal/types"
)

const refreshInterval = 250 * time.Millisecond

type tickMsg time.Time

// Model is the bubbletea model for one terminal game.
type Model struct {
	game  *session.Session
	input textinput.Model

	snap     session.Snapshot
	errMsg   string
	quitting bool
}

// New returns a model for game. The caller starts the first round.
func New(game *session.Session) *Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.PromptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575")).Bold(true)
	ti.TextStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FAFAFA"))
	ti.Focus()

	m := &Model{game: game, input: ti}
	m.refresh()
	return m
}

func (m *Model) refresh() {
	m.snap = m.game.Snapshot()
	n := m.snap.Config.Length()
	m.input.CharLimit = n
	m.input.Width = n + 1
	m.input.Placeholder = fmt.Sprintf("Enter a %d-digit number", n)
}

func tick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, tick())
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		m.refresh()
		return m, tick()

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		case "ctrl+n":
			m.newRound()
			return m, nil
		case "enter":
			m.submit()
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) newRound() {
	m.game.Start()
	m.errMsg = ""
	m.input.Reset()
	m.refresh()
}

func (m *Model) submit() {
	if m.snap.Status.Terminal() {
		m.newRound()
		return
	}
	_, err := m.game.Submit(m.input.Value())
	if err != nil {
		m.errMsg = baseball.Message(err)
	} else {
		m.errMsg = ""
		m.input.Reset()
	}
	m.refresh()
}

func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	var b strings.Builder

	b.WriteString(HeaderStyle.Render("⚾ Number Baseball"))
	b.WriteString("\n\n")
	b.WriteString(m.statusLine())
	b.WriteString("\n\n")

	for _, e := range m.snap.Log {
		b.WriteString(renderEntry(e))
		b.WriteString("\n")
	}
	if len(m.snap.Log) > 0 {
		b.WriteString("\n")
	}

	if m.snap.Status.Terminal() {
		b.WriteString(InfoStyle.Render("enter: play again • esc: quit"))
	} else {
		b.WriteString(m.input.View())
		if m.errMsg != "" {
			b.WriteString("\n")
			b.WriteString(ErrorStyle.Render(m.errMsg))
		}
		b.WriteString("\n\n")
		b.WriteString(InfoStyle.Render("enter: swing • ctrl+n: new game • esc: quit"))
	}
	b.WriteString("\n")
	return b.String()
}

func (m *Model) statusLine() string {
	attempts := "∞"
	level := ""
	if m.snap.AttemptsBounded {
		attempts = strconv.Itoa(m.snap.RemainingAttempts)
		level = timer.AttemptsLevel(m.snap.RemainingAttempts)
	}
	line := levelStyle(level).Render("Attempts left: " + attempts)
	if m.snap.TimeBounded {
		line += "   " + levelStyle(timer.Level(m.snap.Remaining)).Render("⏰ "+timer.FormatClock(m.snap.Remaining))
	}
	return line
}

func renderEntry(e types.LogEntry) string {
	switch e.Kind {
	case types.LogHomerun:
		return SuccessStyle.Render(fmt.Sprintf("Home run! 🎉 %s is correct!", e.Guess))
	case types.LogOut:
		return ErrorStyle.Render("Out! 😢 Answer: " + e.Secret)
	case types.LogTimeout:
		return ErrorStyle.Render("Time's up! ⏰ Answer: " + e.Secret)
	default:
		return LogStyle.Render(baseball.ScoreLine(e.Guess, baseball.Result{Strikes: e.Strikes, Balls: e.Balls}))
	}
}

// Run plays game until the user quits.
func Run(game *session.Session) error {
	_, err := tea.NewProgram(New(game)).Run()
	return err
}
