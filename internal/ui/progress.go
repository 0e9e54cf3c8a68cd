// Package ui renders acquisition progress and results in the terminal.
// Interactive sessions get a live spinner view; pipes get plain lines.
package ui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"framegrab/internal/acquire"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true)
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	panelStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

// Interactive reports whether stderr is attached to a terminal. Progress
// rendering goes to stderr so stdout stays clean for --json consumers.
func Interactive() bool {
	return term.IsTerminal(int(os.Stderr.Fd()))
}

type attemptMsg acquire.Event

type finishedMsg struct{}

type progressModel struct {
	sp       spinner.Model
	title    string
	attempts []acquire.Event
	quitting bool
}

func newProgressModel(title string) progressModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("212"))
	return progressModel{sp: sp, title: title}
}

func (m progressModel) Init() tea.Cmd {
	return m.sp.Tick
}

func (m progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case attemptMsg:
		m.attempts = append(m.attempts, acquire.Event(msg))
		return m, nil
	case finishedMsg:
		m.quitting = true
		return m, tea.Quit
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			m.quitting = true
			return m, tea.Quit
		}
		return m, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.sp, cmd = m.sp.Update(msg)
		return m, cmd
	default:
		return m, nil
	}
}

func (m progressModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(m.title) + "\n")
	for _, ev := range m.attempts {
		b.WriteString("  " + renderAttemptLine(ev) + "\n")
	}
	b.WriteString(fmt.Sprintf("  %s %s\n", m.sp.View(), mutedStyle.Render("working...")))
	return b.String()
}

func renderAttemptLine(ev acquire.Event) string {
	label := ev.Source.String()
	if ev.Retry {
		label += " (retry)"
	}
	if ev.Attempt.Success {
		return fmt.Sprintf("%s %s", okStyle.Render("ok"), label)
	}
	return fmt.Sprintf("%s %s: %s", errorStyle.Render("--"), label, ev.Attempt.Kind)
}

// Progress is a live attempt-by-attempt view of an acquisition cascade.
// Events may arrive from any goroutine via Observer.
type Progress struct {
	prog *tea.Program
	done chan struct{}
}

// NewProgress starts the spinner view on w (normally stderr).
func NewProgress(title string, w io.Writer) *Progress {
	p := &Progress{
		prog: tea.NewProgram(newProgressModel(title), tea.WithOutput(w), tea.WithoutSignalHandler()),
		done: make(chan struct{}),
	}
	go func() {
		defer close(p.done)
		_, _ = p.prog.Run()
	}()
	return p
}

// Observer adapts the view into an acquisition observer callback.
func (p *Progress) Observer() func(acquire.Event) {
	return func(ev acquire.Event) {
		p.prog.Send(attemptMsg(ev))
	}
}

// Stop tears the view down and waits for the terminal to be restored.
func (p *Progress) Stop() {
	p.prog.Send(finishedMsg{})
	<-p.done
}

// PlainObserver writes one line per finished attempt, for non-interactive
// sessions and debug logs.
func PlainObserver(w io.Writer) func(acquire.Event) {
	return func(ev acquire.Event) {
		label := ev.Source.String()
		if ev.Retry {
			label += " (retry)"
		}
		if ev.Attempt.Success {
			fmt.Fprintf(w, "attempt %s: ok\n", label)
			return
		}
		fmt.Fprintf(w, "attempt %s: %s\n", label, ev.Attempt.Kind)
	}
}
