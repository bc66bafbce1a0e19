package liveedit

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type frameMsg struct{ text string }

type doneMsg struct {
	summary *Summary
	err     error
}

type tuiModel struct {
	app     *App
	ctx     context.Context
	cancel  context.CancelFunc
	spinner spinner.Model
	plain   bool

	frame   string
	height  int
	stopped bool

	done    bool
	summary *Summary
	err     error
}

func newTUIModel(ctx context.Context, app *App, plain bool) *tuiModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	ctx, cancel := context.WithCancel(ctx)
	return &tuiModel{app: app, ctx: ctx, cancel: cancel, spinner: s, plain: plain}
}

func (m *tuiModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.run)
}

func (m *tuiModel) run() tea.Msg {
	summary, err := m.app.Execute(m.ctx)
	return doneMsg{summary: summary, err: err}
}

func (m *tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			// Wait for the stream to wind down so nothing is committed.
			m.stopped = true
			m.cancel()
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.height = msg.Height
		return m, nil

	case frameMsg:
		m.frame = msg.text
		return m, nil

	case doneMsg:
		m.done = true
		m.summary, m.err = msg.summary, msg.err
		m.cancel()
		return m, tea.Quit

	default:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
}

func (m *tuiModel) View() string {
	if m.done {
		return ""
	}

	status := "Streaming..."
	if m.stopped {
		status = "Stopping..."
	}
	frame := m.frame
	if !m.plain {
		frame = Stylize(frame)
	}
	return tailLines(frame, m.height-2) + "\n" + fmt.Sprintf("%s %s", m.spinner.View(), status)
}

// tailLines keeps the last n lines of s so the live view never scrolls.
func tailLines(s string, n int) string {
	s = strings.TrimRight(s, "\n")
	if n <= 0 {
		return s
	}
	lines := strings.Split(s, "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}

// Run executes app, showing the response as it streams, then prints the
// final frame and the summary to out.
func Run(ctx context.Context, app *App, out io.Writer, noAnimation, plain bool) error {
	var final string
	var summary *Summary
	var err error

	if noAnimation {
		app.SetFrameHandler(func(f *Frame) { final = f.Text })
		summary, err = app.Execute(ctx)
	} else {
		m := newTUIModel(ctx, app, plain)
		p := tea.NewProgram(m)
		app.SetFrameHandler(func(f *Frame) {
			final = f.Text
			p.Send(frameMsg{text: f.Text})
		})
		if _, runErr := p.Run(); runErr != nil {
			m.cancel()
			return fmt.Errorf("live view failed: %w", runErr)
		}
		summary, err = m.summary, m.err
	}

	if final != "" {
		if !plain {
			final = Stylize(final)
		}
		fmt.Fprint(out, final)
	}
	if summary != nil {
		fmt.Fprint(out, FormatSummary(summary))
	}
	return err
}
