package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	watchTitleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6"))
	watchFooterStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	watchErrorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
)

// refreshMsg asks the view to render again, e.g. after the registry changed.
type refreshMsg struct{}

type tickMsg time.Time

type renderedMsg struct {
	view string
	at   time.Time
	err  error
}

// WatchView is a full-screen view that keeps a rendered listing up to date.
// It re-renders on every interval tick, on every refreshMsg and on 'r'.
type WatchView struct {
	Title    string
	Interval time.Duration
	// Render produces the body; an error ends the view.
	Render func() (string, error)

	body    string
	updated time.Time
	err     error
}

// NewWatchView returns a view over render.
func NewWatchView(title string, interval time.Duration, render func() (string, error)) *WatchView {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &WatchView{Title: title, Interval: interval, Render: render}
}

// Err is the render error that ended the view, if any.
func (v *WatchView) Err() error {
	return v.err
}

func (v *WatchView) render() tea.Msg {
	body, err := v.Render()
	return renderedMsg{view: body, at: time.Now(), err: err}
}

func (v *WatchView) tick() tea.Cmd {
	return tea.Tick(v.Interval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (v *WatchView) Init() tea.Cmd {
	return tea.Batch(v.render, v.tick())
}

func (v *WatchView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return v, tea.Quit
		case "r":
			return v, v.render
		}
	case tickMsg:
		return v, tea.Batch(v.render, v.tick())
	case refreshMsg:
		return v, v.render
	case renderedMsg:
		if msg.err != nil {
			v.err = msg.err
			return v, tea.Quit
		}
		v.body = msg.view
		v.updated = msg.at
	}
	return v, nil
}

func (v *WatchView) View() string {
	var b strings.Builder
	b.WriteString(watchTitleStyle.Render(v.Title))
	b.WriteString("\n\n")
	if v.err != nil {
		b.WriteString(watchErrorStyle.Render("Error: " + v.err.Error()))
		b.WriteString("\n")
		return b.String()
	}
	b.WriteString(strings.TrimRight(v.body, "\n"))
	b.WriteString("\n\n")
	footer := "q to quit, r to refresh"
	if !v.updated.IsZero() {
		footer = fmt.Sprintf("Updated %s · %s", v.updated.Format("15:04:05"), footer)
	}
	b.WriteString(watchFooterStyle.Render(footer))
	b.WriteString("\n")
	return b.String()
}

// RunWatch shows view until the user quits or ctx is done, refreshing it
// whenever watcher reports a change.
func RunWatch(ctx context.Context, watcher *Watcher, view *WatchView, in io.Reader, out io.Writer) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(view,
		tea.WithContext(ctx),
		tea.WithInput(in),
		tea.WithOutput(out),
		tea.WithAltScreen(),
	)

	watchErr := make(chan error, 1)
	go func() {
		err := watcher.Run(ctx, func() { p.Send(refreshMsg{}) })
		if err != nil {
			p.Quit()
		}
		watchErr <- err
	}()

	_, err := p.Run()
	interrupted := ctx.Err() != nil
	cancel()
	if err != nil && !(interrupted && errors.Is(err, tea.ErrProgramKilled)) && !errors.Is(err, context.Canceled) {
		return err
	}
	if err := <-watchErr; err != nil {
		return err
	}
	return view.Err()
}
