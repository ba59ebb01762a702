package cli

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

var (
	noticeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("3")).Bold(true)
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Bold(true)
)

// Console writes human-facing notices to a stream, normally stderr, so they
// never mix with command results on stdout. It satisfies orbit.Reporter.
type Console struct {
	Out io.Writer
}

// NewConsole returns a Console writing to out.
func NewConsole(out io.Writer) *Console {
	return &Console{Out: out}
}

// Notice prints progress information.
func (c *Console) Notice(format string, args ...interface{}) {
	fmt.Fprintln(c.Out, noticeStyle.Render(fmt.Sprintf(format, args...)))
}

// Warn prints a non-fatal problem.
func (c *Console) Warn(format string, args ...interface{}) {
	fmt.Fprintln(c.Out, warnStyle.Render("Warning:")+" "+fmt.Sprintf(format, args...))
}

// Success prints a completed action.
func (c *Console) Success(format string, args ...interface{}) {
	fmt.Fprintln(c.Out, successStyle.Render(fmt.Sprintf(format, args...)))
}
