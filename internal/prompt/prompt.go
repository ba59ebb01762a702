// Package prompt asks the user to pick an orbit or confirm a destructive step.
package prompt

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"orbit/internal/resolve"
)

var (
	headingStyle  = lipgloss.NewStyle().Bold(true)
	indexStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	questionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3")).Bold(true)
)

// Prompter reads answers from In and writes questions to Out.
type Prompter struct {
	In  io.Reader
	Out io.Writer
	// ConfirmNeedsTerminal makes Confirm answer no without reading when In
	// is not a terminal, so piped input never approves a destructive step.
	ConfirmNeedsTerminal bool

	reader *bufio.Reader
}

// New returns a Prompter over in/out.
func New(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{In: in, Out: out}
}

// NewTerminal returns a Prompter over the process stdin that writes to out,
// normally stderr. Confirmations require stdin to be a terminal.
func NewTerminal(out io.Writer) *Prompter {
	p := New(os.Stdin, out)
	p.ConfirmNeedsTerminal = true
	return p
}

// IsInteractive reports whether In is a terminal.
func (p *Prompter) IsInteractive() bool {
	f, ok := p.In.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func (p *Prompter) readLine() (string, error) {
	if p.reader == nil {
		p.reader = bufio.NewReader(p.In)
	}
	line, err := p.reader.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// Choose shows candidates as a numbered list and returns the one picked.
// Anything other than a listed number fails with resolve.ErrInvalidSelection.
func (p *Prompter) Choose(candidates []string) (string, error) {
	fmt.Fprintln(p.Out, headingStyle.Render("Multiple orbits active:"))
	for i, name := range candidates {
		fmt.Fprintf(p.Out, "  %s %s\n", indexStyle.Render(fmt.Sprintf("%d.", i+1)), name)
	}
	fmt.Fprint(p.Out, questionStyle.Render("Select orbit")+": ")

	line, err := p.readLine()
	if err != nil {
		return "", fmt.Errorf("%w: no answer", resolve.ErrInvalidSelection)
	}
	idx, err := resolve.ParseSelection(line, len(candidates))
	if err != nil {
		return "", err
	}
	return candidates[idx], nil
}

// Confirm asks a yes/no question; only "y" or "yes" count as yes.
func (p *Prompter) Confirm(question string) (bool, error) {
	if p.ConfirmNeedsTerminal && !p.IsInteractive() {
		fmt.Fprintln(p.Out, questionStyle.Render(question)+" [y/N]: no (stdin is not a terminal)")
		return false, nil
	}
	fmt.Fprint(p.Out, questionStyle.Render(question)+" [y/N]: ")
	line, err := p.readLine()
	if err != nil {
		if err == io.EOF {
			return false, nil
		}
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}
