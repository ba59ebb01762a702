package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-runewidth"
	"gopkg.in/yaml.v3"

	"orbit/internal/orbit"
	"orbit/internal/ports"
)

// OutputFormat represents the output format for CLI commands
type OutputFormat string

const (
	OutputFormatTable OutputFormat = "table"
	OutputFormatJSON  OutputFormat = "json"
	OutputFormatYAML  OutputFormat = "yaml"
)

// ParseOutputFormat validates a --output flag value.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(s)); f {
	case OutputFormatTable, OutputFormatJSON, OutputFormatYAML:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported output format: %s (use table, json or yaml)", s)
	}
}

// branchWidth bounds the BRANCH column so long branch names do not wrap.
const branchWidth = 32

// Formatter renders command results to Out.
type Formatter struct {
	Format OutputFormat
	Out    io.Writer
}

// NewFormatter creates a new formatter
func NewFormatter(format OutputFormat, out io.Writer) *Formatter {
	if format == "" {
		format = OutputFormatTable
	}
	return &Formatter{Format: format, Out: out}
}

type orbitView struct {
	Name      string    `json:"name" yaml:"name"`
	Planet    string    `json:"planet" yaml:"planet"`
	Branch    string    `json:"branch" yaml:"branch"`
	State     string    `json:"state" yaml:"state"`
	Worktree  string    `json:"worktree" yaml:"worktree"`
	Ports     ports.Map `json:"ports" yaml:"ports"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

// Orbits renders the result of orbit list.
func (f *Formatter) Orbits(statuses []orbit.Status) error {
	views := make([]orbitView, 0, len(statuses))
	for _, s := range statuses {
		views = append(views, orbitView{
			Name:      s.Orbit.Name,
			Planet:    s.Orbit.Planet,
			Branch:    s.Orbit.Branch,
			State:     s.State,
			Worktree:  s.Orbit.Worktree,
			Ports:     s.Orbit.Ports,
			CreatedAt: s.Orbit.CreatedAt,
		})
	}

	switch f.Format {
	case OutputFormatJSON:
		return f.outputJSON(views)
	case OutputFormatYAML:
		return f.outputYAML(views)
	}

	if len(views) == 0 {
		fmt.Fprintln(f.Out, text.FgYellow.Sprint("No active orbits."))
		return nil
	}

	t := f.newTable()
	t.AppendHeader(header("ORBIT", "PLANET", "BRANCH", "STATUS", "PORTS"))
	for _, v := range views {
		t.AppendRow(table.Row{
			v.Name,
			v.Planet,
			runewidth.Truncate(v.Branch, branchWidth, "…"),
			formatState(v.State),
			formatPortList(v.Ports),
		})
	}
	t.Render()
	return nil
}

// Ports renders a port assignment table, highlighting remapped ports.
func (f *Formatter) Ports(m ports.Map) error {
	switch f.Format {
	case OutputFormatJSON:
		return f.outputJSON(m)
	case OutputFormatYAML:
		return f.outputYAML(m)
	}
	if m.Len() == 0 {
		return nil
	}

	t := f.newTable()
	t.AppendHeader(header("DECLARED", "ASSIGNED"))
	for _, a := range m.Entries() {
		assigned := strconv.Itoa(a.Assigned)
		if a.Assigned != a.Declared {
			assigned = text.FgYellow.Sprint(assigned + " (remapped)")
		}
		t.AppendRow(table.Row{a.Declared, assigned})
	}
	t.Render()
	return nil
}

// Launched renders the result of orbit launch.
func (f *Formatter) Launched(res *orbit.LaunchResult) error {
	switch f.Format {
	case OutputFormatJSON:
		return f.outputJSON(launchView(res))
	case OutputFormatYAML:
		return f.outputYAML(launchView(res))
	}

	fmt.Fprintf(f.Out, "\n%s %s\n", text.FgHiGreen.Sprint("Launched"), text.Bold.Sprint(res.Orbit.Name))
	fmt.Fprintf(f.Out, "  %s %s\n", text.FgHiBlack.Sprint("worktree:"), res.Orbit.Worktree)
	fmt.Fprintf(f.Out, "  %s %s\n", text.FgHiBlack.Sprint("branch:  "), res.Orbit.Branch)
	if res.Orbit.Ports.Len() > 0 {
		fmt.Fprintln(f.Out)
		if err := f.Ports(res.Orbit.Ports); err != nil {
			return err
		}
	}
	if res.AttachHint != "" {
		fmt.Fprintf(f.Out, "\nAttach with: %s\n", text.FgHiCyan.Sprint(res.AttachHint))
	}
	return nil
}

type launchOutput struct {
	orbitView  `yaml:",inline"`
	Switched   bool   `json:"switched" yaml:"switched"`
	AttachHint string `json:"attach_hint,omitempty" yaml:"attach_hint,omitempty"`
}

func launchView(res *orbit.LaunchResult) launchOutput {
	o := res.Orbit
	return launchOutput{
		orbitView: orbitView{
			Name:      o.Name,
			Planet:    o.Planet,
			Branch:    o.Branch,
			State:     orbit.StateRunning,
			Worktree:  o.Worktree,
			Ports:     o.Ports,
			CreatedAt: o.CreatedAt,
		},
		Switched:   res.Switched,
		AttachHint: res.AttachHint,
	}
}

// Destroyed renders the result of orbit destroy.
func (f *Formatter) Destroyed(res *orbit.DestroyResult) error {
	view := struct {
		Name          string    `json:"name" yaml:"name"`
		WasStale      bool      `json:"was_stale" yaml:"was_stale"`
		ReleasedPorts ports.Map `json:"released_ports" yaml:"released_ports"`
	}{res.Name, res.WasStale, res.ReleasedPorts}

	switch f.Format {
	case OutputFormatJSON:
		return f.outputJSON(view)
	case OutputFormatYAML:
		return f.outputYAML(view)
	}

	suffix := ""
	if res.WasStale {
		suffix = text.FgHiBlack.Sprint(" (stale)")
	}
	fmt.Fprintf(f.Out, "%s %s%s\n", text.FgHiGreen.Sprint("Destroyed"), res.Name, suffix)
	if res.ReleasedPorts.Len() > 0 {
		fmt.Fprintf(f.Out, "  %s %s\n", text.FgHiBlack.Sprint("released ports:"), formatPortList(res.ReleasedPorts))
	}
	return nil
}

func (f *Formatter) newTable() table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(f.Out)
	t.SetStyle(table.StyleRounded)
	return t
}

func header(cols ...string) table.Row {
	row := make(table.Row, len(cols))
	for i, c := range cols {
		row[i] = text.FgHiCyan.Sprint(c)
	}
	return row
}

func (f *Formatter) outputJSON(v interface{}) error {
	enc := json.NewEncoder(f.Out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (f *Formatter) outputYAML(v interface{}) error {
	enc := yaml.NewEncoder(f.Out)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to convert to YAML: %w", err)
	}
	return enc.Close()
}

// formatState adds color coding to session liveness
func formatState(state string) string {
	switch state {
	case orbit.StateRunning:
		return text.FgGreen.Sprint(state)
	case orbit.StateStale:
		return text.FgYellow.Sprint(state)
	default:
		return state
	}
}

func formatPortList(m ports.Map) string {
	if m.Len() == 0 {
		return text.FgHiBlack.Sprint("-")
	}
	parts := make([]string, 0, m.Len())
	for _, a := range m.Entries() {
		if a.Assigned == a.Declared {
			parts = append(parts, strconv.Itoa(a.Assigned))
		} else {
			parts = append(parts, fmt.Sprintf("%d→%d", a.Declared, a.Assigned))
		}
	}
	return strings.Join(parts, ", ")
}
