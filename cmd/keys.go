package cmd

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
)

type keyBinding struct {
	keys string
	what string
}

var keySections = []struct {
	title    string
	bindings []keyBinding
}{
	{"navigating windows", []keyBinding{
		{"Ctrl-B 1-9", "jump to window by number"},
		{"Ctrl-B n / p", "next / previous window"},
	}},
	{"navigating panes", []keyBinding{
		{"Ctrl-B arrow", "move focus to another pane"},
		{"Ctrl-B z", "zoom pane (toggle fullscreen)"},
		{"Ctrl-B { / }", "swap pane positions"},
	}},
	{"scrolling", []keyBinding{
		{"Ctrl-B [", "enter scroll mode (q or Esc to exit)"},
		{"mouse wheel", "scroll (enabled in all orbit sessions)"},
	}},
	{"sessions", []keyBinding{
		{"Ctrl-B d", "detach, the orbit keeps running"},
		{"orbit jump", "switch to another orbit"},
		{"orbit list", "see all orbits"},
	}},
	{"copy / paste", []keyBinding{
		{"Ctrl-B [", "enter copy mode"},
		{"Space", "start selection"},
		{"Enter", "copy selection"},
		{"Ctrl-B ]", "paste"},
	}},
}

func newKeysCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keys",
		Short: "Print a tmux cheat sheet for orbit sessions",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "\n  %s\n", text.Bold.Sprint("tmux essentials for orbit"))
			for _, section := range keySections {
				fmt.Fprintf(out, "\n  %s\n", text.FgHiCyan.Sprint(section.title))
				for _, b := range section.bindings {
					fmt.Fprintf(out, "    %-20s  %s\n", b.keys, b.what)
				}
			}
		},
	}
}
