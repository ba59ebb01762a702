package cmd

import (
	"bytes"
	"io"
	"time"

	"github.com/spf13/cobra"

	"orbit/internal/cli"
)

var (
	listOutputFormat string
	listWatch        bool
	listInterval     time.Duration
)

func newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List all active orbits",
		Long: `List every registered orbit with its planet, branch, ports and whether
its tmux session is still running. Orbits whose session is gone are shown as
stale; 'orbit destroy' cleans them up.`,
		Args: cobra.NoArgs,
		RunE: runList,
	}

	cmd.Flags().StringVarP(&listOutputFormat, "output", "o", "table", "Output format (table, json, yaml)")
	cmd.Flags().BoolVarP(&listWatch, "watch", "w", false, "Keep the list on screen and refresh it when orbits change")
	cmd.Flags().DurationVar(&listInterval, "interval", 2*time.Second, "Refresh interval for --watch")
	return cmd
}

func runList(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseOutputFormat(listOutputFormat)
	if err != nil {
		return err
	}
	application, err := newApplication(false)
	if err != nil {
		return err
	}
	services := application.Services()
	ctx := commandContext(cmd)
	listing := func(out io.Writer) error {
		statuses, err := services.Manager.List(ctx)
		if err != nil {
			return err
		}
		return cli.NewFormatter(format, out).Orbits(statuses)
	}

	if !listWatch {
		return listing(cmd.OutOrStdout())
	}

	view := cli.NewWatchView("orbit list", listInterval, func() (string, error) {
		var buf bytes.Buffer
		err := listing(&buf)
		return buf.String(), err
	})
	watcher := &cli.Watcher{Path: services.StatePath, Debounce: 200 * time.Millisecond}
	return cli.RunWatch(ctx, watcher, view, cmd.InOrStdin(), cmd.OutOrStdout())
}
