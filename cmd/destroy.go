package cmd

import (
	"github.com/spf13/cobra"

	"orbit/internal/cli"
	"orbit/internal/orbit"
)

func newDestroyCmd() *cobra.Command {
	var (
		force  bool
		output string
	)
	cmd := &cobra.Command{
		Use:   "destroy [name]",
		Short: "Destroy an orbit and clean up its worktree",
		Long: `Kill an orbit's tmux session, remove its worktree and release its ports.

The name must match exactly. A worktree with uncommitted changes is only
removed after confirmation, or with --force. Stale orbits, whose session is
already gone, are cleaned up the same way.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := cli.ParseOutputFormat(output)
			if err != nil {
				return err
			}
			application, err := newApplication(false)
			if err != nil {
				return err
			}
			res, err := application.Services().Manager.Destroy(commandContext(cmd), orbit.DestroyOptions{
				Name:  optionalArg(args),
				Force: force,
			})
			if err != nil {
				return err
			}
			return cli.NewFormatter(format, cmd.OutOrStdout()).Destroyed(res)
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Remove the worktree even if it has uncommitted changes")
	cmd.Flags().StringVarP(&output, "output", "o", "table", "Output format (table, json, yaml)")
	return cmd
}
