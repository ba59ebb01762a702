package cmd

import (
	"github.com/spf13/cobra"
)

func newJumpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "jump [name]",
		Short: "Switch the current tmux client to another orbit",
		Long: `Switch the current tmux client to another orbit. Only works from inside
tmux; use 'orbit attach' otherwise.

The name may be a unique prefix of an orbit name. Ambiguous prefixes and a
missing name ask you to pick one.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := newApplication(false)
			if err != nil {
				return err
			}
			services := application.Services()
			name, err := services.Manager.Jump(commandContext(cmd), optionalArg(args))
			if err != nil {
				return err
			}
			services.Console.Success("Switched to %s", name)
			return nil
		},
	}
}
