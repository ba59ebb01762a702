package cmd

import (
	"github.com/spf13/cobra"
)

func newAttachCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "attach [name]",
		Short: "Attach the terminal to an orbit's tmux session",
		Long: `Attach the terminal to an orbit's tmux session, replacing the orbit
process with the tmux client.

The name must match exactly. Without a name the only active orbit is used, or
you are asked to pick one.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := newApplication(false)
			if err != nil {
				return err
			}
			return application.Services().Manager.Attach(commandContext(cmd), optionalArg(args))
		},
	}
}
