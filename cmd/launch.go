package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"orbit/internal/cli"
	"orbit/internal/config"
	"orbit/internal/orbit"
)

type launchFlags struct {
	name   string
	base   string
	copy   bool
	attach bool
	output string
}

func newLaunchCmd() *cobra.Command {
	flags := &launchFlags{}
	cmd := &cobra.Command{
		Use:   "launch [branch]",
		Short: "Create a new orbit for the current planet",
		Long: `Create a worktree, a tmux session and a port set for a branch of the
planet that contains the current directory.

Without a branch argument the branch currently checked out is used. A branch
that exists neither locally nor on the remote is created from --base, or from
the remote's default branch.

When the current directory is not inside any configured planet, a planet entry
is scaffolded from it and appended to the config file for review.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLaunch(cmd, args, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.name, "name", "n", "", "Override the orbit name")
	cmd.Flags().StringVar(&flags.base, "base", "", "Start point for a new branch (default: the remote's default branch)")
	cmd.Flags().BoolVar(&flags.copy, "copy", false, "Copy the attach command to the clipboard")
	cmd.Flags().BoolVarP(&flags.attach, "attach", "a", false, "Attach to the new orbit once it is running")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "table", "Output format (table, json, yaml)")
	return cmd
}

func runLaunch(cmd *cobra.Command, args []string, flags *launchFlags) error {
	format, err := cli.ParseOutputFormat(flags.output)
	if err != nil {
		return err
	}
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get working directory: %w", err)
	}

	application, err := newApplication(true)
	if err != nil {
		var notice *config.Notice
		if errors.As(err, &notice) {
			fmt.Fprintln(cmd.OutOrStdout(), notice.Message)
			return nil
		}
		return err
	}
	services := application.Services()
	ctx := commandContext(cmd)

	opts := orbit.LaunchOptions{Cwd: cwd, Name: flags.name, Base: flags.base}
	if len(args) > 0 {
		opts.Branch = args[0]
	}
	res, err := services.Manager.Launch(ctx, opts)
	if errors.Is(err, orbit.ErrPlanetNotFound) {
		return scaffoldPlanet(cmd, cwd)
	}
	if err != nil {
		return err
	}

	if err := cli.NewFormatter(format, cmd.OutOrStdout()).Launched(res); err != nil {
		return err
	}

	if flags.copy && res.AttachHint != "" {
		if err := clipboard.WriteAll(res.AttachHint); err != nil {
			services.Console.Warn("Could not copy to clipboard: %v", err)
		} else {
			services.Console.Notice("Copied '%s' to the clipboard", res.AttachHint)
		}
	}

	if flags.attach && !res.Switched {
		name := res.Orbit.Name
		return services.Manager.Attach(ctx, &name)
	}
	return nil
}

// scaffoldPlanet registers the current directory as a new planet and asks the
// user to review it before launching.
func scaffoldPlanet(cmd *cobra.Command, cwd string) error {
	path, err := userConfigPath()
	if err != nil {
		return err
	}

	planet := config.ScaffoldPlanet(cwd)
	if err := config.AppendPlanet(path, planet); err != nil {
		return fmt.Errorf("failed to add planet '%s': %w", planet.Name, err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Added planet '%s' to %s.\n", planet.Name, path)
	fmt.Fprintf(out, "Review %s and run 'orbit launch' again.\n", path)
	return nil
}
