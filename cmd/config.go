package cmd

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/spf13/cobra"

	"orbit/internal/config"
)

// runEditor opens path in the user's editor. Replaced in tests.
var runEditor = func(ctx context.Context, editor []string, path string) error {
	c := exec.CommandContext(ctx, editor[0], append(editor[1:], path)...)
	c.Stdin = os.Stdin
	c.Stdout = os.Stdout
	c.Stderr = os.Stderr
	return c.Run()
}

func newConfigCmd() *cobra.Command {
	var printPath bool
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Open the orbit config file in $EDITOR",
		Long: `Open the orbit config file in $VISUAL or $EDITOR, falling back to vi.
A commented template is written first when the file does not exist.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := userConfigPath()
			if err != nil {
				return err
			}
			if printPath {
				fmt.Fprintln(cmd.OutOrStdout(), path)
				return nil
			}

			if _, err := os.Stat(path); os.IsNotExist(err) {
				if err := config.WriteTemplate(path); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", path)
			}
			if err := runEditor(commandContext(cmd), editorCommand(), path); err != nil {
				return fmt.Errorf("editor failed: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&printPath, "path", false, "Print the config file path")
	return cmd
}

// userConfigPath is the config file named by --config, ORBIT_CONFIG or the
// default location.
func userConfigPath() (string, error) {
	if configPath != "" {
		return config.ExpandHome(configPath), nil
	}
	if env := os.Getenv("ORBIT_CONFIG"); env != "" {
		return config.ExpandHome(env), nil
	}
	return config.DefaultConfigPath()
}

func editorCommand() []string {
	for _, env := range []string{"VISUAL", "EDITOR"} {
		if fields := strings.Fields(os.Getenv(env)); len(fields) > 0 {
			return fields
		}
	}
	return []string{"vi"}
}
