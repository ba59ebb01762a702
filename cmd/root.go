package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"orbit/internal/app"
)

var (
	// configPath overrides ~/.orbit/config.yaml.
	configPath string
	// statePath overrides ~/.orbit/state.json.
	statePath string
	// debug enables verbose logging on stderr.
	debug bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "orbit",
	Short: "Parallel local development environments",
	Long: `orbit runs several branches of a project side by side.

Each orbit is a git worktree for one branch, a tmux session laid out from the
planet's pane configuration, and a set of local ports that do not clash with
any other orbit. 'orbit launch' creates one, 'orbit destroy' tears it down.`,
	// SilenceUsage is set to true to prevent printing usage message on errors
	// handled by us (e.g. unknown orbit names, failed git commands)
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if !term.IsTerminal(int(os.Stdout.Fd())) {
			text.DisableColors()
		}
	},
}

// SetVersion sets the version for the root command
func SetVersion(v string) {
	rootCmd.Version = v
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "orbit version %s\n" .Version}}`)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		// Cobra prints the error, we just exit non-zero
		os.Exit(1)
	}
}

// newApplication bootstraps the services a command needs from the global flags.
func newApplication(loadPlanets bool) (*app.Application, error) {
	cfg := app.NewConfig(debug, configPath, statePath)
	cfg.LoadPlanets = loadPlanets
	return app.NewApplication(cfg, os.Stderr)
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// optionalArg returns the first positional argument, or nil when absent.
func optionalArg(args []string) *string {
	if len(args) == 0 {
		return nil
	}
	return &args[0]
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default is $HOME/.orbit/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&statePath, "state", "", "state file (default is $HOME/.orbit/state.json)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")

	rootCmd.AddCommand(newLaunchCmd())
	rootCmd.AddCommand(newAttachCmd())
	rootCmd.AddCommand(newJumpCmd())
	rootCmd.AddCommand(newListCmd())
	rootCmd.AddCommand(newDestroyCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newKeysCmd())
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newSelfUpdateCmd())
}
