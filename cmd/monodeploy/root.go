// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"

	"github.com/monodeploy/monodeploy/internal/config"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// rootFlagValues holds the persistent flags shared by every command.
type rootFlagValues struct {
	verbose    bool
	configPath string
	// colorScheme is the ui.color_scheme of the last loaded config, used to
	// render catalog pages.
	colorScheme config.ColorScheme
}

// NewRootCommand creates the monodeploy command tree for app.
func NewRootCommand(app *App) (*cobra.Command, *rootFlagValues) {
	flags := &rootFlagValues{colorScheme: config.ColorSchemeAuto}

	rootCmd := &cobra.Command{
		Use:   "monodeploy",
		Short: "Deploy one project out of a Poetry monorepo",
		Long: TitleStyle.Render("monodeploy") + SubtitleStyle.Render(" - deploy one project out of a Poetry monorepo") + `

monodeploy copies a project and the sibling packages it depends on into a
temporary staging directory, generates a self-contained pyproject.toml,
optionally moves the siblings under a common top namespace, and copies the
files of the distribution into an output directory.

` + SubtitleStyle.Render("Examples:") + `
  monodeploy deploy ./projects/app                        Deploy into ./dist
  monodeploy deploy --with-top-namespace lib              Ship siblings as lib.<name>
  monodeploy deploy --with-venv --output build            Include a virtual environment
  monodeploy deploy --watch                               Redeploy on every change
  monodeploy clean ./projects/app                         Remove a leftover staging directory
  monodeploy config show                                  Show current configuration`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&flags.configPath, "config", "", "config file (default is $HOME/.config/monodeploy/config.cue)")

	rootCmd.AddCommand(newDeployCommand(app, flags))
	rootCmd.AddCommand(newCleanCommand(app, flags))
	rootCmd.AddCommand(newConfigCommand(app, flags))
	rootCmd.AddCommand(newCompletionCommand(app))
	rootCmd.AddCommand(newErrorsHelpTopic())

	return rootCmd, flags
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute runs the CLI and exits with the command's exit code. It is called by
// main.main().
func Execute() {
	app := NewApp(Dependencies{})
	rootCmd, flags := NewRootCommand(app)

	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
		fang.WithErrorHandler(func(w io.Writer, _ fang.Styles, err error) {
			renderError(w, err, flags.verbose, flags.colorScheme)
		}),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}

// loadConfig loads the effective configuration and applies ui settings that
// the flags did not override.
func (f *rootFlagValues) loadConfig(cmd *cobra.Command, app *App) (*config.Config, error) {
	cfg, err := app.Config.Load(cmd.Context(), config.LoadOptions{ConfigFilePath: f.configPath})
	if err != nil {
		return nil, err
	}
	f.colorScheme = cfg.UI.ColorScheme
	if !cmd.Flags().Changed("verbose") && cfg.UI.Verbose {
		f.verbose = true
	}
	return cfg, nil
}
