// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/monodeploy/monodeploy/internal/config"
)

// settableKeys lists the keys accepted by `config set`.
var settableKeys = []string{
	"staging.prefix",
	"output.dir",
	"venv.python",
	"venv.install_command",
	"rewrite.enabled",
	"ui.verbose",
	"ui.color_scheme",
	"watch.debounce",
}

// newConfigCommand creates the `monodeploy config` command tree.
func newConfigCommand(app *App, rootFlags *rootFlagValues) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage monodeploy configuration",
		Long: `Manage monodeploy configuration.

Configuration is stored in:
  - Linux: ~/.config/monodeploy/config.cue
  - macOS: ~/Library/Application Support/monodeploy/config.cue
  - Windows: %APPDATA%\monodeploy\config.cue

A config.cue in the current directory is merged over it; --config replaces both.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := rootFlags.loadConfig(cmd, app)
			if err != nil {
				return err
			}
			showConfig(app.stdout, cfg, rootFlags.configPath)
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create default configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.CreateDefaultConfig()
			if err != nil {
				return fmt.Errorf("failed to create config: %w", err)
			}
			fmt.Fprintf(app.stdout, "%s Configuration file at %s\n", SuccessStyle.Render("✓"), path)
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		RunE: func(cmd *cobra.Command, args []string) error {
			if rootFlags.configPath != "" {
				fmt.Fprintln(app.stdout, rootFlags.configPath)
				return nil
			}
			path, err := config.FilePath()
			if err != nil {
				return err
			}
			fmt.Fprintln(app.stdout, path)
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:       "set <key> <value>",
		Short:     "Set a configuration value",
		Args:      cobra.ExactArgs(2),
		ValidArgs: settableKeys,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := rootFlags.loadConfig(cmd, app)
			if err != nil {
				return err
			}
			if err := setConfigValue(cfg, args[0], args[1]); err != nil {
				return err
			}
			if valid, errs := cfg.IsValid(); !valid {
				return errs[0]
			}
			if err := config.Save(cfg); err != nil {
				return fmt.Errorf("failed to save config: %w", err)
			}
			fmt.Fprintf(app.stdout, "%s Set %s = %s\n", SuccessStyle.Render("✓"), args[0], args[1])
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "dump",
		Short: "Output the effective configuration as CUE",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := rootFlags.loadConfig(cmd, app)
			if err != nil {
				return err
			}
			fmt.Fprint(app.stdout, config.GenerateCUE(cfg))
			return nil
		},
	})

	return cfgCmd
}

func showConfig(w io.Writer, cfg *config.Config, explicitPath string) {
	keyStyle := CmdStyle
	valueStyle := SuccessStyle

	fmt.Fprintln(w, TitleStyle.Render("Current Configuration"))
	fmt.Fprintln(w)

	path := explicitPath
	if path == "" {
		if p, err := config.FilePath(); err == nil && fileExistsCheck(p) {
			path = p
		}
	}
	if path != "" {
		fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("Config file"), path)
	} else {
		fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("Config file"), SubtitleStyle.Render("(using defaults)"))
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s:\n", keyStyle.Render("staging"))
	fmt.Fprintf(w, "  prefix: %s\n", valueStyle.Render(cfg.Staging.Prefix.String()))
	if len(cfg.Staging.Exclude) == 0 {
		fmt.Fprintf(w, "  exclude: %s\n", SubtitleStyle.Render("(none configured)"))
	} else {
		fmt.Fprintln(w, "  exclude:")
		for _, pat := range cfg.Staging.Exclude {
			fmt.Fprintf(w, "    - %s\n", valueStyle.Render(string(pat)))
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s:\n", keyStyle.Render("output"))
	fmt.Fprintf(w, "  dir: %s\n", valueStyle.Render(cfg.Output.Dir))

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s:\n", keyStyle.Render("venv"))
	fmt.Fprintf(w, "  python: %s\n", valueStyle.Render(cfg.Venv.Python))
	fmt.Fprintf(w, "  install_command: %s\n", valueStyle.Render(cfg.Venv.InstallCommand.String()))

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s:\n", keyStyle.Render("rewrite"))
	fmt.Fprintf(w, "  enabled: %s\n", valueStyle.Render(strconv.FormatBool(cfg.Rewrite.Enabled)))

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s:\n", keyStyle.Render("ui"))
	fmt.Fprintf(w, "  color_scheme: %s\n", valueStyle.Render(cfg.UI.ColorScheme.String()))
	fmt.Fprintf(w, "  verbose: %s\n", valueStyle.Render(strconv.FormatBool(cfg.UI.Verbose)))

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s:\n", keyStyle.Render("watch"))
	fmt.Fprintf(w, "  debounce: %s\n", valueStyle.Render(cfg.Watch.Debounce.String()))
}

func setConfigValue(cfg *config.Config, key, value string) error {
	switch key {
	case "staging.prefix":
		cfg.Staging.Prefix = config.StagingPrefix(value)
	case "output.dir":
		cfg.Output.Dir = value
	case "venv.python":
		cfg.Venv.Python = value
	case "venv.install_command":
		cfg.Venv.InstallCommand = config.InstallCommand(value)
	case "rewrite.enabled":
		cfg.Rewrite.Enabled = isTrue(value)
	case "ui.verbose":
		cfg.UI.Verbose = isTrue(value)
	case "ui.color_scheme":
		cfg.UI.ColorScheme = config.ColorScheme(value)
	case "watch.debounce":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid watch.debounce %q: %w", value, err)
		}
		cfg.Watch.Debounce = d
	default:
		return fmt.Errorf("unknown configuration key: %s\nValid keys: %s", key, strings.Join(settableKeys, ", "))
	}
	return nil
}

func isTrue(value string) bool {
	return value == "true" || value == "1"
}

// fileExistsCheck checks if a file exists and is not a directory.
func fileExistsCheck(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
