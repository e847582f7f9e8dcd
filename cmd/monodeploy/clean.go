// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/monodeploy/monodeploy/internal/deploy"
	"github.com/monodeploy/monodeploy/internal/issue"
	"github.com/monodeploy/monodeploy/internal/staging"
)

func newCleanCommand(app *App, rootFlags *rootFlagValues) *cobra.Command {
	return &cobra.Command{
		Use:   "clean [path]",
		Short: "Remove the staging directory left by an interrupted deploy",
		Long: `Remove the staging directory left by an interrupted or --keep-staging deploy.

path is the project's pyproject.toml or its directory and defaults to the
current directory. Running clean when nothing is left behind is not an error.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := rootFlags.loadConfig(cmd, app)
			if err != nil {
				return err
			}
			path := ""
			if len(args) > 0 {
				path = args[0]
			}
			manifestPath, err := deploy.ResolveManifest(path)
			if err != nil {
				return err
			}
			dir, err := staging.StagingPath(manifestPath, cfg.Staging.Prefix.String())
			if err != nil {
				return err
			}

			if _, statErr := os.Lstat(dir); errors.Is(statErr, fs.ErrNotExist) {
				fmt.Fprintf(app.stdout, "%s %s\n", SubtitleStyle.Render("Nothing to clean:"), dir)
				return nil
			}
			if err := staging.RemoveProject(dir); err != nil {
				return issue.WrapWithContext(err, "clean staging directory", dir)
			}
			fmt.Fprintf(app.stdout, "%s %s\n", SuccessStyle.Render("Removed"), dir)
			return nil
		},
	}
}
