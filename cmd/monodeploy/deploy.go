// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/monodeploy/monodeploy/internal/config"
	"github.com/monodeploy/monodeploy/internal/deploy"
)

// deployFlagValues holds the flags of `monodeploy deploy`.
type deployFlagValues struct {
	topNamespace string
	withVenv     bool
	output       string
	keepStaging  bool
	watch        bool
	noRewrite    bool
}

func newDeployCommand(app *App, rootFlags *rootFlagValues) *cobra.Command {
	flags := &deployFlagValues{}

	deployCmd := &cobra.Command{
		Use:   "deploy [path]",
		Short: "Stage a project with its local dependencies and copy its distribution",
		Long: `Stage a project with its local dependencies and copy its distribution.

path is the project's pyproject.toml or its directory and defaults to the
current directory. The project and the sibling packages it depends on are
copied into .<prefix>_<name> next to the project, a self-contained
pyproject.toml is generated there, and the files of the distribution are
copied into the output directory. The staging directory is removed
afterwards, whether the deploy succeeded or not.

` + SubtitleStyle.Render("Examples:") + `
  monodeploy deploy
  monodeploy deploy ./projects/app --with-top-namespace lib
  monodeploy deploy --with-venv --output build`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := rootFlags.loadConfig(cmd, app)
			if err != nil {
				return err
			}
			req := flags.request(cmd, cfg, args)
			if flags.watch {
				return runWatchMode(cmd, app, rootFlags, cfg, req)
			}
			return runDeploy(cmd, app, rootFlags, cfg, req)
		},
	}

	deployCmd.Flags().StringVar(&flags.topNamespace, "with-top-namespace", "", "move sibling packages under this top namespace (e.g. lib or my/ns)")
	deployCmd.Flags().BoolVar(&flags.withVenv, "with-venv", false, "install the locked dependencies into <output>/.venv")
	deployCmd.Flags().StringVarP(&flags.output, "output", "o", config.DefaultOutputDir, "directory receiving the distribution files")
	deployCmd.Flags().BoolVar(&flags.keepStaging, "keep-staging", false, "keep the staging directory for inspection")
	deployCmd.Flags().BoolVarP(&flags.watch, "watch", "w", false, "redeploy whenever the project or its local dependencies change")
	deployCmd.Flags().BoolVar(&flags.noRewrite, "no-rewrite", false, "do not rewrite imports of relocated siblings")

	return deployCmd
}

// request merges flags over cfg. Flags win only when set explicitly.
func (f *deployFlagValues) request(cmd *cobra.Command, cfg *config.Config, args []string) deploy.Request {
	req := deploy.Request{
		TopNamespace: f.topNamespace,
		OutputDir:    cfg.Output.Dir,
		Prefix:       cfg.Staging.Prefix.String(),
		Exclude:      cfg.Staging.ExcludePatterns(),
		WithVenv:     f.withVenv,
		SkipRewrite:  f.noRewrite || !cfg.Rewrite.Enabled,
		KeepStaging:  f.keepStaging,
	}
	if len(args) > 0 {
		req.ManifestPath = args[0]
	}
	if cmd.Flags().Changed("output") || req.OutputDir == "" {
		req.OutputDir = f.output
	}
	return req
}

func runDeploy(cmd *cobra.Command, app *App, rootFlags *rootFlagValues, cfg *config.Config, req deploy.Request) error {
	logger := newLogger(app.stderr, rootFlags.verbose)
	pipeline := app.Pipelines.NewPipeline(cfg, app.Project, logger)

	res, err := pipeline.Run(cmd.Context(), req)
	if err != nil {
		return interrupted(deployFailure(err, failedManifest(res, req)))
	}
	printSummary(app.stdout, res)
	return nil
}

// printSummary writes the styled outcome of a successful deploy.
// failedManifest names the manifest of a failed run: the resolved one when the
// pipeline got that far, else the path the user gave.
func failedManifest(res *deploy.Result, req deploy.Request) string {
	if res != nil && res.Manifest != "" {
		return res.Manifest
	}
	return req.ManifestPath
}

func printSummary(w io.Writer, res *deploy.Result) {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", SuccessStyle.Render("✓"), TitleStyle.Render("Deployed "+projectLabel(res)))
	fmt.Fprintf(&b, "%s: %s\n", CmdStyle.Render("output"), res.OutputDir)
	fmt.Fprintf(&b, "%s: %d", CmdStyle.Render("files"), len(res.Artifacts))
	if !res.Namespace.IsZero() {
		fmt.Fprintf(&b, "\n%s: %s (%d relocated, %d rewritten)", CmdStyle.Render("namespace"), res.Namespace, len(res.Relocated), len(res.Rewritten))
	}
	if res.VenvPath != "" {
		fmt.Fprintf(&b, "\n%s: %s", CmdStyle.Render("venv"), res.VenvPath)
	}
	if res.State != deploy.StateCleaned {
		fmt.Fprintf(&b, "\n%s: %s", CmdStyle.Render("staging"), res.StagingDir)
	}
	fmt.Fprintln(w, summaryBoxStyle.Render(b.String()))
}

func projectLabel(res *deploy.Result) string {
	if res.Manifest == "" {
		return "project"
	}
	return filepath.Base(filepath.Dir(res.Manifest))
}
