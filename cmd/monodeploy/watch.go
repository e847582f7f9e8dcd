// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/monodeploy/monodeploy/internal/config"
	"github.com/monodeploy/monodeploy/internal/deploy"
	"github.com/monodeploy/monodeploy/internal/issue"
	"github.com/monodeploy/monodeploy/internal/staging"
	"github.com/monodeploy/monodeploy/internal/watch"
	"github.com/monodeploy/monodeploy/pkg/pyproject"
)

// runWatchMode deploys once, then redeploys whenever the project or one of
// its local dependencies changes. It blocks until the context is cancelled
// (e.g. Ctrl+C). A failed deploy is reported and watching continues.
func runWatchMode(cmd *cobra.Command, app *App, rootFlags *rootFlagValues, cfg *config.Config, req deploy.Request) error {
	logger := newLogger(app.stderr, rootFlags.verbose)
	pipeline := app.Pipelines.NewPipeline(cfg, app.Project, logger)

	manifestPath, err := deploy.ResolveManifest(req.ManifestPath)
	if err != nil {
		return err
	}
	m, err := pyproject.Load(manifestPath)
	if err != nil {
		return err
	}
	roots, err := watch.Roots(m)
	if err != nil {
		return err
	}
	stagingDir, err := staging.StagingPath(manifestPath, req.Prefix)
	if err != nil {
		return err
	}
	outputDir, err := filepath.Abs(req.OutputDir)
	if err != nil {
		return fmt.Errorf("resolve output directory: %w", err)
	}

	redeploy := func(ctx context.Context) {
		res, runErr := pipeline.Run(ctx, req)
		if runErr != nil {
			if ctx.Err() == nil {
				renderError(app.stderr, deployFailure(runErr, failedManifest(res, req)), rootFlags.verbose, rootFlags.colorScheme)
			}
			return
		}
		printSummary(app.stdout, res)
	}

	redeploy(cmd.Context())

	w, err := watch.New(watch.Config{
		Roots:    roots,
		Ignore:   req.Exclude,
		SkipDirs: []string{stagingDir, outputDir},
		Debounce: cfg.Watch.Debounce,
		Logger:   logger,
		OnChange: func(ctx context.Context, changed []string) error {
			for _, name := range changed {
				logger.Debug("Changed", "file", name)
			}
			redeploy(ctx)
			return nil
		},
	})
	if err != nil {
		return issue.WrapWithOperation(err, "start watcher")
	}

	logger.Info("Watching for changes (Ctrl+C to stop)", "directories", len(w.Roots()))
	for _, root := range w.Roots() {
		logger.Debug("Watching", "path", root)
	}
	if err := w.Run(cmd.Context()); err != nil {
		return issue.WrapWithContext(err, "watch project", filepath.Dir(manifestPath))
	}
	return nil
}
