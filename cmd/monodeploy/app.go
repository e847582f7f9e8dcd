// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"io"
	"os"

	"github.com/charmbracelet/log"

	"github.com/monodeploy/monodeploy/internal/build"
	"github.com/monodeploy/monodeploy/internal/config"
	"github.com/monodeploy/monodeploy/internal/deploy"
	"github.com/monodeploy/monodeploy/internal/venv"
)

type (
	// App wires CLI services and shared dependencies. Every Cobra handler
	// receives the App and delegates through its interfaces.
	App struct {
		Config    ConfigProvider
		Pipelines PipelineFactory
		Project   *deploy.CurrentProject
		stdout    io.Writer
		stderr    io.Writer
	}

	// Dependencies defines the injection points for building an App. Nil
	// fields are replaced with production defaults by NewApp.
	Dependencies struct {
		Config    ConfigProvider
		Pipelines PipelineFactory
		Stdout    io.Writer
		Stderr    io.Writer
	}

	// ConfigProvider loads configuration using explicit options.
	ConfigProvider interface {
		Load(ctx context.Context, opts config.LoadOptions) (*config.Config, error)
	}

	// Runner runs one deploy.
	Runner interface {
		Run(ctx context.Context, req deploy.Request) (*deploy.Result, error)
	}

	// PipelineFactory builds the Runner for one invocation from the
	// effective configuration.
	PipelineFactory interface {
		NewPipeline(cfg *config.Config, project deploy.ProjectContext, logger *log.Logger) Runner
	}

	defaultPipelineFactory struct {
		stdout io.Writer
		stderr io.Writer
	}
)

// NewApp creates an App with defaults for omitted dependencies.
func NewApp(deps Dependencies) *App {
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}
	if deps.Config == nil {
		deps.Config = config.NewProvider()
	}
	if deps.Pipelines == nil {
		deps.Pipelines = &defaultPipelineFactory{stdout: deps.Stdout, stderr: deps.Stderr}
	}

	return &App{
		Config:    deps.Config,
		Pipelines: deps.Pipelines,
		Project:   &deploy.CurrentProject{},
		stdout:    deps.Stdout,
		stderr:    deps.Stderr,
	}
}

// NewPipeline builds a pipeline whose installer and collector follow cfg.
// The installer's output goes to stderr so stdout keeps the summary only.
func (f *defaultPipelineFactory) NewPipeline(cfg *config.Config, project deploy.ProjectContext, logger *log.Logger) Runner {
	opts := []venv.Option{
		venv.WithPython(cfg.Venv.Python),
		venv.WithOutput(f.stderr, f.stderr),
		venv.WithLogger(logger),
	}
	if cfg.Venv.InstallCommand != "" {
		opts = append(opts, venv.WithInstallCommand(cfg.Venv.InstallCommand.String()))
	}

	return deploy.New(deploy.Dependencies{
		Project:   project,
		Files:     build.NewCollector(cfg.Staging.ExcludePatterns()...),
		Installer: venv.NewInstaller(opts...),
		Logger:    logger,
	})
}

// newLogger returns the CLI logger writing to w. verbose lowers the level to
// Debug.
func newLogger(w io.Writer, verbose bool) *log.Logger {
	logger := log.NewWithOptions(w, log.Options{
		Prefix: "monodeploy",
		Level:  log.InfoLevel,
	})
	if verbose {
		logger.SetLevel(log.DebugLevel)
	}
	return logger
}
