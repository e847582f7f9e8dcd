// SPDX-License-Identifier: MPL-2.0

package venv

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/charmbracelet/log"
	"mvdan.cc/sh/v3/shell"

	"github.com/monodeploy/monodeploy/pkg/platform"
)

const (
	// DefaultPython is the interpreter used to create virtual environments.
	DefaultPython = "python3"
	// DefaultInstallCommand installs the locked dependencies of the workspace
	// without installing the workspace itself.
	DefaultInstallCommand = "poetry install --no-root --no-interaction"
	// DirName is the folder created in the output directory.
	DirName = ".venv"
)

// ErrInstall is returned when the virtual environment cannot be created or the
// installer command fails.
var ErrInstall = errors.New("dependency installation failed")

type (
	// Request describes one installation.
	Request struct {
		// RootManifest is the workspace pyproject.toml whose lock file is
		// installed. The installer runs in its directory.
		RootManifest string
		// ProjectManifest is the manifest of the project being deployed.
		ProjectManifest string
		// Path is the virtual environment directory.
		Path string
	}

	// Installer creates a virtual environment with the configured interpreter
	// and runs the configured install command inside it.
	Installer struct {
		python  string
		command string
		stdout  io.Writer
		stderr  io.Writer
		logger  *log.Logger
	}

	// Option configures an Installer.
	Option func(*Installer)
)

// WithPython sets the interpreter used for "-m venv".
func WithPython(python string) Option {
	return func(i *Installer) {
		if python != "" {
			i.python = python
		}
	}
}

// WithInstallCommand sets the install command line. It is split with shell
// word rules; $VIRTUAL_ENV and $MONODEPLOY_PROJECT expand to the request.
func WithInstallCommand(command string) Option {
	return func(i *Installer) {
		if command != "" {
			i.command = command
		}
	}
}

// WithOutput sets the writers the child processes inherit.
func WithOutput(stdout, stderr io.Writer) Option {
	return func(i *Installer) {
		i.stdout = stdout
		i.stderr = stderr
	}
}

// WithLogger sets the logger for progress messages.
func WithLogger(logger *log.Logger) Option {
	return func(i *Installer) {
		if logger != nil {
			i.logger = logger
		}
	}
}

// NewInstaller returns an Installer with the defaults applied.
func NewInstaller(opts ...Option) *Installer {
	i := &Installer{
		python:  DefaultPython,
		command: DefaultInstallCommand,
		stdout:  os.Stdout,
		stderr:  os.Stderr,
		logger:  log.Default(),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Install creates req.Path when it does not exist and runs the install command
// in the directory of req.RootManifest with the environment activated.
func (i *Installer) Install(ctx context.Context, req Request) error {
	venvPath, err := filepath.Abs(req.Path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInstall, err)
	}

	if _, err := os.Stat(venvPath); errors.Is(err, fs.ErrNotExist) {
		i.logger.Info("Creating virtual environment", "path", venvPath)
		if err := i.run(ctx, "", os.Environ(), i.python, "-m", "venv", venvPath); err != nil {
			return err
		}
	} else {
		i.logger.Info("Using existing virtual environment", "path", venvPath)
	}

	env := activate(os.Environ(), venvPath)
	env = append(env, "MONODEPLOY_PROJECT="+req.ProjectManifest)
	args, err := shell.Fields(i.command, lookup(env))
	if err != nil {
		return fmt.Errorf("%w: parse install command %q: %w", ErrInstall, i.command, err)
	}
	if len(args) == 0 {
		return fmt.Errorf("%w: empty install command", ErrInstall)
	}

	i.logger.Debug("Installing dependencies", "command", strings.Join(args, " "), "root", req.RootManifest)
	return i.run(ctx, filepath.Dir(req.RootManifest), env, resolve(args[0], venvPath), args[1:]...)
}

func (i *Installer) run(ctx context.Context, dir string, env []string, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.Env = env
	cmd.Stdout = i.stdout
	cmd.Stderr = i.stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInstall, strings.Join(cmd.Args, " "), err)
	}
	return nil
}

// BinDir returns the scripts directory of a virtual environment.
func BinDir(venvPath string) string {
	if runtime.GOOS == platform.Windows {
		return filepath.Join(venvPath, "Scripts")
	}
	return filepath.Join(venvPath, "bin")
}

// activate returns env with VIRTUAL_ENV set and the environment's scripts
// directory first on PATH.
func activate(env []string, venvPath string) []string {
	out := make([]string, 0, len(env)+2)
	path := ""
	for _, kv := range env {
		key, value, _ := strings.Cut(kv, "=")
		switch {
		case strings.EqualFold(key, "PATH"):
			path = value
		case key == "VIRTUAL_ENV", key == "PYTHONHOME":
			// replaced below, or unset
		default:
			out = append(out, kv)
		}
	}
	bin := BinDir(venvPath)
	if path != "" {
		bin += string(os.PathListSeparator) + path
	}
	return append(out, "VIRTUAL_ENV="+venvPath, "PATH="+bin)
}

// resolve prefers a bare command name installed in the environment over one
// found on the caller's PATH.
func resolve(name, venvPath string) string {
	if strings.ContainsAny(name, `/\`) {
		return name
	}
	for _, candidate := range []string{name, name + ".exe"} {
		p := filepath.Join(BinDir(venvPath), candidate)
		if info, err := os.Stat(p); err == nil && info.Mode().IsRegular() {
			return p
		}
	}
	return name
}

func lookup(env []string) func(string) string {
	return func(name string) string {
		for j := len(env) - 1; j >= 0; j-- {
			if key, value, ok := strings.Cut(env[j], "="); ok && key == name {
				return value
			}
		}
		return ""
	}
}
