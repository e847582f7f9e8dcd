// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/monodeploy/monodeploy/internal/config"
	"github.com/monodeploy/monodeploy/internal/testutil"
)

func TestConfigCommands(t *testing.T) { //nolint:paralleltest // changes HOME
	config.Reset()
	t.Cleanup(testutil.IsolateUserConfig(t, t.TempDir()))
	t.Chdir(t.TempDir())

	deps := Dependencies{Config: config.NewProvider()}
	path, err := config.FilePath()
	if err != nil {
		t.Fatal(err)
	}

	stdout, _, err := runCLI(t, deps, "config", "path")
	if err != nil {
		t.Fatalf("config path: %v", err)
	}
	if strings.TrimSpace(stdout) != path {
		t.Errorf("config path = %q, want %q", stdout, path)
	}

	stdout, _, err = runCLI(t, deps, "config", "show")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	if !strings.Contains(stdout, "(using defaults)") || !strings.Contains(stdout, "prepare") {
		t.Errorf("unexpected config show output:\n%s", stdout)
	}

	if _, _, err = runCLI(t, deps, "config", "init"); err != nil {
		t.Fatalf("config init: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config init did not create %s: %v", path, err)
	}

	if _, _, err = runCLI(t, deps, "config", "set", "watch.debounce", "2s"); err != nil {
		t.Fatalf("config set: %v", err)
	}
	if _, _, err = runCLI(t, deps, "config", "set", "staging.prefix", "stage"); err != nil {
		t.Fatalf("config set: %v", err)
	}

	stdout, _, err = runCLI(t, deps, "config", "dump")
	if err != nil {
		t.Fatalf("config dump: %v", err)
	}
	for _, want := range []string{`debounce: "2s"`, `prefix: "stage"`} {
		if !strings.Contains(stdout, want) {
			t.Errorf("config dump missing %q:\n%s", want, stdout)
		}
	}
}

func TestSetConfigValue(t *testing.T) {
	t.Parallel()

	tests := []struct {
		key, value string
		check      func(*config.Config) bool
		wantErr    bool
	}{
		{key: "output.dir", value: "build", check: func(c *config.Config) bool { return c.Output.Dir == "build" }},
		{key: "venv.python", value: "python3.12", check: func(c *config.Config) bool { return c.Venv.Python == "python3.12" }},
		{key: "venv.install_command", value: "uv sync", check: func(c *config.Config) bool { return c.Venv.InstallCommand == "uv sync" }},
		{key: "rewrite.enabled", value: "false", check: func(c *config.Config) bool { return !c.Rewrite.Enabled }},
		{key: "ui.verbose", value: "1", check: func(c *config.Config) bool { return c.UI.Verbose }},
		{key: "ui.color_scheme", value: "light", check: func(c *config.Config) bool { return c.UI.ColorScheme == config.ColorSchemeLight }},
		{key: "watch.debounce", value: "750ms", check: func(c *config.Config) bool { return c.Watch.Debounce == 750*time.Millisecond }},
		{key: "watch.debounce", value: "soon", wantErr: true},
		{key: "container_engine", value: "podman", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			t.Parallel()

			cfg := config.DefaultConfig()
			err := setConfigValue(cfg, tt.key, tt.value)
			if tt.wantErr {
				if err == nil {
					t.Error("expected an error")
				}
				return
			}
			if err != nil {
				t.Fatalf("setConfigValue() error = %v", err)
			}
			if !tt.check(cfg) {
				t.Errorf("%s was not applied: %+v", tt.key, cfg)
			}
		})
	}
}

func TestConfigSet_RejectsInvalidValue(t *testing.T) { //nolint:paralleltest // overrides the config directory
	config.SetConfigDirOverride(filepath.Join(t.TempDir(), config.AppName))
	t.Cleanup(config.Reset)
	t.Chdir(t.TempDir())

	_, _, err := runCLI(t, Dependencies{Config: config.NewProvider()}, "config", "set", "ui.color_scheme", "neon")
	if !errors.Is(err, config.ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
}
