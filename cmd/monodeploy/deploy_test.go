// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/cobra"

	"github.com/monodeploy/monodeploy/internal/config"
	"github.com/monodeploy/monodeploy/internal/deploy"
	"github.com/monodeploy/monodeploy/internal/issue"
	"github.com/monodeploy/monodeploy/internal/testutil/monorepotest"
	"github.com/monodeploy/monodeploy/pkg/pyproject"
)

func TestDeployCommand_WithTopNamespace(t *testing.T) {
	t.Parallel()

	repo := monorepotest.New(t, monorepotest.WithAppAndShared())
	output := filepath.Join(t.TempDir(), "dist")

	stdout, _, err := runCLI(t, Dependencies{}, "deploy", repo.Path("app"), "--with-top-namespace", "lib", "--output", output)
	if err != nil {
		t.Fatalf("deploy failed: %v", err)
	}

	files := monorepotest.Files(t, output)
	for _, want := range []string{"pyproject.toml", "lib/app/main.py", "lib/shared/x.py"} {
		if !slices.Contains(files, want) {
			t.Errorf("output is missing %s: %v", want, files)
		}
	}
	if monorepotest.Exists(repo.Path(".prepare_app")) {
		t.Error("staging directory survived the deploy")
	}
	if !strings.Contains(stdout, "Deployed app") || !strings.Contains(stdout, "namespace") {
		t.Errorf("unexpected summary:\n%s", stdout)
	}
}

func TestDeployCommand_ConfigDrivesDefaults(t *testing.T) {
	t.Parallel()

	repo := monorepotest.New(t, monorepotest.WithAppAndShared())
	output := filepath.Join(t.TempDir(), "out")

	cfg := config.DefaultConfig()
	cfg.Staging.Prefix = "stage"
	cfg.Output.Dir = output
	cfg.Rewrite.Enabled = false

	_, _, err := runCLI(t, Dependencies{Config: staticConfig{cfg: cfg}}, "deploy", repo.Path("app"), "--with-top-namespace", "lib", "--keep-staging")
	if err != nil {
		t.Fatalf("deploy failed: %v", err)
	}

	if !monorepotest.Exists(repo.Path(".stage_app")) {
		t.Error("expected the staging directory named after staging.prefix to be kept")
	}
	main := monorepotest.ReadFile(t, filepath.Join(output, "lib", "app", "main.py"))
	if !strings.Contains(main, "import shared.x\n") {
		t.Errorf("rewrite.enabled=false should leave imports alone:\n%s", main)
	}
}

func TestDeployFlags_Request(t *testing.T) {
	t.Parallel()

	cfg := config.DefaultConfig()
	cfg.Output.Dir = "from-config"

	tests := []struct {
		name string
		args []string
		want deploy.Request
	}{
		{
			name: "config defaults",
			args: nil,
			want: deploy.Request{OutputDir: "from-config", Prefix: "prepare", Exclude: cfg.Staging.ExcludePatterns()},
		},
		{
			name: "flags override",
			args: []string{"app", "--output", "flag-out", "--with-top-namespace", "lib", "--no-rewrite", "--with-venv", "--keep-staging"},
			want: deploy.Request{
				ManifestPath: "app",
				TopNamespace: "lib",
				OutputDir:    "flag-out",
				Prefix:       "prepare",
				Exclude:      cfg.Staging.ExcludePatterns(),
				WithVenv:     true,
				SkipRewrite:  true,
				KeepStaging:  true,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var got deploy.Request
			flags := &deployFlagValues{}
			c := &cobra.Command{
				Use: "deploy",
				RunE: func(cmd *cobra.Command, args []string) error {
					got = flags.request(cmd, cfg, args)
					return nil
				},
			}
			c.Flags().StringVar(&flags.topNamespace, "with-top-namespace", "", "")
			c.Flags().BoolVar(&flags.withVenv, "with-venv", false, "")
			c.Flags().StringVar(&flags.output, "output", config.DefaultOutputDir, "")
			c.Flags().BoolVar(&flags.keepStaging, "keep-staging", false, "")
			c.Flags().BoolVar(&flags.noRewrite, "no-rewrite", false, "")
			c.SetArgs(tt.args)
			if err := c.Execute(); err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("request mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDeployCommand_FailureLeavesNoStaging(t *testing.T) {
	t.Parallel()

	repo := monorepotest.New(t,
		monorepotest.WithAppAndShared(),
		monorepotest.WithFile("app/pyproject.toml", "[tool.poetry]\nname = \"app\"\n\n[tool.poetry.dependencies]\nmissing = { path = \"../missing\" }\n"),
	)

	_, _, err := runCLI(t, Dependencies{}, "deploy", repo.Path("app"), "--output", filepath.Join(t.TempDir(), "dist"))
	if err == nil {
		t.Fatal("expected deploy to fail for a missing path dependency")
	}
	if classifyError(err) != issue.CopyFailedId {
		t.Errorf("failure should map to the copy page: %v", err)
	}
	var ae *issue.ActionableError
	if !errors.As(err, &ae) || ae.Resource != repo.Path("app", pyproject.FileName) || !ae.HasSuggestions() {
		t.Errorf("failure should name the manifest and suggest a fix: %#v", err)
	}
	if monorepotest.Exists(repo.Path(".prepare_app")) {
		t.Error("staging directory survived a failed deploy")
	}
}

func TestCleanCommand_Idempotent(t *testing.T) {
	t.Parallel()

	repo := monorepotest.New(t, monorepotest.WithAppAndShared())
	repo.Write(t, ".prepare_app/pyproject.toml", monorepotest.AppManifest)

	stdout, _, err := runCLI(t, Dependencies{}, "clean", repo.Path("app", pyproject.FileName))
	if err != nil {
		t.Fatalf("clean failed: %v", err)
	}
	if !strings.Contains(stdout, "Removed") || monorepotest.Exists(repo.Path(".prepare_app")) {
		t.Errorf("clean did not remove the staging directory: %s", stdout)
	}

	stdout, _, err = runCLI(t, Dependencies{}, "clean", repo.Path("app"))
	if err != nil {
		t.Fatalf("second clean failed: %v", err)
	}
	if !strings.Contains(stdout, "Nothing to clean") {
		t.Errorf("unexpected output: %s", stdout)
	}
}
