// SPDX-License-Identifier: MPL-2.0

package build

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/monodeploy/monodeploy/internal/testutil/monorepotest"
	"github.com/monodeploy/monodeploy/pkg/pyproject"
)

const stagedManifest = `[tool.poetry]
name = "app"
version = "1.2.0"
readme = ["README.md", "MISSING.md"]
packages = [{ include = "lib/app" }, { include = "lib/shared" }]
include = ["CHANGELOG.md", { path = "data/*.json", format = "sdist" }]
exclude = ["lib/shared/tests/**"]
`

func TestFilesToAdd(t *testing.T) {
	t.Parallel()

	repo := monorepotest.New(t,
		monorepotest.WithFile("pyproject.toml", stagedManifest),
		monorepotest.WithFile("README.md", "# app\n"),
		monorepotest.WithFile("CHANGELOG.md", "1.2.0\n"),
		monorepotest.WithFile("data/a.json", "{}"),
		monorepotest.WithFile("data/b.yaml", "x: 1"),
		monorepotest.WithFile("notes.txt", "not shipped"),
		monorepotest.WithFile("lib/app/__init__.py", ""),
		monorepotest.WithFile("lib/app/main.py", ""),
		monorepotest.WithFile("lib/app/__pycache__/main.cpython-311.pyc", ""),
		monorepotest.WithFile("lib/shared/__init__.py", ""),
		monorepotest.WithFile("lib/shared/x.pyc", ""),
		monorepotest.WithFile("lib/shared/tests/test_x.py", ""),
	)
	m, err := pyproject.Load(repo.Path(pyproject.FileName))
	if err != nil {
		t.Fatal(err)
	}

	files, err := NewCollector().FilesToAdd(context.Background(), m)
	if err != nil {
		t.Fatalf("FilesToAdd() error = %v", err)
	}

	var rels []string
	for _, f := range files {
		rels = append(rels, f.Rel)
		if f.Path != repo.Path(filepath.FromSlash(f.Rel)) {
			t.Errorf("Path = %q does not match Rel %q", f.Path, f.Rel)
		}
	}
	want := []string{
		"CHANGELOG.md",
		"README.md",
		"data/a.json",
		"lib/app/__init__.py",
		"lib/app/main.py",
		"lib/shared/__init__.py",
		"pyproject.toml",
	}
	if diff := cmp.Diff(want, rels); diff != "" {
		t.Errorf("files mismatch (-want +got):\n%s", diff)
	}
}

func TestFilesToAdd_extraExcludeAndDefaultPackage(t *testing.T) {
	t.Parallel()

	repo := monorepotest.New(t,
		monorepotest.WithFile("pyproject.toml", "[tool.poetry]\nname = \"tool\"\n"),
		monorepotest.WithFile("src/tool/__init__.py", ""),
		monorepotest.WithFile("src/tool/cli.py", ""),
		monorepotest.WithFile("src/tool/fixtures/big.bin", ""),
	)
	m, err := pyproject.Load(repo.Path(pyproject.FileName))
	if err != nil {
		t.Fatal(err)
	}

	files, err := NewCollector("**/fixtures/**").FilesToAdd(context.Background(), m)
	if err != nil {
		t.Fatalf("FilesToAdd() error = %v", err)
	}
	var rels []string
	for _, f := range files {
		rels = append(rels, f.Rel)
	}
	want := []string{"pyproject.toml", "src/tool/__init__.py", "src/tool/cli.py"}
	if diff := cmp.Diff(want, rels); diff != "" {
		t.Errorf("files mismatch (-want +got):\n%s", diff)
	}
}

func TestFilesToAdd_missingPackage(t *testing.T) {
	t.Parallel()

	repo := monorepotest.New(t,
		monorepotest.WithFile("pyproject.toml", "[tool.poetry]\nname = \"app\"\npackages = [{ include = \"lib/app\" }]\n"),
	)
	m, err := pyproject.Load(repo.Path(pyproject.FileName))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := NewCollector().FilesToAdd(context.Background(), m); !errors.Is(err, ErrNoMatch) {
		t.Errorf("FilesToAdd() error = %v, want ErrNoMatch", err)
	}
}
