// SPDX-License-Identifier: MPL-2.0

package venv

import (
	"errors"
	"testing"

	"github.com/monodeploy/monodeploy/internal/testutil/monorepotest"
	"github.com/monodeploy/monodeploy/pkg/pyproject"
)

func TestFindRootManifest(t *testing.T) {
	t.Parallel()

	repo := monorepotest.New(t, monorepotest.WithAppAndShared())

	got, err := FindRootManifest(repo.Path("app", pyproject.FileName))
	if err != nil {
		t.Fatalf("FindRootManifest() error = %v", err)
	}
	if want := repo.Path(pyproject.FileName); got != want {
		t.Errorf("FindRootManifest() = %q, want %q", got, want)
	}
}

func TestFindRootManifest_skipsIntermediateDirectories(t *testing.T) {
	t.Parallel()

	repo := monorepotest.New(t,
		monorepotest.WithFile("pyproject.toml", monorepotest.RootManifest),
		monorepotest.WithFile("projects/group/svc/pyproject.toml", "[tool.poetry]\nname = \"svc\"\n"),
	)
	got, err := FindRootManifest(repo.Path("projects", "group", "svc", pyproject.FileName))
	if err != nil {
		t.Fatalf("FindRootManifest() error = %v", err)
	}
	if got != repo.Path(pyproject.FileName) {
		t.Errorf("FindRootManifest() = %q", got)
	}
}

func TestFindRootManifest_notFound(t *testing.T) {
	t.Parallel()

	repo := monorepotest.New(t, monorepotest.WithFile("app/pyproject.toml", "[tool.poetry]\nname = \"app\"\n"))
	manifest := repo.Path("app", pyproject.FileName)

	_, err := FindRootManifest(manifest)
	if !errors.Is(err, ErrRootNotFound) {
		t.Fatalf("FindRootManifest() error = %v, want ErrRootNotFound", err)
	}
	var rnf *RootNotFoundError
	if !errors.As(err, &rnf) || rnf.Path != manifest {
		t.Errorf("error should name the project manifest, got %v", err)
	}
}
