// SPDX-License-Identifier: MPL-2.0

package staging

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/monodeploy/monodeploy/internal/testutil/monorepotest"
	"github.com/monodeploy/monodeploy/pkg/pyproject"
)

func TestDestinationFolder(t *testing.T) {
	t.Parallel()

	root := filepath.VolumeName(t.TempDir()) + string(filepath.Separator)

	tests := []struct {
		name     string
		manifest string
		want     string
		wantErr  bool
	}{
		{"nested project", filepath.Join(root, "repo", "app", "pyproject.toml"), filepath.Join(root, "repo"), false},
		{"two levels deep", filepath.Join(root, "app", "pyproject.toml"), root, false},
		{"manifest at filesystem root", filepath.Join(root, "pyproject.toml"), "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := DestinationFolder(tt.manifest)
			if tt.wantErr {
				if !errors.Is(err, ErrStructure) {
					t.Fatalf("DestinationFolder() error = %v, want ErrStructure", err)
				}
				var se *StructureError
				if !errors.As(err, &se) || se.Path == "" {
					t.Errorf("expected *StructureError with a path, got %#v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("DestinationFolder() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("DestinationFolder() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestStagingDirName(t *testing.T) {
	t.Parallel()

	if got := StagingDirName("prepare", "app"); got != ".prepare_app" {
		t.Errorf("StagingDirName() = %q", got)
	}
	if got := StagingDirName("", "app"); got != ".prepare_app" {
		t.Errorf("StagingDirName() with empty prefix = %q", got)
	}
	if got := StagingDirName("stage", "my-app"); got != ".stage_my-app" {
		t.Errorf("StagingDirName() = %q", got)
	}
}

func TestStagingPath(t *testing.T) {
	t.Parallel()

	repo := monorepotest.New(t, monorepotest.WithAppAndShared())

	got, err := StagingPath(repo.Path("app", pyproject.FileName), DefaultPrefix)
	if err != nil {
		t.Fatalf("StagingPath() error = %v", err)
	}
	if want := repo.Path(".prepare_app"); got != want {
		t.Errorf("StagingPath() = %q, want %q", got, want)
	}
	if monorepotest.Exists(got) {
		t.Error("StagingPath() must not create the directory")
	}
}

func TestStagingPath_unreadableManifest(t *testing.T) {
	t.Parallel()

	repo := monorepotest.New(t)
	_, err := StagingPath(repo.Path("app", pyproject.FileName), DefaultPrefix)
	if !errors.Is(err, pyproject.ErrManifest) {
		t.Errorf("StagingPath() error = %v, want ErrManifest", err)
	}
}
