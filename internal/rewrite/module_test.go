// SPDX-License-Identifier: MPL-2.0

package rewrite

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/monodeploy/monodeploy/internal/testutil/monorepotest"
)

func TestRewriteModule(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "main.py")
	if err := os.WriteFile(path, []byte("from pkgA import x\n"), 0o640); err != nil {
		t.Fatal(err)
	}

	changed, err := RewriteModule(path, []string{"pkgA"}, "shared")
	if err != nil {
		t.Fatalf("RewriteModule() error = %v", err)
	}
	if !changed {
		t.Fatal("RewriteModule() = false, want true")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "from shared.pkgA import x\n" {
		t.Errorf("content = %q", data)
	}

	if runtime.GOOS != "windows" {
		info, err := os.Stat(path)
		if err != nil {
			t.Fatal(err)
		}
		if info.Mode().Perm() != 0o640 {
			t.Errorf("mode = %v, want 0640", info.Mode().Perm())
		}
	}
}

func TestRewriteModule_unchanged(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "main.py")
	if err := os.WriteFile(path, []byte("import os\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	changed, err := RewriteModule(path, []string{"pkgA"}, "shared")
	if err != nil || changed {
		t.Errorf("RewriteModule() = %v, %v; want false, nil", changed, err)
	}
}

func TestRewriteModule_missingFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "gone.py")
	_, err := RewriteModule(path, []string{"pkgA"}, "shared")
	if !errors.Is(err, ErrRewrite) {
		t.Fatalf("error = %v, want ErrRewrite", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("error should keep the cause, got %v", err)
	}
	var re *RewriteError
	if !errors.As(err, &re) || re.Path != path {
		t.Errorf("error should name %s, got %v", path, err)
	}
}

func TestRewriteTree(t *testing.T) {
	t.Parallel()

	repo := monorepotest.New(t,
		monorepotest.WithFile(".stage/pyproject.toml", "[tool.poetry]\nname = \"app\"\n"),
		monorepotest.WithFile(".stage/lib/app/__init__.py", ""),
		monorepotest.WithFile(".stage/lib/app/main.py", monorepotest.AppMain),
		monorepotest.WithFile(".stage/lib/app/local.py", "def helper():\n    return 1\n"),
		monorepotest.WithFile(".stage/lib/shared/__init__.py", ""),
		monorepotest.WithFile(".stage/lib/shared/x.py", "def value():\n    return 41\n"),
		monorepotest.WithFile(".stage/lib/shared/util.py", "from shared.x import value\n"),
		monorepotest.WithFile(".stage/lib/shared/data.json", "import shared\n"),
	)
	staging := repo.Path(".stage")

	rewritten, err := RewriteTree(context.Background(), staging, "lib")
	if err != nil {
		t.Fatalf("RewriteTree() error = %v", err)
	}

	want := []string{
		filepath.Join(staging, "lib", "app", "main.py"),
		filepath.Join(staging, "lib", "shared", "util.py"),
	}
	if diff := cmp.Diff(want, rewritten); diff != "" {
		t.Errorf("rewritten files mismatch (-want +got):\n%s", diff)
	}

	main := repo.Read(t, ".stage/lib/app/main.py")
	for _, line := range []string{"import os\n", "import lib.shared.x\n", "from lib.shared import util\n", "from .local import helper\n"} {
		if !strings.Contains(main, line) {
			t.Errorf("main.py missing %q:\n%s", line, main)
		}
	}
	if got := repo.Read(t, ".stage/lib/shared/util.py"); got != "from lib.shared.x import value\n" {
		t.Errorf("util.py = %q", got)
	}
	if got := repo.Read(t, ".stage/lib/shared/data.json"); got != "import shared\n" {
		t.Errorf("non-Python file was touched: %q", got)
	}
}

func TestRewriteTree_noNamespaceFolder(t *testing.T) {
	t.Parallel()

	rewritten, err := RewriteTree(context.Background(), t.TempDir(), "lib")
	if err != nil || len(rewritten) != 0 {
		t.Errorf("RewriteTree() = %v, %v; want nothing", rewritten, err)
	}
}

func TestRewriteTree_canceled(t *testing.T) {
	t.Parallel()

	repo := monorepotest.New(t, monorepotest.WithFile(".stage/lib/shared/a.py", "import shared\n"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := RewriteTree(ctx, repo.Path(".stage"), "lib")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}
