// SPDX-License-Identifier: MPL-2.0

package monorepotest

import (
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"testing"
)

const (
	// RootManifest is the workspace manifest at the monorepo root.
	RootManifest = `[tool.poetry]
name = "workspace"
version = "0.0.0"
package-mode = false

[tool.poetry.dependencies]
python = "^3.11"
`

	// AppManifest declares the "app" project with a path dependency on the
	// sibling "shared" project.
	AppManifest = `[tool.poetry]
name = "app"
version = "1.2.0"
description = "Application"
readme = "README.md"
packages = [{ include = "app" }]
exclude = ["tests/**"]

[tool.poetry.dependencies]
python = "^3.11"
requests = "^2.31"
shared = { path = "../shared", develop = true }

[build-system]
requires = ["poetry-core"]
build-backend = "poetry.core.masonry.api"
`

	// SharedManifest declares the "shared" library. Its root directory is the
	// importable package.
	SharedManifest = `[tool.poetry]
name = "shared"
version = "0.4.0"
exclude = ["tests/**"]
`

	// AppMain imports the shared library in several shapes.
	AppMain = `import os
import shared.x
from shared import util
from .local import helper


def run():
    return shared.x.value() + util.twice(helper())
`
)

type (
	// Option adds content to a Repo.
	Option func(*Repo)

	// Repo is a monorepo laid out under a temporary directory.
	Repo struct {
		// Root is the monorepo root directory.
		Root  string
		files map[string]string
	}
)

// New creates a Repo under t.TempDir() and writes every file the options add.
func New(t testing.TB, opts ...Option) *Repo {
	t.Helper()
	r := &Repo{Root: t.TempDir(), files: map[string]string{}}
	for _, opt := range opts {
		opt(r)
	}
	for rel, content := range r.files {
		r.Write(t, rel, content)
	}
	return r
}

// WithFile adds a file at the slash-separated path rel.
func WithFile(rel, content string) Option {
	return func(r *Repo) {
		r.files[rel] = content
	}
}

// WithAppAndShared adds the canonical layout: a workspace manifest, an "app"
// project with a path dependency on "../shared", and the "shared" library.
func WithAppAndShared() Option {
	return func(r *Repo) {
		r.files["pyproject.toml"] = RootManifest
		r.files["app/pyproject.toml"] = AppManifest
		r.files["app/README.md"] = "# app\n"
		r.files["app/app/__init__.py"] = ""
		r.files["app/app/main.py"] = AppMain
		r.files["app/app/local.py"] = "def helper():\n    return 1\n"
		r.files["app/tests/test_main.py"] = "import app.main\n"
		r.files["shared/pyproject.toml"] = SharedManifest
		r.files["shared/__init__.py"] = ""
		r.files["shared/x.py"] = "def value():\n    return 41\n"
		r.files["shared/util.py"] = "from shared.x import value\n\n\ndef twice(n):\n    return n * 2\n"
		r.files["shared/tests/test_x.py"] = "import shared.x\n"
	}
}

// Path joins elem onto the repo root.
func (r *Repo) Path(elem ...string) string {
	return filepath.Join(append([]string{r.Root}, elem...)...)
}

// Write writes content to the slash-separated path rel, creating parents.
func (r *Repo) Write(t testing.TB, rel, content string) {
	t.Helper()
	path := r.Path(filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("failed to create directory for %s: %v", rel, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", rel, err)
	}
}

// Read returns the content of the slash-separated path rel.
func (r *Repo) Read(t testing.TB, rel string) string {
	t.Helper()
	return ReadFile(t, r.Path(filepath.FromSlash(rel)))
}

// Files returns the sorted slash-separated paths of every regular file below
// dir, relative to dir.
func Files(t testing.TB, dir string) []string {
	t.Helper()
	var out []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		out = append(out, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		t.Fatalf("failed to list %s: %v", dir, err)
	}
	slices.Sort(out)
	return out
}

// ReadFile returns the content of the file at path.
func ReadFile(t testing.TB, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read %s: %v", path, err)
	}
	return string(data)
}

// Remove deletes the file at path.
func Remove(t testing.TB, path string) {
	t.Helper()
	if err := os.Remove(path); err != nil {
		t.Fatalf("failed to remove %s: %v", path, err)
	}
}

// Exists reports whether path exists.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
