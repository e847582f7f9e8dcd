// SPDX-License-Identifier: MPL-2.0

package pyproject

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const appManifest = `[tool.poetry]
name = "app"
version = "1.2.0"
description = "An app"
readme = "README.md"
packages = [
  { include = "app" },
  { include = "logging_utils", from = "../../components" },
]
include = ["CHANGELOG.md", { path = "data/*.json", format = "sdist" }]
exclude = ["**/tests/**"]

[tool.poetry.dependencies]
python = "^3.11"
requests = "^2.31"
shared = { path = "../shared", develop = true }
models = { path = "../models", extras = ["fast"], version = "^0.3" }

[build-system]
requires = ["poetry-core"]
build-backend = "poetry.core.masonry.api"
`

func TestParse(t *testing.T) {
	t.Parallel()

	m, err := Parse("/repo/projects/app/pyproject.toml", []byte(appManifest))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if m.Name != "app" {
		t.Errorf("Name = %q, want %q", m.Name, "app")
	}
	if m.Version != "1.2.0" {
		t.Errorf("Version = %q, want %q", m.Version, "1.2.0")
	}
	if m.Dir() != "/repo/projects/app" {
		t.Errorf("Dir() = %q", m.Dir())
	}

	wantDeps := []LocalDependency{
		{Name: "models", Path: "../models", Extras: []string{"fast"}, Version: "^0.3"},
		{Name: "shared", Path: "../shared"},
	}
	if diff := cmp.Diff(wantDeps, m.LocalDependencies); diff != "" {
		t.Errorf("LocalDependencies mismatch (-want +got):\n%s", diff)
	}

	wantPkgs := []PackageInclude{
		{Include: "app"},
		{Include: "logging_utils", From: "../../components"},
	}
	if diff := cmp.Diff(wantPkgs, m.Packages); diff != "" {
		t.Errorf("Packages mismatch (-want +got):\n%s", diff)
	}

	if diff := cmp.Diff([]string{"CHANGELOG.md", "data/*.json"}, m.Include); diff != "" {
		t.Errorf("Include mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"**/tests/**"}, m.Exclude); diff != "" {
		t.Errorf("Exclude mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"README.md"}, m.Readme); diff != "" {
		t.Errorf("Readme mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_projectTableFallback(t *testing.T) {
	t.Parallel()

	m, err := Parse("pyproject.toml", []byte(`[project]
name = "pep621"
version = "0.1.0"
readme = "README.rst"
`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if m.Name != "pep621" || m.Version != "0.1.0" {
		t.Errorf("got name=%q version=%q", m.Name, m.Version)
	}
	if len(m.Readme) != 1 || m.Readme[0] != "README.rst" {
		t.Errorf("Readme = %v", m.Readme)
	}
}

func TestParse_errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		data string
	}{
		{"invalid toml", "[tool.poetry\nname = "},
		{"missing name", "[tool.poetry]\nversion = \"1.0\"\n"},
		{"empty path", "[tool.poetry]\nname = \"x\"\n[tool.poetry.dependencies]\na = { path = \"\" }\n"},
		{"packages not array", "[tool.poetry]\nname = \"x\"\npackages = \"x\"\n"},
		{"package without include", "[tool.poetry]\nname = \"x\"\npackages = [{ from = \"src\" }]\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Parse("pyproject.toml", []byte(tt.data))
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, ErrManifest) {
				t.Errorf("error should wrap ErrManifest, got: %v", err)
			}
			var me *ManifestError
			if !errors.As(err, &me) {
				t.Fatalf("error should be *ManifestError, got %T", err)
			}
			if me.Path != "pyproject.toml" {
				t.Errorf("Path = %q", me.Path)
			}
		})
	}
}

func TestLoad_missingFile(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), FileName))
	if !errors.Is(err, ErrManifest) {
		t.Fatalf("expected ErrManifest, got %v", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected cause to be os.ErrNotExist, got %v", err)
	}
}

func TestDocument_isDeepCopy(t *testing.T) {
	t.Parallel()

	m, err := Parse("pyproject.toml", []byte(appManifest))
	if err != nil {
		t.Fatal(err)
	}

	doc := m.Document()
	Table(doc, "tool", "poetry")["name"] = "changed"
	delete(Table(doc, "tool", "poetry", "dependencies"), "shared")

	again := m.Document()
	if got := Table(again, "tool", "poetry")["name"]; got != "app" {
		t.Errorf("original document mutated: name = %v", got)
	}
	if _, ok := Table(again, "tool", "poetry", "dependencies")["shared"]; !ok {
		t.Error("original document mutated: shared dependency removed")
	}
}

func TestWrite_roundTrip(t *testing.T) {
	t.Parallel()

	m, err := Parse("pyproject.toml", []byte(appManifest))
	if err != nil {
		t.Fatal(err)
	}

	out := filepath.Join(t.TempDir(), FileName)
	if err := Write(out, m.Document()); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	back, err := Load(out)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if diff := cmp.Diff(m.Document(), back.Document()); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestProjectName(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, FileName)
	if err := os.WriteFile(path, []byte(appManifest), 0o644); err != nil {
		t.Fatal(err)
	}
	name, err := ProjectName(path)
	if err != nil {
		t.Fatal(err)
	}
	if name != "app" {
		t.Errorf("ProjectName() = %q, want app", name)
	}
}
