// SPDX-License-Identifier: MPL-2.0

package staging

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/monodeploy/monodeploy/pkg/pyproject"
)

const (
	// KindPathDependency marks a package declared as {path = "..."} in the
	// dependencies table.
	KindPathDependency RelocationKind = "path-dependency"
	// KindPackageInclude marks a package declared in packages with a "from"
	// that points outside the project directory.
	KindPackageInclude RelocationKind = "package-include"
	// KindProjectPackage marks one of the project's own packages moved under
	// the top namespace.
	KindProjectPackage RelocationKind = "project-package"
)

type (
	// RelocationKind describes how a relocated package was declared.
	RelocationKind string

	// RelocatedPackage is a package copied (or moved) into the staging tree.
	// Two packages with the same Name land in the same Destination; the last
	// one copied wins.
	RelocatedPackage struct {
		// Name is the folder name of the package inside the staging tree.
		Name string
		// Source is the directory the package was copied from.
		Source string
		// Destination is the directory the package now lives in.
		Destination string
		// Kind records how the package was declared.
		Kind RelocationKind
		// Include is the original packages entry, for KindPackageInclude and
		// KindProjectPackage.
		Include pyproject.PackageInclude
		// Dependency is the original dependency, for KindPathDependency.
		Dependency pyproject.LocalDependency
	}
)

// CopyPackages copies the local packages declared directly by the manifest into
// dst, under ns when it is set:
//
//   - path dependencies ({path = "../shared"}) land in dst/<ns>/<name>,
//     honoring the exclude patterns of their own pyproject.toml if present;
//   - package includes whose "from" leaves the project directory land in
//     dst/<ns>/<include>;
//   - when ns is set, the project's own packages (already copied into dst by
//     CopyProject) are moved to dst/<ns>/<include>.
//
// Local dependencies of the relocated packages are not followed.
func CopyPackages(ctx context.Context, m *pyproject.Manifest, dst string, ns TopNamespace, extraExclude []string) ([]RelocatedPackage, error) {
	root := filepath.Join(dst, filepath.FromSlash(ns.String()))

	var (
		out      []RelocatedPackage
		external []pyproject.PackageInclude
	)

	// Own packages move first so the namespace folder is free of copies when a
	// package shares its name with the namespace.
	for _, inc := range ProjectPackages(m) {
		ext, err := IsExternalInclude(m, inc)
		if err != nil {
			return out, err
		}
		if ext {
			external = append(external, inc)
			continue
		}
		if ns.IsZero() {
			continue
		}

		from := filepath.Join(dst, filepath.FromSlash(inc.From))
		rels, err := includeRoots(from, inc.Include)
		if err != nil {
			return out, err
		}
		for _, rel := range rels {
			target := filepath.Join(root, filepath.FromSlash(rel))
			if err := movePackage(filepath.Join(from, filepath.FromSlash(rel)), target); err != nil {
				return out, err
			}
			out = append(out, RelocatedPackage{
				Name:        filepath.Base(target),
				Source:      filepath.Join(m.Dir(), filepath.FromSlash(inc.From), filepath.FromSlash(rel)),
				Destination: target,
				Kind:        KindProjectPackage,
				Include:     inc,
			})
		}
	}

	for _, inc := range external {
		from := filepath.Join(m.Dir(), filepath.FromSlash(inc.From))
		rels, err := includeRoots(from, inc.Include)
		if err != nil {
			return out, err
		}
		for _, rel := range rels {
			src := filepath.Join(from, filepath.FromSlash(rel))
			target := filepath.Join(root, filepath.FromSlash(rel))
			if err := copyInclude(ctx, src, target, extraExclude); err != nil {
				return out, err
			}
			out = append(out, RelocatedPackage{
				Name:        filepath.Base(target),
				Source:      src,
				Destination: target,
				Kind:        KindPackageInclude,
				Include:     inc,
			})
		}
	}

	for _, dep := range m.LocalDependencies {
		src := filepath.Join(m.Dir(), filepath.FromSlash(dep.Path))
		info, err := os.Stat(src)
		if err != nil {
			return out, &CopyError{Path: src, Op: "read local dependency", Err: err}
		}
		if !info.IsDir() {
			return out, &StructureError{Path: src, Reason: fmt.Sprintf("local dependency %q is not a directory", dep.Name)}
		}

		exclude, err := dependencyExcludes(src)
		if err != nil {
			return out, err
		}
		exclude = append(exclude, extraExclude...)

		name := PackageFolderName(dep.Name)
		target := filepath.Join(root, name)
		if err := CopyTree(ctx, src, target, exclude); err != nil {
			return out, err
		}
		out = append(out, RelocatedPackage{
			Name:        name,
			Source:      src,
			Destination: target,
			Kind:        KindPathDependency,
			Dependency:  dep,
		})
	}

	return out, nil
}

// ProjectPackages returns the declared packages entries, or the Poetry default
// (a package named after the project) when none are declared and it exists.
func ProjectPackages(m *pyproject.Manifest) []pyproject.PackageInclude {
	if m.HasPackages() {
		return m.Packages
	}
	name := PackageFolderName(m.Name)
	for _, from := range []string{"", "src"} {
		if _, err := os.Stat(filepath.Join(m.Dir(), from, name)); err == nil {
			return []pyproject.PackageInclude{{Include: name, From: from}}
		}
	}
	return nil
}

// IsExternalInclude reports whether a packages entry points outside the
// project directory (the relative-include style used for shared code).
func IsExternalInclude(m *pyproject.Manifest, inc pyproject.PackageInclude) (bool, error) {
	if inc.From == "" {
		return false, nil
	}
	base := filepath.Join(m.Dir(), filepath.FromSlash(inc.From))
	rel, err := filepath.Rel(m.Dir(), base)
	if err != nil {
		return false, &StructureError{Path: base, Reason: "cannot relate package source to project"}
	}
	return rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)), nil
}

// PackageFolderName turns a distribution name into an importable folder name
// ("my-shared.lib" becomes "my_shared_lib").
func PackageFolderName(name string) string {
	return strings.NewReplacer("-", "_", ".", "_").Replace(name)
}

func dependencyExcludes(dir string) ([]string, error) {
	path := filepath.Join(dir, pyproject.FileName)
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	dm, err := pyproject.Load(path)
	if err != nil {
		return nil, err
	}
	return append([]string(nil), dm.Exclude...), nil
}

// includeRoots returns the slash-separated paths below dir that carry a
// packages include. A plain include is its own root. A glob is carried by its
// non-glob base directory ("app/**/*.py" moves "app"), or by its top-level
// matches when it has none ("*.py").
func includeRoots(dir, include string) ([]string, error) {
	include = strings.TrimPrefix(include, "./")
	if !strings.ContainsAny(include, "*?[{") {
		return []string{include}, nil
	}
	if !doublestar.ValidatePattern(include) {
		return nil, &StructureError{Path: filepath.Join(dir, include), Reason: "invalid package include pattern"}
	}
	if base, _ := doublestar.SplitPattern(include); base != "." {
		return []string{base}, nil
	}

	matches, err := doublestar.Glob(os.DirFS(dir), include, doublestar.WithNoFollow())
	if err != nil {
		return nil, &CopyError{Path: dir, Op: "match package include " + include + " in", Err: err}
	}
	var roots []string
	for _, match := range matches {
		top, _, _ := strings.Cut(match, "/")
		if !slices.Contains(roots, top) {
			roots = append(roots, top)
		}
	}
	if len(roots) == 0 {
		return nil, &StructureError{Path: filepath.Join(dir, include), Reason: "declared package not found in project"}
	}
	slices.Sort(roots)
	return roots, nil
}

func copyInclude(ctx context.Context, src, target string, exclude []string) error {
	info, err := os.Stat(src)
	if err != nil {
		return &CopyError{Path: src, Op: "read package", Err: err}
	}
	if info.IsDir() {
		return CopyTree(ctx, src, target, exclude)
	}
	return CopyFile(src, target)
}

func movePackage(src, target string) error {
	if _, err := os.Stat(src); err != nil {
		return &StructureError{Path: src, Reason: "declared package not found in project"}
	}
	if src == target {
		return nil
	}
	// Go through a temporary name: target may sit below src (package "lib"
	// moved under namespace "lib").
	tmp := src + ".relocating"
	if err := os.Rename(src, tmp); err != nil {
		return &CopyError{Path: src, Op: "move", Err: err}
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return &CopyError{Path: filepath.Dir(target), Op: "create", Err: err}
	}
	if err := os.RemoveAll(target); err != nil {
		return &CopyError{Path: target, Op: "replace", Err: err}
	}
	if err := os.Rename(tmp, target); err != nil {
		return &CopyError{Path: tmp, Op: "move", Err: err}
	}
	return nil
}
