// SPDX-License-Identifier: MPL-2.0

package rewrite

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/monodeploy/monodeploy/internal/staging"
)

// SourcePattern selects the modules RewriteTree visits.
const SourcePattern = "**/*.py"

// RewriteModule rewrites the imports of one source file in place and reports
// whether it changed. The file is only written when its content changes, and
// it keeps its permission bits.
func RewriteModule(path string, siblings []string, ns staging.TopNamespace) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		return false, &RewriteError{Path: path, Err: err}
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return false, &RewriteError{Path: path, Err: err}
	}

	out, changed := RewriteSource(src, siblings, ns)
	if !changed {
		return false, nil
	}
	if err := os.WriteFile(path, out, info.Mode().Perm()); err != nil {
		return false, &RewriteError{Path: path, Err: err}
	}
	return true, nil
}

// Siblings returns the names of the package folders directly below the
// namespace folder of a staging tree. A missing folder yields no names.
func Siblings(stagingDir string, ns staging.TopNamespace) ([]string, error) {
	folder := filepath.Join(stagingDir, filepath.FromSlash(ns.String()))
	entries, err := os.ReadDir(folder)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, &RewriteError{Path: folder, Err: err}
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

// RewriteTree rewrites every module below stagingDir/<ns> so that imports of
// the packages colocated there resolve under the namespace. It returns the
// paths of the rewritten files in lexical order.
//
// The first file that cannot be rewritten aborts the pass. Files already
// rewritten stay rewritten.
func RewriteTree(ctx context.Context, stagingDir string, ns staging.TopNamespace) ([]string, error) {
	if ns.IsZero() {
		return nil, nil
	}
	siblings, err := Siblings(stagingDir, ns)
	if err != nil || len(siblings) == 0 {
		return nil, err
	}

	folder := filepath.Join(stagingDir, filepath.FromSlash(ns.String()))
	matches, err := doublestar.Glob(os.DirFS(folder), SourcePattern, doublestar.WithFilesOnly(), doublestar.WithNoFollow())
	if err != nil {
		return nil, &RewriteError{Path: folder, Err: err}
	}
	slices.Sort(matches)

	var rewritten []string
	for _, rel := range matches {
		if err := ctx.Err(); err != nil {
			return rewritten, err
		}
		path := filepath.Join(folder, filepath.FromSlash(rel))
		changed, err := RewriteModule(path, siblings, ns)
		if err != nil {
			return rewritten, err
		}
		if changed {
			rewritten = append(rewritten, path)
		}
	}
	return rewritten, nil
}
