// SPDX-License-Identifier: MPL-2.0

package build

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

	"github.com/monodeploy/monodeploy/internal/staging"
	"github.com/monodeploy/monodeploy/pkg/pyproject"
)

// DefaultExclude lists the patterns never shipped, whatever the manifest says.
var DefaultExclude = []string{"**/__pycache__/**", "**/*.pyc"}

// ErrNoMatch is returned when a package include matches nothing.
var ErrNoMatch = errors.New("no file or folder found for package")

type (
	// File is a file to ship, located in the staged project.
	File struct {
		// Path is the absolute path of the file.
		Path string
		// Rel is the slash-separated path relative to the project root, which is
		// also its path inside the output directory.
		Rel string
	}

	// Collector finds the files to add to a distribution.
	Collector struct {
		exclude []string
	}
)

// NewCollector returns a Collector that also skips files matching
// extraExclude.
func NewCollector(extraExclude ...string) *Collector {
	exclude := slices.Concat(DefaultExclude, extraExclude)
	return &Collector{exclude: exclude}
}

// FilesToAdd returns the files of the project described by m, sorted by Rel.
func (c *Collector) FilesToAdd(ctx context.Context, m *pyproject.Manifest) ([]File, error) {
	root := m.Dir()
	exclude := slices.Concat(c.exclude, m.Exclude)
	found := map[string]struct{}{}

	add := func(rel string) {
		rel = filepath.ToSlash(rel)
		if !excluded(rel, exclude) {
			found[rel] = struct{}{}
		}
	}

	add(pyproject.FileName)
	for _, readme := range m.Readme {
		if isRegular(filepath.Join(root, filepath.FromSlash(readme))) {
			add(readme)
		}
	}

	for _, inc := range staging.ProjectPackages(m) {
		base := filepath.Join(root, filepath.FromSlash(inc.From))
		matches, err := expand(base, inc.Include)
		if err != nil {
			return nil, err
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("%w: %s", ErrNoMatch, filepath.Join(base, filepath.FromSlash(inc.Include)))
		}
		for _, rel := range matches {
			if err := walkFiles(ctx, root, filepath.Join(base, filepath.FromSlash(rel)), add); err != nil {
				return nil, err
			}
		}
	}

	for _, pattern := range m.Include {
		matches, err := expand(root, pattern)
		if err != nil {
			return nil, err
		}
		for _, rel := range matches {
			if err := walkFiles(ctx, root, filepath.Join(root, filepath.FromSlash(rel)), add); err != nil {
				return nil, err
			}
		}
	}

	rels := make([]string, 0, len(found))
	for rel := range found {
		rels = append(rels, rel)
	}
	slices.Sort(rels)

	files := make([]File, len(rels))
	for i, rel := range rels {
		files[i] = File{Path: filepath.Join(root, filepath.FromSlash(rel)), Rel: rel}
	}
	return files, nil
}

// expand resolves pattern below base. A plain path resolves to itself when it
// exists; a glob is matched with doublestar.
func expand(base, pattern string) ([]string, error) {
	pattern = strings.TrimPrefix(filepath.ToSlash(pattern), "./")
	if !hasMeta(pattern) {
		if _, err := os.Stat(filepath.Join(base, filepath.FromSlash(pattern))); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, nil
			}
			return nil, &staging.CopyError{Path: filepath.Join(base, pattern), Op: "read", Err: err}
		}
		return []string{pattern}, nil
	}

	matches, err := doublestar.Glob(os.DirFS(base), pattern, doublestar.WithNoFollow())
	if err != nil {
		return nil, &staging.CopyError{Path: base, Op: "match " + pattern + " in", Err: err}
	}
	return matches, nil
}

// walkFiles calls add with the root-relative path of path, or of every regular
// file below it when it is a directory.
func walkFiles(ctx context.Context, root, path string, add func(string)) error {
	return filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return &staging.CopyError{Path: p, Op: "read", Err: err}
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return &staging.CopyError{Path: p, Op: "resolve", Err: err}
		}
		add(rel)
		return nil
	})
}

func excluded(rel string, patterns []string) bool {
	for _, pat := range patterns {
		if ok, err := doublestar.Match(strings.TrimPrefix(pat, "./"), rel); err == nil && ok {
			return true
		}
	}
	return false
}

func hasMeta(pattern string) bool {
	return strings.ContainsAny(pattern, "*?[{")
}

func isRegular(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
