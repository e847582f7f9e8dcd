// SPDX-License-Identifier: MPL-2.0

package staging

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/monodeploy/monodeploy/pkg/pyproject"
)

// CopyTree copies every file and directory under src into dst, skipping any
// entry whose slash-separated path relative to src matches one of the exclude
// patterns. An excluded directory is not descended into. Symlinks are skipped.
//
// Existing files in dst are overwritten and stale ones are left alone; a
// partially copied tree is not rolled back.
func CopyTree(ctx context.Context, src, dst string, exclude []string) error {
	for _, pat := range exclude {
		if !doublestar.ValidatePattern(pat) {
			return &CopyError{Path: src, Op: "use exclude pattern " + pat + " for", Err: doublestar.ErrBadPattern}
		}
	}

	absSrc, err := filepath.Abs(src)
	if err != nil {
		return &CopyError{Path: src, Op: "resolve", Err: err}
	}
	absDst, err := filepath.Abs(dst)
	if err != nil {
		return &CopyError{Path: dst, Op: "resolve", Err: err}
	}

	info, err := os.Stat(absSrc)
	if err != nil {
		return &CopyError{Path: absSrc, Op: "read", Err: err}
	}
	if !info.IsDir() {
		return &CopyError{Path: absSrc, Op: "copy directory", Err: fs.ErrInvalid}
	}
	if err := os.MkdirAll(absDst, info.Mode().Perm()|0o700); err != nil {
		return &CopyError{Path: absDst, Op: "create", Err: err}
	}

	return filepath.WalkDir(absSrc, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return &CopyError{Path: path, Op: "read", Err: walkErr}
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		rel, err := filepath.Rel(absSrc, path)
		if err != nil {
			return &CopyError{Path: path, Op: "resolve", Err: err}
		}
		if rel == "." {
			return nil
		}

		// The destination may live inside the source (e.g. a dependency path of
		// ".."); never copy the staging tree into itself.
		if path == absDst {
			return filepath.SkipDir
		}

		if d.Type()&fs.ModeSymlink != 0 {
			return nil
		}

		if isExcluded(filepath.ToSlash(rel), exclude) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		target := filepath.Join(absDst, rel)
		if d.IsDir() {
			dirInfo, err := d.Info()
			if err != nil {
				return &CopyError{Path: path, Op: "read", Err: err}
			}
			if err := os.MkdirAll(target, dirInfo.Mode().Perm()|0o700); err != nil {
				return &CopyError{Path: target, Op: "create", Err: err}
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		return CopyFile(path, target)
	})
}

// CopyProject copies the directory containing the manifest into dst, honoring
// the manifest's exclude patterns plus any extra patterns.
func CopyProject(ctx context.Context, m *pyproject.Manifest, dst string, extraExclude []string) error {
	exclude := make([]string, 0, len(m.Exclude)+len(extraExclude))
	exclude = append(exclude, m.Exclude...)
	exclude = append(exclude, extraExclude...)
	return CopyTree(ctx, m.Dir(), dst, exclude)
}

// isExcluded reports whether rel matches any pattern. A pattern also excludes
// everything below a directory it matches.
func isExcluded(rel string, patterns []string) bool {
	for _, pat := range patterns {
		pat = strings.TrimPrefix(pat, "./")
		if matched, err := doublestar.Match(pat, rel); err == nil && matched {
			return true
		}
	}
	return false
}

// CopyFile copies a single regular file, creating the parent directories of
// dst and keeping the permission bits of src.
func CopyFile(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return &CopyError{Path: src, Op: "read", Err: err}
	}
	data, err := os.ReadFile(src)
	if err != nil {
		return &CopyError{Path: src, Op: "read", Err: err}
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return &CopyError{Path: filepath.Dir(dst), Op: "create", Err: err}
	}
	if err := os.WriteFile(dst, data, info.Mode().Perm()); err != nil {
		return &CopyError{Path: dst, Op: "write", Err: err}
	}
	return nil
}
