// SPDX-License-Identifier: MPL-2.0

package watch

import (
	"path/filepath"
	"slices"

	"github.com/monodeploy/monodeploy/internal/staging"
	"github.com/monodeploy/monodeploy/pkg/pyproject"
)

// Roots returns the source directories a deploy of m reads: the project
// directory, every local path dependency and the source folder of every
// packages entry that points outside the project. Roots nested in another
// root are dropped.
func Roots(m *pyproject.Manifest) ([]string, error) {
	dirs := []string{m.Dir()}
	for _, dep := range m.LocalDependencies {
		dirs = append(dirs, filepath.Join(m.Dir(), filepath.FromSlash(dep.Path)))
	}
	for _, inc := range staging.ProjectPackages(m) {
		external, err := staging.IsExternalInclude(m, inc)
		if err != nil {
			return nil, err
		}
		if external {
			dirs = append(dirs, filepath.Join(m.Dir(), filepath.FromSlash(inc.From)))
		}
	}

	for i, d := range dirs {
		dirs[i] = filepath.Clean(d)
	}
	slices.Sort(dirs)
	dirs = slices.Compact(dirs)

	out := dirs[:0]
	for _, d := range dirs {
		if slices.ContainsFunc(out, func(root string) bool { return within(root, d) }) {
			continue
		}
		out = append(out, d)
	}
	return out, nil
}
