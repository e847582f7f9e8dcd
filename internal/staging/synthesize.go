// SPDX-License-Identifier: MPL-2.0

package staging

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/monodeploy/monodeploy/pkg/pyproject"
)

// AnyVersion is the constraint written for a local dependency whose version
// cannot be determined.
const AnyVersion = "*"

// CreateProjectFile writes the manifest of the staged project to
// dst/pyproject.toml and returns its path.
//
// Every key of the original manifest is kept except:
//   - path dependencies become plain dependencies pinned to their declared
//     version, or ^<version> of their own manifest, or "*";
//   - packages entries point at the staged copies (ns/<include> when ns is
//     set, with "from" dropped for relocated entries);
//   - with ns set, relocated path dependencies are added as packages.
func CreateProjectFile(m *pyproject.Manifest, dst string, ns TopNamespace, relocated []RelocatedPackage) (string, error) {
	target := filepath.Join(dst, pyproject.FileName)
	doc := m.Document()

	poetry := pyproject.Table(doc, "tool", "poetry")
	detached := poetry == nil
	if detached {
		poetry = map[string]any{}
	}

	if deps := pyproject.Table(poetry, "dependencies"); deps != nil {
		for _, dep := range m.LocalDependencies {
			spec, err := plainDependency(m, dep)
			if err != nil {
				return "", err
			}
			deps[dep.Name] = spec
		}
	}

	packages, err := rewritePackages(m, poetry["packages"], ns, relocated)
	if err != nil {
		return "", err
	}
	if len(packages) > 0 {
		poetry["packages"] = packages
		if detached {
			attachPoetryTable(doc, poetry)
		}
	}

	if err := pyproject.Write(target, doc); err != nil {
		return "", err
	}
	return target, nil
}

func attachPoetryTable(doc, poetry map[string]any) {
	tool, _ := doc["tool"].(map[string]any)
	if tool == nil {
		tool = map[string]any{}
		doc["tool"] = tool
	}
	tool["poetry"] = poetry
}

// plainDependency returns the replacement of a path dependency entry.
func plainDependency(m *pyproject.Manifest, dep pyproject.LocalDependency) (any, error) {
	version := dep.Version
	if version == "" {
		v, err := dependencyVersion(filepath.Join(m.Dir(), filepath.FromSlash(dep.Path)))
		if err != nil {
			return nil, err
		}
		version = v
	}
	if len(dep.Extras) == 0 {
		return version, nil
	}
	extras := make([]any, len(dep.Extras))
	for i, e := range dep.Extras {
		extras[i] = e
	}
	return map[string]any{"version": version, "extras": extras}, nil
}

func dependencyVersion(dir string) (string, error) {
	path := filepath.Join(dir, pyproject.FileName)
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return AnyVersion, nil
	}
	dm, err := pyproject.Load(path)
	if err != nil {
		return "", err
	}
	if dm.Version == "" {
		return AnyVersion, nil
	}
	return "^" + dm.Version, nil
}

// rewritePackages returns the packages list of the staged manifest.
func rewritePackages(m *pyproject.Manifest, raw any, ns TopNamespace, relocated []RelocatedPackage) ([]any, error) {
	list, _ := raw.([]any)
	out := make([]any, 0, len(list)+len(relocated))

	for i, item := range list {
		entry, ok := item.(map[string]any)
		if !ok {
			out = append(out, item)
			continue
		}
		inc := m.Packages[i]
		external, err := IsExternalInclude(m, inc)
		if err != nil {
			return nil, &pyproject.ManifestError{Path: m.Path, Reason: "rewrite packages", Err: err}
		}

		clone := make(map[string]any, len(entry))
		for k, v := range entry {
			clone[k] = v
		}
		if external || !ns.IsZero() {
			delete(clone, "from")
		}
		if !ns.IsZero() {
			clone["include"] = ns.Join(inc.Include)
		}
		out = append(out, clone)
	}

	if ns.IsZero() {
		return out, nil
	}

	if len(list) == 0 {
		for _, rp := range relocated {
			if rp.Kind == KindProjectPackage {
				out = append(out, map[string]any{"include": ns.Join(rp.Include.Include)})
			}
		}
	}
	for _, rp := range relocated {
		if rp.Kind == KindPathDependency {
			out = append(out, map[string]any{"include": ns.Join(rp.Name)})
		}
	}
	return out, nil
}
