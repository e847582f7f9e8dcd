// SPDX-License-Identifier: MPL-2.0

package pyproject

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/pelletier/go-toml/v2"
)

// FileName is the manifest file name of a Poetry project.
const FileName = "pyproject.toml"

type (
	// Manifest is a parsed pyproject.toml.
	Manifest struct {
		// Path is the absolute path of the manifest file.
		Path string
		// Name is the project name ([tool.poetry].name, falling back to [project].name).
		Name string
		// Version is the declared project version (may be empty).
		Version string
		// LocalDependencies are the path-type entries of [tool.poetry.dependencies],
		// sorted by name.
		LocalDependencies []LocalDependency
		// Packages are the [tool.poetry].packages entries in declaration order.
		Packages []PackageInclude
		// Include are the [tool.poetry].include patterns.
		Include []string
		// Exclude are the [tool.poetry].exclude patterns.
		Exclude []string
		// Readme lists the declared readme file(s).
		Readme []string

		doc map[string]any
	}

	// LocalDependency is a dependency declared with a filesystem path, e.g.
	//
	//	shared = {path = "../shared", develop = true}
	LocalDependency struct {
		// Name is the dependency key.
		Name string
		// Path is the path as written, relative to the manifest directory.
		Path string
		// Extras are the optional extras requested for the dependency.
		Extras []string
		// Version is an explicitly pinned version constraint, if any.
		Version string
	}

	// PackageInclude is one entry of [tool.poetry].packages.
	PackageInclude struct {
		// Include is the package (or glob) to include.
		Include string
		// From is the directory the include is relative to (optional).
		From string
		// Format restricts the entry to sdist and/or wheel (optional).
		Format []string
	}
)

// Load reads and parses a manifest from disk.
func Load(path string) (*Manifest, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, &ManifestError{Path: path, Reason: "resolve path", Err: err}
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, &ManifestError{Path: abs, Reason: "read", Err: err}
	}
	return Parse(abs, data)
}

// Parse parses manifest content. path is recorded on the result and used in
// error messages; it is not read.
func Parse(path string, data []byte) (*Manifest, error) {
	var doc map[string]any
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, &ManifestError{Path: path, Reason: "parse TOML", Err: err}
	}
	if doc == nil {
		doc = map[string]any{}
	}

	m := &Manifest{Path: path, doc: doc}
	poetry := Table(doc, "tool", "poetry")
	project := Table(doc, "project")

	m.Name = stringField(poetry, "name")
	if m.Name == "" {
		m.Name = stringField(project, "name")
	}
	if m.Name == "" {
		return nil, &ManifestError{Path: path, Reason: "project name is missing"}
	}
	m.Version = stringField(poetry, "version")
	if m.Version == "" {
		m.Version = stringField(project, "version")
	}

	deps, err := parseLocalDependencies(Table(poetry, "dependencies"))
	if err != nil {
		return nil, &ManifestError{Path: path, Reason: "invalid dependencies", Err: err}
	}
	m.LocalDependencies = deps

	pkgs, err := parsePackages(poetry["packages"])
	if err != nil {
		return nil, &ManifestError{Path: path, Reason: "invalid packages", Err: err}
	}
	m.Packages = pkgs

	m.Include = patternList(poetry["include"])
	m.Exclude = patternList(poetry["exclude"])
	m.Readme = patternList(poetry["readme"])
	if len(m.Readme) == 0 {
		if s, ok := project["readme"].(string); ok {
			m.Readme = []string{s}
		}
	}

	return m, nil
}

// ProjectName reads the manifest at path and returns its project name.
func ProjectName(path string) (string, error) {
	m, err := Load(path)
	if err != nil {
		return "", err
	}
	return m.Name, nil
}

// Dir returns the directory containing the manifest.
func (m *Manifest) Dir() string {
	return filepath.Dir(m.Path)
}

// Document returns a deep copy of the raw TOML document. Callers may mutate
// the copy freely.
func (m *Manifest) Document() map[string]any {
	return cloneTable(m.doc)
}

// HasPackages reports whether [tool.poetry].packages is declared.
func (m *Manifest) HasPackages() bool {
	return len(m.Packages) > 0
}

// Table walks nested tables by key and returns the innermost one, or nil when
// any step is missing or not a table.
func Table(doc map[string]any, keys ...string) map[string]any {
	cur := doc
	for _, k := range keys {
		if cur == nil {
			return nil
		}
		next, ok := cur[k].(map[string]any)
		if !ok {
			return nil
		}
		cur = next
	}
	return cur
}

func parseLocalDependencies(deps map[string]any) ([]LocalDependency, error) {
	var out []LocalDependency
	for name, v := range deps {
		spec, ok := v.(map[string]any)
		if !ok {
			continue
		}
		raw, ok := spec["path"]
		if !ok {
			continue
		}
		p, ok := raw.(string)
		if !ok || p == "" {
			return nil, fmt.Errorf("dependency %q: path must be a non-empty string", name)
		}
		out = append(out, LocalDependency{
			Name:    name,
			Path:    p,
			Extras:  patternList(spec["extras"]),
			Version: stringField(spec, "version"),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func parsePackages(v any) ([]PackageInclude, error) {
	if v == nil {
		return nil, nil
	}
	list, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("packages must be an array of tables")
	}
	out := make([]PackageInclude, 0, len(list))
	for i, item := range list {
		t, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("packages[%d] must be a table", i)
		}
		inc := stringField(t, "include")
		if inc == "" {
			return nil, fmt.Errorf("packages[%d].include is required", i)
		}
		out = append(out, PackageInclude{
			Include: inc,
			From:    stringField(t, "from"),
			Format:  patternList(t["format"]),
		})
	}
	return out, nil
}

// patternList accepts a string, an array of strings, or an array of
// {path = "..."} tables (the Poetry include form).
func patternList(v any) []string {
	switch val := v.(type) {
	case string:
		if val == "" {
			return nil
		}
		return []string{val}
	case []any:
		var out []string
		for _, item := range val {
			switch it := item.(type) {
			case string:
				out = append(out, it)
			case map[string]any:
				if p := stringField(it, "path"); p != "" {
					out = append(out, p)
				}
			}
		}
		return out
	}
	return nil
}

func stringField(t map[string]any, key string) string {
	if t == nil {
		return ""
	}
	s, _ := t[key].(string)
	return s
}

func cloneTable(t map[string]any) map[string]any {
	if t == nil {
		return nil
	}
	out := make(map[string]any, len(t))
	for k, v := range t {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return cloneTable(val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return val
	}
}
