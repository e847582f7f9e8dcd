// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"cmp"
	"strings"

	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/slices"
)

const (
	ProjectStructureId Id = iota + 1
	CopyFailedId
	ManifestInvalidId
	RewriteFailedId
	RootManifestNotFoundId
	InstallFailedId
	ConfigLoadFailedId
	UnsafeCleanupId
	ArtifactMissingId
)

type (
	Id int

	MarkdownMsg string

	HttpLink string

	Issue struct {
		id       Id          // ID used to lookup the issue
		mdMsg    MarkdownMsg // Markdown text that will be rendered
		docLinks []HttpLink
		extLinks []HttpLink // external links that might be useful for the user
	}
)

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

func (i *Issue) ExtLinks() []HttpLink {
	return slices.Clone(i.extLinks)
}

// Title returns the first heading of the page without its marker.
func (i *Issue) Title() string {
	for line := range strings.Lines(string(i.mdMsg)) {
		if title, ok := strings.CutPrefix(strings.TrimSpace(line), "# "); ok {
			return title
		}
	}
	return ""
}

// Render renders the page as terminal Markdown with the given glamour style
// ("dark", "light", "notty", or a JSON style path).
func (i *Issue) Render(stylePath string) (string, error) {
	extraMd := ""
	if len(i.docLinks) > 0 || len(i.extLinks) > 0 {
		extraMd += "\n\n## See also\n"
		for _, link := range i.docLinks {
			extraMd += "- <" + string(link) + ">\n"
		}
		for _, link := range i.extLinks {
			extraMd += "- <" + string(link) + ">\n"
		}
	}
	return render(string(i.mdMsg)+extraMd, stylePath)
}

var (
	render = glamour.Render

	poetryDocs = HttpLink("https://python-poetry.org/docs/pyproject/")

	projectStructureIssue = &Issue{
		id: ProjectStructureId,
		mdMsg: `
# The project does not fit a monorepo layout!

monodeploy stages a project next to its siblings, in the parent of the
project directory. The manifest you pointed at has no such parent, or a
package it declares does not exist.

## Things you can try:
- Point monodeploy at a project inside the monorepo, not at its root:
~~~
$ monodeploy deploy ./projects/app
~~~
- Check that every ` + "`packages`" + ` entry and every ` + "`path`" + ` dependency exists
- Make sure path dependencies point at directories, not files`,
		docLinks: []HttpLink{poetryDocs},
	}

	copyFailedIssue = &Issue{
		id: CopyFailedId,
		mdMsg: `
# Failed to copy files into the staging directory!

A file of the project or of one of its local packages could not be read,
or the staging directory could not be written.

## Things you can try:
- Check the permissions of the monorepo root directory
- Check that no other monodeploy run uses the same project
- Remove a leftover staging directory and retry:
~~~
$ monodeploy clean ./projects/app
~~~
- Check the exclude patterns in ` + "`staging.exclude`" + ` for typos`,
	}

	manifestInvalidIssue = &Issue{
		id: ManifestInvalidId,
		mdMsg: `
# Failed to read or write a pyproject.toml!

Either the project manifest or the manifest of one of its path
dependencies is not valid TOML, or the generated manifest could not be
written.

## Common issues:
- Unbalanced quotes or brackets
- A ` + "`packages`" + ` entry without ` + "`include`" + `
- A project without ` + "`[tool.poetry].name`" + ` or ` + "`[project].name`" + `

## Things you can try:
- Validate the file with Poetry:
~~~
$ poetry check
~~~
- Run with verbose mode to see which manifest failed:
~~~
$ monodeploy --verbose deploy
~~~`,
		docLinks: []HttpLink{poetryDocs},
	}

	rewriteFailedIssue = &Issue{
		id: RewriteFailedId,
		mdMsg: `
# Failed to rewrite imports!

A staged Python module could not be read or written back while moving
sibling imports under the top namespace. The staging directory was
removed; nothing was deployed.

## Things you can try:
- Check that the staged sources are regular, writable files
- Retry without import rewriting to isolate the problem:
~~~
$ monodeploy deploy --with-top-namespace lib --no-rewrite
~~~`,
	}

	rootManifestNotFoundIssue = &Issue{
		id: RootManifestNotFoundId,
		mdMsg: `
# No monorepo root pyproject.toml found!

` + "`--with-venv`" + ` installs the dependencies locked at the monorepo root,
but no pyproject.toml exists in any directory above the project.

## Things you can try:
- Create a root manifest for the workspace:
~~~toml
[tool.poetry]
package-mode = false
~~~
- Or deploy without a virtual environment:
~~~
$ monodeploy deploy ./projects/app
~~~`,
	}

	installFailedIssue = &Issue{
		id: InstallFailedId,
		mdMsg: `
# Dependency installation failed!

The virtual environment could not be created, or the install command
exited with an error. Its output is shown above.

## Things you can try:
- Check that the interpreter in ` + "`venv.python`" + ` exists
- Run the install command by hand from the monorepo root
- Change the command in your config file:
~~~cue
venv: install_command: "poetry install --no-root --no-interaction"
~~~`,
		extLinks: []HttpLink{"https://python-poetry.org/docs/cli/#install"},
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load configuration!

The configuration file has invalid CUE syntax or values that do not match
the schema.

## Things you can try:
- Print the effective configuration:
~~~
$ monodeploy config show
~~~
- Regenerate a default file:
~~~
$ monodeploy config init
~~~
- Check ` + "`staging.exclude`" + ` for malformed glob patterns`,
		extLinks: []HttpLink{"https://cuelang.org/docs/"},
	}

	unsafeCleanupIssue = &Issue{
		id: UnsafeCleanupId,
		mdMsg: `
# Refusing to remove a directory!

Cleanup only deletes hidden staging directories such as
` + "`.prepare_app`" + `. The computed path did not look like one.

## Things you can try:
- Check ` + "`staging.prefix`" + ` in your config file
- Remove the directory by hand if you are sure it is a staging leftover`,
	}

	artifactMissingIssue = &Issue{
		id: ArtifactMissingId,
		mdMsg: `
# A declared package produced no files!

A ` + "`packages`" + ` entry or include pattern matched nothing in the staged
project, so the artifact would be incomplete.

## Things you can try:
- Check the ` + "`include`" + ` and ` + "`from`" + ` keys of each packages entry
- Check that the exclude patterns do not remove the whole package`,
		docLinks: []HttpLink{poetryDocs},
	}

	issues = map[Id]*Issue{
		projectStructureIssue.Id():     projectStructureIssue,
		copyFailedIssue.Id():           copyFailedIssue,
		manifestInvalidIssue.Id():      manifestInvalidIssue,
		rewriteFailedIssue.Id():        rewriteFailedIssue,
		rootManifestNotFoundIssue.Id(): rootManifestNotFoundIssue,
		installFailedIssue.Id():        installFailedIssue,
		configLoadFailedIssue.Id():     configLoadFailedIssue,
		unsafeCleanupIssue.Id():        unsafeCleanupIssue,
		artifactMissingIssue.Id():      artifactMissingIssue,
	}
)

// Values returns every catalog entry ordered by Id.
func Values() []*Issue {
	out := make([]*Issue, 0, len(issues))
	for _, i := range issues {
		out = append(out, i)
	}
	slices.SortFunc(out, func(a, b *Issue) int { return cmp.Compare(a.id, b.id) })
	return out
}

func Get(id Id) *Issue {
	return issues[id]
}
