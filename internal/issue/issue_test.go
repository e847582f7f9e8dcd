// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"strings"
	"testing"
)

// allIds lists every catalog entry; keep it in sync with the const block.
var allIds = []Id{
	ProjectStructureId,
	CopyFailedId,
	ManifestInvalidId,
	RewriteFailedId,
	RootManifestNotFoundId,
	InstallFailedId,
	ConfigLoadFailedId,
	UnsafeCleanupId,
	ArtifactMissingId,
}

// passthrough replaces glamour so tests see the raw Markdown.
func passthrough(t *testing.T) {
	t.Helper()

	original := render
	t.Cleanup(func() { render = original })
	render = func(in string, _ string) (string, error) { return in, nil }
}

func TestId_Constants(t *testing.T) {
	t.Parallel()

	seen := make(map[Id]bool)
	for _, id := range allIds {
		if seen[id] {
			t.Errorf("duplicate ID: %d", id)
		}
		seen[id] = true
	}

	if ProjectStructureId != 1 {
		t.Errorf("ProjectStructureId = %d, want 1", ProjectStructureId)
	}
}

func TestGet(t *testing.T) {
	t.Parallel()

	tests := []struct {
		id       Id
		contains string
	}{
		{ProjectStructureId, "monorepo layout"},
		{CopyFailedId, "staging directory"},
		{ManifestInvalidId, "pyproject.toml"},
		{RewriteFailedId, "rewrite imports"},
		{RootManifestNotFoundId, "No monorepo root"},
		{InstallFailedId, "installation failed"},
		{ConfigLoadFailedId, "load configuration"},
		{UnsafeCleanupId, "Refusing to remove"},
		{ArtifactMissingId, "produced no files"},
	}

	for _, tt := range tests {
		t.Run(tt.contains, func(t *testing.T) {
			t.Parallel()

			i := Get(tt.id)
			if i == nil {
				t.Fatalf("Get(%d) returned nil", tt.id)
			}
			if i.Id() != tt.id {
				t.Errorf("Id() = %d, want %d", i.Id(), tt.id)
			}
			if !strings.Contains(string(i.MarkdownMsg()), tt.contains) {
				t.Errorf("Get(%d).MarkdownMsg() should contain %q", tt.id, tt.contains)
			}
		})
	}

	if Get(Id(9999)) != nil {
		t.Error("Get(9999) should return nil")
	}
}

func TestValues(t *testing.T) {
	t.Parallel()

	values := Values()
	if len(values) != len(allIds) {
		t.Fatalf("Values() returned %d issues, want %d", len(values), len(allIds))
	}
	for i, v := range values {
		if v.Id() != allIds[i] {
			t.Errorf("Values()[%d].Id() = %d, want %d (ordered by Id)", i, v.Id(), allIds[i])
		}
		if v.MarkdownMsg() == "" {
			t.Errorf("Issue %d has empty MarkdownMsg", v.Id())
		}
	}
}

func TestIssue_Title(t *testing.T) {
	t.Parallel()

	if got := Get(ManifestInvalidId).Title(); got != "Failed to read or write a pyproject.toml!" {
		t.Errorf("Title() = %q", got)
	}
	for _, i := range Values() {
		if i.Title() == "" {
			t.Errorf("issue %d has no title", i.Id())
		}
	}
	if got := (&Issue{mdMsg: "no heading"}).Title(); got != "" {
		t.Errorf("Title() without a heading = %q, want empty", got)
	}
}

func TestIssue_LinksAreCloned(t *testing.T) {
	t.Parallel()

	i := Get(ManifestInvalidId)
	links := i.DocLinks()
	if len(links) == 0 {
		t.Fatal("expected doc links on the manifest page")
	}
	links[0] = "modified"
	if i.DocLinks()[0] == "modified" {
		t.Error("DocLinks() should return a clone")
	}

	ext := Get(InstallFailedId).ExtLinks()
	ext[0] = "modified"
	if Get(InstallFailedId).ExtLinks()[0] == "modified" {
		t.Error("ExtLinks() should return a clone")
	}
}

func TestIssue_Render(t *testing.T) { //nolint:paralleltest // swaps the package renderer
	passthrough(t)

	withLinks := &Issue{
		id:       Id(9999),
		mdMsg:    "# Test Issue\n\nThis is a test.",
		docLinks: []HttpLink{"https://docs.example.com"},
		extLinks: []HttpLink{"https://external.example.com"},
	}
	rendered, err := withLinks.Render("notty")
	if err != nil {
		t.Fatalf("Render() returned error: %v", err)
	}
	for _, want := range []string{"See also", "<https://docs.example.com>", "<https://external.example.com>"} {
		if !strings.Contains(rendered, want) {
			t.Errorf("Render() missing %q in:\n%s", want, rendered)
		}
	}

	plain := &Issue{id: Id(9998), mdMsg: "# Test Issue\n\nNo links here."}
	rendered, err = plain.Render("notty")
	if err != nil {
		t.Fatalf("Render() returned error: %v", err)
	}
	if strings.Contains(rendered, "See also") {
		t.Error("Render() without links should not contain 'See also'")
	}

	for _, i := range Values() {
		if out, err := i.Render("notty"); err != nil || out == "" {
			t.Errorf("Issue %d failed to render: %v", i.Id(), err)
		}
	}
}

func TestIssue_RenderWithGlamour(t *testing.T) {
	t.Parallel()

	out, err := Get(ConfigLoadFailedId).Render("notty")
	if err != nil {
		t.Fatalf("Render() returned error: %v", err)
	}
	if !strings.Contains(out, "monodeploy config show") {
		t.Errorf("rendered page should keep the code block, got:\n%s", out)
	}
}
