// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"
)

func TestActionableError_Error(t *testing.T) {
	t.Parallel()

	cause := errors.New("declared package not found in project")
	tests := []struct {
		name string
		err  *ActionableError
		want string
	}{
		{"operation", &ActionableError{Operation: "deploy project"}, "failed to deploy project"},
		{
			"resource",
			&ActionableError{Operation: "clean staging directory", Resource: "/repo/.prepare_app"},
			"failed to clean staging directory: /repo/.prepare_app",
		},
		{
			"resource and cause",
			&ActionableError{Operation: "deploy project", Resource: "app/pyproject.toml", Cause: cause},
			"failed to deploy project: app/pyproject.toml: declared package not found in project",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestActionableError_Format(t *testing.T) {
	t.Parallel()

	chain := &ActionableError{
		Operation: "deploy project",
		Cause:     fmt.Errorf("install dependencies: %w", os.ErrNotExist),
	}
	tests := []struct {
		name     string
		err      *ActionableError
		verbose  bool
		contains []string
		excludes []string
	}{
		{
			name: "suggestions as bullets",
			err: &ActionableError{
				Operation:   "deploy project",
				Resource:    "app/pyproject.toml",
				Suggestions: []string{"Retry with --no-rewrite", "Run 'monodeploy clean app'"},
			},
			contains: []string{"failed to deploy project: app/pyproject.toml", "• Retry with --no-rewrite", "• Run 'monodeploy clean app'"},
		},
		{
			name:     "quiet hides the chain",
			err:      chain,
			contains: []string{"install dependencies: file does not exist"},
			excludes: []string{"Error chain:", "•"},
		},
		{
			name:     "verbose lists the chain",
			err:      chain,
			verbose:  true,
			contains: []string{"Error chain:", "1. install dependencies: file does not exist", "2. file does not exist"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := tt.err.Format(tt.verbose)
			for _, s := range tt.contains {
				if !strings.Contains(got, s) {
					t.Errorf("Format() missing %q in:\n%s", s, got)
				}
			}
			for _, s := range tt.excludes {
				if strings.Contains(got, s) {
					t.Errorf("Format() should not contain %q in:\n%s", s, got)
				}
			}
		})
	}
}

func TestActionableError_UnwrapAndPage(t *testing.T) {
	t.Parallel()

	err := NewErrorContext().
		WithOperation("deploy project").
		WithIssue(RewriteFailedId).
		Wrap(os.ErrPermission).
		Build()

	if !errors.Is(err, os.ErrPermission) {
		t.Error("errors.Is should reach the cause")
	}
	if page := err.Page(); page == nil || page.Id() != RewriteFailedId {
		t.Errorf("Page() = %v, want the rewrite page", page)
	}
	if WrapWithOperation(os.ErrPermission, "watch project").Page() != nil {
		t.Error("Page() should be nil when no issue is selected")
	}
}

func TestErrorContext_Build(t *testing.T) {
	t.Parallel()

	err := NewErrorContext().
		WithOperation("deploy project").
		WithResource("app/pyproject.toml").
		WithIssue(CopyFailedId).
		WithSuggestion("Run 'monodeploy clean app'").
		WithSuggestions("Check permissions", "Retry").
		Wrap(os.ErrPermission).
		Build()

	if err.Operation != "deploy project" || err.Resource != "app/pyproject.toml" || err.Issue != CopyFailedId {
		t.Errorf("unexpected context: %+v", err)
	}
	if !err.HasSuggestions() || len(err.Suggestions) != 3 {
		t.Errorf("Suggestions = %v, want 3", err.Suggestions)
	}

	if NewErrorContext().WithResource("app").Build() != nil {
		t.Error("Build() without an operation should return nil")
	}
	if NewErrorContext().BuildError() != nil {
		t.Error("BuildError() without an operation should return an untyped nil")
	}
	var ae *ActionableError
	if !errors.As(NewErrorContext().WithOperation("x").BuildError(), &ae) {
		t.Error("BuildError() should return an *ActionableError")
	}
}

func TestWrapHelpers(t *testing.T) {
	t.Parallel()

	if WrapWithOperation(nil, "watch project") != nil || WrapWithContext(nil, "clean", "/repo") != nil {
		t.Error("wrapping nil should give nil")
	}

	op := WrapWithOperation(os.ErrClosed, "watch project")
	if op.Operation != "watch project" || !errors.Is(op, os.ErrClosed) {
		t.Errorf("WrapWithOperation() = %+v", op)
	}

	ctx := WrapWithContext(os.ErrPermission, "clean staging directory", "/repo/.prepare_app")
	if ctx.Resource != "/repo/.prepare_app" || ctx.HasSuggestions() {
		t.Errorf("WrapWithContext() = %+v", ctx)
	}
}
