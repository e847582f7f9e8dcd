// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/monodeploy/monodeploy/internal/issue"
	"github.com/monodeploy/monodeploy/pkg/pyproject"
)

// newErrorsHelpTopic creates `monodeploy help errors`, listing the catalog
// pages a failure can render.
func newErrorsHelpTopic() *cobra.Command {
	var b strings.Builder
	b.WriteString("Every failure monodeploy reports comes with one of these pages:\n\n")
	for _, i := range issue.Values() {
		fmt.Fprintf(&b, "  %2d  %s\n", i.Id(), i.Title())
	}
	b.WriteString("\nRun with --verbose to see the full error chain.")

	return &cobra.Command{
		Use:   "errors",
		Short: "Error pages shown when a deploy fails",
		Long:  b.String(),
	}
}

// deployFailure attaches the operation, the manifest and the matching catalog
// page to a failed deploy. Cancellation and errors that already carry context
// pass through unchanged.
func deployFailure(err error, manifest string) error {
	if err == nil || errors.Is(err, context.Canceled) {
		return err
	}
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return err
	}
	if manifest == "" {
		manifest = "."
	}

	id := classifyError(err)
	return issue.NewErrorContext().
		WithOperation("deploy project").
		WithResource(manifest).
		WithIssue(id).
		WithSuggestions(deploySuggestions(err, id, manifest)...).
		Wrap(err).
		BuildError()
}

// deploySuggestions returns hints naming the paths and flags of this run.
// General advice lives on the catalog page.
func deploySuggestions(err error, id issue.Id, manifest string) []string {
	switch id {
	case issue.CopyFailedId, issue.UnsafeCleanupId:
		return []string{fmt.Sprintf("Remove a leftover staging directory with 'monodeploy clean %s'", manifest)}
	case issue.ManifestInvalidId:
		dir := filepath.Dir(manifest)
		var me *pyproject.ManifestError
		if errors.As(err, &me) && me.Path != "" {
			dir = filepath.Dir(me.Path)
		}
		return []string{fmt.Sprintf("Run 'poetry check' in %s", dir)}
	case issue.RewriteFailedId:
		return []string{"Retry with --no-rewrite to ship the sources unchanged"}
	case issue.InstallFailedId, issue.RootManifestNotFoundId:
		return []string{"Retry without --with-venv to skip the virtual environment"}
	default:
		return nil
	}
}
