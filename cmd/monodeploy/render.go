// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"github.com/monodeploy/monodeploy/internal/build"
	"github.com/monodeploy/monodeploy/internal/config"
	"github.com/monodeploy/monodeploy/internal/issue"
	"github.com/monodeploy/monodeploy/internal/rewrite"
	"github.com/monodeploy/monodeploy/internal/staging"
	"github.com/monodeploy/monodeploy/internal/venv"
	"github.com/monodeploy/monodeploy/pkg/pyproject"
)

// exitInterrupted is the exit code of a run cancelled with Ctrl+C.
const exitInterrupted = 130

// classifyError maps a failure to its catalog page. Zero means no page.
func classifyError(err error) issue.Id {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		if page := ae.Page(); page != nil {
			return page.Id()
		}
	}

	switch {
	case errors.Is(err, staging.ErrUnsafeRemoval):
		return issue.UnsafeCleanupId
	case errors.Is(err, staging.ErrStructure):
		return issue.ProjectStructureId
	case errors.Is(err, pyproject.ErrManifest):
		return issue.ManifestInvalidId
	case errors.Is(err, rewrite.ErrRewrite):
		return issue.RewriteFailedId
	case errors.Is(err, venv.ErrRootNotFound):
		return issue.RootManifestNotFoundId
	case errors.Is(err, venv.ErrInstall):
		return issue.InstallFailedId
	case errors.Is(err, build.ErrNoMatch):
		return issue.ArtifactMissingId
	case errors.Is(err, staging.ErrCopy):
		return issue.CopyFailedId
	case errors.Is(err, config.ErrInvalidConfig):
		return issue.ConfigLoadFailedId
	}
	return 0
}

// renderError writes the styled error and, when one exists, its catalog page
// rendered with the glamour style matching scheme.
func renderError(w io.Writer, err error, verbose bool, scheme config.ColorScheme) {
	var exitErr *ExitError
	if errors.As(err, &exitErr) && exitErr.Err == nil {
		return
	}
	if errors.Is(err, context.Canceled) {
		fmt.Fprintf(w, "\n%s\n", WarningStyle.Render("Interrupted"))
		return
	}

	fmt.Fprintf(w, "\n%s %s\n", ErrorStyle.Render("Error:"), formatErrorForDisplay(err, verbose))

	id := classifyError(err)
	if id == 0 {
		return
	}
	rendered, renderErr := issue.Get(id).Render(glamourStyle(scheme))
	if renderErr != nil {
		log.Warn("failed to render issue catalog entry", "issueID", id, "error", renderErr)
		return
	}
	fmt.Fprint(w, rendered)
}

// formatErrorForDisplay formats an error for user display. ActionableErrors
// use their Format method; verbose mode shows the full error chain.
func formatErrorForDisplay(err error, verbose bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verbose)
	}
	return err.Error()
}

// glamourStyle maps a color scheme to a glamour standard style name.
func glamourStyle(scheme config.ColorScheme) string {
	switch scheme {
	case config.ColorSchemeDark, config.ColorSchemeLight:
		return string(scheme)
	default:
		return "auto"
	}
}

// interrupted wraps a cancellation so the process exits with exitInterrupted.
func interrupted(err error) error {
	if errors.Is(err, context.Canceled) {
		return &ExitError{Code: exitInterrupted, Err: err}
	}
	return err
}
