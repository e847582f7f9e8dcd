// SPDX-License-Identifier: MPL-2.0

package venv

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/monodeploy/monodeploy/pkg/pyproject"
)

// ErrRootNotFound is the sentinel error wrapped by RootNotFoundError.
var ErrRootNotFound = errors.New("root pyproject.toml not found")

// RootNotFoundError is returned when no ancestor of a project holds a
// workspace manifest.
type RootNotFoundError struct {
	// Path is the project manifest the search started from.
	Path string
}

// Error implements the error interface.
func (e *RootNotFoundError) Error() string {
	return fmt.Sprintf("couldn't find a root %s above %s", pyproject.FileName, e.Path)
}

// Unwrap returns ErrRootNotFound for errors.Is() compatibility.
func (e *RootNotFoundError) Unwrap() error { return ErrRootNotFound }

// FindRootManifest walks up from the directory of projectManifest and returns
// the first pyproject.toml that is not projectManifest itself.
func FindRootManifest(projectManifest string) (string, error) {
	abs, err := filepath.Abs(projectManifest)
	if err != nil {
		return "", &RootNotFoundError{Path: projectManifest}
	}

	dir := filepath.Dir(abs)
	for {
		candidate := filepath.Join(dir, pyproject.FileName)
		if candidate != abs {
			if info, err := os.Stat(candidate); err == nil && info.Mode().IsRegular() {
				return candidate, nil
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", &RootNotFoundError{Path: abs}
		}
		dir = parent
	}
}
