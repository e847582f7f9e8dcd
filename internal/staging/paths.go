// SPDX-License-Identifier: MPL-2.0

package staging

import (
	"path/filepath"

	"github.com/monodeploy/monodeploy/pkg/pyproject"
)

// DefaultPrefix is the staging directory prefix used when none is configured.
const DefaultPrefix = "prepare"

// DestinationFolder returns the directory that will hold the staging tree: the
// parent of the directory containing the manifest. A manifest whose directory
// has no distinct parent is not nested in a monorepo and yields a
// StructureError.
func DestinationFolder(manifestPath string) (string, error) {
	abs, err := filepath.Abs(manifestPath)
	if err != nil {
		return "", &StructureError{Path: manifestPath, Reason: "cannot resolve absolute path"}
	}
	parent := filepath.Dir(abs)
	grandparent := filepath.Dir(parent)
	if grandparent == parent {
		return "", &StructureError{Path: parent, Reason: "failed to navigate to the parent directory"}
	}
	return grandparent, nil
}

// StagingDirName returns the deterministic staging directory name for a project.
func StagingDirName(prefix, projectName string) string {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return "." + prefix + "_" + projectName
}

// StagingPath reads the project name from the manifest and returns the path
// of its staging directory. Nothing is created.
func StagingPath(manifestPath, prefix string) (string, error) {
	folder, err := DestinationFolder(manifestPath)
	if err != nil {
		return "", err
	}
	name, err := pyproject.ProjectName(manifestPath)
	if err != nil {
		return "", err
	}
	return filepath.Join(folder, StagingDirName(prefix, name)), nil
}
