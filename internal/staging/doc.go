// SPDX-License-Identifier: MPL-2.0

// Package staging assembles a self-contained copy of a monorepo project.
//
// The project directory is copied into a deterministic staging directory next
// to it (.<prefix>_<project-name>), sibling packages referenced by local paths
// are relocated under an optional top namespace, and a new pyproject.toml is
// synthesized that no longer points outside the staging tree. The staging
// directory is single-use: RemoveProject deletes it, and because its name is
// deterministic a run interrupted halfway can always be cleaned up later.
//
// Two concurrent runs for the same project share the same staging directory
// and are not supported.
package staging
