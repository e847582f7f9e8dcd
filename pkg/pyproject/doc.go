// SPDX-License-Identifier: MPL-2.0

// Package pyproject reads and writes the pyproject.toml manifests of Poetry
// projects living inside a monorepo.
//
// A Manifest keeps the fields the staging pipeline needs (name, local path
// dependencies, package includes, include/exclude globs) next to the full raw
// TOML document, so a synthesized manifest can carry every key it does not
// rewrite.
package pyproject
