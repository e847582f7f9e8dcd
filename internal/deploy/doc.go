// SPDX-License-Identifier: MPL-2.0

// Package deploy runs the deploy pipeline for one project of a monorepo:
// stage the project next to it, relocate its local packages, synthesize the
// staged manifest, optionally install a virtual environment, rewrite imports
// under the top namespace, copy the distributable files into the output
// directory, and remove the staging tree.
//
// A Pipeline is not safe for concurrent runs against the same project: the
// staging directory name is deterministic, so two runs would share it.
package deploy
