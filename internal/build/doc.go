// SPDX-License-Identifier: MPL-2.0

// Package build lists the files a Poetry build would put into a distribution
// of a staged project: the manifest, the readme files, every file below the
// declared packages, and the extra include patterns, minus the excludes.
package build
