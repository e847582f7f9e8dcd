// SPDX-License-Identifier: MPL-2.0

// Package cmd contains the monodeploy command tree.
//
// App is the composition root: it owns the config provider and the pipeline
// factory, and every command handler reaches the deploy machinery through it.
// Errors returned by handlers are rendered once, by the fang error handler,
// together with the matching issue catalog page.
package cmd
