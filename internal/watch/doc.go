// SPDX-License-Identifier: MPL-2.0

// Package watch re-runs a deploy when the sources it reads change.
//
// A Watcher monitors the project directory and its local dependencies with
// fsnotify. Events within the debounce window are coalesced so the callback
// fires once with the full set of changed paths, and callbacks never overlap.
package watch
