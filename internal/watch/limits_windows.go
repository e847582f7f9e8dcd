// SPDX-License-Identifier: MPL-2.0

//go:build windows

package watch

import (
	"errors"
	"syscall"
)

// Win32 codes surfaced by ReadDirectoryChangesW when watching cannot continue.
const (
	errnoTooManyOpenFiles = syscall.Errno(4)
	errnoInvalidHandle    = syscall.Errno(6)
	errnoNotEnoughMemory  = syscall.Errno(8)
)

// limitHint reports whether err leaves the watcher unusable and what to do
// about it.
func limitHint(err error) (string, bool) {
	switch {
	case errors.Is(err, errnoTooManyOpenFiles):
		return "too many open handles; watch fewer local dependencies", true
	case errors.Is(err, errnoInvalidHandle):
		return "a watched directory was deleted or unmounted; restart the watch", true
	case errors.Is(err, errnoNotEnoughMemory):
		return "not enough memory for the change notification buffer", true
	default:
		return "", false
	}
}
