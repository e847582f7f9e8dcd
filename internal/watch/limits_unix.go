// SPDX-License-Identifier: MPL-2.0

//go:build !windows

package watch

import (
	"errors"
	"syscall"
)

// limitHint reports whether err is an inotify or descriptor exhaustion error
// and how to lift the limit.
func limitHint(err error) (string, bool) {
	switch {
	case errors.Is(err, syscall.ENOSPC):
		return "raise fs.inotify.max_user_watches or add large directories to staging.exclude", true
	case errors.Is(err, syscall.EMFILE):
		return "raise the open file limit with ulimit -n", true
	case errors.Is(err, syscall.ENFILE):
		return "the system file table is full; close other watchers and retry", true
	default:
		return "", false
	}
}
