// SPDX-License-Identifier: MPL-2.0

//go:build !windows

package watch

import (
	"errors"
	"fmt"
	"strings"
	"syscall"
	"testing"
)

func TestLimitHint(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err      error
		wantOK   bool
		wantHint string
	}{
		{err: syscall.ENOSPC, wantOK: true, wantHint: "max_user_watches"},
		{err: fmt.Errorf("add: %w", syscall.EMFILE), wantOK: true, wantHint: "ulimit"},
		{err: syscall.ENFILE, wantOK: true, wantHint: "file table"},
		{err: syscall.EACCES},
		{err: errors.New("boom")},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			t.Parallel()

			hint, ok := limitHint(tt.err)
			if ok != tt.wantOK {
				t.Fatalf("limitHint(%v) ok = %v, want %v", tt.err, ok, tt.wantOK)
			}
			if !strings.Contains(hint, tt.wantHint) {
				t.Errorf("hint %q does not mention %q", hint, tt.wantHint)
			}
		})
	}
}

func TestLimitError(t *testing.T) {
	t.Parallel()

	err := error(&LimitError{Err: syscall.ENOSPC, Hint: "raise it"})
	if !errors.Is(err, ErrWatchLimit) || !errors.Is(err, syscall.ENOSPC) {
		t.Errorf("LimitError should match ErrWatchLimit and its errno: %v", err)
	}
	if !strings.Contains(err.Error(), "raise it") {
		t.Errorf("Error() = %q, want the hint", err.Error())
	}
}
