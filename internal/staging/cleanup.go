// SPDX-License-Identifier: MPL-2.0

package staging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// RemoveProject recursively deletes a staging directory. A missing directory is
// not an error, so it is safe to call repeatedly and after interrupted runs.
//
// Only hidden directories (names starting with ".") below a distinct parent
// are removed; anything else fails with ErrUnsafeRemoval.
func RemoveProject(dir string) error {
	if dir == "" {
		return fmt.Errorf("%w: empty path", ErrUnsafeRemoval)
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return &CopyError{Path: dir, Op: "resolve", Err: err}
	}
	if filepath.Dir(abs) == abs {
		return fmt.Errorf("%w: %s is a filesystem root", ErrUnsafeRemoval, abs)
	}
	if !strings.HasPrefix(filepath.Base(abs), ".") {
		return fmt.Errorf("%w: %s is not a staging directory", ErrUnsafeRemoval, abs)
	}
	if err := os.RemoveAll(abs); err != nil {
		return &CopyError{Path: abs, Op: "remove", Err: err}
	}
	return nil
}
