// SPDX-License-Identifier: MPL-2.0

package rewrite

import (
	"errors"
	"fmt"
)

// ErrRewrite is the sentinel error wrapped by RewriteError.
var ErrRewrite = errors.New("import rewrite failed")

// RewriteError is returned when a source module cannot be read or written.
type RewriteError struct {
	Path string
	Err  error
}

// Error implements the error interface.
func (e *RewriteError) Error() string {
	return fmt.Sprintf("rewrite %s: %v", e.Path, e.Err)
}

// Unwrap returns both ErrRewrite and the underlying cause.
func (e *RewriteError) Unwrap() []error { return []error{ErrRewrite, e.Err} }
