// SPDX-License-Identifier: MPL-2.0

package staging

import (
	"errors"
	"fmt"
)

var (
	// ErrStructure is the sentinel error wrapped by StructureError.
	ErrStructure = errors.New("unexpected project structure")
	// ErrCopy is the sentinel error wrapped by CopyError.
	ErrCopy = errors.New("copy failed")
	// ErrUnsafeRemoval is returned when RemoveProject is asked to delete a
	// directory that does not look like a staging directory.
	ErrUnsafeRemoval = errors.New("refusing to remove directory")
)

type (
	// StructureError is returned when a project is not laid out the way a
	// monorepo project is expected to be (e.g. its manifest sits at the
	// filesystem root, or a declared package does not exist).
	StructureError struct {
		Path   string
		Reason string
	}

	// CopyError is returned when a file or directory cannot be copied into the
	// staging tree.
	CopyError struct {
		Path string
		Op   string
		Err  error
	}
)

// Error implements the error interface.
func (e *StructureError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Reason)
}

// Unwrap returns ErrStructure for errors.Is() compatibility.
func (e *StructureError) Unwrap() error { return ErrStructure }

// Error implements the error interface.
func (e *CopyError) Error() string {
	return fmt.Sprintf("failed to %s %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap returns both ErrCopy and the underlying cause.
func (e *CopyError) Unwrap() []error { return []error{ErrCopy, e.Err} }
