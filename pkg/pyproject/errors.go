// SPDX-License-Identifier: MPL-2.0

package pyproject

import (
	"errors"
	"fmt"
)

// ErrManifest is the sentinel error wrapped by ManifestError.
var ErrManifest = errors.New("manifest error")

// ManifestError is returned when a manifest cannot be read, parsed, or written,
// or when a synthesized manifest cannot be produced from it.
type ManifestError struct {
	// Path is the manifest file involved.
	Path string
	// Reason is a short description of what went wrong.
	Reason string
	// Err is the underlying cause (optional).
	Err error
}

// Error implements the error interface.
func (e *ManifestError) Error() string {
	msg := fmt.Sprintf("manifest %s: %s", e.Path, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the cause when present, and ErrManifest otherwise.
func (e *ManifestError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrManifest, e.Err}
	}
	return []error{ErrManifest}
}
