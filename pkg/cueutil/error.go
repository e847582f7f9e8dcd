// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"errors"
	"fmt"
	"strings"

	cueerrors "cuelang.org/go/cue/errors"
)

var (
	// ErrValidation is the sentinel wrapped by ValidationError.
	ErrValidation = errors.New("CUE validation failed")
	// ErrFileTooLarge is returned when input exceeds the configured size limit.
	ErrFileTooLarge = errors.New("file too large")
)

type (
	// FieldError is one CUE error located at a field path.
	FieldError struct {
		// Path is the JSON path to the invalid value (e.g., "staging.exclude[0]").
		// It is empty for file-level errors such as syntax errors.
		Path string
		// Message is the CUE error message without the path prefix.
		Message string
	}

	// ValidationError reports every CUE error found in one file.
	ValidationError struct {
		// FilePath is the file being validated.
		FilePath string
		// Fields holds one entry per CUE error, in CUE's order.
		Fields []FieldError
	}
)

func (f FieldError) String() string {
	if f.Path == "" {
		return f.Message
	}
	return f.Path + ": " + f.Message
}

// Error implements the error interface.
//
// One error renders as "<file>: <path>: <message>"; several are listed on
// indented lines below "<file>: validation failed:".
func (e *ValidationError) Error() string {
	if len(e.Fields) == 1 {
		return fmt.Sprintf("%s: %s", e.FilePath, e.Fields[0])
	}
	lines := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		lines[i] = f.String()
	}
	return fmt.Sprintf("%s: validation failed:\n  %s", e.FilePath, strings.Join(lines, "\n  "))
}

// Unwrap returns ErrValidation for errors.Is() compatibility.
func (e *ValidationError) Unwrap() error { return ErrValidation }

// FormatError converts a CUE error into a *ValidationError naming filePath and
// the JSON path of each failing field, e.g.
//
//	config.cue: ui.color_scheme: 3 errors in empty disjunction
//
// Errors that do not come from CUE are wrapped with the file path as-is.
func FormatError(err error, filePath string) error {
	if err == nil {
		return nil
	}

	list := cueerrors.Errors(err)
	if len(list) == 0 {
		return fmt.Errorf("%s: %w", filePath, err)
	}

	out := &ValidationError{FilePath: filePath, Fields: make([]FieldError, 0, len(list))}
	for _, e := range list {
		path := formatPath(cueerrors.Path(e))
		msg := e.Error()
		// CUE sometimes repeats the path at the start of the message.
		if path != "" && strings.HasPrefix(msg, path) {
			msg = strings.TrimSpace(strings.TrimPrefix(strings.TrimPrefix(msg, path), ":"))
		}
		out.Fields = append(out.Fields, FieldError{Path: path, Message: msg})
	}
	return out
}

// formatPath converts a CUE error path (["staging", "exclude", "0"]) to
// JSON-path notation ("staging.exclude[0]").
func formatPath(path []string) string {
	var b strings.Builder
	for i, part := range path {
		if i > 0 && isIndex(part) {
			b.WriteString("[" + part + "]")
			continue
		}
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(part)
	}
	return b.String()
}

func isIndex(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// CheckFileSize fails with ErrFileTooLarge when data exceeds maxSize bytes.
func CheckFileSize(data []byte, maxSize int64, filename string) error {
	if int64(len(data)) > maxSize {
		return fmt.Errorf("%w: %s: file size %d bytes exceeds maximum %d bytes",
			ErrFileTooLarge, filename, len(data), maxSize)
	}
	return nil
}
