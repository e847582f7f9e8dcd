// SPDX-License-Identifier: MPL-2.0

package pyproject

import (
	"bytes"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// Marshal encodes a raw manifest document as TOML.
func Marshal(doc map[string]any) ([]byte, error) {
	var buf bytes.Buffer
	enc := toml.NewEncoder(&buf)
	enc.SetIndentTables(true)
	if err := enc.Encode(doc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Write encodes doc and writes it to path, replacing any existing file.
func Write(path string, doc map[string]any) error {
	data, err := Marshal(doc)
	if err != nil {
		return &ManifestError{Path: path, Reason: "encode TOML", Err: err}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return &ManifestError{Path: path, Reason: "write", Err: err}
	}
	return nil
}
