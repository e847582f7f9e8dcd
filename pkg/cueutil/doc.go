// SPDX-License-Identifier: MPL-2.0

// Package cueutil validates user CUE files against an embedded schema and
// decodes them into Go values.
//
// Every parse follows the same three steps:
//
//  1. Compile the embedded schema
//  2. Compile user data and unify it with a schema definition
//  3. Validate and decode
//
// # Usage
//
//	//go:embed config_schema.cue
//	var configSchema string
//
//	result, err := cueutil.ParseAndDecodeString[map[string]any](
//	    configSchema,
//	    userFileBytes,
//	    "#Config",
//	    cueutil.WithFilename("config.cue"),
//	    cueutil.WithConcrete(false),
//	)
//	if err != nil {
//	    return err // *ValidationError names the offending field path
//	}
//
// Validation failures are reported as *ValidationError with JSON-path style
// field locations such as "staging.exclude[1]".
package cueutil
