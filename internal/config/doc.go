// SPDX-License-Identifier: MPL-2.0

// Package config handles application configuration using Viper with CUE as the file format.
//
// Configuration is loaded from ~/.config/monodeploy/config.cue (or the XDG equivalent on
// Linux, ~/Library/Application Support/monodeploy/config.cue on macOS,
// %APPDATA%\monodeploy\config.cue on Windows), falling back to ./config.cue. An explicit
// file passed with --config is used exclusively.
//
// Files are validated against the embedded #Config schema (config_schema.cue) and then
// merged over the defaults. Constraints CUE cannot express, such as glob syntax, are
// checked on the decoded Config.
package config
