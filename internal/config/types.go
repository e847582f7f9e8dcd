// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
)

const (
	// ColorSchemeAuto detects the terminal color scheme automatically.
	ColorSchemeAuto ColorScheme = "auto"
	// ColorSchemeDark forces dark color scheme.
	ColorSchemeDark ColorScheme = "dark"
	// ColorSchemeLight forces light color scheme.
	ColorSchemeLight ColorScheme = "light"

	// DefaultStagingPrefix is the prefix of staging directory names
	// (".prepare_<project>").
	DefaultStagingPrefix StagingPrefix = "prepare"
	// DefaultOutputDir is the default artifact directory, relative to the
	// project directory.
	DefaultOutputDir = "dist"
	// DefaultPython is the interpreter used to create virtual environments.
	DefaultPython = "python3"
	// DefaultInstallCommand installs the monorepo dependencies into the venv.
	DefaultInstallCommand InstallCommand = "poetry install --no-root --no-interaction"
	// DefaultDebounce is how long watch mode waits for a burst of changes to
	// settle before re-running.
	DefaultDebounce = 500 * time.Millisecond
)

var (
	// ErrInvalidColorScheme is returned when a ColorScheme value is not recognized.
	ErrInvalidColorScheme = errors.New("invalid color scheme")
	// ErrInvalidStagingPrefix is returned when a StagingPrefix is empty or
	// contains path separators.
	ErrInvalidStagingPrefix = errors.New("invalid staging prefix")
	// ErrInvalidExcludePattern is returned when an exclude glob is malformed.
	ErrInvalidExcludePattern = errors.New("invalid exclude pattern")
	// ErrInvalidInstallCommand is returned when an InstallCommand is whitespace-only.
	ErrInvalidInstallCommand = errors.New("invalid install command")
	// ErrInvalidDebounce is returned when the watch debounce is not positive.
	ErrInvalidDebounce = errors.New("invalid watch debounce")
	// ErrInvalidStagingConfig is the sentinel error wrapped by InvalidStagingConfigError.
	ErrInvalidStagingConfig = errors.New("invalid staging config")
	// ErrInvalidUIConfig is the sentinel error wrapped by InvalidUIConfigError.
	ErrInvalidUIConfig = errors.New("invalid UI config")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// ColorScheme specifies the terminal color scheme preference.
	ColorScheme string

	// InvalidColorSchemeError is returned when a ColorScheme value is not recognized.
	// It wraps ErrInvalidColorScheme for errors.Is() compatibility.
	InvalidColorSchemeError struct {
		Value ColorScheme
	}

	// StagingPrefix is the label placed between the dot and the project name
	// of a staging directory. It must be a single path element.
	StagingPrefix string

	// InvalidStagingPrefixError is returned when a StagingPrefix is empty,
	// whitespace-only, or contains a path separator.
	InvalidStagingPrefixError struct {
		Value StagingPrefix
	}

	// ExcludePattern is a doublestar glob matched against slash-separated
	// paths relative to the tree being copied.
	ExcludePattern string

	// InvalidExcludePatternError is returned when an ExcludePattern is not a
	// valid doublestar pattern.
	InvalidExcludePatternError struct {
		Value ExcludePattern
	}

	// InstallCommand is the shell-quoted command run inside the venv.
	// The zero value means DefaultInstallCommand.
	InstallCommand string

	// InvalidInstallCommandError is returned when a non-empty InstallCommand
	// is whitespace-only.
	InvalidInstallCommandError struct {
		Value InstallCommand
	}

	// InvalidDebounceError is returned when a watch debounce is zero or negative.
	InvalidDebounceError struct {
		Value time.Duration
	}

	// InvalidStagingConfigError is returned when a StagingConfig has invalid fields.
	InvalidStagingConfigError struct {
		FieldErrors []error
	}

	// InvalidUIConfigError is returned when a UIConfig has invalid fields.
	// It wraps ErrInvalidUIConfig for errors.Is() compatibility and collects
	// field-level validation errors.
	InvalidUIConfigError struct {
		FieldErrors []error
	}

	// InvalidConfigError is returned when a Config has invalid fields.
	// It wraps ErrInvalidConfig for errors.Is() compatibility and collects
	// field-level validation errors from all sub-components.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// Config holds the application configuration.
	Config struct {
		// Staging configures the scratch directory the project is assembled in.
		Staging StagingConfig `json:"staging" mapstructure:"staging"`
		// Output configures where deploy artifacts are written.
		Output OutputConfig `json:"output" mapstructure:"output"`
		// Venv configures the optional virtual environment install.
		Venv VenvConfig `json:"venv" mapstructure:"venv"`
		// Rewrite configures import rewriting under the top namespace.
		Rewrite RewriteConfig `json:"rewrite" mapstructure:"rewrite"`
		// UI configures the user interface
		UI UIConfig `json:"ui" mapstructure:"ui"`
		// Watch configures watch mode.
		Watch WatchConfig `json:"watch" mapstructure:"watch"`
	}

	// StagingConfig configures staging directories.
	StagingConfig struct {
		// Prefix names staging directories ".<prefix>_<project>".
		Prefix StagingPrefix `json:"prefix" mapstructure:"prefix"`
		// Exclude lists globs skipped when copying the project and its
		// local packages, on top of each manifest's own excludes.
		Exclude []ExcludePattern `json:"exclude" mapstructure:"exclude"`
	}

	// OutputConfig configures the artifact directory.
	OutputConfig struct {
		// Dir is the artifact directory; relative paths resolve against the
		// project directory.
		Dir string `json:"dir" mapstructure:"dir"`
	}

	// VenvConfig configures virtual environment installs.
	VenvConfig struct {
		// Python is the interpreter used for "python -m venv".
		Python string `json:"python" mapstructure:"python"`
		// InstallCommand is run from the monorepo root with the venv active.
		InstallCommand InstallCommand `json:"install_command" mapstructure:"install_command"`
	}

	// RewriteConfig configures import rewriting.
	RewriteConfig struct {
		// Enabled turns import rewriting on when a top namespace is set.
		Enabled bool `json:"enabled" mapstructure:"enabled"`
	}

	// UIConfig configures the user interface.
	UIConfig struct {
		// ColorScheme sets the color scheme
		ColorScheme ColorScheme `json:"color_scheme" mapstructure:"color_scheme"`
		// Verbose enables verbose output
		Verbose bool `json:"verbose" mapstructure:"verbose"`
	}

	// WatchConfig configures watch mode.
	WatchConfig struct {
		// Debounce is the quiet period before a batch of changes triggers a run.
		Debounce time.Duration `json:"debounce" mapstructure:"debounce"`
	}
)

// ExcludePatterns returns the exclude globs as plain strings.
func (c StagingConfig) ExcludePatterns() []string {
	out := make([]string, len(c.Exclude))
	for i, p := range c.Exclude {
		out[i] = string(p)
	}
	return out
}

// IsValid returns whether the StagingConfig has valid fields.
func (c StagingConfig) IsValid() (bool, []error) {
	var errs []error
	if valid, fieldErrs := c.Prefix.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	for _, p := range c.Exclude {
		if valid, fieldErrs := p.IsValid(); !valid {
			errs = append(errs, fieldErrs...)
		}
	}
	if len(errs) > 0 {
		return false, []error{&InvalidStagingConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Error implements the error interface for InvalidStagingConfigError.
func (e *InvalidStagingConfigError) Error() string {
	return fmt.Sprintf("invalid staging config: %d field error(s)", len(e.FieldErrors))
}

// Unwrap returns ErrInvalidStagingConfig for errors.Is() compatibility.
func (e *InvalidStagingConfigError) Unwrap() error { return ErrInvalidStagingConfig }

// IsValid returns whether the UIConfig has valid fields.
// It delegates to ColorScheme.IsValid(); bool fields need no validation.
func (c UIConfig) IsValid() (bool, []error) {
	var errs []error
	if valid, fieldErrs := c.ColorScheme.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if len(errs) > 0 {
		return false, []error{&InvalidUIConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Error implements the error interface for InvalidUIConfigError.
func (e *InvalidUIConfigError) Error() string {
	return fmt.Sprintf("invalid UI config: %d field error(s)", len(e.FieldErrors))
}

// Unwrap returns ErrInvalidUIConfig for errors.Is() compatibility.
func (e *InvalidUIConfigError) Unwrap() error { return ErrInvalidUIConfig }

// IsValid returns whether the Config has valid fields.
// Output and Rewrite need no validation beyond what the schema enforces.
func (c Config) IsValid() (bool, []error) {
	var errs []error
	if valid, fieldErrs := c.Staging.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if valid, fieldErrs := c.Venv.InstallCommand.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if valid, fieldErrs := c.UI.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if c.Watch.Debounce <= 0 {
		errs = append(errs, &InvalidDebounceError{Value: c.Watch.Debounce})
	}
	if len(errs) > 0 {
		return false, []error{&InvalidConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Error implements the error interface for InvalidConfigError.
func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("invalid config: %d field error(s)", len(e.FieldErrors))
}

// Unwrap returns ErrInvalidConfig for errors.Is() compatibility.
func (e *InvalidConfigError) Unwrap() error { return ErrInvalidConfig }

// String returns the string representation of the StagingPrefix.
func (p StagingPrefix) String() string { return string(p) }

// IsValid returns whether the StagingPrefix can be used in a directory name.
func (p StagingPrefix) IsValid() (bool, []error) {
	if strings.TrimSpace(string(p)) == "" || strings.ContainsAny(string(p), `/\`) {
		return false, []error{&InvalidStagingPrefixError{Value: p}}
	}
	return true, nil
}

// Error implements the error interface for InvalidStagingPrefixError.
func (e *InvalidStagingPrefixError) Error() string {
	return fmt.Sprintf("invalid staging prefix %q: must be a non-empty name without separators", e.Value)
}

// Unwrap returns ErrInvalidStagingPrefix for errors.Is() compatibility.
func (e *InvalidStagingPrefixError) Unwrap() error { return ErrInvalidStagingPrefix }

// IsValid returns whether the ExcludePattern is a valid doublestar glob.
func (p ExcludePattern) IsValid() (bool, []error) {
	if !doublestar.ValidatePattern(string(p)) {
		return false, []error{&InvalidExcludePatternError{Value: p}}
	}
	return true, nil
}

// Error implements the error interface for InvalidExcludePatternError.
func (e *InvalidExcludePatternError) Error() string {
	return fmt.Sprintf("invalid exclude pattern %q", e.Value)
}

// Unwrap returns ErrInvalidExcludePattern for errors.Is() compatibility.
func (e *InvalidExcludePatternError) Unwrap() error { return ErrInvalidExcludePattern }

// String returns the string representation of the InstallCommand.
func (c InstallCommand) String() string { return string(c) }

// IsValid returns whether the InstallCommand is valid.
// The zero value ("") is valid (means DefaultInstallCommand).
func (c InstallCommand) IsValid() (bool, []error) {
	if c != "" && strings.TrimSpace(string(c)) == "" {
		return false, []error{&InvalidInstallCommandError{Value: c}}
	}
	return true, nil
}

// Error implements the error interface for InvalidInstallCommandError.
func (e *InvalidInstallCommandError) Error() string {
	return fmt.Sprintf("invalid install command %q: non-empty value must not be whitespace-only", e.Value)
}

// Unwrap returns ErrInvalidInstallCommand for errors.Is() compatibility.
func (e *InvalidInstallCommandError) Unwrap() error { return ErrInvalidInstallCommand }

// Error implements the error interface for InvalidDebounceError.
func (e *InvalidDebounceError) Error() string {
	return fmt.Sprintf("invalid watch debounce %s: must be positive", e.Value)
}

// Unwrap returns ErrInvalidDebounce for errors.Is() compatibility.
func (e *InvalidDebounceError) Unwrap() error { return ErrInvalidDebounce }

// Error implements the error interface for InvalidColorSchemeError.
func (e *InvalidColorSchemeError) Error() string {
	return fmt.Sprintf("invalid color scheme %q (valid: auto, dark, light)", e.Value)
}

// Unwrap returns the sentinel error for errors.Is() compatibility.
func (e *InvalidColorSchemeError) Unwrap() error {
	return ErrInvalidColorScheme
}

// String returns the string representation of the ColorScheme.
func (cs ColorScheme) String() string { return string(cs) }

// IsValid returns whether the ColorScheme is one of the defined color schemes,
// and a list of validation errors if it is not.
func (cs ColorScheme) IsValid() (bool, []error) {
	switch cs {
	case ColorSchemeAuto, ColorSchemeDark, ColorSchemeLight:
		return true, nil
	default:
		return false, []error{&InvalidColorSchemeError{Value: cs}}
	}
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Staging: StagingConfig{
			Prefix: DefaultStagingPrefix,
			Exclude: []ExcludePattern{
				"**/__pycache__/**",
				"**/*.pyc",
				".venv/**",
				"dist/**",
			},
		},
		Output: OutputConfig{
			Dir: DefaultOutputDir,
		},
		Venv: VenvConfig{
			Python:         DefaultPython,
			InstallCommand: DefaultInstallCommand,
		},
		Rewrite: RewriteConfig{
			Enabled: true,
		},
		UI: UIConfig{
			ColorScheme: ColorSchemeAuto,
			Verbose:     false,
		},
		Watch: WatchConfig{
			Debounce: DefaultDebounce,
		},
	}
}
