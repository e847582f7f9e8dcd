// SPDX-License-Identifier: MPL-2.0

// Package testutil provides test helpers that fail the test on error instead
// of returning it: environment variable management (MustSetenv, MustUnsetenv)
// and home directory isolation (SetHomeDir, IsolateUserConfig).
//
// Monorepo fixtures live in the monorepotest subpackage.
package testutil
