// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"runtime"
	"testing"

	"github.com/monodeploy/monodeploy/pkg/platform"
)

// SetHomeDir sets the platform's home variable (USERPROFILE on Windows, HOME
// elsewhere) and returns a cleanup function restoring it.
//
//	t.Cleanup(testutil.SetHomeDir(t, t.TempDir()))
func SetHomeDir(t testing.TB, dir string) func() {
	t.Helper()

	if runtime.GOOS == platform.Windows {
		return MustSetenv(t, "USERPROFILE", dir)
	}
	return MustSetenv(t, "HOME", dir)
}

// IsolateUserConfig moves the per-user configuration directory below home:
// it sets the home variable and clears XDG_CONFIG_HOME and APPDATA, which
// would otherwise take precedence. The returned function restores all three.
func IsolateUserConfig(t testing.TB, home string) func() {
	t.Helper()

	restore := []func(){
		SetHomeDir(t, home),
		MustUnsetenv(t, "XDG_CONFIG_HOME"),
		MustUnsetenv(t, "APPDATA"),
	}
	return func() {
		for i := len(restore) - 1; i >= 0; i-- {
			restore[i]()
		}
	}
}
