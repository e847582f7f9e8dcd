// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"os"
	"testing"
)

func TestMustSetenv_RestoresUnset(t *testing.T) {
	const key = "MONODEPLOY_TESTUTIL_UNSET"
	t.Cleanup(MustUnsetenv(t, key))

	cleanup := MustSetenv(t, key, "value")
	if got := os.Getenv(key); got != "value" {
		t.Errorf("%s = %q, want value", key, got)
	}

	cleanup()
	if _, ok := os.LookupEnv(key); ok {
		t.Errorf("%s should be unset after cleanup", key)
	}
}

func TestMustUnsetenv_RestoresValue(t *testing.T) {
	const key = "MONODEPLOY_TESTUTIL_SET"
	t.Cleanup(MustSetenv(t, key, "original"))

	cleanup := MustUnsetenv(t, key)
	if _, ok := os.LookupEnv(key); ok {
		t.Errorf("%s should be unset", key)
	}

	cleanup()
	if got := os.Getenv(key); got != "original" {
		t.Errorf("%s = %q, want original", key, got)
	}
}
