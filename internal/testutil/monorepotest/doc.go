// SPDX-License-Identifier: MPL-2.0

// Package monorepotest builds throwaway Poetry monorepos on disk for tests.
//
// It is separate from testutil so that testutil stays free of project
// imports.
//
// # Usage
//
//	repo := monorepotest.New(t, monorepotest.WithAppAndShared())
//	manifest := repo.Path("app", "pyproject.toml")
package monorepotest
