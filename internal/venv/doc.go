// SPDX-License-Identifier: MPL-2.0

// Package venv prepares a virtual environment next to the deployed project and
// installs the monorepo's locked dependencies into it by running an external
// installer command.
package venv
