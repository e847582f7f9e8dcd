// SPDX-License-Identifier: MPL-2.0

// Package platform names the operating systems whose filesystem layouts differ
// (configuration directories, virtual environment script folders).
package platform
