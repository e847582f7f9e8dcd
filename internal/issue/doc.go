// SPDX-License-Identifier: MPL-2.0

// Package issue provides actionable error handling with user-friendly messages.
//
// ActionableError carries the failed operation, the resource involved, and
// remediation suggestions. Each kind of deploy failure also has a Markdown
// catalog page, selected with ErrorContext.WithIssue and rendered with glamour.
package issue
