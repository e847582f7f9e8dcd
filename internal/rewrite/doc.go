// SPDX-License-Identifier: MPL-2.0

// Package rewrite re-roots the imports of relocated Python packages under a
// top namespace.
//
// The rewriter is a statement-level scanner, not a Python parser. It finds
// "import a.b as c, d" and "from a.b import (...)" statements at the start of
// a logical line, skipping strings and comments, and inserts the namespace in
// front of module paths whose first segment names a relocated package. All
// other bytes of the file are left untouched. Source it cannot make sense of
// is passed through unchanged.
package rewrite
