// SPDX-License-Identifier: MPL-2.0

package staging

import (
	"strings"
)

// TopNamespace is a normalized namespace label such as "lib" or "acme/libs".
// The zero value means no namespace was requested.
type TopNamespace string

// NormalizeTopNamespace cleans a user-supplied namespace. Every character that
// is not an ASCII letter, an underscore, or a slash is dropped, runs of slashes
// collapse to one, and leading/trailing slashes are stripped. It never fails:
// malformed input degrades to a valid, possibly empty, namespace. Applying it
// twice gives the same result as applying it once.
//
// Collapsing slash runs is deliberate: it keeps Dotted free of empty segments
// ("a//b" becomes "a/b" and imports "a.b.<pkg>", never "a..b.<pkg>").
func NormalizeTopNamespace(raw string) TopNamespace {
	if raw == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '_':
			b.WriteRune(r)
		case r == '/':
			s := b.String()
			if len(s) > 0 && s[len(s)-1] != '/' {
				b.WriteRune(r)
			}
		}
	}

	return TopNamespace(strings.Trim(b.String(), "/"))
}

// String returns the namespace as written on disk (slash-separated).
func (ns TopNamespace) String() string { return string(ns) }

// IsZero reports whether no namespace is set.
func (ns TopNamespace) IsZero() bool { return ns == "" }

// Dotted returns the namespace as a Python module prefix ("acme/libs" becomes
// "acme.libs").
func (ns TopNamespace) Dotted() string {
	return strings.ReplaceAll(string(ns), "/", ".")
}

// Join returns the slash-separated include path of name under the namespace,
// or name itself when no namespace is set.
func (ns TopNamespace) Join(name string) string {
	if ns.IsZero() {
		return name
	}
	return string(ns) + "/" + name
}
