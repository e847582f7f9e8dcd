// SPDX-License-Identifier: MPL-2.0

package rewrite

import (
	"bytes"

	"github.com/monodeploy/monodeploy/internal/staging"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// scanner walks Python source and records the offsets of module paths that
// must be prefixed.
type scanner struct {
	src      []byte
	pos      int
	siblings map[string]struct{}
	inserts  []int
}

// RewriteSource prefixes every absolute import of a sibling package with the
// dotted namespace and reports whether anything changed:
//
//	import shared.x           ->  import lib.shared.x
//	import shared.x as sx     ->  import lib.shared.x as sx
//	from shared import util   ->  from lib.shared import util
//
// Relative imports, imports of other packages, and every byte outside the
// rewritten module paths are preserved. When nothing changes, src itself is
// returned.
func RewriteSource(src []byte, siblings []string, ns staging.TopNamespace) ([]byte, bool) {
	if ns.IsZero() || len(siblings) == 0 {
		return src, false
	}

	s := &scanner{src: src, siblings: make(map[string]struct{}, len(siblings))}
	for _, name := range siblings {
		s.siblings[name] = struct{}{}
	}
	if bytes.HasPrefix(src, utf8BOM) {
		s.pos = len(utf8BOM)
	}
	s.scan()
	if len(s.inserts) == 0 {
		return src, false
	}

	prefix := ns.Dotted() + "."
	out := make([]byte, 0, len(src)+len(s.inserts)*len(prefix))
	last := 0
	for _, at := range s.inserts {
		out = append(out, src[last:at]...)
		out = append(out, prefix...)
		last = at
	}
	out = append(out, src[last:]...)
	return out, true
}

func (s *scanner) scan() {
	stmtStart := true
	depth := 0

	for s.pos < len(s.src) {
		c := s.src[s.pos]
		switch {
		case c == '#':
			s.skipComment()
		case c == '\'' || c == '"':
			s.skipString()
			stmtStart = false
		case c == '\\':
			// A line continuation keeps the current statement open.
			if !s.skipContinuation() {
				s.pos++
			}
		case c == '\n':
			s.pos++
			if depth == 0 {
				stmtStart = true
			}
		case c == ' ' || c == '\t' || c == '\r' || c == '\f':
			s.pos++
		case c == '(' || c == '[' || c == '{':
			depth++
			s.pos++
			stmtStart = false
		case c == ')' || c == ']' || c == '}':
			if depth > 0 {
				depth--
			}
			s.pos++
			stmtStart = false
		case (c == ';' || c == ':') && depth == 0:
			s.pos++
			stmtStart = true
		case isIdentStart(c):
			word := s.identifier()
			if stmtStart && depth == 0 {
				switch word {
				case "import":
					s.importNames()
				case "from":
					s.fromModule()
				}
			}
			stmtStart = false
		default:
			s.pos++
			stmtStart = false
		}
	}
}

// importNames handles "a.b as c, d" after the import keyword.
func (s *scanner) importNames() {
	for {
		s.skipInlineSpace()
		if !s.dottedName() {
			return
		}
		s.skipInlineSpace()
		if s.keyword("as") {
			s.skipInlineSpace()
			if s.pos < len(s.src) && isIdentStart(s.src[s.pos]) {
				s.identifier()
			}
			s.skipInlineSpace()
		}
		if s.pos >= len(s.src) || s.src[s.pos] != ',' {
			return
		}
		s.pos++
	}
}

// fromModule handles the module path after the from keyword. The imported
// names are left to the main loop.
func (s *scanner) fromModule() {
	s.skipInlineSpace()
	if s.pos < len(s.src) && s.src[s.pos] == '.' {
		return
	}
	s.dottedName()
}

// dottedName consumes "a.b.c" and records an insertion point when "a" is a
// sibling package.
func (s *scanner) dottedName() bool {
	if s.pos >= len(s.src) || !isIdentStart(s.src[s.pos]) {
		return false
	}
	start := s.pos
	if _, ok := s.siblings[s.identifier()]; ok {
		s.inserts = append(s.inserts, start)
	}
	for {
		save := s.pos
		s.skipInlineSpace()
		if s.pos >= len(s.src) || s.src[s.pos] != '.' {
			s.pos = save
			return true
		}
		s.pos++
		s.skipInlineSpace()
		if s.pos >= len(s.src) || !isIdentStart(s.src[s.pos]) {
			return true
		}
		s.identifier()
	}
}

func (s *scanner) identifier() string {
	start := s.pos
	for s.pos < len(s.src) && isIdentPart(s.src[s.pos]) {
		s.pos++
	}
	return string(s.src[start:s.pos])
}

// keyword consumes word when it is the next whole identifier.
func (s *scanner) keyword(word string) bool {
	end := s.pos + len(word)
	if end > len(s.src) || string(s.src[s.pos:end]) != word {
		return false
	}
	if end < len(s.src) && isIdentPart(s.src[end]) {
		return false
	}
	s.pos = end
	return true
}

func (s *scanner) skipInlineSpace() {
	for s.pos < len(s.src) {
		switch s.src[s.pos] {
		case ' ', '\t', '\f':
			s.pos++
		case '\\':
			if !s.skipContinuation() {
				return
			}
		default:
			return
		}
	}
}

// skipContinuation consumes a backslash followed by a line break.
func (s *scanner) skipContinuation() bool {
	rest := s.src[s.pos:]
	switch {
	case bytes.HasPrefix(rest, []byte("\\\n")):
		s.pos += 2
	case bytes.HasPrefix(rest, []byte("\\\r\n")):
		s.pos += 3
	default:
		return false
	}
	return true
}

func (s *scanner) skipComment() {
	for s.pos < len(s.src) && s.src[s.pos] != '\n' {
		s.pos++
	}
}

// skipString consumes a single- or triple-quoted string literal. An
// unterminated single-quoted string ends at the line break.
func (s *scanner) skipString() {
	q := s.src[s.pos]
	if s.pos+2 < len(s.src) && s.src[s.pos+1] == q && s.src[s.pos+2] == q {
		s.pos += 3
		for s.pos < len(s.src) {
			switch {
			case s.src[s.pos] == '\\':
				if !s.skipContinuation() {
					s.pos += 2
				}
			case s.pos+2 < len(s.src) && s.src[s.pos] == q && s.src[s.pos+1] == q && s.src[s.pos+2] == q:
				s.pos += 3
				return
			default:
				s.pos++
			}
		}
		s.pos = len(s.src)
		return
	}

	s.pos++
	for s.pos < len(s.src) {
		switch s.src[s.pos] {
		case '\\':
			if !s.skipContinuation() {
				s.pos += 2
			}
		case q:
			s.pos++
			return
		case '\n':
			return
		default:
			s.pos++
		}
	}
	s.pos = len(s.src)
}

func isIdentStart(c byte) bool {
	return c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= 0x80
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || c >= '0' && c <= '9'
}
