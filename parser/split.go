package parser

import (
	"log"
	"strings"
)

// Split cuts a complete buffer into statements at top-level terminators.
// Terminators inside literals, comments and code blocks do not split.
// The terminator is dropped from plain statements and kept on statements
// that carry a code block, since procedural bodies need it.
func (s *Scanner) Split(buffer string) (stmts []string) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("scanner: internal fault, %v; submitting buffer unsplit", r)
			stmts = []string{strings.TrimSpace(buffer)}
		}
	}()
	buf := []rune(buffer)
	st := s.run(buf, len(buf), Interactive)

	from := 0
	for _, t := range st.terms {
		end := t.pos
		if t.block {
			end++
		}
		if stmt := strings.TrimSpace(string(buf[from:end])); stmt != "" {
			stmts = append(stmts, stmt)
		}
		from = t.pos + 1
	}
	if st.lastCode >= from {
		if stmt := strings.TrimSpace(string(buf[from:])); stmt != "" {
			stmts = append(stmts, stmt)
		}
	}
	return stmts
}
