package dialect

import (
	"strings"
	"unicode"
)

// NeedsQuoting reports whether name can not be written as a bare
// identifier. The check is case dependent: on an upper-folding dialect a
// lower-case letter needs quoting and vice versa.
func (d *Dialect) NeedsQuoting(name string) bool {
	if name == "" {
		return true
	}
	for i, r := range name {
		if i == 0 && unicode.IsDigit(r) {
			return true
		}
		switch {
		case r == '_', unicode.IsDigit(r):
		case unicode.IsLetter(r):
			if d.CaseFold == Upper && unicode.IsLower(r) {
				return true
			}
			if d.CaseFold == Lower && unicode.IsUpper(r) {
				return true
			}
		case strings.ContainsRune(d.ExtraNameChars, r):
		default:
			return true
		}
	}
	return false
}

// Quote returns name as an identifier of the dialect. The name is
// wrapped in the dialect's quotes when force is set or when it can not
// be written bare; embedded close quotes are doubled.
func (d *Dialect) Quote(name string, force bool) string {
	if !force && !d.NeedsQuoting(name) {
		return name
	}
	closeQuote := string(d.CloseQuote)
	var b strings.Builder
	b.WriteRune(d.OpenQuote)
	b.WriteString(strings.ReplaceAll(name, closeQuote, closeQuote+closeQuote))
	b.WriteRune(d.CloseQuote)
	return b.String()
}

// Unquote strips the dialect's quotes from s and collapses doubled close
// quotes. A missing closing quote is tolerated. The second result
// reports whether s was quoted at all.
func (d *Dialect) Unquote(s string) (string, bool) {
	open := string(d.OpenQuote)
	if !strings.HasPrefix(s, open) {
		return s, false
	}
	inner := s[len(open):]
	closeQuote := string(d.CloseQuote)
	if strings.HasSuffix(inner, closeQuote) && !endsWithEscapedQuote(inner, closeQuote) {
		inner = inner[:len(inner)-len(closeQuote)]
	}
	return strings.ReplaceAll(inner, closeQuote+closeQuote, closeQuote), true
}

// endsWithEscapedQuote reports whether the trailing close quotes of s
// are all doubled, i.e. none of them terminates the identifier.
func endsWithEscapedQuote(s, closeQuote string) bool {
	n := 0
	for strings.HasSuffix(s, closeQuote) {
		s = s[:len(s)-len(closeQuote)]
		n++
	}
	return n%2 == 0
}
