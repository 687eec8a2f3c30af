package completer

import (
	"strings"

	"github.com/sqls-server/sqlsh/dialect"
)

const separator = '.'

// segment is one dot separated part of an identifier path.
type segment struct {
	// raw is the text as typed, quotes included.
	raw    string
	quoted bool
	// name is the identifier with quotes removed.
	name string
}

// splitPath breaks word into its dotted segments. Dots inside quoted
// identifiers do not separate. A quote left open at the end is closed
// before the last segment is unquoted.
func splitPath(d *dialect.Dialect, word string) []segment {
	var (
		segs    []segment
		cur     []rune
		inQuote bool
	)
	runes := []rune(word)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case inQuote && r == d.CloseQuote:
			if i+1 < len(runes) && runes[i+1] == d.CloseQuote {
				cur = append(cur, r, r)
				i++
				continue
			}
			inQuote = false
			cur = append(cur, r)
		case inQuote:
			cur = append(cur, r)
		case r == d.OpenQuote:
			inQuote = true
			cur = append(cur, r)
		case r == separator:
			segs = append(segs, newSegment(d, string(cur), false))
			cur = cur[:0]
		default:
			cur = append(cur, r)
		}
	}
	return append(segs, newSegment(d, string(cur), inQuote))
}

func newSegment(d *dialect.Dialect, raw string, unbalanced bool) segment {
	closed := raw
	if unbalanced {
		closed += string(d.CloseQuote)
	}
	name, quoted := d.Unquote(closed)
	return segment{raw: raw, quoted: quoted, name: name}
}

// resolve finds the stored name seg refers to. Quoted segments match
// exactly; bare ones are folded the way the database stores them, and a
// verbatim dialect compares case-insensitively after an exact miss.
func resolve(d *dialect.Dialect, seg segment, names []string) (string, bool) {
	want := seg.name
	if !seg.quoted {
		want = d.Fold(seg.name)
	}
	for _, name := range names {
		if name == want {
			return name, true
		}
	}
	if seg.quoted || d.CaseFold != dialect.Verbatim {
		return "", false
	}
	for _, name := range names {
		if strings.EqualFold(name, want) {
			return name, true
		}
	}
	return "", false
}

// pathPrefix joins the raw text of segs followed by a separator.
func pathPrefix(segs []segment) string {
	var b strings.Builder
	for _, s := range segs {
		b.WriteString(s.raw)
		b.WriteRune(separator)
	}
	return b.String()
}

func anyQuoted(segs []segment) bool {
	for _, s := range segs {
		if s.quoted {
			return true
		}
	}
	return false
}
