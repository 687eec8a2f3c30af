package dialect

import "strings"

type CaseFold int

const (
	Verbatim CaseFold = iota
	Upper
	Lower
)

func (c CaseFold) String() string {
	switch c {
	case Upper:
		return "upper"
	case Lower:
		return "lower"
	default:
		return "verbatim"
	}
}

// CodeBlocks describes procedural blocks inside which a statement
// terminator does not end the statement.
type CodeBlocks struct {
	// IsPrologue matches a word that opens a block which is later
	// continued by a word matching IsStart (oracle "declare ... begin").
	IsPrologue func(word string) bool
	IsStart    func(word string) bool
	IsEnd      func(open, prev, word string) bool
	// Nested allows IsStart words to open inner blocks.
	Nested bool
}

// Dialect is the lexical description of one database product.
// A Dialect is never modified after construction.
type Dialect struct {
	Name            string
	Driver          DatabaseDriver
	OpenQuote       rune
	CloseQuote      rune
	OneLineComments []string
	ExtraNameChars  string
	CaseFold        CaseFold
	Keywords        []string
	Functions       []string
	CodeBlocks      *CodeBlocks
}

// IsIdentifierQuote reports whether r opens a quoted identifier.
func (d *Dialect) IsIdentifierQuote(r rune) bool {
	return r == d.OpenQuote
}

// IsOneLineComment reports whether s starts with one of the dialect's
// one-line comment markers.
func (d *Dialect) IsOneLineComment(s string) bool {
	return hasAnyPrefix(s, d.OneLineComments)
}

// Fold applies the dialect's case folding to an unquoted identifier.
func (d *Dialect) Fold(name string) string {
	switch d.CaseFold {
	case Upper:
		return strings.ToUpper(name)
	case Lower:
		return strings.ToLower(name)
	default:
		return name
	}
}

// ContainsKeyword reports whether word is a keyword of the dialect or
// of standard SQL.
func (d *Dialect) ContainsKeyword(word string) bool {
	upper := strings.ToUpper(word)
	if MatchKeyword(upper) {
		return true
	}
	for _, k := range d.Keywords {
		if strings.ToUpper(k) == upper {
			return true
		}
	}
	return false
}

func (d *Dialect) clone() *Dialect {
	c := *d
	c.OneLineComments = append([]string(nil), d.OneLineComments...)
	c.Keywords = append([]string(nil), d.Keywords...)
	c.Functions = append([]string(nil), d.Functions...)
	return &c
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if p != "" && strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
