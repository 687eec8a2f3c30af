package dialect

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

var ErrUnsupportedQuote = errors.New("unsupported identifier quote")

var (
	defaultDialect = &Dialect{
		Name:            "Default",
		OpenQuote:       '"',
		CloseQuote:      '"',
		OneLineComments: []string{"--"},
		CaseFold:        Verbatim,
	}

	builtins = []*Dialect{
		{
			Name:            "PostgreSQL",
			Driver:          DatabaseDriverPostgreSQL,
			OpenQuote:       '"',
			CloseQuote:      '"',
			OneLineComments: []string{"--"},
			CaseFold:        Lower,
			Keywords:        postgresqlKeywords,
			Functions:       postgresqlFunctions,
			CodeBlocks:      postgresCodeBlocks(),
		},
		{
			Name:            "Oracle",
			Driver:          DatabaseDriverOracle,
			OpenQuote:       '"',
			CloseQuote:      '"',
			OneLineComments: []string{"--"},
			CaseFold:        Upper,
			Keywords:        oracleKeywords,
			Functions:       oracleFunctions,
			CodeBlocks:      oracleCodeBlocks(),
		},
		{
			Name:            "H2",
			Driver:          DatabaseDriverH2,
			OpenQuote:       '"',
			CloseQuote:      '"',
			OneLineComments: []string{"--", "//"},
			CaseFold:        Upper,
			Keywords:        h2Keywords,
		},
		{
			Name:            "MySQL",
			Driver:          DatabaseDriverMySQL,
			OpenQuote:       '`',
			CloseQuote:      '`',
			OneLineComments: []string{"-- ", "--\t", "--\n", "#"},
			ExtraNameChars:  "#@",
			CaseFold:        Verbatim,
			Keywords:        mysqlKeywords,
			Functions:       mysqlFunctions,
		},
		{
			Name:            "Phoenix",
			OpenQuote:       '"',
			CloseQuote:      '"',
			OneLineComments: []string{"--", "//"},
			CaseFold:        Upper,
		},
		{
			Name:            "Microsoft SQL Server",
			Driver:          DatabaseDriverMssql,
			OpenQuote:       '[',
			CloseQuote:      ']',
			OneLineComments: []string{"--"},
			ExtraNameChars:  "@#$",
			CaseFold:        Verbatim,
			Keywords:        mssqlKeywords,
		},
		{
			Name:            "SQLite",
			Driver:          DatabaseDriverSQLite3,
			OpenQuote:       '"',
			CloseQuote:      '"',
			OneLineComments: []string{"--"},
			CaseFold:        Verbatim,
			Keywords:        sqliteKeywords,
		},
		{
			Name:            "Vertica",
			Driver:          DatabaseDriverVertica,
			OpenQuote:       '"',
			CloseQuote:      '"',
			OneLineComments: []string{"--"},
			CaseFold:        Verbatim,
			Keywords:        verticaKeywords,
		},
		{
			Name:            "ClickHouse",
			Driver:          DatabaseDriverClickhouse,
			OpenQuote:       '"',
			CloseQuote:      '"',
			OneLineComments: []string{"--"},
			CaseFold:        Verbatim,
			Keywords:        clickhouseKeywords,
			Functions:       clickhouseFunctions,
		},
	}
)

// Default returns the permissive dialect used when no product matches.
func Default() *Dialect {
	return defaultDialect
}

// Lookup finds the built-in dialect whose name is a case-insensitive
// prefix of productName, falling back to the default dialect.
func Lookup(productName string) *Dialect {
	lower := strings.ToLower(productName)
	for _, d := range builtins {
		if strings.HasPrefix(lower, strings.ToLower(d.Name)) {
			return d
		}
	}
	return defaultDialect
}

// ForDriver returns the built-in dialect of a configured driver.
func ForDriver(driver DatabaseDriver) *Dialect {
	switch driver {
	case DatabaseDriverMySQL, DatabaseDriverMySQL8, DatabaseDriverMySQL57, DatabaseDriverMySQL56:
		return Lookup("MySQL")
	}
	for _, d := range builtins {
		if d.Driver != "" && d.Driver == driver {
			return d
		}
	}
	return defaultDialect
}

// Names lists the built-in dialect names, default first.
func Names() []string {
	names := []string{defaultDialect.Name}
	for _, d := range builtins {
		names = append(names, d.Name)
	}
	return names
}

// Metadata is what a live connection reports about its lexical rules.
type Metadata struct {
	ProductName     string
	IdentifierQuote string
	StoresUpper     bool
	StoresLower     bool
	Keywords        []string
	ExtraNameChars  string
}

// FromMetadata builds the dialect of a connection. The registry entry
// matching the product name supplies everything the metadata leaves
// unset. A quote string longer than one character is not supported:
// the default dialect is returned together with an error wrapping
// ErrUnsupportedQuote, and the caller is expected to warn and carry on.
func FromMetadata(m Metadata) (*Dialect, error) {
	base := Lookup(m.ProductName)
	quote := m.IdentifierQuote
	if utf8.RuneCountInString(quote) > 1 {
		return defaultDialect, fmt.Errorf("identifier quote string is %q; quote strings longer than 1 char are not supported, %w", quote, ErrUnsupportedQuote)
	}

	d := base.clone()
	switch quote {
	case "", " ":
	case "[":
		d.OpenQuote, d.CloseQuote = '[', ']'
	default:
		r, _ := utf8.DecodeRuneInString(quote)
		d.OpenQuote, d.CloseQuote = r, r
	}
	switch {
	case m.StoresUpper:
		d.CaseFold = Upper
	case m.StoresLower:
		d.CaseFold = Lower
	}
	if m.ExtraNameChars != "" {
		d.ExtraNameChars = m.ExtraNameChars
	}
	d.Keywords = append(d.Keywords, m.Keywords...)
	return d, nil
}

var (
	pgBlockStart   = regexp.MustCompile(`^\$[a-zA-Z]*\$$`)
	pgBlockEndTail = regexp.MustCompile(`^\s*;*$`)

	oracleBlockPrologue = regexp.MustCompile(`(?i)^declare$`)
	oracleBlockStart    = regexp.MustCompile(`(?i)^begin$`)
	oracleBlockEnd      = regexp.MustCompile(`(?i)^end\s*;$`)
)

// postgresCodeBlocks matches dollar quoted bodies: $tag$ ... $tag$.
func postgresCodeBlocks() *CodeBlocks {
	return &CodeBlocks{
		IsStart: pgBlockStart.MatchString,
		IsEnd: func(open, _, word string) bool {
			return word == open ||
				strings.HasPrefix(word, open) && pgBlockEndTail.MatchString(word[len(open):])
		},
	}
}

// oracleCodeBlocks matches [declare ...] begin ... end; bodies.
func oracleCodeBlocks() *CodeBlocks {
	return &CodeBlocks{
		IsPrologue: oracleBlockPrologue.MatchString,
		IsStart:    oracleBlockStart.MatchString,
		IsEnd: func(_, prev, word string) bool {
			if oracleBlockEnd.MatchString(word) {
				return true
			}
			return strings.EqualFold(prev, "end") && strings.HasPrefix(word, ";")
		},
		Nested: true,
	}
}
