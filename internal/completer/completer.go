package completer

import (
	"context"
	"strings"

	"github.com/sqls-server/sqlsh/dialect"
	"github.com/sqls-server/sqlsh/internal/database"
	"github.com/sqls-server/sqlsh/parser"
)

// Completer proposes identifiers, keywords and functions for the word
// under the cursor.
type Completer struct {
	dialect *dialect.Dialect
	scanner *parser.Scanner
	cache   *database.SchemaCache
	pool    []Candidate
}

// NewCompleter builds a completer for one connection. cache may be nil,
// in which case only keywords and functions are proposed.
func NewCompleter(d *dialect.Dialect, cache *database.SchemaCache, opts ...parser.Option) *Completer {
	if d == nil {
		d = dialect.Default()
	}
	return &Completer{
		dialect: d,
		scanner: parser.NewScanner(d, opts...),
		cache:   cache,
		pool:    staticPool(d),
	}
}

func (c *Completer) Dialect() *dialect.Dialect {
	return c.dialect
}

// Complete returns the candidates for the word ending at cursor.
func (c *Completer) Complete(buffer string, cursor int) []Candidate {
	_, candidates := c.CompleteContext(context.Background(), buffer, cursor)
	return candidates
}

// CompleteContext is Complete with a context for metadata lookups. It
// also returns the rune offset where the completed word starts; each
// candidate's Value replaces buffer[start:cursor].
func (c *Completer) CompleteContext(ctx context.Context, buffer string, cursor int) (int, []Candidate) {
	runes := []rune(buffer)
	if cursor < 0 {
		cursor = 0
	}
	if cursor > len(runes) {
		cursor = len(runes)
	}
	outcome := c.scanner.Scan(string(runes[:cursor]), cursor, parser.CompletionProbe)
	switch outcome.State {
	case parser.MultilineComment:
		return cursor, nil
	case parser.Quoted:
		if outcome.OpeningQuote != c.dialect.OpenQuote {
			return cursor, nil
		}
	}

	word := outcome.Word()
	candidates := []Candidate{}
	segs := splitPath(c.dialect, word)
	if c.cache != nil && len(segs) <= 3 {
		snap := c.cache.Snapshot(ctx)
		candidates = append(candidates, c.identifierCandidates(ctx, snap, segs)...)
	}
	if outcome.State != parser.Quoted && !strings.HasSuffix(word, string(separator)) {
		candidates = append(candidates, c.pool...)
	}
	return outcome.RawWordStart, dedupe(candidates)
}

func (c *Completer) identifierCandidates(ctx context.Context, snap *database.Snapshot, segs []segment) []Candidate {
	force := anyQuoted(segs)
	switch len(segs) {
	case 1:
		candidates := c.schemaCandidates(snap, force)
		return append(candidates, c.tableCandidates("", "", snap.AllTables(), force)...)
	case 2:
		return c.completeSecond(ctx, snap, segs, force)
	case 3:
		return c.completeThird(ctx, snap, segs, force)
	}
	return nil
}

// completeSecond handles "schema.table" and "table.column".
func (c *Completer) completeSecond(ctx context.Context, snap *database.Snapshot, segs []segment, force bool) []Candidate {
	prefix := pathPrefix(segs[:1])
	candidates := []Candidate{}
	schemas := snap.Schemas()
	if schema, ok := resolve(c.dialect, segs[0], schemas); ok {
		tables, _ := snap.Tables(schema)
		candidates = append(candidates, c.tableCandidates(prefix, schema, tables, force)...)
	}
	for _, schema := range schemas {
		tables, _ := snap.Tables(schema)
		table, ok := resolve(c.dialect, segs[0], tables)
		if !ok {
			continue
		}
		if columns, ok := snap.Columns(ctx, schema, table); ok {
			candidates = append(candidates, c.columnCandidates(prefix, schema, table, columns, force)...)
		}
	}
	if len(candidates) == 0 {
		return c.schemaCandidates(snap, force)
	}
	return candidates
}

// completeThird handles "schema.table.column".
func (c *Completer) completeThird(ctx context.Context, snap *database.Snapshot, segs []segment, force bool) []Candidate {
	schema, ok := resolve(c.dialect, segs[0], snap.Schemas())
	if !ok {
		return c.schemaCandidates(snap, force)
	}
	tables, _ := snap.Tables(schema)
	table, ok := resolve(c.dialect, segs[1], tables)
	if !ok {
		return c.tableCandidates(pathPrefix(segs[:1]), schema, tables, force)
	}
	columns, ok := snap.Columns(ctx, schema, table)
	if !ok {
		return nil
	}
	return c.columnCandidates(pathPrefix(segs[:2]), schema, table, columns, force)
}
