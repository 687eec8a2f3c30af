package completer

import (
	"sort"
	"strings"

	"github.com/sqls-server/sqlsh/dialect"
	"github.com/sqls-server/sqlsh/internal/database"
)

type Category int

const (
	_ Category = iota
	CategoryKeyword
	CategoryFunction
	CategorySchema
	CategoryTable
	CategoryColumn
)

func (c Category) String() string {
	switch c {
	case CategoryKeyword:
		return "Keyword"
	case CategoryFunction:
		return "Function"
	case CategorySchema:
		return "Schema"
	case CategoryTable:
		return "Table"
	case CategoryColumn:
		return "Column"
	default:
		return ""
	}
}

// Candidate is one completion proposal. Value replaces the whole word
// under the cursor and is quoted for the dialect; Display is the bare
// name shown in the menu.
type Candidate struct {
	Display     string
	Value       string
	Category    Category
	Description string
	// Terminal is false when the user is expected to keep typing a
	// separator and a child name after the candidate.
	Terminal bool
}

// staticPool builds the keyword and function candidates of a dialect.
// Every name is offered in upper and in lower case.
func staticPool(d *dialect.Dialect) []Candidate {
	seen := map[string]bool{}
	pool := []Candidate{}
	add := func(names []string, category Category) {
		for _, name := range names {
			for _, v := range []string{strings.ToUpper(name), strings.ToLower(name)} {
				if seen[v] {
					continue
				}
				seen[v] = true
				pool = append(pool, Candidate{
					Display:  v,
					Value:    v,
					Category: category,
					Terminal: true,
				})
			}
		}
	}
	add(dialect.StandardKeywords(), CategoryKeyword)
	add(d.Keywords, CategoryKeyword)
	add(dialect.StandardFunctions(), CategoryFunction)
	add(d.Functions, CategoryFunction)
	sort.SliceStable(pool, func(i, j int) bool {
		return pool[i].Value < pool[j].Value
	})
	return pool
}

func (c *Completer) schemaCandidates(snap *database.Snapshot, force bool) []Candidate {
	candidates := []Candidate{}
	for _, schema := range snap.Schemas() {
		candidates = append(candidates, Candidate{
			Display:  schema,
			Value:    c.dialect.Quote(schema, force),
			Category: CategorySchema,
		})
	}
	return candidates
}

func (c *Completer) tableCandidates(prefix, schema string, tables []string, force bool) []Candidate {
	candidates := []Candidate{}
	for _, table := range tables {
		candidates = append(candidates, Candidate{
			Display:     table,
			Value:       prefix + c.dialect.Quote(table, force),
			Category:    CategoryTable,
			Description: schema,
		})
	}
	return candidates
}

func (c *Completer) columnCandidates(prefix, schema, table string, columns []string, force bool) []Candidate {
	candidates := []Candidate{}
	owner := table
	if schema != "" {
		owner = schema + "." + table
	}
	for _, column := range columns {
		candidates = append(candidates, Candidate{
			Display:     column,
			Value:       prefix + c.dialect.Quote(column, force),
			Category:    CategoryColumn,
			Description: owner,
			Terminal:    true,
		})
	}
	return candidates
}

// FilterPrefix keeps the candidates whose value starts with word.
func FilterPrefix(candidates []Candidate, word string) []Candidate {
	res := []Candidate{}
	for _, cand := range candidates {
		if strings.HasPrefix(cand.Value, word) {
			res = append(res, cand)
		}
	}
	return res
}

// FilterFolded is FilterPrefix that also compares unquoted identifiers
// after folding both sides to the dialect's case, so that "t" keeps "T"
// on an upper-folding dialect. Keywords and functions are offered in
// both cases already and only match as typed.
func FilterFolded(d *dialect.Dialect, candidates []Candidate, word string) []Candidate {
	quoted := strings.ContainsRune(word, d.OpenQuote)
	folded := d.Fold(word)
	res := []Candidate{}
	for _, cand := range candidates {
		switch {
		case strings.HasPrefix(cand.Value, word):
		case quoted || !cand.isIdentifier() || strings.ContainsRune(cand.Value, d.OpenQuote):
			continue
		case !strings.HasPrefix(d.Fold(cand.Value), folded):
			continue
		}
		res = append(res, cand)
	}
	return res
}

func (c Candidate) isIdentifier() bool {
	return c.Category == CategorySchema || c.Category == CategoryTable || c.Category == CategoryColumn
}

func dedupe(candidates []Candidate) []Candidate {
	seen := map[string]bool{}
	res := make([]Candidate, 0, len(candidates))
	for _, cand := range candidates {
		if seen[cand.Value] {
			continue
		}
		seen[cand.Value] = true
		res = append(res, cand)
	}
	return res
}
