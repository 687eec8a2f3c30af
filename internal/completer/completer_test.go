package completer

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/k0kubun/pp"
	"github.com/sqls-server/sqlsh/dialect"
	"github.com/sqls-server/sqlsh/internal/database"
)

type stubProvider struct {
	tables  map[string][]string
	columns map[string][]string
	err     error
	listed  int
}

func (p *stubProvider) ListSchemasAndTables(ctx context.Context) (map[string][]string, error) {
	p.listed++
	if p.err != nil {
		return nil, p.err
	}
	return p.tables, nil
}

func (p *stubProvider) ListColumns(ctx context.Context, schema, table string) ([]string, error) {
	if p.err != nil {
		return nil, p.err
	}
	return p.columns[schema+"."+table], nil
}

func newTestCache() *database.SchemaCache {
	return database.NewSchemaCache(&stubProvider{
		tables: map[string][]string{
			"S":      {"T", "U"},
			"public": {"users"},
		},
		columns: map[string][]string{
			"S.T":          {"A", "B"},
			"S.U":          {"C"},
			"public.users": {"id", "name"},
		},
	})
}

func values(candidates []Candidate) []string {
	res := []string{}
	for _, c := range candidates {
		res = append(res, c.Value)
	}
	return res
}

func TestComplete_Identifiers(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "schema table dot offers columns",
			input: "select S.T.",
			want:  []string{"S.T.A", "S.T.B"},
		},
		{
			name:  "quoted path keeps quoting",
			input: `select "S"."T".`,
			want:  []string{`"S"."T"."A"`, `"S"."T"."B"`},
		},
		{
			name:  "partially quoted path forces quoting",
			input: `select S."T".`,
			want:  []string{`S."T"."A"`, `S."T"."B"`},
		},
		{
			name:  "schema dot offers tables",
			input: "select * from S.",
			want:  []string{"S.T", "S.U"},
		},
		{
			name:  "table dot offers columns without schema",
			input: "select users.",
			want:  []string{"users.id", "users.name"},
		},
		{
			name:  "verbatim dialect ignores case after exact miss",
			input: "select s.t.",
			want:  []string{"s.t.A", "s.t.B"},
		},
		{
			name:  "unknown first segment offers schemas",
			input: "select X.",
			want:  []string{"S", "public"},
		},
		{
			name:  "unknown table offers tables of schema",
			input: "select S.X.",
			want:  []string{"S.T", "S.U"},
		},
		{
			name:  "unknown schema of three segments offers schemas",
			input: "select X.T.",
			want:  []string{"S", "public"},
		},
		{
			name:  "open quoted segment",
			input: `select "S"."`,
			want:  []string{`"S"."T"`, `"S"."U"`},
		},
		{
			name:  "more than three segments",
			input: "select a.b.c.",
			want:  []string{},
		},
		{
			name:  "cursor inside identifier quote offers quoted names only",
			input: `select "pu`,
			want:  []string{`"S"`, `"public"`, `"T"`, `"U"`, `"users"`},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCompleter(dialect.Default(), newTestCache())
			got := c.Complete(tt.input, len([]rune(tt.input)))
			if diff := cmp.Diff(tt.want, values(got)); diff != "" {
				pp.Println(got)
				t.Errorf("unmatch (- want, + got):\n%s", diff)
			}
		})
	}
}

func TestComplete_UpperCaseDialect(t *testing.T) {
	d := dialect.Lookup("Oracle")
	if d.CaseFold != dialect.Upper {
		t.Fatalf("want upper case folding, got %s", d.CaseFold)
	}
	c := NewCompleter(d, newTestCache())

	got := c.Complete("select t.", 9)
	if diff := cmp.Diff([]string{"t.A", "t.B"}, values(got)); diff != "" {
		t.Errorf("unmatch (- want, + got):\n%s", diff)
	}

	got = c.Complete(`select "t".`, 11)
	if diff := cmp.Diff([]string{`"S"`, `"public"`}, values(got)); diff != "" {
		t.Errorf("unmatch (- want, + got):\n%s", diff)
	}
}

func TestComplete_LowerCaseDialectQuotesMixedCase(t *testing.T) {
	cache := database.NewSchemaCache(&stubProvider{
		tables: map[string][]string{"public": {"Users", "orders"}},
	})
	c := NewCompleter(dialect.Lookup("PostgreSQL"), cache)
	got := c.Complete("select * from public.", 21)
	if diff := cmp.Diff([]string{`public."Users"`, "public.orders"}, values(got)); diff != "" {
		t.Errorf("unmatch (- want, + got):\n%s", diff)
	}
}

func TestComplete_BracketQuotes(t *testing.T) {
	cache := database.NewSchemaCache(&stubProvider{
		tables:  map[string][]string{"dbo": {"order items"}},
		columns: map[string][]string{"dbo.order items": {"id"}},
	})
	c := NewCompleter(dialect.ForDriver(dialect.DatabaseDriverMssql), cache)

	input := "select dbo."
	got := c.Complete(input, len(input))
	if diff := cmp.Diff([]string{"dbo.[order items]"}, values(got)); diff != "" {
		t.Errorf("unmatch (- want, + got):\n%s", diff)
	}

	input = "select [dbo].[order items]."
	got = c.Complete(input, len(input))
	if diff := cmp.Diff([]string{"[dbo].[order items].[id]"}, values(got)); diff != "" {
		t.Errorf("unmatch (- want, + got):\n%s", diff)
	}
}

func TestComplete_NoCandidates(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "inside block comment", input: "select /* S."},
		{name: "inside string literal", input: "select 'S."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCompleter(dialect.Default(), newTestCache())
			if got := c.Complete(tt.input, len(tt.input)); len(got) != 0 {
				t.Errorf("want no candidates, got %v", values(got))
			}
		})
	}
}

func TestComplete_StaticPool(t *testing.T) {
	d := dialect.Default()
	pool := staticPool(d)

	c := NewCompleter(d, newTestCache())
	got := c.Complete("select ", 7)
	want := []string{"S", "public", "T", "U", "users"}
	if diff := cmp.Diff(want, values(got[:len(want)])); diff != "" {
		t.Errorf("unmatch (- want, + got):\n%s", diff)
	}
	if diff := cmp.Diff(values(pool), values(got[len(want):])); diff != "" {
		t.Errorf("unmatch (- want, + got):\n%s", diff)
	}

	got = c.Complete("select a.b.c.d", 14)
	if diff := cmp.Diff(values(pool), values(got)); diff != "" {
		t.Errorf("unmatch (- want, + got):\n%s", diff)
	}

	nocache := NewCompleter(d, nil)
	got = nocache.Complete("sel", 3)
	if diff := cmp.Diff(values(pool), values(got)); diff != "" {
		t.Errorf("unmatch (- want, + got):\n%s", diff)
	}
}

func TestComplete_MetadataFailure(t *testing.T) {
	cache := database.NewSchemaCache(&stubProvider{err: errors.New("connection refused")})
	d := dialect.Default()
	c := NewCompleter(d, cache)

	got := c.Complete("select ", 7)
	if diff := cmp.Diff(values(staticPool(d)), values(got)); diff != "" {
		t.Errorf("unmatch (- want, + got):\n%s", diff)
	}
	if got := c.Complete("select S.T.", 11); len(got) != 0 {
		t.Errorf("want no candidates, got %v", values(got))
	}
}

func TestComplete_ListsMetadataOncePerRequest(t *testing.T) {
	tests := []struct {
		name     string
		provider *stubProvider
	}{
		{name: "failing provider", provider: &stubProvider{err: errors.New("connection refused")}},
		{name: "empty provider", provider: &stubProvider{tables: map[string][]string{}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCompleter(dialect.Default(), database.NewSchemaCache(tt.provider))
			for _, input := range []string{"sel", "a.b", "a.b.c", "select S.T."} {
				before := tt.provider.listed
				c.Complete(input, len(input))
				if got := tt.provider.listed - before; got > 1 {
					t.Errorf("%q: want at most 1 metadata listing, got %d", input, got)
				}
			}
		})
	}
}

func TestComplete_LoadedCacheIsNotListedAgain(t *testing.T) {
	provider := &stubProvider{
		tables:  map[string][]string{"S": {"T"}},
		columns: map[string][]string{"S.T": {"A"}},
	}
	c := NewCompleter(dialect.Default(), database.NewSchemaCache(provider))
	for _, input := range []string{"sel", "S.", "S.T.", "T."} {
		c.Complete(input, len(input))
	}
	if provider.listed != 1 {
		t.Errorf("want 1 metadata listing, got %d", provider.listed)
	}
}

func TestCompleteContext_Start(t *testing.T) {
	c := NewCompleter(dialect.Default(), newTestCache())
	tests := []struct {
		input  string
		cursor int
		start  int
	}{
		{input: "select S.T.", cursor: 11, start: 7},
		{input: "select S.T. from x", cursor: 11, start: 7},
		{input: "select ", cursor: 7, start: 7},
		{input: "select count(S.", cursor: 15, start: 13},
		{input: "", cursor: 0, start: 0},
	}
	for _, tt := range tests {
		start, _ := c.CompleteContext(context.Background(), tt.input, tt.cursor)
		if start != tt.start {
			t.Errorf("%q: want start %d, got %d", tt.input, tt.start, start)
		}
	}
}

func TestStaticPool(t *testing.T) {
	pool := staticPool(dialect.Lookup("PostgreSQL"))
	seen := map[string]bool{}
	for i, cand := range pool {
		if seen[cand.Value] {
			t.Errorf("duplicate candidate %s", cand.Value)
		}
		seen[cand.Value] = true
		if i > 0 && pool[i-1].Value > cand.Value {
			t.Errorf("pool is not sorted at %s", cand.Value)
		}
		if !cand.Terminal {
			t.Errorf("%s must be terminal", cand.Value)
		}
	}
	for _, v := range []string{"SELECT", "select", "ILIKE", "ilike", "COUNT", "count"} {
		if !seen[v] {
			t.Errorf("%s is missing from the pool", v)
		}
	}
}

func TestFilterPrefix(t *testing.T) {
	c := NewCompleter(dialect.Default(), newTestCache())
	got := FilterPrefix(c.Complete("select S.", 9), "S.T")
	want := []Candidate{
		{Display: "T", Value: "S.T", Category: CategoryTable, Description: "S"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("unmatch (- want, + got):\n%s", diff)
	}
}

func TestFilterFolded(t *testing.T) {
	oracle := dialect.Lookup("Oracle")
	c := NewCompleter(oracle, newTestCache())

	tests := []struct {
		name  string
		input string
		typed string
		want  []string
	}{
		{
			name:  "unquoted table folds to upper case",
			input: "select * from t",
			typed: "t",
			want:  []string{"T"},
		},
		{
			name:  "unquoted path folds to upper case",
			input: "select s.",
			typed: "s.t",
			want:  []string{"s.T"},
		},
		{
			name:  "quoted word matches as typed",
			input: `select "S".`,
			typed: `"S"."t`,
			want:  []string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := []Candidate{}
			for _, cand := range FilterFolded(oracle, c.Complete(tt.input, len(tt.input)), tt.typed) {
				if cand.isIdentifier() {
					got = append(got, cand)
				}
			}
			if diff := cmp.Diff(tt.want, values(got)); diff != "" {
				t.Errorf("unmatch (- want, + got):\n%s", diff)
			}
		})
	}

	keywords := map[string]bool{}
	for _, cand := range FilterFolded(oracle, c.Complete("sel", 3), "sel") {
		keywords[cand.Value] = true
	}
	if !keywords["select"] || keywords["SELECT"] {
		t.Errorf("want keywords matched as typed, got %v", keywords)
	}

	verbatim := dialect.Default()
	got := FilterFolded(verbatim, NewCompleter(verbatim, newTestCache()).Complete("select s.", 9), "s.t")
	if len(got) != 0 {
		t.Errorf("want no candidates on a case sensitive dialect, got %v", values(got))
	}
}

func TestSplitPath(t *testing.T) {
	d := dialect.Default()
	tests := []struct {
		word string
		want []segment
	}{
		{
			word: "",
			want: []segment{{raw: "", name: ""}},
		},
		{
			word: "S.T.",
			want: []segment{{raw: "S", name: "S"}, {raw: "T", name: "T"}, {raw: "", name: ""}},
		},
		{
			word: `"a.b".c`,
			want: []segment{{raw: `"a.b"`, quoted: true, name: "a.b"}, {raw: "c", name: "c"}},
		},
		{
			word: `"x""y".`,
			want: []segment{{raw: `"x""y"`, quoted: true, name: `x"y`}, {raw: "", name: ""}},
		},
		{
			word: `"S"."T`,
			want: []segment{{raw: `"S"`, quoted: true, name: "S"}, {raw: `"T`, quoted: true, name: "T"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.word, func(t *testing.T) {
			got := splitPath(d, tt.word)
			if diff := cmp.Diff(tt.want, got, cmp.AllowUnexported(segment{})); diff != "" {
				t.Errorf("unmatch (- want, + got):\n%s", diff)
			}
		})
	}
}
