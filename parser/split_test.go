package parser

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/sqls-server/sqlsh/dialect"
)

func TestSplit(t *testing.T) {
	tests := []struct {
		name    string
		dialect *dialect.Dialect
		input   string
		want    []string
	}{
		{
			name:  "empty",
			input: "",
			want:  nil,
		},
		{
			name:  "two statements",
			input: "select 1; select 2;",
			want:  []string{"select 1", "select 2"},
		},
		{
			name:  "terminator inside literal",
			input: "select ';'; select 2",
			want:  []string{"select ';'", "select 2"},
		},
		{
			name:  "terminator inside comment",
			input: "select 1 /* ; */ from t; -- ;\nselect 2;",
			want:  []string{"select 1 /* ; */ from t", "-- ;\nselect 2"},
		},
		{
			name:  "trailing comment",
			input: "select 1; -- trailing",
			want:  []string{"select 1"},
		},
		{
			name:  "empty statements",
			input: "select 1;;",
			want:  []string{"select 1"},
		},
		{
			name:    "postgres dollar block",
			dialect: dialect.Lookup("PostgreSQL"),
			input:   "do $$ begin null; end $$; select 1;",
			want:    []string{"do $$ begin null; end $$;", "select 1"},
		},
		{
			name:    "oracle block",
			dialect: dialect.Lookup("Oracle"),
			input:   "begin null; end;\nselect 1 from dual;",
			want:    []string{"begin null; end;", "select 1 from dual"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewScanner(tt.dialect).Split(tt.input)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("unmatch (- want, + got):\n%s", diff)
			}
		})
	}
}

func TestSplit_RecoversFromFault(t *testing.T) {
	got := (&Scanner{}).Split(" select 1; select 2 ")
	want := []string{"select 1; select 2"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("unmatch (- want, + got):\n%s", diff)
	}
}
