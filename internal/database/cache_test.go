package database

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

type fakeProvider struct {
	schemaTables  map[string][]string
	columns       map[string][]string
	listErr       error
	columnErr     error
	listCalls     int
	columnCalls   int
	columnQueried []string
}

func (p *fakeProvider) ListSchemasAndTables(ctx context.Context) (map[string][]string, error) {
	p.listCalls++
	if p.listErr != nil {
		return nil, p.listErr
	}
	return p.schemaTables, nil
}

func (p *fakeProvider) ListColumns(ctx context.Context, schema, table string) ([]string, error) {
	p.columnCalls++
	p.columnQueried = append(p.columnQueried, schema+"."+table)
	if p.columnErr != nil {
		return nil, p.columnErr
	}
	return p.columns[schema+"."+table], nil
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		schemaTables: map[string][]string{
			"S":      {"T", "U"},
			"public": {"users", "orders"},
		},
		columns: map[string][]string{
			"S.T":          {"A", "B"},
			"public.users": {"id", "name"},
		},
	}
}

func TestSchemaCache(t *testing.T) {
	ctx := context.Background()
	p := newFakeProvider()
	c := NewSchemaCache(p)

	if diff := cmp.Diff([]string{"S", "public"}, c.Schemas(ctx)); diff != "" {
		t.Errorf("unmatch (- want, + got):\n%s", diff)
	}
	tables, ok := c.Tables(ctx, "public")
	if !ok {
		t.Fatal("public not found")
	}
	if diff := cmp.Diff([]string{"orders", "users"}, tables); diff != "" {
		t.Errorf("unmatch (- want, + got):\n%s", diff)
	}
	if _, ok := c.Tables(ctx, "PUBLIC"); ok {
		t.Error("schema lookup must be exact")
	}
	if diff := cmp.Diff([]string{"T", "U", "orders", "users"}, c.AllTables(ctx)); diff != "" {
		t.Errorf("unmatch (- want, + got):\n%s", diff)
	}
	if p.listCalls != 1 {
		t.Errorf("want 1 list call, got %d", p.listCalls)
	}
	if p.columnCalls != 0 {
		t.Errorf("columns must load lazily, got %d calls", p.columnCalls)
	}

	for i := 0; i < 2; i++ {
		cols, ok := c.Columns(ctx, "S", "T")
		if !ok {
			t.Fatal("S.T not found")
		}
		if diff := cmp.Diff([]string{"A", "B"}, cols); diff != "" {
			t.Errorf("unmatch (- want, + got):\n%s", diff)
		}
	}
	if p.columnCalls != 1 {
		t.Errorf("want 1 column call, got %d", p.columnCalls)
	}

	if _, ok := c.Columns(ctx, "S", "missing"); ok {
		t.Error("missing table must not be found")
	}
	if p.columnCalls != 1 {
		t.Errorf("unknown tables must not reach the provider, got %d calls", p.columnCalls)
	}

	c.Clear()
	c.Schemas(ctx)
	c.Columns(ctx, "S", "T")
	if p.listCalls != 2 || p.columnCalls != 2 {
		t.Errorf("want reload after Clear, got %d list and %d column calls", p.listCalls, p.columnCalls)
	}
}

func TestSchemaCache_ProviderErrors(t *testing.T) {
	ctx := context.Background()
	p := newFakeProvider()
	p.listErr = errors.New("connection reset")
	c := NewSchemaCache(p)

	if got := c.Schemas(ctx); len(got) != 0 {
		t.Errorf("want no schemas, got %v", got)
	}
	p.listErr = nil
	if got := c.Schemas(ctx); len(got) != 2 {
		t.Errorf("want a retry after a failed load, got %v", got)
	}

	p.columnErr = errors.New("permission denied")
	if cols, ok := c.Columns(ctx, "S", "T"); ok || cols != nil {
		t.Errorf("want not found, got %v, %v", cols, ok)
	}
	p.columnErr = nil
	if cols, ok := c.Columns(ctx, "S", "T"); !ok || len(cols) != 2 {
		t.Errorf("want a retry after a failed column load, got %v, %v", cols, ok)
	}
}

func TestSchemaCache_Snapshot(t *testing.T) {
	ctx := context.Background()

	failing := &fakeProvider{listErr: errors.New("connection refused")}
	snap := NewSchemaCache(failing).Snapshot(ctx)
	if len(snap.Schemas()) != 0 || len(snap.AllTables()) != 0 {
		t.Errorf("want empty snapshot, got %v %v", snap.Schemas(), snap.AllTables())
	}
	if _, ok := snap.Tables("S"); ok {
		t.Error("want no tables in an empty snapshot")
	}
	if _, ok := snap.Columns(ctx, "S", "T"); ok {
		t.Error("want no columns in an empty snapshot")
	}
	if failing.listCalls != 1 {
		t.Errorf("want 1 list call, got %d", failing.listCalls)
	}

	p := newFakeProvider()
	snap = NewSchemaCache(p).Snapshot(ctx)
	if diff := cmp.Diff([]string{"S", "public"}, snap.Schemas()); diff != "" {
		t.Errorf("unmatch (- want, + got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"T", "U", "orders", "users"}, snap.AllTables()); diff != "" {
		t.Errorf("unmatch (- want, + got):\n%s", diff)
	}
	tables, ok := snap.Tables("public")
	if !ok {
		t.Fatal("want tables of public")
	}
	if diff := cmp.Diff([]string{"orders", "users"}, tables); diff != "" {
		t.Errorf("unmatch (- want, + got):\n%s", diff)
	}
	columns, ok := snap.Columns(ctx, "S", "T")
	if !ok {
		t.Fatal("want columns of S.T")
	}
	if diff := cmp.Diff([]string{"A", "B"}, columns); diff != "" {
		t.Errorf("unmatch (- want, + got):\n%s", diff)
	}
	snap.Columns(ctx, "S", "T")
	if p.listCalls != 1 || p.columnCalls != 1 {
		t.Errorf("want 1 list call and 1 column call, got %d and %d", p.listCalls, p.columnCalls)
	}
}

func TestSchemaCache_Reset(t *testing.T) {
	ctx := context.Background()
	c := NewSchemaCache(nil)
	if got := c.Schemas(ctx); len(got) != 0 {
		t.Errorf("want empty cache without provider, got %v", got)
	}
	if _, ok := c.Columns(ctx, "S", "T"); ok {
		t.Error("want no columns without provider")
	}

	c.Reset(newFakeProvider())
	if diff := cmp.Diff([]string{"S", "public"}, c.Schemas(ctx)); diff != "" {
		t.Errorf("unmatch (- want, + got):\n%s", diff)
	}
}

func TestSchemaCache_MockRepository(t *testing.T) {
	ctx := context.Background()
	c := NewSchemaCache(NewMockDBRepository(nil))
	cols, ok := c.Columns(ctx, "world", "city")
	if !ok {
		t.Fatal("world.city not found")
	}
	want := []string{"ID", "Name", "CountryCode", "District", "Population"}
	if diff := cmp.Diff(want, cols); diff != "" {
		t.Errorf("unmatch (- want, + got):\n%s", diff)
	}
}
