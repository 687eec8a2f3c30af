package database

import (
	"context"
	"log"
	"sort"
	"sync"
)

// SchemaCache memoizes schema -> table -> columns for one connection.
// Schemas and tables are loaded together on first use; the columns of a
// table are loaded the first time they are asked for. Provider failures
// are logged and read as "not found".
type SchemaCache struct {
	mu       sync.Mutex
	provider MetadataProvider
	loaded   bool
	schemas  map[string]map[string]*tableEntry
}

type tableEntry struct {
	columns []string
	loaded  bool
}

func NewSchemaCache(provider MetadataProvider) *SchemaCache {
	return &SchemaCache{provider: provider}
}

// Reset swaps the provider, as on reconnect, and drops everything
// loaded so far. A nil provider leaves the cache empty.
func (c *SchemaCache) Reset(provider MetadataProvider) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.provider = provider
	c.clear()
}

// Clear drops everything loaded so far; the next lookup reloads.
func (c *SchemaCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clear()
}

func (c *SchemaCache) clear() {
	c.loaded = false
	c.schemas = nil
}

func (c *SchemaCache) load(ctx context.Context) {
	if c.loaded {
		return
	}
	c.schemas = map[string]map[string]*tableEntry{}
	if c.provider == nil {
		return
	}
	schemaTables, err := c.provider.ListSchemasAndTables(ctx)
	if err != nil {
		log.Printf("schema cache: cannot list schemas and tables, %s", err)
		return
	}
	for schema, tables := range schemaTables {
		entries := make(map[string]*tableEntry, len(tables))
		for _, table := range tables {
			entries[table] = &tableEntry{}
		}
		c.schemas[schema] = entries
	}
	c.loaded = true
	log.Printf("schema cache: loaded %d schemas", len(c.schemas))
}

// Snapshot is the schema -> tables view of one load. Lookups through
// it never reach the provider again, except for lazily fetched columns.
type Snapshot struct {
	cache   *SchemaCache
	schemas []string
	tables  map[string][]string
}

// Snapshot loads schemas and tables at most once and copies them out.
// A failed load yields an empty snapshot.
func (c *SchemaCache) Snapshot(ctx context.Context) *Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.load(ctx)
	snap := &Snapshot{
		cache:   c,
		schemas: make([]string, 0, len(c.schemas)),
		tables:  make(map[string][]string, len(c.schemas)),
	}
	for schema, entries := range c.schemas {
		names := make([]string, 0, len(entries))
		for name := range entries {
			names = append(names, name)
		}
		sort.Strings(names)
		snap.schemas = append(snap.schemas, schema)
		snap.tables[schema] = names
	}
	sort.Strings(snap.schemas)
	return snap
}

// Schemas returns the sorted schema names.
func (s *Snapshot) Schemas() []string {
	return append([]string(nil), s.schemas...)
}

// Tables returns the sorted table names of schema. The schema name must
// match exactly.
func (s *Snapshot) Tables(schema string) ([]string, bool) {
	tables, ok := s.tables[schema]
	if !ok {
		return nil, false
	}
	return append([]string(nil), tables...), true
}

// AllTables returns every table name of every schema, deduplicated and
// sorted.
func (s *Snapshot) AllTables() []string {
	seen := map[string]bool{}
	var names []string
	for _, tables := range s.tables {
		for _, name := range tables {
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}
	sort.Strings(names)
	return names
}

// Columns returns the columns of schema.table, fetching them on the first
// request.
func (s *Snapshot) Columns(ctx context.Context, schema, table string) ([]string, bool) {
	if _, ok := s.tables[schema]; !ok {
		return nil, false
	}
	return s.cache.columns(ctx, schema, table)
}

func (c *SchemaCache) Schemas(ctx context.Context) []string {
	return c.Snapshot(ctx).Schemas()
}

func (c *SchemaCache) Tables(ctx context.Context, schema string) ([]string, bool) {
	return c.Snapshot(ctx).Tables(schema)
}

func (c *SchemaCache) AllTables(ctx context.Context) []string {
	return c.Snapshot(ctx).AllTables()
}

// Columns returns the columns of schema.table in provider order,
// fetching them on the first request.
func (c *SchemaCache) Columns(ctx context.Context, schema, table string) ([]string, bool) {
	c.mu.Lock()
	c.load(ctx)
	c.mu.Unlock()
	return c.columns(ctx, schema, table)
}

func (c *SchemaCache) columns(ctx context.Context, schema, table string) ([]string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.schemas[schema][table]
	if !ok {
		return nil, false
	}
	if !entry.loaded {
		columns, err := c.provider.ListColumns(ctx, schema, table)
		if err != nil {
			log.Printf("schema cache: cannot list columns of %s.%s, %s", schema, table, err)
			return nil, false
		}
		entry.columns = columns
		entry.loaded = true
	}
	return append([]string(nil), entry.columns...), true
}
