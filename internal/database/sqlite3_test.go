package database

import (
	"context"
	"database/sql"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/sqls-server/sqlsh/dialect"
)

func openSQLite3(t *testing.T) *sql.DB {
	t.Helper()
	conn, err := Open(&DBConfig{
		Driver:         dialect.DatabaseDriverSQLite3,
		DataSourceName: ":memory:",
	})
	if err != nil {
		t.Fatalf("cannot open sqlite3, %s", err)
	}
	t.Cleanup(func() {
		conn.Close()
	})
	// every connection of an in-memory database is a new database
	conn.Conn.SetMaxOpenConns(1)

	ddl := []string{
		`CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT NOT NULL, email TEXT DEFAULT 'none')`,
		`CREATE TABLE orders (id INTEGER PRIMARY KEY, user_id INTEGER, total REAL)`,
		`CREATE VIEW big_orders AS SELECT * FROM orders WHERE total > 100`,
		`INSERT INTO users (name) VALUES ('alice'), ('bob')`,
	}
	for _, stmt := range ddl {
		if _, err := conn.Conn.Exec(stmt); err != nil {
			t.Fatalf("cannot exec %q, %s", stmt, err)
		}
	}
	return conn.Conn
}

func TestSQLite3Repository(t *testing.T) {
	ctx := context.Background()
	repo, err := CreateRepository(dialect.DatabaseDriverSQLite3, openSQLite3(t))
	if err != nil {
		t.Fatalf("unexpected error, %s", err)
	}

	schemaTables, err := repo.ListSchemasAndTables(ctx)
	if err != nil {
		t.Fatalf("unexpected error, %s", err)
	}
	want := map[string][]string{"main": {"big_orders", "orders", "users"}}
	if diff := cmp.Diff(want, schemaTables); diff != "" {
		t.Errorf("unmatch (- want, + got):\n%s", diff)
	}

	cols, err := repo.ListColumns(ctx, "main", "users")
	if err != nil {
		t.Fatalf("unexpected error, %s", err)
	}
	if diff := cmp.Diff([]string{"id", "name", "email"}, cols); diff != "" {
		t.Errorf("unmatch (- want, + got):\n%s", diff)
	}

	descs, err := repo.DescribeTable(ctx, "main", "users")
	if err != nil {
		t.Fatalf("unexpected error, %s", err)
	}
	wantDescs := []*ColumnDesc{
		{Schema: "main", Table: "users", Name: "id", Type: "INTEGER", Null: "YES", Key: "PRI"},
		{Schema: "main", Table: "users", Name: "name", Type: "TEXT", Null: "NO"},
		{Schema: "main", Table: "users", Name: "email", Type: "TEXT", Null: "YES", Default: sql.NullString{String: "'none'", Valid: true}},
	}
	if diff := cmp.Diff(wantDescs, descs); diff != "" {
		t.Errorf("unmatch (- want, + got):\n%s", diff)
	}

	rows, err := repo.Query(ctx, "SELECT name, email FROM users ORDER BY id")
	if err != nil {
		t.Fatalf("unexpected error, %s", err)
	}
	res, err := ReadResult(rows)
	if err != nil {
		t.Fatalf("unexpected error, %s", err)
	}
	wantRes := &ResultSet{
		Columns: []string{"name", "email"},
		Rows:    [][]string{{"alice", "none"}, {"bob", "none"}},
	}
	if diff := cmp.Diff(wantRes, res); diff != "" {
		t.Errorf("unmatch (- want, + got):\n%s", diff)
	}
}

func TestSQLite3Open_SSHUnsupported(t *testing.T) {
	_, err := Open(&DBConfig{
		Driver:         dialect.DatabaseDriverSQLite3,
		DataSourceName: ":memory:",
		SSHCfg:         &SSHConfig{Host: "bastion", User: "ops", PrivateKey: "id_rsa"},
	})
	if err == nil {
		t.Error("want error, got nil")
	}
}
