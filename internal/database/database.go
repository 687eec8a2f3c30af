package database

import (
	"context"
	"database/sql"
	"errors"

	"github.com/sqls-server/sqlsh/dialect"
)

var ErrNotConnected = errors.New("not connected to a database")

const (
	DefaultMaxIdleConns = 10
	DefaultMaxOpenConns = 5
)

// MetadataProvider lists the objects the completion engine resolves
// identifier paths against.
type MetadataProvider interface {
	ListSchemasAndTables(ctx context.Context) (map[string][]string, error)
	ListColumns(ctx context.Context, schema, table string) ([]string, error)
}

type DBRepository interface {
	MetadataProvider
	Driver() dialect.DatabaseDriver
	ProductName() string
	Metadata(ctx context.Context) (*dialect.Metadata, error)
	CurrentSchema(ctx context.Context) (string, error)
	DescribeTable(ctx context.Context, schema, table string) ([]*ColumnDesc, error)
	Exec(ctx context.Context, query string) (sql.Result, error)
	Query(ctx context.Context, query string) (*sql.Rows, error)
}

type ColumnDesc struct {
	Schema  string
	Table   string
	Name    string
	Type    string
	Null    string
	Key     string
	Default sql.NullString
	Extra   string
}

func scanSchemaTables(rows *sql.Rows) (map[string][]string, error) {
	defer rows.Close()
	schemaTables := map[string][]string{}
	for rows.Next() {
		var schema, table string
		if err := rows.Scan(&schema, &table); err != nil {
			return nil, err
		}
		schemaTables[schema] = append(schemaTables[schema], table)
	}
	return schemaTables, rows.Err()
}

func scanStrings(rows *sql.Rows) ([]string, error) {
	defer rows.Close()
	values := []string{}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, rows.Err()
}

func scanColumnDescs(rows *sql.Rows) ([]*ColumnDesc, error) {
	defer rows.Close()
	descs := []*ColumnDesc{}
	for rows.Next() {
		var desc ColumnDesc
		err := rows.Scan(
			&desc.Schema,
			&desc.Table,
			&desc.Name,
			&desc.Type,
			&desc.Null,
			&desc.Key,
			&desc.Default,
			&desc.Extra,
		)
		if err != nil {
			return nil, err
		}
		descs = append(descs, &desc)
	}
	return descs, rows.Err()
}
