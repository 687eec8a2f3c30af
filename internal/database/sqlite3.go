package database

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"github.com/sqls-server/sqlsh/dialect"
)

func init() {
	RegisterOpen(dialect.DatabaseDriverSQLite3, sqlite3Open)
	RegisterFactory(dialect.DatabaseDriverSQLite3, NewSQLite3DBRepository)
}

func sqlite3Open(dbConnCfg *DBConfig) (*DBConnection, error) {
	if dbConnCfg.SSHCfg != nil {
		return nil, fmt.Errorf("connect via SSH is not supported")
	}
	conn, err := sql.Open("sqlite3", dbConnCfg.DataSourceName)
	if err != nil {
		return nil, err
	}
	if err = conn.Ping(); err != nil {
		return nil, err
	}
	conn.SetMaxIdleConns(DefaultMaxIdleConns)
	conn.SetMaxOpenConns(DefaultMaxOpenConns)

	return &DBConnection{
		Conn:   conn,
		Driver: dialect.DatabaseDriverSQLite3,
	}, nil
}

type SQLite3DBRepository struct {
	Conn *sql.DB
}

func NewSQLite3DBRepository(conn *sql.DB) DBRepository {
	return &SQLite3DBRepository{Conn: conn}
}

func (db *SQLite3DBRepository) Driver() dialect.DatabaseDriver {
	return dialect.DatabaseDriverSQLite3
}

func (db *SQLite3DBRepository) ProductName() string {
	return "SQLite"
}

func (db *SQLite3DBRepository) Metadata(ctx context.Context) (*dialect.Metadata, error) {
	return &dialect.Metadata{
		ProductName:     db.ProductName(),
		IdentifierQuote: `"`,
	}, nil
}

func (db *SQLite3DBRepository) CurrentSchema(ctx context.Context) (string, error) {
	return "main", nil
}

func (db *SQLite3DBRepository) ListSchemasAndTables(ctx context.Context) (map[string][]string, error) {
	rows, err := db.Conn.QueryContext(
		ctx,
		`
	SELECT
		'main',
		name
	FROM
		sqlite_master
	WHERE
		type IN ('table', 'view')
		AND name NOT LIKE 'sqlite_%'
	ORDER BY
		name
	`)
	if err != nil {
		return nil, err
	}
	return scanSchemaTables(rows)
}

func (db *SQLite3DBRepository) ListColumns(ctx context.Context, schema, table string) ([]string, error) {
	rows, err := db.Conn.QueryContext(ctx, "SELECT name FROM pragma_table_info(?, ?) ORDER BY cid", table, schema)
	if err != nil {
		return nil, err
	}
	return scanStrings(rows)
}

func (db *SQLite3DBRepository) DescribeTable(ctx context.Context, schema, table string) ([]*ColumnDesc, error) {
	rows, err := db.Conn.QueryContext(
		ctx,
		`
	SELECT
		?,
		?,
		name,
		type,
		CASE WHEN "notnull" = 1 THEN 'NO' ELSE 'YES' END,
		CASE WHEN pk > 0 THEN 'PRI' ELSE '' END,
		dflt_value,
		''
	FROM
		pragma_table_info(?, ?)
	ORDER BY
		cid
	`, schema, table, table, schema)
	if err != nil {
		return nil, err
	}
	return scanColumnDescs(rows)
}

func (db *SQLite3DBRepository) Exec(ctx context.Context, query string) (sql.Result, error) {
	return db.Conn.ExecContext(ctx, query)
}

func (db *SQLite3DBRepository) Query(ctx context.Context, query string) (*sql.Rows, error) {
	return db.Conn.QueryContext(ctx, query)
}
