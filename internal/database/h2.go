package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/CodinGame/h2go"
	"github.com/sqls-server/sqlsh/dialect"
)

func init() {
	RegisterOpen(dialect.DatabaseDriverH2, h2Open)
	RegisterFactory(dialect.DatabaseDriverH2, NewH2DBRepository)
}

func h2Open(dbConnCfg *DBConfig) (*DBConnection, error) {
	dsn, err := genH2Config(dbConnCfg)
	if err != nil {
		return nil, err
	}
	if dbConnCfg.SSHCfg != nil {
		return nil, fmt.Errorf("connect via SSH is not supported")
	}
	conn, err := sql.Open("h2", dsn)
	if err != nil {
		return nil, err
	}

	return &DBConnection{
		Conn:   conn,
		Driver: dialect.DatabaseDriverH2,
	}, nil
}

func genH2Config(connCfg *DBConfig) (string, error) {
	if connCfg.DataSourceName != "" {
		return connCfg.DataSourceName, nil
	}
	return "", fmt.Errorf("only DataSourceName is supported")
}

// sqlLiteral renders s as a string literal. h2go does not bind
// parameters, so metadata queries inline their arguments.
func sqlLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

type H2DBRepository struct {
	Conn *sql.DB
}

func NewH2DBRepository(conn *sql.DB) DBRepository {
	return &H2DBRepository{Conn: conn}
}

func (db *H2DBRepository) Driver() dialect.DatabaseDriver {
	return dialect.DatabaseDriverH2
}

func (db *H2DBRepository) ProductName() string {
	return "H2"
}

func (db *H2DBRepository) Metadata(ctx context.Context) (*dialect.Metadata, error) {
	return &dialect.Metadata{
		ProductName:     db.ProductName(),
		IdentifierQuote: `"`,
		StoresUpper:     true,
	}, nil
}

func (db *H2DBRepository) CurrentSchema(ctx context.Context) (string, error) {
	return "PUBLIC", nil
}

func (db *H2DBRepository) ListSchemasAndTables(ctx context.Context) (map[string][]string, error) {
	rows, err := db.Conn.QueryContext(
		ctx,
		`
	SELECT
		table_schema,
		table_name
	FROM
		information_schema.tables
	ORDER BY
		table_schema,
		table_name
	`)
	if err != nil {
		return nil, err
	}
	return scanSchemaTables(rows)
}

func (db *H2DBRepository) ListColumns(ctx context.Context, schema, table string) ([]string, error) {
	rows, err := db.Conn.QueryContext(
		ctx,
		fmt.Sprintf(`
	SELECT
		column_name
	FROM
		information_schema.columns
	WHERE
		table_schema = %s
		AND table_name = %s
	ORDER BY
		ordinal_position
	`, sqlLiteral(schema), sqlLiteral(table)))
	if err != nil {
		return nil, err
	}
	return scanStrings(rows)
}

func (db *H2DBRepository) DescribeTable(ctx context.Context, schema, table string) ([]*ColumnDesc, error) {
	rows, err := db.Conn.QueryContext(
		ctx,
		fmt.Sprintf(`
	SELECT
		c.table_schema,
		c.table_name,
		c.column_name,
		c.type_name,
		c.is_nullable,
		CASE tc.constraint_type
			WHEN 'PRIMARY KEY' THEN 'PRI'
			ELSE ''
		END,
		c.column_default,
		''
	FROM
		information_schema.columns c
	LEFT JOIN
		information_schema.constraints tc
		ON c.table_schema = tc.table_schema
		AND c.table_name = tc.table_name
		AND REGEXP_LIKE(tc.column_list, '(^|,)' || c.column_name || '(,|$)', 'i')
	WHERE
		c.table_schema = %s
		AND c.table_name = %s
	ORDER BY
		c.ordinal_position
	`, sqlLiteral(schema), sqlLiteral(table)))
	if err != nil {
		return nil, err
	}
	return scanColumnDescs(rows)
}

func (db *H2DBRepository) Exec(ctx context.Context, query string) (sql.Result, error) {
	return db.Conn.ExecContext(ctx, query)
}

func (db *H2DBRepository) Query(ctx context.Context, query string) (*sql.Rows, error) {
	return db.Conn.QueryContext(ctx, query)
}
