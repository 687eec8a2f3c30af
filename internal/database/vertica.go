package database

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strconv"

	"github.com/sqls-server/sqlsh/dialect"
	_ "github.com/vertica/vertica-sql-go"
)

func init() {
	RegisterOpen(dialect.DatabaseDriverVertica, verticaOpen)
	RegisterFactory(dialect.DatabaseDriverVertica, NewVerticaDBRepository)
}

func verticaOpen(dbConnCfg *DBConfig) (*DBConnection, error) {
	if dbConnCfg.SSHCfg != nil {
		return nil, fmt.Errorf("connect via SSH is not supported")
	}
	dsn, err := genVerticaConfig(dbConnCfg)
	if err != nil {
		return nil, err
	}

	conn, err := sql.Open("vertica", dsn)
	if err != nil {
		return nil, err
	}

	conn.SetMaxIdleConns(DefaultMaxIdleConns)
	conn.SetMaxOpenConns(DefaultMaxOpenConns)

	return &DBConnection{
		Conn:   conn,
		Driver: dialect.DatabaseDriverVertica,
	}, nil
}

func genVerticaConfig(connCfg *DBConfig) (string, error) {
	if connCfg.DataSourceName != "" {
		return connCfg.DataSourceName, nil
	}
	passwd, err := connCfg.ResolvePassword()
	if err != nil {
		return "", err
	}

	host, port := connCfg.Host, connCfg.Port
	if host == "" {
		host = "127.0.0.1"
	}
	if port == 0 {
		port = 5433
	}
	u := url.URL{
		Scheme: "vertica",
		User:   url.UserPassword(connCfg.User, passwd),
		Host:   host + ":" + strconv.Itoa(port),
		Path:   connCfg.DBName,
	}
	q := u.Query()
	for k, v := range connCfg.Params {
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

type VerticaDBRepository struct {
	Conn *sql.DB
}

func NewVerticaDBRepository(conn *sql.DB) DBRepository {
	return &VerticaDBRepository{Conn: conn}
}

func (db *VerticaDBRepository) Driver() dialect.DatabaseDriver {
	return dialect.DatabaseDriverVertica
}

func (db *VerticaDBRepository) ProductName() string {
	return "Vertica"
}

func (db *VerticaDBRepository) Metadata(ctx context.Context) (*dialect.Metadata, error) {
	return &dialect.Metadata{
		ProductName:     db.ProductName(),
		IdentifierQuote: `"`,
	}, nil
}

func (db *VerticaDBRepository) CurrentSchema(ctx context.Context) (string, error) {
	row := db.Conn.QueryRowContext(ctx, "SELECT CURRENT_SCHEMA()")
	var schema sql.NullString
	if err := row.Scan(&schema); err != nil {
		return "", err
	}
	return schema.String, nil
}

func (db *VerticaDBRepository) ListSchemasAndTables(ctx context.Context) (map[string][]string, error) {
	rows, err := db.Conn.QueryContext(
		ctx,
		`
    SELECT schema_name, table_name
      FROM v_catalog.all_tables
     ORDER BY schema_name, table_name
    `)
	if err != nil {
		return nil, err
	}
	return scanSchemaTables(rows)
}

func (db *VerticaDBRepository) ListColumns(ctx context.Context, schema, table string) ([]string, error) {
	rows, err := db.Conn.QueryContext(
		ctx,
		`
    SELECT column_name
      FROM v_catalog.columns
     WHERE table_schema = ?
       AND table_name = ?
     ORDER BY ordinal_position
    `, schema, table)
	if err != nil {
		return nil, err
	}
	return scanStrings(rows)
}

func (db *VerticaDBRepository) DescribeTable(ctx context.Context, schema, table string) ([]*ColumnDesc, error) {
	rows, err := db.Conn.QueryContext(
		ctx,
		`
    SELECT table_schema,
           table_name,
           column_name,
           data_type,
           CASE is_nullable
           WHEN true THEN 'YES'
           ELSE 'NO'
           END,
           '',
           column_default,
           ''
      FROM v_catalog.columns
     WHERE table_schema = ?
       AND table_name = ?
     ORDER BY ordinal_position
    `, schema, table)
	if err != nil {
		return nil, err
	}
	return scanColumnDescs(rows)
}

func (db *VerticaDBRepository) Exec(ctx context.Context, query string) (sql.Result, error) {
	return db.Conn.ExecContext(ctx, query)
}

func (db *VerticaDBRepository) Query(ctx context.Context, query string) (*sql.Rows, error) {
	return db.Conn.QueryContext(ctx, query)
}
