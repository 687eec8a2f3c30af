package database

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strconv"

	_ "github.com/denisenkom/go-mssqldb"
	"github.com/jfcote87/sshdb"
	"github.com/jfcote87/sshdb/mssql"
	"github.com/sqls-server/sqlsh/dialect"
)

func init() {
	RegisterOpen(dialect.DatabaseDriverMssql, mssqlOpen)
	RegisterFactory(dialect.DatabaseDriverMssql, NewMssqlDBRepository)
}

func mssqlOpen(dbConnCfg *DBConfig) (*DBConnection, error) {
	var conn *sql.DB
	dsn, err := genMssqlConfig(dbConnCfg)
	if err != nil {
		return nil, err
	}

	if dbConnCfg.SSHCfg != nil {
		cfg, err := dbConnCfg.SSHCfg.ClientConfig()
		if err != nil {
			return nil, err
		}
		tunnel, err := sshdb.New(cfg, dbConnCfg.SSHCfg.Endpoint())
		if err != nil {
			return nil, fmt.Errorf("cannot open ssh tunnel, %w", err)
		}
		connector, err := tunnel.OpenConnector(mssql.TunnelDriver, dsn)
		if err != nil {
			return nil, err
		}
		conn = sql.OpenDB(connector)
	} else {
		conn, err = sql.Open("mssql", dsn)
		if err != nil {
			return nil, err
		}
	}

	if err = conn.PingContext(context.Background()); err != nil {
		return nil, err
	}

	conn.SetMaxIdleConns(DefaultMaxIdleConns)
	conn.SetMaxOpenConns(DefaultMaxOpenConns)

	return &DBConnection{
		Conn:   conn,
		Driver: dialect.DatabaseDriverMssql,
	}, nil
}

type MssqlDBRepository struct {
	Conn *sql.DB
}

func NewMssqlDBRepository(conn *sql.DB) DBRepository {
	return &MssqlDBRepository{Conn: conn}
}

func (db *MssqlDBRepository) Driver() dialect.DatabaseDriver {
	return dialect.DatabaseDriverMssql
}

func (db *MssqlDBRepository) ProductName() string {
	return "Microsoft SQL Server"
}

func (db *MssqlDBRepository) Metadata(ctx context.Context) (*dialect.Metadata, error) {
	return &dialect.Metadata{
		ProductName:     db.ProductName(),
		IdentifierQuote: "[",
		ExtraNameChars:  "@#$",
	}, nil
}

func (db *MssqlDBRepository) CurrentSchema(ctx context.Context) (string, error) {
	row := db.Conn.QueryRowContext(ctx, "SELECT SCHEMA_NAME()")
	var schema sql.NullString
	if err := row.Scan(&schema); err != nil {
		return "", err
	}
	return schema.String, nil
}

func (db *MssqlDBRepository) ListSchemasAndTables(ctx context.Context) (map[string][]string, error) {
	rows, err := db.Conn.QueryContext(
		ctx,
		`
	SELECT
		TABLE_SCHEMA,
		TABLE_NAME
	FROM
		INFORMATION_SCHEMA.TABLES
	ORDER BY
		TABLE_SCHEMA,
		TABLE_NAME
	`)
	if err != nil {
		return nil, err
	}
	return scanSchemaTables(rows)
}

func (db *MssqlDBRepository) ListColumns(ctx context.Context, schema, table string) ([]string, error) {
	rows, err := db.Conn.QueryContext(
		ctx,
		`
	SELECT
		COLUMN_NAME
	FROM
		INFORMATION_SCHEMA.COLUMNS
	WHERE
		TABLE_SCHEMA = @p1
		AND TABLE_NAME = @p2
	ORDER BY
		ORDINAL_POSITION
	`, schema, table)
	if err != nil {
		return nil, err
	}
	return scanStrings(rows)
}

func (db *MssqlDBRepository) DescribeTable(ctx context.Context, schema, table string) ([]*ColumnDesc, error) {
	rows, err := db.Conn.QueryContext(
		ctx,
		`
	SELECT
		c.TABLE_SCHEMA,
		c.TABLE_NAME,
		c.COLUMN_NAME,
		c.DATA_TYPE,
		c.IS_NULLABLE,
		CASE WHEN tc.CONSTRAINT_TYPE = 'PRIMARY KEY' THEN 'PRI' ELSE '' END,
		c.COLUMN_DEFAULT,
		''
	FROM
		INFORMATION_SCHEMA.COLUMNS c
		LEFT JOIN INFORMATION_SCHEMA.KEY_COLUMN_USAGE kcu
			ON c.TABLE_SCHEMA = kcu.TABLE_SCHEMA
			AND c.TABLE_NAME = kcu.TABLE_NAME
			AND c.COLUMN_NAME = kcu.COLUMN_NAME
		LEFT JOIN INFORMATION_SCHEMA.TABLE_CONSTRAINTS tc
			ON kcu.CONSTRAINT_NAME = tc.CONSTRAINT_NAME
			AND tc.CONSTRAINT_TYPE = 'PRIMARY KEY'
	WHERE
		c.TABLE_SCHEMA = @p1
		AND c.TABLE_NAME = @p2
	ORDER BY
		c.ORDINAL_POSITION
	`, schema, table)
	if err != nil {
		return nil, err
	}
	return scanColumnDescs(rows)
}

func (db *MssqlDBRepository) Exec(ctx context.Context, query string) (sql.Result, error) {
	return db.Conn.ExecContext(ctx, query)
}

func (db *MssqlDBRepository) Query(ctx context.Context, query string) (*sql.Rows, error) {
	return db.Conn.QueryContext(ctx, query)
}

func genMssqlConfig(connCfg *DBConfig) (string, error) {
	if connCfg.DataSourceName != "" {
		return connCfg.DataSourceName, nil
	}
	passwd, err := connCfg.ResolvePassword()
	if err != nil {
		return "", err
	}

	q := url.Values{}
	q.Set("user", connCfg.User)
	q.Set("password", passwd)
	q.Set("database", connCfg.DBName)

	switch connCfg.Proto {
	case ProtoTCP:
		host, port := connCfg.Host, connCfg.Port
		if host == "" {
			host = "127.0.0.1"
		}
		if port == 0 {
			port = 1433
		}
		q.Set("server", host)
		q.Set("port", strconv.Itoa(port))
	case ProtoUDP, ProtoUnix, ProtoHTTP:
	default:
		return "", fmt.Errorf("default addr for network %s unknown", connCfg.Proto)
	}

	for k, v := range connCfg.Params {
		q.Set(k, v)
	}

	return genOptions(q, "", "=", ";", ",", true), nil
}
