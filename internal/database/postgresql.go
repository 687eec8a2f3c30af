package database

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/stdlib"
	"github.com/sqls-server/sqlsh/dialect"
	"golang.org/x/crypto/ssh"
)

func init() {
	RegisterOpen(dialect.DatabaseDriverPostgreSQL, postgreSQLOpen)
	RegisterFactory(dialect.DatabaseDriverPostgreSQL, NewPostgreSQLDBRepository)
}

func postgreSQLOpen(dbConnCfg *DBConfig) (*DBConnection, error) {
	var (
		conn    *sql.DB
		sshConn *ssh.Client
	)
	dsn, err := genPostgresConfig(dbConnCfg)
	if err != nil {
		return nil, err
	}

	if dbConnCfg.SSHCfg != nil {
		dbConn, dbSSHConn, err := openPostgreSQLViaSSH(dsn, dbConnCfg.SSHCfg)
		if err != nil {
			return nil, err
		}
		conn = dbConn
		sshConn = dbSSHConn
	} else {
		dbConn, err := sql.Open("pgx", dsn)
		if err != nil {
			return nil, err
		}
		conn = dbConn
	}
	if err = conn.Ping(); err != nil {
		return nil, err
	}

	conn.SetMaxIdleConns(DefaultMaxIdleConns)
	conn.SetMaxOpenConns(DefaultMaxOpenConns)

	return &DBConnection{
		Conn:    conn,
		SSHConn: sshConn,
		Driver:  dialect.DatabaseDriverPostgreSQL,
	}, nil
}

func openPostgreSQLViaSSH(dsn string, sshCfg *SSHConfig) (*sql.DB, *ssh.Client, error) {
	sshConn, err := dialSSH(sshCfg)
	if err != nil {
		return nil, nil, err
	}

	conf, err := pgx.ParseConfig(dsn)
	if err != nil {
		sshConn.Close()
		return nil, nil, err
	}
	conf.DialFunc = func(ctx context.Context, network, addr string) (net.Conn, error) {
		return sshConn.Dial(network, addr)
	}

	return stdlib.OpenDB(*conf), sshConn, nil
}

type PostgreSQLDBRepository struct {
	Conn *sql.DB
}

func NewPostgreSQLDBRepository(conn *sql.DB) DBRepository {
	return &PostgreSQLDBRepository{Conn: conn}
}

func (db *PostgreSQLDBRepository) Driver() dialect.DatabaseDriver {
	return dialect.DatabaseDriverPostgreSQL
}

func (db *PostgreSQLDBRepository) ProductName() string {
	return "PostgreSQL"
}

func (db *PostgreSQLDBRepository) Metadata(ctx context.Context) (*dialect.Metadata, error) {
	rows, err := db.Conn.QueryContext(ctx, "SELECT word FROM pg_get_keywords() WHERE catcode = 'R'")
	if err != nil {
		return nil, err
	}
	keywords, err := scanStrings(rows)
	if err != nil {
		return nil, err
	}
	return &dialect.Metadata{
		ProductName:     db.ProductName(),
		IdentifierQuote: `"`,
		StoresLower:     true,
		Keywords:        keywords,
	}, nil
}

func (db *PostgreSQLDBRepository) CurrentSchema(ctx context.Context) (string, error) {
	row := db.Conn.QueryRowContext(ctx, "SELECT current_schema()")
	var schema sql.NullString
	if err := row.Scan(&schema); err != nil {
		return "", err
	}
	return schema.String, nil
}

func (db *PostgreSQLDBRepository) ListSchemasAndTables(ctx context.Context) (map[string][]string, error) {
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

func (db *PostgreSQLDBRepository) ListColumns(ctx context.Context, schema, table string) ([]string, error) {
	rows, err := db.Conn.QueryContext(
		ctx,
		`
	SELECT
		column_name
	FROM
		information_schema.columns
	WHERE
		table_schema = $1
		AND table_name = $2
	ORDER BY
		ordinal_position
	`, schema, table)
	if err != nil {
		return nil, err
	}
	return scanStrings(rows)
}

func (db *PostgreSQLDBRepository) DescribeTable(ctx context.Context, schema, table string) ([]*ColumnDesc, error) {
	rows, err := db.Conn.QueryContext(
		ctx,
		`
	SELECT
		c.table_schema,
		c.table_name,
		c.column_name,
		c.data_type,
		c.is_nullable,
		CASE WHEN tc.constraint_type = 'PRIMARY KEY' THEN 'PRI' ELSE '' END,
		c.column_default,
		''
	FROM
		information_schema.columns c
		LEFT JOIN information_schema.key_column_usage kcu
			ON c.table_schema = kcu.table_schema
			AND c.table_name = kcu.table_name
			AND c.column_name = kcu.column_name
		LEFT JOIN information_schema.table_constraints tc
			ON kcu.constraint_schema = tc.constraint_schema
			AND kcu.constraint_name = tc.constraint_name
			AND tc.constraint_type = 'PRIMARY KEY'
	WHERE
		c.table_schema = $1
		AND c.table_name = $2
	ORDER BY
		c.ordinal_position
	`, schema, table)
	if err != nil {
		return nil, err
	}
	return scanColumnDescs(rows)
}

func (db *PostgreSQLDBRepository) Exec(ctx context.Context, query string) (sql.Result, error) {
	return db.Conn.ExecContext(ctx, query)
}

func (db *PostgreSQLDBRepository) Query(ctx context.Context, query string) (*sql.Rows, error) {
	return db.Conn.QueryContext(ctx, query)
}

func genPostgresConfig(connCfg *DBConfig) (string, error) {
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
	q.Set("dbname", connCfg.DBName)

	switch connCfg.Proto {
	case ProtoTCP, ProtoUDP:
		host, port := connCfg.Host, connCfg.Port
		if host == "" {
			host = "127.0.0.1"
		}
		if port == 0 {
			port = 5432
		}
		q.Set("host", host)
		q.Set("port", strconv.Itoa(port))
	case ProtoUnix:
		q.Set("host", connCfg.Path)
	case ProtoHTTP:
	default:
		return "", fmt.Errorf("default addr for network %s unknown", connCfg.Proto)
	}

	for k, v := range connCfg.Params {
		q.Set(k, v)
	}

	return genOptions(q, "", "=", " ", ",", true), nil
}

// genOptions takes URL values and generates options, joining together with
// joiner, and separated by sep, with any multi URL values joined by valSep,
// ignoring any values with keys in ignore.
//
// For example, to build a "ODBC" style connection string, use like the following:
//
//	genOptions(u.Query(), "", "=", ";", ",")
func genOptions(q url.Values, joiner, assign, sep, valSep string, skipWhenEmpty bool, ignore ...string) string {
	if len(q) == 0 {
		return ""
	}

	ig := make(map[string]bool, len(ignore))
	for _, v := range ignore {
		ig[strings.ToLower(v)] = true
	}

	keys := make([]string, 0, len(q))
	for k := range q {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var opts []string
	for _, k := range keys {
		if ig[strings.ToLower(k)] {
			continue
		}
		val := strings.Join(q[k], valSep)
		if skipWhenEmpty && val == "" {
			continue
		}
		if val != "" {
			val = assign + val
		}
		opts = append(opts, k+val)
	}

	if len(opts) != 0 {
		return joiner + strings.Join(opts, sep)
	}
	return ""
}
