package database

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"net/url"

	clickhouse "github.com/ClickHouse/clickhouse-go/v2"
	"github.com/sqls-server/sqlsh/dialect"
	"golang.org/x/crypto/ssh"
)

func init() {
	RegisterOpen(dialect.DatabaseDriverClickhouse, clickhouseOpen)
	RegisterFactory(dialect.DatabaseDriverClickhouse, NewClickhouseRepository)
}

func clickhouseOpen(dbConnCfg *DBConfig) (*DBConnection, error) {
	var (
		conn    *sql.DB
		sshConn *ssh.Client
	)
	dsn, err := genClickhouseDsn(dbConnCfg)
	if err != nil {
		return nil, err
	}

	if dbConnCfg.SSHCfg != nil {
		dbConn, dbSSHConn, err := openClickhouseViaSSH(dsn, dbConnCfg.SSHCfg)
		if err != nil {
			return nil, err
		}
		conn = dbConn
		sshConn = dbSSHConn
	} else {
		dbConn, err := sql.Open("clickhouse", dsn)
		if err != nil {
			return nil, err
		}
		conn = dbConn
	}

	if err = conn.PingContext(context.Background()); err != nil {
		return nil, err
	}

	conn.SetMaxIdleConns(DefaultMaxIdleConns)
	conn.SetMaxOpenConns(DefaultMaxOpenConns)

	return &DBConnection{
		Conn:    conn,
		SSHConn: sshConn,
		Driver:  dialect.DatabaseDriverClickhouse,
	}, nil
}

func openClickhouseViaSSH(dsn string, sshCfg *SSHConfig) (*sql.DB, *ssh.Client, error) {
	sshConn, err := dialSSH(sshCfg)
	if err != nil {
		return nil, nil, err
	}

	conf, err := clickhouse.ParseDSN(dsn)
	if err != nil {
		sshConn.Close()
		return nil, nil, err
	}
	conf.DialContext = func(ctx context.Context, addr string) (net.Conn, error) {
		return sshConn.DialContext(ctx, "tcp", addr)
	}

	return clickhouse.OpenDB(conf), sshConn, nil
}

func genClickhouseDsn(dbConfig *DBConfig) (string, error) {
	if dbConfig.DataSourceName != "" {
		return dbConfig.DataSourceName, nil
	}
	passwd, err := dbConfig.ResolvePassword()
	if err != nil {
		return "", err
	}

	u := url.URL{}
	switch dbConfig.Proto {
	case ProtoTCP:
		u.Scheme = "clickhouse"
	case ProtoHTTP:
		u.Scheme = "http"
	default:
		return "", fmt.Errorf("unsupported protocol %s", dbConfig.Proto)
	}

	if passwd == "" {
		u.User = url.User(dbConfig.User)
	} else {
		u.User = url.UserPassword(dbConfig.User, passwd)
	}
	u.Host = fmt.Sprintf("%s:%d", dbConfig.Host, dbConfig.Port)
	if dbConfig.DBName != "" {
		u.Path = dbConfig.DBName
	}

	values := u.Query()
	for k, v := range dbConfig.Params {
		values.Set(k, v)
	}
	u.RawQuery = values.Encode()

	return u.String(), nil
}

type clickhouseSQLDBRepository struct {
	Conn *sql.DB
}

func NewClickhouseRepository(conn *sql.DB) DBRepository {
	return &clickhouseSQLDBRepository{Conn: conn}
}

func (*clickhouseSQLDBRepository) Driver() dialect.DatabaseDriver {
	return dialect.DatabaseDriverClickhouse
}

func (*clickhouseSQLDBRepository) ProductName() string {
	return "ClickHouse"
}

func (db *clickhouseSQLDBRepository) Metadata(ctx context.Context) (*dialect.Metadata, error) {
	rows, err := db.Conn.QueryContext(ctx, "SELECT keyword FROM system.keywords")
	m := &dialect.Metadata{
		ProductName:     db.ProductName(),
		IdentifierQuote: `"`,
	}
	if err != nil {
		return m, nil
	}
	if keywords, err := scanStrings(rows); err == nil {
		m.Keywords = keywords
	}
	return m, nil
}

func (db *clickhouseSQLDBRepository) CurrentSchema(ctx context.Context) (string, error) {
	row := db.Conn.QueryRowContext(ctx, "SELECT currentDatabase()")
	var database string
	if err := row.Scan(&database); err != nil {
		return "", err
	}
	return database, nil
}

func (db *clickhouseSQLDBRepository) ListSchemasAndTables(ctx context.Context) (map[string][]string, error) {
	rows, err := db.Conn.QueryContext(
		ctx,
		`
    SELECT database, name
      FROM system.tables
     WHERE name NOT LIKE '.inner%'
     ORDER BY database, name
    `)
	if err != nil {
		return nil, err
	}
	return scanSchemaTables(rows)
}

func (db *clickhouseSQLDBRepository) ListColumns(ctx context.Context, schema, table string) ([]string, error) {
	rows, err := db.Conn.QueryContext(
		ctx,
		`
    SELECT name
      FROM system.columns
     WHERE database = ?
       AND table = ?
     ORDER BY position
    `, schema, table)
	if err != nil {
		return nil, err
	}
	return scanStrings(rows)
}

func (db *clickhouseSQLDBRepository) DescribeTable(ctx context.Context, schema, table string) ([]*ColumnDesc, error) {
	rows, err := db.Conn.QueryContext(
		ctx,
		`
SELECT
    c.database,
    c.table,
    c.name,
    c.type,
    CASE
        WHEN c.type LIKE 'Nullable(%)' THEN 'YES'
        ELSE 'NO'
    END,
    CASE
        WHEN c.is_in_primary_key THEN 'PRI'
        ELSE ''
    END,
    c.default_expression,
    ''
FROM
    system.columns c
WHERE c.database = ?
  AND c.table = ?
ORDER BY c.position
`, schema, table)
	if err != nil {
		return nil, err
	}
	return scanColumnDescs(rows)
}

func (db *clickhouseSQLDBRepository) Exec(ctx context.Context, query string) (sql.Result, error) {
	return db.Conn.ExecContext(ctx, query)
}

func (db *clickhouseSQLDBRepository) Query(ctx context.Context, query string) (*sql.Rows, error) {
	return db.Conn.QueryContext(ctx, query)
}
