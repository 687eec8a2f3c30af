package database

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"strconv"

	"github.com/go-sql-driver/mysql"
	"github.com/sqls-server/sqlsh/dialect"
	"golang.org/x/crypto/ssh"
)

func init() {
	for _, driver := range []dialect.DatabaseDriver{
		dialect.DatabaseDriverMySQL,
		dialect.DatabaseDriverMySQL8,
		dialect.DatabaseDriverMySQL57,
		dialect.DatabaseDriverMySQL56,
	} {
		RegisterOpen(driver, mysqlOpen)
		RegisterFactory(driver, NewMySQLDBRepository)
	}
}

func mysqlOpen(dbConnCfg *DBConfig) (*DBConnection, error) {
	var (
		conn    *sql.DB
		sshConn *ssh.Client
	)
	cfg, err := genMysqlConfig(dbConnCfg)
	if err != nil {
		return nil, err
	}

	if dbConnCfg.SSHCfg != nil {
		dbConn, dbSSHConn, err := openMySQLViaSSH(cfg, dbConnCfg.SSHCfg)
		if err != nil {
			return nil, err
		}
		conn = dbConn
		sshConn = dbSSHConn
	} else {
		dbConn, err := sql.Open("mysql", cfg.FormatDSN())
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
		Driver:  dbConnCfg.Driver,
	}, nil
}

type mysqlViaSSHDialer struct {
	client *ssh.Client
}

func (d *mysqlViaSSHDialer) Dial(ctx context.Context, addr string) (net.Conn, error) {
	return d.client.Dial("tcp", addr)
}

func openMySQLViaSSH(cfg *mysql.Config, sshCfg *SSHConfig) (*sql.DB, *ssh.Client, error) {
	sshConn, err := dialSSH(sshCfg)
	if err != nil {
		return nil, nil, err
	}
	mysql.RegisterDialContext("mysql+tcp", (&mysqlViaSSHDialer{sshConn}).Dial)
	cfg.Net = "mysql+tcp"
	conn, err := sql.Open("mysql", cfg.FormatDSN())
	if err != nil {
		sshConn.Close()
		return nil, nil, fmt.Errorf("cannot connect database, %w", err)
	}
	return conn, sshConn, nil
}

type MySQLDBRepository struct {
	Conn *sql.DB
}

func NewMySQLDBRepository(conn *sql.DB) DBRepository {
	return &MySQLDBRepository{Conn: conn}
}

func (db *MySQLDBRepository) Driver() dialect.DatabaseDriver {
	return dialect.DatabaseDriverMySQL
}

func (db *MySQLDBRepository) ProductName() string {
	return "MySQL"
}

// Metadata reads the reserved words from information_schema.KEYWORDS,
// which only exists from MySQL 8 on; older servers report none.
func (db *MySQLDBRepository) Metadata(ctx context.Context) (*dialect.Metadata, error) {
	m := &dialect.Metadata{
		ProductName:     db.ProductName(),
		IdentifierQuote: "`",
		ExtraNameChars:  "#@",
	}
	row := db.Conn.QueryRowContext(ctx, "SELECT @@lower_case_table_names")
	var lower int
	if err := row.Scan(&lower); err != nil {
		return nil, err
	}
	m.StoresLower = lower == 1

	rows, err := db.Conn.QueryContext(ctx, "SELECT WORD FROM information_schema.KEYWORDS WHERE RESERVED = 1")
	if err != nil {
		return m, nil
	}
	if keywords, err := scanStrings(rows); err == nil {
		m.Keywords = keywords
	}
	return m, nil
}

func (db *MySQLDBRepository) CurrentSchema(ctx context.Context) (string, error) {
	row := db.Conn.QueryRowContext(ctx, "SELECT DATABASE()")
	var schema sql.NullString
	if err := row.Scan(&schema); err != nil {
		return "", err
	}
	return schema.String, nil
}

func (db *MySQLDBRepository) ListSchemasAndTables(ctx context.Context) (map[string][]string, error) {
	rows, err := db.Conn.QueryContext(
		ctx,
		`
	SELECT
		TABLE_SCHEMA,
		TABLE_NAME
	FROM
		information_schema.TABLES
	ORDER BY
		TABLE_SCHEMA,
		TABLE_NAME
	`)
	if err != nil {
		return nil, err
	}
	return scanSchemaTables(rows)
}

func (db *MySQLDBRepository) ListColumns(ctx context.Context, schema, table string) ([]string, error) {
	rows, err := db.Conn.QueryContext(
		ctx,
		`
	SELECT
		COLUMN_NAME
	FROM
		information_schema.COLUMNS
	WHERE
		TABLE_SCHEMA = ?
		AND TABLE_NAME = ?
	ORDER BY
		ORDINAL_POSITION
	`, schema, table)
	if err != nil {
		return nil, err
	}
	return scanStrings(rows)
}

func (db *MySQLDBRepository) DescribeTable(ctx context.Context, schema, table string) ([]*ColumnDesc, error) {
	rows, err := db.Conn.QueryContext(
		ctx,
		`
	SELECT
		TABLE_SCHEMA,
		TABLE_NAME,
		COLUMN_NAME,
		COLUMN_TYPE,
		IS_NULLABLE,
		COLUMN_KEY,
		COLUMN_DEFAULT,
		EXTRA
	FROM
		information_schema.COLUMNS
	WHERE
		TABLE_SCHEMA = ?
		AND TABLE_NAME = ?
	ORDER BY
		ORDINAL_POSITION
	`, schema, table)
	if err != nil {
		return nil, err
	}
	return scanColumnDescs(rows)
}

func (db *MySQLDBRepository) Exec(ctx context.Context, query string) (sql.Result, error) {
	return db.Conn.ExecContext(ctx, query)
}

func (db *MySQLDBRepository) Query(ctx context.Context, query string) (*sql.Rows, error) {
	return db.Conn.QueryContext(ctx, query)
}

func genMysqlConfig(connCfg *DBConfig) (*mysql.Config, error) {
	if connCfg.DataSourceName != "" {
		return mysql.ParseDSN(connCfg.DataSourceName)
	}
	passwd, err := connCfg.ResolvePassword()
	if err != nil {
		return nil, err
	}

	cfg := mysql.NewConfig()
	cfg.User = connCfg.User
	cfg.Passwd = passwd
	cfg.DBName = connCfg.DBName

	switch connCfg.Proto {
	case ProtoTCP, ProtoUDP:
		host, port := connCfg.Host, connCfg.Port
		if host == "" {
			host = "127.0.0.1"
		}
		if port == 0 {
			port = 3306
		}
		cfg.Addr = host + ":" + strconv.Itoa(port)
		cfg.Net = string(connCfg.Proto)
	case ProtoUnix:
		cfg.Addr = connCfg.Path
		if cfg.Addr == "" {
			cfg.Addr = "/tmp/mysql.sock"
		}
		cfg.Net = string(connCfg.Proto)
	default:
		return nil, fmt.Errorf("default addr for network %s unknown", connCfg.Proto)
	}

	cfg.Params = connCfg.Params

	return cfg, nil
}
