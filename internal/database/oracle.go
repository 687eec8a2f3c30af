package database

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	_ "github.com/godror/godror"
	"github.com/sqls-server/sqlsh/dialect"
)

func init() {
	RegisterOpen(dialect.DatabaseDriverOracle, oracleOpen)
	RegisterFactory(dialect.DatabaseDriverOracle, NewOracleDBRepository)
}

func oracleOpen(dbConnCfg *DBConfig) (*DBConnection, error) {
	if dbConnCfg.SSHCfg != nil {
		return nil, fmt.Errorf("connect via SSH is not supported")
	}
	dsn, err := genOracleConfig(dbConnCfg)
	if err != nil {
		return nil, err
	}

	conn, err := sql.Open("godror", dsn)
	if err != nil {
		return nil, err
	}

	conn.SetMaxIdleConns(DefaultMaxIdleConns)
	conn.SetMaxOpenConns(DefaultMaxOpenConns)

	return &DBConnection{
		Conn:   conn,
		Driver: dialect.DatabaseDriverOracle,
	}, nil
}

func genOracleConfig(connCfg *DBConfig) (string, error) {
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
		port = 1521
	}
	return connCfg.User + "/" + passwd + "@" + host + ":" + strconv.Itoa(port) + "/" + connCfg.DBName, nil
}

type OracleDBRepository struct {
	Conn *sql.DB
}

func NewOracleDBRepository(conn *sql.DB) DBRepository {
	return &OracleDBRepository{Conn: conn}
}

func (db *OracleDBRepository) Driver() dialect.DatabaseDriver {
	return dialect.DatabaseDriverOracle
}

func (db *OracleDBRepository) ProductName() string {
	return "Oracle"
}

// Metadata reads V$RESERVED_WORDS when the session may see it.
func (db *OracleDBRepository) Metadata(ctx context.Context) (*dialect.Metadata, error) {
	m := &dialect.Metadata{
		ProductName:     db.ProductName(),
		IdentifierQuote: `"`,
		StoresUpper:     true,
		ExtraNameChars:  "$#",
	}
	rows, err := db.Conn.QueryContext(ctx, "SELECT KEYWORD FROM V$RESERVED_WORDS WHERE RESERVED = 'Y'")
	if err != nil {
		return m, nil
	}
	if keywords, err := scanStrings(rows); err == nil {
		m.Keywords = keywords
	}
	return m, nil
}

func (db *OracleDBRepository) CurrentSchema(ctx context.Context) (string, error) {
	row := db.Conn.QueryRowContext(ctx, "SELECT SYS_CONTEXT('USERENV','CURRENT_SCHEMA') FROM DUAL")
	var schema string
	if err := row.Scan(&schema); err != nil {
		return "", err
	}
	return schema, nil
}

func (db *OracleDBRepository) ListSchemasAndTables(ctx context.Context) (map[string][]string, error) {
	rows, err := db.Conn.QueryContext(
		ctx,
		`
	SELECT OWNER, TABLE_NAME
	  FROM SYS.ALL_TABLES
	 ORDER BY OWNER, TABLE_NAME
	`)
	if err != nil {
		return nil, err
	}
	return scanSchemaTables(rows)
}

func (db *OracleDBRepository) ListColumns(ctx context.Context, schema, table string) ([]string, error) {
	rows, err := db.Conn.QueryContext(
		ctx,
		`
	SELECT COLUMN_NAME
	  FROM SYS.ALL_TAB_COLUMNS
	 WHERE OWNER = :1
	   AND TABLE_NAME = :2
	 ORDER BY COLUMN_ID
	`, schema, table)
	if err != nil {
		return nil, err
	}
	return scanStrings(rows)
}

func (db *OracleDBRepository) DescribeTable(ctx context.Context, schema, table string) ([]*ColumnDesc, error) {
	rows, err := db.Conn.QueryContext(
		ctx,
		`
	SELECT c.OWNER,
	       c.TABLE_NAME,
	       c.COLUMN_NAME,
	       c.DATA_TYPE,
	       DECODE(c.NULLABLE, 'N', 'NO', 'YES'),
	       CASE WHEN EXISTS (
	           SELECT 1
	             FROM SYS.ALL_CONSTRAINTS k
	             JOIN SYS.ALL_CONS_COLUMNS kc
	               ON k.OWNER = kc.OWNER
	              AND k.CONSTRAINT_NAME = kc.CONSTRAINT_NAME
	            WHERE k.CONSTRAINT_TYPE = 'P'
	              AND kc.OWNER = c.OWNER
	              AND kc.TABLE_NAME = c.TABLE_NAME
	              AND kc.COLUMN_NAME = c.COLUMN_NAME
	       ) THEN 'PRI' ELSE ' ' END,
	       NULL,
	       ' '
	  FROM SYS.ALL_TAB_COLUMNS c
	 WHERE c.OWNER = :1
	   AND c.TABLE_NAME = :2
	 ORDER BY c.COLUMN_ID
	`, schema, table)
	if err != nil {
		return nil, err
	}
	return scanColumnDescs(rows)
}

func (db *OracleDBRepository) Exec(ctx context.Context, query string) (sql.Result, error) {
	return db.Conn.ExecContext(ctx, query)
}

func (db *OracleDBRepository) Query(ctx context.Context, query string) (*sql.Rows, error) {
	return db.Conn.QueryContext(ctx, query)
}
