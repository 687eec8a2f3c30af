package dialect

import "sort"

type DatabaseDriver string

const (
	DatabaseDriverMySQL      DatabaseDriver = "mysql"
	DatabaseDriverMySQL8     DatabaseDriver = "mysql8"
	DatabaseDriverMySQL57    DatabaseDriver = "mysql57"
	DatabaseDriverMySQL56    DatabaseDriver = "mysql56"
	DatabaseDriverPostgreSQL DatabaseDriver = "postgresql"
	DatabaseDriverSQLite3    DatabaseDriver = "sqlite3"
	DatabaseDriverMssql      DatabaseDriver = "mssql"
	DatabaseDriverOracle     DatabaseDriver = "oracle"
	DatabaseDriverH2         DatabaseDriver = "h2"
	DatabaseDriverVertica    DatabaseDriver = "vertica"
	DatabaseDriverClickhouse DatabaseDriver = "clickhouse"
)

// SQL:2016 reserved words.
var standardKeywords = []string{
	"ABS", "ABSOLUTE", "ACTION", "ADD", "ALL", "ALLOCATE", "ALTER", "AND", "ANY", "ARE", "ARRAY",
	"AS", "ASC", "ASENSITIVE", "ASYMMETRIC", "AT", "ATOMIC", "AUTHORIZATION", "AVG",
	"BEGIN", "BETWEEN", "BIGINT", "BINARY", "BLOB", "BOOLEAN", "BOTH", "BY",
	"CALL", "CALLED", "CASCADE", "CASCADED", "CASE", "CAST", "CHAR", "CHARACTER", "CHECK", "CLOB",
	"CLOSE", "COALESCE", "COLLATE", "COLUMN", "COMMIT", "CONDITION", "CONNECT", "CONSTRAINT",
	"CONTINUE", "CORRESPONDING", "COUNT", "CREATE", "CROSS", "CUBE", "CURRENT", "CURRENT_DATE",
	"CURRENT_ROLE", "CURRENT_SCHEMA", "CURRENT_TIME", "CURRENT_TIMESTAMP", "CURRENT_USER",
	"CURSOR", "CYCLE",
	"DATE", "DAY", "DEALLOCATE", "DEC", "DECIMAL", "DECLARE", "DEFAULT", "DELETE", "DESC",
	"DESCRIBE", "DETERMINISTIC", "DISCONNECT", "DISTINCT", "DOUBLE", "DROP", "DYNAMIC",
	"EACH", "ELEMENT", "ELSE", "END", "ESCAPE", "EVERY", "EXCEPT", "EXEC", "EXECUTE", "EXISTS",
	"EXPLAIN", "EXTERNAL", "EXTRACT",
	"FALSE", "FETCH", "FILTER", "FIRST", "FLOAT", "FOR", "FOREIGN", "FREE", "FROM", "FULL",
	"FUNCTION", "FUSION",
	"GET", "GLOBAL", "GRANT", "GROUP", "GROUPING", "HAVING", "HOLD", "HOUR",
	"IDENTITY", "IF", "IN", "INDEX", "INDICATOR", "INNER", "INOUT", "INSENSITIVE", "INSERT", "INT",
	"INTEGER", "INTERSECT", "INTERVAL", "INTO", "IS", "JOIN",
	"KEY", "LANGUAGE", "LARGE", "LAST", "LATERAL", "LEADING", "LEFT", "LIKE", "LIMIT", "LOCAL",
	"LOCALTIME", "LOCALTIMESTAMP", "LOWER",
	"MATCH", "MAX", "MERGE", "METHOD", "MIN", "MINUTE", "MOD", "MODIFIES", "MODULE", "MONTH",
	"NATIONAL", "NATURAL", "NCHAR", "NCLOB", "NEW", "NO", "NONE", "NOT", "NULL", "NULLIF",
	"NUMERIC",
	"OF", "OFFSET", "OLD", "ON", "ONLY", "OPEN", "OR", "ORDER", "OUT", "OUTER", "OVER", "OVERLAPS",
	"PARAMETER", "PARTITION", "PERCENT", "POSITION", "PRECISION", "PREPARE", "PRIMARY", "PROCEDURE",
	"RANGE", "READS", "REAL", "RECURSIVE", "REF", "REFERENCES", "RELEASE", "REPLACE", "RESULT",
	"RETURN", "RETURNS", "REVOKE", "RIGHT", "ROLLBACK", "ROLLUP", "ROW", "ROWS",
	"SAVEPOINT", "SCHEMA", "SCROLL", "SEARCH", "SECOND", "SELECT", "SENSITIVE", "SESSION_USER",
	"SET", "SHOW", "SIMILAR", "SMALLINT", "SOME", "SPECIFIC", "SQL", "SQLEXCEPTION", "SQLSTATE",
	"SQLWARNING", "START", "STATIC", "SUBSTRING", "SUM", "SYMMETRIC", "SYSTEM", "SYSTEM_USER",
	"TABLE", "TABLESAMPLE", "THEN", "TIME", "TIMESTAMP", "TO", "TRAILING", "TRANSACTION",
	"TRANSLATE", "TREAT", "TRIGGER", "TRIM", "TRUE", "TRUNCATE",
	"UESCAPE", "UNION", "UNIQUE", "UNKNOWN", "UNNEST", "UPDATE", "UPPER", "USER", "USING",
	"VALUE", "VALUES", "VARCHAR", "VARYING", "VIEW",
	"WHEN", "WHENEVER", "WHERE", "WINDOW", "WITH", "WITHIN", "WITHOUT", "YEAR", "ZONE",
}

var standardFunctions = []string{
	"ABS", "AVG", "CAST", "CEIL", "CHAR_LENGTH", "COALESCE", "CONCAT", "COUNT", "CURRENT_DATE",
	"CURRENT_TIMESTAMP", "EXTRACT", "FLOOR", "LENGTH", "LOWER", "LTRIM", "MAX", "MIN", "MOD",
	"NULLIF", "POSITION", "POWER", "ROUND", "RTRIM", "SQRT", "SUBSTRING", "SUM", "TRIM", "UPPER",
}

var keywordSet = func() map[string]struct{} {
	m := make(map[string]struct{}, len(standardKeywords))
	for _, k := range standardKeywords {
		m[k] = struct{}{}
	}
	return m
}()

// MatchKeyword reports whether upperWord is a standard SQL keyword.
func MatchKeyword(upperWord string) bool {
	_, ok := keywordSet[upperWord]
	return ok
}

// StandardKeywords returns the standard keywords in sorted order.
func StandardKeywords() []string {
	return sortedCopy(standardKeywords)
}

// StandardFunctions returns the standard built-in functions in sorted order.
func StandardFunctions() []string {
	return sortedCopy(standardFunctions)
}

func sortedCopy(in []string) []string {
	out := append([]string(nil), in...)
	sort.Strings(out)
	return out
}

var postgresqlKeywords = []string{
	"ANALYZE", "BIGSERIAL", "BYTEA", "CONCURRENTLY", "COPY", "DO", "ILIKE", "INHERITS", "JSONB",
	"LISTEN", "MATERIALIZED", "NOTIFY", "NOTNULL", "OWNER", "REINDEX", "RETURNING", "SERIAL",
	"SIMILAR", "TABLESPACE", "TEXT", "UNLOGGED", "VACUUM", "VERBOSE",
}

var postgresqlFunctions = []string{
	"ARRAY_AGG", "DATE_TRUNC", "GENERATE_SERIES", "JSON_AGG", "JSONB_BUILD_OBJECT", "NOW",
	"REGEXP_REPLACE", "STRING_AGG", "TO_CHAR", "TO_TIMESTAMP",
}

var oracleKeywords = []string{
	"CONNECT", "DUAL", "EXCEPTION", "LOOP", "MINUS", "NOCOPY", "NUMBER", "PACKAGE", "PRAGMA",
	"PRIOR", "RAISE", "ROWID", "ROWNUM", "SEQUENCE", "SYNONYM", "SYSDATE", "VARCHAR2",
}

var oracleFunctions = []string{
	"DECODE", "INSTR", "LISTAGG", "NVL", "NVL2", "SYS_CONTEXT", "TO_CHAR", "TO_DATE", "TO_NUMBER",
	"TRUNC",
}

var h2Keywords = []string{
	"IDENTITY", "ILIKE", "INTERSECTS", "MINUS", "QUALIFY", "REGEXP", "ROWNUM", "SYSDATE", "TOP",
}

var mysqlKeywords = []string{
	"AUTO_INCREMENT", "CHANGE", "DATABASES", "DELAYED", "DUAL", "ENGINE", "FULLTEXT", "IGNORE",
	"LOCK", "LOW_PRIORITY", "PROCESSLIST", "REGEXP", "RLIKE", "SCHEMAS", "SQL_CALC_FOUND_ROWS",
	"STATUS", "STRAIGHT_JOIN", "TABLES", "TINYINT", "UNSIGNED", "USE", "VARIABLES", "ZEROFILL",
}

var mysqlFunctions = []string{
	"DATE_FORMAT", "FROM_UNIXTIME", "GROUP_CONCAT", "IFNULL", "JSON_EXTRACT", "LAST_INSERT_ID",
	"NOW", "STR_TO_DATE", "UNIX_TIMESTAMP",
}

var mssqlKeywords = []string{
	"BACKUP", "BREAK", "CHECKPOINT", "CLUSTERED", "DBCC", "DENY", "FILLFACTOR", "GO", "HOLDLOCK",
	"IDENTITY_INSERT", "NOCHECK", "NONCLUSTERED", "NVARCHAR", "PRINT", "RAISERROR", "TOP", "TRAN",
	"WAITFOR",
}

var sqliteKeywords = []string{
	"ABORT", "AUTOINCREMENT", "ATTACH", "CONFLICT", "DETACH", "GLOB", "INDEXED", "ISNULL",
	"NOTNULL", "PRAGMA", "RAISE", "REINDEX", "ROWID", "TEMP", "VACUUM", "VIRTUAL", "WITHOUT",
}

var verticaKeywords = []string{
	"ANALYZE_STATISTICS", "COPY", "ENCODED", "EXPORT", "ILIKE", "KSAFE", "PROJECTION", "SEGMENTED",
	"UNSEGMENTED",
}

var clickhouseKeywords = []string{
	"ARRAY", "ATTACH", "DETACH", "ENGINE", "FINAL", "FORMAT", "GLOBAL", "OPTIMIZE", "PREWHERE",
	"SAMPLE", "SETTINGS", "TTL",
}

var clickhouseFunctions = []string{
	"arrayJoin", "countIf", "groupArray", "toDate", "toDateTime", "toStartOfDay", "uniq",
	"uniqExact",
}
