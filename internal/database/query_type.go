package database

import "strings"

var queryPrefixes = map[string]bool{
	"SELECT":   true,
	"WITH":     true,
	"VALUES":   true,
	"TABLE":    true,
	"SHOW":     true,
	"EXPLAIN":  true,
	"DESCRIBE": true,
	"DESC":     true,
	"PRAGMA":   true,
}

// QueryExecType returns the upper-cased leading keyword of a statement
// and whether the statement returns rows. sqlstr is consulted when
// prefix is empty.
func QueryExecType(prefix, sqlstr string) (string, bool) {
	if strings.TrimSpace(prefix) == "" {
		prefix = sqlstr
	}
	fields := strings.FieldsFunc(prefix, func(r rune) bool {
		return r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '('
	})
	if len(fields) == 0 {
		return "", false
	}
	first := strings.ToUpper(fields[0])
	return first, queryPrefixes[first]
}
