package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"time"
)

// NullText is how SQL NULL is rendered.
const NullText = "NULL"

// ResultSet is a fully read query result, every value rendered as text.
type ResultSet struct {
	Columns []string
	Rows    [][]string
}

// ReadResult drains rows and closes it.
func ReadResult(rows *sql.Rows) (*ResultSet, error) {
	defer rows.Close()
	cols, err := Columns(rows)
	if err != nil {
		return nil, err
	}
	data, err := ScanRows(rows, len(cols))
	if err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("cannot read query rows, %w", err)
	}
	return &ResultSet{Columns: cols, Rows: data}, nil
}

func Columns(rows *sql.Rows) ([]string, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("cannot get query columns, %w", err)
	}
	for i, c := range cols {
		if strings.TrimSpace(c) == "" {
			cols[i] = fmt.Sprintf("col%d", i)
		}
	}
	return cols, nil
}

func ScanRows(rows *sql.Rows, columnLength int) ([][]string, error) {
	stringRows := [][]string{}
	for rows.Next() {
		rowBuffer := make([]any, columnLength)
		for i := range rowBuffer {
			rowBuffer[i] = new(any)
		}
		if err := rows.Scan(rowBuffer...); err != nil {
			return nil, err
		}

		stringRow := make([]string, columnLength)
		for i, buf := range rowBuffer {
			val, err := sqlValToString(*buf.(*any))
			if err != nil {
				return nil, err
			}
			stringRow[i] = val
		}
		stringRows = append(stringRows, stringRow)
	}
	return stringRows, nil
}

func sqlValToString(val any) (string, error) {
	if val == nil {
		return NullText, nil
	}
	if rv := reflect.ValueOf(val); rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return NullText, nil
		}
		val = rv.Elem().Interface()
	}

	switch v := val.(type) {
	case []byte:
		return string(v), nil
	case string:
		return v, nil
	case time.Time:
		return v.Format(time.RFC3339Nano), nil
	case fmt.Stringer:
		return v.String(), nil
	case map[string]any, []any:
		buf, err := json.Marshal(v)
		if err != nil {
			return "", err
		}
		return string(buf), nil
	default:
		return fmt.Sprintf("%v", v), nil
	}
}
