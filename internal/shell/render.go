package shell

import (
	"database/sql"
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"
	"github.com/sqls-server/sqlsh/internal/database"
)

func renderTable(w io.Writer, columns []string, rows [][]string) error {
	table := tablewriter.NewWriter(w)
	headers := make([]any, len(columns))
	for i, v := range columns {
		headers[i] = v
	}
	table.Header(headers...)
	for _, stringRow := range rows {
		row := make([]any, len(stringRow))
		for i, v := range stringRow {
			row[i] = v
		}
		if err := table.Append(row...); err != nil {
			return err
		}
	}
	return table.Render()
}

func renderResultSet(w io.Writer, rs *database.ResultSet) error {
	if err := renderTable(w, rs.Columns, rs.Rows); err != nil {
		return err
	}
	fmt.Fprintf(w, "%d rows in set", len(rs.Rows))
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "")
	return nil
}

func renderExecResult(w io.Writer, result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Query OK, %d row affected", rowsAffected)
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "")
	return nil
}

func renderColumnDescs(w io.Writer, descs []*database.ColumnDesc) error {
	rows := make([][]string, 0, len(descs))
	for _, d := range descs {
		def := database.NullText
		if d.Default.Valid {
			def = d.Default.String
		}
		rows = append(rows, []string{d.Name, d.Type, d.Null, d.Key, def, d.Extra})
	}
	if err := renderTable(w, []string{"Field", "Type", "Null", "Key", "Default", "Extra"}, rows); err != nil {
		return err
	}
	fmt.Fprintf(w, "%d rows in set", len(rows))
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "")
	return nil
}
