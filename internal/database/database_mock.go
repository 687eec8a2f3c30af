package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sqls-server/sqlsh/dialect"
)

const mockDriver dialect.DatabaseDriver = "mock"

// MockDBRepository serves the MySQL "world" sample database from
// memory. Each operation can be replaced through its Mock field.
type MockDBRepository struct {
	MockMetadata             func(context.Context) (*dialect.Metadata, error)
	MockCurrentSchema        func(context.Context) (string, error)
	MockListSchemasAndTables func(context.Context) (map[string][]string, error)
	MockListColumns          func(context.Context, string, string) ([]string, error)
	MockDescribeTable        func(context.Context, string, string) ([]*ColumnDesc, error)
	MockExec                 func(context.Context, string) (sql.Result, error)
	MockQuery                func(context.Context, string) (*sql.Rows, error)
}

func NewMockDBRepository(_ *sql.DB) DBRepository {
	return &MockDBRepository{
		MockMetadata: func(ctx context.Context) (*dialect.Metadata, error) {
			return &dialect.Metadata{ProductName: "MySQL", IdentifierQuote: "`"}, nil
		},
		MockCurrentSchema: func(ctx context.Context) (string, error) { return "world", nil },
		MockListSchemasAndTables: func(ctx context.Context) (map[string][]string, error) {
			res := map[string][]string{}
			for schema, tables := range dummySchemaTables {
				for table := range tables {
					res[schema] = append(res[schema], table)
				}
			}
			return res, nil
		},
		MockListColumns: func(ctx context.Context, schema, table string) ([]string, error) {
			descs, ok := dummySchemaTables[schema][table]
			if !ok {
				return nil, fmt.Errorf("table %s.%s doesn't exist", schema, table)
			}
			cols := make([]string, len(descs))
			for i, desc := range descs {
				cols[i] = desc.Name
			}
			return cols, nil
		},
		MockDescribeTable: func(ctx context.Context, schema, table string) ([]*ColumnDesc, error) {
			descs, ok := dummySchemaTables[schema][table]
			if !ok {
				return nil, fmt.Errorf("table %s.%s doesn't exist", schema, table)
			}
			return descs, nil
		},
		MockExec: func(ctx context.Context, query string) (sql.Result, error) {
			return &MockResult{
				MockLastInsertID: func() (int64, error) { return 11, nil },
				MockRowsAffected: func() (int64, error) { return 22, nil },
			}, nil
		},
		MockQuery: func(ctx context.Context, query string) (*sql.Rows, error) {
			return nil, fmt.Errorf("query is not supported by the mock repository")
		},
	}
}

func (m *MockDBRepository) Driver() dialect.DatabaseDriver {
	return mockDriver
}

func (m *MockDBRepository) ProductName() string {
	return "MySQL"
}

func (m *MockDBRepository) Metadata(ctx context.Context) (*dialect.Metadata, error) {
	return m.MockMetadata(ctx)
}

func (m *MockDBRepository) CurrentSchema(ctx context.Context) (string, error) {
	return m.MockCurrentSchema(ctx)
}

func (m *MockDBRepository) ListSchemasAndTables(ctx context.Context) (map[string][]string, error) {
	return m.MockListSchemasAndTables(ctx)
}

func (m *MockDBRepository) ListColumns(ctx context.Context, schema, table string) ([]string, error) {
	return m.MockListColumns(ctx, schema, table)
}

func (m *MockDBRepository) DescribeTable(ctx context.Context, schema, table string) ([]*ColumnDesc, error) {
	return m.MockDescribeTable(ctx, schema, table)
}

func (m *MockDBRepository) Exec(ctx context.Context, query string) (sql.Result, error) {
	return m.MockExec(ctx, query)
}

func (m *MockDBRepository) Query(ctx context.Context, query string) (*sql.Rows, error) {
	return m.MockQuery(ctx, query)
}

type MockResult struct {
	MockLastInsertID func() (int64, error)
	MockRowsAffected func() (int64, error)
}

func (m *MockResult) LastInsertId() (int64, error) {
	return m.MockLastInsertID()
}

func (m *MockResult) RowsAffected() (int64, error) {
	return m.MockRowsAffected()
}

func dummyColumn(schema, table, name, typ, null, key, extra string) *ColumnDesc {
	return &ColumnDesc{
		Schema: schema,
		Table:  table,
		Name:   name,
		Type:   typ,
		Null:   null,
		Key:    key,
		Extra:  extra,
	}
}

var dummySchemaTables = map[string]map[string][]*ColumnDesc{
	"world": {
		"city": {
			dummyColumn("world", "city", "ID", "int(11)", "NO", "PRI", "auto_increment"),
			dummyColumn("world", "city", "Name", "char(35)", "NO", "", ""),
			dummyColumn("world", "city", "CountryCode", "char(3)", "NO", "MUL", ""),
			dummyColumn("world", "city", "District", "char(20)", "NO", "", ""),
			dummyColumn("world", "city", "Population", "int(11)", "NO", "", ""),
		},
		"country": {
			dummyColumn("world", "country", "Code", "char(3)", "NO", "PRI", ""),
			dummyColumn("world", "country", "Name", "char(52)", "NO", "", ""),
			dummyColumn("world", "country", "Continent", "enum('Asia','Europe')", "NO", "", ""),
			dummyColumn("world", "country", "Region", "char(26)", "NO", "", ""),
			dummyColumn("world", "country", "Population", "int(11)", "NO", "", ""),
		},
		"countrylanguage": {
			dummyColumn("world", "countrylanguage", "CountryCode", "char(3)", "NO", "PRI", ""),
			dummyColumn("world", "countrylanguage", "Language", "char(30)", "NO", "PRI", ""),
			dummyColumn("world", "countrylanguage", "IsOfficial", "enum('T','F')", "NO", "", ""),
			dummyColumn("world", "countrylanguage", "Percentage", "decimal(4,1)", "NO", "", ""),
		},
	},
	"mysql": {
		"user": {
			dummyColumn("mysql", "user", "Host", "char(60)", "NO", "PRI", ""),
			dummyColumn("mysql", "user", "User", "char(32)", "NO", "PRI", ""),
		},
	},
}

func init() {
	RegisterOpen(mockDriver, func(connCfg *DBConfig) (*DBConnection, error) {
		return &DBConnection{Driver: mockDriver}, nil
	})
	RegisterFactory(mockDriver, NewMockDBRepository)
}
