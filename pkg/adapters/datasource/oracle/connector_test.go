package oracle

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ekaya-inc/askdb/pkg/adapters/datasource"
	"github.com/ekaya-inc/askdb/pkg/models"
)

func newTestConnector(t *testing.T) (*Connector, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	cfg := &Config{ConnString: "oracle://u:p@localhost:1521/XEPDB1"}
	conn := newConnector(cfg, func(string, string) (*sql.DB, error) { return db, nil }, zaptest.NewLogger(t))
	return conn, mock
}

func TestConnector_ListTables(t *testing.T) {
	conn, mock := newTestConnector(t)
	mock.ExpectQuery(regexp.QuoteMeta(listTablesQuery)).WillReturnRows(
		sqlmock.NewRows([]string{"TABLE_NAME"}).
			AddRow("CUSTOMERS_59C96545").
			AddRow("ORDERS_0A1B2C3D"))
	mock.ExpectClose()

	tables, err := conn.ListTables(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"CUSTOMERS_59C96545", "ORDERS_0A1B2C3D"}, tables)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConnector_ListColumns(t *testing.T) {
	conn, mock := newTestConnector(t)
	mock.ExpectQuery(`FROM user_tab_columns c`).WillReturnRows(
		sqlmock.NewRows([]string{"COLUMN_NAME", "DATA_TYPE", "NULLABLE", "IS_UNIQUE", "COMMENTS"}).
			AddRow("ID", "NUMBER", "N", 1, nil).
			AddRow("SALARY", "NUMBER", "Y", 0, "الراتب الشهري").
			AddRow("JOB_TITLE", "VARCHAR2", "Y", 0, "").
			AddRow("HIRED_AT", "TIMESTAMP(6)", "Y", 0, nil).
			AddRow("NOTES", "CLOB", "Y", 0, nil))
	mock.ExpectClose()

	cols, err := conn.ListColumns(context.Background(), "employees_1a2b3c4d")
	require.NoError(t, err)
	require.Len(t, cols, 5)

	assert.Equal(t, "ID", cols[0].Name)
	assert.True(t, cols[0].IsUnique)
	assert.False(t, cols[0].IsNull)

	assert.Equal(t, "الراتب الشهري", cols[1].Description)
	assert.True(t, cols[1].Supports(models.AggregationAvg))

	assert.True(t, cols[2].Groupable)
	assert.True(t, cols[3].IsRange)
	assert.False(t, cols[3].Supports(models.AggregationSum))
	assert.False(t, cols[4].Groupable)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConnector_ListForeignKeys(t *testing.T) {
	conn, mock := newTestConnector(t)
	mock.ExpectQuery(`c.constraint_type = 'R'`).WillReturnRows(
		sqlmock.NewRows([]string{"COLUMN_NAME", "TABLE_NAME", "COLUMN_NAME"}).
			AddRow("CUSTOMER_ID", "CUSTOMERS_59C96545", "ID"))
	mock.ExpectClose()

	fks, err := conn.ListForeignKeys(context.Background(), "ORDERS_0A1B2C3D")
	require.NoError(t, err)
	assert.Equal(t, []models.ForeignKeyColumn{{Name: "CUSTOMER_ID", ReferencedTable: "CUSTOMERS_59C96545", ReferencedColumn: "ID"}}, fks)
}

func TestConnector_Execute(t *testing.T) {
	conn, mock := newTestConnector(t)
	hired := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRowsWithColumnDefinition(
		sqlmock.NewColumn("JOB_TITLE").OfType("VARCHAR2", ""),
		sqlmock.NewColumn("AVG_SALARY").OfType("NUMBER", 0),
		sqlmock.NewColumn("FIRST_HIRE").OfType("DATE", time.Time{}),
	).AddRow("Engineer", "5250.5", hired)
	mock.ExpectQuery(`SELECT "JOB_TITLE"`).WillReturnRows(rows)
	mock.ExpectClose()

	rs, err := conn.Execute(context.Background(),
		`SELECT "JOB_TITLE", AVG("SALARY") AS AVG_SALARY, MIN("HIRED_AT") AS FIRST_HIRE FROM "EMPLOYEES_1A2B3C4D" GROUP BY "JOB_TITLE"`,
		nil, 100)
	require.NoError(t, err)
	require.Len(t, rs.Rows, 1)
	assert.Equal(t, models.StringValue("Engineer"), rs.Rows[0][0])
	assert.Equal(t, models.NumberValue(5250.5), rs.Rows[0][1])
	assert.Equal(t, models.TimestampValue(hired), rs.Rows[0][2])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQuoteIdentifier(t *testing.T) {
	conn := NewConnector(&Config{ConnString: "oracle://u:p@h:1521/s"}, nil)
	assert.Equal(t, `"CUSTOMERS_59C96545"`, conn.QuoteIdentifier("CUSTOMERS_59C96545"))
	assert.Equal(t, `"A""B"`, conn.QuoteIdentifier(`A"B`))
	assert.Equal(t, datasource.DialectOracle, conn.Dialect())
}

func TestFromProfile(t *testing.T) {
	cfg, err := FromProfile(models.ConnectionProfile{
		Host:     "db.example.com",
		Database: "ORCLPDB1",
		Username: "hr",
		Password: "secret",
		Options:  map[string]string{"ssl": "false"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1521, cfg.Port)
	assert.Equal(t, "false", cfg.URLOptions["SSL"])

	dsn := cfg.DSN()
	assert.Contains(t, dsn, "oracle://")
	assert.Contains(t, dsn, "db.example.com:1521")
	assert.Contains(t, dsn, "ORCLPDB1")

	_, err = FromProfile(models.ConnectionProfile{Host: "h", Username: "u"})
	require.Error(t, err)

	sidOnly, err := FromProfile(models.ConnectionProfile{Host: "h", Username: "u", Options: map[string]string{"sid": "XE"}})
	require.NoError(t, err)
	assert.Equal(t, "XE", sidOnly.URLOptions["SID"])
}
