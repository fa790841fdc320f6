package models

import (
	"fmt"
	"strings"
)

// AggregationOp is an aggregate function a column may be used with.
type AggregationOp string

const (
	AggregationSum   AggregationOp = "SUM"
	AggregationAvg   AggregationOp = "AVG"
	AggregationMin   AggregationOp = "MIN"
	AggregationMax   AggregationOp = "MAX"
	AggregationCount AggregationOp = "COUNT"
)

// ConnectionProfile describes how to reach a project's database.
// DBType selects the dialect; the remaining fields are interpreted by that dialect.
type ConnectionProfile struct {
	DBType     string            `json:"db_type" yaml:"db_type"`
	ConnString string            `json:"con_string,omitempty" yaml:"con_string"`
	Host       string            `json:"host,omitempty" yaml:"host"`
	Port       int               `json:"port,omitempty" yaml:"port"`
	Database   string            `json:"database,omitempty" yaml:"database"`
	Username   string            `json:"username,omitempty" yaml:"username"`
	Password   string            `json:"-" yaml:"password"`
	SSLMode    string            `json:"ssl_mode,omitempty" yaml:"ssl_mode"`
	Options    map[string]string `json:"options,omitempty" yaml:"options"`
}

// TableColumn is one column of a stored table schema, with capability flags
// derived from its data type.
type TableColumn struct {
	Name         string          `json:"name" yaml:"name"`
	Description  string          `json:"description,omitempty" yaml:"description"`
	DataType     string          `json:"data_type" yaml:"data_type"`
	IsNull       bool            `json:"is_null" yaml:"is_null"`
	IsUnique     bool            `json:"is_unique" yaml:"is_unique"`
	IsRange      bool            `json:"is_range" yaml:"is_range"`
	Groupable    bool            `json:"groupable" yaml:"groupable"`
	Aggregations []AggregationOp `json:"aggregation" yaml:"aggregation"`
}

// Supports reports whether op is permitted on the column.
func (c TableColumn) Supports(op AggregationOp) bool {
	for _, a := range c.Aggregations {
		if a == op {
			return true
		}
	}
	return false
}

// ForeignKeyColumn is a single-column foreign key reference.
type ForeignKeyColumn struct {
	Name             string `json:"name" yaml:"name"`
	ReferencedTable  string `json:"referenced_table" yaml:"referenced_table"`
	ReferencedColumn string `json:"referenced_column" yaml:"referenced_column"`
}

// TableSchema is the stored description of one physical table.
// Name is the physical name and often carries an _xxxxxxxx hash suffix.
type TableSchema struct {
	Name        string             `json:"name" yaml:"name"`
	Description string             `json:"description,omitempty" yaml:"description"`
	Columns     []TableColumn      `json:"columns" yaml:"columns"`
	ForeignKeys []ForeignKeyColumn `json:"foreign_keys,omitempty" yaml:"foreign_keys"`
}

// Validate checks the table has a name and unique column names.
func (t TableSchema) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return fmt.Errorf("table name is required")
	}
	seen := make(map[string]struct{}, len(t.Columns))
	for _, col := range t.Columns {
		if strings.TrimSpace(col.Name) == "" {
			return fmt.Errorf("table %s: column name is required", t.Name)
		}
		key := strings.ToUpper(col.Name)
		if _, dup := seen[key]; dup {
			return fmt.Errorf("table %s: duplicate column %s", t.Name, col.Name)
		}
		seen[key] = struct{}{}
	}
	return nil
}

// Column returns the column with the given name, matched case-insensitively.
func (t TableSchema) Column(name string) (TableColumn, bool) {
	for _, col := range t.Columns {
		if strings.EqualFold(col.Name, name) {
			return col, true
		}
	}
	return TableColumn{}, false
}

// FindTable returns the table with the given name, matched case-insensitively.
func FindTable(tables []TableSchema, name string) (TableSchema, bool) {
	for _, t := range tables {
		if strings.EqualFold(t.Name, name) {
			return t, true
		}
	}
	return TableSchema{}, false
}
