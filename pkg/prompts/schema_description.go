package prompts

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/ekaya-inc/askdb/pkg/apperrors"
	"github.com/ekaya-inc/askdb/pkg/models"
)

// ColumnDescription is the generation-context view of one column.
type ColumnDescription struct {
	Name        string `json:"name"`
	DataType    string `json:"data_type"`
	Description string `json:"description,omitempty"`
}

// TableDescription is the generation-context view of one table.
type TableDescription struct {
	Name    string              `json:"name"`
	Columns []ColumnDescription `json:"columns"`
}

// SchemaDescription lists tables and their columns in source order.
type SchemaDescription struct {
	Tables []TableDescription
}

// DescribeSchema renders the structural description used as generation context.
// Table and column order follow the input. Tables without a name or with
// duplicate column names are rejected.
func DescribeSchema(tables []models.TableSchema) (SchemaDescription, error) {
	desc := SchemaDescription{Tables: make([]TableDescription, 0, len(tables))}
	seenTables := make(map[string]struct{}, len(tables))

	for _, t := range tables {
		if err := t.Validate(); err != nil {
			return SchemaDescription{}, fmt.Errorf("%w: %v", apperrors.ErrInvalidInput, err)
		}
		if _, dup := seenTables[t.Name]; dup {
			return SchemaDescription{}, fmt.Errorf("%w: duplicate table %s", apperrors.ErrInvalidInput, t.Name)
		}
		seenTables[t.Name] = struct{}{}

		td := TableDescription{Name: t.Name, Columns: make([]ColumnDescription, 0, len(t.Columns))}
		for _, c := range t.Columns {
			td.Columns = append(td.Columns, ColumnDescription{
				Name:        c.Name,
				DataType:    c.DataType,
				Description: c.Description,
			})
		}
		desc.Tables = append(desc.Tables, td)
	}

	return desc, nil
}

// TableNames returns the described table names in order.
func (d SchemaDescription) TableNames() []string {
	names := make([]string, len(d.Tables))
	for i, t := range d.Tables {
		names[i] = t.Name
	}
	return names
}

// MarshalJSON encodes the description as an object keyed by table name whose
// keys appear in table order.
func (d SchemaDescription) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, t := range d.Tables {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(t.Name)
		if err != nil {
			return nil, err
		}
		cols, err := json.Marshal(t.Columns)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(cols)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// JSON returns the indented JSON form embedded in prompts. Identical input
// always yields identical bytes.
func (d SchemaDescription) JSON() (string, error) {
	raw, err := d.MarshalJSON()
	if err != nil {
		return "", err
	}
	var out bytes.Buffer
	if err := json.Indent(&out, raw, "", "  "); err != nil {
		return "", err
	}
	return out.String(), nil
}
