package postgres

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/ekaya-inc/askdb/pkg/adapters/datasource"
	"github.com/ekaya-inc/askdb/pkg/models"
)

// familyOf maps information_schema data_type values and OID type names to a
// family. PostgreSQL text is commonly used for short labels, so it stays
// categorical.
func familyOf(typeName string) datasource.TypeFamily {
	t := strings.ToLower(strings.TrimSpace(typeName))
	switch t {
	case "text", "citext", "character varying", "character", "bpchar", "name",
		"boolean", "bool", "uuid", "user-defined":
		return datasource.FamilyCategorical
	case "array", "tsvector", "xml", "json", "jsonb":
		return datasource.FamilyLargeText
	}
	if strings.HasPrefix(t, "time") || strings.HasPrefix(t, "interval") {
		return datasource.FamilyTemporal
	}
	if strings.HasSuffix(t, "[]") {
		return datasource.FamilyLargeText
	}
	return datasource.FamilyForType(typeName)
}

// typeNameFromOID maps PostgreSQL type OIDs to type names.
// This covers the most common types; unknown types return "UNKNOWN".
func typeNameFromOID(oid uint32) string {
	switch oid {
	case pgtype.BoolOID:
		return "BOOL"
	case pgtype.ByteaOID:
		return "BYTEA"
	case pgtype.QCharOID:
		return "CHAR"
	case pgtype.Int8OID:
		return "INT8"
	case pgtype.Int2OID:
		return "INT2"
	case pgtype.Int4OID:
		return "INT4"
	case pgtype.TextOID:
		return "TEXT"
	case pgtype.JSONOID:
		return "JSON"
	case pgtype.XMLOID:
		return "XML"
	case pgtype.Float4OID:
		return "FLOAT4"
	case pgtype.Float8OID:
		return "FLOAT8"
	case 790:
		return "MONEY"
	case pgtype.BPCharOID:
		return "BPCHAR"
	case pgtype.VarcharOID:
		return "VARCHAR"
	case pgtype.DateOID:
		return "DATE"
	case pgtype.TimeOID:
		return "TIME"
	case pgtype.TimestampOID:
		return "TIMESTAMP"
	case pgtype.TimestamptzOID:
		return "TIMESTAMPTZ"
	case pgtype.IntervalOID:
		return "INTERVAL"
	case pgtype.TimetzOID:
		return "TIMETZ"
	case pgtype.NumericOID:
		return "NUMERIC"
	case pgtype.UUIDOID:
		return "UUID"
	case pgtype.JSONBOID:
		return "JSONB"
	case pgtype.TextArrayOID, pgtype.VarcharArrayOID, pgtype.Int4ArrayOID, pgtype.Int8ArrayOID:
		return "ARRAY"
	default:
		return "UNKNOWN"
	}
}

// unwrapNumeric turns pgtype.Numeric into float64 or nil.
func unwrapNumeric(v any) any {
	n, ok := v.(pgtype.Numeric)
	if !ok {
		return v
	}
	if !n.Valid {
		return nil
	}
	f, err := n.Float64Value()
	if err != nil || !f.Valid {
		return nil
	}
	return f.Float64
}

// convertValue handles the pgx-native types rows.Values returns before
// falling back to the shared conversion.
func convertValue(v any, family datasource.TypeFamily) models.Value {
	switch t := v.(type) {
	case pgtype.Numeric:
		if n := unwrapNumeric(t); n != nil {
			return models.NumberValue(n.(float64))
		}
		return models.NullValue()
	case [16]byte:
		return models.StringValue(uuid.UUID(t).String())
	case pgtype.Time:
		if !t.Valid {
			return models.NullValue()
		}
		clock := time.Time{}.Add(time.Duration(t.Microseconds) * time.Microsecond)
		return models.StringValue(clock.Format("15:04:05.999999"))
	case map[string]any, []any:
		raw, err := json.Marshal(t)
		if err != nil {
			return datasource.ConvertValue(v)
		}
		return models.StringValue(string(raw))
	}
	return datasource.ConvertTypedValue(v, family)
}
