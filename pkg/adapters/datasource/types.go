package datasource

import (
	"strings"

	"github.com/ekaya-inc/askdb/pkg/models"
)

// TypeFamily groups native column types by what can be computed over them.
type TypeFamily int

const (
	FamilyCategorical TypeFamily = iota
	FamilyNumeric
	FamilyTemporal
	FamilyLargeText
	FamilyBinary
)

func (f TypeFamily) String() string {
	switch f {
	case FamilyNumeric:
		return "numeric"
	case FamilyTemporal:
		return "temporal"
	case FamilyLargeText:
		return "large_text"
	case FamilyBinary:
		return "binary"
	default:
		return "categorical"
	}
}

// Capabilities are the column flags implied by a type family.
type Capabilities struct {
	IsRange      bool
	Groupable    bool
	Aggregations []models.AggregationOp
}

// Classify returns the capability flags for a family.
func Classify(f TypeFamily) Capabilities {
	switch f {
	case FamilyNumeric:
		return Capabilities{
			IsRange: true,
			Aggregations: []models.AggregationOp{
				models.AggregationSum, models.AggregationAvg,
				models.AggregationMin, models.AggregationMax,
				models.AggregationCount,
			},
		}
	case FamilyTemporal:
		return Capabilities{
			IsRange: true,
			Aggregations: []models.AggregationOp{
				models.AggregationMin, models.AggregationMax, models.AggregationCount,
			},
		}
	case FamilyCategorical:
		return Capabilities{
			Groupable:    true,
			Aggregations: []models.AggregationOp{models.AggregationCount},
		}
	default:
		return Capabilities{Aggregations: []models.AggregationOp{models.AggregationCount}}
	}
}

// NewTableColumn builds a TableColumn whose capability flags follow the family.
func NewTableColumn(name, dataType string, family TypeFamily, nullable, unique bool) models.TableColumn {
	caps := Classify(family)
	return models.TableColumn{
		Name:         name,
		DataType:     dataType,
		IsNull:       nullable,
		IsUnique:     unique,
		IsRange:      caps.IsRange,
		Groupable:    caps.Groupable,
		Aggregations: caps.Aggregations,
	}
}

// FamilyForType maps a native type name to its family using names common to
// the supported backends. Precision suffixes such as "(10,2)" are ignored.
// Dialects with their own spellings check those first and fall back here.
func FamilyForType(typeName string) TypeFamily {
	t := strings.ToUpper(strings.TrimSpace(typeName))
	if i := strings.IndexByte(t, '('); i >= 0 {
		t = strings.TrimSpace(t[:i])
	}

	switch {
	case t == "":
		return FamilyCategorical
	case strings.HasPrefix(t, "TIMESTAMP"), strings.HasPrefix(t, "DATETIME"),
		t == "DATE", t == "TIME", t == "TIMETZ", t == "TIMESTAMPTZ", t == "SMALLDATETIME",
		strings.HasPrefix(t, "INTERVAL"), t == "YEAR":
		return FamilyTemporal
	}

	switch t {
	case "NUMBER", "NUMERIC", "DECIMAL", "DEC",
		"INT", "INTEGER", "SMALLINT", "TINYINT", "MEDIUMINT", "BIGINT",
		"INT2", "INT4", "INT8", "SERIAL", "BIGSERIAL", "SMALLSERIAL",
		"FLOAT", "FLOAT4", "FLOAT8", "REAL", "DOUBLE", "DOUBLE PRECISION",
		"BINARY_FLOAT", "BINARY_DOUBLE", "MONEY", "SMALLMONEY":
		return FamilyNumeric
	case "CLOB", "NCLOB", "LONG", "TEXT", "NTEXT", "MEDIUMTEXT", "LONGTEXT",
		"JSON", "JSONB", "XML", "XMLTYPE":
		return FamilyLargeText
	case "BLOB", "BYTEA", "RAW", "LONG RAW", "BINARY", "VARBINARY", "IMAGE",
		"TINYBLOB", "MEDIUMBLOB", "LONGBLOB", "BFILE":
		return FamilyBinary
	}
	return FamilyCategorical
}
