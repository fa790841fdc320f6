package mssql

import (
	"strings"

	mssqldb "github.com/microsoft/go-mssqldb"

	"github.com/ekaya-inc/askdb/pkg/adapters/datasource"
	"github.com/ekaya-inc/askdb/pkg/models"
)

// parseSchemaTable splits [schema].[table] or schema.table.
// A bare table name gets defaultSchema.
func parseSchemaTable(tableName, defaultSchema string) (string, string) {
	cleaned := strings.ReplaceAll(tableName, "[", "")
	cleaned = strings.ReplaceAll(cleaned, "]", "")

	parts := strings.Split(cleaned, ".")
	if len(parts) >= 2 {
		return parts[len(parts)-2], parts[len(parts)-1]
	}
	return defaultSchema, cleaned
}

// quoteName brackets an identifier the way QUOTENAME does, escaping ] as ]].
func quoteName(identifier string) string {
	return "[" + strings.ReplaceAll(identifier, "]", "]]") + "]"
}

// familyOf maps SQL Server type names to families.
func familyOf(sqlServerType string) datasource.TypeFamily {
	switch strings.ToUpper(sqlServerType) {
	case "TINYINT", "SMALLINT", "INT", "BIGINT",
		"DECIMAL", "NUMERIC", "MONEY", "SMALLMONEY",
		"FLOAT", "REAL":
		return datasource.FamilyNumeric
	case "DATE", "TIME", "DATETIME", "DATETIME2",
		"SMALLDATETIME", "DATETIMEOFFSET":
		return datasource.FamilyTemporal
	case "CHAR", "NCHAR", "VARCHAR", "NVARCHAR", "BIT", "UNIQUEIDENTIFIER":
		return datasource.FamilyCategorical
	case "TEXT", "NTEXT", "XML", "JSON", "SQL_VARIANT":
		return datasource.FamilyLargeText
	case "BINARY", "VARBINARY", "IMAGE", "TIMESTAMP", "ROWVERSION", "GEOGRAPHY", "GEOMETRY":
		return datasource.FamilyBinary
	}
	return datasource.FamilyForType(sqlServerType)
}

// convertHook renders UNIQUEIDENTIFIER columns, which the driver returns as
// raw bytes in SQL Server's mixed-endian layout.
func convertHook(typeName string, raw any) (models.Value, bool) {
	if !strings.EqualFold(typeName, "UNIQUEIDENTIFIER") {
		return models.Value{}, false
	}
	b, ok := raw.([]byte)
	if !ok {
		return models.Value{}, false
	}
	var id mssqldb.UniqueIdentifier
	if err := id.Scan(b); err != nil {
		return models.Value{}, false
	}
	return models.StringValue(id.String()), true
}
