package datasource

import (
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ekaya-inc/askdb/pkg/models"
)

func TestFamilyForType(t *testing.T) {
	tests := []struct {
		typeName string
		want     TypeFamily
	}{
		{"NUMBER", FamilyNumeric},
		{"number(10,2)", FamilyNumeric},
		{"BIGINT", FamilyNumeric},
		{"double precision", FamilyNumeric},
		{"DATE", FamilyTemporal},
		{"TIMESTAMP(6) WITH TIME ZONE", FamilyTemporal},
		{"datetime2", FamilyTemporal},
		{"VARCHAR2", FamilyCategorical},
		{"NVARCHAR", FamilyCategorical},
		{"CLOB", FamilyLargeText},
		{"jsonb", FamilyLargeText},
		{"BLOB", FamilyBinary},
		{"bytea", FamilyBinary},
		{"", FamilyCategorical},
	}
	for _, tt := range tests {
		t.Run(tt.typeName, func(t *testing.T) {
			assert.Equal(t, tt.want, FamilyForType(tt.typeName))
		})
	}
}

func TestClassify(t *testing.T) {
	numeric := NewTableColumn("AMOUNT", "NUMBER", FamilyNumeric, true, false)
	assert.True(t, numeric.IsRange)
	assert.False(t, numeric.Groupable)
	for _, op := range []models.AggregationOp{models.AggregationSum, models.AggregationAvg, models.AggregationMin, models.AggregationMax, models.AggregationCount} {
		assert.True(t, numeric.Supports(op), op)
	}

	temporal := NewTableColumn("CREATED", "DATE", FamilyTemporal, false, false)
	assert.True(t, temporal.IsRange)
	assert.True(t, temporal.Supports(models.AggregationMax))
	assert.False(t, temporal.Supports(models.AggregationSum))
	assert.False(t, temporal.Supports(models.AggregationAvg))

	category := NewTableColumn("REGION", "VARCHAR2", FamilyCategorical, true, false)
	assert.True(t, category.Groupable)
	assert.False(t, category.IsRange)
	assert.Equal(t, []models.AggregationOp{models.AggregationCount}, category.Aggregations)

	notes := NewTableColumn("NOTES", "CLOB", FamilyLargeText, true, false)
	assert.False(t, notes.Groupable)
	assert.Equal(t, []models.AggregationOp{models.AggregationCount}, notes.Aggregations)

	blob := NewTableColumn("PHOTO", "BLOB", FamilyBinary, true, true)
	assert.False(t, blob.Groupable)
	assert.True(t, blob.IsUnique)
}

type valuer struct{ v string }

func (v valuer) Value() (any, error) { return v.v, nil }

func TestConvertValue(t *testing.T) {
	ts := time.Date(2024, 1, 31, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, models.NullValue(), ConvertValue(nil))
	assert.Equal(t, models.StringValue("abc"), ConvertValue("abc"))
	assert.Equal(t, models.StringValue("héllo"), ConvertValue([]byte("héllo")))
	assert.Equal(t, models.NumberValue(42), ConvertValue(int64(42)))
	assert.Equal(t, models.NumberValue(1.5), ConvertValue(float32(1.5)))
	assert.Equal(t, models.NumberValue(7), ConvertValue(uint8(7)))
	assert.Equal(t, models.BoolValue(true), ConvertValue(true))
	assert.Equal(t, models.TimestampValue(ts), ConvertValue(ts))
	assert.Equal(t, models.NumberValue(12), ConvertValue(big.NewInt(12)))
	assert.Equal(t, models.StringValue("via valuer"), ConvertValue(valuer{"via valuer"}))

	invalid := ConvertValue([]byte{0xff, 'a'})
	assert.Equal(t, models.KindString, invalid.Kind)
	assert.Equal(t, "�a", invalid.Str)
}

func TestConvertTypedValue(t *testing.T) {
	assert.Equal(t, models.NumberValue(1234.5), ConvertTypedValue([]byte("1234.50"), FamilyNumeric))
	assert.Equal(t, models.StringValue("00123"), ConvertTypedValue("00123", FamilyCategorical))
	assert.Equal(t, models.StringValue("n/a"), ConvertTypedValue("n/a", FamilyNumeric))
	assert.Equal(t, models.NullValue(), ConvertTypedValue(nil, FamilyNumeric))
}
