package models

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValue_String(t *testing.T) {
	ts := time.Date(2024, 1, 31, 15, 45, 0, 0, time.UTC)

	tests := []struct {
		name     string
		value    Value
		expected string
	}{
		{"null", NullValue(), ""},
		{"string", StringValue("abc"), "abc"},
		{"integer number", NumberValue(42), "42"},
		{"fractional number", NumberValue(3.25), "3.25"},
		{"large number", NumberValue(1234567890123), "1234567890123"},
		{"bool", BoolValue(true), "true"},
		{"timestamp", TimestampValue(ts), "2024-01-31T15:45:00Z"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.value.String())
		})
	}
}

func TestValue_MarshalJSON(t *testing.T) {
	row := map[string]Value{
		"n":    NumberValue(1.5),
		"s":    StringValue(`quote"d`),
		"b":    BoolValue(false),
		"null": NullValue(),
		"nan":  NumberValue(math.NaN()),
		"ts":   TimestampValue(time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)),
	}

	data, err := json.Marshal(row)
	require.NoError(t, err)
	assert.JSONEq(t, `{"n":1.5,"s":"quote\"d","b":false,"null":null,"nan":null,"ts":"2024-01-31T00:00:00Z"}`, string(data))
}

func TestValue_UnmarshalJSON(t *testing.T) {
	var row map[string]Value
	require.NoError(t, json.Unmarshal([]byte(`{"n":2,"s":"x","b":true,"z":null}`), &row))

	assert.Equal(t, NumberValue(2), row["n"])
	assert.Equal(t, StringValue("x"), row["s"])
	assert.Equal(t, BoolValue(true), row["b"])
	assert.True(t, row["z"].IsNull())
}

func TestValue_Interface(t *testing.T) {
	assert.Nil(t, NullValue().Interface())
	assert.Equal(t, 7.0, NumberValue(7).Interface())
	assert.Equal(t, "x", StringValue("x").Interface())
	assert.True(t, NumberValue(1).IsNumber())
	assert.False(t, StringValue("1").IsNumber())
}
