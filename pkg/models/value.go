package models

import (
	"encoding/json"
	"math"
	"strconv"
	"time"
)

// ValueKind identifies which member of a Value is set.
type ValueKind uint8

const (
	KindNull ValueKind = iota
	KindString
	KindNumber
	KindBool
	KindTimestamp
)

func (k ValueKind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "boolean"
	case KindTimestamp:
		return "timestamp"
	default:
		return "null"
	}
}

// Value is a single result cell. Driver-native types never leave the
// datasource layer; they are converted into one of these kinds.
type Value struct {
	Kind ValueKind
	Str  string
	Num  float64
	Bool bool
	Time time.Time
}

func NullValue() Value { return Value{Kind: KindNull} }

func StringValue(s string) Value { return Value{Kind: KindString, Str: s} }

func NumberValue(f float64) Value { return Value{Kind: KindNumber, Num: f} }

func BoolValue(b bool) Value { return Value{Kind: KindBool, Bool: b} }

func TimestampValue(t time.Time) Value { return Value{Kind: KindTimestamp, Time: t} }

// IsNull reports whether the value is SQL NULL.
func (v Value) IsNull() bool { return v.Kind == KindNull }

// IsNumber reports whether the value is numeric.
func (v Value) IsNumber() bool { return v.Kind == KindNumber }

// String renders the value the way it appears in ResultSet rows and markdown.
// NULL renders as an empty string.
func (v Value) String() string {
	switch v.Kind {
	case KindString:
		return v.Str
	case KindNumber:
		return formatNumber(v.Num)
	case KindBool:
		return strconv.FormatBool(v.Bool)
	case KindTimestamp:
		return v.Time.Format(time.RFC3339Nano)
	default:
		return ""
	}
}

// Interface returns the value as a plain Go value suitable for JSON or templates.
func (v Value) Interface() any {
	switch v.Kind {
	case KindString:
		return v.Str
	case KindNumber:
		return v.Num
	case KindBool:
		return v.Bool
	case KindTimestamp:
		return v.Time.Format(time.RFC3339Nano)
	default:
		return nil
	}
}

// MarshalJSON encodes the value as native JSON. Timestamps become ISO-8601 strings
// and non-finite numbers become null.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindString:
		return json.Marshal(v.Str)
	case KindNumber:
		if math.IsNaN(v.Num) || math.IsInf(v.Num, 0) {
			return []byte("null"), nil
		}
		return []byte(formatNumber(v.Num)), nil
	case KindBool:
		return json.Marshal(v.Bool)
	case KindTimestamp:
		return json.Marshal(v.Time.Format(time.RFC3339Nano))
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON decodes native JSON. Strings stay strings; timestamps are not
// recovered since they were transported as text.
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch t := raw.(type) {
	case nil:
		*v = NullValue()
	case string:
		*v = StringValue(t)
	case float64:
		*v = NumberValue(t)
	case bool:
		*v = BoolValue(t)
	default:
		*v = StringValue(string(data))
	}
	return nil
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
