package datasource

import (
	"database/sql/driver"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ekaya-inc/askdb/pkg/models"
)

// ConvertValue turns a driver-native cell into a models.Value.
// Temporal values become timestamps, byte slices become text (invalid UTF-8
// sequences are replaced), and every Go numeric type becomes a number.
func ConvertValue(raw any) models.Value {
	switch v := raw.(type) {
	case nil:
		return models.NullValue()
	case models.Value:
		return v
	case string:
		return models.StringValue(v)
	case []byte:
		return models.StringValue(bytesToText(v))
	case bool:
		return models.BoolValue(v)
	case time.Time:
		return models.TimestampValue(v)
	case int:
		return models.NumberValue(float64(v))
	case int8:
		return models.NumberValue(float64(v))
	case int16:
		return models.NumberValue(float64(v))
	case int32:
		return models.NumberValue(float64(v))
	case int64:
		return models.NumberValue(float64(v))
	case uint:
		return models.NumberValue(float64(v))
	case uint8:
		return models.NumberValue(float64(v))
	case uint16:
		return models.NumberValue(float64(v))
	case uint32:
		return models.NumberValue(float64(v))
	case uint64:
		return models.NumberValue(float64(v))
	case float32:
		return models.NumberValue(float64(v))
	case float64:
		return models.NumberValue(v)
	case *big.Int:
		if v == nil {
			return models.NullValue()
		}
		f, _ := new(big.Float).SetInt(v).Float64()
		return models.NumberValue(f)
	case *big.Float:
		if v == nil {
			return models.NullValue()
		}
		f, _ := v.Float64()
		return models.NumberValue(f)
	case driver.Valuer:
		inner, err := v.Value()
		if err != nil {
			return models.StringValue(fmt.Sprint(raw))
		}
		if _, again := inner.(driver.Valuer); again {
			return models.StringValue(fmt.Sprint(inner))
		}
		return ConvertValue(inner)
	case fmt.Stringer:
		return models.StringValue(v.String())
	default:
		return models.StringValue(fmt.Sprint(v))
	}
}

// ConvertTypedValue converts a cell knowing its column family. Drivers that
// deliver DECIMAL or NUMBER as text have that text parsed into a number.
func ConvertTypedValue(raw any, family TypeFamily) models.Value {
	v := ConvertValue(raw)
	if family == FamilyNumeric && v.Kind == models.KindString {
		if f, ok := ParseNumber(v.Str); ok {
			return models.NumberValue(f)
		}
	}
	return v
}

// ParseNumber parses decimal text as delivered by drivers for exact numerics.
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func bytesToText(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}
	return strings.ToValidUTF8(string(b), string(utf8.RuneError))
}
