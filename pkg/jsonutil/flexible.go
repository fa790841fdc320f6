// Package jsonutil helps decode loosely typed JSON produced by language models.
package jsonutil

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// FlexibleStringValue renders a raw JSON value as text. Models asked for a
// string sometimes answer with a number, boolean, list or object; those are
// converted rather than rejected. null and empty input yield "".
func FlexibleStringValue(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}

	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s
		}
	case 't', 'f':
		if b, err := strconv.ParseBool(string(raw)); err == nil {
			return strconv.FormatBool(b)
		}
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err == nil && allScalar(items) {
			parts := make([]string, 0, len(items))
			for _, item := range items {
				if s := FlexibleStringValue(item); s != "" {
					parts = append(parts, s)
				}
			}
			return strings.Join(parts, " ")
		}
	default:
		var n json.Number
		if err := json.Unmarshal(raw, &n); err == nil {
			if i, err := n.Int64(); err == nil {
				return strconv.FormatInt(i, 10)
			}
			if f, err := n.Float64(); err == nil {
				return strconv.FormatFloat(f, 'g', -1, 64)
			}
		}
	}

	var compact bytes.Buffer
	if err := json.Compact(&compact, raw); err == nil {
		return compact.String()
	}
	return string(raw)
}

func allScalar(items []json.RawMessage) bool {
	for _, item := range items {
		item = bytes.TrimSpace(item)
		if len(item) > 0 && (item[0] == '{' || item[0] == '[') {
			return false
		}
	}
	return true
}

// FlexibleString is a string field that accepts any JSON value.
type FlexibleString string

func (s *FlexibleString) UnmarshalJSON(data []byte) error {
	*s = FlexibleString(FlexibleStringValue(data))
	return nil
}

func (s FlexibleString) String() string { return string(s) }
