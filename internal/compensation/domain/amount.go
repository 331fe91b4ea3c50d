package compensation

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// MaxAmount is the largest accepted numeric input. Every product of two
// amounts stays finite below it.
const MaxAmount = 1e12

// ParseAmount is the parse-with-fallback step applied to every numeric input.
// It accepts a leading "R$", dot or comma decimal separators, and thousands
// grouping when a comma marks the decimals ("1.234,56") or when the value has
// two or more dot groups ("1.234.567"). A single dot is always a decimal point,
// so "1.234" is 1.234. Anything unparsable, non-finite, negative or above
// MaxAmount yields (0, false), silently masking the bad value.
func ParseAmount(text string) (float64, bool) {
	s := strings.TrimSpace(text)
	s = strings.TrimSpace(strings.TrimPrefix(s, "R$"))
	s = strings.ReplaceAll(s, " ", "")
	if s == "" {
		return 0, false
	}
	s = normalizeSeparators(s)
	value, err := strconv.ParseFloat(s, 64)
	if err != nil || !withinRange(value) {
		return 0, false
	}
	return value, true
}

func withinRange(v float64) bool {
	return !math.IsNaN(v) && v >= 0 && v <= MaxAmount
}

func normalizeSeparators(s string) string {
	comma := strings.LastIndex(s, ",")
	if comma < 0 {
		if dotGrouped(s) {
			return strings.ReplaceAll(s, ".", "")
		}
		return s
	}
	dot := strings.LastIndex(s, ".")
	switch {
	case dot < 0 && strings.Count(s, ",") == 1:
		return strings.Replace(s, ",", ".", 1)
	case dot >= 0 && comma > dot:
		return strings.Replace(strings.ReplaceAll(s, ".", ""), ",", ".", 1)
	case dot >= 0:
		return strings.ReplaceAll(s, ",", "")
	}
	return s
}

// dotGrouped reports whether s is digits split by two or more dots into
// groups of three after the first, as in "1.234.567".
func dotGrouped(s string) bool {
	groups := strings.Split(s, ".")
	if len(groups) < 3 || len(groups[0]) == 0 || len(groups[0]) > 3 {
		return false
	}
	for i, group := range groups {
		if i > 0 && len(group) != 3 {
			return false
		}
		for _, r := range group {
			if r < '0' || r > '9' {
				return false
			}
		}
	}
	return true
}

// LooseFloat decodes any JSON value into a non-negative number. It never fails;
// values that cannot be read as an amount become 0 with Invalid set.
type LooseFloat struct {
	Value   float64
	Invalid bool
}

// Float returns a present, valid amount.
func Float(v float64) *LooseFloat {
	if !withinRange(v) {
		return &LooseFloat{Invalid: true}
	}
	return &LooseFloat{Value: v}
}

// FloatFromText parses form text; empty text is treated as absent.
func FloatFromText(text string) *LooseFloat {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	value, ok := ParseAmount(text)
	return &LooseFloat{Value: value, Invalid: !ok}
}

// UnmarshalJSON implements json.Unmarshaler.
func (f *LooseFloat) UnmarshalJSON(data []byte) error {
	raw := bytes.TrimSpace(data)
	*f = LooseFloat{}
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	var text string
	switch raw[0] {
	case '"':
		if err := json.Unmarshal(raw, &text); err != nil {
			f.Invalid = true
			return nil
		}
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		text = string(raw)
	default:
		f.Invalid = true
		return nil
	}
	value, ok := ParseAmount(text)
	f.Value = value
	f.Invalid = !ok
	return nil
}

// MarshalJSON implements json.Marshaler.
func (f LooseFloat) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.Value)
}

// LooseString decodes JSON strings, numbers and booleans into text.
type LooseString string

// String returns a present string field.
func String(s string) *LooseString {
	v := LooseString(s)
	return &v
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *LooseString) UnmarshalJSON(data []byte) error {
	raw := bytes.TrimSpace(data)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		*s = ""
		return nil
	}
	if raw[0] == '"' {
		var text string
		if err := json.Unmarshal(raw, &text); err != nil {
			*s = ""
			return nil
		}
		*s = LooseString(text)
		return nil
	}
	if raw[0] == '{' || raw[0] == '[' {
		*s = ""
		return nil
	}
	*s = LooseString(raw)
	return nil
}

func (s *LooseString) value() string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(string(*s))
}
