package formatting

import (
	"encoding/json"
	"strconv"
	"strings"
)

// FlexInt decodes a JSON value that may be a number, a numeric string, or
// null into an optional integer. Model output does not reliably distinguish
// `"month": 1` from `"month": "1"`.
type FlexInt struct {
	Value int
	Set   bool
}

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexInt) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" || s == `""` {
		return nil
	}

	s = strings.Trim(s, `"`)
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		// Tolerate floats like 2024.0 before giving up.
		if fv, ferr := strconv.ParseFloat(s, 64); ferr == nil {
			f.Value = int(fv)
			f.Set = true
			return nil
		}
		return nil
	}

	f.Value = n
	f.Set = true
	return nil
}

// Ptr returns the value as an optional pointer.
func (f FlexInt) Ptr() *int {
	if !f.Set {
		return nil
	}
	v := f.Value
	return &v
}

// FlexString decodes a JSON value that may be a string, a number, or null
// into an optional string.
type FlexString struct {
	Value string
	Set   bool
}

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexString) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		return nil
	}

	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		// A bare number; keep its textual form.
		str = s
	}

	str = strings.TrimSpace(str)
	if str == "" {
		return nil
	}

	f.Value = str
	f.Set = true
	return nil
}

// Digits returns only the decimal digits of s. Identity numbers read from a
// scan may carry dashes or spaces that must not reach the password layer.
func Digits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
