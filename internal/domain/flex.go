package domain

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// FlexFloat decodes a JSON number, a numeric string, or null.
// Valid is false for null, non-numeric strings and non-finite values.
type FlexFloat struct {
	Value float64
	Valid bool
}

// Float builds a FlexFloat. NaN and infinities yield the invalid zero value.
func Float(v float64) FlexFloat {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return FlexFloat{}
	}
	return FlexFloat{Value: v, Valid: true}
}

func (f *FlexFloat) UnmarshalJSON(b []byte) error {
	*f = FlexFloat{}
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	raw := string(b)
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		raw = strings.TrimSpace(s)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		// Non-numeric values decode as invalid rather than failing the document.
		return nil
	}
	*f = Float(v)
	return nil
}

func (f FlexFloat) MarshalJSON() ([]byte, error) {
	if !f.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(f.Value)
}

// Or returns the value when valid, def otherwise.
func (f FlexFloat) Or(def float64) float64 {
	if !f.Valid {
		return def
	}
	return f.Value
}

// FlexString decodes a JSON string, a number, or null into a trimmed string.
type FlexString string

func (s *FlexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0 || bytes.Equal(b, []byte("null")):
		*s = ""
	case b[0] == '"':
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*s = FlexString(strings.TrimSpace(v))
	case b[0] == '-' || (b[0] >= '0' && b[0] <= '9'):
		var n json.Number
		if err := json.Unmarshal(b, &n); err != nil {
			return err
		}
		*s = FlexString(n.String())
	default:
		*s = ""
	}
	return nil
}

func (s FlexString) String() string {
	return string(s)
}
