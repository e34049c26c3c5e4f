package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// ValueKind discriminates the cell variants carried through reshape and aggregation.
type ValueKind uint8

const (
	KindMissing ValueKind = iota
	KindNumeric
	KindText
)

// String returns the lowercase kind name.
func (k ValueKind) String() string {
	switch k {
	case KindNumeric:
		return "numeric"
	case KindText:
		return "text"
	default:
		return "missing"
	}
}

// Value is an operator measurement cell. Only the Numeric variant takes part
// in ranking; Text values survive reshaping so they can still be displayed.
//
// JSON encoding is a number, a string or null for the three kinds.
type Value struct {
	kind ValueKind
	num  float64
	text string
}

// Numeric returns a numeric value. NaN and infinities collapse to Missing.
func Numeric(f float64) Value {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Value{}
	}
	return Value{kind: KindNumeric, num: f}
}

// Text returns a text value. An empty string is Missing.
func Text(s string) Value {
	if s == "" {
		return Value{}
	}
	return Value{kind: KindText, text: s}
}

// Missing returns the missing value.
func Missing() Value { return Value{} }

func (v Value) Kind() ValueKind { return v.kind }
func (v Value) IsNumeric() bool { return v.kind == KindNumeric }
func (v Value) IsMissing() bool { return v.kind == KindMissing }
func (v Value) IsText() bool { return v.kind == KindText }

// Float returns the numeric payload and whether the value is numeric.
func (v Value) Float() (float64, bool) {
	return v.num, v.kind == KindNumeric
}

// String renders the value for display.
func (v Value) String() string {
	switch v.kind {
	case KindNumeric:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindText:
		return v.text
	default:
		return ""
	}
}

// Equal reports whether two values have the same kind and payload.
func (v Value) Equal(o Value) bool {
	return v.kind == o.kind && v.num == o.num && v.text == o.text
}

// MarshalJSON implements json.Marshaler.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNumeric:
		return json.Marshal(v.num)
	case KindText:
		return json.Marshal(v.text)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*v = Missing()
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = Text(s)
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("value must be a number, string or null: %w", err)
	}
	*v = Numeric(f)
	return nil
}
