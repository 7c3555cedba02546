package domain

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ValueKind classifies the content of a single spreadsheet cell
type ValueKind int

const (
	ValueEmpty ValueKind = iota
	ValueText
	ValueNumber
)

// String returns the wire name of the kind
func (k ValueKind) String() string {
	switch k {
	case ValueText:
		return "text"
	case ValueNumber:
		return "number"
	default:
		return "empty"
	}
}

// Value is an immutable snapshot of a cell: text, number or empty.
// Numbers keep the text they were read from so they render unchanged.
type Value struct {
	Kind   ValueKind
	Text   string
	Number decimal.Decimal
}

// Empty returns the empty cell value
func Empty() Value {
	return Value{}
}

// Text returns a text cell value
func Text(s string) Value {
	if s == "" {
		return Empty()
	}
	return Value{Kind: ValueText, Text: s}
}

// Number returns a numeric cell value
func Number(d decimal.Decimal) Value {
	return Value{Kind: ValueNumber, Number: d, Text: d.String()}
}

// ParseValue classifies raw cell text. Surrounding whitespace is ignored
// when deciding the kind, but text values keep their original spelling.
func ParseValue(raw string) Value {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Empty()
	}
	if d, err := decimal.NewFromString(trimmed); err == nil {
		return Value{Kind: ValueNumber, Number: d, Text: trimmed}
	}
	return Value{Kind: ValueText, Text: raw}
}

// ValueOf converts a Go value (as used by in-memory fixtures) into a cell value
func ValueOf(v any) Value {
	switch x := v.(type) {
	case nil:
		return Empty()
	case Value:
		return x
	case string:
		return Text(x)
	case int:
		return Number(decimal.NewFromInt(int64(x)))
	case int64:
		return Number(decimal.NewFromInt(x))
	case float64:
		return Number(decimal.NewFromFloat(x))
	case decimal.Decimal:
		return Number(x)
	default:
		return Text(fmt.Sprint(x))
	}
}

// IsEmpty reports whether the cell holds nothing
func (v Value) IsEmpty() bool {
	return v.Kind == ValueEmpty
}

// String renders the cell as text
func (v Value) String() string {
	switch v.Kind {
	case ValueNumber:
		if v.Text != "" {
			return v.Text
		}
		return v.Number.String()
	case ValueText:
		return v.Text
	default:
		return ""
	}
}

type wireValue struct {
	Kind string `json:"k"`
	Text string `json:"v,omitempty"`
}

// MarshalJSON encodes the value for the worker result channel
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireValue{Kind: v.Kind.String(), Text: v.String()})
}

// UnmarshalJSON decodes a value written by MarshalJSON
func (v *Value) UnmarshalJSON(data []byte) error {
	var w wireValue
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	switch w.Kind {
	case "number":
		d, err := decimal.NewFromString(w.Text)
		if err != nil {
			return fmt.Errorf("invalid number cell %q: %w", w.Text, err)
		}
		*v = Value{Kind: ValueNumber, Number: d, Text: w.Text}
	case "text":
		*v = Value{Kind: ValueText, Text: w.Text}
	case "empty", "":
		*v = Empty()
	default:
		return fmt.Errorf("unknown cell kind %q", w.Kind)
	}
	return nil
}
