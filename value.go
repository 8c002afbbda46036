package configcat

import (
	"fmt"
	"math"
	"strconv"

	"github.com/configcat/go-sdk/v9/internal/wireconfig"
)

// ValueKind reports which type of value a Value holds.
type ValueKind int

const (
	// InvalidKind is the kind of the zero Value.
	InvalidKind ValueKind = iota
	BoolKind
	IntKind
	FloatKind
	StringKind
)

var valueKindStrings = []string{
	InvalidKind: "invalid",
	BoolKind:    "bool",
	IntKind:     "int",
	FloatKind:   "float",
	StringKind:  "string",
}

func (kind ValueKind) String() string {
	if kind < 0 || int(kind) >= len(valueKindStrings) {
		return "ValueKind(" + strconv.Itoa(int(kind)) + ")"
	}
	return valueKindStrings[kind]
}

// Value holds the value of a feature flag or setting: a bool, an int,
// a float64 or a string. The zero Value is invalid.
type Value struct {
	kind ValueKind
	b    bool
	i    int
	f    float64
	s    string
}

// BoolValue returns a Value holding v.
func BoolValue(v bool) Value {
	return Value{kind: BoolKind, b: v}
}

// IntValue returns a Value holding v.
func IntValue(v int) Value {
	return Value{kind: IntKind, i: v}
}

// FloatValue returns a Value holding v.
func FloatValue(v float64) Value {
	return Value{kind: FloatKind, f: v}
}

// StringValue returns a Value holding v.
func StringValue(v string) Value {
	return Value{kind: StringKind, s: v}
}

// Kind returns the kind of the value.
func (v Value) Kind() ValueKind {
	return v.kind
}

// IsValid reports whether v holds a value.
func (v Value) IsValid() bool {
	return v.kind != InvalidKind
}

// Bool returns the value and true if v holds a bool.
func (v Value) Bool() (bool, bool) {
	return v.b, v.kind == BoolKind
}

// Int returns the value and true if v holds an int.
func (v Value) Int() (int, bool) {
	return v.i, v.kind == IntKind
}

// Float returns the value and true if v holds a float64.
func (v Value) Float() (float64, bool) {
	return v.f, v.kind == FloatKind
}

// Str returns the value and true if v holds a string.
func (v Value) Str() (string, bool) {
	return v.s, v.kind == StringKind
}

// Interface returns the held value as one of bool, int, float64 or
// string, or nil for an invalid Value.
func (v Value) Interface() interface{} {
	switch v.kind {
	case BoolKind:
		return v.b
	case IntKind:
		return v.i
	case FloatKind:
		return v.f
	case StringKind:
		return v.s
	}
	return nil
}

func (v Value) String() string {
	if v.kind == InvalidKind {
		return "<invalid>"
	}
	return fmt.Sprint(v.Interface())
}

// valueFromWire converts a decoded JSON value to a Value of the given setting type.
func valueFromWire(raw interface{}, entryType wireconfig.EntryType) (Value, error) {
	switch entryType {
	case wireconfig.BoolEntry:
		if b, ok := raw.(bool); ok {
			return BoolValue(b), nil
		}
	case wireconfig.StringEntry:
		if s, ok := raw.(string); ok {
			return StringValue(s), nil
		}
	case wireconfig.IntEntry:
		if f, ok := raw.(float64); ok && f == math.Trunc(f) {
			return IntValue(int(f)), nil
		}
	case wireconfig.FloatEntry:
		if f, ok := raw.(float64); ok {
			return FloatValue(f), nil
		}
	default:
		return Value{}, fmt.Errorf("unknown setting type %d", entryType)
	}
	return Value{}, fmt.Errorf("value %#v does not match setting type %d", raw, entryType)
}
