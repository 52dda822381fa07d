package types

import (
	"encoding/json"
	"strconv"
	"strings"
)

// ValueKind discriminates the closed set of scalar kinds a record cell can hold.
type ValueKind uint8

const (
	KindNull ValueKind = iota
	KindString
	KindNumber
)

// Value is a tagged scalar: string, number, or null. Keeping the variant
// closed preserves comparator dispatch safety for dynamically shaped rows.
type Value struct {
	Kind ValueKind `json:"-"`
	Str  string    `json:"-"`
	Num  float64   `json:"-"`
}

// Null is the zero Value.
var Null = Value{}

// String wraps a string scalar.
func String(s string) Value { return Value{Kind: KindString, Str: s} }

// Number wraps a numeric scalar.
func Number(f float64) Value { return Value{Kind: KindNumber, Num: f} }

// IsNull reports whether the value is null. Empty and whitespace-only strings
// count as null so sparse inputs behave uniformly.
func (v Value) IsNull() bool {
	if v.Kind == KindNull {
		return true
	}
	return v.Kind == KindString && strings.TrimSpace(v.Str) == ""
}

// Text returns a canonical string form: the string itself, or the shortest
// decimal representation for numbers. Null yields "".
func (v Value) Text() string {
	switch v.Kind {
	case KindString:
		return v.Str
	case KindNumber:
		return strconv.FormatFloat(v.Num, 'f', -1, 64)
	default:
		return ""
	}
}

// Float returns the numeric form if the value is a number or a string that
// parses as one.
func (v Value) Float() (float64, bool) {
	switch v.Kind {
	case KindNumber:
		return v.Num, true
	case KindString:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.Str), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// MarshalJSON encodes the value as its bare scalar.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindString:
		return json.Marshal(v.Str)
	case KindNumber:
		return json.Marshal(v.Num)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON decodes null, numbers, and strings; any other JSON type is
// flattened to its string form.
func (v *Value) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		*v = Null
		return nil
	}
	if s != "" && (s[0] == '"') {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		*v = String(str)
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err == nil {
		*v = Number(f)
		return nil
	}
	*v = String(s)
	return nil
}

// Record is one row: an ordered-by-name mapping from column to scalar value.
// Records are identified by their positional index in the input sequence and
// are immutable once ingested.
type Record map[string]Value

// Get returns the value for a column; missing keys read as null.
func (r Record) Get(col string) Value {
	v, ok := r[col]
	if !ok {
		return Null
	}
	return v
}

// NullCount returns how many of the given columns are null or empty on this
// record. Used for canonical-record selection.
func (r Record) NullCount(cols []MappedColumn) int {
	n := 0
	for _, c := range cols {
		if !c.IsMatchField() {
			continue
		}
		if r.Get(c.SourceColumn).IsNull() {
			n++
		}
	}
	return n
}
