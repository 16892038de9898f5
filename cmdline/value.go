package cmdline

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
)

// Kind is the tag of a ValueType
type Kind string

const (
	// KindBool indicates a boolean value (true/false, case-insensitive).
	KindBool Kind = "bool"
	// KindInt indicates a signed 64-bit integer.
	KindInt Kind = "int"
	// KindUint indicates an unsigned 64-bit integer.
	KindUint Kind = "uint"
	// KindFloat indicates a float64.
	KindFloat Kind = "float"
	// KindString indicates a pass-through string.
	KindString Kind = "string"
	// KindEnum indicates one member of a named, closed set of strings.
	KindEnum Kind = "enum"
	// KindArray indicates a homogeneous array of another ValueType.
	KindArray Kind = "array"
)

// ValueType is the declared type of an argument. It is a closed variant:
// Bool, Int, Uint, Float, String, Enum(name, members) or Array(elem).
//
// Converted values are represented as bool, int64, uint64, float64, string
// (strings and enum member names) and []any (arrays).
type ValueType struct {
	kind    Kind
	name    string   // enum name
	members []string // enum members
	elem    *ValueType
}

// Scalar value types
var (
	Bool   = ValueType{kind: KindBool}
	Int    = ValueType{kind: KindInt}
	Uint   = ValueType{kind: KindUint}
	Float  = ValueType{kind: KindFloat}
	String = ValueType{kind: KindString}
)

// Enum declares an enumeration type. Members are matched case-sensitively.
func Enum(name string, members ...string) ValueType {
	return ValueType{kind: KindEnum, name: name, members: slices.Clone(members)}
}

// Array declares an array whose elements have the given type.
func Array(elem ValueType) ValueType {
	return ValueType{kind: KindArray, elem: &elem}
}

// Kind returns the variant tag
func (t ValueType) Kind() Kind { return t.kind }

// EnumName returns the name of an enum type, or "" for other kinds
func (t ValueType) EnumName() string { return t.name }

// Members returns the members of an enum type
func (t ValueType) Members() []string { return slices.Clone(t.members) }

// Elem returns the element type of an array type
func (t ValueType) Elem() (ValueType, bool) {
	if t.kind != KindArray || t.elem == nil {
		return ValueType{}, false
	}
	return *t.elem, true
}

// Equal reports whether two value types describe the same type
func (t ValueType) Equal(o ValueType) bool {
	if t.kind != o.kind || t.name != o.name || !slices.Equal(t.members, o.members) {
		return false
	}
	if t.kind == KindArray {
		if t.elem == nil || o.elem == nil {
			return t.elem == o.elem
		}
		return t.elem.Equal(*o.elem)
	}
	return true
}

// String renders the type in the syntax accepted by ParseValueType
func (t ValueType) String() string {
	switch t.kind {
	case KindEnum:
		if t.name != "" {
			return t.name + "(" + strings.Join(t.members, "|") + ")"
		}
		return "enum(" + strings.Join(t.members, "|") + ")"
	case KindArray:
		if t.elem == nil {
			return "[]?"
		}
		return "[]" + t.elem.String()
	case "":
		return "invalid"
	default:
		return string(t.kind)
	}
}

// validate reports structural problems (empty enum, array without element)
func (t ValueType) validate() error {
	switch t.kind {
	case KindBool, KindInt, KindUint, KindFloat, KindString:
		return nil
	case KindEnum:
		if len(t.members) == 0 {
			return fmt.Errorf("enum type %q has no members", t.name)
		}
		for _, m := range t.members {
			if strings.TrimSpace(m) == "" {
				return fmt.Errorf("enum type %q has an empty member", t.name)
			}
		}
		return nil
	case KindArray:
		if t.elem == nil {
			return fmt.Errorf("array type has no element type")
		}
		return t.elem.validate()
	default:
		return fmt.Errorf("unknown value type %q", t.kind)
	}
}

// Zero returns the value used for a named argument declared without a default.
// Enums default to their first member and arrays to an empty array.
func (t ValueType) Zero() any {
	switch t.kind {
	case KindBool:
		return false
	case KindInt:
		return int64(0)
	case KindUint:
		return uint64(0)
	case KindFloat:
		return float64(0)
	case KindString:
		return ""
	case KindEnum:
		if len(t.members) > 0 {
			return t.members[0]
		}
		return ""
	case KindArray:
		return []any{}
	default:
		return nil
	}
}

// ParseValueType parses the textual form used by grammar files:
// bool, int, uint, float, string, enum(a|b|c), name(a|b|c), []T.
func ParseValueType(s string) (ValueType, error) {
	s = strings.TrimSpace(s)
	if rest, ok := strings.CutPrefix(s, "[]"); ok {
		elem, err := ParseValueType(rest)
		if err != nil {
			return ValueType{}, err
		}
		return Array(elem), nil
	}

	switch strings.ToLower(s) {
	case "bool", "boolean":
		return Bool, nil
	case "int", "int64", "integer":
		return Int, nil
	case "uint", "uint64":
		return Uint, nil
	case "float", "float64", "number":
		return Float, nil
	case "string", "":
		return String, nil
	}

	open := strings.IndexByte(s, '(')
	if open > 0 && strings.HasSuffix(s, ")") {
		name := s[:open]
		body := s[open+1 : len(s)-1]
		var members []string
		for _, m := range strings.Split(body, "|") {
			if m = strings.TrimSpace(m); m != "" {
				members = append(members, m)
			}
		}
		t := Enum(name, members...)
		if err := t.validate(); err != nil {
			return ValueType{}, err
		}
		return t, nil
	}

	return ValueType{}, fmt.Errorf("unknown value type %q", s)
}

// Convert turns a raw token into a typed value of type t.
// Failures are *ParseError values of type ErrorTypeConversion.
func Convert(t ValueType, raw string) (any, error) {
	v, err := convert(t, raw)
	if err != nil {
		return nil, &ParseError{
			Type:    ErrorTypeConversion,
			Message: fmt.Sprintf("cannot convert %q to %s: %v", raw, t, err),
			Token:   raw,
			Cause:   err,
		}
	}
	return v, nil
}

func convert(t ValueType, raw string) (any, error) {
	switch t.kind {
	case KindBool:
		switch {
		case strings.EqualFold(raw, "true"):
			return true, nil
		case strings.EqualFold(raw, "false"):
			return false, nil
		}
		return nil, fmt.Errorf("expected true or false")
	case KindInt:
		return parseInt(raw)
	case KindUint:
		return parseUint(raw)
	case KindFloat:
		f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return nil, unwrapNumError(err)
		}
		return f, nil
	case KindString:
		return raw, nil
	case KindEnum:
		if slices.Contains(t.members, raw) {
			return raw, nil
		}
		return nil, fmt.Errorf("must be one of %s", strings.Join(t.members, ", "))
	case KindArray:
		if t.elem == nil {
			return nil, fmt.Errorf("array type has no element type")
		}
		return convertArray(*t.elem, raw)
	default:
		return nil, fmt.Errorf("unknown value type %q", t.kind)
	}
}

// parseInt parses a base-10 signed integer with overflow detection
func parseInt(raw string) (int64, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, unwrapNumError(err)
	}
	return n, nil
}

// parseUint rejects a leading minus explicitly to give a clearer message
func parseUint(raw string) (uint64, error) {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "-") {
		return 0, fmt.Errorf("negative value for unsigned type")
	}
	n, err := strconv.ParseUint(strings.TrimPrefix(raw, "+"), 10, 64)
	if err != nil {
		return 0, unwrapNumError(err)
	}
	return n, nil
}

func unwrapNumError(err error) error {
	if ne, ok := err.(*strconv.NumError); ok {
		return ne.Err
	}
	return err
}

// convertArray converts "[a, b, [c, d]]" or "a,b" into []any. Commas inside
// nested brackets do not split the outer array.
func convertArray(elem ValueType, raw string) ([]any, error) {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "[") {
		if !strings.HasSuffix(s, "]") {
			return nil, fmt.Errorf("unterminated array")
		}
		s = strings.TrimSpace(s[1 : len(s)-1])
	}
	out := []any{}
	if s == "" {
		return out, nil
	}

	parts, err := splitTopLevel(s)
	if err != nil {
		return nil, err
	}
	for i, part := range parts {
		part = strings.TrimSpace(part)
		if elem.kind != KindArray && strings.HasPrefix(part, "[") {
			return nil, fmt.Errorf("element %d: nested array in array of %s", i, elem)
		}
		v, err := convert(elem, part)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// splitTopLevel splits on commas that are not enclosed in brackets
func splitTopLevel(s string) ([]string, error) {
	var parts []string
	depth, start := 0, 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '[':
			depth++
		case ']':
			depth--
			if depth < 0 {
				return nil, fmt.Errorf("unbalanced ']' at offset %d", i)
			}
		case ',':
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	if depth != 0 {
		return nil, fmt.Errorf("unbalanced '['")
	}
	return append(parts, s[start:]), nil
}

// Normalize coerces a Go value into the canonical representation of t.
// Any integer width is accepted for Int and Uint, integers and float32 for
// Float, and typed slices ([]string, []int, ...) for arrays. Strings are run
// through Convert, so "5" normalizes to int64(5) for Int.
func Normalize(t ValueType, v any) (any, error) {
	if s, ok := v.(string); ok && t.kind != KindString {
		return Convert(t, s)
	}
	out, err := normalize(t, v)
	if err != nil {
		return nil, &ParseError{
			Type:    ErrorTypeConversion,
			Message: fmt.Sprintf("cannot use %v (%T) as %s: %v", v, v, t, err),
			Cause:   err,
		}
	}
	return out, nil
}

func normalize(t ValueType, v any) (any, error) {
	switch t.kind {
	case KindBool:
		if b, ok := v.(bool); ok {
			return b, nil
		}
	case KindInt:
		if n, ok := asInt64(v); ok {
			return n, nil
		}
		if f, ok := v.(float64); ok && f == math.Trunc(f) && f >= math.MinInt64 && f < math.MaxInt64 {
			return int64(f), nil
		}
	case KindUint:
		if n, ok := asUint64(v); ok {
			return n, nil
		}
		if f, ok := v.(float64); ok && f == math.Trunc(f) && f >= 0 && f < math.MaxUint64 {
			return uint64(f), nil
		}
	case KindFloat:
		switch x := v.(type) {
		case float64:
			return x, nil
		case float32:
			return float64(x), nil
		}
		if n, ok := asInt64(v); ok {
			return float64(n), nil
		}
		if n, ok := asUint64(v); ok {
			return float64(n), nil
		}
	case KindString:
		if s, ok := v.(string); ok {
			return s, nil
		}
	case KindEnum:
		if s, ok := v.(string); ok && slices.Contains(t.members, s) {
			return s, nil
		}
	case KindArray:
		if t.elem == nil {
			return nil, fmt.Errorf("array type has no element type")
		}
		items, ok := asSlice(v)
		if !ok {
			return nil, fmt.Errorf("not a slice")
		}
		out := make([]any, 0, len(items))
		for i, item := range items {
			n, err := Normalize(*t.elem, item)
			if err != nil {
				return nil, fmt.Errorf("element %d: %w", i, err)
			}
			out = append(out, n)
		}
		return out, nil
	}
	return nil, fmt.Errorf("type mismatch")
}

func asInt64(v any) (int64, bool) {
	switch x := v.(type) {
	case int:
		return int64(x), true
	case int8:
		return int64(x), true
	case int16:
		return int64(x), true
	case int32:
		return int64(x), true
	case int64:
		return x, true
	case uint:
		if uint64(x) <= math.MaxInt64 {
			return int64(x), true
		}
	case uint8:
		return int64(x), true
	case uint16:
		return int64(x), true
	case uint32:
		return int64(x), true
	case uint64:
		if x <= math.MaxInt64 {
			return int64(x), true
		}
	}
	return 0, false
}

func asUint64(v any) (uint64, bool) {
	switch x := v.(type) {
	case uint:
		return uint64(x), true
	case uint8:
		return uint64(x), true
	case uint16:
		return uint64(x), true
	case uint32:
		return uint64(x), true
	case uint64:
		return x, true
	}
	if n, ok := asInt64(v); ok && n >= 0 {
		return uint64(n), true
	}
	return 0, false
}

func asSlice(v any) ([]any, bool) {
	switch x := v.(type) {
	case []any:
		return x, true
	case []string:
		return toAnySlice(x), true
	case []int:
		return toAnySlice(x), true
	case []int64:
		return toAnySlice(x), true
	case []uint64:
		return toAnySlice(x), true
	case []float64:
		return toAnySlice(x), true
	case []bool:
		return toAnySlice(x), true
	case nil:
		return []any{}, true
	}
	return nil, false
}

func toAnySlice[T any](in []T) []any {
	out := make([]any, len(in))
	for i, v := range in {
		out[i] = v
	}
	return out
}

// convertCount turns a flag occurrence count into the flag's declared type
func convertCount(t ValueType, n uint64) any {
	switch t.kind {
	case KindBool:
		return n > 0
	case KindInt:
		if n > math.MaxInt64 {
			return int64(math.MaxInt64)
		}
		return int64(n)
	case KindUint:
		return n
	case KindFloat:
		return float64(n)
	default:
		return strconv.FormatUint(n, 10)
	}
}
