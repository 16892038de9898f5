package bag

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Kind is the inferred type of a parameter value
type Kind int

const (
	KindBool Kind = iota
	KindNumber
	KindString
	KindArray
)

func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	default:
		return "unknown"
	}
}

// Parameter is one untyped value found on a command line. Its kind is
// inferred from the text: true/false, a decimal number, a bracketed array,
// or a string.
type Parameter struct {
	kind   Kind
	flag   bool
	number float64
	text   string
	items  []Parameter
}

// Bool returns a boolean parameter
func Bool(b bool) Parameter { return Parameter{kind: KindBool, flag: b} }

// Number returns a numeric parameter
func Number(f float64) Parameter { return Parameter{kind: KindNumber, number: f} }

// String returns a string parameter
func String(s string) Parameter { return Parameter{kind: KindString, text: s} }

// Array returns an array parameter
func Array(items ...Parameter) Parameter {
	if items == nil {
		items = []Parameter{}
	}
	return Parameter{kind: KindArray, items: items}
}

// Kind returns the inferred kind
func (p Parameter) Kind() Kind { return p.kind }

// Items returns the elements of an array parameter
func (p Parameter) Items() []Parameter {
	if p.kind != KindArray {
		return nil
	}
	return append([]Parameter(nil), p.items...)
}

// Equal reports whether two parameters have the same kind and value
func (p Parameter) Equal(o Parameter) bool {
	if p.kind != o.kind {
		return false
	}
	switch p.kind {
	case KindBool:
		return p.flag == o.flag
	case KindNumber:
		return p.number == o.number
	case KindString:
		return p.text == o.text
	case KindArray:
		if len(p.items) != len(o.items) {
			return false
		}
		for i := range p.items {
			if !p.items[i].Equal(o.items[i]) {
				return false
			}
		}
		return true
	}
	return false
}

// String renders scalars as they would be typed; arrays use brackets
func (p Parameter) String() string {
	switch p.kind {
	case KindBool:
		return strconv.FormatBool(p.flag)
	case KindNumber:
		return strconv.FormatFloat(p.number, 'f', -1, 64)
	case KindString:
		return p.text
	case KindArray:
		parts := make([]string, len(p.items))
		for i, item := range p.items {
			parts[i] = item.String()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	}
	return ""
}

// AsBool converts to a boolean. Numbers are true when non-zero; strings must
// read true, false, 1 or 0.
func (p Parameter) AsBool() (bool, error) {
	switch p.kind {
	case KindBool:
		return p.flag, nil
	case KindNumber:
		return p.number != 0, nil
	case KindString:
		switch strings.ToLower(strings.TrimSpace(p.text)) {
		case "true", "1":
			return true, nil
		case "false", "0":
			return false, nil
		}
	}
	return false, fmt.Errorf("cannot use %s parameter %q as bool", p.kind, p)
}

// AsFloat converts to a float64. Booleans map to 1 and 0.
func (p Parameter) AsFloat() (float64, error) {
	switch p.kind {
	case KindNumber:
		return p.number, nil
	case KindBool:
		if p.flag {
			return 1, nil
		}
		return 0, nil
	case KindString:
		f, err := strconv.ParseFloat(strings.TrimSpace(p.text), 64)
		if err == nil {
			return f, nil
		}
	}
	return 0, fmt.Errorf("cannot use %s parameter %q as number", p.kind, p)
}

// AsInt converts to an int64, truncating toward zero
func (p Parameter) AsInt() (int64, error) {
	f, err := p.AsFloat()
	if err != nil {
		return 0, err
	}
	t := math.Trunc(f)
	if t < math.MinInt64 || t >= math.MaxInt64 {
		return 0, fmt.Errorf("parameter %q overflows int64", p)
	}
	return int64(t), nil
}

// AsStrings renders every element of an array, or the scalar itself
func (p Parameter) AsStrings() []string {
	if p.kind != KindArray {
		return []string{p.String()}
	}
	out := make([]string, len(p.items))
	for i, item := range p.items {
		out[i] = item.String()
	}
	return out
}

// AsEnum matches the string form case-insensitively against members and
// returns the member as declared
func (p Parameter) AsEnum(members ...string) (string, error) {
	s := p.String()
	for _, m := range members {
		if strings.EqualFold(m, s) {
			return m, nil
		}
	}
	return "", fmt.Errorf("%q is not one of %s", s, strings.Join(members, ", "))
}

// Value returns the plain Go form: bool, float64, string or []any
func (p Parameter) Value() any {
	switch p.kind {
	case KindBool:
		return p.flag
	case KindNumber:
		return p.number
	case KindString:
		return p.text
	case KindArray:
		out := make([]any, len(p.items))
		for i, item := range p.items {
			out[i] = item.Value()
		}
		return out
	}
	return nil
}

func (p Parameter) MarshalJSON() ([]byte, error) { return json.Marshal(p.Value()) }

func (p Parameter) MarshalYAML() (any, error) { return p.Value(), nil }

var numberPattern = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)$`)

// ParseValue infers the kind of a raw value
func ParseValue(raw string) (Parameter, error) {
	s := strings.TrimSpace(raw)
	switch {
	case strings.HasPrefix(s, "["):
		return parseArray(s)
	case strings.EqualFold(s, "true"):
		return Bool(true), nil
	case strings.EqualFold(s, "false"):
		return Bool(false), nil
	case numberPattern.MatchString(s):
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return Parameter{}, fmt.Errorf("invalid number %q: %w", s, err)
		}
		return Number(f), nil
	}
	return String(raw), nil
}

func parseArray(s string) (Parameter, error) {
	if !strings.HasSuffix(s, "]") {
		return Parameter{}, fmt.Errorf("array %q is missing its closing bracket", s)
	}
	inner := strings.TrimSpace(s[1 : len(s)-1])
	if inner == "" {
		return Array(), nil
	}

	var items []Parameter
	depth, start := 0, 0
	flush := func(end int) error {
		elem := strings.TrimSpace(inner[start:end])
		if elem == "" {
			return fmt.Errorf("array %q has an empty element", s)
		}
		v, err := ParseValue(elem)
		if err != nil {
			return err
		}
		items = append(items, v)
		return nil
	}
	for i := 0; i < len(inner); i++ {
		switch inner[i] {
		case '[':
			depth++
		case ']':
			if depth--; depth < 0 {
				return Parameter{}, fmt.Errorf("array %q has an unbalanced ']'", s)
			}
		case ',':
			if depth == 0 {
				if err := flush(i); err != nil {
					return Parameter{}, err
				}
				start = i + 1
			}
		}
	}
	if depth != 0 {
		return Parameter{}, fmt.Errorf("array %q has an unbalanced '['", s)
	}
	if err := flush(len(inner)); err != nil {
		return Parameter{}, err
	}
	return Array(items...), nil
}
