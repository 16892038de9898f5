package cmdline

import (
	"encoding/json"
	"fmt"

	orderedmap "github.com/wk8/go-ordered-map/v2"
	"gopkg.in/yaml.v3"
)

// Results is the output of a parse: an insertion-ordered mapping from
// destination to converted value(s), plus the nested results of the invoked
// command, if any. Results are not modified after Parse returns them.
type Results struct {
	values   *orderedmap.OrderedMap[string, []any]
	commands *orderedmap.OrderedMap[string, *Results]
}

func newResults() *Results {
	return &Results{
		values:   orderedmap.New[string, []any](),
		commands: orderedmap.New[string, *Results](),
	}
}

// add stores value under the argument's destination. A named argument with
// a merge policy and a stored value replaces it with the merged value,
// normalized to the declared type; everything else appends.
func (r *Results) add(arg Argument, value any) error {
	dest := arg.Destination()
	existing, _ := r.values.Get(dest)
	if named, ok := arg.(*NamedArgument); ok && named.merge != nil && len(existing) > 0 {
		merged, err := Normalize(named.typ, named.merge(existing[len(existing)-1], value))
		if err != nil {
			return err
		}
		r.values.Set(dest, []any{merged})
		return nil
	}
	r.values.Set(dest, append(existing, value))
	return nil
}

// cloneValue copies arrays, nested ones included, so that stored defaults
// are never shared between results
func cloneValue(v any) any {
	list, ok := v.([]any)
	if !ok {
		return v
	}
	out := make([]any, len(list))
	for i, item := range list {
		out[i] = cloneValue(item)
	}
	return out
}

func (r *Results) addCommand(cmd *Command, nested *Results) {
	r.commands.Set(cmd.Name(), nested)
}

// Values returns every value stored under dest, in insertion order
func (r *Results) Values(dest string) ([]any, bool) {
	vals, ok := r.values.Get(dest)
	if !ok {
		return nil, false
	}
	out := make([]any, len(vals))
	copy(out, vals)
	return out, true
}

// Value returns the last value stored under dest
func (r *Results) Value(dest string) (any, bool) {
	vals, ok := r.values.Get(dest)
	if !ok || len(vals) == 0 {
		return nil, false
	}
	return vals[len(vals)-1], true
}

// Has reports whether dest was populated
func (r *Results) Has(dest string) bool {
	_, ok := r.values.Get(dest)
	return ok
}

// Destinations returns the populated destinations in insertion order
func (r *Results) Destinations() []string {
	keys := make([]string, 0, r.values.Len())
	for pair := r.values.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	return keys
}

// Len returns the number of populated destinations
func (r *Results) Len() int { return r.values.Len() }

// Command returns the name of the invoked command, or "" if none
func (r *Results) Command() string {
	if pair := r.commands.Oldest(); pair != nil {
		return pair.Key
	}
	return ""
}

// CommandResults returns the nested results of the named command
func (r *Results) CommandResults(name string) (*Results, bool) {
	return r.commands.Get(name)
}

// Get returns the last value under dest if it has type T
func Get[T any](r *Results, dest string) (T, bool) {
	var zero T
	v, ok := r.Value(dest)
	if !ok {
		return zero, false
	}
	t, ok := v.(T)
	return t, ok
}

// All returns every value under dest; it fails if any of them is not a T
func All[T any](r *Results, dest string) ([]T, bool) {
	vals, ok := r.values.Get(dest)
	if !ok {
		return nil, false
	}
	out := make([]T, 0, len(vals))
	for _, v := range vals {
		t, ok := v.(T)
		if !ok {
			return nil, false
		}
		out = append(out, t)
	}
	return out, true
}

// String returns the last string (or enum) value under dest
func (r *Results) String(dest string) (string, bool) { return Get[string](r, dest) }

// Int returns the last int value under dest
func (r *Results) Int(dest string) (int64, bool) { return Get[int64](r, dest) }

// Uint returns the last uint value under dest
func (r *Results) Uint(dest string) (uint64, bool) { return Get[uint64](r, dest) }

// Float returns the last float value under dest
func (r *Results) Float(dest string) (float64, bool) { return Get[float64](r, dest) }

// Bool returns the last bool value under dest
func (r *Results) Bool(dest string) (bool, bool) { return Get[bool](r, dest) }

// Strings flattens every value under dest (including array values) into
// their string form
func (r *Results) Strings(dest string) ([]string, bool) {
	vals, ok := r.values.Get(dest)
	if !ok {
		return nil, false
	}
	var out []string
	var walk func(v any)
	walk = func(v any) {
		switch x := v.(type) {
		case []any:
			for _, item := range x {
				walk(item)
			}
		case string:
			out = append(out, x)
		default:
			out = append(out, fmt.Sprint(x))
		}
	}
	for _, v := range vals {
		walk(v)
	}
	return out, true
}

// collapse turns a single-value list into the value itself
func collapse(vals []any) any {
	if len(vals) == 1 {
		return vals[0]
	}
	return vals
}

// ToMap converts the result tree to plain maps. Destinations with a single
// value map to that value; commands map to their nested results.
func (r *Results) ToMap() map[string]any {
	m := make(map[string]any, r.values.Len()+r.commands.Len())
	for pair := r.values.Oldest(); pair != nil; pair = pair.Next() {
		m[pair.Key] = collapse(pair.Value)
	}
	for pair := r.commands.Oldest(); pair != nil; pair = pair.Next() {
		m[pair.Key] = pair.Value.ToMap()
	}
	return m
}

// MarshalJSON encodes the result tree as an ordered JSON object
func (r *Results) MarshalJSON() ([]byte, error) {
	om := orderedmap.New[string, any]()
	for pair := r.values.Oldest(); pair != nil; pair = pair.Next() {
		om.Set(pair.Key, collapse(pair.Value))
	}
	for pair := r.commands.Oldest(); pair != nil; pair = pair.Next() {
		om.Set(pair.Key, pair.Value)
	}
	return json.Marshal(om)
}

// MarshalYAML encodes the result tree as an ordered YAML mapping
func (r *Results) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	appendPair := func(key string, value any) error {
		var v yaml.Node
		if err := v.Encode(value); err != nil {
			return fmt.Errorf("encode %s: %w", key, err)
		}
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key},
			&v,
		)
		return nil
	}
	for pair := r.values.Oldest(); pair != nil; pair = pair.Next() {
		if err := appendPair(pair.Key, collapse(pair.Value)); err != nil {
			return nil, err
		}
	}
	for pair := r.commands.Oldest(); pair != nil; pair = pair.Next() {
		if err := appendPair(pair.Key, pair.Value); err != nil {
			return nil, err
		}
	}
	return node, nil
}
