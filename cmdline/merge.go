package cmdline

import (
	"fmt"
	"slices"
)

// MergeFunc folds a repeated occurrence of a named argument into the value
// already stored for it. The returned value replaces the stored one.
type MergeFunc func(existing, incoming any) any

// JoinStrings concatenates string renderings with sep: "a" + "b" -> "a,b"
func JoinStrings(sep string) MergeFunc {
	return func(existing, incoming any) any {
		return fmt.Sprint(existing) + sep + fmt.Sprint(incoming)
	}
}

// AppendValues accumulates every occurrence into a single []any
func AppendValues(existing, incoming any) any {
	var out []any
	if list, ok := existing.([]any); ok {
		out = slices.Clone(list)
	} else {
		out = []any{existing}
	}
	if list, ok := incoming.([]any); ok {
		return append(out, list...)
	}
	return append(out, incoming)
}

// KeepFirst ignores every occurrence after the first
func KeepFirst(existing, _ any) any { return existing }

// KeepLast overwrites with the latest occurrence
func KeepLast(_, incoming any) any { return incoming }

// SumNumbers adds numeric occurrences. Mixed or non-numeric values fall back
// to the incoming value.
func SumNumbers(existing, incoming any) any {
	switch a := existing.(type) {
	case int64:
		if b, ok := incoming.(int64); ok {
			return a + b
		}
	case uint64:
		if b, ok := incoming.(uint64); ok {
			return a + b
		}
	case float64:
		if b, ok := incoming.(float64); ok {
			return a + b
		}
	}
	return incoming
}

// MergeByName resolves the policy names used in grammar files:
// join (comma), append, first, last, sum.
func MergeByName(name string) (MergeFunc, error) {
	switch name {
	case "":
		return nil, nil
	case "join":
		return JoinStrings(","), nil
	case "append":
		return AppendValues, nil
	case "first":
		return KeepFirst, nil
	case "last":
		return KeepLast, nil
	case "sum":
		return SumNumbers, nil
	}
	return nil, configError("unknown merge policy %q", name)
}
