package cmdline

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"gopkg.in/yaml.v3"
)

func deployResults(t *testing.T) *Results {
	t.Helper()
	p := New("deploy")
	must(t, p.Positional("target", String))
	must(t, p.Named("replicas", Int, WithAlias("r"), WithDefault(1)))
	must(t, p.Named("label", String, WithAlias("l")))
	must(t, p.Flag("force", Bool, WithAlias("f")))
	sub, err := p.Subcommand("canary", "c", "canary rollout")
	must(t, err)
	must(t, sub.Named("weight", Float, WithDefault(0.1)))

	res, err := p.Parse([]string{"prod", "-l", "a", "b", "-f", "canary", "--weight=0.25"})
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	return res
}

// TestResultsAccessors tests typed reads and multi-value access
func TestResultsAccessors(t *testing.T) {
	res := deployResults(t)

	if got := res.Destinations(); !cmp.Equal(got, []string{"target", "label"}) {
		t.Errorf("Destinations() = %v", got)
	}
	if target, ok := res.String("target"); !ok || target != "prod" {
		t.Errorf("String(target) = %q, %v", target, ok)
	}
	if last, ok := res.Value("label"); !ok || last != "b" {
		t.Errorf("Value(label) = %v, %v", last, ok)
	}
	if labels, ok := All[string](res, "label"); !ok || !cmp.Equal(labels, []string{"a", "b"}) {
		t.Errorf("All(label) = %v, %v", labels, ok)
	}
	if _, ok := res.Int("label"); ok {
		t.Error("Int(label) should fail on a string value")
	}
	if res.Has("replicas") || res.Has("force") {
		t.Error("defaults and flags are not finalized once a command ran")
	}
	if _, ok := res.Values("missing"); ok {
		t.Error("missing destination should be absent")
	}

	if res.Command() != "canary" {
		t.Fatalf("Command() = %q", res.Command())
	}
	nested, ok := res.CommandResults("canary")
	if !ok {
		t.Fatal("canary results missing")
	}
	if w, ok := nested.Float("weight"); !ok || w != 0.25 {
		t.Errorf("weight = %v, %v", w, ok)
	}
}

// TestResultsValuesIsCopy tests that callers cannot mutate stored values
func TestResultsValuesIsCopy(t *testing.T) {
	res := deployResults(t)
	vals, _ := res.Values("label")
	vals[0] = "mutated"
	again, _ := res.Values("label")
	if again[0] != "a" {
		t.Errorf("stored value changed: %v", again)
	}
}

func TestResultsStringsFlattensArrays(t *testing.T) {
	p := New("")
	must(t, p.Named("ids", Array(Int)))
	res, err := p.Parse([]string{"--ids", "[1, 2]", "3"})
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	got, ok := res.Strings("ids")
	if !ok {
		t.Fatal("ids missing")
	}
	if diff := cmp.Diff([]string{"1", "2", "3"}, got); diff != "" {
		t.Errorf("Strings(ids) mismatch (-want +got):\n%s", diff)
	}
}

func TestResultsMarshalJSON(t *testing.T) {
	res := deployResults(t)
	data, err := json.Marshal(res)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	var compact bytes.Buffer
	if err := json.Compact(&compact, data); err != nil {
		t.Fatalf("Compact failed: %v", err)
	}
	want := `{"target":"prod","label":["a","b"],"canary":{"weight":0.25}}`
	if compact.String() != want {
		t.Errorf("json = %s\nwant   %s", compact.String(), want)
	}
}

func TestResultsMarshalYAML(t *testing.T) {
	res := deployResults(t)
	data, err := yaml.Marshal(res)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	want := "target: prod\nlabel:\n    - a\n    - b\ncanary:\n    weight: 0.25\n"
	if string(data) != want {
		t.Errorf("yaml =\n%s\nwant\n%s", data, want)
	}

	var back map[string]any
	if err := yaml.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if !strings.Contains(string(data), "canary:") || back["target"] != "prod" {
		t.Errorf("round trip = %v", back)
	}
}

func TestResultsToMap(t *testing.T) {
	res := deployResults(t)
	want := map[string]any{
		"target": "prod",
		"label":  []any{"a", "b"},
		"canary": map[string]any{"weight": 0.25},
	}
	if diff := cmp.Diff(want, res.ToMap()); diff != "" {
		t.Errorf("ToMap mismatch (-want +got):\n%s", diff)
	}
}

func TestMergeHelpers(t *testing.T) {
	tests := []struct {
		name  string
		merge MergeFunc
		in    []any
		want  any
	}{
		{"join", JoinStrings("+"), []any{"a", "b", "c"}, "a+b+c"},
		{"append", AppendValues, []any{"a", "b", "c"}, []any{"a", "b", "c"}},
		{"append arrays", AppendValues, []any{[]any{int64(1)}, []any{int64(2), int64(3)}}, []any{int64(1), int64(2), int64(3)}},
		{"first", KeepFirst, []any{"a", "b"}, "a"},
		{"last", KeepLast, []any{"a", "b"}, "b"},
		{"sum ints", SumNumbers, []any{int64(2), int64(3)}, int64(5)},
		{"sum floats", SumNumbers, []any{0.5, 0.25}, 0.75},
		{"sum mixed", SumNumbers, []any{int64(1), "x"}, "x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			acc := tt.in[0]
			for _, v := range tt.in[1:] {
				acc = tt.merge(acc, v)
			}
			if diff := cmp.Diff(tt.want, acc); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestMergeByName(t *testing.T) {
	for _, name := range []string{"join", "append", "first", "last", "sum"} {
		fn, err := MergeByName(name)
		if err != nil || fn == nil {
			t.Errorf("MergeByName(%q): nil=%v, err=%v", name, fn == nil, err)
		}
	}
	if fn, err := MergeByName(""); fn != nil || err != nil {
		t.Errorf("MergeByName(\"\"): nil=%v, err=%v", fn == nil, err)
	}
	if _, err := MergeByName("concat"); ErrorTypeOf(err) != ErrorTypeConfiguration {
		t.Errorf("expected configuration error, got %v", err)
	}
}

// TestMergeAppendThroughParse tests that a merge policy sees converted values
func TestMergeAppendThroughParse(t *testing.T) {
	p := New("")
	must(t, p.Named("n", Int, WithMerge(SumNumbers)))
	res, err := p.Parse([]string{"--n", "1", "2", "--n=3"})
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	vals, _ := res.Values("n")
	if diff := cmp.Diff([]any{int64(6)}, vals); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}
