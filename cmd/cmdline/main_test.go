package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"gopkg.in/yaml.v3"

	cmdio "github.com/dzonerzy/go-cmdline/io"
)

const grammar = `
description: report generator
positional:
  - name: file
named:
  - {name: count, alias: c, type: int, default: 1}
flags:
  - {name: verbose, alias: v}
commands:
  - name: run
    named:
      - {name: x, type: int}
`

func writeGrammar(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "report.yaml")
	if err := os.WriteFile(path, []byte(grammar), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func runCLI(t *testing.T, args ...string) (code int, stdout, stderr string) {
	t.Helper()
	var out, errOut bytes.Buffer
	m := cmdio.New().WithOut(&out).WithErr(&errOut).NoColor()
	code = run(append([]string{"cmdline"}, args...), m)
	return code, out.String(), errOut.String()
}

func TestRunParseJSON(t *testing.T) {
	path := writeGrammar(t)
	code, out, stderr := runCLI(t, "parse", path, "--", "report.txt", "-v", "--count", "5")
	if code != 0 {
		t.Fatalf("exit code %d, stderr: %s", code, stderr)
	}
	var got map[string]any
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("invalid json %q: %v", out, err)
	}
	want := map[string]any{"file": "report.txt", "count": 5.0, "verbose": true}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}
	if !strings.HasPrefix(out, "{\n  \"file\"") {
		t.Errorf("destinations should keep parse order: %s", out)
	}
}

func TestRunParseLineYAML(t *testing.T) {
	path := writeGrammar(t)
	code, out, stderr := runCLI(t, "--format", "yaml", "parse", path, "--line", "r.txt run --x 3")
	if code != 0 {
		t.Fatalf("exit code %d, stderr: %s", code, stderr)
	}
	var got map[string]any
	if err := yaml.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("invalid yaml %q: %v", out, err)
	}
	want := map[string]any{"file": "r.txt", "run": map[string]any{"x": 3}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}
}

func TestRunExitCodes(t *testing.T) {
	path := writeGrammar(t)
	tests := []struct {
		name string
		args []string
		code int
	}{
		{"no command", nil, 2},
		{"help", []string{"-h"}, 0},
		{"unknown global", []string{"--colour"}, 2},
		{"missing positional", []string{"parse", path}, 2},
		{"conversion", []string{"parse", path, "--", "r.txt", "-c", "many"}, 3},
		{"missing grammar file", []string{"parse", filepath.Join(t.TempDir(), "nope.yaml")}, 1},
		{"bad format", []string{"--format", "xml", "bag", "x"}, 3},
		{"line and args", []string{"parse", path, "-l", "r.txt", "--", "r.txt"}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, stderr := runCLI(t, tt.args...)
			if code != tt.code {
				t.Errorf("exit code = %d, want %d (stderr: %s)", code, tt.code, stderr)
			}
		})
	}
}

func TestRunUnknownTokenSuggests(t *testing.T) {
	_, _, stderr := runCLI(t, "--fromat", "yaml")
	if !strings.Contains(stderr, "did you mean --format?") {
		t.Errorf("stderr = %q", stderr)
	}
}

func TestRunBag(t *testing.T) {
	code, out, stderr := runCLI(t, "bag", "input.txt /n:2 -xy")
	if code != 0 {
		t.Fatalf("exit code %d, stderr: %s", code, stderr)
	}
	var got map[string]any
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("invalid json %q: %v", out, err)
	}
	want := map[string]any{
		"defaults":   []any{"input.txt"},
		"parameters": map[string]any{"n": 2.0, "x": true, "y": true},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}
}

func TestRunCheckToTOML(t *testing.T) {
	path := writeGrammar(t)
	code, out, stderr := runCLI(t, "check", path, "--to", "toml")
	if code != 0 {
		t.Fatalf("exit code %d, stderr: %s", code, stderr)
	}
	if !strings.Contains(out, `description = "report generator"`) || !strings.Contains(out, "[[commands]]") {
		t.Errorf("toml output = %s", out)
	}
}

func TestRunLogFileAndTrace(t *testing.T) {
	path := writeGrammar(t)
	logPath := filepath.Join(t.TempDir(), "cmdline.log")
	code, out, stderr := runCLI(t, "-vv", "--log-file", logPath, "parse", path, "--", "r.txt")
	if code != 0 {
		t.Fatalf("exit code %d, stderr: %s", code, stderr)
	}
	if !strings.Contains(out, "classified as") {
		t.Errorf("expected parser trace on stdout, got %s", out)
	}
	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("log file not written: %v", err)
	}
	if !strings.Contains(string(data), "DEBUG") || !strings.Contains(string(data), "running parse") {
		t.Errorf("log file = %s", data)
	}
}

func TestUsageListsEverything(t *testing.T) {
	_, out, _ := runCLI(t, "--help")
	for _, want := range []string{"--format, -f", "--log-file", "parse, p", "GRAMMAR", "--line, -l", "bag, b", "check, c"} {
		if !strings.Contains(out, want) {
			t.Errorf("usage is missing %q:\n%s", want, out)
		}
	}
}
