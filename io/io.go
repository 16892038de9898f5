// Package cmdio manages the output streams of a command-line program and
// provides a leveled, colored logger on top of them.
package cmdio

import (
	stdio "io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// IOManager centralizes IO and terminal capabilities
type IOManager struct {
	in  stdio.Reader
	out stdio.Writer
	err stdio.Writer

	forceColor bool
	noColor    bool
}

// New returns a manager bound to process stdio
func New() *IOManager {
	return &IOManager{in: os.Stdin, out: os.Stdout, err: os.Stderr}
}

// WithIn sets the input reader used by the manager and returns the manager for chaining.
func (m *IOManager) WithIn(r stdio.Reader) *IOManager { m.in = r; return m }

// WithOut sets the standard output writer and returns the manager for chaining.
func (m *IOManager) WithOut(w stdio.Writer) *IOManager { m.out = w; return m }

// WithErr sets the standard error writer and returns the manager for chaining.
func (m *IOManager) WithErr(w stdio.Writer) *IOManager { m.err = w; return m }

// ForceColor forces color output on, regardless of environment.
func (m *IOManager) ForceColor() *IOManager { m.forceColor = true; m.noColor = false; return m }

// NoColor disables color output, regardless of environment.
func (m *IOManager) NoColor() *IOManager { m.noColor = true; m.forceColor = false; return m }

// In returns the configured input reader.
func (m *IOManager) In() stdio.Reader { return m.in }

// Out returns the configured standard output writer.
func (m *IOManager) Out() stdio.Writer { return m.out }

// Err returns the configured standard error writer.
func (m *IOManager) Err() stdio.Writer { return m.err }

// IsTTY reports whether the output writer is a terminal
func (m *IOManager) IsTTY() bool { return isTerminal(m.out) }

func isTerminal(w stdio.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// SupportsColor reports whether ANSI colors should be emitted. NO_COLOR and
// FORCE_COLOR are honored; otherwise the output must be a terminal and
// fatih/color must not have disabled colors globally.
func (m *IOManager) SupportsColor() bool {
	if m.noColor || os.Getenv("NO_COLOR") != "" {
		return false
	}
	if m.forceColor || os.Getenv("FORCE_COLOR") != "" {
		return true
	}
	if !m.IsTTY() {
		return false
	}
	term := os.Getenv("TERM")
	return term != "dumb" && !color.NoColor
}

// Colorize renders s with the given attributes when color is supported
func (m *IOManager) Colorize(s string, attrs ...color.Attribute) string {
	if !m.SupportsColor() || len(attrs) == 0 {
		return s
	}
	c := color.New(attrs...)
	c.EnableColor()
	return c.Sprint(s)
}

// Bold returns s in bold when color is supported; otherwise s unchanged.
func (m *IOManager) Bold(s string) string { return m.Colorize(s, color.Bold) }

// Faint returns s in faint intensity when supported; otherwise s unchanged.
func (m *IOManager) Faint(s string) string { return m.Colorize(s, color.Faint) }
