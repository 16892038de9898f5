package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/dzonerzy/go-cmdline/cmdline"
	cmdio "github.com/dzonerzy/go-cmdline/io"
)

// printUsage renders the arguments and commands of p, one level deep
func printUsage(w io.Writer, m *cmdio.IOManager, p *cmdline.Parser) {
	if d := p.Description(); d != "" {
		fmt.Fprintln(w, d)
		fmt.Fprintln(w)
	}
	fmt.Fprintln(w, m.Bold("Usage:"))
	fmt.Fprintln(w, "  cmdline [GLOBAL ARGUMENTS] COMMAND [COMMAND ARGUMENTS] [-- ARGS...]")

	o := p.Options()
	fmt.Fprintln(w)
	fmt.Fprintln(w, m.Bold("Global arguments:"))
	writeArguments(w, o, p)

	fmt.Fprintln(w)
	fmt.Fprintln(w, m.Bold("Commands:"))
	for _, cmd := range p.Commands() {
		name := cmd.Name()
		if cmd.Alias() != "" {
			name += ", " + cmd.Alias()
		}
		fmt.Fprintf(w, "  %s\t%s\n", name, m.Faint(cmd.Description()))
		writeArguments(w, cmd.Parser().Options(), cmd.Parser())
	}
}

func writeArguments(w io.Writer, o cmdline.ParserOptions, p *cmdline.Parser) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	defer tw.Flush()

	for _, a := range p.PositionalArguments() {
		fmt.Fprintf(tw, "    %s\t%s\t%s\n", strings.ToUpper(a.Name()), a.Type(), a.Help())
	}
	for _, a := range p.NamedArguments() {
		help := a.Help()
		if def := a.DefaultValue(); def != nil && fmt.Sprint(def) != "" {
			help += fmt.Sprintf(" (default %v)", def)
		}
		fmt.Fprintf(tw, "    %s\t%s\t%s\n", spelling(o, a), a.Type(), help)
	}
	for _, a := range p.FlagArguments() {
		fmt.Fprintf(tw, "    %s\t%s\t%s\n", spelling(o, a), "flag", a.Help())
	}
}

func spelling(o cmdline.ParserOptions, a cmdline.Argument) string {
	s := o.ArgumentPrefix + a.Name()
	if a.Alias() != "" {
		s += ", " + o.ArgumentAliasPrefix + a.Alias()
	}
	return s
}
