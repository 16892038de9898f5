package cmdline

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Grammar is a declarative description of a parser tree, loadable from YAML
// or TOML.
//
//	description: report generator
//	positional:
//	  - name: file
//	named:
//	  - {name: count, alias: c, type: int, default: 1}
//	flags:
//	  - {name: verbose, alias: v, type: bool}
//	commands:
//	  - name: run
//	    named:
//	      - {name: x, type: int}
type Grammar struct {
	Description string          `yaml:"description,omitempty" toml:"description,omitempty"`
	Options     *GrammarOptions `yaml:"options,omitempty" toml:"options,omitempty"`
	Positional  []ArgumentSpec  `yaml:"positional,omitempty" toml:"positional,omitempty"`
	Named       []ArgumentSpec  `yaml:"named,omitempty" toml:"named,omitempty"`
	Flags       []ArgumentSpec  `yaml:"flags,omitempty" toml:"flags,omitempty"`
	Commands    []CommandSpec   `yaml:"commands,omitempty" toml:"commands,omitempty"`
}

// GrammarOptions mirrors ParserOptions. Unset fields keep the inherited value.
type GrammarOptions struct {
	ArgumentPrefix    string `yaml:"argument_prefix,omitempty" toml:"argument_prefix,omitempty"`
	AliasPrefix       string `yaml:"alias_prefix,omitempty" toml:"alias_prefix,omitempty"`
	KeyValueSeparator string `yaml:"separator,omitempty" toml:"separator,omitempty"`
	IgnoreCase        *bool  `yaml:"ignore_case,omitempty" toml:"ignore_case,omitempty"`
	FinalizeOnCommand *bool  `yaml:"finalize_on_command,omitempty" toml:"finalize_on_command,omitempty"`
	Suggestions       *bool  `yaml:"suggestions,omitempty" toml:"suggestions,omitempty"`
}

// ArgumentSpec declares one argument. Type uses the ParseValueType syntax
// and Merge one of the MergeByName policy names.
type ArgumentSpec struct {
	Name        string `yaml:"name" toml:"name"`
	Alias       string `yaml:"alias,omitempty" toml:"alias,omitempty"`
	Destination string `yaml:"destination,omitempty" toml:"destination,omitempty"`
	Help        string `yaml:"help,omitempty" toml:"help,omitempty"`
	Type        string `yaml:"type,omitempty" toml:"type,omitempty"`
	Default     any    `yaml:"default,omitempty" toml:"default,omitempty"`
	Merge       string `yaml:"merge,omitempty" toml:"merge,omitempty"`
}

// CommandSpec declares a command and the grammar of its child parser
type CommandSpec struct {
	Name    string `yaml:"name" toml:"name"`
	Alias   string `yaml:"alias,omitempty" toml:"alias,omitempty"`
	Grammar `yaml:",inline"`
}

// Grammar file formats
const (
	FormatYAML = "yaml"
	FormatTOML = "toml"
)

// LoadGrammar decodes a grammar document. Unknown keys are rejected.
func LoadGrammar(r io.Reader, format string) (*Grammar, error) {
	var g Grammar
	switch strings.ToLower(format) {
	case FormatYAML, "yml", "json":
		dec := yaml.NewDecoder(r)
		dec.KnownFields(true)
		if err := dec.Decode(&g); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("decode yaml grammar: %w", err)
		}
	case FormatTOML:
		md, err := toml.NewDecoder(r).Decode(&g)
		if err != nil {
			return nil, fmt.Errorf("decode toml grammar: %w", err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("decode toml grammar: unknown key %s", undecoded[0])
		}
	default:
		return nil, fmt.Errorf("unsupported grammar format %q", format)
	}
	return &g, nil
}

// LoadGrammarFile loads a grammar, choosing the format by file extension
// (.yaml, .yml, .json or .toml)
func LoadGrammarFile(path string) (*Grammar, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read grammar: %w", err)
	}
	format := strings.TrimPrefix(filepath.Ext(path), ".")
	g, err := LoadGrammar(bytes.NewReader(data), format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return g, nil
}

// apply overlays the set fields on base
func (o *GrammarOptions) apply(base ParserOptions) ParserOptions {
	if o == nil {
		return base
	}
	if o.ArgumentPrefix != "" {
		base.ArgumentPrefix = o.ArgumentPrefix
	}
	if o.AliasPrefix != "" {
		base.ArgumentAliasPrefix = o.AliasPrefix
	}
	if o.KeyValueSeparator != "" {
		base.KeyValueSeparator = o.KeyValueSeparator
	}
	if o.IgnoreCase != nil {
		base.IgnoreCase = *o.IgnoreCase
	}
	if o.FinalizeOnCommand != nil {
		base.FinalizeOnCommand = *o.FinalizeOnCommand
	}
	if o.Suggestions != nil {
		base.Suggestions = *o.Suggestions
	}
	return base
}

// Build creates the parser tree. opts are applied before the grammar's own
// options and are inherited by every command.
func (g *Grammar) Build(opts ...Option) (*Parser, error) {
	base := New(g.Description, opts...).Options()
	p := New(g.Description, WithOptions(g.Options.apply(base)))
	if err := g.populate(p); err != nil {
		return nil, err
	}
	return p, nil
}

func (g *Grammar) populate(p *Parser) error {
	for _, spec := range g.Positional {
		typ, opts, err := spec.resolve()
		if err != nil {
			return err
		}
		if err := p.Positional(spec.Name, typ, opts...); err != nil {
			return err
		}
	}
	for _, spec := range g.Named {
		typ, opts, err := spec.resolve()
		if err != nil {
			return err
		}
		if spec.Default != nil {
			opts = append(opts, WithDefault(spec.Default))
		}
		if spec.Merge != "" {
			merge, err := MergeByName(spec.Merge)
			if err != nil {
				return err
			}
			opts = append(opts, WithMerge(merge))
		}
		if err := p.Named(spec.Name, typ, opts...); err != nil {
			return err
		}
	}
	for _, spec := range g.Flags {
		if spec.Type == "" {
			spec.Type = string(KindBool)
		}
		typ, opts, err := spec.resolve()
		if err != nil {
			return err
		}
		if err := p.Flag(spec.Name, typ, opts...); err != nil {
			return err
		}
	}

	for i := range g.Commands {
		spec := &g.Commands[i]
		if err := p.checkCommand(spec.Name, spec.Alias); err != nil {
			return err
		}
		child := New(spec.Description, WithOptions(spec.Options.apply(p.options)))
		cmd, err := NewCommand(spec.Name, spec.Alias, spec.Description, child)
		if err != nil {
			return err
		}
		if err := spec.Grammar.populate(child); err != nil {
			return fmt.Errorf("command %s: %w", spec.Name, err)
		}
		if _, err := p.AddCommand(cmd); err != nil {
			return err
		}
	}
	return nil
}

// resolve parses the declared type and maps the shared fields to options
func (s ArgumentSpec) resolve() (ValueType, []ArgumentOption, error) {
	typ, err := ParseValueType(s.Type)
	if err != nil {
		return ValueType{}, nil, configError("argument %s: %v", s.Name, err)
	}
	opts := []ArgumentOption{WithHelp(s.Help)}
	if s.Alias != "" {
		opts = append(opts, WithAlias(s.Alias))
	}
	if s.Destination != "" {
		opts = append(opts, WithDestination(s.Destination))
	}
	return typ, opts, nil
}

// Marshal encodes the grammar back to YAML or TOML
func (g *Grammar) Marshal(format string) ([]byte, error) {
	var buf bytes.Buffer
	switch strings.ToLower(format) {
	case FormatYAML, "yml":
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(g); err != nil {
			return nil, err
		}
		if err := enc.Close(); err != nil {
			return nil, err
		}
	case FormatTOML:
		if err := toml.NewEncoder(&buf).Encode(g); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported grammar format %q", format)
	}
	return buf.Bytes(), nil
}
