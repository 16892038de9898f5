package cmdline

import (
	"strings"
)

// Argument is the common descriptor of positional, named and flag arguments.
// The set of implementations is closed: *PositionalArgument, *NamedArgument
// and *FlagArgument.
type Argument interface {
	Name() string
	Alias() string
	Destination() string
	Help() string
	Type() ValueType
	argument() *descriptor
}

// descriptor holds the fields shared by every argument kind
type descriptor struct {
	name        string
	alias       string
	destination string
	help        string
	typ         ValueType
}

func (d *descriptor) Name() string          { return d.name }
func (d *descriptor) Alias() string         { return d.alias }
func (d *descriptor) Destination() string   { return d.destination }
func (d *descriptor) Help() string          { return d.help }
func (d *descriptor) Type() ValueType       { return d.typ }
func (d *descriptor) argument() *descriptor { return d }

// PositionalArgument is required and consumes exactly one token, matched by
// position.
type PositionalArgument struct {
	descriptor
}

// NamedArgument is matched by "--name" or "-alias", takes one or more values
// and falls back to its default when absent.
type NamedArgument struct {
	descriptor
	defaultValue any
	merge        MergeFunc
}

// DefaultValue returns the value stored when the argument is absent
func (a *NamedArgument) DefaultValue() any { return a.defaultValue }

// Merge returns the duplicate-resolution policy, or nil
func (a *NamedArgument) Merge() MergeFunc { return a.merge }

// FlagArgument takes no value; its result is the number of occurrences
// converted to its declared type.
type FlagArgument struct {
	descriptor
}

// ArgumentOption customizes an argument at construction
type ArgumentOption func(*argumentConfig)

type argumentConfig struct {
	alias       string
	destination string
	help        string
	def         any
	hasDefault  bool
	merge       MergeFunc
}

// WithAlias sets the short alternative form, matched after the alias prefix
func WithAlias(alias string) ArgumentOption {
	return func(c *argumentConfig) { c.alias = alias }
}

// WithDestination sets the result key. Defaults to the argument name.
func WithDestination(dest string) ArgumentOption {
	return func(c *argumentConfig) { c.destination = dest }
}

// WithHelp sets the help text
func WithHelp(help string) ArgumentOption {
	return func(c *argumentConfig) { c.help = help }
}

// WithDefault sets the default value of a named argument. The value is
// normalized to the declared type (any Go integer width for Int, a []string
// for Array(String), a string that converts, ...).
func WithDefault(v any) ArgumentOption {
	return func(c *argumentConfig) {
		c.def = v
		c.hasDefault = true
	}
}

// WithMerge sets the duplicate-resolution policy of a named argument
func WithMerge(fn MergeFunc) ArgumentOption {
	return func(c *argumentConfig) { c.merge = fn }
}

func newDescriptor(kind, name string, typ ValueType, opts []ArgumentOption) (descriptor, argumentConfig, error) {
	var cfg argumentConfig
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	if strings.TrimSpace(name) == "" {
		return descriptor{}, cfg, configError("%s argument name must not be empty", kind)
	}
	dest := cfg.destination
	if dest == "" {
		dest = name
	}
	if strings.TrimSpace(dest) == "" {
		return descriptor{}, cfg, configError("%s argument %s: destination must not be blank", kind, name)
	}
	if err := typ.validate(); err != nil {
		return descriptor{}, cfg, configError("%s argument %s: %v", kind, name, err)
	}

	return descriptor{
		name:        name,
		alias:       cfg.alias,
		destination: dest,
		help:        cfg.help,
		typ:         typ,
	}, cfg, nil
}

// NewPositionalArgument creates a required positional argument
func NewPositionalArgument(name string, typ ValueType, opts ...ArgumentOption) (*PositionalArgument, error) {
	d, cfg, err := newDescriptor("positional", name, typ, opts)
	if err != nil {
		return nil, err
	}
	if cfg.hasDefault || cfg.merge != nil {
		return nil, configError("positional argument %s: defaults and merge policies apply to named arguments only", name)
	}
	return &PositionalArgument{descriptor: d}, nil
}

// NewNamedArgument creates an optional named argument. Without WithDefault
// the default is the zero value of the declared type.
func NewNamedArgument(name string, typ ValueType, opts ...ArgumentOption) (*NamedArgument, error) {
	d, cfg, err := newDescriptor("named", name, typ, opts)
	if err != nil {
		return nil, err
	}
	def := typ.Zero()
	if cfg.hasDefault {
		def, err = Normalize(typ, cfg.def)
		if err != nil {
			return nil, configError("named argument %s: invalid default: %v", name, err)
		}
	}
	return &NamedArgument{descriptor: d, defaultValue: def, merge: cfg.merge}, nil
}

// NewFlagArgument creates a flag. The type must be Bool, Int, Uint, Float
// or String.
func NewFlagArgument(name string, typ ValueType, opts ...ArgumentOption) (*FlagArgument, error) {
	d, cfg, err := newDescriptor("flag", name, typ, opts)
	if err != nil {
		return nil, err
	}
	if cfg.hasDefault || cfg.merge != nil {
		return nil, configError("flag argument %s: defaults and merge policies apply to named arguments only", name)
	}
	switch typ.Kind() {
	case KindEnum, KindArray:
		return nil, configError("flag argument %s: a flag cannot be of type %s", name, typ)
	}
	return &FlagArgument{descriptor: d}, nil
}
