package cmdline

import (
	"fmt"
	"slices"
	"strings"

	"github.com/google/shlex"

	"github.com/dzonerzy/go-cmdline/internal/fuzzy"
	"github.com/dzonerzy/go-cmdline/internal/intern"
	"github.com/dzonerzy/go-cmdline/internal/pool"
)

// ParseState represents the state of one grammar level during a parse
type ParseState int

const (
	StatePositionals ParseState = iota
	StateScanning
	StateDelegated
	StateDone
)

func (s ParseState) String() string {
	switch s {
	case StatePositionals:
		return "positionals"
	case StateScanning:
		return "scanning"
	case StateDelegated:
		return "delegated"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}

// Parser owns one level of a grammar: positional, named and flag arguments,
// and the commands leading to child levels.
//
// Configuration methods must not run concurrently with each other or with
// Parse. Once configured, a Parser may be used by concurrent parses.
type Parser struct {
	description string
	options     ParserOptions
	positionals []*PositionalArgument
	named       []*NamedArgument
	flags       []*FlagArgument
	commands    []*Command
}

// New creates an empty parser with DefaultOptions modified by opts
func New(description string, opts ...Option) *Parser {
	o := DefaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return &Parser{description: description, options: o.withDefaults()}
}

// Description returns the parser description
func (p *Parser) Description() string { return p.description }

// Options returns the effective options
func (p *Parser) Options() ParserOptions { return p.options }

// PositionalArguments returns the positional arguments in declaration order
func (p *Parser) PositionalArguments() []*PositionalArgument { return slices.Clone(p.positionals) }

// NamedArguments returns the named arguments in declaration order
func (p *Parser) NamedArguments() []*NamedArgument { return slices.Clone(p.named) }

// FlagArguments returns the flag arguments in declaration order
func (p *Parser) FlagArguments() []*FlagArgument { return slices.Clone(p.flags) }

// Commands returns the commands in declaration order
func (p *Parser) Commands() []*Command { return slices.Clone(p.commands) }

// arguments returns every argument of the level, positionals first
func (p *Parser) arguments() []Argument {
	all := make([]Argument, 0, len(p.positionals)+len(p.named)+len(p.flags))
	for _, a := range p.positionals {
		all = append(all, a)
	}
	for _, a := range p.named {
		all = append(all, a)
	}
	for _, a := range p.flags {
		all = append(all, a)
	}
	return all
}

func (p *Parser) equal(a, b string) bool {
	if p.options.IgnoreCase {
		return strings.EqualFold(a, b)
	}
	return a == b
}

func (p *Parser) tracef(format string, args ...any) {
	if p.options.Logger != nil {
		p.options.Logger.Debug(format, args...)
	}
}

// Configuration

// checkReserved rejects names and aliases that could be read as prefixed
// tokens or inline values
func (p *Parser) checkReserved(what, value string) error {
	o := p.options
	if strings.HasPrefix(value, o.ArgumentPrefix) || strings.HasPrefix(value, o.ArgumentAliasPrefix) {
		return configError("%s %q must not start with %q or %q", what, value, o.ArgumentPrefix, o.ArgumentAliasPrefix)
	}
	if strings.Contains(value, o.KeyValueSeparator) {
		return configError("%s %q must not contain %q", what, value, o.KeyValueSeparator)
	}
	return nil
}

// checkArgument enforces unique names and destinations across all argument
// kinds, and unique aliases across named and flag arguments
func (p *Parser) checkArgument(arg Argument) error {
	d := arg.argument()
	if err := p.checkReserved("argument name", d.name); err != nil {
		return err
	}
	if d.alias != "" {
		if err := p.checkReserved("argument alias", d.alias); err != nil {
			return err
		}
	}

	for _, other := range p.arguments() {
		if other.argument() == d {
			return configError("argument %s has already been added", d.name)
		}
		if p.equal(other.Name(), d.name) {
			return configError("an argument named %s already exists", d.name)
		}
		if p.equal(other.Destination(), d.destination) {
			return configError("argument %s: destination %s is already used by %s", d.name, d.destination, other.Name())
		}
	}
	// results keep destinations and command names in one key space
	for _, c := range p.commands {
		if p.equal(c.name, d.destination) {
			return configError("argument %s: destination %s is already used by command %s", d.name, d.destination, c.name)
		}
	}

	if d.alias == "" {
		return nil
	}
	for _, other := range p.arguments() {
		if _, positional := other.(*PositionalArgument); positional {
			continue
		}
		if other.Alias() != "" && p.equal(other.Alias(), d.alias) {
			return configError("argument %s: alias %s is already used by %s", d.name, d.alias, other.Name())
		}
	}
	return nil
}

func (p *Parser) checkCommand(name, alias string) error {
	if strings.TrimSpace(name) == "" {
		return configError("command name must not be empty")
	}
	taken := func(s string) *Command {
		for _, c := range p.commands {
			if p.equal(c.name, s) || (c.alias != "" && p.equal(c.alias, s)) {
				return c
			}
		}
		return nil
	}
	if c := taken(name); c != nil {
		return configError("command name %s collides with command %s", name, c.name)
	}
	for _, arg := range p.arguments() {
		if p.equal(arg.Destination(), name) {
			return configError("command name %s collides with the destination of argument %s", name, arg.Name())
		}
	}
	if alias != "" {
		if c := taken(alias); c != nil {
			return configError("command alias %s collides with command %s", alias, c.name)
		}
	}
	return nil
}

// AddPositionalArgument appends a positional argument. Positionals are
// consumed in the order they are added.
func (p *Parser) AddPositionalArgument(arg *PositionalArgument) error {
	if arg == nil {
		return configError("positional argument must not be nil")
	}
	if err := p.checkArgument(arg); err != nil {
		return err
	}
	p.positionals = append(p.positionals, arg)
	return nil
}

// AddNamedArgument appends a named argument
func (p *Parser) AddNamedArgument(arg *NamedArgument) error {
	if arg == nil {
		return configError("named argument must not be nil")
	}
	if err := p.checkArgument(arg); err != nil {
		return err
	}
	p.named = append(p.named, arg)
	return nil
}

// AddFlagArgument appends a flag argument
func (p *Parser) AddFlagArgument(arg *FlagArgument) error {
	if arg == nil {
		return configError("flag argument must not be nil")
	}
	if err := p.checkArgument(arg); err != nil {
		return err
	}
	p.flags = append(p.flags, arg)
	return nil
}

// AddCommand appends a command and returns its child parser so it can be
// configured in turn
func (p *Parser) AddCommand(cmd *Command) (*Parser, error) {
	if cmd == nil {
		return nil, configError("command must not be nil")
	}
	if slices.Contains(p.commands, cmd) {
		return nil, configError("command %s has already been added", cmd.name)
	}
	if err := p.checkCommand(cmd.name, cmd.alias); err != nil {
		return nil, err
	}
	p.commands = append(p.commands, cmd)
	return cmd.parser, nil
}

// CreatePositionalArgument builds a positional argument and checks it
// against this parser without adding it
func (p *Parser) CreatePositionalArgument(name string, typ ValueType, opts ...ArgumentOption) (*PositionalArgument, error) {
	arg, err := NewPositionalArgument(name, typ, opts...)
	if err != nil {
		return nil, err
	}
	if err := p.checkArgument(arg); err != nil {
		return nil, err
	}
	return arg, nil
}

// CreateNamedArgument builds a named argument and checks it against this
// parser without adding it
func (p *Parser) CreateNamedArgument(name string, typ ValueType, opts ...ArgumentOption) (*NamedArgument, error) {
	arg, err := NewNamedArgument(name, typ, opts...)
	if err != nil {
		return nil, err
	}
	if err := p.checkArgument(arg); err != nil {
		return nil, err
	}
	return arg, nil
}

// CreateFlagArgument builds a flag argument and checks it against this
// parser without adding it
func (p *Parser) CreateFlagArgument(name string, typ ValueType, opts ...ArgumentOption) (*FlagArgument, error) {
	arg, err := NewFlagArgument(name, typ, opts...)
	if err != nil {
		return nil, err
	}
	if err := p.checkArgument(arg); err != nil {
		return nil, err
	}
	return arg, nil
}

// CreateCommand checks name and alias against this parser's commands, then
// builds a command whose child parser inherits this parser's options
func (p *Parser) CreateCommand(name, alias, description string) (*Command, error) {
	if err := p.checkCommand(name, alias); err != nil {
		return nil, err
	}
	return NewCommand(name, alias, description, New(description, WithOptions(p.options)))
}

// Positional creates and adds a positional argument
func (p *Parser) Positional(name string, typ ValueType, opts ...ArgumentOption) error {
	arg, err := NewPositionalArgument(name, typ, opts...)
	if err != nil {
		return err
	}
	return p.AddPositionalArgument(arg)
}

// Named creates and adds a named argument
func (p *Parser) Named(name string, typ ValueType, opts ...ArgumentOption) error {
	arg, err := NewNamedArgument(name, typ, opts...)
	if err != nil {
		return err
	}
	return p.AddNamedArgument(arg)
}

// Flag creates and adds a flag argument
func (p *Parser) Flag(name string, typ ValueType, opts ...ArgumentOption) error {
	arg, err := NewFlagArgument(name, typ, opts...)
	if err != nil {
		return err
	}
	return p.AddFlagArgument(arg)
}

// Subcommand creates and adds a command, returning its child parser
func (p *Parser) Subcommand(name, alias, description string) (*Parser, error) {
	cmd, err := p.CreateCommand(name, alias, description)
	if err != nil {
		return nil, err
	}
	return p.AddCommand(cmd)
}

// Classification

type tokenKind int

const (
	tokenUnexpected tokenKind = iota
	tokenNamed
	tokenFlag
	tokenBundle
	tokenCommand
)

func (k tokenKind) String() string {
	switch k {
	case tokenNamed:
		return "named"
	case tokenFlag:
		return "flag"
	case tokenBundle:
		return "bundle"
	case tokenCommand:
		return "command"
	default:
		return "unexpected"
	}
}

// match is the outcome of classifying one token
type match struct {
	kind     tokenKind
	index    int    // named or flag index
	value    string // inline value of a named token
	hasValue bool
	bundle   []int // flag index per bundled character
	command  *Command
}

// references reports whether token is "prefix+name" or "aliasPrefix+alias"
func (p *Parser) references(token string, arg Argument) bool {
	if p.equal(token, p.options.ArgumentPrefix+arg.Name()) {
		return true
	}
	alias := arg.Alias()
	return alias != "" && p.equal(token, p.options.ArgumentAliasPrefix+alias)
}

func (p *Parser) matchNamed(token string) (m match, ok bool) {
	head := token
	if i := strings.Index(token, p.options.KeyValueSeparator); i > 0 {
		head = token[:i]
		m.value = token[i+len(p.options.KeyValueSeparator):]
		m.hasValue = true
	}
	for i, arg := range p.named {
		if p.references(head, arg) {
			m.kind, m.index = tokenNamed, i
			return m, true
		}
	}
	return match{}, false
}

func (p *Parser) matchFlag(token string) (match, bool) {
	for i, arg := range p.flags {
		if p.references(token, arg) {
			return match{kind: tokenFlag, index: i}, true
		}
	}
	return match{}, false
}

// matchBundle resolves every character after the alias prefix to a flag
// alias. A single miss rejects the whole token.
func (p *Parser) matchBundle(token string) (match, bool) {
	rest, ok := strings.CutPrefix(token, p.options.ArgumentAliasPrefix)
	if !ok || rest == "" || len(p.flags) == 0 {
		return match{}, false
	}
	var bundle []int
	for _, r := range rest {
		ch := intern.Rune(r)
		found := -1
		for i, arg := range p.flags {
			if arg.alias != "" && p.equal(arg.alias, ch) {
				found = i
				break
			}
		}
		if found < 0 {
			return match{}, false
		}
		bundle = append(bundle, found)
	}
	return match{kind: tokenBundle, bundle: bundle}, true
}

func (p *Parser) matchCommand(token string) (match, bool) {
	for _, cmd := range p.commands {
		if p.equal(token, cmd.name) || (cmd.alias != "" && p.equal(token, cmd.alias)) {
			return match{kind: tokenCommand, command: cmd}, true
		}
	}
	return match{}, false
}

// classify applies the precedence named, flag, bundle, command
func (p *Parser) classify(token string) match {
	if m, ok := p.matchNamed(token); ok {
		return m
	}
	if m, ok := p.matchFlag(token); ok {
		return m
	}
	if m, ok := p.matchBundle(token); ok {
		return m
	}
	if m, ok := p.matchCommand(token); ok {
		return m
	}
	return match{kind: tokenUnexpected}
}

// IsArgumentOrCommand reports whether token references an argument, a flag
// bundle or a command of this level
func (p *Parser) IsArgumentOrCommand(token string) bool {
	return p.classify(token).kind != tokenUnexpected
}

// suggest returns the closest known token for an unexpected one
func (p *Parser) suggest(token string) string {
	if !p.options.Suggestions {
		return ""
	}
	candidates := make([]string, 0, 2*(len(p.named)+len(p.flags))+len(p.commands))
	for _, arg := range p.arguments() {
		if _, positional := arg.(*PositionalArgument); positional {
			continue
		}
		candidates = append(candidates, p.options.ArgumentPrefix+arg.Name())
		if arg.Alias() != "" {
			candidates = append(candidates, p.options.ArgumentAliasPrefix+arg.Alias())
		}
	}
	for _, cmd := range p.commands {
		candidates = append(candidates, cmd.name)
		if cmd.alias != "" {
			candidates = append(candidates, cmd.alias)
		}
	}
	return fuzzy.Suggest(token, candidates, 2)
}

// Parsing

// scratch holds per-level parse state
type scratch struct {
	counts  []uint64 // flag occurrences, by flag index
	present []bool   // named arguments seen, by named index
}

var scratchPool = pool.NewPoolWithReset(
	func() *scratch { return &scratch{} },
	func(s *scratch) {
		s.counts = s.counts[:0]
		s.present = s.present[:0]
	},
)

func zeroed[T any](buf []T, n int) []T {
	if cap(buf) < n {
		return make([]T, n)
	}
	buf = buf[:n]
	clear(buf)
	return buf
}

// Parse parses tokens that do not include the program name
func (p *Parser) Parse(args []string) (*Results, error) {
	return p.parse(newTokenQueue(args))
}

// ParseCommandLine parses a full argument vector; argv[0] (the program
// name) is dropped, so os.Args can be passed as is
func (p *Parser) ParseCommandLine(argv []string) (*Results, error) {
	if len(argv) > 0 {
		argv = argv[1:]
	}
	return p.Parse(argv)
}

// ParseString splits line with shell quoting rules and parses the words
func (p *Parser) ParseString(line string) (*Results, error) {
	tokens, err := shlex.Split(line)
	if err != nil {
		return nil, &ParseError{
			Type:    ErrorTypeUnexpectedToken,
			Message: fmt.Sprintf("cannot split command line %q: %v", line, err),
			Token:   line,
			Cause:   err,
		}
	}
	return p.Parse(tokens)
}

// parse runs one grammar level over q. A matched command drains q.
func (p *Parser) parse(q *tokenQueue) (*Results, error) {
	res := newResults()
	state := StatePositionals

	for _, arg := range p.positionals {
		tok, ok := q.pop()
		if !ok {
			return nil, &ParseError{
				Type:     ErrorTypeMissingArgument,
				Message:  fmt.Sprintf("the required positional argument %s is missing", arg.name),
				Argument: arg.name,
			}
		}
		if err := p.addConverted(res, arg, tok); err != nil {
			return nil, err
		}
	}

	s := scratchPool.Get()
	defer scratchPool.Put(s)
	s.counts = zeroed(s.counts, len(p.flags))
	s.present = zeroed(s.present, len(p.named))

	state = StateScanning
loop:
	for {
		tok, ok := q.pop()
		if !ok {
			break
		}
		m := p.classify(tok)
		p.tracef("[%s] token %q classified as %s", state, tok, m.kind)

		switch m.kind {
		case tokenNamed:
			arg := p.named[m.index]
			raw := m.value
			if !m.hasValue {
				if raw, ok = q.pop(); !ok {
					return nil, &ParseError{
						Type:     ErrorTypeMissingArgument,
						Message:  fmt.Sprintf("the named argument %s requires a value", tok),
						Token:    tok,
						Argument: arg.name,
					}
				}
			}
			if err := p.addConverted(res, arg, raw); err != nil {
				return nil, err
			}
			// A run of plain tokens after the value belongs to the same argument.
			for {
				next, ok := q.peek()
				if !ok || p.IsArgumentOrCommand(next) {
					break
				}
				q.pop()
				if err := p.addConverted(res, arg, next); err != nil {
					return nil, err
				}
			}
			s.present[m.index] = true

		case tokenFlag:
			s.counts[m.index]++

		case tokenBundle:
			for _, i := range m.bundle {
				s.counts[i]++
			}

		case tokenCommand:
			state = StateDelegated
			p.tracef("dispatching %d token(s) to command %s", q.len(), m.command.name)
			nested, err := m.command.parser.parse(q)
			if err != nil {
				return nil, withCommand(err, m.command)
			}
			res.addCommand(m.command, nested)
			break loop

		default:
			return nil, &ParseError{
				Type:       ErrorTypeUnexpectedToken,
				Message:    fmt.Sprintf("unexpected token %s: it is neither an argument nor a command", tok),
				Token:      tok,
				Suggestion: p.suggest(tok),
			}
		}
	}

	if state == StateDelegated && !p.options.FinalizeOnCommand {
		return res, nil
	}

	for i, arg := range p.named {
		if !s.present[i] {
			if err := res.add(arg, cloneValue(arg.defaultValue)); err != nil {
				return nil, withArgument(err, arg)
			}
		}
	}
	for i, arg := range p.flags {
		if err := res.add(arg, convertCount(arg.typ, s.counts[i])); err != nil {
			return nil, withArgument(err, arg)
		}
	}
	p.tracef("[%s] level complete with %d destination(s)", StateDone, res.Len())
	return res, nil
}

func (p *Parser) addConverted(res *Results, arg Argument, raw string) error {
	v, err := Convert(arg.Type(), raw)
	if err != nil {
		return withArgument(err, arg)
	}
	if err := res.add(arg, v); err != nil {
		return withArgument(err, arg)
	}
	return nil
}

// withCommand records the command an error was raised under, innermost first
func withCommand(err error, cmd *Command) error {
	pe, ok := err.(*ParseError)
	if !ok || pe.Command != "" {
		return err
	}
	annotated := *pe
	annotated.Command = cmd.name
	return &annotated
}
