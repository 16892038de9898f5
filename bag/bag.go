// Package bag reads a command line without a declared grammar. Every
// parameter found is kept by name with an inferred value: Windows style
// (/switch, /key:value) and Unix style (--switch, --key=value, -abc, -k v)
// may be mixed freely.
package bag

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode"

	orderedmap "github.com/wk8/go-ordered-map/v2"
	"gopkg.in/yaml.v3"

	"github.com/dzonerzy/go-cmdline/cmdline"
)

// Bag holds the parameters of one command line
type Bag struct {
	// Defaults are the unnamed string values preceding all named parameters
	Defaults []string
	// Parameters maps names to values in command-line order
	Parameters *orderedmap.OrderedMap[string, Parameter]
}

// Lookup returns the parameter stored under name
func (b *Bag) Lookup(name string) (Parameter, bool) {
	return b.Parameters.Get(name)
}

// Names returns the parameter names in command-line order
func (b *Bag) Names() []string {
	names := make([]string, 0, b.Parameters.Len())
	for pair := b.Parameters.Oldest(); pair != nil; pair = pair.Next() {
		names = append(names, pair.Key)
	}
	return names
}

// Len returns the number of named parameters
func (b *Bag) Len() int { return b.Parameters.Len() }

// MarshalJSON encodes {"defaults": [...], "parameters": {...}}
func (b *Bag) MarshalJSON() ([]byte, error) {
	defaults := b.Defaults
	if defaults == nil {
		defaults = []string{}
	}
	return json.Marshal(struct {
		Defaults   []string                                   `json:"defaults"`
		Parameters *orderedmap.OrderedMap[string, Parameter] `json:"parameters"`
	}{defaults, b.Parameters})
}

// MarshalYAML encodes the same document as MarshalJSON, keeping parameter
// order
func (b *Bag) MarshalYAML() (any, error) {
	params := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for pair := b.Parameters.Oldest(); pair != nil; pair = pair.Next() {
		var v yaml.Node
		if err := v.Encode(pair.Value.Value()); err != nil {
			return nil, fmt.Errorf("encode %s: %w", pair.Key, err)
		}
		params.Content = append(params.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: pair.Key},
			&v,
		)
	}
	var defaults yaml.Node
	if err := defaults.Encode(append([]string{}, b.Defaults...)); err != nil {
		return nil, err
	}
	return &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map", Content: []*yaml.Node{
		{Kind: yaml.ScalarNode, Tag: "!!str", Value: "defaults"}, &defaults,
		{Kind: yaml.ScalarNode, Tag: "!!str", Value: "parameters"}, params,
	}}, nil
}

// Parse splits commandLine into words and reads them. Double and single
// quotes group words and are removed; a backslash is an ordinary character,
// so Windows paths survive. Because the quotes are removed, a quoted number
// is read as a number.
func Parse(commandLine string) (*Bag, error) {
	words, err := splitWords(commandLine)
	if err != nil {
		return nil, err
	}
	return ParseArgs(words)
}

// splitWords cuts line at unquoted whitespace. A quote may start anywhere in
// a word ("--k="a b"" is one word) and runs to the next quote of the same
// kind.
func splitWords(line string) ([]string, error) {
	var words []string
	var cur strings.Builder
	inWord := false
	var quote rune
	start := 0
	for i, r := range line {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			} else {
				cur.WriteRune(r)
			}
		case r == '"' || r == '\'':
			quote, start, inWord = r, i, true
		case unicode.IsSpace(r):
			if inWord {
				words = append(words, cur.String())
				cur.Reset()
				inWord = false
			}
		default:
			cur.WriteRune(r)
			inWord = true
		}
	}
	if quote != 0 {
		return nil, syntaxError(line[start:], "missing closing %c quote", quote)
	}
	if inWord {
		words = append(words, cur.String())
	}
	return words, nil
}

// ParseArgs reads words that were already split, such as os.Args[1:]
func ParseArgs(words []string) (*Bag, error) {
	tokens, err := joinArrays(words)
	if err != nil {
		return nil, err
	}
	r := &reader{
		tokens: tokens,
		bag:    &Bag{Parameters: orderedmap.New[string, Parameter]()},
	}
	if err := r.read(); err != nil {
		return nil, err
	}
	return r.bag, nil
}

// joinArrays glues words back together while a '[' is open, so that
// "--k:[a," "b]" becomes "--k:[a, b]"
func joinArrays(words []string) ([]string, error) {
	var out []string
	var cur strings.Builder
	depth := 0
	for _, w := range words {
		if depth > 0 {
			cur.WriteByte(' ')
		}
		cur.WriteString(w)
		depth += strings.Count(w, "[") - strings.Count(w, "]")
		if depth < 0 {
			return nil, syntaxError(w, "unbalanced ']'")
		}
		if depth == 0 {
			out = append(out, cur.String())
			cur.Reset()
		}
	}
	if depth > 0 {
		return nil, syntaxError(cur.String(), "array is missing its closing bracket")
	}
	return out, nil
}

type reader struct {
	tokens []string
	pos    int
	bag    *Bag
	named  bool
}

func (r *reader) next() (string, bool) {
	if r.pos >= len(r.tokens) {
		return "", false
	}
	tok := r.tokens[r.pos]
	r.pos++
	return tok, true
}

func (r *reader) peekValue() (string, bool) {
	if r.pos >= len(r.tokens) || isParameter(r.tokens[r.pos]) {
		return "", false
	}
	return r.tokens[r.pos], true
}

func (r *reader) read() error {
	for {
		tok, ok := r.next()
		if !ok {
			return nil
		}
		var err error
		switch {
		case strings.HasPrefix(tok, "--"):
			err = r.readLong(tok, tok[2:])
		case strings.HasPrefix(tok, "/"):
			err = r.readLong(tok, tok[1:])
		case isParameter(tok):
			err = r.readShort(tok, tok[1:])
		default:
			err = r.readDefault(tok)
		}
		if err != nil {
			return err
		}
	}
}

// isParameter reports whether tok starts a parameter rather than a value.
// A dash followed by a digit or a dot is a negative number.
func isParameter(tok string) bool {
	switch {
	case strings.HasPrefix(tok, "/"):
		return true
	case strings.HasPrefix(tok, "-") && len(tok) > 1:
		c := tok[1]
		return c != '.' && (c < '0' || c > '9')
	}
	return false
}

// splitName cuts "name:value" or "name=value" at the first separator
func splitName(s string) (name, value string, inline bool) {
	if i := strings.IndexAny(s, ":="); i >= 0 {
		return s[:i], s[i+1:], true
	}
	return s, "", false
}

func validName(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		switch {
		case unicode.IsLetter(r) || r == '_':
		case i > 0 && (unicode.IsDigit(r) || r == '-' || r == '.'):
		default:
			return false
		}
	}
	return true
}

// readLong handles --name and /name with an optional value
func (r *reader) readLong(tok, body string) error {
	name, value, inline := splitName(body)
	if !validName(name) {
		return syntaxError(tok, "invalid parameter name %q", name)
	}
	return r.readValue(tok, name, value, inline)
}

// readShort handles -k, -k=value, -k value and the switch bundle -abc
func (r *reader) readShort(tok, body string) error {
	name, value, inline := splitName(body)
	if !validName(name) {
		return syntaxError(tok, "invalid parameter name %q", name)
	}
	if len([]rune(name)) == 1 {
		return r.readValue(tok, name, value, inline)
	}
	if inline {
		return syntaxError(tok, "a switch bundle cannot take a value")
	}
	for _, c := range name {
		if !unicode.IsLetter(c) {
			return syntaxError(tok, "switch %q must be a letter", c)
		}
		if err := r.store(tok, string(c), Bool(true)); err != nil {
			return err
		}
	}
	return nil
}

func (r *reader) readValue(tok, name, value string, inline bool) error {
	if inline {
		if value == "" {
			return &cmdline.ParseError{
				Type:    cmdline.ErrorTypeMissingArgument,
				Message: fmt.Sprintf("parameter %s has an empty value", name),
				Token:   tok,
			}
		}
		return r.storeRaw(tok, name, value)
	}
	if next, ok := r.peekValue(); ok {
		r.pos++
		return r.storeRaw(next, name, next)
	}
	return r.store(tok, name, Bool(true))
}

func (r *reader) storeRaw(tok, name, raw string) error {
	v, err := ParseValue(raw)
	if err != nil {
		return &cmdline.ParseError{
			Type:    cmdline.ErrorTypeConversion,
			Message: fmt.Sprintf("parameter %s: %v", name, err),
			Token:   tok,
			Cause:   err,
		}
	}
	return r.store(tok, name, v)
}

func (r *reader) store(tok, name string, v Parameter) error {
	if _, dup := r.bag.Parameters.Get(name); dup {
		return syntaxError(tok, "parameter %s is given more than once", name)
	}
	r.bag.Parameters.Set(name, v)
	r.named = true
	return nil
}

// readDefault accepts an unnamed value. Only strings are allowed and only
// before the first named parameter.
func (r *reader) readDefault(tok string) error {
	if r.named {
		return syntaxError(tok, "value %q has no parameter name", tok)
	}
	v, err := ParseValue(tok)
	if err != nil || v.Kind() != KindString {
		return syntaxError(tok, "default parameter %q must be a string", tok)
	}
	r.bag.Defaults = append(r.bag.Defaults, tok)
	return nil
}

func syntaxError(tok, format string, args ...any) error {
	return &cmdline.ParseError{
		Type:    cmdline.ErrorTypeUnexpectedToken,
		Message: fmt.Sprintf(format, args...),
		Token:   tok,
	}
}
