package cmdline

// Default token syntax
const (
	DefaultArgumentPrefix      = "--"
	DefaultArgumentAliasPrefix = "-"
	DefaultKeyValueSeparator   = "="
)

// Logger receives debug traces of classification and command dispatch.
// *cmdio.Logger satisfies it.
type Logger interface {
	Debug(format string, args ...any)
}

// ParserOptions configures the token syntax of a Parser
type ParserOptions struct {
	// ArgumentPrefix identifies a named or flag argument by its full name.
	ArgumentPrefix string
	// ArgumentAliasPrefix identifies an argument by alias, and flag bundles.
	ArgumentAliasPrefix string
	// KeyValueSeparator splits "--name=value" into name and inline value.
	KeyValueSeparator string
	// IgnoreCase makes name and alias matching case-insensitive.
	IgnoreCase bool
	// FinalizeOnCommand still adds defaults and flag values of a level
	// after one of its commands consumed the rest of the tokens.
	FinalizeOnCommand bool
	// Suggestions attaches a "did you mean" hint to unexpected tokens.
	Suggestions bool
	// Logger, when set, receives debug traces.
	Logger Logger
}

// DefaultOptions returns the conventional "--name", "-n", "=" syntax
func DefaultOptions() ParserOptions {
	return ParserOptions{
		ArgumentPrefix:      DefaultArgumentPrefix,
		ArgumentAliasPrefix: DefaultArgumentAliasPrefix,
		KeyValueSeparator:   DefaultKeyValueSeparator,
		Suggestions:         true,
	}
}

// withDefaults fills empty token syntax fields
func (o ParserOptions) withDefaults() ParserOptions {
	if o.ArgumentPrefix == "" {
		o.ArgumentPrefix = DefaultArgumentPrefix
	}
	if o.ArgumentAliasPrefix == "" {
		o.ArgumentAliasPrefix = DefaultArgumentAliasPrefix
	}
	if o.KeyValueSeparator == "" {
		o.KeyValueSeparator = DefaultKeyValueSeparator
	}
	return o
}

// Option customizes ParserOptions in New
type Option func(*ParserOptions)

// WithOptions replaces all options at once
func WithOptions(opts ParserOptions) Option {
	return func(o *ParserOptions) { *o = opts }
}

// WithArgumentPrefix sets the prefix for full argument names
func WithArgumentPrefix(prefix string) Option {
	return func(o *ParserOptions) { o.ArgumentPrefix = prefix }
}

// WithAliasPrefix sets the prefix for aliases and flag bundles
func WithAliasPrefix(prefix string) Option {
	return func(o *ParserOptions) { o.ArgumentAliasPrefix = prefix }
}

// WithKeyValueSeparator sets the separator of inline values
func WithKeyValueSeparator(sep string) Option {
	return func(o *ParserOptions) { o.KeyValueSeparator = sep }
}

// WithIgnoreCase enables case-insensitive matching
func WithIgnoreCase(enabled bool) Option {
	return func(o *ParserOptions) { o.IgnoreCase = enabled }
}

// WithFinalizeOnCommand keeps defaults and flag values of a level that
// dispatched to a command
func WithFinalizeOnCommand(enabled bool) Option {
	return func(o *ParserOptions) { o.FinalizeOnCommand = enabled }
}

// WithSuggestions toggles "did you mean" hints
func WithSuggestions(enabled bool) Option {
	return func(o *ParserOptions) { o.Suggestions = enabled }
}

// WithLogger sets the debug trace logger
func WithLogger(l Logger) Option {
	return func(o *ParserOptions) { o.Logger = l }
}
