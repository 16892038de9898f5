package cmdline

import (
	"errors"
	"fmt"
)

// ErrorType represents error categories raised by the grammar engine.
// These categories drive exit-code mapping (via ExitCodeManager).
type ErrorType string

const (
	// ErrorTypeConfiguration is raised while building a grammar: duplicate
	// name/alias/destination, reserved characters, empty required fields.
	ErrorTypeConfiguration ErrorType = "configuration"
	// ErrorTypeMissingArgument is raised when a positional argument (or the
	// value of a named argument) has no corresponding token.
	ErrorTypeMissingArgument ErrorType = "missing_argument"
	// ErrorTypeUnexpectedToken is raised for a token that matches nothing.
	ErrorTypeUnexpectedToken ErrorType = "unexpected_token"
	// ErrorTypeConversion is raised when a value cannot be converted to the
	// declared type of its argument.
	ErrorTypeConversion ErrorType = "conversion"
)

// Sentinels usable with errors.Is
var (
	ErrConfiguration   = errors.New("configuration error")
	ErrMissingArgument = errors.New("missing argument")
	ErrUnexpectedToken = errors.New("unexpected token")
	ErrConversion      = errors.New("conversion error")
)

var sentinels = map[ErrorType]error{
	ErrorTypeConfiguration:   ErrConfiguration,
	ErrorTypeMissingArgument: ErrMissingArgument,
	ErrorTypeUnexpectedToken: ErrUnexpectedToken,
	ErrorTypeConversion:      ErrConversion,
}

// ParseError is the structured error returned by configuration and parse
// operations. Every parse error aborts the whole parse.
type ParseError struct {
	Type       ErrorType
	Message    string
	Token      string // offending token, verbatim
	Argument   string // argument name, if any
	Command    string // command name, if any
	Suggestion string // closest known token for unexpected tokens
	Cause      error
}

func (e *ParseError) Error() string {
	if e.Suggestion != "" {
		return e.Message + " (did you mean " + e.Suggestion + "?)"
	}
	return e.Message
}

// Unwrap exposes the underlying cause
func (e *ParseError) Unwrap() error {
	return e.Cause
}

// Is matches the sentinel of the error's category
func (e *ParseError) Is(target error) bool {
	s, ok := sentinels[e.Type]
	return ok && s == target
}

// NewParseError creates a new ParseError with the given type and message
func NewParseError(errType ErrorType, message string) *ParseError {
	return &ParseError{
		Type:    errType,
		Message: message,
	}
}

func configError(format string, args ...any) *ParseError {
	return NewParseError(ErrorTypeConfiguration, fmt.Sprintf(format, args...))
}

// withArgument annotates a conversion error with the argument it belongs to
func withArgument(err error, arg Argument) error {
	var pe *ParseError
	if !errors.As(err, &pe) {
		return err
	}
	annotated := *pe
	annotated.Argument = arg.Name()
	annotated.Message = fmt.Sprintf("argument %s: %s", arg.Name(), pe.Message)
	return &annotated
}

// ErrorTypeOf returns the category of a parse error, or "" if err is not one
func ErrorTypeOf(err error) ErrorType {
	var pe *ParseError
	if errors.As(err, &pe) {
		return pe.Type
	}
	return ""
}
