package cmdline

import (
	"errors"
)

// ExitError requests a specific process exit code
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return "exit"
}

func (e *ExitError) Unwrap() error { return e.Err }

// ExitCodeDefaults holds common default codes.
type ExitCodeDefaults struct {
	Success         int // default: 0
	GeneralError    int // default: 1
	MisusageError   int // default: 2
	ValidationError int // default: 3
}

// DefaultExitCodes returns the conventional codes
func DefaultExitCodes() ExitCodeDefaults {
	return ExitCodeDefaults{Success: 0, GeneralError: 1, MisusageError: 2, ValidationError: 3}
}

// ExitCodeManager maps errors to process exit codes.
type ExitCodeManager struct {
	codes    map[ErrorType]int
	errs     []errorCode
	defaults ExitCodeDefaults
}

type errorCode struct {
	err  error
	code int
}

// NewExitCodeManager prewires the parse error categories: missing arguments
// and unexpected tokens are misusage, conversion failures are validation
// errors, configuration errors are general (a broken grammar, not a user
// mistake).
func NewExitCodeManager() *ExitCodeManager {
	m := &ExitCodeManager{
		codes:    make(map[ErrorType]int),
		defaults: DefaultExitCodes(),
	}
	m.codes[ErrorTypeMissingArgument] = m.defaults.MisusageError
	m.codes[ErrorTypeUnexpectedToken] = m.defaults.MisusageError
	m.codes[ErrorTypeConversion] = m.defaults.ValidationError
	m.codes[ErrorTypeConfiguration] = m.defaults.GeneralError
	return m
}

// Define overrides the exit code of an error category
func (m *ExitCodeManager) Define(typ ErrorType, code int) *ExitCodeManager {
	m.codes[typ] = code
	return m
}

// DefineError maps errors matching target (errors.Is) to code. These take
// precedence over the category mapping.
func (m *ExitCodeManager) DefineError(target error, code int) *ExitCodeManager {
	m.errs = append(m.errs, errorCode{err: target, code: code})
	return m
}

// Default replaces the default codes. Category mappings are left untouched.
func (m *ExitCodeManager) Default(d ExitCodeDefaults) *ExitCodeManager {
	m.defaults = d
	return m
}

// Resolve converts an error to an exit code.
// Precedence:
//  1. ExitError (requested code)
//  2. DefineError mappings, in definition order
//  3. ParseError category mapping
//  4. Default codes
func (m *ExitCodeManager) Resolve(err error) int {
	if err == nil {
		return m.defaults.Success
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}

	for _, ec := range m.errs {
		if errors.Is(err, ec.err) {
			return ec.code
		}
	}

	var pe *ParseError
	if errors.As(err, &pe) {
		if code, ok := m.codes[pe.Type]; ok {
			return code
		}
	}

	return m.defaults.GeneralError
}
