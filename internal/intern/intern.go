// Package intern provides canonical strings for the single characters of
// flag bundles, so matching "-abc" does not allocate per character.
package intern

import (
	"sync"
)

// StringInterner provides thread-safe string interning
type StringInterner struct {
	strings map[string]string
	mutex   sync.RWMutex
}

// NewStringInterner creates a new string interner with optional pre-allocated capacity
func NewStringInterner(capacity int) *StringInterner {
	if capacity <= 0 {
		capacity = 64
	}
	return &StringInterner{
		strings: make(map[string]string, capacity),
	}
}

// Intern returns the canonical instance of s
func (si *StringInterner) Intern(s string) string {
	si.mutex.RLock()
	if interned, exists := si.strings[s]; exists {
		si.mutex.RUnlock()
		return interned
	}
	si.mutex.RUnlock()

	si.mutex.Lock()
	defer si.mutex.Unlock()

	// Double-check after acquiring write lock
	if interned, exists := si.strings[s]; exists {
		return interned
	}
	si.strings[s] = s
	return s
}

// Rune returns r as a one-character string. Printable ASCII comes from a
// static table; anything else is interned.
func (si *StringInterner) Rune(r rune) string {
	if r >= asciiFirst && r <= asciiLast {
		return asciiStrings[r-asciiFirst]
	}
	return si.Intern(string(r))
}

// Len returns the number of interned strings
func (si *StringInterner) Len() int {
	si.mutex.RLock()
	defer si.mutex.RUnlock()
	return len(si.strings)
}

const (
	asciiFirst = '!'
	asciiLast  = '~'
)

// asciiStrings holds "!" through "~"
var asciiStrings = func() (table [asciiLast - asciiFirst + 1]string) {
	for i := range table {
		table[i] = string(rune(asciiFirst + i))
	}
	return table
}()

var global = NewStringInterner(16)

// Intern interns a string using the global interner
func Intern(s string) string {
	return global.Intern(s)
}

// Rune returns r as a canonical one-character string using the global
// interner
func Rune(r rune) string {
	return global.Rune(r)
}
