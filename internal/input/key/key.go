package key

import (
	"sort"
	"strings"
)

// Symbol is the canonical name of a physical key.
type Symbol string

// None is the empty symbol, used where "no key" must be represented.
const None Symbol = ""

// NumpadPrefix marks keypad variants of main-block keys.
const NumpadPrefix = "numpad "

// String returns the symbol name.
func (s Symbol) String() string {
	return string(s)
}

// IsNone reports whether s is the empty symbol.
func (s Symbol) IsNone() bool {
	return s == None
}

// IsNumpad reports whether s names a keypad key.
func (s Symbol) IsNumpad() bool {
	return strings.HasPrefix(string(s), NumpadPrefix)
}

// Set is an unordered set of symbols. The zero value is not usable; create
// one with NewSet.
type Set map[Symbol]struct{}

// NewSet creates a set holding the given symbols.
func NewSet(symbols ...Symbol) Set {
	s := make(Set, len(symbols))
	for _, sym := range symbols {
		s[sym] = struct{}{}
	}
	return s
}

// Add inserts sym.
func (s Set) Add(sym Symbol) {
	s[sym] = struct{}{}
}

// Remove deletes sym.
func (s Set) Remove(sym Symbol) {
	delete(s, sym)
}

// Has reports whether sym is in the set.
func (s Set) Has(sym Symbol) bool {
	_, ok := s[sym]
	return ok
}

// ContainsAll reports whether every symbol of other is in s.
func (s Set) ContainsAll(other Set) bool {
	for sym := range other {
		if !s.Has(sym) {
			return false
		}
	}
	return true
}

// Sorted returns the members in lexical order.
func (s Set) Sorted() []Symbol {
	out := make([]Symbol, 0, len(s))
	for sym := range s {
		out = append(out, sym)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
