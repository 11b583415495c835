// Package scancode resolves key symbols to physical Set 1 scan codes.
//
// Scan codes identify the physical key independent of the active keyboard
// layout, which is what games reading raw input expect. Keys whose make
// code is sent with the E0 prefix are flagged Extended.
package scancode

import (
	"fmt"
	"sort"

	"github.com/dshills/keyburst/internal/input/key"
)

// Code is a physical key identifier.
type Code struct {
	// Scan is the Set 1 make code.
	Scan uint16

	// Extended reports the E0-prefixed variant.
	Extended bool
}

// String returns the code in the conventional "E0 4B" / "1E" notation.
func (c Code) String() string {
	if c.Extended {
		return fmt.Sprintf("E0 %02X", c.Scan)
	}
	return fmt.Sprintf("%02X", c.Scan)
}

// Resolver maps key symbols to physical codes and back. It holds no mutable
// state and is safe for concurrent use.
type Resolver struct {
	byName map[key.Symbol]Code
	byCode map[Code]key.Symbol
}

// Entry is one row of a resolver table.
type Entry struct {
	Name key.Symbol
	Code Code
}

// NewResolver builds a resolver from entries. The first entry for a code
// wins the reverse mapping.
func NewResolver(entries []Entry) *Resolver {
	r := &Resolver{
		byName: make(map[key.Symbol]Code, len(entries)),
		byCode: make(map[Code]key.Symbol, len(entries)),
	}
	for _, e := range entries {
		r.byName[e.Name] = e.Code
		if _, exists := r.byCode[e.Code]; !exists {
			r.byCode[e.Code] = e.Name
		}
	}
	return r
}

// Resolve returns the physical code for sym. Shifted punctuation resolves to
// the key that produces it.
func (r *Resolver) Resolve(sym key.Symbol) (Code, bool) {
	if c, ok := r.byName[sym]; ok {
		return c, true
	}
	if base, ok := key.Unshift(sym); ok {
		c, found := r.byName[base]
		return c, found
	}
	return Code{}, false
}

// Name returns the symbol for a physical code.
func (r *Resolver) Name(c Code) (key.Symbol, bool) {
	sym, ok := r.byCode[c]
	return sym, ok
}

// Names returns every resolvable symbol in lexical order.
func (r *Resolver) Names() []key.Symbol {
	out := make([]key.Symbol, 0, len(r.byName))
	for sym := range r.byName {
		out = append(out, sym)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Len returns the number of resolvable symbols.
func (r *Resolver) Len() int {
	return len(r.byName)
}

// Default is the resolver for a US 104-key layout.
var Default = NewResolver(usLayout)
