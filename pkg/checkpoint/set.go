package checkpoint

import "sort"

// Set is the collection of tickers already fetched or found on disk
type Set map[string]struct{}

// NewSet creates a set holding the given symbols
func NewSet(symbols ...string) Set {
	s := make(Set, len(symbols))
	for _, sym := range symbols {
		s.Add(sym)
	}
	return s
}

// Add records a symbol as processed
func (s Set) Add(symbol string) {
	s[symbol] = struct{}{}
}

// Has reports whether symbol has been processed
func (s Set) Has(symbol string) bool {
	_, ok := s[symbol]
	return ok
}

// Len returns the number of processed symbols
func (s Set) Len() int {
	return len(s)
}

// Sorted returns the symbols in lexical order
func (s Set) Sorted() []string {
	out := make([]string, 0, len(s))
	for sym := range s {
		out = append(out, sym)
	}
	sort.Strings(out)
	return out
}
