package grammar

import (
	"fmt"

	"github.com/sergey-tihon/facio/grammar/symbol"
)

// firstEntry is the FIRST set of a symbol or of a production suffix. The
// empty flag stands in for the empty-string marker; the marker itself never
// appears among the symbols.
type firstEntry struct {
	symbols map[symbol.Symbol]struct{}
	empty   bool
}

func newFirstEntry() *firstEntry {
	return &firstEntry{
		symbols: map[symbol.Symbol]struct{}{},
		empty:   false,
	}
}

func (e *firstEntry) add(sym symbol.Symbol) bool {
	if _, ok := e.symbols[sym]; ok {
		return false
	}
	e.symbols[sym] = struct{}{}
	return true
}

func (e *firstEntry) addEmpty() bool {
	if !e.empty {
		e.empty = true
		return true
	}
	return false
}

func (e *firstEntry) mergeExceptEmpty(target *firstEntry) bool {
	if target == nil {
		return false
	}
	changed := false
	for sym := range target.symbols {
		added := e.add(sym)
		if added {
			changed = true
		}
	}
	return changed
}

// firstSet maps each non-terminal to its FIRST entry. Once generated it is
// read-only; the closure and goto computations treat it as an oracle.
type firstSet struct {
	set map[symbol.Symbol]*firstEntry
}

func newFirstSet(prods *productionSet) *firstSet {
	fst := &firstSet{
		set: map[symbol.Symbol]*firstEntry{},
	}
	for _, prod := range prods.getAllProductions() {
		if _, ok := fst.set[prod.lhs]; ok {
			continue
		}
		fst.set[prod.lhs] = newFirstEntry()
	}

	return fst
}

// find computes FIRST of the production suffix starting at head. When the
// whole suffix derives the empty string, the entry's empty flag is set.
// A head outside [0, len(RHS)] indicates a bug in the caller.
func (fst *firstSet) find(prod *production, head int) (*firstEntry, error) {
	if head < 0 || head > prod.rhsLen {
		return nil, fmt.Errorf("head must be between 0 and %v; got: %v", prod.rhsLen, head)
	}
	entry := newFirstEntry()
	for _, sym := range prod.rhs[head:] {
		if sym.IsTerminal() {
			entry.add(sym)
			return entry, nil
		}

		e := fst.findBySymbol(sym)
		if e == nil {
			return nil, fmt.Errorf("an entry of FIRST was not found; symbol: %s", sym)
		}
		for s := range e.symbols {
			entry.add(s)
		}
		if !e.empty {
			return entry, nil
		}
	}
	entry.addEmpty()
	return entry, nil
}

func (fst *firstSet) findBySymbol(sym symbol.Symbol) *firstEntry {
	return fst.set[sym]
}

// genFirstSet computes the FIRST sets of all non-terminals as the least
// fixed point over the productions.
func genFirstSet(prods *productionSet) (*firstSet, error) {
	fst := newFirstSet(prods)
	for {
		more := false
		for _, prod := range prods.getAllProductions() {
			e := fst.findBySymbol(prod.lhs)
			changed, err := genProdFirstEntry(fst, e, prod)
			if err != nil {
				return nil, err
			}
			if changed {
				more = true
			}
		}
		if !more {
			break
		}
	}
	return fst, nil
}

func genProdFirstEntry(fst *firstSet, acc *firstEntry, prod *production) (bool, error) {
	if prod.isEmpty() {
		return acc.addEmpty(), nil
	}

	for _, sym := range prod.rhs {
		if sym.IsTerminal() {
			return acc.add(sym), nil
		}

		e := fst.findBySymbol(sym)
		if e == nil {
			return false, fmt.Errorf("an entry of FIRST was not found; symbol: %s", sym)
		}
		changed := acc.mergeExceptEmpty(e)
		if !e.empty {
			return changed, nil
		}
	}
	return acc.addEmpty(), nil
}
