package grammar

import (
	"fmt"

	"github.com/emirpasic/gods/sets/treeset"
	"github.com/sergey-tihon/facio/grammar/symbol"
)

// lr1Automaton is the canonical collection of LR(1) item sets reachable from
// the initial state. State numbers are assigned on first discovery; the
// initial state is always number 0.
type lr1Automaton struct {
	initialState stateID
	states       map[stateID]*lrState
}

// statesByNum returns the states ordered by their number. All iteration that
// feeds output runs over this ordering to keep two runs byte-identical.
func (a *lr1Automaton) statesByNum() []*lrState {
	ordered := make([]*lrState, len(a.states))
	for _, state := range a.states {
		ordered[state.num.Int()] = state
	}
	return ordered
}

func symbolComparator(a, b interface{}) int {
	s1 := a.(symbol.Symbol)
	s2 := b.(symbol.Symbol)
	switch {
	case s1 < s2:
		return -1
	case s1 > s2:
		return 1
	}
	return 0
}

// genLR1Automaton explores the LR(1) item sets reachable from the augmented
// start productions. The grammar must be augmented beforehand: the passed
// start symbol carries the reserved start flag and its productions end with
// the EOF symbol, which may appear nowhere else.
func genLR1Automaton(prods *productionSet, startSym symbol.Symbol, first *firstSet) (*lr1Automaton, error) {
	if !startSym.IsStart() {
		return nil, semErrMissingAugmentation
	}
	startProds, ok := prods.findByLHS(startSym)
	if !ok || len(startProds) == 0 {
		return nil, semErrMissingAugmentation
	}
	for _, prod := range startProds {
		if prod.rhsLen == 0 || !prod.rhs[prod.rhsLen-1].IsEOF() {
			return nil, semErrMissingAugmentation
		}
	}
	for _, prod := range prods.getAllProductions() {
		for i, sym := range prod.rhs {
			if !sym.IsEOF() {
				continue
			}
			if !prod.lhs.IsStart() || i != prod.rhsLen-1 {
				return nil, semErrReservedEOF
			}
		}
	}

	automaton := &lr1Automaton{
		states: map[stateID]*lrState{},
	}

	currentNum := stateNumInitial
	intern := func(items []*lrItem) (*lrState, bool) {
		id := genStateID(items)
		if state, known := automaton.states[id]; known {
			return state, false
		}
		state := &lrState{
			id:    id,
			num:   currentNum,
			items: items,
			next:  map[symbol.Symbol]stateID{},
		}
		currentNum = currentNum.next()
		automaton.states[id] = state
		return state, true
	}

	uncheckedStates := []*lrState{}

	// Generate the initial state. The seed items take EOF as their
	// look-ahead: the augmented production is S' → S <eof>, so EOF is the
	// terminal that syntactically follows S, not a placeholder.
	{
		seeds := make([]*lrItem, 0, len(startProds))
		for _, prod := range startProds {
			item, err := newLR1Item(prod, 0, symbol.SymbolEOF)
			if err != nil {
				return nil, err
			}
			seeds = append(seeds, item)
		}

		items, err := genLR1Closure(seeds, prods, first)
		if err != nil {
			return nil, err
		}

		s0, _ := intern(items)
		automaton.initialState = s0.id
		uncheckedStates = append(uncheckedStates, s0)
	}

	for len(uncheckedStates) > 0 {
		nextUncheckedStates := []*lrState{}
		for _, state := range uncheckedStates {
			neighbours, err := genNeighbourStates(state, prods, first)
			if err != nil {
				return nil, err
			}

			for _, n := range neighbours {
				next, isNew := intern(n.items)
				state.next[n.symbol] = next.id
				if isNew {
					nextUncheckedStates = append(nextUncheckedStates, next)
				}
			}

			for _, item := range state.items {
				if item.dottedSymbol.IsEOF() {
					state.accept = true
					break
				}
			}
		}
		uncheckedStates = nextUncheckedStates
	}

	return automaton, nil
}

// genLR1Closure expands the seed items to the least fixed point: for every
// item whose dotted symbol is a non-terminal B, the start items of all
// productions of B join the set, one per look-ahead drawn from FIRST of the
// suffix behind B followed by the item's own look-ahead. The returned items
// are sorted by item ID.
func genLR1Closure(seeds []*lrItem, prods *productionSet, first *firstSet) ([]*lrItem, error) {
	items := []*lrItem{}
	knownItems := map[lrItemID]struct{}{}
	uncheckedItems := []*lrItem{}
	for _, item := range seeds {
		if _, exist := knownItems[item.id]; exist {
			continue
		}
		knownItems[item.id] = struct{}{}
		items = append(items, item)
		uncheckedItems = append(uncheckedItems, item)
	}

	for len(uncheckedItems) > 0 {
		nextUncheckedItems := []*lrItem{}
		for _, item := range uncheckedItems {
			if !item.dottedSymbol.IsNonTerminal() {
				continue
			}

			prod, ok := prods.findByID(item.prod)
			if !ok {
				return nil, fmt.Errorf("production not found: %v", item.prod)
			}

			las, err := genLookAheadSet(first, prod, item.dot+1, item.lookAhead)
			if err != nil {
				return nil, err
			}

			ps, _ := prods.findByLHS(item.dottedSymbol)
			for _, p := range ps {
				for _, a := range las {
					newItem, err := newLR1Item(p, 0, a)
					if err != nil {
						return nil, err
					}
					if _, exist := knownItems[newItem.id]; exist {
						continue
					}
					knownItems[newItem.id] = struct{}{}
					items = append(items, newItem)
					nextUncheckedItems = append(nextUncheckedItems, newItem)
				}
			}
		}
		uncheckedItems = nextUncheckedItems
	}

	sortItems(items)

	return items, nil
}

type neighbourState struct {
	symbol symbol.Symbol
	items  []*lrItem
}

// genNeighbourStates computes the goto of a state under every symbol some
// item has at its dot: advance the matching items and close the result.
// Symbols with no matching item produce no entry, and the EOF symbol is
// skipped because reaching it means accept, not a transition.
func genNeighbourStates(state *lrState, prods *productionSet, first *firstSet) ([]*neighbourState, error) {
	kItemMap := map[symbol.Symbol][]*lrItem{}
	nextSyms := treeset.NewWith(symbolComparator)
	for _, item := range state.items {
		if item.dottedSymbol.IsNil() || item.dottedSymbol.IsEOF() {
			continue
		}
		kItem, err := item.advance(prods)
		if err != nil {
			return nil, err
		}
		kItemMap[item.dottedSymbol] = append(kItemMap[item.dottedSymbol], kItem)
		nextSyms.Add(item.dottedSymbol)
	}

	neighbours := make([]*neighbourState, 0, nextSyms.Size())
	it := nextSyms.Iterator()
	for it.Next() {
		sym := it.Value().(symbol.Symbol)
		items, err := genLR1Closure(kItemMap[sym], prods, first)
		if err != nil {
			return nil, err
		}
		neighbours = append(neighbours, &neighbourState{
			symbol: sym,
			items:  items,
		})
	}

	return neighbours, nil
}
