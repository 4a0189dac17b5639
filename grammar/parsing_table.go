package grammar

import (
	"fmt"
	"sort"

	"github.com/sergey-tihon/facio/grammar/symbol"
	"github.com/sergey-tihon/facio/spec"
)

type ActionType string

const (
	ActionTypeShift  = ActionType("shift")
	ActionTypeReduce = ActionType("reduce")
	ActionTypeAccept = ActionType("accept")
	ActionTypeError  = ActionType("error")
)

// actionEntry packs one parser directive into an int: a shift entry is the
// negated successor state number, a reduce entry is the production number,
// and accept has a dedicated value. The encodings cannot collide because the
// initial state is never a shift target and production number 0 is nil.
type actionEntry int

const (
	actionEntryEmpty  = actionEntry(0)
	actionEntryAccept = actionEntry(-1 << 24)
)

func newShiftActionEntry(state stateNum) actionEntry {
	return actionEntry(state.Int() * -1)
}

func newReduceActionEntry(prod productionNum) actionEntry {
	return actionEntry(prod.Int())
}

func (e actionEntry) describe() (ActionType, stateNum, productionNum) {
	if e == actionEntryEmpty {
		return ActionTypeError, stateNumInitial, productionNumNil
	}
	if e == actionEntryAccept {
		return ActionTypeAccept, stateNumInitial, productionNumNil
	}
	if e < 0 {
		return ActionTypeShift, stateNum(e * -1), productionNumNil
	}
	return ActionTypeReduce, stateNumInitial, productionNum(e)
}

type GoToType string

const (
	GoToTypeRegistered = GoToType("registered")
	GoToTypeError      = GoToType("error")
)

type goToEntry uint

const goToEntryEmpty = goToEntry(0)

func newGoToEntry(state stateNum) goToEntry {
	return goToEntry(state)
}

func (e goToEntry) describe() (GoToType, stateNum) {
	if e == goToEntryEmpty {
		return GoToTypeError, stateNumInitial
	}
	return GoToTypeRegistered, stateNum(e)
}

type conflict interface {
	conflict()
}

type shiftReduceConflict struct {
	state     stateNum
	sym       symbol.Symbol
	nextState stateNum
	prodNum   productionNum
}

func (c *shiftReduceConflict) conflict() {
}

type reduceReduceConflict struct {
	state    stateNum
	sym      symbol.Symbol
	prodNum1 productionNum
	prodNum2 productionNum
}

func (c *reduceReduceConflict) conflict() {
}

var (
	_ conflict = &shiftReduceConflict{}
	_ conflict = &reduceReduceConflict{}
)

// ParsingTable is the generated ACTION/GOTO table. An ACTION cell holds
// every directive recorded for its key; a cell with two or more entries is a
// conflict, kept as data for a downstream resolver.
type ParsingTable struct {
	actionTable      [][]actionEntry
	goToTable        []goToEntry
	stateCount       int
	terminalCount    int
	nonTerminalCount int

	states    []*lrState
	conflicts []conflict

	InitialState stateNum
}

func (t *ParsingTable) getAction(state stateNum, sym symbol.SymbolNum) []actionEntry {
	return t.actionTable[state.Int()*t.terminalCount+sym.Int()]
}

func (t *ParsingTable) getGoTo(state stateNum, sym symbol.SymbolNum) (GoToType, stateNum) {
	return t.goToTable[state.Int()*t.nonTerminalCount+sym.Int()].describe()
}

func (t *ParsingTable) appendAction(state stateNum, sym symbol.SymbolNum, act actionEntry) {
	pos := state.Int()*t.terminalCount + sym.Int()
	t.actionTable[pos] = append(t.actionTable[pos], act)
}

func (t *ParsingTable) writeGoTo(state stateNum, sym symbol.Symbol, nextState stateNum) {
	pos := state.Int()*t.nonTerminalCount + sym.Num().Int()
	t.goToTable[pos] = newGoToEntry(nextState)
}

type lrTableBuilder struct {
	automaton    *lr1Automaton
	prods        *productionSet
	termCount    int
	nonTermCount int
	symTab       *symbol.SymbolTableReader

	conflicts []conflict
}

func (b *lrTableBuilder) build() (*ParsingTable, error) {
	ordered := b.automaton.statesByNum()
	initialState := b.automaton.states[b.automaton.initialState]

	ptab := &ParsingTable{
		actionTable:      make([][]actionEntry, len(ordered)*b.termCount),
		goToTable:        make([]goToEntry, len(ordered)*b.nonTermCount),
		stateCount:       len(ordered),
		terminalCount:    b.termCount,
		nonTerminalCount: b.nonTermCount,
		InitialState:     initialState.num,
	}

	for _, state := range ordered {
		for _, item := range state.items {
			switch {
			case item.reducible:
				prod, ok := b.prods.findByID(item.prod)
				if !ok {
					return nil, fmt.Errorf("reducible production not found: %v", item.prod)
				}
				b.writeReduceAction(ptab, state.num, item.lookAhead, prod.num)
			case item.dottedSymbol.IsEOF():
				b.writeAcceptAction(ptab, state.num)
			case item.dottedSymbol.IsTerminal():
				nextState, ok := b.automaton.states[state.next[item.dottedSymbol]]
				if !ok {
					return nil, fmt.Errorf("successor state not found; state: %v, symbol: %v", state.num, item.dottedSymbol)
				}
				b.writeShiftAction(ptab, state.num, item.dottedSymbol, nextState.num)
			default:
				nextState, ok := b.automaton.states[state.next[item.dottedSymbol]]
				if !ok {
					return nil, fmt.Errorf("successor state not found; state: %v, symbol: %v", state.num, item.dottedSymbol)
				}
				ptab.writeGoTo(state.num, item.dottedSymbol, nextState.num)
			}
		}
	}

	ptab.states = ordered
	ptab.conflicts = b.conflicts

	return ptab, nil
}

// writeShiftAction records a shift directive. A reduce directive already
// present at the same key makes the cell a shift/reduce conflict; the cell
// keeps both entries.
func (b *lrTableBuilder) writeShiftAction(tab *ParsingTable, state stateNum, sym symbol.Symbol, nextState stateNum) {
	act := newShiftActionEntry(nextState)
	entries := tab.getAction(state, sym.Num())
	for _, e := range entries {
		if e == act {
			return
		}
	}
	for _, e := range entries {
		ty, _, p := e.describe()
		if ty == ActionTypeReduce {
			b.conflicts = append(b.conflicts, &shiftReduceConflict{
				state:     state,
				sym:       sym,
				nextState: nextState,
				prodNum:   p,
			})
		}
	}
	tab.appendAction(state, sym.Num(), act)
}

// writeReduceAction records a reduce directive. A shift at the same key
// makes the cell a shift/reduce conflict, a different reduce makes it a
// reduce/reduce conflict; the cell keeps every entry.
func (b *lrTableBuilder) writeReduceAction(tab *ParsingTable, state stateNum, sym symbol.Symbol, prod productionNum) {
	act := newReduceActionEntry(prod)
	entries := tab.getAction(state, sym.Num())
	for _, e := range entries {
		if e == act {
			return
		}
	}
	for _, e := range entries {
		ty, s, p := e.describe()
		switch ty {
		case ActionTypeShift:
			b.conflicts = append(b.conflicts, &shiftReduceConflict{
				state:     state,
				sym:       sym,
				nextState: s,
				prodNum:   prod,
			})
		case ActionTypeReduce:
			b.conflicts = append(b.conflicts, &reduceReduceConflict{
				state:    state,
				sym:      sym,
				prodNum1: p,
				prodNum2: prod,
			})
		}
	}
	tab.appendAction(state, sym.Num(), act)
}

func (b *lrTableBuilder) writeAcceptAction(tab *ParsingTable, state stateNum) {
	act := actionEntryAccept
	for _, e := range tab.getAction(state, symbol.SymbolEOF.Num()) {
		if e == act {
			return
		}
	}
	tab.appendAction(state, symbol.SymbolEOF.Num(), act)
}

// genReport renders the table into its portable description.
func genReport(tab *ParsingTable, gram *Grammar) (*spec.Report, error) {
	symTab := gram.symbolTable.Reader()
	prods := gram.productionSet

	var terms []*spec.Terminal
	{
		terms = make([]*spec.Terminal, tab.terminalCount)
		for _, sym := range symTab.TerminalSymbols() {
			name, ok := symTab.ToText(sym)
			if !ok {
				return nil, fmt.Errorf("failed to generate terminals: symbol not found: %v", sym)
			}
			terms[sym.Num()] = &spec.Terminal{
				Number: sym.Num().Int(),
				Name:   name,
			}
		}
	}

	var nonTerms []*spec.NonTerminal
	{
		nonTerms = make([]*spec.NonTerminal, tab.nonTerminalCount)
		for _, sym := range symTab.NonTerminalSymbols() {
			name, ok := symTab.ToText(sym)
			if !ok {
				return nil, fmt.Errorf("failed to generate non-terminals: symbol not found: %v", sym)
			}
			nonTerms[sym.Num()] = &spec.NonTerminal{
				Number: sym.Num().Int(),
				Name:   name,
			}
		}
	}

	var prodDescs []*spec.Production
	{
		prodDescs = make([]*spec.Production, prods.numCount())
		for _, p := range prods.getAllProductions() {
			rhs := make([]int, len(p.rhs))
			for i, e := range p.rhs {
				if e.IsTerminal() {
					rhs[i] = e.Num().Int()
				} else {
					rhs[i] = e.Num().Int() * -1
				}
			}
			prodDescs[p.num.Int()] = &spec.Production{
				Number: p.num.Int(),
				LHS:    p.lhs.Num().Int(),
				RHS:    rhs,
			}
		}
	}

	srConflicts := map[stateNum][]*shiftReduceConflict{}
	rrConflicts := map[stateNum][]*reduceReduceConflict{}
	for _, con := range tab.conflicts {
		switch c := con.(type) {
		case *shiftReduceConflict:
			srConflicts[c.state] = append(srConflicts[c.state], c)
		case *reduceReduceConflict:
			rrConflicts[c.state] = append(rrConflicts[c.state], c)
		}
	}

	states := make([]*spec.State, len(tab.states))
	for _, s := range tab.states {
		kernel := []*spec.Item{}
		for _, item := range s.items {
			if !item.initial && item.dot == 0 {
				continue
			}
			p, ok := prods.findByID(item.prod)
			if !ok {
				return nil, fmt.Errorf("failed to generate states: production of kernel item not found: %v", item.prod)
			}
			kernel = append(kernel, &spec.Item{
				Production: p.num.Int(),
				Dot:        item.dot,
				LookAhead:  item.lookAhead.Num().Int(),
			})
		}

		sort.Slice(kernel, func(i, j int) bool {
			if kernel[i].Production != kernel[j].Production {
				return kernel[i].Production < kernel[j].Production
			}
			if kernel[i].Dot != kernel[j].Dot {
				return kernel[i].Dot < kernel[j].Dot
			}
			return kernel[i].LookAhead < kernel[j].LookAhead
		})

		var shift []*spec.Transition
		var reduce []*spec.Reduce
		var goTo []*spec.Transition
		accept := false
		{
			for _, t := range symTab.TerminalSymbols() {
				for _, e := range tab.getAction(s.num, t.Num()) {
					ty, next, prod := e.describe()
					switch ty {
					case ActionTypeShift:
						shift = append(shift, &spec.Transition{
							Symbol: t.Num().Int(),
							State:  next.Int(),
						})
					case ActionTypeReduce:
						merged := false
						for _, r := range reduce {
							if r.Production == prod.Int() {
								r.LookAhead = append(r.LookAhead, t.Num().Int())
								merged = true
								break
							}
						}
						if !merged {
							reduce = append(reduce, &spec.Reduce{
								LookAhead:  []int{t.Num().Int()},
								Production: prod.Int(),
							})
						}
					case ActionTypeAccept:
						accept = true
					}
				}
			}

			for _, n := range symTab.NonTerminalSymbols() {
				ty, next := tab.getGoTo(s.num, n.Num())
				if ty == GoToTypeRegistered {
					goTo = append(goTo, &spec.Transition{
						Symbol: n.Num().Int(),
						State:  next.Int(),
					})
				}
			}
		}

		sr := []*spec.SRConflict{}
		rr := []*spec.RRConflict{}
		{
			for _, c := range srConflicts[s.num] {
				sr = append(sr, &spec.SRConflict{
					Symbol:     c.sym.Num().Int(),
					State:      c.nextState.Int(),
					Production: c.prodNum.Int(),
				})
			}
			sort.Slice(sr, func(i, j int) bool {
				return sr[i].Symbol < sr[j].Symbol
			})

			for _, c := range rrConflicts[s.num] {
				rr = append(rr, &spec.RRConflict{
					Symbol:      c.sym.Num().Int(),
					Production1: c.prodNum1.Int(),
					Production2: c.prodNum2.Int(),
				})
			}
			sort.Slice(rr, func(i, j int) bool {
				return rr[i].Symbol < rr[j].Symbol
			})
		}

		states[s.num.Int()] = &spec.State{
			Number:     s.num.Int(),
			Kernel:     kernel,
			Shift:      shift,
			Reduce:     reduce,
			GoTo:       goTo,
			Accept:     accept,
			SRConflict: sr,
			RRConflict: rr,
		}
	}

	return &spec.Report{
		Name:         gram.name,
		InitialState: tab.InitialState.Int(),
		Terminals:    terms,
		NonTerminals: nonTerms,
		Productions:  prodDescs,
		States:       states,
	}, nil
}
