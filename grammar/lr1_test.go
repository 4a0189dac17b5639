package grammar

import (
	"errors"
	"fmt"
	"testing"

	"github.com/sergey-tihon/facio/grammar/symbol"
	"github.com/sergey-tihon/facio/spec"
)

type expectedLRState struct {
	items  []*lrItem
	next   map[symbol.Symbol]int
	accept bool
}

func TestGenLR1Automaton(t *testing.T) {
	desc := &spec.GrammarDescription{
		Name:      "test",
		Terminals: []string{"a"},
		Rules: []*spec.RuleDescription{
			{LHS: "s", RHS: []string{"a"}},
		},
	}

	gram, automaton := genActualAutomaton(t, desc)

	genSym := newTestSymbolGenerator(t, gram.symbolTable.Reader())
	genProd := newTestProductionGenerator(t, genSym)
	genItem := newTestLR1ItemGenerator(t, genSym, genProd)

	expectedStates := []*expectedLRState{
		{
			items: []*lrItem{
				genItem("s'", 0, "<eof>", "s", "<eof>"),
				genItem("s", 0, "<eof>", "a"),
			},
			next: map[symbol.Symbol]int{
				genSym("s"): 1,
				genSym("a"): 2,
			},
		},
		{
			items: []*lrItem{
				genItem("s'", 1, "<eof>", "s", "<eof>"),
			},
			next:   map[symbol.Symbol]int{},
			accept: true,
		},
		{
			items: []*lrItem{
				genItem("s", 1, "<eof>", "a"),
			},
			next: map[symbol.Symbol]int{},
		},
	}

	testLRAutomaton(t, expectedStates, automaton)
}

func TestGenLR1AutomatonContainingRightRecursion(t *testing.T) {
	desc := &spec.GrammarDescription{
		Name:      "test",
		Terminals: []string{"a"},
		Rules: []*spec.RuleDescription{
			{LHS: "s", RHS: []string{"a", "s"}},
			{LHS: "s", RHS: []string{"a"}},
		},
	}

	gram, automaton := genActualAutomaton(t, desc)

	genSym := newTestSymbolGenerator(t, gram.symbolTable.Reader())
	genProd := newTestProductionGenerator(t, genSym)
	genItem := newTestLR1ItemGenerator(t, genSym, genProd)

	expectedStates := []*expectedLRState{
		{
			items: []*lrItem{
				genItem("s'", 0, "<eof>", "s", "<eof>"),
				genItem("s", 0, "<eof>", "a", "s"),
				genItem("s", 0, "<eof>", "a"),
			},
			next: map[symbol.Symbol]int{
				genSym("s"): 1,
				genSym("a"): 2,
			},
		},
		{
			items: []*lrItem{
				genItem("s'", 1, "<eof>", "s", "<eof>"),
			},
			next:   map[symbol.Symbol]int{},
			accept: true,
		},
		{
			// The state is its own successor under `a`; right recursion
			// must not mint fresh states.
			items: []*lrItem{
				genItem("s", 1, "<eof>", "a", "s"),
				genItem("s", 1, "<eof>", "a"),
				genItem("s", 0, "<eof>", "a", "s"),
				genItem("s", 0, "<eof>", "a"),
			},
			next: map[symbol.Symbol]int{
				genSym("s"): 3,
				genSym("a"): 2,
			},
		},
		{
			items: []*lrItem{
				genItem("s", 2, "<eof>", "a", "s"),
			},
			next: map[symbol.Symbol]int{},
		},
	}

	testLRAutomaton(t, expectedStates, automaton)
}

func TestLR1ClosureProperties(t *testing.T) {
	desc := &spec.GrammarDescription{
		Name:      "test",
		Terminals: []string{"add", "mul", "l_paren", "r_paren", "id"},
		Rules: []*spec.RuleDescription{
			{LHS: "expr", RHS: []string{"expr", "add", "term"}},
			{LHS: "expr", RHS: []string{"term"}},
			{LHS: "term", RHS: []string{"term", "mul", "factor"}},
			{LHS: "term", RHS: []string{"factor"}},
			{LHS: "factor", RHS: []string{"l_paren", "expr", "r_paren"}},
			{LHS: "factor", RHS: []string{"id"}},
		},
	}
	gram := newTestGrammar(t, desc)
	fst, err := genFirstSet(gram.productionSet)
	if err != nil {
		t.Fatal(err)
	}

	startProds, _ := gram.productionSet.findByLHS(gram.augmentedStartSymbol)
	seed, err := newLR1Item(startProds[0], 0, symbol.SymbolEOF)
	if err != nil {
		t.Fatal(err)
	}

	closed, err := genLR1Closure([]*lrItem{seed}, gram.productionSet, fst)
	if err != nil {
		t.Fatal(err)
	}

	t.Run("the closure contains its seed items", func(t *testing.T) {
		found := false
		for _, item := range closed {
			if item.id == seed.id {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("seed item not found in the closure")
		}
	})

	t.Run("the closure is idempotent", func(t *testing.T) {
		reClosed, err := genLR1Closure(closed, gram.productionSet, fst)
		if err != nil {
			t.Fatal(err)
		}
		if genStateID(reClosed) != genStateID(closed) {
			t.Errorf("closing a closed item set must not change it; want: %v items, got: %v items", len(closed), len(reClosed))
		}
	})
}

func TestGenLR1AutomatonDeterminism(t *testing.T) {
	desc := &spec.GrammarDescription{
		Name:      "test",
		Terminals: []string{"add", "mul", "l_paren", "r_paren", "id"},
		Rules: []*spec.RuleDescription{
			{LHS: "expr", RHS: []string{"expr", "add", "term"}},
			{LHS: "expr", RHS: []string{"term"}},
			{LHS: "term", RHS: []string{"term", "mul", "factor"}},
			{LHS: "term", RHS: []string{"factor"}},
			{LHS: "factor", RHS: []string{"l_paren", "expr", "r_paren"}},
			{LHS: "factor", RHS: []string{"id"}},
		},
	}

	_, automaton1 := genActualAutomaton(t, desc)
	_, automaton2 := genActualAutomaton(t, desc)

	if len(automaton1.states) != len(automaton2.states) {
		t.Fatalf("state count is mismatched; got: %v and %v", len(automaton1.states), len(automaton2.states))
	}

	ordered1 := automaton1.statesByNum()
	ordered2 := automaton2.statesByNum()
	for i := range ordered1 {
		s1 := ordered1[i]
		s2 := ordered2[i]
		if s1.id != s2.id {
			t.Errorf("state #%v differs between two runs", i)
		}
		if len(s1.next) != len(s2.next) {
			t.Errorf("state #%v transition count differs between two runs", i)
		}
		for sym, next := range s1.next {
			if s2.next[sym] != next {
				t.Errorf("state #%v transition on %v differs between two runs", i, sym)
			}
		}
	}
}

func TestGenLR1AutomatonStatesAreUniqueAndReachable(t *testing.T) {
	desc := &spec.GrammarDescription{
		Name:      "test",
		Terminals: []string{"add", "mul", "l_paren", "r_paren", "id"},
		Rules: []*spec.RuleDescription{
			{LHS: "expr", RHS: []string{"expr", "add", "term"}},
			{LHS: "expr", RHS: []string{"term"}},
			{LHS: "term", RHS: []string{"term", "mul", "factor"}},
			{LHS: "term", RHS: []string{"factor"}},
			{LHS: "factor", RHS: []string{"l_paren", "expr", "r_paren"}},
			{LHS: "factor", RHS: []string{"id"}},
		},
	}

	_, automaton := genActualAutomaton(t, desc)

	nums := map[int]struct{}{}
	for _, state := range automaton.states {
		if _, ok := nums[state.num.Int()]; ok {
			t.Fatalf("state number %v is assigned twice", state.num)
		}
		nums[state.num.Int()] = struct{}{}
	}

	targets := map[stateID]struct{}{}
	for _, state := range automaton.states {
		for _, next := range state.next {
			if _, ok := automaton.states[next]; !ok {
				t.Fatalf("a transition targets an unregistered state: %v", next)
			}
			targets[next] = struct{}{}
		}
	}
	for id, state := range automaton.states {
		if id == automaton.initialState {
			continue
		}
		if _, ok := targets[id]; !ok {
			t.Errorf("state #%v is not the target of any transition", state.num)
		}
	}
}

func TestGenLR1AutomatonRequiresAugmentation(t *testing.T) {
	desc := &spec.GrammarDescription{
		Name:      "test",
		Terminals: []string{"a"},
		Rules: []*spec.RuleDescription{
			{LHS: "s", RHS: []string{"a"}},
		},
	}
	gram := newTestGrammar(t, desc)
	fst, err := genFirstSet(gram.productionSet)
	if err != nil {
		t.Fatal(err)
	}

	genSym := newTestSymbolGenerator(t, gram.symbolTable.Reader())
	_, err = genLR1Automaton(gram.productionSet, genSym("s"), fst)
	if !errors.Is(err, semErrMissingAugmentation) {
		t.Fatalf("unexpected error; want: %v, got: %v", semErrMissingAugmentation, err)
	}
}

func genActualAutomaton(t *testing.T, desc *spec.GrammarDescription) (*Grammar, *lr1Automaton) {
	t.Helper()

	gram := newTestGrammar(t, desc)
	fst, err := genFirstSet(gram.productionSet)
	if err != nil {
		t.Fatal(err)
	}
	automaton, err := genLR1Automaton(gram.productionSet, gram.augmentedStartSymbol, fst)
	if err != nil {
		t.Fatalf("failed to create a LR1 automaton: %v", err)
	}
	if automaton == nil {
		t.Fatalf("genLR1Automaton returns nil without any error")
	}

	initialState := automaton.states[automaton.initialState]
	if initialState == nil {
		t.Fatalf("failed to get the initial state: %v", automaton.initialState)
	}
	if initialState.num != stateNumInitial {
		t.Fatalf("the initial state must be number %v; got: %v", stateNumInitial, initialState.num)
	}

	return gram, automaton
}

func testLRAutomaton(t *testing.T, expected []*expectedLRState, automaton *lr1Automaton) {
	if len(automaton.states) != len(expected) {
		t.Errorf("state count is mismatched; want: %v, got: %v", len(expected), len(automaton.states))
	}

	ordered := automaton.statesByNum()
	for i, eState := range expected {
		t.Run(fmt.Sprintf("state #%v", i), func(t *testing.T) {
			if i >= len(ordered) {
				t.Fatalf("state #%v does not exist", i)
			}
			state := ordered[i]

			if len(state.items) != len(eState.items) {
				t.Fatalf("item count is mismatched; want: %v, got: %v", len(eState.items), len(state.items))
			}
			eIDs := map[lrItemID]struct{}{}
			for _, item := range eState.items {
				eIDs[item.id] = struct{}{}
			}
			for _, item := range state.items {
				if _, ok := eIDs[item.id]; !ok {
					t.Errorf("unexpected item; production: %v, dot: %v, look-ahead: %v", item.prod, item.dot, item.lookAhead)
				}
			}

			if len(state.next) != len(eState.next) {
				t.Errorf("next state count is mismatched; want: %v, got: %v", len(eState.next), len(state.next))
			}
			for eSym, eNum := range eState.next {
				nextID, ok := state.next[eSym]
				if !ok {
					t.Fatalf("next state was not found; state: %v, symbol: %v", state.num, eSym)
				}
				nextState, ok := automaton.states[nextID]
				if !ok {
					t.Fatalf("next state is not registered: %v", nextID)
				}
				if nextState.num.Int() != eNum {
					t.Errorf("next state number is mismatched; symbol: %v, want: %v, got: %v", eSym, eNum, nextState.num)
				}
			}

			if state.accept != eState.accept {
				t.Errorf("accept is mismatched; want: %v, got: %v", eState.accept, state.accept)
			}
		})
	}
}
