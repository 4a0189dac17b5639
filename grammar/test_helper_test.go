package grammar

import (
	"testing"

	"github.com/sergey-tihon/facio/grammar/symbol"
	"github.com/sergey-tihon/facio/spec"
)

func newTestGrammar(t *testing.T, desc *spec.GrammarDescription) *Grammar {
	t.Helper()

	b := Builder{
		Desc: desc,
	}
	gram, err := b.Build()
	if err != nil {
		t.Fatalf("failed to build a grammar: %v", err)
	}
	return gram
}

type testSymbolGenerator func(text string) symbol.Symbol

func newTestSymbolGenerator(t *testing.T, symTab *symbol.SymbolTableReader) testSymbolGenerator {
	return func(text string) symbol.Symbol {
		t.Helper()

		sym, ok := symTab.ToSymbol(text)
		if !ok {
			t.Fatalf("symbol was not found: %v", text)
		}
		return sym
	}
}

type testProductionGenerator func(lhs string, rhs ...string) *production

func newTestProductionGenerator(t *testing.T, genSym testSymbolGenerator) testProductionGenerator {
	return func(lhs string, rhs ...string) *production {
		t.Helper()

		rhsSym := []symbol.Symbol{}
		for _, text := range rhs {
			rhsSym = append(rhsSym, genSym(text))
		}
		prod, err := newProduction(genSym(lhs), rhsSym)
		if err != nil {
			t.Fatalf("failed to create a production: %v", err)
		}

		return prod
	}
}

type testLR1ItemGenerator func(lhs string, dot int, lookAhead string, rhs ...string) *lrItem

func newTestLR1ItemGenerator(t *testing.T, genSym testSymbolGenerator, genProd testProductionGenerator) testLR1ItemGenerator {
	return func(lhs string, dot int, lookAhead string, rhs ...string) *lrItem {
		t.Helper()

		prod := genProd(lhs, rhs...)
		item, err := newLR1Item(prod, dot, genSym(lookAhead))
		if err != nil {
			t.Fatalf("failed to create a LR1 item: %v", err)
		}

		return item
	}
}
