package grammar

import (
	"fmt"

	"github.com/sergey-tihon/facio/grammar/symbol"
	"github.com/sergey-tihon/facio/spec"
)

// Grammar is a tagged, augmented grammar: every symbol carries a dense
// number, and the production set contains the synthetic start production
// S' → S <eof> on top of the user's rules.
type Grammar struct {
	name                 string
	symbolTable          *symbol.SymbolTable
	productionSet        *productionSet
	augmentedStartSymbol symbol.Symbol
}

// Builder assembles a Grammar from its description. The start symbol is the
// LHS of the first rule; the augmented start symbol takes the start symbol's
// name with a `'` suffix.
type Builder struct {
	Desc *spec.GrammarDescription
}

func (b *Builder) Build() (*Grammar, error) {
	desc := b.Desc
	if desc == nil || len(desc.Rules) == 0 {
		return nil, semErrNoProduction
	}

	symTab := symbol.NewSymbolTable()
	w := symTab.Writer()

	termNames := map[string]struct{}{}
	for _, name := range desc.Terminals {
		if name == symbol.EOFName() {
			return nil, fmt.Errorf("%w: %v", semErrReservedEOF, name)
		}
		if _, ok := termNames[name]; ok {
			return nil, fmt.Errorf("%w: %v", semErrDuplicateName, name)
		}
		termNames[name] = struct{}{}
		if _, err := w.RegisterTerminalSymbol(name); err != nil {
			return nil, err
		}
	}

	startName := desc.Rules[0].LHS
	startSym, err := w.RegisterStartSymbol(startName + "'")
	if err != nil {
		return nil, err
	}

	for _, rule := range desc.Rules {
		if rule.LHS == symbol.EOFName() {
			return nil, fmt.Errorf("%w: %v", semErrReservedEOF, rule.LHS)
		}
		if _, ok := termNames[rule.LHS]; ok {
			return nil, fmt.Errorf("%w: %v", semErrDuplicateName, rule.LHS)
		}
		if _, err := w.RegisterNonTerminalSymbol(rule.LHS); err != nil {
			return nil, err
		}
	}

	r := symTab.Reader()
	prods := newProductionSet()

	// The augmented start production goes in first. Its RHS carries the EOF
	// symbol explicitly, so reaching the dot in front of it means the whole
	// input has been derived.
	{
		userStartSym, ok := r.ToSymbol(startName)
		if !ok {
			return nil, fmt.Errorf("%w: %v", semErrUndefinedSym, startName)
		}
		prod, err := newProduction(startSym, []symbol.Symbol{userStartSym, symbol.SymbolEOF})
		if err != nil {
			return nil, err
		}
		prods.append(prod)
	}

	for _, rule := range desc.Rules {
		lhsSym, ok := r.ToSymbol(rule.LHS)
		if !ok {
			return nil, fmt.Errorf("%w: %v", semErrUndefinedSym, rule.LHS)
		}

		rhs := make([]symbol.Symbol, len(rule.RHS))
		for i, name := range rule.RHS {
			if name == symbol.EOFName() {
				return nil, fmt.Errorf("%w: %v", semErrReservedEOF, name)
			}
			sym, ok := r.ToSymbol(name)
			if !ok {
				return nil, fmt.Errorf("%w: %v", semErrUndefinedSym, name)
			}
			rhs[i] = sym
		}

		prod, err := newProduction(lhsSym, rhs)
		if err != nil {
			return nil, err
		}
		if !prods.append(prod) {
			return nil, fmt.Errorf("%w: %v → %v", semErrDuplicateProduction, rule.LHS, rule.RHS)
		}
	}

	return &Grammar{
		name:                 desc.Name,
		symbolTable:          symTab,
		productionSet:        prods,
		augmentedStartSymbol: startSym,
	}, nil
}

// GenParsingTable generates the canonical LR(1) parsing table of a grammar:
// FIRST sets, then the automaton, then the ACTION/GOTO table. Conflicts do
// not fail the generation; they are retained in the table.
func GenParsingTable(gram *Grammar) (*ParsingTable, error) {
	first, err := genFirstSet(gram.productionSet)
	if err != nil {
		return nil, err
	}

	automaton, err := genLR1Automaton(gram.productionSet, gram.augmentedStartSymbol, first)
	if err != nil {
		return nil, err
	}

	r := gram.symbolTable.Reader()
	b := &lrTableBuilder{
		automaton:    automaton,
		prods:        gram.productionSet,
		termCount:    r.TerminalNumCount(),
		nonTermCount: r.NonTerminalNumCount(),
		symTab:       r,
	}
	return b.build()
}

// Compile assembles a grammar from its description, generates the parsing
// table, and renders the portable report.
func Compile(desc *spec.GrammarDescription) (*ParsingTable, *spec.Report, error) {
	b := Builder{
		Desc: desc,
	}
	gram, err := b.Build()
	if err != nil {
		return nil, nil, err
	}

	ptab, err := GenParsingTable(gram)
	if err != nil {
		return nil, nil, err
	}

	report, err := genReport(ptab, gram)
	if err != nil {
		return nil, nil, err
	}

	return ptab, report, nil
}
