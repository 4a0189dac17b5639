package grammar

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"sort"
	"strconv"

	"github.com/sergey-tihon/facio/grammar/symbol"
)

type lrItemID [32]byte

func (id lrItemID) String() string {
	return fmt.Sprintf("%x", id.num())
}

func (id lrItemID) num() uint32 {
	return binary.LittleEndian.Uint32(id[:])
}

// lrItem is an LR(1) item: a production with a dot position and a single
// look-ahead terminal. Items are value objects; two items differing only in
// their look-ahead are distinct.
type lrItem struct {
	id   lrItemID
	prod productionID

	// E → E + T
	//
	// Dot | Dotted Symbol | Item
	// ----+---------------+------------
	// 0   | E             | E →・E + T
	// 1   | +             | E → E・+ T
	// 2   | T             | E → E +・T
	// 3   | Nil           | E → E + T・
	dot          int
	dottedSymbol symbol.Symbol

	// lookAhead is the terminal on which the item becomes reducible once the
	// dot reaches the end of the production.
	lookAhead symbol.Symbol

	// When initial is true, the LHS of the production is the augmented start
	// symbol and dot is 0. It looks like S' →・S <eof>.
	initial bool

	// When reducible is true, the item looks like E → E + T・.
	reducible bool
}

func newLR1Item(prod *production, dot int, lookAhead symbol.Symbol) (*lrItem, error) {
	if prod == nil {
		return nil, fmt.Errorf("production must be non-nil")
	}
	if dot < 0 || dot > prod.rhsLen {
		return nil, fmt.Errorf("dot must be between 0 and %v; got: %v", prod.rhsLen, dot)
	}
	if !lookAhead.IsTerminal() {
		return nil, fmt.Errorf("look-ahead must be a terminal symbol; got: %v", lookAhead)
	}

	var id lrItemID
	{
		b := []byte{}
		b = append(b, prod.id[:]...)
		bDot := make([]byte, 8)
		binary.LittleEndian.PutUint64(bDot, uint64(dot))
		b = append(b, bDot...)
		b = append(b, lookAhead.Byte()...)
		id = sha256.Sum256(b)
	}

	dottedSymbol := symbol.SymbolNil
	if dot < prod.rhsLen {
		dottedSymbol = prod.rhs[dot]
	}

	item := &lrItem{
		id:           id,
		prod:         prod.id,
		dot:          dot,
		dottedSymbol: dottedSymbol,
		lookAhead:    lookAhead,
		initial:      prod.lhs.IsStart() && dot == 0,
		reducible:    dot == prod.rhsLen,
	}

	return item, nil
}

// advance returns the item with the dot moved one symbol to the right. The
// look-ahead travels with the item unchanged.
func (i *lrItem) advance(prods *productionSet) (*lrItem, error) {
	if i.dottedSymbol.IsNil() {
		return nil, fmt.Errorf("cannot advance a reducible item: %v", i.id)
	}
	prod, ok := prods.findByID(i.prod)
	if !ok {
		return nil, fmt.Errorf("production not found: %v", i.prod)
	}
	return newLR1Item(prod, i.dot+1, i.lookAhead)
}

// genLookAheadSet computes FIRST(RHS[head..]・lookAhead): the terminals that
// can follow a non-terminal expanded at this point. The passed look-ahead
// joins the set exactly when the whole suffix is nullable.
func genLookAheadSet(first *firstSet, prod *production, head int, lookAhead symbol.Symbol) ([]symbol.Symbol, error) {
	fst, err := first.find(prod, head)
	if err != nil {
		return nil, err
	}

	syms := make([]symbol.Symbol, 0, len(fst.symbols)+1)
	for sym := range fst.symbols {
		syms = append(syms, sym)
	}
	if fst.empty {
		if _, ok := fst.symbols[lookAhead]; !ok {
			syms = append(syms, lookAhead)
		}
	}
	sort.Slice(syms, func(i, j int) bool {
		return syms[i] < syms[j]
	})

	return syms, nil
}

type stateID [32]byte

func (id stateID) String() string {
	return fmt.Sprintf("%x", binary.LittleEndian.Uint32(id[:]))
}

// genStateID derives a state's identity from its closed item set. Items must
// be sorted by item ID and free of duplicates, so that set equality and ID
// equality coincide.
func genStateID(items []*lrItem) stateID {
	b := []byte{}
	for _, item := range items {
		b = append(b, item.id[:]...)
	}
	return sha256.Sum256(b)
}

func sortItems(items []*lrItem) {
	sort.Slice(items, func(i, j int) bool {
		return bytes.Compare(items[i].id[:], items[j].id[:]) < 0
	})
}

type stateNum int

const stateNumInitial = stateNum(0)

func (n stateNum) Int() int {
	return int(n)
}

func (n stateNum) String() string {
	return strconv.Itoa(int(n))
}

func (n stateNum) next() stateNum {
	return stateNum(n + 1)
}

// lrState is a state of the canonical LR(1) automaton: a closed set of
// LR(1) items plus the transitions discovered for it.
type lrState struct {
	id    stateID
	num   stateNum
	items []*lrItem

	// next maps a grammar symbol to the successor reached by shifting the
	// dot past that symbol. The EOF symbol never appears here.
	next map[symbol.Symbol]stateID

	// accept is true when the state contains S' → S・<eof>.
	accept bool
}
