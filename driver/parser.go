package driver

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sergey-tihon/facio/spec"
)

type actionKind int

const (
	actionKindNone actionKind = iota
	actionKindShift
	actionKindReduce
	actionKindAccept
)

type action struct {
	kind  actionKind
	state int
	prod  int
}

// SyntaxError reports a token no action was registered for, along with the
// terminal names the state would have accepted.
type SyntaxError struct {
	Token    *Token
	Expected []string
}

func (e *SyntaxError) Error() string {
	var b strings.Builder
	if e.Token.EOF {
		fmt.Fprintf(&b, "unexpected end of input")
	} else {
		fmt.Fprintf(&b, "unexpected token: %v", e.Token.KindName)
	}
	if len(e.Expected) > 0 {
		fmt.Fprintf(&b, "; expected: %v", strings.Join(e.Expected, ", "))
	}
	return b.String()
}

type ParserOption func(p *Parser) error

// SemanticAction attaches a semantic action set the parser notifies on
// every shift, reduce, and accept.
func SemanticAction(semAct SemanticActionSet) ParserOption {
	return func(p *Parser) error {
		p.semAct = semAct
		return nil
	}
}

// Parser executes a generated parsing table against a token stream. The
// table must be conflict-free; resolving conflicts is the business of a
// pass between the generator and the driver.
type Parser struct {
	report   *spec.Report
	termNums map[string]int
	eofNum   int
	actions  [][]action
	goTos    [][]int
	semAct   SemanticActionSet
}

func NewParser(report *spec.Report, opts ...ParserOption) (*Parser, error) {
	for _, s := range report.States {
		if len(s.SRConflict) > 0 || len(s.RRConflict) > 0 {
			return nil, fmt.Errorf("state %v has unresolved conflicts; the table is not LR(1)-deterministic", s.Number)
		}
	}

	termNums := map[string]int{}
	eofNum := 0
	for _, t := range report.Terminals {
		if t == nil {
			continue
		}
		termNums[t.Name] = t.Number
		if t.Name == spec.EOFSymbolName {
			eofNum = t.Number
		}
	}
	if eofNum == 0 {
		return nil, fmt.Errorf("the report lacks the %v terminal", spec.EOFSymbolName)
	}

	actions := make([][]action, len(report.States))
	goTos := make([][]int, len(report.States))
	for _, s := range report.States {
		aRow := make([]action, len(report.Terminals))
		for _, sh := range s.Shift {
			aRow[sh.Symbol] = action{
				kind:  actionKindShift,
				state: sh.State,
			}
		}
		for _, rd := range s.Reduce {
			for _, la := range rd.LookAhead {
				aRow[la] = action{
					kind: actionKindReduce,
					prod: rd.Production,
				}
			}
		}
		if s.Accept {
			aRow[eofNum] = action{
				kind: actionKindAccept,
			}
		}
		actions[s.Number] = aRow

		gRow := make([]int, len(report.NonTerminals))
		for i := range gRow {
			gRow[i] = -1
		}
		for _, g := range s.GoTo {
			gRow[g.Symbol] = g.State
		}
		goTos[s.Number] = gRow
	}

	p := &Parser{
		report:   report,
		termNums: termNums,
		eofNum:   eofNum,
		actions:  actions,
		goTos:    goTos,
	}

	for _, opt := range opts {
		err := opt(p)
		if err != nil {
			return nil, err
		}
	}

	return p, nil
}

// Parse runs the shift/reduce loop until accept or a syntax error.
func (p *Parser) Parse(ts TokenStream) error {
	stack := []int{p.report.InitialState}
	tok, err := ts.Next()
	if err != nil {
		return err
	}

	for {
		state := stack[len(stack)-1]
		num, err := p.tokenSymbolNum(tok)
		if err != nil {
			return err
		}

		act := p.actions[state][num]
		switch act.kind {
		case actionKindShift:
			stack = append(stack, act.state)
			if p.semAct != nil {
				p.semAct.Shift(tok)
			}
			tok, err = ts.Next()
			if err != nil {
				return err
			}
		case actionKindReduce:
			prod := p.report.Productions[act.prod]
			stack = stack[:len(stack)-len(prod.RHS)]
			next := p.goTos[stack[len(stack)-1]][prod.LHS]
			if next < 0 {
				return fmt.Errorf("missing goto; state: %v, non-terminal: %v", stack[len(stack)-1], prod.LHS)
			}
			stack = append(stack, next)
			if p.semAct != nil {
				p.semAct.Reduce(act.prod)
			}
		case actionKindAccept:
			if p.semAct != nil {
				p.semAct.Accept()
			}
			return nil
		default:
			return &SyntaxError{
				Token:    tok,
				Expected: p.expectedTerminals(state),
			}
		}
	}
}

func (p *Parser) tokenSymbolNum(tok *Token) (int, error) {
	if tok.EOF {
		return p.eofNum, nil
	}
	num, ok := p.termNums[tok.KindName]
	if !ok {
		return 0, fmt.Errorf("unknown terminal: %v", tok.KindName)
	}
	return num, nil
}

func (p *Parser) expectedTerminals(state int) []string {
	nums := []int{}
	for num, act := range p.actions[state] {
		if act.kind == actionKindNone {
			continue
		}
		nums = append(nums, num)
	}
	sort.Ints(nums)

	names := make([]string, len(nums))
	for i, num := range nums {
		names[i] = p.report.Terminals[num].Name
	}
	return names
}
