package spec

// EOFSymbolName is the reserved name of the end-of-file terminal as it
// appears in descriptions and reports.
const EOFSymbolName = "<eof>"

// RuleDescription is one production: a non-terminal name and the sequence of
// symbol names it derives. An empty RHS denotes an ε-production.
type RuleDescription struct {
	LHS string   `json:"lhs"`
	RHS []string `json:"rhs"`
}

// GrammarDescription is the portable input format of the generator. The
// non-terminals are the LHS names of the rules; the start symbol is the LHS
// of the first rule. Terminal names must be declared up front, and the
// reserved end-of-file name `<eof>` must not appear anywhere.
type GrammarDescription struct {
	Name      string             `json:"name"`
	Terminals []string           `json:"terminals"`
	Rules     []*RuleDescription `json:"rules"`
}
