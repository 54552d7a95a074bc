// Package arithfixture is a hand-built table set for a small arithmetic
// grammar (sums and products of parenthesized numbers), used to exercise the
// lexer/driver/attribute engine together in tests without needing a real
// table generator. Grounded on internal/ictiobus/parse's test_fixtures.go,
// which supplies its own package-level fixture tables (mockStream/mockToken)
// rather than building them through the real front end.
//
// Grammar (rule numbers match RuleTable's indices):
//
//	1: E -> E + F
//	2: E -> F
//	3: F -> F * T
//	4: F -> T
//	5: T -> ( E )
//	6: T -> number
//
// This is the classic textbook expression grammar with E/T/F relabeled to
// E/F/T to match the arithmetic scenario's naming; its SLR(1) table is the
// standard one, transcribed by hand and verified by tracing "1+2" to
// completion.
package arithfixture

import (
	"github.com/dekarrin/sturgeon/attr"
	"github.com/dekarrin/sturgeon/lexfsa"
	"github.com/dekarrin/sturgeon/lrtab"
	"github.com/dekarrin/sturgeon/namefsa"
)

// Terminal codes. 0 and below are reserved (lrtab.TermEOF, lrtab.TermInvalid).
const (
	Plus   = 1
	Star   = 2
	LParen = 3
	RParen = 4
	Number = 5
)

// Nonterminal indices.
const (
	E = 0
	F = 1
	T = 2
)

// Rule numbers, matching RuleTable's indices (0 is an unused placeholder:
// lrdriver.doReduce indexes RuleTable directly by the Action.Rule it reads
// out of the action table, and this table's actions all use 1..6).
const (
	RuleEPlus   = 1
	RuleEIsF    = 2
	RuleFTimes  = 3
	RuleFIsT    = 4
	RuleTParen  = 5
	RuleTNumber = 6
)

// term and nonterm encode a RHS symbol for Rule.RHS: nonnegative is a
// terminal code, negative is -(nonterminal index)-1. RHS is carried for
// error messages and tree-shape checks only; nothing in this fixture's own
// tables reads it back.
func term(code int) int    { return code }
func nonterm(idx int) int  { return -(idx + 1) }

// Lexer is the union FSA recognizing +, *, (, ), and runs of ASCII digits.
// It has no whitespace-skipping terminal: table generators are expected to
// either fold skip-handling into the driver loop or emit a dedicated
// whitespace terminal the driver discards, and this fixture's grammar has no
// such terminal, so callers must not feed it whitespace.
var Lexer = lrtab.LexerFSA{
	Start: 0,
	States: []lrtab.FSAState{
		{ // 0: start
			Branches: []lrtab.Branch{
				{Lo: '0', Hi: '9', Target: 1},
				{Lo: '+', Hi: '+', Target: 2},
				{Lo: '*', Hi: '*', Target: 3},
				{Lo: '(', Hi: '(', Target: 4},
				{Lo: ')', Hi: ')', Target: 5},
			},
		},
		{ // 1: digit run
			Branches: []lrtab.Branch{{Lo: '0', Hi: '9', Target: 1}},
			Accepts:  []int{Number},
		},
		{Accepts: []int{Plus}},   // 2
		{Accepts: []int{Star}},   // 3
		{Accepts: []int{LParen}}, // 4
		{Accepts: []int{RParen}}, // 5
	},
}

type actionEntry struct {
	state, terminal int
	action          lrtab.Action
}

type actionTable map[[2]int]lrtab.Action

// Action implements lrtab.ActionTable; any (state, terminal) pair not
// explicitly present rejects, matching a cell left blank in a textbook
// parsing table.
func (a actionTable) Action(state, terminal int) lrtab.Action {
	if act, ok := a[[2]int{state, terminal}]; ok {
		return act
	}
	return lrtab.Action{Type: lrtab.Reject}
}

func buildActions() actionTable {
	shift := func(next int) lrtab.Action { return lrtab.Action{Type: lrtab.Shift, Next: next} }
	reduce := func(rule int) lrtab.Action { return lrtab.Action{Type: lrtab.Reduce, Rule: rule} }
	accept := lrtab.Action{Type: lrtab.Accept}

	entries := []actionEntry{
		{0, Number, shift(5)}, {0, LParen, shift(4)},

		{1, Plus, shift(6)}, {1, lrtab.TermEOF, accept},

		{2, Plus, reduce(RuleEIsF)}, {2, Star, shift(7)},
		{2, RParen, reduce(RuleEIsF)}, {2, lrtab.TermEOF, reduce(RuleEIsF)},

		{3, Plus, reduce(RuleFIsT)}, {3, Star, reduce(RuleFIsT)},
		{3, RParen, reduce(RuleFIsT)}, {3, lrtab.TermEOF, reduce(RuleFIsT)},

		{4, Number, shift(5)}, {4, LParen, shift(4)},

		{5, Plus, reduce(RuleTNumber)}, {5, Star, reduce(RuleTNumber)},
		{5, RParen, reduce(RuleTNumber)}, {5, lrtab.TermEOF, reduce(RuleTNumber)},

		{6, Number, shift(5)}, {6, LParen, shift(4)},

		{7, Number, shift(5)}, {7, LParen, shift(4)},

		{8, Plus, shift(6)}, {8, RParen, shift(11)},

		{9, Plus, reduce(RuleEPlus)}, {9, Star, shift(7)},
		{9, RParen, reduce(RuleEPlus)}, {9, lrtab.TermEOF, reduce(RuleEPlus)},

		{10, Plus, reduce(RuleFTimes)}, {10, Star, reduce(RuleFTimes)},
		{10, RParen, reduce(RuleFTimes)}, {10, lrtab.TermEOF, reduce(RuleFTimes)},

		{11, Plus, reduce(RuleTParen)}, {11, Star, reduce(RuleTParen)},
		{11, RParen, reduce(RuleTParen)}, {11, lrtab.TermEOF, reduce(RuleTParen)},
	}

	t := make(actionTable, len(entries))
	for _, e := range entries {
		t[[2]int{e.state, e.terminal}] = e.action
	}
	return t
}

// Actions is the complete SLR(1) action table.
var Actions = buildActions()

type gotoTable map[[2]int]int

// Goto implements lrtab.GoToTable.
func (g gotoTable) Goto(state, nonterminal int) (int, bool) {
	v, ok := g[[2]int{state, nonterminal}]
	return v, ok
}

// Goto is the complete goto table.
var Goto = gotoTable{
	{0, E}: 1, {0, F}: 2, {0, T}: 3,
	{4, E}: 8, {4, F}: 2, {4, T}: 3,
	{6, F}: 9, {6, T}: 3,
	{7, T}: 10,
}

func sumEval(self lrtab.AttrHandle, deps []lrtab.AttrHandle) lrtab.Status {
	self.SetValue(deps[0].Value().(float64) + deps[1].Value().(float64))
	return lrtab.OK
}

func productEval(self lrtab.AttrHandle, deps []lrtab.AttrHandle) lrtab.Status {
	self.SetValue(deps[0].Value().(float64) * deps[1].Value().(float64))
	return lrtab.OK
}

// parseNumberValue is the NUMBER terminal's default evaluator for its
// "value" attribute: it reads the terminal's own "$token" attribute (via
// lrtab.SymbolAttrs.DefaultDeps' self-reference) and parses its text as a
// float.
func parseNumberValue(self lrtab.AttrHandle, deps []lrtab.AttrHandle) lrtab.Status {
	tok, ok := deps[0].Value().(lexfsa.Token)
	if !ok {
		return lrtab.Error
	}
	v, status := tok.ParseFloat()
	if status != lexfsa.NumOK {
		return lrtab.Error
	}
	self.SetValue(v)
	return lrtab.OK
}

func valueClass() lrtab.AttrClass {
	return lrtab.AttrClass{Name: "value", Aggregated: true}
}

func oneTokenSymbolAttrs() lrtab.SymbolAttrs {
	return lrtab.SymbolAttrs{
		Classes: []lrtab.AttrClass{{Name: "$token", Aggregated: true}},
		Names:   namefsa.Build([]string{"$token"}),
	}
}

func numberSymbolAttrs() lrtab.SymbolAttrs {
	return lrtab.SymbolAttrs{
		Classes: []lrtab.AttrClass{
			{Name: "$token", Aggregated: true},
			valueClass(),
		},
		Defaults:    []lrtab.Evaluator{nil, parseNumberValue},
		DefaultDeps: [][]lrtab.DepRef{nil, {{SymbolIndex: 0, AttrIndex: 0}}},
		Names:       namefsa.Build([]string{"$token", "value"}),
	}
}

func valueOnlySymbolAttrs() lrtab.SymbolAttrs {
	return lrtab.SymbolAttrs{
		Classes: []lrtab.AttrClass{valueClass()},
		Names:   namefsa.Build([]string{"value"}),
	}
}

// Attributes is the attribute grammar: every nonterminal carries a single
// aggregated "value" attribute (a float64), built bottom-up by reference or
// arithmetic combination; every terminal carries "$token", and NUMBER
// additionally carries "value" parsed from its own token text.
var Attributes = lrtab.AttributeTable{
	Terminals: map[int]lrtab.SymbolAttrs{
		Plus:   oneTokenSymbolAttrs(),
		Star:   oneTokenSymbolAttrs(),
		LParen: oneTokenSymbolAttrs(),
		RParen: oneTokenSymbolAttrs(),
		Number: numberSymbolAttrs(),
	},
	NonTerminals: map[int]lrtab.SymbolAttrs{
		E: valueOnlySymbolAttrs(),
		F: valueOnlySymbolAttrs(),
		T: valueOnlySymbolAttrs(),
	},
}

// Rules is the rule table, indexed by rule number (index 0 unused).
var Rules = lrtab.RuleTable{
	{}, // 0: unused
	{ // 1: E -> E + F
		Number: RuleEPlus, LHS: E, RHSLen: 3,
		RHS: []int{nonterm(E), term(Plus), nonterm(F)},
		LHSEvaluators: []lrtab.AggregatedEval{{
			AttrIndex: 0, Eval: sumEval,
			Deps: []lrtab.DepRef{{SymbolIndex: 1, AttrIndex: 0}, {SymbolIndex: 3, AttrIndex: 0}},
		}},
	},
	{ // 2: E -> F
		Number: RuleEIsF, LHS: E, RHSLen: 1,
		RHS: []int{nonterm(F)},
		LHSEvaluators: []lrtab.AggregatedEval{{
			AttrIndex: 0, Eval: attr.Reference,
			Deps: []lrtab.DepRef{{SymbolIndex: 1, AttrIndex: 0}},
		}},
	},
	{ // 3: F -> F * T
		Number: RuleFTimes, LHS: F, RHSLen: 3,
		RHS: []int{nonterm(F), term(Star), nonterm(T)},
		LHSEvaluators: []lrtab.AggregatedEval{{
			AttrIndex: 0, Eval: productEval,
			Deps: []lrtab.DepRef{{SymbolIndex: 1, AttrIndex: 0}, {SymbolIndex: 3, AttrIndex: 0}},
		}},
	},
	{ // 4: F -> T
		Number: RuleFIsT, LHS: F, RHSLen: 1,
		RHS: []int{nonterm(T)},
		LHSEvaluators: []lrtab.AggregatedEval{{
			AttrIndex: 0, Eval: attr.Reference,
			Deps: []lrtab.DepRef{{SymbolIndex: 1, AttrIndex: 0}},
		}},
	},
	{ // 5: T -> ( E )
		Number: RuleTParen, LHS: T, RHSLen: 3,
		RHS: []int{term(LParen), nonterm(E), term(RParen)},
		LHSEvaluators: []lrtab.AggregatedEval{{
			AttrIndex: 0, Eval: attr.Reference,
			Deps: []lrtab.DepRef{{SymbolIndex: 2, AttrIndex: 0}},
		}},
	},
	{ // 6: T -> number
		Number: RuleTNumber, LHS: T, RHSLen: 1,
		RHS: []int{term(Number)},
		LHSEvaluators: []lrtab.AggregatedEval{{
			AttrIndex: 0, Eval: attr.Reference,
			Deps: []lrtab.DepRef{{SymbolIndex: 1, AttrIndex: 1}},
		}},
	},
}

// Grammar carries the human-readable symbol names used in error messages
// and tree dumps.
var Grammar = lrtab.Grammar{
	TerminalNames:    map[int]string{Plus: "+", Star: "*", LParen: "(", RParen: ")", Number: "number"},
	NonTerminalNames: map[int]string{E: "E", F: "F", T: "T"},
}
