// Package lrdriver drives one shift/reduce/accept/reject step of LR(1)
// parsing at a time over a lexfsa.Lexer and a set of precompiled lrtab
// tables, building a tree.Node parse tree and wiring attr.Attribute
// dependencies as reductions fire.
//
// Grounded on internal/ictiobus/parse/lr.go's lrParser.Parse loop and its
// trace-listener/expected-token-message helpers, adapted from "build one
// full tree then return" into a resumable Step that can pause on input
// exhaustion and be driven incrementally by Parse.
package lrdriver

import (
	"fmt"

	"github.com/dekarrin/sturgeon/attr"
	"github.com/dekarrin/sturgeon/icerr"
	"github.com/dekarrin/sturgeon/internal/util"
	"github.com/dekarrin/sturgeon/lexfsa"
	"github.com/dekarrin/sturgeon/lrtab"
	"github.com/dekarrin/sturgeon/pool"
	"github.com/dekarrin/sturgeon/tree"
)

// Result is the outcome of a single Step or of a full Parse.
type Result int

const (
	// Stepped means a shift or reduce action completed; the parse is
	// neither finished nor stuck and Step/Parse may be called again.
	Stepped Result = iota
	InputExhausted
	Accepted
	SyntaxError
	GeneralError
)

func (r Result) String() string {
	switch r {
	case InputExhausted:
		return "input-exhausted"
	case Accepted:
		return "accept"
	case SyntaxError:
		return "syntax-error"
	case GeneralError:
		return "general-error"
	default:
		return "stepped"
	}
}

// Options configures the resource ceilings and table-derived bookkeeping a
// Driver needs beyond the tables themselves.
type Options struct {
	// MaxStackDepth bounds the LR state stack (0 = unbounded).
	MaxStackDepth int
	// MaxDerivationLen bounds the reduction log (0 = unbounded).
	MaxDerivationLen int
	// AttrDepthCap bounds attr.Evaluate's internal worklist (0 = unbounded).
	AttrDepthCap int

	// NodePackCap/NodePackCacheCap and AttrPackCap/AttrPackCacheCap size the
	// pack pools backing the parse tree and the attribute blocks
	// respectively. A zero pack cap selects 64 objects per pack; a zero
	// cache cap keeps no emptied packs for reuse.
	NodePackCap      int
	NodePackCacheCap int
	AttrPackCap      int
	AttrPackCacheCap int
}

func (o Options) withDefaults() Options {
	if o.NodePackCap <= 0 {
		o.NodePackCap = 64
	}
	if o.AttrPackCap <= 0 {
		o.AttrPackCap = 64
	}
	return o
}

// Driver drives an LR(1) parse, step by step, over a lexfsa.Lexer and a set
// of immutable grammar tables.
type Driver struct {
	actions lrtab.ActionTable
	gotoT   lrtab.GoToTable
	rules   lrtab.RuleTable
	attrTab lrtab.AttributeTable
	grammar lrtab.Grammar

	lex   *lexfsa.Lexer
	treeB *tree.Builder

	nodePool *pool.Pool
	attrPool *pool.Pool

	stack    *pool.Stack
	maxDepth int

	log       []int
	maxLogLen int

	accepted bool
	root     *tree.Node

	attrDepthCap int

	trace func(string)
}

// New returns a Driver ready to parse over lex, against the given tables.
func New(actions lrtab.ActionTable, gotoT lrtab.GoToTable, rules lrtab.RuleTable, attrTab lrtab.AttributeTable, grammar lrtab.Grammar, lex *lexfsa.Lexer, opts Options) *Driver {
	opts = opts.withDefaults()

	nodePool := pool.New(1, opts.NodePackCap, opts.NodePackCacheCap)
	attrPool := pool.New(1, opts.AttrPackCap, opts.AttrPackCacheCap)

	d := &Driver{
		actions:      actions,
		gotoT:        gotoT,
		rules:        rules,
		attrTab:      attrTab,
		grammar:      grammar,
		lex:          lex,
		treeB:        tree.NewBuilder(nodePool),
		nodePool:     nodePool,
		attrPool:     attrPool,
		maxDepth:     opts.MaxStackDepth,
		maxLogLen:    opts.MaxDerivationLen,
		attrDepthCap: opts.AttrDepthCap,
	}
	d.stack = pool.NewStack(pool.New(1, opts.NodePackCap, opts.NodePackCacheCap), opts.MaxStackDepth)
	if err := d.stack.Push(0); err != nil {
		panic("lrdriver: fresh stack rejected initial state 0")
	}
	return d
}

// RegisterTraceListener installs f to be called with a one-line description
// of each shift/reduce/accept/reject decision. Passing nil disables tracing.
func (d *Driver) RegisterTraceListener(f func(string)) {
	d.trace = f
}

func (d *Driver) notifyTrace(format string, a ...any) {
	if d.trace != nil {
		d.trace(fmt.Sprintf(format, a...))
	}
}

func (d *Driver) topState() int {
	v, ok := d.stack.Top()
	if !ok {
		panic("lrdriver: state stack unexpectedly empty")
	}
	return v.(int)
}

// Step performs exactly one shift, reduce, accept, or reject decision, or
// reports that the lexer cannot proceed without more input. Once Step
// returns Accepted, SyntaxError, or GeneralError, the Driver is done; only
// InputExhausted and Stepped are resumable.
func (d *Driver) Step() (Result, error) {
	if d.accepted {
		return Accepted, nil
	}

	lexState, cands, lexErr := d.lex.GetCandidates()
	switch lexState {
	case lexfsa.StateInputExhausted:
		return InputExhausted, nil
	case lexfsa.StateInvalid:
		ie, _ := icerr.IsInvalidInput(lexErr)
		pos := icerr.Position{}
		if ie != nil {
			pos = ie.Position()
		}
		return SyntaxError, icerr.WrapSyntax(lexErr, "no terminal matches the input here", pos)
	}

	s := d.topState()

	var chosenCode = -1
	var act lrtab.Action
	for _, c := range cands {
		a := d.actions.Action(s, c.Code)
		if a.Type != lrtab.Reject {
			chosenCode, act = c.Code, a
			break
		}
	}

	if chosenCode < 0 {
		d.notifyTrace("reject in state %d", s)
		return SyntaxError, d.syntaxError(s, cands)
	}

	switch act.Type {
	case lrtab.Shift:
		return d.doShift(chosenCode, act)
	case lrtab.Reduce:
		return d.doReduce(act.Rule)
	case lrtab.Accept:
		return d.doAccept()
	default:
		d.notifyTrace("reject in state %d", s)
		return SyntaxError, d.syntaxError(s, cands)
	}
}

func (d *Driver) doShift(code int, act lrtab.Action) (Result, error) {
	tok, err := d.lex.Consume(code)
	if err != nil {
		return GeneralError, icerr.WrapGeneral(err, "lexer consume failed")
	}

	node := d.treeB.Shift(code, tok)
	attr.CreateAttrs(d.attrPool, node, d.attrTab.Terminals[code], nil, nil)

	if err := d.stack.Push(act.Next); err != nil {
		return GeneralError, icerr.WrapGeneral(err, "LR stack depth limit reached")
	}

	d.notifyTrace("shift %s -> state %d", d.grammar.TerminalHuman(code), act.Next)
	return Stepped, nil
}

func (d *Driver) doReduce(ruleNum int) (Result, error) {
	if ruleNum < 0 || ruleNum >= len(d.rules) {
		return GeneralError, icerr.Generalf("reduce references unknown rule %d", ruleNum)
	}
	rule := &d.rules[ruleNum]

	for i := 0; i < rule.RHSLen; i++ {
		if _, ok := d.stack.Pop(); !ok {
			return GeneralError, icerr.General("LR stack underflow during reduce")
		}
	}

	afterPop := d.topState()
	next, ok := d.gotoT.Goto(afterPop, rule.LHS)
	if !ok {
		return GeneralError, icerr.Generalf("goto(%d, %d) is a null-target; tables are ill-formed", afterPop, rule.LHS)
	}
	if err := d.stack.Push(next); err != nil {
		return GeneralError, icerr.WrapGeneral(err, "LR stack depth limit reached")
	}

	if err := d.appendLog(ruleNum); err != nil {
		return GeneralError, err
	}

	node := d.treeB.Reduce(rule)
	d.wireAttributes(node, rule)

	d.notifyTrace("reduce by rule %d -> state %d", ruleNum, next)
	return Stepped, nil
}

func (d *Driver) appendLog(ruleNum int) error {
	if d.maxLogLen > 0 && len(d.log) >= d.maxLogLen {
		return icerr.General("reduction log overflow")
	}
	d.log = append(d.log, ruleNum)
	return nil
}

// wireAttributes allocates the parent's attribute block (resolving
// aggregated dependencies immediately, since the children exist already),
// then overrides each child's inherited-attribute evaluators now that the
// parent and all siblings exist.
func (d *Driver) wireAttributes(node *tree.Node, rule *lrtab.Rule) {
	children := node.Children()
	symAttrs := d.attrTab.NonTerminals[rule.LHS]

	attr.CreateAttrs(d.attrPool, node, symAttrs, rule.LHSEvaluators, children)

	for i, child := range children {
		if i >= len(rule.RHSInherited) {
			continue
		}
		childAttrs, _ := child.Attrs.([]*attr.Attribute)
		for _, inh := range rule.RHSInherited[i] {
			if inh.AttrIndex < 0 || inh.AttrIndex >= len(childAttrs) {
				continue
			}
			a := childAttrs[inh.AttrIndex]
			attr.SetEvaluator(a, inh.Eval, len(inh.Deps))
			if len(inh.Deps) > 0 {
				attr.ResolveDeps(a, inh.Deps, node, children)
			}
		}
	}
}

func (d *Driver) doAccept() (Result, error) {
	if _, ok := d.stack.Pop(); !ok {
		return GeneralError, icerr.General("accept with empty stack")
	}
	root, err := d.treeB.Finish()
	if err != nil {
		return GeneralError, icerr.WrapGeneral(err, "parse tree did not reduce to a single root")
	}
	d.root = root
	d.accepted = true
	d.notifyTrace("accept")
	return Accepted, nil
}

// syntaxError builds a syntax-error value naming the expected terminals at
// state s, in the style of parse/lr.go's getExpectedString/
// findExpectedTokens: sorted, human-readable names joined into a single
// list.
func (d *Driver) syntaxError(s int, cands []lexfsa.Candidate) error {
	expected := d.expectedTerminals(s)
	pos := icerr.Position{}
	got := "end of input"
	if len(cands) > 0 {
		off, line, col := cands[0].Token().Position()
		pos = icerr.Position{Offset: off, Line: line, Column: col}
		got = d.grammar.TerminalHuman(cands[0].Code)
	}

	msg := fmt.Sprintf("unexpected %s", got)
	if len(expected) > 0 {
		msg = fmt.Sprintf("%s; expected %s", msg, util.MakeTextList(expected))
	}
	return icerr.Syntax(msg, pos)
}

func (d *Driver) expectedTerminals(s int) []string {
	var names []string
	for _, code := range util.OrderedIntKeys(d.grammar.TerminalNames) {
		if d.actions.Action(s, code).Type != lrtab.Reject {
			names = append(names, d.grammar.TerminalHuman(code))
		}
	}
	return names
}

// Parse runs Step in a loop until it returns anything other than Stepped.
func (d *Driver) Parse() (Result, error) {
	for {
		r, err := d.Step()
		if r != Stepped {
			return r, err
		}
	}
}

// Tree returns the completed parse tree's root, valid only after Step/Parse
// has returned Accepted.
func (d *Driver) Tree() *tree.Node { return d.root }

// NodePool returns the pack pool the parse tree's nodes were allocated from,
// needed by callers that tear the tree down with tree.Destroy.
func (d *Driver) NodePool() *pool.Pool { return d.nodePool }

// AttrPool returns the pack pool attribute blocks were allocated from.
func (d *Driver) AttrPool() *pool.Pool { return d.attrPool }

// AttrDepthCap returns the configured evaluation worklist depth ceiling.
func (d *Driver) AttrDepthCap() int { return d.attrDepthCap }

// AttributeTable returns the grammar's attribute table, needed by callers
// resolving attributes by name at a given node.
func (d *Driver) AttributeTable() lrtab.AttributeTable { return d.attrTab }

// DrainDerivation destructively empties the reduction log, returning it
// inverted (a top-down rightmost derivation fragment). Concatenating
// fragments from successive calls in reverse order (latest fragment first)
// reconstructs the full derivation.
func (d *Driver) DrainDerivation() []int {
	out := make([]int, len(d.log))
	for i, r := range d.log {
		out[len(d.log)-1-i] = r
	}
	d.log = d.log[:0]
	return out
}
