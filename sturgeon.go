// Package sturgeon is the runtime core of a parser-generator toolchain: it
// consumes precompiled lexer/LR(1)/attribute-grammar tables and drives
// chunked lexing, LR(1) parsing, parse-tree construction, and lazy
// attribute evaluation. Generating those tables, reading them from a file
// format, and formatting diagnostics for an end user are explicitly out of
// scope; this package's Parser only drives what the tables describe.
//
// Grounded on internal/ictiobus.go's Frontend[E] and its top-level
// constructors, which is the same kind of single entry-point facade wired
// over a lexer + parser + translation scheme.
package sturgeon

import (
	"github.com/dekarrin/sturgeon/attr"
	"github.com/dekarrin/sturgeon/chunk"
	"github.com/dekarrin/sturgeon/icerr"
	"github.com/dekarrin/sturgeon/lexfsa"
	"github.com/dekarrin/sturgeon/lrdriver"
	"github.com/dekarrin/sturgeon/lrtab"
	"github.com/dekarrin/sturgeon/tree"
)

// Tables bundles the read-only, precompiled grammar artifacts a Parser is
// built from. They may be shared across any number of concurrently running
// Parsers, which never mutate them.
type Tables struct {
	Lexer      lrtab.LexerFSA
	Actions    lrtab.ActionTable
	Goto       lrtab.GoToTable
	Rules      lrtab.RuleTable
	Attributes lrtab.AttributeTable
	Grammar    lrtab.Grammar
}

// Result mirrors lrdriver.Result at the package boundary.
type Result = lrdriver.Result

const (
	Stepped        = lrdriver.Stepped
	InputExhausted = lrdriver.InputExhausted
	Accepted       = lrdriver.Accepted
	SyntaxError    = lrdriver.SyntaxError
	GeneralError   = lrdriver.GeneralError
)

// Parser is one single-threaded parse instance: its chunk ring, lexer,
// driver, tree, and attributes form one ownership domain. Tables are shared
// and read-only; everything else here belongs to this Parser alone.
type Parser struct {
	tables Tables
	ring   *chunk.Ring
	lex    *lexfsa.Lexer
	driver *lrdriver.Driver

	ownsTree bool
	done     bool
}

// New returns a Parser ready to be Fed input and Stepped/Parsed.
func New(tables Tables, opts lrdriver.Options) *Parser {
	ring := chunk.NewRing()
	lex := lexfsa.New(tables.Lexer, ring)
	driver := lrdriver.New(tables.Actions, tables.Goto, tables.Rules, tables.Attributes, tables.Grammar, lex, opts)

	return &Parser{
		tables:   tables,
		ring:     ring,
		lex:      lex,
		driver:   driver,
		ownsTree: true,
	}
}

// RegisterTraceListener installs f to receive a one-line description of
// each shift/reduce/accept/reject decision the driver makes. Passing nil
// disables tracing.
func (p *Parser) RegisterTraceListener(f func(string)) {
	p.driver.RegisterTraceListener(f)
}

// Feed appends one chunk of input. isLast marks the final chunk of the
// stream; once the read cursor passes it, the lexer reports an end-of-input
// token instead of pausing for more input. cleanup is guaranteed to run
// exactly once, after the last reference to this chunk is released. That can
// happen inside a Step/Parse call, once the lexer has moved past the chunk,
// or in Destroy.
func (p *Parser) Feed(data []byte, cleanup chunk.Cleanup, cookie any, isLast bool) error {
	return p.lex.Feed(data, cleanup, cookie, isLast)
}

// Step advances the parse by exactly one shift, reduce, accept, or reject
// decision, or reports that more input is needed.
func (p *Parser) Step() (Result, error) {
	return p.driver.Step()
}

// Parse runs Step until the parse accepts, hits a syntax error, hits a
// general error, or needs more input.
func (p *Parser) Parse() (Result, error) {
	return p.driver.Parse()
}

// Accepted reports whether the parse has completed successfully.
func (p *Parser) Accepted() bool {
	return p.driver.Tree() != nil
}

// Tree returns the parse tree's root. Valid only once Accepted is true; the
// Parser retains ownership (Destroy will tear it down) unless TakeTree is
// called first.
func (p *Parser) Tree() *tree.Node {
	return p.driver.Tree()
}

// TakeTree hands the parse tree's root out of the Parser. After this call,
// Destroy no longer tears the tree down (and will not double-free it if the
// caller destroys it independently via tree.Destroy).
func (p *Parser) TakeTree() *tree.Node {
	p.ownsTree = false
	return p.driver.Tree()
}

// Derivation destructively drains the reduction log into a top-down
// rightmost derivation. Safe to call incrementally; concatenate fragments
// from successive calls in reverse order (latest fragment first) to get the
// full derivation.
func (p *Parser) Derivation() []int {
	return p.driver.DrainDerivation()
}

// EvalAttr evaluates (or returns the already-memoized value of) the named
// attribute at node, resolving the name via node's symbol's name FSA.
func (p *Parser) EvalAttr(node *tree.Node, name string) (lrtab.Status, any, error) {
	symAttrs := p.symAttrsFor(node)
	attrs, _ := node.Attrs.([]*attr.Attribute)

	a, ok := attr.Lookup(attrs, symAttrs, name)
	if !ok {
		return lrtab.Undefined, nil, icerr.Generalf("no such attribute %q on this node", name)
	}

	status := attr.Evaluate(a, p.driver.AttrDepthCap())
	return status, a.Value(), nil
}

func (p *Parser) symAttrsFor(node *tree.Node) lrtab.SymbolAttrs {
	if node.Terminal {
		return p.tables.Attributes.Terminals[node.Symbol]
	}
	return p.tables.Attributes.NonTerminals[node.Symbol]
}

// Destroy tears the Parser down: the parse tree (if still owned) and its
// attributes are destroyed node by node, running value destructors exactly
// once each, and every chunk still held by the ring has its cleanup
// callback fired. Always succeeds, including on a Parser that never
// accepted or that hit a general error mid-parse.
func (p *Parser) Destroy() {
	if p.done {
		return
	}
	p.done = true

	if p.ownsTree {
		tree.Destroy(p.driver.Tree(), p.driver.NodePool(), func(n *tree.Node) {
			if attrs, ok := n.Attrs.([]*attr.Attribute); ok {
				attr.DestroyAll(p.driver.AttrPool(), attrs)
			}
		})
	}

	p.ring.ReleaseAll()
}
