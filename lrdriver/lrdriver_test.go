package lrdriver

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"github.com/dekarrin/sturgeon/attr"
	"github.com/dekarrin/sturgeon/chunk"
	"github.com/dekarrin/sturgeon/icerr"
	"github.com/dekarrin/sturgeon/internal/arithfixture"
	"github.com/dekarrin/sturgeon/lexfsa"
	"github.com/dekarrin/sturgeon/lrtab"
	"github.com/dekarrin/sturgeon/tree"
)

// treeShape flattens a tree.Node into a comparable value: its own symbol (or
// -1 for a terminal, since terminal Symbol is a terminal code rather than a
// nonterminal index, and the two numberings can collide) plus its children's
// shapes, left to right. Used with go-cmp to compare the shape produced by
// two differently-chunked feeds of the same input.
type treeShape struct {
	Terminal bool
	Symbol   int
	Children []treeShape
}

func shapeOf(n *tree.Node) treeShape {
	s := treeShape{Terminal: n.Terminal, Symbol: n.Symbol}
	for _, c := range n.Children() {
		s.Children = append(s.Children, shapeOf(c))
	}
	return s
}

func newArithDriver(opts Options) (*Driver, *chunk.Ring) {
	ring := chunk.NewRing()
	lex := lexfsa.New(arithfixture.Lexer, ring)
	d := New(arithfixture.Actions, arithfixture.Goto, arithfixture.Rules, arithfixture.Attributes, arithfixture.Grammar, lex, opts)
	return d, ring
}

func Test_Driver_Parse_acceptsAndReducesInExpectedOrder(t *testing.T) {
	assert := assert.New(t)

	d, _ := newArithDriver(Options{})
	assert.NoError(d.lex.Feed([]byte("1+2"), nil, nil, true))

	result, err := d.Parse()
	assert.NoError(err)
	assert.Equal(Accepted, result)

	assert.Equal([]int{
		arithfixture.RuleTNumber, arithfixture.RuleFIsT, arithfixture.RuleEIsF,
		arithfixture.RuleTNumber, arithfixture.RuleFIsT, arithfixture.RuleEPlus,
	}, d.log)

	root := d.Tree()
	assert.NotNil(root)
	rootAttrs, ok := root.Attrs.([]*attr.Attribute)
	assert.True(ok)
	assert.Equal(lrtab.OK, attr.Evaluate(rootAttrs[0], 0))
	assert.Equal(3.0, rootAttrs[0].Value())
}

func Test_Driver_DrainDerivation_isReverseOfReductionLog(t *testing.T) {
	assert := assert.New(t)

	d, _ := newArithDriver(Options{})
	assert.NoError(d.lex.Feed([]byte("1+2"), nil, nil, true))
	_, err := d.Parse()
	assert.NoError(err)

	assert.Equal([]int{
		arithfixture.RuleEPlus, arithfixture.RuleFIsT, arithfixture.RuleTNumber,
		arithfixture.RuleEIsF, arithfixture.RuleFIsT, arithfixture.RuleTNumber,
	}, d.DrainDerivation())

	// Draining empties the log; a second call returns nothing.
	assert.Empty(d.DrainDerivation())
}

func Test_Driver_Step_pausesOnInputExhaustedThenResumes(t *testing.T) {
	assert := assert.New(t)

	d, _ := newArithDriver(Options{})
	assert.NoError(d.lex.Feed([]byte("1+"), nil, nil, false))

	// "1" shifts immediately (its dead end is reached at the buffered '+'),
	// but deciding the next action needs to know whether '+' is the whole
	// token or a prefix of a longer one, which runs the lexer off the end
	// of the buffered input.
	r, err := d.Step()
	assert.NoError(err)
	assert.Equal(Stepped, r) // shift number "1"

	r, err = d.Step()
	assert.NoError(err)
	assert.Equal(InputExhausted, r)

	assert.NoError(d.lex.Feed([]byte("2"), nil, nil, true))
	result, err := d.Parse()
	assert.NoError(err)
	assert.Equal(Accepted, result)
}

func Test_Driver_Parse_syntaxErrorNamesExpectedTerminals(t *testing.T) {
	assert := assert.New(t)

	d, _ := newArithDriver(Options{})
	assert.NoError(d.lex.Feed([]byte("1+"), nil, nil, true))

	result, err := d.Parse()
	assert.Equal(SyntaxError, result)
	assert.Error(err)
	se, ok := icerr.IsSyntax(err)
	assert.True(ok)
	assert.Contains(se.Error(), "number")
	assert.Contains(se.Error(), "(")
}

func Test_Driver_Parse_unrecognizedCharacterIsSyntaxError(t *testing.T) {
	assert := assert.New(t)

	d, _ := newArithDriver(Options{})
	assert.NoError(d.lex.Feed([]byte("1#2"), nil, nil, true))

	result, err := d.Parse()
	assert.Equal(SyntaxError, result)
	assert.Error(err)
}

func Test_Driver_Parse_stackDepthCapIsGeneralError(t *testing.T) {
	assert := assert.New(t)

	d, _ := newArithDriver(Options{MaxStackDepth: 1})
	assert.NoError(d.lex.Feed([]byte("1+2"), nil, nil, true))

	result, err := d.Parse()
	assert.Equal(GeneralError, result)
	assert.Error(err)
}

func Test_Driver_Parse_derivationLogCapIsGeneralError(t *testing.T) {
	assert := assert.New(t)

	d, _ := newArithDriver(Options{MaxDerivationLen: 1})
	assert.NoError(d.lex.Feed([]byte("1+2"), nil, nil, true))

	result, err := d.Parse()
	assert.Equal(GeneralError, result)
	assert.Error(err)
}

func Test_Driver_Parse_treeShapeIdenticalAcrossChunking(t *testing.T) {
	assert := assert.New(t)

	whole, _ := newArithDriver(Options{})
	assert.NoError(whole.lex.Feed([]byte("(1+2)*3"), nil, nil, true))
	wholeResult, err := whole.Parse()
	assert.NoError(err)
	assert.Equal(Accepted, wholeResult)

	chunked, _ := newArithDriver(Options{})
	assert.NoError(chunked.lex.Feed([]byte("(1+"), nil, nil, false))
	assert.NoError(chunked.lex.Feed([]byte("2)*"), nil, nil, false))
	assert.NoError(chunked.lex.Feed([]byte("3"), nil, nil, true))
	chunkedResult, err := chunked.Parse()
	assert.NoError(err)
	assert.Equal(Accepted, chunkedResult)

	if diff := cmp.Diff(shapeOf(whole.Tree()), shapeOf(chunked.Tree())); diff != "" {
		t.Errorf("tree shape differs by chunking (-whole +chunked):\n%s", diff)
	}
}

func Test_Driver_RegisterTraceListener_firesOnEachStep(t *testing.T) {
	assert := assert.New(t)

	d, _ := newArithDriver(Options{})
	var lines []string
	d.RegisterTraceListener(func(s string) { lines = append(lines, s) })

	assert.NoError(d.lex.Feed([]byte("1"), nil, nil, true))
	_, err := d.Parse()
	assert.NoError(err)
	assert.NotEmpty(lines)
}
