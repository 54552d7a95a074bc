package tree

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dekarrin/sturgeon/chunk"
	"github.com/dekarrin/sturgeon/lexfsa"
	"github.com/dekarrin/sturgeon/lrtab"
	"github.com/dekarrin/sturgeon/pool"
)

// lexfsaTokenFixture builds a real lexfsa.Token for text by running it
// through a one-state-loop FSA that accepts any non-empty run of
// characters as terminal code 1. Token's fields are unexported outside
// lexfsa, so a fixture token can only be produced by actually scanning
// something, the same way sturgeon_test.go exercises the full pipeline.
func lexfsaTokenFixture(text string) lexfsa.Token {
	fsa := lrtab.LexerFSA{
		Start: 0,
		States: []lrtab.FSAState{
			{Branches: []lrtab.Branch{{Lo: 0, Hi: 0x10FFFF, Target: 1}}},
			{Accepts: []int{1}, Branches: []lrtab.Branch{{Lo: 0, Hi: 0x10FFFF, Target: 1}}},
		},
	}
	ring := chunk.NewRing()
	lex := lexfsa.New(fsa, ring)
	if err := lex.Feed([]byte(text), nil, nil, true); err != nil {
		panic(err)
	}
	_, cands, err := lex.GetCandidates()
	if err != nil {
		panic(err)
	}
	tok, err := lex.Consume(cands[0].Code)
	if err != nil {
		panic(err)
	}
	return tok
}

func Test_Builder_ShiftReduceFinish(t *testing.T) {
	assert := assert.New(t)

	b := NewBuilder(nil)
	b.Shift(1, lexfsaTokenFixture("a"))
	b.Shift(2, lexfsaTokenFixture("b"))

	rule := &lrtab.Rule{Number: 0, LHS: 10, RHS: []int{1, 2}, RHSLen: 2}
	parent := b.Reduce(rule)

	assert.False(parent.Terminal)
	assert.Equal(rule, parent.Rule)
	assert.Equal(2, len(parent.Children()))
	assert.Same(parent, parent.FirstChild.Parent)
	assert.Same(parent.LastChild, parent.Children()[1])

	root, err := b.Finish()
	assert.NoError(err)
	assert.Same(parent, root)
}

func Test_Builder_Finish_errorsIfNotSingleRoot(t *testing.T) {
	assert := assert.New(t)

	b := NewBuilder(nil)
	b.Shift(1, lexfsaTokenFixture("a"))
	b.Shift(2, lexfsaTokenFixture("b"))

	_, err := b.Finish()
	assert.Error(err)
}

func Test_Destroy_visitsEveryNodePostOrder(t *testing.T) {
	assert := assert.New(t)

	b := NewBuilder(nil)
	b.Shift(1, lexfsaTokenFixture("a"))
	b.Shift(2, lexfsaTokenFixture("b"))
	rule := &lrtab.Rule{Number: 0, LHS: 10, RHS: []int{1, 2}, RHSLen: 2}
	root := b.Reduce(rule)

	var visited []bool // true = leaf
	Destroy(root, nil, func(n *Node) {
		visited = append(visited, n.Terminal)
	})

	assert.Equal([]bool{true, true, false}, visited, "children before parent")
	assert.Nil(root.FirstChild)
}

func Test_Builder_WithPool_releasesHandles(t *testing.T) {
	assert := assert.New(t)

	p := pool.New(8, 4, 2)
	b := NewBuilder(p)
	b.Shift(1, lexfsaTokenFixture("a"))
	b.Shift(2, lexfsaTokenFixture("b"))
	rule := &lrtab.Rule{Number: 0, LHS: 10, RHS: []int{1, 2}, RHSLen: 2}
	root := b.Reduce(rule)

	Destroy(root, p, nil)
}
