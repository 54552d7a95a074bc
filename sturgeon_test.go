package sturgeon

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dekarrin/sturgeon/internal/arithfixture"
	"github.com/dekarrin/sturgeon/lrdriver"
	"github.com/dekarrin/sturgeon/lrtab"
)

func arithTables() Tables {
	return Tables{
		Lexer:      arithfixture.Lexer,
		Actions:    arithfixture.Actions,
		Goto:       arithfixture.Goto,
		Rules:      arithfixture.Rules,
		Attributes: arithfixture.Attributes,
		Grammar:    arithfixture.Grammar,
	}
}

func Test_Parser_SingleFeed_acceptsAndEvaluatesValue(t *testing.T) {
	assert := assert.New(t)

	p := New(arithTables(), lrdriver.Options{})
	defer p.Destroy()

	assert.NoError(p.Feed([]byte("1+2"), nil, nil, true))
	result, err := p.Parse()
	assert.NoError(err)
	assert.Equal(Accepted, result)
	assert.True(p.Accepted())

	assert.Equal([]int{
		arithfixture.RuleEPlus, arithfixture.RuleFIsT, arithfixture.RuleTNumber,
		arithfixture.RuleEIsF, arithfixture.RuleFIsT, arithfixture.RuleTNumber,
	}, p.Derivation())

	status, value, err := p.EvalAttr(p.Tree(), "value")
	assert.NoError(err)
	assert.Equal(lrtab.OK, status)
	assert.Equal(3.0, value)
}

func Test_Parser_ChunkedFeed_matchesSingleFeed(t *testing.T) {
	assert := assert.New(t)

	whole := New(arithTables(), lrdriver.Options{})
	defer whole.Destroy()
	assert.NoError(whole.Feed([]byte("1+2*3"), nil, nil, true))
	wholeResult, err := whole.Parse()
	assert.NoError(err)

	chunked := New(arithTables(), lrdriver.Options{})
	defer chunked.Destroy()
	assert.NoError(chunked.Feed([]byte("1"), nil, nil, false))
	assert.NoError(chunked.Feed([]byte("+2"), nil, nil, false))
	assert.NoError(chunked.Feed([]byte("*3"), nil, nil, true))

	var chunkedResult Result
	for {
		r, err := chunked.Step()
		assert.NoError(err)
		if r != InputExhausted && r != Stepped {
			chunkedResult = r
			break
		}
	}

	assert.Equal(wholeResult, chunkedResult)
	assert.Equal(Accepted, chunkedResult)

	wholeStatus, wholeValue, err := whole.EvalAttr(whole.Tree(), "value")
	assert.NoError(err)
	chunkedStatus, chunkedValue, err := chunked.EvalAttr(chunked.Tree(), "value")
	assert.NoError(err)

	assert.Equal(wholeStatus, chunkedStatus)
	assert.Equal(wholeValue, chunkedValue)
	assert.Equal(7.0, wholeValue)
}

func Test_Parser_IncompleteInput_reportsSyntaxError(t *testing.T) {
	assert := assert.New(t)

	p := New(arithTables(), lrdriver.Options{})
	defer p.Destroy()

	assert.NoError(p.Feed([]byte("(1+2"), nil, nil, true))
	result, err := p.Parse()
	assert.Equal(SyntaxError, result)
	assert.Error(err)
	assert.False(p.Accepted())
}

func Test_Parser_Step_pausesOnInputExhausted(t *testing.T) {
	assert := assert.New(t)

	p := New(arithTables(), lrdriver.Options{})
	defer p.Destroy()

	assert.NoError(p.Feed([]byte("1+"), nil, nil, false))
	var sawExhausted bool
	for i := 0; i < 10; i++ {
		r, err := p.Step()
		assert.NoError(err)
		if r == InputExhausted {
			sawExhausted = true
			break
		}
	}
	assert.True(sawExhausted, "parser should have paused for more input before a complete parse is possible")

	assert.NoError(p.Feed([]byte("2"), nil, nil, true))
	result, err := p.Parse()
	assert.NoError(err)
	assert.Equal(Accepted, result)
}

func Test_Parser_TakeTree_preventsDoubleDestroy(t *testing.T) {
	assert := assert.New(t)

	p := New(arithTables(), lrdriver.Options{})
	assert.NoError(p.Feed([]byte("1"), nil, nil, true))
	_, err := p.Parse()
	assert.NoError(err)

	root := p.TakeTree()
	assert.NotNil(root)

	// Destroy must not tear down a tree it no longer owns.
	p.Destroy()
	assert.NotNil(root.FirstChild)
}

func Test_Parser_EvalAttr_unknownNameIsError(t *testing.T) {
	assert := assert.New(t)

	p := New(arithTables(), lrdriver.Options{})
	defer p.Destroy()

	assert.NoError(p.Feed([]byte("1"), nil, nil, true))
	_, err := p.Parse()
	assert.NoError(err)

	_, _, err = p.EvalAttr(p.Tree(), "nonexistent")
	assert.Error(err)
}
