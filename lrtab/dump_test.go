package lrtab_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dekarrin/sturgeon/internal/arithfixture"
	"github.com/dekarrin/sturgeon/lrtab"
)

func Test_DumpActionGoto_rendersOneRowPerState(t *testing.T) {
	assert := assert.New(t)

	out := lrtab.DumpActionGoto(arithfixture.Actions, arithfixture.Goto, 12, arithfixture.Grammar)

	assert.Contains(out, "state")
	assert.Contains(out, "acc")
	// one line per state plus the header.
	assert.GreaterOrEqual(len(strings.Split(strings.TrimRight(out, "\n"), "\n")), 13)
}
