package namefsa

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_FSA_Lookup(t *testing.T) {
	assert := assert.New(t)

	f := Build([]string{"value", "type", "val"})

	idx, ok := f.Lookup("value")
	assert.True(ok)
	assert.Equal(0, idx)

	idx, ok = f.Lookup("type")
	assert.True(ok)
	assert.Equal(1, idx)

	idx, ok = f.Lookup("val")
	assert.True(ok)
	assert.Equal(2, idx)

	_, ok = f.Lookup("va")
	assert.False(ok, "prefix of a registered name without its own NUL terminator must not resolve")

	_, ok = f.Lookup("nonexistent")
	assert.False(ok)
}

func Test_FSA_EmptyNames(t *testing.T) {
	f := Build(nil)
	_, ok := f.Lookup("anything")
	assert := assert.New(t)
	assert.False(ok)
}
