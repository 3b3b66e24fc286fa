package evfs

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOpenFlagCombinations(t *testing.T) {
	assert.Equal(t, Read|Write, ReadWrite)
	assert.NotEqual(t, OpenFlag(0), OpenOrNew)
}

func TestInfoIsDir(t *testing.T) {
	assert.True(t, Info{Type: TypeDir}.IsDir())
	assert.False(t, Info{}.IsDir())
}

func TestInfoFieldsAreDistinctBits(t *testing.T) {
	all := []InfoFields{HasName, HasSize, HasModTime, HasType}
	seen := InfoFields(0)
	for _, f := range all {
		assert.Zero(t, seen&f, "field %d overlaps an earlier one", f)
		seen |= f
	}
}

func TestCtrlCmdBands(t *testing.T) {
	assert.Less(t, int(CtrlGetStatFields), int(CtrlShimBase))
	assert.GreaterOrEqual(t, int(CtrlGetRsrcAddr), int(CtrlFileBase))
}
