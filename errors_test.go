package evfs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorIsMatchesBySentinelKindOnly(t *testing.T) {
	err := New(KindNoFile, "open", "/a/b")
	assert.ErrorIs(t, err, ErrNoFile)
	assert.NotErrorIs(t, err, ErrIsDir)
}

func TestErrorIsDoesNotMatchAnotherContextualError(t *testing.T) {
	a := New(KindNoFile, "open", "/a")
	b := New(KindNoFile, "stat", "/b")
	// Is only matches against the zero-context sentinel; two contextual
	// errors of the same Kind do not satisfy errors.Is against each other.
	assert.False(t, errors.Is(a, b))
}

func TestWrapPreservesUnderlyingCause(t *testing.T) {
	cause := fmt.Errorf("disk exploded")
	err := Wrap(KindIO, "read", "/dev/x", cause)
	assert.ErrorIs(t, err, ErrIO)
	assert.True(t, errors.Is(err, cause))
	assert.Contains(t, err.Error(), "disk exploded")
}

func TestErrorMessageIncludesOpAndPath(t *testing.T) {
	err := New(KindNoPath, "lookup", "/missing")
	msg := err.Error()
	assert.Contains(t, msg, "lookup")
	assert.Contains(t, msg, "/missing")
}

func TestKindStringCoversEveryDefinedKind(t *testing.T) {
	kinds := []Kind{
		Done, Ok, KindGeneric, KindUnsupported, KindNoVfs, KindIO, KindCorruption,
		KindNoFile, KindExists, KindNoPath, KindIsDir, KindNotEmpty, KindOverflow,
		KindBadArg, KindFsFull, KindAlloc, KindTooLong, KindAuth, KindBadName,
		KindInit, KindDisabled, KindInvalid, KindRepaired,
	}
	for _, k := range kinds {
		assert.NotEqual(t, "unknown error", k.String(), "Kind %d missing from String()", k)
	}
}

func TestIsHelperDelegatesToErrorsIs(t *testing.T) {
	err := New(KindExists, "mkdir", "/a")
	assert.True(t, Is(err, ErrExists))
	assert.False(t, Is(err, ErrNoFile))
}
