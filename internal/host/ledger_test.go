package host

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/crystaldolphin/gitcourier/internal/schema"
)

func TestLedger_EvictsOldest(t *testing.T) {
	l := NewLedger(2)
	l.Record("a", schema.VerifyClone)
	l.Record("b", schema.VerifyPull)
	l.Record("c", schema.VerifyEmail)

	_, ok := l.Lookup("a")
	assert.False(t, ok)
	k, ok := l.Lookup("c")
	assert.True(t, ok)
	assert.Equal(t, schema.VerifyEmail, k)
	assert.Equal(t, 2, l.Len())
}

func TestLedger_RerecordRefreshes(t *testing.T) {
	l := NewLedger(2)
	l.Record("a", schema.VerifyClone)
	l.Record("b", schema.VerifyPull)
	l.Record("a", schema.VerifyEmail)
	l.Record("c", schema.VerifyNone)

	k, ok := l.Lookup("a")
	assert.True(t, ok)
	assert.Equal(t, schema.VerifyEmail, k)
	_, ok = l.Lookup("b")
	assert.False(t, ok)
}

func TestLedger_DefaultSize(t *testing.T) {
	l := NewLedger(0)
	for i := 0; i < 100; i++ {
		l.Record(string(rune('A'+i)), schema.VerifyNone)
	}
	assert.Equal(t, 64, l.Len())
}
