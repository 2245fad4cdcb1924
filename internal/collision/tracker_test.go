package collision

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInterner_InternAssignsSequentialCodes(t *testing.T) {
	in := NewInterner()

	c0, isNew := in.Intern("alpha")
	require.True(t, isNew)
	require.Equal(t, 0, c0)

	c1, isNew := in.Intern("beta")
	require.True(t, isNew)
	require.Equal(t, 1, c1)

	c0again, isNew := in.Intern("alpha")
	require.False(t, isNew)
	require.Equal(t, 0, c0again)

	require.Equal(t, 2, in.Count())
	require.Equal(t, []string{"alpha", "beta"}, in.Keys())
}

func TestInterner_Lookup(t *testing.T) {
	in := NewInterner()
	in.Intern("x")

	code, ok := in.Lookup("x")
	require.True(t, ok)
	require.Equal(t, 0, code)

	_, ok = in.Lookup("missing")
	require.False(t, ok)
}

func TestInterner_Reset(t *testing.T) {
	in := NewInterner()
	in.Intern("a")
	in.Intern("b")
	require.Equal(t, 2, in.Count())

	in.Reset()
	require.Equal(t, 0, in.Count())
	require.False(t, in.HasCollision())

	code, isNew := in.Intern("c")
	require.True(t, isNew)
	require.Equal(t, 0, code)
}
