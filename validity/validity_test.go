package validity_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strata-db/strata/validity"
)

func TestAllValidIsValidEverywhere(t *testing.T) {
	v := validity.AllValid(5)
	for i := 0; i < 5; i++ {
		assert.True(t, v.IsValid(i))
	}
	assert.Equal(t, 0, v.NullCount())
}

func TestAllInvalid(t *testing.T) {
	v := validity.AllInvalid(3)
	assert.Equal(t, 3, v.NullCount())
	assert.False(t, v.IsValid(0))
}

func TestBitmapFromBools(t *testing.T) {
	v := validity.BitmapFromBools([]bool{true, false, true, true, false})
	assert.Equal(t, validity.KindBitmap, v.Kind())
	assert.True(t, v.IsValid(0))
	assert.False(t, v.IsValid(1))
	assert.True(t, v.IsValid(2))
	assert.Equal(t, 2, v.NullCount())
}

func TestCollapseUniformBitmap(t *testing.T) {
	allTrue := validity.BitmapFromBools([]bool{true, true, true})
	assert.Equal(t, validity.KindAllValid, allTrue.Collapse().Kind())

	allFalse := validity.BitmapFromBools([]bool{false, false})
	assert.Equal(t, validity.KindAllInvalid, allFalse.Collapse().Kind())

	mixed := validity.BitmapFromBools([]bool{true, false})
	assert.Equal(t, validity.KindBitmap, mixed.Collapse().Kind())
}

func TestSlicePreservesBits(t *testing.T) {
	v := validity.BitmapFromBools([]bool{true, false, true, true, false, true})
	s := v.Slice(2, 5)
	require.Equal(t, 3, s.Len())
	assert.True(t, s.IsValid(0))
	assert.True(t, s.IsValid(1))
	assert.False(t, s.IsValid(2))
}

func TestSliceOutOfRangePanics(t *testing.T) {
	v := validity.AllValid(4)
	assert.Panics(t, func() { v.Slice(0, 5) })
	assert.Panics(t, func() { v.Slice(3, 1) })
}

func TestConcatAllNonNullable(t *testing.T) {
	a := validity.NonNullable(2)
	b := validity.NonNullable(3)
	c := validity.Concat(a, b)

	assert.Equal(t, validity.KindNonNullable, c.Kind())
	assert.Equal(t, 5, c.Len())
}

func TestConcatMixed(t *testing.T) {
	a := validity.AllValid(2)
	b := validity.AllInvalid(2)
	c := validity.Concat(a, b)

	require.Equal(t, 4, c.Len())
	assert.True(t, c.IsValid(0))
	assert.True(t, c.IsValid(1))
	assert.False(t, c.IsValid(2))
	assert.False(t, c.IsValid(3))
}

func TestNewBitmapRejectsShortInput(t *testing.T) {
	_, err := validity.NewBitmap([]byte{0x01}, 100)
	assert.Error(t, err)
}
