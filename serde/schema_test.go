package serde

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strata-db/strata/dtype"
)

func TestSchemaRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	dt := dtype.Struct([]string{"a", "b"}, []dtype.DType{
		dtype.Primitive(dtype.I64, dtype.NonNullable),
		dtype.Utf8(dtype.Nullable),
	}, dtype.NonNullable)

	pos, err := writeSchema(ctx, store, dt)
	require.NoError(t, err)
	assert.Equal(t, int64(0), pos)

	got, err := readSchema(ctx, store, pos)
	require.NoError(t, err)
	assert.True(t, got.Equal(dt))
}
