package serde

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	pos1, err := writeMessage(ctx, store, []byte("first"))
	require.NoError(t, err)
	pos2, err := writeMessage(ctx, store, []byte("second message"))
	require.NoError(t, err)

	body1, total1, err := readMessage(ctx, store, pos1)
	require.NoError(t, err)
	assert.Equal(t, []byte("first"), body1)
	assert.Equal(t, pos2, pos1+total1)

	body2, _, err := readMessage(ctx, store, pos2)
	require.NoError(t, err)
	assert.Equal(t, []byte("second message"), body2)
}

func TestMessageEmptyBody(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	pos, err := writeMessage(ctx, store, nil)
	require.NoError(t, err)

	body, total, err := readMessage(ctx, store, pos)
	require.NoError(t, err)
	assert.Empty(t, body)
	assert.Equal(t, int64(8), total)
}

func TestReadMessageTruncated(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	_, err := store.WriteAll(ctx, []byte{5, 0, 0, 0, 0, 0, 0, 0})
	require.NoError(t, err)

	_, _, err = readMessage(ctx, store, 0)
	assert.Error(t, err)
}
