package serde_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strata-db/strata/serde"
)

func TestMemoryStoreWriteAndReadAt(t *testing.T) {
	ctx := context.Background()
	ms := serde.NewMemoryStore()

	pos1, err := ms.WriteAll(ctx, []byte("hello "))
	require.NoError(t, err)
	assert.Equal(t, int64(0), pos1)

	pos2, err := ms.WriteAll(ctx, []byte("world"))
	require.NoError(t, err)
	assert.Equal(t, int64(6), pos2)

	n, err := ms.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(11), n)

	b, err := ms.ReadAt(ctx, 6, 5)
	require.NoError(t, err)
	assert.Equal(t, []byte("world"), b)

	_, err = ms.ReadAt(ctx, 9, 5)
	assert.Error(t, err)
}

func TestFileStoreWriteAndReadAt(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "store.bin")

	fs, err := serde.OpenFileStore(path)
	require.NoError(t, err)
	defer fs.Close()

	pos1, err := fs.WriteAll(ctx, []byte("abc"))
	require.NoError(t, err)
	assert.Equal(t, int64(0), pos1)

	pos2, err := fs.WriteAll(ctx, []byte("defgh"))
	require.NoError(t, err)
	assert.Equal(t, int64(3), pos2)

	require.NoError(t, fs.Sync())

	n, err := fs.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(8), n)

	b, err := fs.ReadAt(ctx, 2, 4)
	require.NoError(t, err)
	assert.Equal(t, []byte("cdef"), b)

	require.NoError(t, fs.Close())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("abcdefgh"), raw)
}
