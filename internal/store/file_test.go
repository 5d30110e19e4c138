package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_ReadMiss(t *testing.T) {
	st := NewFileStore(t.TempDir())

	_, err := st.Read(context.Background(), "cart-123")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFileStore_WriteThenRead(t *testing.T) {
	st := NewFileStore(t.TempDir())
	ctx := context.Background()
	payload := []byte(`{"lines":[]}`)

	require.NoError(t, st.Write(ctx, "cart-123", payload))

	got, err := st.Read(ctx, "cart-123")
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestFileStore_WriteCreatesDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "snapshots")
	st := NewFileStore(dir)

	require.NoError(t, st.Write(context.Background(), "cart-123", []byte("x")))

	_, err := os.Stat(dir)
	assert.NoError(t, err)
}

func TestFileStore_OverwriteReplacesAtomically(t *testing.T) {
	dir := t.TempDir()
	st := NewFileStore(dir)
	ctx := context.Background()

	require.NoError(t, st.Write(ctx, "cart-123", []byte("old")))
	require.NoError(t, st.Write(ctx, "cart-123", []byte("new")))

	got, err := st.Read(ctx, "cart-123")
	require.NoError(t, err)
	assert.Equal(t, []byte("new"), got)

	// No temp files left behind
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestFileStore_KeyWithSeparatorsStaysInDir(t *testing.T) {
	dir := t.TempDir()
	st := NewFileStore(dir)

	require.NoError(t, st.Write(context.Background(), "a/b/c", []byte("x")))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "a_b_c.json", entries[0].Name())
}
