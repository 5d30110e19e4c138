package store

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_ReadMiss(t *testing.T) {
	st := NewMemoryStore()

	_, err := st.Read(context.Background(), "absent")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_WriteReadOverwrite(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, st.Write(ctx, "k", []byte(`{"lines":[]}`)))
	got, err := st.Read(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, `{"lines":[]}`, string(got))

	require.NoError(t, st.Write(ctx, "k", []byte(`{"lines":[],"promo_code":"VIP"}`)))
	got, err = st.Read(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, `{"lines":[],"promo_code":"VIP"}`, string(got))
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()

	in := []byte("original")
	require.NoError(t, st.Write(ctx, "k", in))
	in[0] = 'X'

	got, err := st.Read(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "original", string(got))

	got[0] = 'Y'
	again, err := st.Read(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "original", string(again))
}

func TestMemoryStore_ErrorInjection(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()
	boom := fmt.Errorf("boom")

	require.NoError(t, st.Write(ctx, "k", []byte("v")))

	st.FailReads(boom)
	_, err := st.Read(ctx, "k")
	assert.ErrorIs(t, err, boom)

	st.FailWrites(boom)
	assert.ErrorIs(t, st.Write(ctx, "k", []byte("w")), boom)

	st.FailReads(nil)
	st.FailWrites(nil)
	got, err := st.Read(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", string(got), "failed writes must not have landed")
}
