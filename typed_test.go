package tiercache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unkn0wn-root/tiercache/codec"
)

type session struct {
	UserID string `json:"user_id" msgpack:"user_id"`
	Role   string `json:"role" msgpack:"role"`
}

func TestTypedRoundTrip(t *testing.T) {
	ctx := context.Background()
	c := newTestLocal(t, LocalConfig{MaxCapacity: 10})
	tc := NewTyped[session](c, codec.JSON[session]{})

	_, ok, err := tc.Get(ctx, "s:1")
	require.NoError(t, err)
	require.False(t, ok)

	want := session{UserID: "u1", Role: "admin"}
	require.NoError(t, tc.Set(ctx, "s:1", want))

	got, ok, err := tc.Get(ctx, "s:1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, want, got)
}

func TestTypedDecodeFailure(t *testing.T) {
	ctx := context.Background()
	c := newTestLocal(t, LocalConfig{MaxCapacity: 10})
	tc := NewTyped[session](c, codec.JSON[session]{})

	// poison the underlying byte cache
	require.NoError(t, c.Set(ctx, "s:1", []byte("{not json")))

	_, _, err := tc.Get(ctx, "s:1")
	var se *SerializationError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "s:1", se.Key)
}

func TestTypedHashOps(t *testing.T) {
	ctx := context.Background()
	c := newTestLocal(t, LocalConfig{MaxCapacity: 10})
	tc := NewTyped[session](c, codec.Msgpack[session]{})

	want := session{UserID: "u2", Role: "viewer"}
	require.NoError(t, tc.HSet(ctx, "sessions", "s:2", want))

	got, ok, err := tc.HGet(ctx, "sessions", "s:2")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, want, got)
}

func TestTypedUnwrap(t *testing.T) {
	c := newTestLocal(t, LocalConfig{MaxCapacity: 10})
	tc := NewTyped[session](c, codec.JSON[session]{})
	assert.Same(t, c, tc.Unwrap())
}

func TestTypedCBOR(t *testing.T) {
	ctx := context.Background()
	c := newTestLocal(t, LocalConfig{MaxCapacity: 10})
	tc := NewTyped[session](c, codec.MustCBOR[session](false))

	want := session{UserID: "u3", Role: "auditor"}
	require.NoError(t, tc.Set(ctx, "s:3", want))

	got, ok, err := tc.Get(ctx, "s:3")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, want, got)
}
