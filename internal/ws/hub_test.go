package ws

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	mu      sync.Mutex
	written [][]byte
	fail    bool
	closed  bool
}

func (f *fakeConn) Write(ctx context.Context, typ websocket.MessageType, p []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("broken pipe")
	}
	f.written = append(f.written, p)
	return nil
}

func (f *fakeConn) Close(code websocket.StatusCode, reason string) error {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	return nil
}

func TestHub_SendTargetsOneSession(t *testing.T) {
	h := NewHub()
	a, b := &fakeConn{}, &fakeConn{}
	idA := h.Add(a)
	h.Add(b)

	require.NoError(t, h.Send(idA, []byte("hi")))

	assert.Equal(t, [][]byte{[]byte("hi")}, a.written)
	assert.Empty(t, b.written)
}

func TestHub_SendUnknownSession(t *testing.T) {
	h := NewHub()

	err := h.Send(uuid.New(), []byte("x"))

	assert.ErrorIs(t, err, ErrUnknownSession)
}

func TestHub_FailedWriteDropsSession(t *testing.T) {
	h := NewHub()
	bad := &fakeConn{fail: true}
	good := &fakeConn{}
	idBad := h.Add(bad)
	idGood := h.Add(good)

	err := h.Send(idBad, []byte("patch"))

	assert.Error(t, err)
	assert.True(t, bad.closed)
	assert.Equal(t, 1, h.Len())
	assert.ErrorIs(t, h.Send(idBad, []byte("x")), ErrUnknownSession)
	require.NoError(t, h.Send(idGood, []byte("y")))
	assert.Len(t, good.written, 1)
}

func TestHub_SessionIDsAreUnique(t *testing.T) {
	h := NewHub()
	seen := map[uuid.UUID]bool{}
	for i := 0; i < 50; i++ {
		id := h.Add(&fakeConn{})
		assert.False(t, seen[id])
		seen[id] = true
	}
	assert.Equal(t, 50, h.Len())
}
