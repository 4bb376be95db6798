package hub

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weiawesome/sketch-relay/internal/config"
)

func newTestHub() *Hub {
	return NewHub(config.WebSocketConfig{})
}

func newTestClient(t *testing.T, h *Hub, id string) *Client {
	t.Helper()
	c := &Client{ID: id, Hub: h, Send: make(chan []byte, 8)}
	h.Register(c)
	return c
}

func received(c *Client) []string {
	var out []string
	for {
		select {
		case data := <-c.Send:
			out = append(out, string(data))
		default:
			return out
		}
	}
}

func TestSendToConn(t *testing.T) {
	h := newTestHub()
	a := newTestClient(t, h, "a")

	ok := h.SendToConn("a", map[string]string{"hello": "world"})
	require.True(t, ok)

	frames := received(a)
	require.Len(t, frames, 1)
	assert.JSONEq(t, `{"hello":"world"}`, frames[0])
}

func TestSendToUnknownConn(t *testing.T) {
	h := newTestHub()
	assert.False(t, h.SendToConn("ghost", "x"))
}

func TestBroadcastExcludes(t *testing.T) {
	h := newTestHub()
	a := newTestClient(t, h, "a")
	b := newTestClient(t, h, "b")
	c := newTestClient(t, h, "c")

	h.Broadcast([]string{"a", "b", "c"}, "a", json.RawMessage(`{"n":1}`))

	assert.Empty(t, received(a))
	assert.Len(t, received(b), 1)
	assert.Len(t, received(c), 1)
}

func TestBroadcastSkipsUnknownConns(t *testing.T) {
	h := newTestHub()
	b := newTestClient(t, h, "b")

	h.Broadcast([]string{"ghost", "b"}, "", "x")
	assert.Len(t, received(b), 1)
}

func TestUnregisterClosesSendOnce(t *testing.T) {
	h := newTestHub()
	a := newTestClient(t, h, "a")

	h.Unregister(a)
	h.Unregister(a) // second call must be a no-op

	_, open := <-a.Send
	assert.False(t, open)
	assert.False(t, h.SendToConn("a", "x"))
}

func TestFullSendBufferDropsClient(t *testing.T) {
	h := newTestHub()
	stuck := &Client{ID: "stuck", Hub: h, Send: make(chan []byte)}
	h.Register(stuck)

	// Nobody drains the channel, so the delivery falls through to the
	// drop path.
	h.SendToConn("stuck", "x")

	require.Eventually(t, func() bool {
		return !h.SendToConn("stuck", "y")
	}, time.Second, 10*time.Millisecond)
}
