package channels

import (
	"encoding/json"
	"testing"

	"github.com/chronos-ua/chronos-backend/internal/notify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func addTestClient(h *SocketHub, userID string, buffer int) *SocketClient {
	client := &SocketClient{
		hub:    h,
		send:   make(chan []byte, buffer),
		userID: userID,
		connID: "test-" + userID,
	}
	h.addClient(client)
	return client
}

func TestSendToUser_NoConnections(t *testing.T) {
	h := NewSocketHub()
	assert.False(t, h.SendToUser("nobody", notify.Payload{Title: "hi"}))
}

func TestSendToUser_DeliversEnvelope(t *testing.T) {
	h := NewSocketHub()
	client := addTestClient(h, "user1", 4)

	require.True(t, h.SendToUser("user1", notify.Payload{Title: "hi", URL: "/events/1"}))

	var msg WSMessage
	require.NoError(t, json.Unmarshal(<-client.send, &msg))
	assert.Equal(t, WSTypeNotification, msg.Type)

	payload, ok := msg.Payload.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "hi", payload["title"])
	assert.Equal(t, "/events/1", payload["url"])
}

func TestSendToUser_AllTabsReceive(t *testing.T) {
	h := NewSocketHub()
	tab1 := addTestClient(h, "user1", 4)
	tab2 := addTestClient(h, "user1", 4)
	other := addTestClient(h, "user2", 4)

	require.True(t, h.SendToUser("user1", notify.Payload{Title: "hi"}))

	assert.Len(t, tab1.send, 1)
	assert.Len(t, tab2.send, 1)
	assert.Len(t, other.send, 0)
	assert.Equal(t, 2, h.ConnectionCount("user1"))
}

func TestSendToUser_EvictsStaleClient(t *testing.T) {
	h := NewSocketHub()
	// Zero buffer: the first send already finds it full.
	addTestClient(h, "user1", 0)
	healthy := addTestClient(h, "user1", 4)

	require.Equal(t, 2, h.ConnectionCount("user1"))
	assert.True(t, h.SendToUser("user1", notify.Payload{Title: "hi"}))
	assert.Len(t, healthy.send, 1)
	assert.Equal(t, 1, h.ConnectionCount("user1"))
}

func TestRemoveClient(t *testing.T) {
	h := NewSocketHub()
	client := addTestClient(h, "user1", 4)

	require.True(t, h.removeClient(client))
	assert.Equal(t, 0, h.ConnectionCount("user1"))
	assert.Equal(t, 0, h.TotalConnections())

	// Removing twice is a no-op.
	assert.False(t, h.removeClient(client))
}
