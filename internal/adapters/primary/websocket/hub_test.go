package websocket

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/lorrc/sales-analytics-backend/internal/catalog"
	"github.com/lorrc/sales-analytics-backend/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func startHub(t *testing.T) (*Hub, context.CancelFunc) {
	t.Helper()
	hub := NewHub(catalog.Default(), testLogger())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return hub, cancel
}

func register(t *testing.T, hub *Hub) *Client {
	t.Helper()
	client := NewClient(hub, nil, testLogger())
	before := hub.GetClientCount()
	hub.Register <- client
	require.Eventually(t, func() bool { return hub.GetClientCount() == before+1 }, time.Second, 5*time.Millisecond)
	return client
}

func receive(t *testing.T, client *Client) domain.Event {
	t.Helper()
	select {
	case event := <-client.Send:
		return event
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return domain.Event{}
	}
}

func TestHub_BroadcastReachesSubscribersOnly(t *testing.T) {
	hub, _ := startHub(t)
	subscribed := register(t, hub)
	other := register(t, hub)

	require.True(t, hub.Subscribe(subscribed, "teams"))
	require.True(t, hub.Subscribe(other, "industries"))
	assert.Equal(t, 2, hub.GetRoomCount())
	assert.Equal(t, 1, hub.GetClientsInRoom("teams"))

	require.NoError(t, hub.Broadcast(domain.Event{Type: domain.EventDatasetUpdated, Dataset: "teams"}))

	event := receive(t, subscribed)
	assert.Equal(t, domain.EventDatasetUpdated, event.Type)
	assert.Equal(t, "teams", event.Dataset)

	// Flush the loop with a second broadcast the other client does get.
	require.NoError(t, hub.Broadcast(domain.Event{Type: domain.EventDatasetUpdated, Dataset: "industries"}))
	assert.Equal(t, "industries", receive(t, other).Dataset)
	assert.Empty(t, other.Send)
}

func TestHub_SubscribeUnknownDataset(t *testing.T) {
	hub, _ := startHub(t)
	client := register(t, hub)

	assert.False(t, hub.Subscribe(client, "regions"))
	assert.False(t, client.HasSubscription("regions"))
	assert.Equal(t, 0, hub.GetRoomCount())
}

func TestHub_Unsubscribe(t *testing.T) {
	hub, _ := startHub(t)
	client := register(t, hub)

	hub.Subscribe(client, "teams")
	hub.Unsubscribe(client, "teams")

	assert.False(t, client.HasSubscription("teams"))
	assert.Equal(t, 0, hub.GetClientsInRoom("teams"))
	assert.Equal(t, 0, hub.GetRoomCount())
}

func TestHub_UnregisterClosesSend(t *testing.T) {
	hub, _ := startHub(t)
	client := register(t, hub)
	hub.Subscribe(client, "teams")

	hub.Unregister <- client

	require.Eventually(t, func() bool { return hub.GetClientCount() == 0 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 0, hub.GetRoomCount())
	_, open := <-client.Send
	assert.False(t, open)
}

func TestHub_ShutdownClosesClients(t *testing.T) {
	hub, cancel := startHub(t)
	client := register(t, hub)

	cancel()

	select {
	case _, open := <-client.Send:
		assert.False(t, open)
	case <-time.After(time.Second):
		t.Fatal("client was not closed on shutdown")
	}
}

func TestClient_HandleIncomingMessage(t *testing.T) {
	hub, _ := startHub(t)
	client := register(t, hub)

	msg, err := json.Marshal(ClientMessage{
		Type:    MessageSubscribe,
		Payload: json.RawMessage(`{"dataset":"customer-types"}`),
	})
	require.NoError(t, err)
	client.handleIncomingMessage(msg)
	assert.True(t, client.HasSubscription("customer-types"))

	client.handleIncomingMessage([]byte(`{"type":"PING"}`))
	assert.Equal(t, domain.EventPong, receive(t, client).Type)

	client.handleIncomingMessage([]byte(`{"type":"SUBSCRIBE_TO_DATASET","payload":{"dataset":"Bad Name"}}`))
	assert.Equal(t, domain.EventError, receive(t, client).Type)

	client.handleIncomingMessage([]byte(`{"type":"SUBSCRIBE_TO_DATASET","payload":{"dataset":"regions"}}`))
	rejected := receive(t, client)
	assert.Equal(t, domain.EventError, rejected.Type)
	assert.Equal(t, "regions", rejected.Dataset)

	client.handleIncomingMessage([]byte(`{"type":"UNSUBSCRIBE_FROM_DATASET","payload":{"dataset":"customer-types"}}`))
	assert.False(t, client.HasSubscription("customer-types"))
}
