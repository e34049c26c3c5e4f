package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gorilla "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sigmon/internal/infrastructure"
	"sigmon/internal/shared/testutil"
)

func startHub(t *testing.T) *Hub {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	hub := NewHub(logger, nil)
	hub.Start()
	t.Cleanup(hub.Stop)
	return hub
}

func receive(t *testing.T, ch <-chan []byte) Event {
	t.Helper()
	select {
	case data, ok := <-ch:
		require.True(t, ok, "send channel closed")
		var ev Event
		require.NoError(t, json.Unmarshal(data, &ev))
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func TestHubRegisterAndPublish(t *testing.T) {
	hub := startHub(t)
	client := NewClient(hub, newMockConnection(), "trace-upgrade", nil)

	hub.Register(client)
	hello := receive(t, client.send)
	assert.Equal(t, EventConnection, hello.Type)
	assert.Equal(t, "trace-upgrade", hello.TraceID)
	assert.Equal(t, 1, hub.ClientCount())

	ctx := infrastructure.WithTraceID(context.Background(), "req-42")
	hub.Publish(ctx, EventDatasetLoaded, map[string]interface{}{"rows": 4})

	ev := receive(t, client.send)
	assert.Equal(t, EventDatasetLoaded, ev.Type)
	assert.Equal(t, "req-42", ev.TraceID)
	assert.Equal(t, map[string]interface{}{"rows": float64(4)}, ev.Data)

	require.Eventually(t, func() bool { return hub.Stats().MessagesSent == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, int64(1), hub.Stats().TotalConnections)
}

func TestHubUnregisterClosesSend(t *testing.T) {
	hub := startHub(t)
	client := NewClient(hub, newMockConnection(), "", nil)
	hub.Register(client)
	receive(t, client.send)

	hub.Unregister(client)
	require.Eventually(t, func() bool { return hub.ClientCount() == 0 }, time.Second, 5*time.Millisecond)

	_, ok := <-client.send
	assert.False(t, ok)

	// A second unregister is harmless.
	hub.Unregister(client)
}

func TestHubStop(t *testing.T) {
	logger, handler := testutil.NewTestLogger(t)
	hub := NewHub(logger, nil)
	hub.Start()
	hub.Start()

	client := NewClient(hub, newMockConnection(), "", nil)
	hub.Register(client)
	receive(t, client.send)

	hub.Stop()
	hub.Stop()
	assert.Equal(t, 0, hub.ClientCount())
	assert.True(t, handler.ContainsMessage("hub shutting down"))

	done := make(chan struct{})
	go func() {
		hub.Register(NewClient(hub, newMockConnection(), "", nil))
		hub.Unregister(client)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("register after stop blocked")
	}

	hub.Start()
	assert.False(t, hub.running)
}

func TestHubPublishDropsWhenQueueFull(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	hub := NewHub(logger, nil)

	for i := 0; i < broadcastQueue+3; i++ {
		hub.Publish(context.Background(), EventSelectionChanged, i)
	}
	assert.Equal(t, int64(3), hub.Stats().MessagesDropped)
}

func TestClientWritePump(t *testing.T) {
	conn := newMockConnection()
	client := NewClient(NewHub(nil, nil), conn, "", nil)

	client.send <- []byte(`{"type":"one"}`)
	client.send <- []byte(`{"type":"two"}`)
	close(client.send)

	client.WritePump()

	written := conn.Written()
	require.Len(t, written, 3)
	assert.Equal(t, gorilla.TextMessage, written[0].Type)
	assert.Equal(t, `{"type":"two"}`, string(written[1].Data))
	assert.Equal(t, gorilla.CloseMessage, written[2].Type)
	assert.True(t, conn.IsClosed())
}

func TestClientReadPumpUnregisters(t *testing.T) {
	hub := startHub(t)
	conn := newMockConnection(
		mockMessage{Type: gorilla.TextMessage, Data: []byte(`{"type":"heartbeat"}`)},
		mockMessage{Type: gorilla.TextMessage, Data: []byte(`hello`)},
	)
	client := NewClient(hub, conn, "", nil)
	hub.Register(client)
	receive(t, client.send)

	client.ReadPump()

	assert.True(t, conn.IsClosed())
	assert.Equal(t, int64(maxMessageSize), conn.readLimit)
	require.Eventually(t, func() bool { return hub.ClientCount() == 0 }, time.Second, 5*time.Millisecond)
}

func TestHandlerEndToEnd(t *testing.T) {
	hub := startHub(t)
	server := httptest.NewServer(NewHandler(hub, nil, nil))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := gorilla.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var hello Event
	require.NoError(t, conn.ReadJSON(&hello))
	assert.Equal(t, EventConnection, hello.Type)

	hub.Publish(context.Background(), EventConfigurationSaved, map[string]string{"name": "weekly"})

	var ev Event
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, EventConfigurationSaved, ev.Type)
}

func TestHandlerRejectsOrigin(t *testing.T) {
	hub := startHub(t)
	server := httptest.NewServer(NewHandler(hub, []string{"https://dashboard.example"}, nil))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	header := http.Header{"Origin": []string{"https://evil.example"}}
	_, resp, err := gorilla.DefaultDialer.Dial(wsURL, header)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}
