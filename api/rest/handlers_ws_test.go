package rest

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	event "github.com/R3E-Network/agentsvc/domain/eventbus"
	"github.com/R3E-Network/agentsvc/eventbus"
	"github.com/R3E-Network/agentsvc/internal/metrics"
)

func newTestWSServer(t *testing.T) (*httptest.Server, *eventbus.Bus) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	reg := prometheus.NewRegistry()
	bus := eventbus.New(metrics.NewWithRegistry("test-service", reg), "test-service")
	srv := NewServer(Deps{Bus: bus, Metrics: metrics.NewWithRegistry("test-http", prometheus.NewRegistry())}, nil)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, bus
}

func dialWS(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/v1/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestWebSocketSubscribeReceivesPublishedEvent(t *testing.T) {
	ts, bus := newTestWSServer(t)
	conn := dialWS(t, ts)

	require.NoError(t, conn.WriteJSON(wsClientMessage{Type: "subscribe", Channels: []string{"system:alerts"}}))

	var subscribed wsServerMessage
	require.NoError(t, conn.ReadJSON(&subscribed))
	require.Equal(t, "subscribed", subscribed.Type)
	require.Equal(t, []string{"system:alerts"}, subscribed.Channels)

	// Give the subscription goroutine a moment to register before
	// publishing, since subscribe() returns before the reply is read.
	time.Sleep(10 * time.Millisecond)
	bus.Publish(event.SystemAlert{Level: "warn", Msg: "disk low"})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var evtMsg wsServerMessage
	require.NoError(t, conn.ReadJSON(&evtMsg))
	require.Equal(t, "event", evtMsg.Type)
	require.Equal(t, "system:alerts", evtMsg.Channel)
	require.NotEmpty(t, evtMsg.Timestamp)
}

func TestWebSocketPing(t *testing.T) {
	ts, _ := newTestWSServer(t)
	conn := dialWS(t, ts)

	require.NoError(t, conn.WriteJSON(wsClientMessage{Type: "ping"}))

	var pong wsServerMessage
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	require.NoError(t, conn.ReadJSON(&pong))
	require.Equal(t, "pong", pong.Type)
}

func TestWebSocketUnsubscribeStopsDelivery(t *testing.T) {
	ts, bus := newTestWSServer(t)
	conn := dialWS(t, ts)

	require.NoError(t, conn.WriteJSON(wsClientMessage{Type: "subscribe", Channels: []string{"tasks"}}))
	var subscribed wsServerMessage
	require.NoError(t, conn.ReadJSON(&subscribed))

	require.NoError(t, conn.WriteJSON(wsClientMessage{Type: "unsubscribe", Channels: []string{"tasks"}}))
	var unsubscribed wsServerMessage
	require.NoError(t, conn.ReadJSON(&unsubscribed))
	require.Equal(t, "unsubscribed", unsubscribed.Type)

	time.Sleep(10 * time.Millisecond)
	bus.Publish(event.TaskUpdate{Task: "t1", Status: "running"})

	// Ping round-trips to prove no stray "event" frame arrives first.
	require.NoError(t, conn.WriteJSON(wsClientMessage{Type: "ping"}))
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg wsServerMessage
	require.NoError(t, conn.ReadJSON(&msg))
	require.Equal(t, "pong", msg.Type)
}

func TestWebSocketUnknownMessageType(t *testing.T) {
	ts, _ := newTestWSServer(t)
	conn := dialWS(t, ts)

	require.NoError(t, conn.WriteJSON(wsClientMessage{Type: "bogus"}))

	var msg wsServerMessage
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	require.NoError(t, conn.ReadJSON(&msg))
	require.Equal(t, "error", msg.Type)
}
