package rest

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	event "github.com/R3E-Network/agentsvc/domain/eventbus"
	"github.com/R3E-Network/agentsvc/eventbus"
	svcerrors "github.com/R3E-Network/agentsvc/internal/errors"
)

// wsUpgrader upgrades an HTTP connection to a WebSocket without
// checking the request origin: CORS on the upgrade handshake is the
// caller's job (the REST router's cors middleware runs ahead of it),
// matching the permissive CheckOrigin the teacher pack's own
// websocket-server example uses for its signaling endpoint.
var wsUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsClientMessage is a client->server frame: {"type":"subscribe"|
// "unsubscribe", "channels":[...]} or {"type":"ping"}.
type wsClientMessage struct {
	Type     string   `json:"type"`
	Channels []string `json:"channels"`
}

// wsServerMessage is every server->client frame shape. Only the
// fields relevant to Type are populated.
type wsServerMessage struct {
	Type      string      `json:"type"`
	Channel   string      `json:"channel,omitempty"`
	Event     interface{} `json:"event,omitempty"`
	Channels  []string    `json:"channels,omitempty"`
	Message   string      `json:"message,omitempty"`
	Timestamp string      `json:"timestamp,omitempty"`
}

const wsWriteWait = 10 * time.Second
const wsPongWait = 60 * time.Second
const wsPingInterval = (wsPongWait * 9) / 10

// handleWebSocket serves /api/v1/ws. Each connection gets its own
// read loop (client subscribe/unsubscribe/ping frames) and write loop
// (event fan-out from the Event Bus), joined when either side closes.
func (s *Server) handleWebSocket(c *gin.Context) {
	if s.deps.Bus == nil {
		respondErr(c, svcerrors.Internal("event bus not configured", nil))
		return
	}

	conn, err := wsUpgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	sess := newWSSession(conn, s.deps.Bus)
	defer sess.close()

	go sess.writeLoop()
	sess.readLoop()
}

type wsSession struct {
	conn *websocket.Conn
	bus  *eventbus.Bus

	subs  map[string]func()
	outCh chan wsServerMessage
	done  chan struct{}
}

func newWSSession(conn *websocket.Conn, bus *eventbus.Bus) *wsSession {
	return &wsSession{
		conn:  conn,
		bus:   bus,
		subs:  make(map[string]func()),
		outCh: make(chan wsServerMessage, 64),
		done:  make(chan struct{}),
	}
}

func (s *wsSession) close() {
	select {
	case <-s.done:
	default:
		close(s.done)
	}
	for _, cancel := range s.subs {
		cancel()
	}
	s.conn.Close()
}

func (s *wsSession) readLoop() {
	s.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(wsPongWait))
		return nil
	})

	for {
		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			return
		}
		var msg wsClientMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			s.enqueue(wsServerMessage{Type: "error", Message: "invalid message"})
			continue
		}
		switch msg.Type {
		case "subscribe":
			s.subscribe(msg.Channels)
			s.enqueue(wsServerMessage{Type: "subscribed", Channels: msg.Channels})
		case "unsubscribe":
			s.unsubscribe(msg.Channels)
			s.enqueue(wsServerMessage{Type: "unsubscribed", Channels: msg.Channels})
		case "ping":
			s.enqueue(wsServerMessage{Type: "pong"})
		default:
			s.enqueue(wsServerMessage{Type: "error", Message: "unknown message type"})
		}
	}
}

func (s *wsSession) subscribe(channels []string) {
	for _, ch := range channels {
		if _, ok := s.subs[ch]; ok {
			continue
		}
		sub := s.bus.Subscribe(ch, 0)
		s.subs[ch] = sub.Cancel
		go s.pump(ch, sub.Events)
	}
}

func (s *wsSession) unsubscribe(channels []string) {
	for _, ch := range channels {
		if cancel, ok := s.subs[ch]; ok {
			cancel()
			delete(s.subs, ch)
		}
	}
}

// pump forwards one channel's events onto the shared outCh until the
// subscription or the session closes.
func (s *wsSession) pump(channel string, events <-chan event.Event) {
	for {
		select {
		case <-s.done:
			return
		case evt, ok := <-events:
			if !ok {
				return
			}
			s.enqueue(wsServerMessage{
				Type:      "event",
				Channel:   channel,
				Event:     evt,
				Timestamp: time.Now().UTC().Format(time.RFC3339),
			})
		}
	}
}

func (s *wsSession) enqueue(msg wsServerMessage) {
	select {
	case s.outCh <- msg:
	case <-s.done:
	default:
		// outCh full: drop rather than block the read/pump goroutine,
		// matching the Event Bus's own overflow policy.
	}
}

func (s *wsSession) writeLoop() {
	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case msg := <-s.outCh:
			s.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := s.conn.WriteJSON(msg); err != nil {
				s.close()
				return
			}
		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				s.close()
				return
			}
		}
	}
}
