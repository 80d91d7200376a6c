package websocket

import (
	"encoding/json"
	"errors"
	"time"

	"chat-server/internal/chat"
	"chat-server/pkg/logger"

	"github.com/gorilla/websocket"
)

const (
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
	writeWait  = 10 * time.Second
)

// ErrSendBufferFull is returned when a client's outbound queue is full; the
// delivery is dropped for that client so the channel fan-out never stalls on
// a slow connection.
var ErrSendBufferFull = errors.New("send buffer full")

// Client pumps one WebSocket connection: inbound events are dispatched into
// the registry, outbound events are queued on a bounded buffer and written
// by WritePump.
type Client struct {
	conn     *websocket.Conn
	send     chan []byte
	registry *chat.Registry
	session  *chat.Session
}

func NewClient(conn *websocket.Conn, registry *chat.Registry, username string, sendBuffer int) *Client {
	c := &Client{
		conn:     conn,
		send:     make(chan []byte, sendBuffer),
		registry: registry,
	}
	c.session = registry.Register(c, username)
	return c
}

// Send implements chat.Conn. It never blocks: marshaled events are queued,
// and a full queue drops the event with an error.
func (c *Client) Send(ev chat.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	select {
	case c.send <- data:
		return nil
	default:
		return ErrSendBufferFull
	}
}

func (c *Client) ReadPump() {
	defer func() {
		c.registry.Disconnect(c.session)
		c.conn.Close()
	}()

	// Read deadline and pong handler for connection health
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Error("WebSocket error for %s: %v", c.session.Username(), err)
			}
			return
		}
		c.dispatch(raw)
	}
}

func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				logger.Error("Write error: %v", err)
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// dispatch validates one inbound event and applies it. Malformed events
// mutate nothing; the sender gets an error envelope and nothing is broadcast.
func (c *Client) dispatch(raw []byte) {
	var ev chat.ClientEvent
	if err := json.Unmarshal(raw, &ev); err != nil {
		c.reject("malformed event")
		return
	}

	switch ev.Event {
	case "join":
		if ev.Channel == "" {
			c.reject("join requires a channel")
			return
		}
		if err := c.registry.Join(c.session, ev.Channel); err != nil {
			c.reject(err.Error())
		}

	case "leave":
		c.registry.Leave(c.session)

	case "message":
		if ev.Msg == "" {
			c.reject("message requires a msg")
			return
		}
		kind := chat.MessageKind(ev.Kind)
		if ev.Kind == "" {
			kind = chat.KindText
		}
		if _, err := c.registry.Submit(c.session, kind, ev.Msg, ev.MessageID); err != nil {
			c.reject(err.Error())
		}

	case "typing":
		if ev.Typing == nil {
			c.reject("typing requires a typing flag")
			return
		}
		if err := c.registry.SetTyping(c.session, *ev.Typing); err != nil {
			c.reject(err.Error())
		}

	case "reaction":
		if ev.MessageID == "" || ev.Emoji == "" {
			c.reject("reaction requires message_id and emoji")
			return
		}
		if err := c.registry.ToggleReaction(c.session, ev.MessageID, ev.Emoji); err != nil {
			c.reject(err.Error())
		}

	default:
		c.reject("unknown event")
	}
}

func (c *Client) reject(msg string) {
	if err := c.Send(chat.NewErrorEvent(msg)); err != nil {
		logger.Error("could not report rejection to %s: %v", c.session.Username(), err)
	}
}
