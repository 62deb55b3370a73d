package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"support-chat/internal/models"
	"support-chat/internal/services"
	"support-chat/pkg/logger"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
)

// Relay accepts message submissions. Implemented by services.Relay.
type Relay interface {
	Submit(ctx context.Context, roomID, senderID int64, body string) (*models.ChatMessage, error)
}

// RoomAuthorizer gates join-room requests at the transport boundary.
// The registry itself performs no access checks.
type RoomAuthorizer interface {
	CanAccess(ctx context.Context, userID, roomID int64) (bool, error)
}

// Client is one live websocket connection. Inbound events are handled
// synchronously in ReadPump, so messages from this connection reach the
// relay in submission order.
type Client struct {
	hub        *Hub
	conn       *websocket.Conn
	relay      Relay
	authorizer RoomAuthorizer
	send       chan []byte
	sendMu     sync.Mutex
	sendClosed bool
	connID     string
	userID     int64
	username   string
	role       string
}

func NewClient(hub *Hub, conn *websocket.Conn, relay Relay, authorizer RoomAuthorizer, user *models.User) *Client {
	return &Client{
		hub:        hub,
		conn:       conn,
		relay:      relay,
		authorizer: authorizer,
		send:       make(chan []byte, 256),
		connID:     uuid.NewString(),
		userID:     user.ID,
		username:   user.Username,
		role:       user.Role,
	}
}

// queue marshals event onto the send buffer without blocking. A false
// return means the buffer is full and the connection should be dropped.
// Queuing to an already removed connection reports success, so a caller
// never removes the same connection twice.
func (c *Client) queue(event *models.Event) bool {
	data, err := json.Marshal(event)
	if err != nil {
		logger.Error("Error marshaling %s event: %v", event.Type, err)
		return true
	}
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if c.sendClosed {
		return true
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

// closeSend closes the send buffer exactly once. The hub calls it on
// removal; the read pump may still be dispatching and racing queue
// calls observe the flag instead of the closed channel.
func (c *Client) closeSend() {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if c.sendClosed {
		return
	}
	c.sendClosed = true
	close(c.send)
}

func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Error("WebSocket error on %s: %v", c.connID, err)
			}
			break
		}

		var event models.Event
		if err := json.Unmarshal(data, &event); err != nil {
			c.sendError("invalid event payload")
			continue
		}
		c.dispatch(&event)
	}
}

func (c *Client) dispatch(event *models.Event) {
	// A disconnect mid-handler does not cancel persistence already in
	// flight, so the handlers run on a background context.
	ctx := context.Background()

	switch event.Type {
	case models.EventJoinRoom:
		c.handleJoinRoom(ctx, event.Data)
	case models.EventSendMessage:
		c.handleSendMessage(ctx, event.Data)
	default:
		c.sendError("unknown event type")
	}
}

func (c *Client) handleJoinRoom(ctx context.Context, data json.RawMessage) {
	var payload models.JoinRoomPayload
	if err := json.Unmarshal(data, &payload); err != nil || payload.ChatroomID == 0 {
		c.sendError("invalid join-room payload")
		return
	}

	ok, err := c.authorizer.CanAccess(ctx, c.userID, payload.ChatroomID)
	if err != nil {
		if errors.Is(err, services.ErrUnknownRoom) {
			c.sendError("chatroom not found")
			return
		}
		logger.Error("Error checking chatroom access for %s: %v", c.connID, err)
		c.sendError("failed to join chatroom")
		return
	}
	if !ok {
		c.sendError("not a participant of this chatroom")
		return
	}

	c.hub.Join(c, payload.ChatroomID)
}

func (c *Client) handleSendMessage(ctx context.Context, data json.RawMessage) {
	var payload models.SendMessagePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		c.sendError("invalid send-message payload")
		return
	}

	if _, err := c.relay.Submit(ctx, payload.ChatroomID, payload.SenderID, payload.Message); err != nil {
		c.sendError(submitErrorMessage(err))
	}
}

// submitErrorMessage maps relay errors onto the messages reported to
// the sender. Failures never propagate past this connection.
func submitErrorMessage(err error) string {
	var enrichErr *services.EnrichmentError
	switch {
	case errors.Is(err, services.ErrMissingField):
		return "message is missing required fields"
	case errors.Is(err, services.ErrUnknownSender):
		return "sender not found"
	case errors.Is(err, services.ErrUnknownRoom):
		return "chatroom not found"
	case errors.Is(err, services.ErrForbidden):
		return "not a participant of this chatroom"
	case errors.As(err, &enrichErr):
		return "message stored but not delivered, reload history"
	default:
		return "failed to send message"
	}
}

func (c *Client) sendError(message string) {
	c.queue(mustEvent(models.EventError, models.ErrorPayload{Message: message}))
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
				logger.Error("Write error on %s: %v", c.connID, err)
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
