package models

import "encoding/json"

// Wire event names. Inbound events are sent by clients, outbound events
// are emitted by the server.
const (
	EventJoinRoom    = "join-room"
	EventSendMessage = "send-message"

	EventConnected       = "connected"
	EventRoomJoined      = "room-joined"
	EventReceiveMessage  = "receive-message"
	EventChatroomUpdated = "chatroom-updated"
	EventChatroomCreated = "new-chatroom-created"
	EventError           = "error"
)

// Event is the envelope for every websocket frame in both directions.
type Event struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// NewEvent marshals data into an outbound event envelope.
func NewEvent(eventType string, data interface{}) (*Event, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return &Event{Type: eventType, Data: raw}, nil
}

type JoinRoomPayload struct {
	ChatroomID int64 `json:"chatroomId"`
}

type SendMessagePayload struct {
	ChatroomID int64  `json:"chatroomId"`
	Message    string `json:"message"`
	SenderID   int64  `json:"senderId"`
}

type ConnectedPayload struct {
	Message string `json:"message"`
}

type RoomJoinedPayload struct {
	ChatroomID int64  `json:"chatroomId"`
	Message    string `json:"message"`
}

type ChatroomUpdatedPayload struct {
	ChatroomID int64 `json:"chatroomId"`
}

type ChatroomCreatedPayload struct {
	Chatroom  *Chatroom `json:"chatroom"`
	GuestName string    `json:"guestName"`
	Message   string    `json:"message"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}
