package services

import (
	"fmt"

	"support-chat/internal/models"
	"support-chat/pkg/logger"
)

// Broadcaster is the slice of the connection registry the services need.
// Implemented by websocket.Hub.
type Broadcaster interface {
	BroadcastRoom(roomID int64, event *models.Event)
	BroadcastAdmins(event *models.Event)
}

// Notifier pushes room-lifecycle events to admin connections. Delivery
// is fire-and-forget: no confirmation, no queuing for offline admins.
type Notifier struct {
	broadcaster Broadcaster
}

func NewNotifier(broadcaster Broadcaster) *Notifier {
	return &Notifier{broadcaster: broadcaster}
}

func (n *Notifier) RoomCreated(room *models.Chatroom, guestName string) {
	event, err := models.NewEvent(models.EventChatroomCreated, models.ChatroomCreatedPayload{
		Chatroom:  room,
		GuestName: guestName,
		Message:   fmt.Sprintf("%s signed up and a new chatroom was created", guestName),
	})
	if err != nil {
		logger.Error("Error building chatroom-created event: %v", err)
		return
	}
	n.broadcaster.BroadcastAdmins(event)
}

func (n *Notifier) RoomUpdated(roomID int64) {
	event, err := models.NewEvent(models.EventChatroomUpdated, models.ChatroomUpdatedPayload{
		ChatroomID: roomID,
	})
	if err != nil {
		logger.Error("Error building chatroom-updated event: %v", err)
		return
	}
	n.broadcaster.BroadcastAdmins(event)
}
