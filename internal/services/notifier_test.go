package services

import (
	"encoding/json"
	"testing"

	"support-chat/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotifierRoomCreated(t *testing.T) {
	broadcaster := newFakeBroadcaster()
	notifier := NewNotifier(broadcaster)

	room := &models.Chatroom{ID: 10, Name: "Support - Alice", AdminID: 1, GuestID: 7}
	notifier.RoomCreated(room, "Alice")

	require.Len(t, broadcaster.adminEvents, 1)
	event := broadcaster.adminEvents[0]
	assert.Equal(t, models.EventChatroomCreated, event.Type)

	var payload models.ChatroomCreatedPayload
	require.NoError(t, json.Unmarshal(event.Data, &payload))
	assert.Equal(t, room.ID, payload.Chatroom.ID)
	assert.Equal(t, "Alice", payload.GuestName)
	assert.NotEmpty(t, payload.Message)
}

func TestNotifierRoomUpdated(t *testing.T) {
	broadcaster := newFakeBroadcaster()
	notifier := NewNotifier(broadcaster)

	notifier.RoomUpdated(10)

	require.Len(t, broadcaster.adminEvents, 1)
	event := broadcaster.adminEvents[0]
	assert.Equal(t, models.EventChatroomUpdated, event.Type)

	var payload models.ChatroomUpdatedPayload
	require.NoError(t, json.Unmarshal(event.Data, &payload))
	assert.Equal(t, int64(10), payload.ChatroomID)
}
