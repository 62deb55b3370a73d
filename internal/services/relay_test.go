package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"support-chat/internal/database"
	"support-chat/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRelay(store *fakeStore) (*Relay, *fakeBroadcaster) {
	broadcaster := newFakeBroadcaster()
	return NewRelay(store, broadcaster, NewNotifier(broadcaster)), broadcaster
}

func seedRoom(store *fakeStore) *models.Chatroom {
	store.addUser(1, "Admin Kim", models.RoleAdmin)
	store.addUser(5, "Alice", models.RoleGuest)
	return store.addRoom(10, 1, 5, "Support - Alice")
}

func TestSubmitPersistsThenBroadcasts(t *testing.T) {
	store := newFakeStore()
	room := seedRoom(store)
	relay, broadcaster := newTestRelay(store)

	msg, err := relay.Submit(context.Background(), room.ID, 5, "hello")
	require.NoError(t, err)

	assert.Equal(t, 1, store.messageCount())
	assert.Equal(t, room.ID, msg.ChatroomID)
	assert.Equal(t, int64(5), msg.SenderID)
	assert.Equal(t, "hello", msg.Body)
	assert.Equal(t, "Alice", msg.SenderName)
	assert.Equal(t, models.RoleGuest, msg.SenderRole)

	events := broadcaster.roomEvents[room.ID]
	require.Len(t, events, 1)
	assert.Equal(t, models.EventReceiveMessage, events[0].Type)

	var delivered models.ChatMessage
	require.NoError(t, json.Unmarshal(events[0].Data, &delivered))
	assert.Equal(t, msg.ID, delivered.ID)
	assert.Equal(t, "hello", delivered.Body)
	assert.Equal(t, "Alice", delivered.SenderName)

	// room list refresh notification for admin dashboards
	require.Len(t, broadcaster.adminEvents, 1)
	assert.Equal(t, models.EventChatroomUpdated, broadcaster.adminEvents[0].Type)

	assert.Equal(t, []int64{room.ID}, store.touched)
}

func TestSubmitRejectsMissingFields(t *testing.T) {
	store := newFakeStore()
	room := seedRoom(store)
	relay, broadcaster := newTestRelay(store)

	cases := []struct {
		name     string
		roomID   int64
		senderID int64
		body     string
	}{
		{"empty body", room.ID, 5, ""},
		{"missing sender", room.ID, 0, "hi"},
		{"missing room", 0, 5, "hi"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := relay.Submit(context.Background(), tc.roomID, tc.senderID, tc.body)
			assert.ErrorIs(t, err, ErrMissingField)
		})
	}

	assert.Equal(t, 0, store.messageCount())
	assert.Equal(t, 0, broadcaster.roomEventCount(room.ID))
}

func TestSubmitRejectsUnknownSender(t *testing.T) {
	store := newFakeStore()
	room := seedRoom(store)
	relay, _ := newTestRelay(store)

	_, err := relay.Submit(context.Background(), room.ID, 404, "hi")
	assert.ErrorIs(t, err, ErrUnknownSender)
	assert.Equal(t, 0, store.messageCount())
}

func TestSubmitRejectsUnknownRoom(t *testing.T) {
	store := newFakeStore()
	seedRoom(store)
	relay, _ := newTestRelay(store)

	_, err := relay.Submit(context.Background(), 999, 1, "x")
	assert.ErrorIs(t, err, ErrUnknownRoom)
	assert.Equal(t, 0, store.messageCount())
}

func TestSubmitRejectsNonParticipant(t *testing.T) {
	store := newFakeStore()
	room := seedRoom(store)
	store.addUser(7, "Mallory", models.RoleGuest)
	relay, broadcaster := newTestRelay(store)

	// a valid identity that is neither the room's admin nor its guest
	_, err := relay.Submit(context.Background(), room.ID, 7, "hi")
	assert.ErrorIs(t, err, ErrForbidden)
	assert.Equal(t, 0, store.messageCount())
	assert.Equal(t, 0, broadcaster.roomEventCount(room.ID))
}

func TestSubmitPersistenceFailureNotBroadcast(t *testing.T) {
	store := newFakeStore()
	room := seedRoom(store)
	store.insertErr = &database.Error{Kind: database.KindUnavailable, Op: "InsertMessage", Err: errors.New("connection refused")}
	relay, broadcaster := newTestRelay(store)

	_, err := relay.Submit(context.Background(), room.ID, 5, "hello")
	require.Error(t, err)
	assert.True(t, database.IsUnavailable(err))
	assert.Equal(t, 0, store.messageCount())
	assert.Equal(t, 0, broadcaster.roomEventCount(room.ID))
	assert.Empty(t, broadcaster.adminEvents)
}

func TestSubmitEnrichmentFailureKeepsRow(t *testing.T) {
	store := newFakeStore()
	room := seedRoom(store)
	store.enrichErr = &database.Error{Kind: database.KindUnavailable, Op: "GetMessageWithSender", Err: errors.New("connection reset")}
	relay, broadcaster := newTestRelay(store)

	_, err := relay.Submit(context.Background(), room.ID, 5, "hello")

	var enrichErr *EnrichmentError
	require.ErrorAs(t, err, &enrichErr)
	assert.NotZero(t, enrichErr.MessageID)

	// durable but not delivered live; history fetch recovers it
	assert.Equal(t, 1, store.messageCount())
	assert.Equal(t, 0, broadcaster.roomEventCount(room.ID))

	history, listErr := store.ListMessages(context.Background(), room.ID)
	require.NoError(t, listErr)
	require.Len(t, history, 1)
	assert.Equal(t, "hello", history[0].Body)
}

func TestSubmitTouchFailureSwallowed(t *testing.T) {
	store := newFakeStore()
	room := seedRoom(store)
	store.touchErr = &database.Error{Kind: database.KindUnknown, Op: "TouchRoom", Err: errors.New("deadlock")}
	relay, broadcaster := newTestRelay(store)

	msg, err := relay.Submit(context.Background(), room.ID, 5, "hello")
	require.NoError(t, err)
	assert.NotNil(t, msg)
	assert.Equal(t, 1, broadcaster.roomEventCount(room.ID))
}

func TestSubmitPerSenderOrder(t *testing.T) {
	store := newFakeStore()
	room := seedRoom(store)
	relay, _ := newTestRelay(store)

	bodies := []string{"first", "second", "third"}
	for _, body := range bodies {
		_, err := relay.Submit(context.Background(), room.ID, 5, body)
		require.NoError(t, err)
	}

	history, err := store.ListMessages(context.Background(), room.ID)
	require.NoError(t, err)
	require.Len(t, history, 3)
	for i, body := range bodies {
		assert.Equal(t, body, history[i].Body)
	}
}
