package services

import (
	"context"
	"fmt"

	"support-chat/internal/database"
	"support-chat/internal/models"
	"support-chat/pkg/logger"
)

// submissionState tracks a pending message through the relay.
type submissionState int

const (
	stateReceived submissionState = iota
	stateValidated
	statePersisted
	stateBroadcast
	stateAcknowledged
	stateRejected
	stateFailed
)

func (s submissionState) String() string {
	switch s {
	case stateReceived:
		return "received"
	case stateValidated:
		return "validated"
	case statePersisted:
		return "persisted"
	case stateBroadcast:
		return "broadcast"
	case stateAcknowledged:
		return "acknowledged"
	case stateRejected:
		return "rejected"
	case stateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Relay validates, persists and broadcasts chat messages. Persistence
// always completes before any broadcast; a message that was never
// stored is never delivered.
type Relay struct {
	db          database.Store
	broadcaster Broadcaster
	notifier    *Notifier
}

func NewRelay(db database.Store, broadcaster Broadcaster, notifier *Notifier) *Relay {
	return &Relay{
		db:          db,
		broadcaster: broadcaster,
		notifier:    notifier,
	}
}

// Submit drives one message through received → validated → persisted →
// broadcast → acknowledged. Rejections happen before any side effect.
// A post-insert enrichment failure returns *EnrichmentError: the row is
// durable but was not delivered live.
//
// Callers invoke Submit synchronously from a connection's read loop, so
// messages from one sender reach the store in submission order.
// Cross-sender ordering within a room follows persistence completion
// order.
func (r *Relay) Submit(ctx context.Context, roomID, senderID int64, body string) (*models.ChatMessage, error) {
	state := stateReceived

	if roomID == 0 || senderID == 0 || body == "" {
		state = stateRejected
		logger.Debug("Message submission %s: missing field (room=%d sender=%d)", state, roomID, senderID)
		return nil, ErrMissingField
	}

	if _, err := r.db.GetUserByID(ctx, senderID); err != nil {
		if database.IsNotFound(err) {
			return nil, ErrUnknownSender
		}
		return nil, fmt.Errorf("failed to resolve sender: %w", err)
	}

	room, err := r.db.GetRoomByID(ctx, roomID)
	if err != nil {
		if database.IsNotFound(err) {
			return nil, ErrUnknownRoom
		}
		return nil, fmt.Errorf("failed to resolve chatroom: %w", err)
	}
	if room.AdminID != senderID && room.GuestID != senderID {
		state = stateRejected
		logger.Debug("Message submission %s: sender %d not in room %d", state, senderID, roomID)
		return nil, ErrForbidden
	}
	state = stateValidated

	msgID, err := r.db.InsertMessage(ctx, roomID, senderID, body)
	if err != nil {
		state = stateFailed
		logger.Error("Message submission %s: insert for room %d: %v", state, roomID, err)
		return nil, fmt.Errorf("failed to store message: %w", err)
	}
	state = statePersisted

	msg, err := r.db.GetMessageWithSender(ctx, msgID)
	if err != nil {
		// The insert is not rolled back; history fetch recovers the row.
		logger.Error("Message %d stored but enrichment read failed: %v", msgID, err)
		return nil, &EnrichmentError{MessageID: msgID, Err: err}
	}

	// Non-critical: a stale updated_at only affects admin list ordering.
	if err := r.db.TouchRoom(ctx, roomID); err != nil {
		logger.Error("Failed to touch chatroom %d: %v", roomID, err)
	}

	event, err := models.NewEvent(models.EventReceiveMessage, msg)
	if err != nil {
		return nil, &EnrichmentError{MessageID: msgID, Err: err}
	}
	r.broadcaster.BroadcastRoom(roomID, event)
	state = stateBroadcast

	r.notifier.RoomUpdated(roomID)

	state = stateAcknowledged
	logger.Debug("Message %d %s in room %d", msgID, state, roomID)
	return msg, nil
}
