package services

import (
	"context"
	"fmt"

	"support-chat/internal/database"
	"support-chat/internal/models"
	"support-chat/pkg/logger"
)

// RoomService is the room directory: it guarantees each guest identity
// maps to exactly one chatroom, creating one on first contact.
type RoomService struct {
	db database.Store
}

func NewRoomService(db database.Store) *RoomService {
	return &RoomService{db: db}
}

// ResolveRoomForGuest returns the guest's chatroom, creating it against
// the lowest-id admin if none exists yet. created reports whether this
// call made the room, so the caller knows to announce it.
//
// Two guests racing their first contact can both pass the existence
// check; the uniqueness constraint on chatrooms.guest_id makes the
// loser's insert fail, which is handled by re-fetching the winner's row.
func (s *RoomService) ResolveRoomForGuest(ctx context.Context, guestID int64) (room *models.Chatroom, created bool, err error) {
	room, err = s.db.GetRoomForGuest(ctx, guestID)
	if err == nil {
		return room, false, nil
	}
	if !database.IsNotFound(err) {
		return nil, false, fmt.Errorf("failed to look up chatroom: %w", err)
	}

	admin, err := s.db.GetFirstAdmin(ctx)
	if err != nil {
		if database.IsNotFound(err) {
			return nil, false, ErrNoAdminAvailable
		}
		return nil, false, fmt.Errorf("failed to select admin: %w", err)
	}

	guest, err := s.db.GetUserByID(ctx, guestID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to load guest: %w", err)
	}

	room, err = s.db.CreateRoom(ctx, admin.ID, guestID, fmt.Sprintf("Support - %s", guest.Name))
	if err != nil {
		if database.IsConstraint(err) {
			// Lost the first-contact race; the room exists now.
			logger.Debug("Concurrent chatroom creation for guest %d, re-fetching", guestID)
			room, err = s.db.GetRoomForGuest(ctx, guestID)
			if err != nil {
				return nil, false, fmt.Errorf("failed to re-fetch chatroom: %w", err)
			}
			return room, false, nil
		}
		return nil, false, fmt.Errorf("failed to create chatroom: %w", err)
	}

	room.AdminName = admin.Name
	logger.Info("Created chatroom %d for guest %s with admin %s", room.ID, guest.Name, admin.Name)
	return room, true, nil
}

// ListRoomsForAdmin returns the admin's rooms most recently active
// first, enriched with guest display names.
func (s *RoomService) ListRoomsForAdmin(ctx context.Context, adminID int64) ([]*models.Chatroom, error) {
	return s.db.ListRoomsForAdmin(ctx, adminID)
}

// RoomMessages returns the room's full history in order for a
// participant, or ErrForbidden for anyone else.
func (s *RoomService) RoomMessages(ctx context.Context, roomID, userID int64) ([]*models.ChatMessage, error) {
	ok, err := s.CanAccess(ctx, userID, roomID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrForbidden
	}
	return s.db.ListMessages(ctx, roomID)
}

// CanAccess reports whether userID is a participant of roomID.
func (s *RoomService) CanAccess(ctx context.Context, userID, roomID int64) (bool, error) {
	room, err := s.db.GetRoomByID(ctx, roomID)
	if err != nil {
		if database.IsNotFound(err) {
			return false, ErrUnknownRoom
		}
		return false, err
	}
	return room.AdminID == userID || room.GuestID == userID, nil
}
