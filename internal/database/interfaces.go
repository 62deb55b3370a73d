package database

import (
	"context"

	"support-chat/internal/models"
)

type UserStore interface {
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	// GetFirstAdmin returns the lowest-id admin identity.
	GetFirstAdmin(ctx context.Context) (*models.User, error)
	CreateUser(ctx context.Context, username, passwordHash, name, phone, role string) (*models.User, error)
}

type ChatroomStore interface {
	GetRoomForGuest(ctx context.Context, guestID int64) (*models.Chatroom, error)
	GetRoomByID(ctx context.Context, id int64) (*models.Chatroom, error)
	CreateRoom(ctx context.Context, adminID, guestID int64, name string) (*models.Chatroom, error)
	TouchRoom(ctx context.Context, roomID int64) error
	ListRoomsForAdmin(ctx context.Context, adminID int64) ([]*models.Chatroom, error)
}

type MessageStore interface {
	InsertMessage(ctx context.Context, roomID, senderID int64, body string) (int64, error)
	GetMessageWithSender(ctx context.Context, id int64) (*models.ChatMessage, error)
	ListMessages(ctx context.Context, roomID int64) ([]*models.ChatMessage, error)
}

type Store interface {
	UserStore
	ChatroomStore
	MessageStore
	Close() error
}
