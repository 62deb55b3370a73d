package models

import "time"

// ChatMessage is a persisted message joined with its sender's display
// name and role, which clients need for rendering.
type ChatMessage struct {
	ID         int64     `json:"id"`
	ChatroomID int64     `json:"chatroom_id"`
	SenderID   int64     `json:"sender_id"`
	Body       string    `json:"message"`
	CreatedAt  time.Time `json:"created_at"`
	SenderName string    `json:"sender_name"`
	SenderRole string    `json:"sender_role"`
}
