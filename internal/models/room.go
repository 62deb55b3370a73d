package models

import "time"

// Chatroom pairs one admin with one guest. GuestName, GuestUsername and
// AdminName are filled by enriched queries and are not columns of the
// chatrooms table itself.
type Chatroom struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	AdminID   int64     `json:"admin_id"`
	GuestID   int64     `json:"guest_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	GuestName     string `json:"guest_name,omitempty"`
	GuestUsername string `json:"guest_username,omitempty"`
	AdminName     string `json:"admin_name,omitempty"`
}
