package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"support-chat/internal/database"
	"support-chat/internal/models"
)

// fakeStore is an in-memory database.Store with per-operation error
// injection.
type fakeStore struct {
	mu       sync.Mutex
	users    map[int64]*models.User
	rooms    map[int64]*models.Chatroom
	messages map[int64]*models.ChatMessage
	nextID   int64

	createRoomErr error
	insertErr     error
	enrichErr     error
	touchErr      error

	touched []int64
	// when set, CreateRoom fails once with createRoomErr and plants
	// this room, simulating a concurrent winner.
	raceWinner *models.Chatroom
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:    make(map[int64]*models.User),
		rooms:    make(map[int64]*models.Chatroom),
		messages: make(map[int64]*models.ChatMessage),
		nextID:   1,
	}
}

func notFound(op string) error {
	return &database.Error{Kind: database.KindNotFound, Op: op, Err: errors.New("no rows in result set")}
}

func (s *fakeStore) addUser(id int64, name, role string) *models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	user := &models.User{
		ID:        id,
		Username:  fmt.Sprintf("user%d", id),
		Name:      name,
		Role:      role,
		CreatedAt: time.Now(),
	}
	s.users[id] = user
	if id >= s.nextID {
		s.nextID = id + 1
	}
	return user
}

func (s *fakeStore) addRoom(id, adminID, guestID int64, name string) *models.Chatroom {
	s.mu.Lock()
	defer s.mu.Unlock()
	room := &models.Chatroom{
		ID:        id,
		Name:      name,
		AdminID:   adminID,
		GuestID:   guestID,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	s.rooms[id] = room
	if id >= s.nextID {
		s.nextID = id + 1
	}
	return room
}

func (s *fakeStore) messageCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.messages)
}

func (s *fakeStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range s.users {
		if user.Username == username {
			return user, nil
		}
	}
	return nil, notFound("GetUserByUsername")
}

func (s *fakeStore) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return nil, notFound("GetUserByID")
	}
	return user, nil
}

func (s *fakeStore) GetFirstAdmin(ctx context.Context) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []int64
	for id, user := range s.users {
		if user.Role == models.RoleAdmin {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return nil, notFound("GetFirstAdmin")
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return s.users[ids[0]], nil
}

func (s *fakeStore) CreateUser(ctx context.Context, username, passwordHash, name, phone, role string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	user := &models.User{
		ID:           id,
		Username:     username,
		PasswordHash: passwordHash,
		Name:         name,
		Phone:        phone,
		Role:         role,
		CreatedAt:    time.Now(),
	}
	s.users[id] = user
	return user, nil
}

func (s *fakeStore) GetRoomForGuest(ctx context.Context, guestID int64) (*models.Chatroom, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, room := range s.rooms {
		if room.GuestID == guestID {
			if admin, ok := s.users[room.AdminID]; ok {
				room.AdminName = admin.Name
			}
			return room, nil
		}
	}
	return nil, notFound("GetRoomForGuest")
}

func (s *fakeStore) GetRoomByID(ctx context.Context, id int64) (*models.Chatroom, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.rooms[id]
	if !ok {
		return nil, notFound("GetRoomByID")
	}
	return room, nil
}

func (s *fakeStore) CreateRoom(ctx context.Context, adminID, guestID int64, name string) (*models.Chatroom, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createRoomErr != nil {
		err := s.createRoomErr
		s.createRoomErr = nil
		if s.raceWinner != nil {
			s.rooms[s.raceWinner.ID] = s.raceWinner
			s.raceWinner = nil
		}
		return nil, err
	}
	id := s.nextID
	s.nextID++
	room := &models.Chatroom{
		ID:        id,
		Name:      name,
		AdminID:   adminID,
		GuestID:   guestID,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	s.rooms[id] = room
	return room, nil
}

func (s *fakeStore) TouchRoom(ctx context.Context, roomID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.touchErr != nil {
		return s.touchErr
	}
	s.touched = append(s.touched, roomID)
	if room, ok := s.rooms[roomID]; ok {
		room.UpdatedAt = time.Now()
	}
	return nil
}

func (s *fakeStore) ListRoomsForAdmin(ctx context.Context, adminID int64) ([]*models.Chatroom, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var rooms []*models.Chatroom
	for _, room := range s.rooms {
		if room.AdminID == adminID {
			rooms = append(rooms, room)
		}
	}
	sort.Slice(rooms, func(i, j int) bool { return rooms[i].UpdatedAt.After(rooms[j].UpdatedAt) })
	return rooms, nil
}

func (s *fakeStore) InsertMessage(ctx context.Context, roomID, senderID int64, body string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.insertErr != nil {
		return 0, s.insertErr
	}
	id := s.nextID
	s.nextID++
	msg := &models.ChatMessage{
		ID:         id,
		ChatroomID: roomID,
		SenderID:   senderID,
		Body:       body,
		CreatedAt:  time.Now(),
	}
	if sender, ok := s.users[senderID]; ok {
		msg.SenderName = sender.Name
		msg.SenderRole = sender.Role
	}
	s.messages[id] = msg
	return id, nil
}

func (s *fakeStore) GetMessageWithSender(ctx context.Context, id int64) (*models.ChatMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.enrichErr != nil {
		return nil, s.enrichErr
	}
	msg, ok := s.messages[id]
	if !ok {
		return nil, notFound("GetMessageWithSender")
	}
	return msg, nil
}

func (s *fakeStore) ListMessages(ctx context.Context, roomID int64) ([]*models.ChatMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var messages []*models.ChatMessage
	for _, msg := range s.messages {
		if msg.ChatroomID == roomID {
			messages = append(messages, msg)
		}
	}
	sort.Slice(messages, func(i, j int) bool { return messages[i].ID < messages[j].ID })
	return messages, nil
}

func (s *fakeStore) Close() error { return nil }

// fakeBroadcaster records every fan-out.
type fakeBroadcaster struct {
	mu          sync.Mutex
	roomEvents  map[int64][]*models.Event
	adminEvents []*models.Event
}

func newFakeBroadcaster() *fakeBroadcaster {
	return &fakeBroadcaster{roomEvents: make(map[int64][]*models.Event)}
}

func (b *fakeBroadcaster) BroadcastRoom(roomID int64, event *models.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.roomEvents[roomID] = append(b.roomEvents[roomID], event)
}

func (b *fakeBroadcaster) BroadcastAdmins(event *models.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.adminEvents = append(b.adminEvents, event)
}

func (b *fakeBroadcaster) roomEventCount(roomID int64) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.roomEvents[roomID])
}
