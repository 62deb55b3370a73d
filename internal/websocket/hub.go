package websocket

import (
	"support-chat/internal/models"
	"support-chat/pkg/logger"
)

type joinRequest struct {
	client *Client
	roomID int64
}

type broadcastRequest struct {
	roomID int64
	admins bool
	event  *models.Event
}

// Hub is the connection registry: it maps live connections to chatroom
// memberships and fans events out to them. A single Run goroutine owns
// all maps, so membership changes and broadcasts never interleave.
//
// It also keeps a role index so room-lifecycle notifications go to
// admin connections only instead of every connected client.
type Hub struct {
	clients    map[*Client]bool
	rooms      map[int64]map[*Client]bool
	admins     map[*Client]bool
	register   chan *Client
	unregister chan *Client
	join       chan joinRequest
	broadcast  chan broadcastRequest
	shutdown   chan struct{}
	done       chan struct{}
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		rooms:      make(map[int64]map[*Client]bool),
		admins:     make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		join:       make(chan joinRequest),
		broadcast:  make(chan broadcastRequest, 256),
		shutdown:   make(chan struct{}),
		done:       make(chan struct{}),
	}
}

// Run is the hub's event loop. Call it in its own goroutine.
func (h *Hub) Run() {
	defer close(h.done)

	for {
		select {
		case <-h.shutdown:
			for client := range h.clients {
				client.closeSend()
			}
			return

		case client := <-h.register:
			h.clients[client] = true
			if client.role == models.RoleAdmin {
				h.admins[client] = true
			}
			client.queue(mustEvent(models.EventConnected, models.ConnectedPayload{Message: "connected"}))
			logger.Info("Connection %s registered (user %s, %s)", client.connID, client.username, client.role)

		case client := <-h.unregister:
			h.removeClient(client)

		case req := <-h.join:
			h.handleJoin(req)

		case req := <-h.broadcast:
			h.handleBroadcast(req)
		}
	}
}

// Register adds a freshly upgraded connection to the registry.
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister removes a connection and all its room memberships. Safe to
// call for connections that never joined a room.
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// Join registers the connection's membership in roomID. Joining a room
// twice is a no-op apart from the ack.
func (h *Hub) Join(client *Client, roomID int64) {
	h.join <- joinRequest{client: client, roomID: roomID}
}

// BroadcastRoom delivers event to every connection joined to roomID,
// best effort: a member whose send buffer is full is dropped, not
// retried.
func (h *Hub) BroadcastRoom(roomID int64, event *models.Event) {
	h.broadcast <- broadcastRequest{roomID: roomID, event: event}
}

// BroadcastAdmins delivers event to every admin connection.
func (h *Hub) BroadcastAdmins(event *models.Event) {
	h.broadcast <- broadcastRequest{admins: true, event: event}
}

// Shutdown stops the event loop and closes all client send channels.
func (h *Hub) Shutdown() {
	close(h.shutdown)
	<-h.done
}

func (h *Hub) handleJoin(req joinRequest) {
	// A join can arrive after the hub already dropped the connection.
	// A removed client never rejoins a room.
	if !h.clients[req.client] {
		return
	}

	members, ok := h.rooms[req.roomID]
	if !ok {
		members = make(map[*Client]bool)
		h.rooms[req.roomID] = members
	}
	if !members[req.client] {
		members[req.client] = true
		logger.Info("Connection %s joined chatroom %d", req.client.connID, req.roomID)
	}

	req.client.queue(mustEvent(models.EventRoomJoined, models.RoomJoinedPayload{
		ChatroomID: req.roomID,
		Message:    "joined chatroom",
	}))
}

func (h *Hub) handleBroadcast(req broadcastRequest) {
	var targets map[*Client]bool
	if req.admins {
		targets = h.admins
	} else {
		targets = h.rooms[req.roomID]
	}

	var stale []*Client
	for client := range targets {
		if !client.queue(req.event) {
			stale = append(stale, client)
		}
	}
	for _, client := range stale {
		logger.Error("Dropping connection %s: send buffer full", client.connID)
		h.removeClient(client)
	}
}

func (h *Hub) removeClient(client *Client) {
	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	delete(h.admins, client)
	for roomID, members := range h.rooms {
		delete(members, client)
		if len(members) == 0 {
			delete(h.rooms, roomID)
		}
	}
	client.closeSend()
	logger.Info("Connection %s unregistered", client.connID)
}

// mustEvent builds an event for payloads that cannot fail to marshal.
func mustEvent(eventType string, data interface{}) *models.Event {
	event, err := models.NewEvent(eventType, data)
	if err != nil {
		panic(err)
	}
	return event
}
