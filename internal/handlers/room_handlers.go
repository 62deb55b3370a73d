package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"support-chat/internal/auth"
	"support-chat/internal/models"
	"support-chat/internal/services"
	"support-chat/pkg/logger"
)

type RoomHandlers struct {
	roomService *services.RoomService
	authService *auth.Service
	notifier    *services.Notifier
}

func NewRoomHandlers(roomService *services.RoomService, authService *auth.Service, notifier *services.Notifier) *RoomHandlers {
	return &RoomHandlers{
		roomService: roomService,
		authService: authService,
		notifier:    notifier,
	}
}

// ListAdminRooms returns the admin's chatrooms, most recently active
// first, enriched with guest names.
func (h *RoomHandlers) ListAdminRooms(w http.ResponseWriter, r *http.Request) {
	user, err := h.getUserFromRequest(r)
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	if user.Role != models.RoleAdmin {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	rooms, err := h.roomService.ListRoomsForAdmin(r.Context(), user.ID)
	if err != nil {
		logger.Error("List chatrooms error: %v", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	if rooms == nil {
		rooms = []*models.Chatroom{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(rooms)
}

// GuestRoom returns the guest's chatroom, creating it on first access.
func (h *RoomHandlers) GuestRoom(w http.ResponseWriter, r *http.Request) {
	user, err := h.getUserFromRequest(r)
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	if user.Role != models.RoleGuest {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	room, created, err := h.roomService.ResolveRoomForGuest(r.Context(), user.ID)
	if err != nil {
		if errors.Is(err, services.ErrNoAdminAvailable) {
			http.Error(w, "no admin available", http.StatusNotFound)
			return
		}
		logger.Error("Resolve chatroom error for guest %d: %v", user.ID, err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	if created {
		h.notifier.RoomCreated(room, user.Name)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(room)
}

// RoomMessages returns the full message history of a chatroom for one
// of its participants.
func (h *RoomHandlers) RoomMessages(w http.ResponseWriter, r *http.Request) {
	user, err := h.getUserFromRequest(r)
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	roomID, err := h.getRoomIDFromPath(r)
	if err != nil {
		http.Error(w, "invalid chatroom ID", http.StatusBadRequest)
		return
	}

	messages, err := h.roomService.RoomMessages(r.Context(), roomID, user.ID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrForbidden):
			http.Error(w, "forbidden", http.StatusForbidden)
		case errors.Is(err, services.ErrUnknownRoom):
			http.Error(w, "chatroom not found", http.StatusNotFound)
		default:
			logger.Error("Message history error for room %d: %v", roomID, err)
			http.Error(w, "internal server error", http.StatusInternalServerError)
		}
		return
	}
	if messages == nil {
		messages = []*models.ChatMessage{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(messages)
}

func (h *RoomHandlers) getUserFromRequest(r *http.Request) (*models.User, error) {
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	if token == "" {
		token = r.URL.Query().Get("token")
	}
	if token == "" {
		return nil, errors.New("missing token")
	}
	return h.authService.GetUserFromToken(r.Context(), token)
}

// getRoomIDFromPath extracts the trailing id from /api/messages/{id}.
func (h *RoomHandlers) getRoomIDFromPath(r *http.Request) (int64, error) {
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	return strconv.ParseInt(parts[len(parts)-1], 10, 64)
}
