package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"support-chat/internal/auth"
	"support-chat/internal/models"
	"support-chat/internal/services"
	"support-chat/pkg/logger"
)

type AuthHandlers struct {
	authService *auth.Service
	roomService *services.RoomService
	notifier    *services.Notifier
}

func NewAuthHandlers(authService *auth.Service, roomService *services.RoomService, notifier *services.Notifier) *AuthHandlers {
	return &AuthHandlers{
		authService: authService,
		roomService: roomService,
		notifier:    notifier,
	}
}

// Register creates a guest account and eagerly pairs it with an admin
// chatroom, announcing the new room to admin connections.
func (h *AuthHandlers) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	response, err := h.authService.Register(r.Context(), &req)
	if err != nil {
		logger.Error("Registration error: %v", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	// Room creation is best effort here: with no admin registered yet
	// the room is created lazily on the guest's first chatroom fetch.
	room, created, err := h.roomService.ResolveRoomForGuest(r.Context(), response.User.ID)
	if err != nil {
		logger.Error("Could not resolve chatroom for new guest %d: %v", response.User.ID, err)
	} else if created {
		h.notifier.RoomCreated(room, response.User.Name)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(response)
}

func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	response, err := h.authService.Login(r.Context(), &req)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			http.Error(w, "invalid credentials", http.StatusUnauthorized)
			return
		}
		logger.Error("Login error: %v", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}
