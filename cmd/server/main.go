package main

import (
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"support-chat/internal/auth"
	"support-chat/internal/config"
	"support-chat/internal/database"
	"support-chat/internal/handlers"
	"support-chat/internal/services"
	"support-chat/internal/websocket"
	"support-chat/pkg/logger"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database
	db, err := database.NewPostgres(cfg.Database.URL)
	if err != nil {
		logger.Fatal("Failed to create database pool: %v", err)
	}
	defer db.Close()

	// Connection registry
	hub := websocket.NewHub()
	go hub.Run()

	// Initialize services
	authService := auth.NewService(db, cfg)
	roomService := services.NewRoomService(db)
	notifier := services.NewNotifier(hub)
	relay := services.NewRelay(db, hub, notifier)

	// Initialize handlers
	authHandlers := handlers.NewAuthHandlers(authService, roomService, notifier)
	roomHandlers := handlers.NewRoomHandlers(roomService, authService, notifier)
	wsHandlers := handlers.NewWebSocketHandlers(authService, roomService, relay, hub)

	// Setup routes
	mux := http.NewServeMux()
	setupRoutes(mux, authHandlers, roomHandlers, wsHandlers)

	// Create server
	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      corsMiddleware(mux),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	logger.Info("Server started on http://localhost%s", cfg.Server.Port)
	logger.Info("WebSocket endpoint: ws://localhost%s/ws", cfg.Server.Port)

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server error: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Server shutting down...")
	hub.Shutdown()
}

func setupRoutes(mux *http.ServeMux, authHandlers *handlers.AuthHandlers, roomHandlers *handlers.RoomHandlers, wsHandlers *handlers.WebSocketHandlers) {
	mux.HandleFunc("/api/register", methodOnly(http.MethodPost, authHandlers.Register))
	mux.HandleFunc("/api/login", methodOnly(http.MethodPost, authHandlers.Login))
	mux.HandleFunc("/api/admin/chatrooms", methodOnly(http.MethodGet, roomHandlers.ListAdminRooms))
	mux.HandleFunc("/api/guest/chatroom", methodOnly(http.MethodGet, roomHandlers.GuestRoom))
	mux.HandleFunc("/api/messages/", methodOnly(http.MethodGet, roomHandlers.RoomMessages))
	mux.HandleFunc("/ws", wsHandlers.HandleWebSocket)
}

func methodOnly(method string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != method {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		next(w, r)
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
