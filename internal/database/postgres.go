package database

import (
	"context"
	"fmt"

	"support-chat/internal/models"
	"support-chat/pkg/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres opens a connection pool. A failed ping is logged but not
// fatal: the server starts degraded and every data-dependent operation
// reports an unavailable error until connectivity is restored.
func NewPostgres(databaseURL string) (*Postgres, error) {
	pool, err := pgxpool.New(context.Background(), databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(context.Background()); err != nil {
		logger.Error("Database unreachable at startup, continuing degraded: %v", err)
	} else {
		logger.Info("Connected to database successfully")
	}

	return &Postgres{pool: pool}, nil
}

func (db *Postgres) Close() error {
	db.pool.Close()
	return nil
}

// User store implementation

func (db *Postgres) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `SELECT id, username, password, name, COALESCE(phone, ''), role, created_at FROM users WHERE username = $1`

	user := &models.User{}
	err := db.pool.QueryRow(ctx, query, username).Scan(
		&user.ID, &user.Username, &user.PasswordHash, &user.Name, &user.Phone, &user.Role, &user.CreatedAt,
	)
	if err != nil {
		return nil, wrapErr("GetUserByUsername", err)
	}

	return user, nil
}

func (db *Postgres) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	query := `SELECT id, username, name, COALESCE(phone, ''), role, created_at FROM users WHERE id = $1`

	user := &models.User{}
	err := db.pool.QueryRow(ctx, query, id).Scan(
		&user.ID, &user.Username, &user.Name, &user.Phone, &user.Role, &user.CreatedAt,
	)
	if err != nil {
		return nil, wrapErr("GetUserByID", err)
	}

	return user, nil
}

func (db *Postgres) GetFirstAdmin(ctx context.Context) (*models.User, error) {
	query := `
		SELECT id, username, name, COALESCE(phone, ''), role, created_at
		FROM users
		WHERE role = 'admin'
		ORDER BY id
		LIMIT 1`

	user := &models.User{}
	err := db.pool.QueryRow(ctx, query).Scan(
		&user.ID, &user.Username, &user.Name, &user.Phone, &user.Role, &user.CreatedAt,
	)
	if err != nil {
		return nil, wrapErr("GetFirstAdmin", err)
	}

	return user, nil
}

func (db *Postgres) CreateUser(ctx context.Context, username, passwordHash, name, phone, role string) (*models.User, error) {
	query := `
		INSERT INTO users (username, password, name, phone, role, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		RETURNING id, username, name, phone, role, created_at`

	user := &models.User{PasswordHash: passwordHash}
	err := db.pool.QueryRow(ctx, query, username, passwordHash, name, phone, role).Scan(
		&user.ID, &user.Username, &user.Name, &user.Phone, &user.Role, &user.CreatedAt,
	)
	if err != nil {
		return nil, wrapErr("CreateUser", err)
	}

	return user, nil
}

// Chatroom store implementation

func (db *Postgres) GetRoomForGuest(ctx context.Context, guestID int64) (*models.Chatroom, error) {
	query := `
		SELECT c.id, c.name, c.admin_id, c.guest_id, c.created_at, c.updated_at, u.name AS admin_name
		FROM chatrooms c
		JOIN users u ON c.admin_id = u.id
		WHERE c.guest_id = $1`

	room := &models.Chatroom{}
	err := db.pool.QueryRow(ctx, query, guestID).Scan(
		&room.ID, &room.Name, &room.AdminID, &room.GuestID, &room.CreatedAt, &room.UpdatedAt, &room.AdminName,
	)
	if err != nil {
		return nil, wrapErr("GetRoomForGuest", err)
	}

	return room, nil
}

func (db *Postgres) GetRoomByID(ctx context.Context, id int64) (*models.Chatroom, error) {
	query := `SELECT id, name, admin_id, guest_id, created_at, updated_at FROM chatrooms WHERE id = $1`

	room := &models.Chatroom{}
	err := db.pool.QueryRow(ctx, query, id).Scan(
		&room.ID, &room.Name, &room.AdminID, &room.GuestID, &room.CreatedAt, &room.UpdatedAt,
	)
	if err != nil {
		return nil, wrapErr("GetRoomByID", err)
	}

	return room, nil
}

func (db *Postgres) CreateRoom(ctx context.Context, adminID, guestID int64, name string) (*models.Chatroom, error) {
	query := `
		INSERT INTO chatrooms (name, admin_id, guest_id, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		RETURNING id, name, admin_id, guest_id, created_at, updated_at`

	room := &models.Chatroom{}
	err := db.pool.QueryRow(ctx, query, name, adminID, guestID).Scan(
		&room.ID, &room.Name, &room.AdminID, &room.GuestID, &room.CreatedAt, &room.UpdatedAt,
	)
	if err != nil {
		return nil, wrapErr("CreateRoom", err)
	}

	return room, nil
}

func (db *Postgres) TouchRoom(ctx context.Context, roomID int64) error {
	query := `UPDATE chatrooms SET updated_at = CURRENT_TIMESTAMP WHERE id = $1`
	if _, err := db.pool.Exec(ctx, query, roomID); err != nil {
		return wrapErr("TouchRoom", err)
	}
	return nil
}

func (db *Postgres) ListRoomsForAdmin(ctx context.Context, adminID int64) ([]*models.Chatroom, error) {
	query := `
		SELECT c.id, c.name, c.admin_id, c.guest_id, c.created_at, c.updated_at,
		       COALESCE(u.name, '') AS guest_name, COALESCE(u.username, '') AS guest_username
		FROM chatrooms c
		LEFT JOIN users u ON c.guest_id = u.id
		WHERE c.admin_id = $1
		ORDER BY c.updated_at DESC`

	rows, err := db.pool.Query(ctx, query, adminID)
	if err != nil {
		return nil, wrapErr("ListRoomsForAdmin", err)
	}
	defer rows.Close()

	var rooms []*models.Chatroom
	for rows.Next() {
		room := &models.Chatroom{}
		if err := rows.Scan(
			&room.ID, &room.Name, &room.AdminID, &room.GuestID, &room.CreatedAt, &room.UpdatedAt,
			&room.GuestName, &room.GuestUsername,
		); err != nil {
			return nil, wrapErr("ListRoomsForAdmin", err)
		}
		rooms = append(rooms, room)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("ListRoomsForAdmin", err)
	}

	return rooms, nil
}

// Message store implementation

func (db *Postgres) InsertMessage(ctx context.Context, roomID, senderID int64, body string) (int64, error) {
	query := `
		INSERT INTO messages (chatroom_id, sender_id, message, created_at)
		VALUES ($1, $2, $3, NOW())
		RETURNING id`

	var id int64
	if err := db.pool.QueryRow(ctx, query, roomID, senderID, body).Scan(&id); err != nil {
		return 0, wrapErr("InsertMessage", err)
	}

	return id, nil
}

func (db *Postgres) GetMessageWithSender(ctx context.Context, id int64) (*models.ChatMessage, error) {
	query := `
		SELECT m.id, m.chatroom_id, m.sender_id, m.message, m.created_at,
		       u.name AS sender_name, u.role AS sender_role
		FROM messages m
		JOIN users u ON m.sender_id = u.id
		WHERE m.id = $1`

	msg := &models.ChatMessage{}
	err := db.pool.QueryRow(ctx, query, id).Scan(
		&msg.ID, &msg.ChatroomID, &msg.SenderID, &msg.Body, &msg.CreatedAt,
		&msg.SenderName, &msg.SenderRole,
	)
	if err != nil {
		return nil, wrapErr("GetMessageWithSender", err)
	}

	return msg, nil
}

func (db *Postgres) ListMessages(ctx context.Context, roomID int64) ([]*models.ChatMessage, error) {
	query := `
		SELECT m.id, m.chatroom_id, m.sender_id, m.message, m.created_at,
		       u.name AS sender_name, u.role AS sender_role
		FROM messages m
		JOIN users u ON m.sender_id = u.id
		WHERE m.chatroom_id = $1
		ORDER BY m.created_at ASC, m.id ASC`

	rows, err := db.pool.Query(ctx, query, roomID)
	if err != nil {
		return nil, wrapErr("ListMessages", err)
	}
	defer rows.Close()

	var messages []*models.ChatMessage
	for rows.Next() {
		msg := &models.ChatMessage{}
		if err := rows.Scan(
			&msg.ID, &msg.ChatroomID, &msg.SenderID, &msg.Body, &msg.CreatedAt,
			&msg.SenderName, &msg.SenderRole,
		); err != nil {
			return nil, wrapErr("ListMessages", err)
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("ListMessages", err)
	}

	return messages, nil
}
