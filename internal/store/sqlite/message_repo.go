package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Ramim1310/chat/internal/domain"
)

type MessageRepo struct {
	db *sql.DB
}

func NewMessageRepo(db *sql.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

var _ domain.MessageRepository = (*MessageRepo)(nil)

func (r *MessageRepo) Create(ctx context.Context, m *domain.Message) error {
	query := `
		INSERT INTO messages (room, sender_id, content, status, created_at)
		VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
	`
	res, err := r.db.ExecContext(ctx, query, m.Room, m.SenderID, m.Content, m.Status)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	m.ID = id
	if m.Timestamp.IsZero() {
		if err := r.db.QueryRowContext(ctx, `SELECT created_at FROM messages WHERE id = ?`, id).Scan(&m.Timestamp); err != nil {
			return fmt.Errorf("read created_at: %w", err)
		}
	}
	return nil
}

// ListForRoom returns all messages in the room ordered ascending by
// timestamp, each with its sender snapshot attached.
func (r *MessageRepo) ListForRoom(ctx context.Context, room string) ([]*domain.Message, error) {
	query := `
		SELECT m.id, m.room, m.sender_id, m.content, m.status, m.created_at, m.seen_at,
		       u.id, u.name, u.email, u.image, u.last_seen
		FROM messages m
		JOIN users u ON u.id = m.sender_id
		WHERE m.room = ?
		ORDER BY m.created_at ASC, m.id ASC
	`
	rows, err := r.db.QueryContext(ctx, query, room)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var res []*domain.Message
	for rows.Next() {
		m := &domain.Message{Sender: &domain.User{}}
		if err := rows.Scan(
			&m.ID,
			&m.Room,
			&m.SenderID,
			&m.Content,
			&m.Status,
			&m.Timestamp,
			&m.SeenAt,
			&m.Sender.ID,
			&m.Sender.Name,
			&m.Sender.Email,
			&m.Sender.Image,
			&m.Sender.LastSeen,
		); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		res = append(res, m)
	}
	return res, rows.Err()
}

// MarkSeen advances every message in the room that was sent by someone else
// and is not yet seen. Already-seen rows are untouched, which keeps the
// operation idempotent and the status monotonic.
func (r *MessageRepo) MarkSeen(ctx context.Context, room string, readerID int64, at time.Time) (int64, error) {
	query := `
		UPDATE messages
		SET status = ?, seen_at = ?
		WHERE room = ? AND sender_id != ? AND status != ?
	`
	res, err := r.db.ExecContext(ctx, query, domain.MessageStatusSeen, at, room, readerID, domain.MessageStatusSeen)
	if err != nil {
		return 0, fmt.Errorf("mark seen: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}
