package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Ramim1310/chat/internal/domain"
)

type FriendRequestRepo struct {
	db *sql.DB
}

func NewFriendRequestRepo(db *sql.DB) *FriendRequestRepo {
	return &FriendRequestRepo{db: db}
}

var _ domain.FriendRequestRepository = (*FriendRequestRepo)(nil)

func (r *FriendRequestRepo) Create(ctx context.Context, fr *domain.FriendRequest) error {
	query := `
		INSERT INTO friend_requests (sender_id, receiver_id, status, created_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
	`
	res, err := r.db.ExecContext(ctx, query, fr.SenderID, fr.ReceiverID, fr.Status)
	if err != nil {
		return fmt.Errorf("insert friend request: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	fr.ID = id
	return nil
}

func (r *FriendRequestRepo) GetByID(ctx context.Context, id int64) (*domain.FriendRequest, error) {
	query := `
		SELECT id, sender_id, receiver_id, status, created_at
		FROM friend_requests
		WHERE id = ?
	`
	return r.scanRequest(r.db.QueryRowContext(ctx, query, id))
}

func (r *FriendRequestRepo) FindBetween(ctx context.Context, userA, userB int64) (*domain.FriendRequest, error) {
	query := `
		SELECT id, sender_id, receiver_id, status, created_at
		FROM friend_requests
		WHERE (sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)
		ORDER BY created_at DESC
		LIMIT 1
	`
	return r.scanRequest(r.db.QueryRowContext(ctx, query, userA, userB, userB, userA))
}

func (r *FriendRequestRepo) ListPendingForReceiver(ctx context.Context, receiverID int64) ([]*domain.FriendRequest, error) {
	query := `
		SELECT fr.id, fr.sender_id, fr.receiver_id, fr.status, fr.created_at,
		       u.id, u.name, u.email, u.image, u.last_seen
		FROM friend_requests fr
		JOIN users u ON u.id = fr.sender_id
		WHERE fr.receiver_id = ? AND fr.status = ?
		ORDER BY fr.created_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query, receiverID, domain.RequestStatusPending)
	if err != nil {
		return nil, fmt.Errorf("list pending requests: %w", err)
	}
	defer rows.Close()

	var res []*domain.FriendRequest
	for rows.Next() {
		fr := &domain.FriendRequest{Sender: &domain.User{}}
		if err := rows.Scan(
			&fr.ID,
			&fr.SenderID,
			&fr.ReceiverID,
			&fr.Status,
			&fr.CreatedAt,
			&fr.Sender.ID,
			&fr.Sender.Name,
			&fr.Sender.Email,
			&fr.Sender.Image,
			&fr.Sender.LastSeen,
		); err != nil {
			return nil, fmt.Errorf("scan friend request: %w", err)
		}
		res = append(res, fr)
	}
	return res, rows.Err()
}

// Accept flips the request to accepted and inserts the friendship edge both
// ways, all in one transaction so a half-applied accept can never be
// observed. Only a pending request may be accepted; accepted and rejected
// are terminal.
func (r *FriendRequestRepo) Accept(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin accept tx: %w", err)
	}
	defer tx.Rollback()

	var senderID, receiverID int64
	var status string
	err = tx.QueryRowContext(ctx, `SELECT sender_id, receiver_id, status FROM friend_requests WHERE id = ?`, id).
		Scan(&senderID, &receiverID, &status)
	if err == sql.ErrNoRows {
		return domain.ErrRequestNotFound
	}
	if err != nil {
		return fmt.Errorf("load request: %w", err)
	}
	if status != domain.RequestStatusPending {
		return domain.ErrRequestTerminal
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE friend_requests SET status = ? WHERE id = ?`,
		domain.RequestStatusAccepted, id,
	); err != nil {
		return fmt.Errorf("update request status: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO friends (user_id, friend_id) VALUES (?, ?), (?, ?)`,
		senderID, receiverID, receiverID, senderID,
	); err != nil {
		return fmt.Errorf("insert friendship: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit accept tx: %w", err)
	}
	return nil
}

// Reject flips a pending request to rejected. Accepted and rejected are
// terminal, so the update is guarded on the current status.
func (r *FriendRequestRepo) Reject(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE friend_requests SET status = ? WHERE id = ? AND status = ?`,
		domain.RequestStatusRejected, id, domain.RequestStatusPending,
	)
	if err != nil {
		return fmt.Errorf("reject request: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		fr, err := r.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if fr == nil {
			return domain.ErrRequestNotFound
		}
		return domain.ErrRequestTerminal
	}
	return nil
}

func (r *FriendRequestRepo) scanRequest(row *sql.Row) (*domain.FriendRequest, error) {
	fr := &domain.FriendRequest{}
	err := row.Scan(&fr.ID, &fr.SenderID, &fr.ReceiverID, &fr.Status, &fr.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan friend request: %w", err)
	}
	return fr, nil
}
