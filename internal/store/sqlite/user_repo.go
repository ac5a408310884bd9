package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Ramim1310/chat/internal/domain"
)

type UserRepo struct {
	db *sql.DB
}

func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{db: db}
}

var _ domain.UserRepository = (*UserRepo)(nil)

const userColumns = `id, name, email, hashed_password, image, created_at, last_seen`

func (r *UserRepo) Create(ctx context.Context, u *domain.User) error {
	query := `
		INSERT INTO users (name, email, hashed_password, image, created_at, last_seen)
		VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
	`
	res, err := r.db.ExecContext(ctx, query, u.Name, u.Email, u.HashedPassword, u.Image)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	u.ID = id
	return nil
}

func (r *UserRepo) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ?`
	return r.scanUser(ctx, query, id)
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = ?`
	return r.scanUser(ctx, query, email)
}

// GetWithFriends loads a user together with their friend list.
func (r *UserRepo) GetWithFriends(ctx context.Context, id int64) (*domain.User, error) {
	user, err := r.GetByID(ctx, id)
	if err != nil || user == nil {
		return user, err
	}

	query := `
		SELECT u.id, u.name, u.email, u.hashed_password, u.image, u.created_at, u.last_seen
		FROM users u
		JOIN friends f ON f.friend_id = u.id
		WHERE f.user_id = ?
		ORDER BY u.name ASC
	`
	rows, err := r.db.QueryContext(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("list friends: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		f := &domain.User{}
		if err := scanUserRow(rows, f); err != nil {
			return nil, err
		}
		user.Friends = append(user.Friends, f.Snapshot())
	}
	return user, rows.Err()
}

func (r *UserRepo) SearchByName(ctx context.Context, query string, excludeID int64) ([]*domain.User, error) {
	q := `
		SELECT ` + userColumns + `
		FROM users
		WHERE name LIKE '%' || ? || '%' COLLATE NOCASE AND id != ?
		ORDER BY name ASC
		LIMIT 50
	`
	rows, err := r.db.QueryContext(ctx, q, query, excludeID)
	if err != nil {
		return nil, fmt.Errorf("search users: %w", err)
	}
	defer rows.Close()

	var users []*domain.User
	for rows.Next() {
		u := &domain.User{}
		if err := scanUserRow(rows, u); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *UserRepo) TouchLastSeen(ctx context.Context, id int64) error {
	query := `UPDATE users SET last_seen = CURRENT_TIMESTAMP WHERE id = ?`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("touch last seen: %w", err)
	}
	return nil
}

func (r *UserRepo) scanUser(ctx context.Context, query string, arg any) (*domain.User, error) {
	u := &domain.User{}
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&u.ID,
		&u.Name,
		&u.Email,
		&u.HashedPassword,
		&u.Image,
		&u.CreatedAt,
		&u.LastSeen,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return u, nil
}

func scanUserRow(rows *sql.Rows, u *domain.User) error {
	if err := rows.Scan(
		&u.ID,
		&u.Name,
		&u.Email,
		&u.HashedPassword,
		&u.Image,
		&u.CreatedAt,
		&u.LastSeen,
	); err != nil {
		return fmt.Errorf("scan user: %w", err)
	}
	return nil
}
