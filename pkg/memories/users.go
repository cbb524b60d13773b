package memories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrUserNotFound = errors.New("user not found")
)

const (
	createUserStatement = `
	INSERT INTO users (id, name, email, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?)
	`

	getUserStatement = `
	SELECT id, name, email, created_at, updated_at
	FROM users
	WHERE id = ?
	`

	getUserByEmailStatement = `
	SELECT id, name, email, created_at, updated_at
	FROM users
	WHERE email = ?
	`

	listUsersStatement = `
	SELECT id, name, email, created_at, updated_at
	FROM users
	ORDER BY created_at ASC
	`
)

// CreateUser registers a new memory owner. Email addresses are unique.
func CreateUser(ctx context.Context, db *sql.DB, name, email string) (User, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if email == "" {
		return User{}, fmt.Errorf("%w: email is required", ErrInvalidInput)
	}
	if name == "" {
		name = email
	}

	userID := uuid.New()
	now := time.Now().UnixMilli()

	_, err := db.ExecContext(ctx, createUserStatement, userID, name, email, now, now)
	if err != nil {
		return User{}, fmt.Errorf("failed to create user: %w", err)
	}

	return GetUser(ctx, db, userID)
}

func GetUser(ctx context.Context, db *sql.DB, id uuid.UUID) (User, error) {
	return scanUser(db.QueryRowContext(ctx, getUserStatement, id))
}

// GetUserByEmail resolves the owner configured as the current user.
func GetUserByEmail(ctx context.Context, db *sql.DB, email string) (User, error) {
	return scanUser(db.QueryRowContext(ctx, getUserByEmailStatement, strings.TrimSpace(email)))
}

func ListUsers(ctx context.Context, db *sql.DB) ([]User, error) {
	rows, err := db.QueryContext(ctx, listUsersStatement)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return users, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (User, error) {
	var (
		user                 User
		createdAt, updatedAt int64
	)

	err := row.Scan(&user.ID, &user.Name, &user.Email, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrUserNotFound
		}
		return User{}, err
	}

	user.CreatedAt = time.UnixMilli(createdAt)
	user.UpdatedAt = time.UnixMilli(updatedAt)
	return user, nil
}
