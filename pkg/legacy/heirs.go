package legacy

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/unowned-ai/memorynet/pkg/memories"
)

var (
	ErrHeirNotFound = errors.New("heir not found")
)

// Heir is someone the owner intends to hand the portal link to.
type Heir struct {
	ID        uuid.UUID `json:"id"`
	OwnerID   uuid.UUID `json:"owner_id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

const (
	addHeirStatement = `
	INSERT INTO heirs (id, owner_id, email, created_at)
	VALUES (?, ?, ?, ?)
	ON CONFLICT(owner_id, email) DO NOTHING
	`

	getHeirStatement = `
	SELECT id, owner_id, email, created_at
	FROM heirs
	WHERE owner_id = ? AND email = ?
	`

	listHeirsStatement = `
	SELECT id, owner_id, email, created_at
	FROM heirs
	WHERE owner_id = ?
	ORDER BY created_at ASC, email ASC
	`

	removeHeirStatement = `
	DELETE FROM heirs WHERE owner_id = ? AND email = ?
	`
)

// AddHeir records email as an heir of ownerID. Adding the same address twice
// returns the existing heir.
func AddHeir(ctx context.Context, db *sql.DB, ownerID uuid.UUID, email string) (Heir, error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(email))
	if err != nil {
		return Heir{}, fmt.Errorf("%w: invalid heir email %q", memories.ErrInvalidInput, email)
	}
	if _, err := memories.GetUser(ctx, db, ownerID); err != nil {
		return Heir{}, err
	}

	_, err = db.ExecContext(ctx, addHeirStatement, uuid.New(), ownerID, addr.Address, time.Now().UnixMilli())
	if err != nil {
		return Heir{}, fmt.Errorf("failed to add heir: %w", err)
	}

	return scanHeir(db.QueryRowContext(ctx, getHeirStatement, ownerID, addr.Address))
}

func ListHeirs(ctx context.Context, db *sql.DB, ownerID uuid.UUID) ([]Heir, error) {
	rows, err := db.QueryContext(ctx, listHeirsStatement, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list heirs: %w", err)
	}
	defer rows.Close()

	heirs := []Heir{}
	for rows.Next() {
		heir, err := scanHeir(rows)
		if err != nil {
			return nil, err
		}
		heirs = append(heirs, heir)
	}
	return heirs, rows.Err()
}

func RemoveHeir(ctx context.Context, db *sql.DB, ownerID uuid.UUID, email string) error {
	res, err := db.ExecContext(ctx, removeHeirStatement, ownerID, strings.TrimSpace(email))
	if err != nil {
		return err
	}
	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrHeirNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanHeir(row scanner) (Heir, error) {
	var (
		heir      Heir
		createdAt int64
	)
	if err := row.Scan(&heir.ID, &heir.OwnerID, &heir.Email, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Heir{}, ErrHeirNotFound
		}
		return Heir{}, fmt.Errorf("failed to scan heir: %w", err)
	}
	heir.CreatedAt = time.UnixMilli(createdAt)
	return heir, nil
}
