package legacy

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lithammer/shortuuid/v4"

	"github.com/unowned-ai/memorynet/pkg/memories"
)

var (
	ErrNotFound = errors.New("legacy portal not found")
	// ErrInactive wraps ErrNotFound so callers that do not care about the
	// difference can test for ErrNotFound alone.
	ErrInactive = fmt.Errorf("portal inactive: %w", ErrNotFound)
)

// Portal is the shareable memorial page of one owner. Token is the only
// credential an heir needs.
type Portal struct {
	ID            uuid.UUID `json:"id"`
	OwnerID       uuid.UUID `json:"owner_id"`
	Token         string    `json:"token"`
	MemorialName  string    `json:"memorial_name"`
	MemorialQuote string    `json:"memorial_quote"`
	Active        bool      `json:"active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

const portalColumns = `id, owner_id, token, memorial_name, memorial_quote, active, created_at, updated_at`

const (
	createPortalStatement = `
	INSERT INTO legacy_portals (id, owner_id, token, memorial_name, memorial_quote, active, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, TRUE, ?, ?)
	`

	deactivatePortalsStatement = `
	UPDATE legacy_portals
	SET active = FALSE, updated_at = ?
	WHERE owner_id = ? AND active = TRUE
	`

	getPortalStatement = `
	SELECT ` + portalColumns + `
	FROM legacy_portals
	WHERE id = ?
	`

	getPortalByTokenStatement = `
	SELECT ` + portalColumns + `
	FROM legacy_portals
	WHERE token = ?
	`

	getActivePortalStatement = `
	SELECT ` + portalColumns + `
	FROM legacy_portals
	WHERE owner_id = ? AND active = TRUE
	ORDER BY created_at DESC
	LIMIT 1
	`
)

// CreatePortal opens a new portal for ownerID with a fresh token. Any portal
// the owner already had is deactivated in the same transaction, so an owner
// has at most one active portal. A blank memorialName falls back to the
// owner's name.
func CreatePortal(ctx context.Context, db *sql.DB, ownerID uuid.UUID, memorialName, memorialQuote string) (Portal, error) {
	owner, err := memories.GetUser(ctx, db, ownerID)
	if err != nil {
		return Portal{}, err
	}

	memorialName = strings.TrimSpace(memorialName)
	if memorialName == "" {
		memorialName = owner.Name
	}

	portalID := uuid.New()
	now := time.Now().UnixMilli()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return Portal{}, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, deactivatePortalsStatement, now, ownerID); err != nil {
		return Portal{}, fmt.Errorf("failed to deactivate previous portal: %w", err)
	}

	_, err = tx.ExecContext(ctx, createPortalStatement,
		portalID, ownerID, shortuuid.New(), memorialName, strings.TrimSpace(memorialQuote), now, now)
	if err != nil {
		return Portal{}, fmt.Errorf("failed to create portal: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return Portal{}, err
	}

	return scanPortal(db.QueryRowContext(ctx, getPortalStatement, portalID))
}

// GetPortalByToken looks a portal up by exact token, active or not.
func GetPortalByToken(ctx context.Context, db *sql.DB, token string) (Portal, error) {
	if token == "" {
		return Portal{}, ErrNotFound
	}
	return scanPortal(db.QueryRowContext(ctx, getPortalByTokenStatement, token))
}

// GetActivePortal returns the owner's active portal.
func GetActivePortal(ctx context.Context, db *sql.DB, ownerID uuid.UUID) (Portal, error) {
	return scanPortal(db.QueryRowContext(ctx, getActivePortalStatement, ownerID))
}

// DeactivatePortal switches off the owner's active portal. Its token stops
// resolving immediately.
func DeactivatePortal(ctx context.Context, db *sql.DB, ownerID uuid.UUID) error {
	res, err := db.ExecContext(ctx, deactivatePortalsStatement, time.Now().UnixMilli(), ownerID)
	if err != nil {
		return err
	}
	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func scanPortal(row *sql.Row) (Portal, error) {
	var (
		portal               Portal
		createdAt, updatedAt int64
	)
	err := row.Scan(
		&portal.ID,
		&portal.OwnerID,
		&portal.Token,
		&portal.MemorialName,
		&portal.MemorialQuote,
		&portal.Active,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Portal{}, ErrNotFound
		}
		return Portal{}, fmt.Errorf("failed to scan portal: %w", err)
	}
	portal.CreatedAt = time.UnixMilli(createdAt)
	portal.UpdatedAt = time.UnixMilli(updatedAt)
	return portal, nil
}
