// Package backend is the typed data-access boundary the CLI, MCP server,
// HTTP API and TUI talk to.
package backend

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/unowned-ai/memorynet/pkg/legacy"
	"github.com/unowned-ai/memorynet/pkg/memories"
)

type Backend interface {
	// CurrentUser returns nil, nil when no user is signed in.
	CurrentUser(ctx context.Context) (*memories.User, error)
	ListMemories(ctx context.Context, userID uuid.UUID) ([]memories.Memory, error)
	CreateMemory(ctx context.Context, userID uuid.UUID, in memories.NewMemory) (memories.Memory, error)
	UpdateMemory(ctx context.Context, id uuid.UUID, patch memories.Patch) (memories.Memory, error)
	DeleteMemory(ctx context.Context, id uuid.UUID) error
	GetPortalByToken(ctx context.Context, token string) (legacy.Portal, error)
	ListSharedMemories(ctx context.Context, token string) ([]memories.Memory, error)
}

// SQL is the Backend over a local SQLite database. The signed-in user is the
// one registered under Email.
type SQL struct {
	DB    *sql.DB
	Email string
}

var _ Backend = (*SQL)(nil)

func New(db *sql.DB, email string) *SQL {
	return &SQL{DB: db, Email: strings.TrimSpace(email)}
}

func (b *SQL) CurrentUser(ctx context.Context) (*memories.User, error) {
	if b.Email == "" {
		return nil, nil
	}
	user, err := memories.GetUserByEmail(ctx, b.DB, b.Email)
	if errors.Is(err, memories.ErrUserNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// RequireUser is CurrentUser for callers that cannot proceed anonymously.
func (b *SQL) RequireUser(ctx context.Context) (memories.User, error) {
	user, err := b.CurrentUser(ctx)
	if err != nil {
		return memories.User{}, err
	}
	if user == nil {
		if b.Email == "" {
			return memories.User{}, fmt.Errorf("%w: no user configured (set user.email)", memories.ErrUserNotFound)
		}
		return memories.User{}, fmt.Errorf("%w: %s", memories.ErrUserNotFound, b.Email)
	}
	return *user, nil
}

func (b *SQL) ListMemories(ctx context.Context, userID uuid.UUID) ([]memories.Memory, error) {
	return memories.ListMemories(ctx, b.DB, userID)
}

func (b *SQL) CreateMemory(ctx context.Context, userID uuid.UUID, in memories.NewMemory) (memories.Memory, error) {
	return memories.CreateMemory(ctx, b.DB, userID, in)
}

func (b *SQL) UpdateMemory(ctx context.Context, id uuid.UUID, patch memories.Patch) (memories.Memory, error) {
	return memories.UpdateMemory(ctx, b.DB, id, patch)
}

func (b *SQL) DeleteMemory(ctx context.Context, id uuid.UUID) error {
	return memories.DeleteMemory(ctx, b.DB, id)
}

func (b *SQL) GetPortalByToken(ctx context.Context, token string) (legacy.Portal, error) {
	return legacy.GetPortalByToken(ctx, b.DB, token)
}

// ListSharedMemories returns the legacy-shared memories behind token. Inactive
// and unknown tokens both fail with legacy.ErrNotFound.
func (b *SQL) ListSharedMemories(ctx context.Context, token string) ([]memories.Memory, error) {
	_, shared, err := legacy.NewGate(legacy.SQLStore{DB: b.DB}, nil, nil, nil).SharedMemories(ctx, token)
	return shared, err
}

// SetShared flips a memory between private and legacy-shared.
func (b *SQL) SetShared(ctx context.Context, id uuid.UUID, shared bool) (memories.Memory, error) {
	if shared {
		return memories.ShareMemory(ctx, b.DB, id)
	}
	return memories.UnshareMemory(ctx, b.DB, id)
}
