package legacy

import (
	"context"
	"crypto/subtle"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/unowned-ai/memorynet/pkg/brain"
	"github.com/unowned-ai/memorynet/pkg/memories"
)

// Store is what the Gate needs from storage.
type Store interface {
	GetPortalByToken(ctx context.Context, token string) (Portal, error)
	ListSharedMemories(ctx context.Context, ownerID uuid.UUID) ([]memories.Memory, error)
}

// SQLStore reads portals and shared memories from the SQLite database.
type SQLStore struct {
	DB *sql.DB
}

func (s SQLStore) GetPortalByToken(ctx context.Context, token string) (Portal, error) {
	return GetPortalByToken(ctx, s.DB, token)
}

func (s SQLStore) ListSharedMemories(ctx context.Context, ownerID uuid.UUID) ([]memories.Memory, error) {
	return memories.ListSharedMemories(ctx, s.DB, ownerID)
}

// Gate answers heirs who present a portal token. A token is a capability:
// there is no session, expiry or rate limit.
type Gate struct {
	store  Store
	brain  *brain.Synthesizer
	loc    *time.Location
	logger *zap.Logger
}

// NewGate builds a Gate. A nil synthesizer gets the default rules, a nil loc
// means time.Local and a nil logger discards output.
func NewGate(store Store, synth *brain.Synthesizer, loc *time.Location, logger *zap.Logger) *Gate {
	if synth == nil {
		synth = brain.NewSynthesizer(brain.DefaultMaxCitations, loc)
	}
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gate{store: store, brain: synth, loc: loc, logger: logger}
}

// ResolvePortal returns the active portal whose token equals token exactly.
func (g *Gate) ResolvePortal(ctx context.Context, token string) (Portal, error) {
	if token == "" {
		return Portal{}, ErrNotFound
	}

	portal, err := g.store.GetPortalByToken(ctx, token)
	if err != nil {
		g.logger.Debug("portal lookup failed", zap.Error(err))
		return Portal{}, err
	}
	if subtle.ConstantTimeCompare([]byte(portal.Token), []byte(token)) != 1 {
		return Portal{}, ErrNotFound
	}
	if !portal.Active {
		g.logger.Debug("inactive portal presented", zap.Stringer("portal_id", portal.ID))
		return Portal{}, ErrInactive
	}

	g.logger.Debug("portal resolved", zap.Stringer("portal_id", portal.ID), zap.Stringer("owner_id", portal.OwnerID))
	return portal, nil
}

// SharedMemories resolves token and returns the owner's legacy-shared
// memories, newest first.
func (g *Gate) SharedMemories(ctx context.Context, token string) (Portal, []memories.Memory, error) {
	portal, err := g.ResolvePortal(ctx, token)
	if err != nil {
		return Portal{}, nil, err
	}

	records, err := g.store.ListSharedMemories(ctx, portal.OwnerID)
	if err != nil {
		return Portal{}, nil, err
	}

	shared := make([]memories.Memory, 0, len(records))
	for _, record := range records {
		if record.OwnerID == portal.OwnerID && record.Shared() && !record.Deleted {
			shared = append(shared, record)
		}
	}
	return portal, shared, nil
}

// ListSharedMemories runs the owner's shared memories through the same
// search and date grouping the owner sees.
func (g *Gate) ListSharedMemories(ctx context.Context, token string, filter memories.Filter) (memories.Timeline, error) {
	if err := filter.Validate(); err != nil {
		return memories.Timeline{}, err
	}

	_, shared, err := g.SharedMemories(ctx, token)
	if err != nil {
		return memories.Timeline{}, err
	}
	return memories.Query(shared, filter, g.loc)
}

// Ask answers question from the owner's shared memories only.
func (g *Gate) Ask(ctx context.Context, token, question string) (brain.Reply, error) {
	_, shared, err := g.SharedMemories(ctx, token)
	if err != nil {
		return brain.Reply{}, err
	}
	return g.brain.Respond(question, shared)
}
