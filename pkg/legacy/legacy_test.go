package legacy

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/unowned-ai/memorynet/pkg/brain"
	"github.com/unowned-ai/memorynet/pkg/db"
	"github.com/unowned-ai/memorynet/pkg/memories"
)

func setupTestDB(t *testing.T) (*sql.DB, memories.User) {
	t.Helper()

	testDB, err := db.OpenDBConnection(":memory:", false, "NORMAL")
	require.NoError(t, err)
	require.NoError(t, db.InitializeSchema(testDB, db.TargetSchemaVersion))
	t.Cleanup(func() { testDB.Close() })

	user, err := memories.CreateUser(context.Background(), testDB, "Alex Thompson", "alex@memorynet.test")
	require.NoError(t, err)
	return testDB, user
}

func seedShared(t *testing.T, ctx context.Context, testDB *sql.DB, ownerID uuid.UUID) {
	t.Helper()

	jan := func(d int) time.Time { return time.Date(2025, time.January, d, 12, 0, 0, 0, time.UTC) }

	fear, err := memories.CreateMemory(ctx, testDB, ownerID, memories.NewMemory{
		Title: "Lessons from Father", Content: "courage isn't the absence of fear",
		Kind: memories.KindReflection, Tags: []string{"family", "courage"}, CreatedAt: jan(15),
	})
	require.NoError(t, err)
	_, err = memories.ShareMemory(ctx, testDB, fear.ID)
	require.NoError(t, err)

	work, err := memories.CreateMemory(ctx, testDB, ownerID, memories.NewMemory{
		Title: "Work and Purpose", Content: "what work means to me",
		Tags: []string{"work"}, CreatedAt: jan(8),
	})
	require.NoError(t, err)
	_, err = memories.ShareMemory(ctx, testDB, work.ID)
	require.NoError(t, err)

	_, err = memories.CreateMemory(ctx, testDB, ownerID, memories.NewMemory{
		Title: "Private fear", Content: "not for anyone else", Tags: []string{"fear"}, CreatedAt: jan(14),
	})
	require.NoError(t, err)

	gone, err := memories.CreateMemory(ctx, testDB, ownerID, memories.NewMemory{
		Title: "Deleted fear", Tags: []string{"fear"}, CreatedAt: jan(13),
	})
	require.NoError(t, err)
	_, err = memories.ShareMemory(ctx, testDB, gone.ID)
	require.NoError(t, err)
	require.NoError(t, memories.DeleteMemory(ctx, testDB, gone.ID))
}

func titles(records []memories.Memory) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.Title)
	}
	return out
}

func TestCreatePortal(t *testing.T) {
	testDB, user := setupTestDB(t)
	ctx := context.Background()

	first, err := CreatePortal(ctx, testDB, user.ID, "", "  Courage is feeling fear and acting anyway. ")
	require.NoError(t, err)
	assert.True(t, first.Active)
	assert.NotEmpty(t, first.Token)
	assert.Equal(t, "Alex Thompson", first.MemorialName)
	assert.Equal(t, "Courage is feeling fear and acting anyway.", first.MemorialQuote)

	second, err := CreatePortal(ctx, testDB, user.ID, "In Memory of Alex", "")
	require.NoError(t, err)
	assert.NotEqual(t, first.Token, second.Token)

	old, err := GetPortalByToken(ctx, testDB, first.Token)
	require.NoError(t, err)
	assert.False(t, old.Active, "creating a portal deactivates the previous one")

	active, err := GetActivePortal(ctx, testDB, user.ID)
	require.NoError(t, err)
	assert.Equal(t, second.ID, active.ID)

	_, err = CreatePortal(ctx, testDB, uuid.New(), "x", "")
	assert.ErrorIs(t, err, memories.ErrUserNotFound)
}

func TestDeactivatePortal(t *testing.T) {
	testDB, user := setupTestDB(t)
	ctx := context.Background()

	assert.ErrorIs(t, DeactivatePortal(ctx, testDB, user.ID), ErrNotFound)

	_, err := CreatePortal(ctx, testDB, user.ID, "", "")
	require.NoError(t, err)
	require.NoError(t, DeactivatePortal(ctx, testDB, user.ID))

	_, err = GetActivePortal(ctx, testDB, user.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetPortalByToken_Unknown(t *testing.T) {
	testDB, _ := setupTestDB(t)

	_, err := GetPortalByToken(context.Background(), testDB, "nope")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = GetPortalByToken(context.Background(), testDB, "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGate_ResolvePortal(t *testing.T) {
	testDB, user := setupTestDB(t)
	ctx := context.Background()
	gate := NewGate(SQLStore{DB: testDB}, nil, time.UTC, zap.NewNop())

	portal, err := CreatePortal(ctx, testDB, user.ID, "", "")
	require.NoError(t, err)

	resolved, err := gate.ResolvePortal(ctx, portal.Token)
	require.NoError(t, err)
	assert.Equal(t, portal.ID, resolved.ID)

	for _, token := range []string{"", "unknown", portal.Token[:len(portal.Token)-1], portal.Token + "x"} {
		_, err := gate.ResolvePortal(ctx, token)
		assert.ErrorIs(t, err, ErrNotFound, "token %q", token)
	}

	require.NoError(t, DeactivatePortal(ctx, testDB, user.ID))
	_, err = gate.ResolvePortal(ctx, portal.Token)
	assert.ErrorIs(t, err, ErrInactive)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGate_ListSharedMemories(t *testing.T) {
	testDB, user := setupTestDB(t)
	ctx := context.Background()
	seedShared(t, ctx, testDB, user.ID)
	gate := NewGate(SQLStore{DB: testDB}, nil, time.UTC, nil)

	portal, err := CreatePortal(ctx, testDB, user.ID, "", "")
	require.NoError(t, err)

	timeline, err := gate.ListSharedMemories(ctx, portal.Token, memories.Filter{})
	require.NoError(t, err)
	require.Len(t, timeline.Groups, 2)
	assert.Equal(t, "January 15, 2025", timeline.Groups[0].Label)
	assert.Equal(t, "January 8, 2025", timeline.Groups[1].Label)
	assert.Equal(t, []string{"Lessons from Father", "Work and Purpose"}, titles(timeline.Flatten()))

	timeline, err = gate.ListSharedMemories(ctx, portal.Token, memories.Filter{SearchText: "fear"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Lessons from Father"}, titles(timeline.Flatten()))

	timeline, err = gate.ListSharedMemories(ctx, portal.Token, memories.Filter{Tags: []string{"work"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"Work and Purpose"}, titles(timeline.Flatten()))

	_, err = gate.ListSharedMemories(ctx, "wrong", memories.Filter{})
	assert.ErrorIs(t, err, ErrNotFound)
}

type leakyStore struct {
	portal  Portal
	records []memories.Memory
}

func (s leakyStore) GetPortalByToken(_ context.Context, token string) (Portal, error) {
	if token != s.portal.Token {
		return Portal{}, ErrNotFound
	}
	return s.portal, nil
}

func (s leakyStore) ListSharedMemories(context.Context, uuid.UUID) ([]memories.Memory, error) {
	return s.records, nil
}

func TestGate_RefiltersStoreResults(t *testing.T) {
	owner := uuid.New()
	store := leakyStore{
		portal: Portal{ID: uuid.New(), OwnerID: owner, Token: "tok", Active: true},
		records: []memories.Memory{
			{Title: "shared", OwnerID: owner, Visibility: memories.VisibilityLegacyShared},
			{Title: "private", OwnerID: owner, Visibility: memories.VisibilityPrivate},
			{Title: "someone else", OwnerID: uuid.New(), Visibility: memories.VisibilityLegacyShared},
			{Title: "deleted", OwnerID: owner, Visibility: memories.VisibilityLegacyShared, Deleted: true},
		},
	}
	gate := NewGate(store, nil, time.UTC, nil)

	_, shared, err := gate.SharedMemories(context.Background(), "tok")
	require.NoError(t, err)
	assert.Equal(t, []string{"shared"}, titles(shared))
}

func TestGate_Ask(t *testing.T) {
	testDB, user := setupTestDB(t)
	ctx := context.Background()
	seedShared(t, ctx, testDB, user.ID)
	gate := NewGate(SQLStore{DB: testDB}, brain.NewSynthesizer(3, time.UTC), time.UTC, nil)

	portal, err := CreatePortal(ctx, testDB, user.ID, "", "")
	require.NoError(t, err)

	reply, err := gate.Ask(ctx, portal.Token, "What did they believe about fear?")
	require.NoError(t, err)
	assert.Equal(t, brain.BucketFearAndCourage, reply.Bucket)
	require.Len(t, reply.Citations, 1, "private and deleted records are never cited")
	assert.Equal(t, "Lessons from Father", reply.Citations[0].Title)

	_, err = gate.Ask(ctx, "wrong", "fear")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestHeirs(t *testing.T) {
	testDB, user := setupTestDB(t)
	ctx := context.Background()

	heir, err := AddHeir(ctx, testDB, user.ID, " sarah@example.com ")
	require.NoError(t, err)
	assert.Equal(t, "sarah@example.com", heir.Email)

	again, err := AddHeir(ctx, testDB, user.ID, "sarah@example.com")
	require.NoError(t, err)
	assert.Equal(t, heir.ID, again.ID)

	_, err = AddHeir(ctx, testDB, user.ID, "michael@example.com")
	require.NoError(t, err)

	_, err = AddHeir(ctx, testDB, user.ID, "not an email")
	assert.ErrorIs(t, err, memories.ErrInvalidInput)

	heirs, err := ListHeirs(ctx, testDB, user.ID)
	require.NoError(t, err)
	assert.Len(t, heirs, 2)

	require.NoError(t, RemoveHeir(ctx, testDB, user.ID, "sarah@example.com"))
	assert.ErrorIs(t, RemoveHeir(ctx, testDB, user.ID, "sarah@example.com"), ErrHeirNotFound)

	heirs, err = ListHeirs(ctx, testDB, user.ID)
	require.NoError(t, err)
	require.Len(t, heirs, 1)
	assert.Equal(t, "michael@example.com", heirs[0].Email)
}
