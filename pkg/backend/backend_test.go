package backend

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/unowned-ai/memorynet/pkg/db"
	"github.com/unowned-ai/memorynet/pkg/legacy"
	"github.com/unowned-ai/memorynet/pkg/memories"
)

func setupBackend(t *testing.T, email string) *SQL {
	t.Helper()

	testDB, err := db.OpenAndUpgrade(":memory:", false, "NORMAL", zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { testDB.Close() })
	return New(testDB, email)
}

func TestCurrentUser(t *testing.T) {
	ctx := context.Background()

	anonymous := setupBackend(t, "")
	user, err := anonymous.CurrentUser(ctx)
	require.NoError(t, err)
	assert.Nil(t, user)
	_, err = anonymous.RequireUser(ctx)
	assert.ErrorIs(t, err, memories.ErrUserNotFound)

	b := setupBackend(t, "alex@memorynet.test")
	user, err = b.CurrentUser(ctx)
	require.NoError(t, err)
	assert.Nil(t, user, "configured but unregistered")

	created, err := memories.CreateUser(ctx, b.DB, "Alex", "alex@memorynet.test")
	require.NoError(t, err)

	user, err = b.CurrentUser(ctx)
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, created.ID, user.ID)
}

func TestMemoryLifecycle(t *testing.T) {
	ctx := context.Background()
	b := setupBackend(t, "alex@memorynet.test")
	user, err := memories.CreateUser(ctx, b.DB, "Alex", "alex@memorynet.test")
	require.NoError(t, err)

	var be Backend = b

	created, err := be.CreateMemory(ctx, user.ID, memories.NewMemory{Title: "first", Tags: []string{"family"}})
	require.NoError(t, err)

	title := "renamed"
	updated, err := be.UpdateMemory(ctx, created.ID, memories.Patch{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "renamed", updated.Title)
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)

	list, err := be.ListMemories(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)

	require.NoError(t, be.DeleteMemory(ctx, created.ID))
	list, err = be.ListMemories(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestPortalAccess(t *testing.T) {
	ctx := context.Background()
	b := setupBackend(t, "alex@memorynet.test")
	user, err := memories.CreateUser(ctx, b.DB, "Alex", "alex@memorynet.test")
	require.NoError(t, err)

	shared, err := b.CreateMemory(ctx, user.ID, memories.NewMemory{Title: "shared"})
	require.NoError(t, err)
	_, err = memories.ShareMemory(ctx, b.DB, shared.ID)
	require.NoError(t, err)
	_, err = b.CreateMemory(ctx, user.ID, memories.NewMemory{Title: "private"})
	require.NoError(t, err)

	portal, err := legacy.CreatePortal(ctx, b.DB, user.ID, "", "")
	require.NoError(t, err)

	got, err := b.GetPortalByToken(ctx, portal.Token)
	require.NoError(t, err)
	assert.Equal(t, portal.ID, got.ID)

	records, err := b.ListSharedMemories(ctx, portal.Token)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "shared", records[0].Title)

	require.NoError(t, legacy.DeactivatePortal(ctx, b.DB, user.ID))
	_, err = b.ListSharedMemories(ctx, portal.Token)
	assert.ErrorIs(t, err, legacy.ErrInactive)
}

func TestSetShared(t *testing.T) {
	ctx := context.Background()
	b := setupBackend(t, "alex@memorynet.test")
	user, err := memories.CreateUser(ctx, b.DB, "Alex", "alex@memorynet.test")
	require.NoError(t, err)

	m, err := b.CreateMemory(ctx, user.ID, memories.NewMemory{Title: "x"})
	require.NoError(t, err)

	m, err = b.SetShared(ctx, m.ID, true)
	require.NoError(t, err)
	assert.True(t, m.Shared())

	m, err = b.SetShared(ctx, m.ID, false)
	require.NoError(t, err)
	assert.False(t, m.Shared())
}
