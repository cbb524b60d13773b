package mcp

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/unowned-ai/memorynet/pkg/backend"
	"github.com/unowned-ai/memorynet/pkg/brain"
	"github.com/unowned-ai/memorynet/pkg/db"
	"github.com/unowned-ai/memorynet/pkg/legacy"
	"github.com/unowned-ai/memorynet/pkg/memories"
)

const testEmail = "alex@memorynet.test"

func setupDeps(t *testing.T) (Deps, memories.User) {
	t.Helper()

	testDB, err := db.OpenAndUpgrade(":memory:", false, "NORMAL", zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { testDB.Close() })

	user, err := memories.CreateUser(context.Background(), testDB, "Alex", testEmail)
	require.NoError(t, err)

	b := backend.New(testDB, testEmail)
	synth := brain.NewSynthesizer(3, time.UTC)
	deps := Deps{
		Backend:  b,
		Brain:    synth,
		Gate:     legacy.NewGate(legacy.SQLStore{DB: testDB}, synth, time.UTC, zap.NewNop()),
		Location: time.UTC,
		Logger:   zap.NewNop(),
	}
	return deps, user
}

func newRequest(name string, args map[string]interface{}) mcp.CallToolRequest {
	var request mcp.CallToolRequest
	request.Params.Name = name
	request.Params.Arguments = args
	return request
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()

	require.NotNil(t, result)
	require.NotEmpty(t, result.Content)
	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected text content, got %T", result.Content[0])
	return text.Text
}

func decode[T any](t *testing.T, result *mcp.CallToolResult) T {
	t.Helper()

	require.False(t, result.IsError, resultText(t, result))
	var out T
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &out))
	return out
}

func call(t *testing.T, handler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error), args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()

	result, err := handler(context.Background(), newRequest("test", args))
	require.NoError(t, err)
	return result
}

func TestPing(t *testing.T) {
	result := call(t, pingHandler, nil)
	assert.Equal(t, "pong_memorynet", resultText(t, result))
}

func TestCreateAndGetMemory(t *testing.T) {
	deps, user := setupDeps(t)

	created := decode[memories.Memory](t, call(t, createMemoryHandler(deps), map[string]interface{}{
		"title":   "Lessons from Father",
		"content": "courage isn't the absence of fear",
		"emotion": "reflective",
		"kind":    "reflection",
		"tags":    "family, wisdom,family",
	}))
	assert.Equal(t, user.ID, created.OwnerID)
	assert.Equal(t, []string{"family", "wisdom"}, created.Tags)
	assert.Equal(t, memories.OriginWrite, created.Origin)

	got := decode[memories.Memory](t, call(t, getMemoryHandler(deps), map[string]interface{}{"id": created.ID.String()}))
	assert.Equal(t, created.ID, got.ID)

	result := call(t, getMemoryHandler(deps), map[string]interface{}{"id": "not-a-uuid"})
	assert.True(t, result.IsError)

	result = call(t, createMemoryHandler(deps), map[string]interface{}{"emotion": "happy"})
	assert.True(t, result.IsError, "title or content is required")

	result = call(t, createMemoryHandler(deps), map[string]interface{}{"title": "x", "emotion": "furious"})
	assert.True(t, result.IsError)
}

func TestCreateMemory_NoUser(t *testing.T) {
	deps, _ := setupDeps(t)
	deps.Backend = backend.New(deps.Backend.DB, "nobody@memorynet.test")

	result := call(t, createMemoryHandler(deps), map[string]interface{}{"title": "x"})
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "user not found")
}

func TestUpdateShareDelete(t *testing.T) {
	deps, _ := setupDeps(t)

	created := decode[memories.Memory](t, call(t, createMemoryHandler(deps), map[string]interface{}{"title": "draft", "tags": "a"}))
	id := created.ID.String()

	result := call(t, updateMemoryHandler(deps), map[string]interface{}{"id": id})
	assert.True(t, result.IsError, "empty patch")

	updated := decode[memories.Memory](t, call(t, updateMemoryHandler(deps), map[string]interface{}{"id": id, "title": "final", "tags": ""}))
	assert.Equal(t, "final", updated.Title)
	assert.Empty(t, updated.Tags)
	assert.True(t, created.CreatedAt.Equal(updated.CreatedAt))

	shared := decode[memories.Memory](t, call(t, shareMemoryHandler(deps), map[string]interface{}{"id": id}))
	assert.Equal(t, memories.VisibilityLegacyShared, shared.Visibility)

	private := decode[memories.Memory](t, call(t, shareMemoryHandler(deps), map[string]interface{}{"id": id, "shared": false}))
	assert.Equal(t, memories.VisibilityPrivate, private.Visibility)

	result = call(t, deleteMemoryHandler(deps), map[string]interface{}{"id": id})
	require.False(t, result.IsError, resultText(t, result))

	result = call(t, getMemoryHandler(deps), map[string]interface{}{"id": id})
	assert.True(t, result.IsError)

	list := decode[[]memories.Memory](t, call(t, listMemoriesHandler(deps), nil))
	assert.Empty(t, list)
}

func TestOtherUsersMemoriesAreHidden(t *testing.T) {
	deps, _ := setupDeps(t)
	ctx := context.Background()

	other, err := memories.CreateUser(ctx, deps.Backend.DB, "Sam", "sam@memorynet.test")
	require.NoError(t, err)
	theirs, err := memories.CreateMemory(ctx, deps.Backend.DB, other.ID, memories.NewMemory{Title: "theirs"})
	require.NoError(t, err)

	for _, handler := range []func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error){
		getMemoryHandler(deps), deleteMemoryHandler(deps), shareMemoryHandler(deps),
	} {
		result := call(t, handler, map[string]interface{}{"id": theirs.ID.String()})
		assert.True(t, result.IsError)
		assert.Contains(t, resultText(t, result), "memory not found")
	}
}

func seed(t *testing.T, deps Deps, user memories.User) {
	t.Helper()
	ctx := context.Background()

	father, err := deps.Backend.CreateMemory(ctx, user.ID, memories.NewMemory{
		Title: "Lessons from Father", Content: "courage isn't the absence of fear",
		Kind: memories.KindReflection, Tags: []string{"family", "courage"},
		CreatedAt: time.Date(2025, time.January, 15, 14, 30, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	_, err = memories.ShareMemory(ctx, deps.Backend.DB, father.ID)
	require.NoError(t, err)

	_, err = deps.Backend.CreateMemory(ctx, user.ID, memories.NewMemory{
		Title: "Work and Purpose", Content: "what work means to me",
		Tags:      []string{"work", "purpose"},
		CreatedAt: time.Date(2025, time.January, 8, 11, 30, 0, 0, time.UTC),
	})
	require.NoError(t, err)
}

func TestSearchMemories(t *testing.T) {
	deps, user := setupDeps(t)
	seed(t, deps, user)

	timeline := decode[memories.Timeline](t, call(t, searchMemoriesHandler(deps), map[string]interface{}{"query": "FEAR"}))
	require.Len(t, timeline.Groups, 1)
	assert.Equal(t, "January 15, 2025", timeline.Groups[0].Label)
	assert.Equal(t, "Lessons from Father", timeline.Groups[0].Memories[0].Title)

	timeline = decode[memories.Timeline](t, call(t, searchMemoriesHandler(deps), map[string]interface{}{"tags": "work"}))
	require.Len(t, timeline.Groups, 1)
	assert.Equal(t, "January 8, 2025", timeline.Groups[0].Label)

	timeline = decode[memories.Timeline](t, call(t, searchMemoriesHandler(deps), nil))
	assert.Equal(t, 2, timeline.Total)

	for name, args := range nonStringFilterArgs() {
		t.Run(name, func(t *testing.T) {
			result := call(t, searchMemoriesHandler(deps), args)
			assert.True(t, result.IsError)
			assert.Contains(t, resultText(t, result), "invalid input")
		})
	}
}

func nonStringFilterArgs() map[string]map[string]interface{} {
	return map[string]map[string]interface{}{
		"numeric query": {"query": 123},
		"array query":   {"query": []interface{}{"fear"}},
		"numeric tags":  {"tags": 7},
		"array tags":    {"tags": []interface{}{"work"}},
	}
}

func TestNonStringArgumentsRejected(t *testing.T) {
	deps, user := setupDeps(t)
	seed(t, deps, user)

	result := call(t, createMemoryHandler(deps), map[string]interface{}{"title": "x", "tags": 7})
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "'tags' must be a string")

	records, err := deps.Backend.ListMemories(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Len(t, records, 2, "nothing created")

	id := records[0].ID.String()
	result = call(t, updateMemoryHandler(deps), map[string]interface{}{"id": id, "title": 42})
	assert.True(t, result.IsError)

	result = call(t, askMemoriesHandler(deps), map[string]interface{}{"question": []interface{}{"fear"}})
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "invalid input")

	result = call(t, resolvePortalHandler(deps), map[string]interface{}{"token": 1})
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "invalid input")
}

func TestListTagsAndAsk(t *testing.T) {
	deps, user := setupDeps(t)
	seed(t, deps, user)

	counts := decode[[]memories.TagCount](t, call(t, listTagsHandler(deps), nil))
	assert.Len(t, counts, 4)

	reply := decode[brain.Reply](t, call(t, askMemoriesHandler(deps), map[string]interface{}{"question": "What do I believe about fear?"}))
	assert.Equal(t, brain.BucketFearAndCourage, reply.Bucket)
	require.Len(t, reply.Citations, 1)
	assert.Equal(t, "Reflection: January 2025 - 'Lessons from Father'", reply.Citations[0].Label)

	result := call(t, askMemoriesHandler(deps), map[string]interface{}{"question": "  "})
	assert.True(t, result.IsError)
}

func TestLegacyTools(t *testing.T) {
	deps, user := setupDeps(t)
	seed(t, deps, user)

	portal, err := legacy.CreatePortal(context.Background(), deps.Backend.DB, user.ID, "In Memory of Alex", "Be brave.")
	require.NoError(t, err)

	resolved := decode[map[string]any](t, call(t, resolvePortalHandler(deps), map[string]interface{}{"token": portal.Token}))
	assert.Equal(t, "In Memory of Alex", resolved["memorial_name"])
	assert.NotContains(t, resolved, "owner_id")

	timeline := decode[memories.Timeline](t, call(t, listLegacyMemoriesHandler(deps), map[string]interface{}{"token": portal.Token}))
	assert.Equal(t, 1, timeline.Total, "only shared memories")

	for name, args := range nonStringFilterArgs() {
		t.Run(name, func(t *testing.T) {
			args["token"] = portal.Token
			result := call(t, listLegacyMemoriesHandler(deps), args)
			assert.True(t, result.IsError)
			assert.Contains(t, resultText(t, result), "invalid input")
		})
	}

	unknown := call(t, listLegacyMemoriesHandler(deps), map[string]interface{}{"token": "unknown"})
	require.NoError(t, legacy.DeactivatePortal(context.Background(), deps.Backend.DB, user.ID))
	inactive := call(t, resolvePortalHandler(deps), map[string]interface{}{"token": portal.Token})

	assert.True(t, unknown.IsError)
	assert.True(t, inactive.IsError)
	assert.Equal(t, resultText(t, unknown), resultText(t, inactive))
}

func TestNewMemoryNetMCPServer(t *testing.T) {
	deps, _ := setupDeps(t)
	s := NewMemoryNetMCPServer(Deps{Backend: deps.Backend})
	assert.NotNil(t, s.MCPRawServer())
}
