package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/unowned-ai/memorynet/pkg/backend"
	"github.com/unowned-ai/memorynet/pkg/memories"
)

// optionalString reads an optional string argument. A present argument of
// any other type is invalid input.
func optionalString(request mcp.CallToolRequest, name string) (string, bool, error) {
	raw, present := request.Params.Arguments[name]
	if !present || raw == nil {
		return "", false, nil
	}
	s, ok := raw.(string)
	if !ok {
		return "", false, fmt.Errorf("%w: '%s' must be a string", memories.ErrInvalidInput, name)
	}
	return s, true, nil
}

// stringArgs reads several optional string arguments at once.
func stringArgs(request mcp.CallToolRequest, names ...string) (map[string]string, error) {
	values := make(map[string]string, len(names))
	for _, name := range names {
		s, _, err := optionalString(request, name)
		if err != nil {
			return nil, err
		}
		values[name] = s
	}
	return values, nil
}

func uuidArg(request mcp.CallToolRequest, name string) (uuid.UUID, error) {
	raw, _, err := optionalString(request, name)
	if err != nil {
		return uuid.Nil, err
	}
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, fmt.Errorf("'%s' must be a memory UUID", name)
	}
	return id, nil
}

// filterArgs reads the optional "query" and comma-separated "tags" arguments.
func filterArgs(request mcp.CallToolRequest) (memories.Filter, error) {
	args, err := stringArgs(request, "query", "tags")
	if err != nil {
		return memories.Filter{}, err
	}
	return memories.Filter{SearchText: args["query"], Tags: memories.ParseTagList(args["tags"])}, nil
}

// ownedMemory loads id and hides memories of other users as not found.
func ownedMemory(ctx context.Context, b *backend.SQL, id uuid.UUID) (memories.User, memories.Memory, error) {
	user, err := b.RequireUser(ctx)
	if err != nil {
		return memories.User{}, memories.Memory{}, err
	}
	memory, err := memories.GetMemory(ctx, b.DB, id)
	if err != nil {
		return memories.User{}, memories.Memory{}, err
	}
	if memory.OwnerID != user.ID || memory.Deleted {
		return memories.User{}, memories.Memory{}, memories.ErrMemoryNotFound
	}
	return user, memory, nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to serialize result to JSON: %v", err)), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func toolError(action string, err error) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultError(fmt.Sprintf("Failed to %s: %v", action, err)), nil
}
