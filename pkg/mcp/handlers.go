package mcp

import (
	"context"
	"errors"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/unowned-ai/memorynet/pkg/legacy"
	"github.com/unowned-ai/memorynet/pkg/memories"
)

// portalUnavailable is the single answer for unknown and inactive tokens.
const portalUnavailable = "legacy link not found or inactive"

func RegisterPingTool(s *server.MCPServer) {
	pingTool := mcp.NewTool("ping",
		mcp.WithDescription("Responds with 'pong' to check if the MemoryNet MCP server is alive."),
	)
	s.AddTool(pingTool, pingHandler)
}

func pingHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText("pong_memorynet"), nil
}

func RegisterCreateMemoryTool(s *server.MCPServer, deps Deps) {
	tool := mcp.NewTool("create_memory",
		mcp.WithDescription("Captures a new memory for the current user."),
		mcp.WithString("title", mcp.Description("Title of the memory. Either title or content is required.")),
		mcp.WithString("content", mcp.Description("Body of the memory.")),
		mcp.WithString("emotion", mcp.Description("One of happy, calm, reflective, neutral, sad, loving, nostalgic, motivated.")),
		mcp.WithString("kind", mcp.Description("One of reflection, insight, philosophy, memory, other. Defaults to memory.")),
		mcp.WithString("origin", mcp.Description("One of write, voice, import. Defaults to write.")),
		mcp.WithString("tags", mcp.Description("Comma-separated tags.")),
	)
	s.AddTool(tool, createMemoryHandler(deps))
}

func createMemoryHandler(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		user, err := deps.Backend.RequireUser(ctx)
		if err != nil {
			return toolError("create memory", err)
		}

		args, err := stringArgs(request, "title", "content", "emotion", "kind", "origin", "tags")
		if err != nil {
			return toolError("create memory", err)
		}

		memory, err := deps.Backend.CreateMemory(ctx, user.ID, memories.NewMemory{
			Title:   args["title"],
			Content: args["content"],
			Emotion: memories.Emotion(args["emotion"]),
			Kind:    memories.Kind(args["kind"]),
			Origin:  memories.Origin(args["origin"]),
			Tags:    memories.ParseTagList(args["tags"]),
		})
		if err != nil {
			return toolError("create memory", err)
		}
		deps.Logger.Debug("memory created via mcp")
		return jsonResult(memory)
	}
}

func RegisterListMemoriesTool(s *server.MCPServer, deps Deps) {
	tool := mcp.NewTool("list_memories",
		mcp.WithDescription("Lists the current user's memories, newest first."),
	)
	s.AddTool(tool, listMemoriesHandler(deps))
}

func listMemoriesHandler(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		user, err := deps.Backend.RequireUser(ctx)
		if err != nil {
			return toolError("list memories", err)
		}
		records, err := deps.Backend.ListMemories(ctx, user.ID)
		if err != nil {
			return toolError("list memories", err)
		}
		return jsonResult(records)
	}
}

func RegisterGetMemoryTool(s *server.MCPServer, deps Deps) {
	tool := mcp.NewTool("get_memory",
		mcp.WithDescription("Retrieves one memory by ID."),
		mcp.WithString("id", mcp.Required(), mcp.Description("UUID of the memory.")),
	)
	s.AddTool(tool, getMemoryHandler(deps))
}

func getMemoryHandler(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := uuidArg(request, "id")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		_, memory, err := ownedMemory(ctx, deps.Backend, id)
		if err != nil {
			return toolError("get memory", err)
		}
		return jsonResult(memory)
	}
}

func RegisterUpdateMemoryTool(s *server.MCPServer, deps Deps) {
	tool := mcp.NewTool("update_memory",
		mcp.WithDescription("Edits a memory's title, content, emotion or tags. Creation date and visibility are not editable."),
		mcp.WithString("id", mcp.Required(), mcp.Description("UUID of the memory.")),
		mcp.WithString("title", mcp.Description("New title.")),
		mcp.WithString("content", mcp.Description("New content.")),
		mcp.WithString("emotion", mcp.Description("New emotion; empty clears it.")),
		mcp.WithString("tags", mcp.Description("Comma-separated replacement tag set; empty clears all tags.")),
	)
	s.AddTool(tool, updateMemoryHandler(deps))
}

func updateMemoryHandler(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := uuidArg(request, "id")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		patch, err := patchArgs(request)
		if err != nil {
			return toolError("update memory", err)
		}
		if patch.Empty() {
			return mcp.NewToolResultError("No update fields provided (use title, content, emotion or tags)."), nil
		}

		if _, _, err := ownedMemory(ctx, deps.Backend, id); err != nil {
			return toolError("update memory", err)
		}
		memory, err := deps.Backend.UpdateMemory(ctx, id, patch)
		if err != nil {
			return toolError("update memory", err)
		}
		return jsonResult(memory)
	}
}

func patchArgs(request mcp.CallToolRequest) (memories.Patch, error) {
	var patch memories.Patch
	title, ok, err := optionalString(request, "title")
	if err != nil {
		return patch, err
	}
	if ok {
		patch.Title = &title
	}
	content, ok, err := optionalString(request, "content")
	if err != nil {
		return patch, err
	}
	if ok {
		patch.Content = &content
	}
	emotion, ok, err := optionalString(request, "emotion")
	if err != nil {
		return patch, err
	}
	if ok {
		e := memories.Emotion(emotion)
		patch.Emotion = &e
	}
	tags, ok, err := optionalString(request, "tags")
	if err != nil {
		return patch, err
	}
	if ok {
		parsed := memories.ParseTagList(tags)
		patch.Tags = &parsed
	}
	return patch, nil
}

func RegisterDeleteMemoryTool(s *server.MCPServer, deps Deps) {
	tool := mcp.NewTool("delete_memory",
		mcp.WithDescription("Deletes a memory. It disappears from listings and legacy portals."),
		mcp.WithString("id", mcp.Required(), mcp.Description("UUID of the memory.")),
	)
	s.AddTool(tool, deleteMemoryHandler(deps))
}

func deleteMemoryHandler(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := uuidArg(request, "id")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if _, _, err := ownedMemory(ctx, deps.Backend, id); err != nil {
			return toolError("delete memory", err)
		}
		if err := deps.Backend.DeleteMemory(ctx, id); err != nil {
			return toolError("delete memory", err)
		}
		return mcp.NewToolResultText("Memory deleted."), nil
	}
}

func RegisterShareMemoryTool(s *server.MCPServer, deps Deps) {
	tool := mcp.NewTool("share_memory",
		mcp.WithDescription("Shares a memory with heirs through the legacy portal, or makes it private again."),
		mcp.WithString("id", mcp.Required(), mcp.Description("UUID of the memory.")),
		mcp.WithBoolean("shared", mcp.Description("true to share (default), false to make private.")),
	)
	s.AddTool(tool, shareMemoryHandler(deps))
}

func shareMemoryHandler(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := uuidArg(request, "id")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		shared := true
		if v, ok := request.Params.Arguments["shared"].(bool); ok {
			shared = v
		}

		if _, _, err := ownedMemory(ctx, deps.Backend, id); err != nil {
			return toolError("share memory", err)
		}

		memory, err := deps.Backend.SetShared(ctx, id, shared)
		if err != nil {
			return toolError("share memory", err)
		}
		return jsonResult(memory)
	}
}

func RegisterSearchMemoriesTool(s *server.MCPServer, deps Deps) {
	tool := mcp.NewTool("search_memories",
		mcp.WithDescription("Searches the current user's memories by text and tags, grouped by day, newest first. A memory matches when its title or content contains the query (case-insensitive) and it carries any of the given tags."),
		mcp.WithString("query", mcp.Description("Text to look for in titles and content.")),
		mcp.WithString("tags", mcp.Description("Comma-separated tags; any one matches.")),
	)
	s.AddTool(tool, searchMemoriesHandler(deps))
}

func searchMemoriesHandler(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		user, err := deps.Backend.RequireUser(ctx)
		if err != nil {
			return toolError("search memories", err)
		}
		records, err := deps.Backend.ListMemories(ctx, user.ID)
		if err != nil {
			return toolError("search memories", err)
		}
		filter, err := filterArgs(request)
		if err != nil {
			return toolError("search memories", err)
		}
		timeline, err := memories.Query(records, filter, deps.Location)
		if err != nil {
			return toolError("search memories", err)
		}
		return jsonResult(timeline)
	}
}

func RegisterListTagsTool(s *server.MCPServer, deps Deps) {
	tool := mcp.NewTool("list_tags",
		mcp.WithDescription("Lists the tags in use across the current user's memories with how often each is used."),
	)
	s.AddTool(tool, listTagsHandler(deps))
}

func listTagsHandler(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		user, err := deps.Backend.RequireUser(ctx)
		if err != nil {
			return toolError("list tags", err)
		}
		records, err := deps.Backend.ListMemories(ctx, user.ID)
		if err != nil {
			return toolError("list tags", err)
		}
		return jsonResult(memories.TagCounts(records))
	}
}

func RegisterAskMemoriesTool(s *server.MCPServer, deps Deps) {
	tool := mcp.NewTool("ask_memories",
		mcp.WithDescription("Answers a question from the current user's memories and cites the memories it drew on."),
		mcp.WithString("question", mcp.Required(), mcp.Description("The question to ask.")),
	)
	s.AddTool(tool, askMemoriesHandler(deps))
}

func askMemoriesHandler(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		question, _, err := optionalString(request, "question")
		if err != nil {
			return toolError("answer question", err)
		}
		if strings.TrimSpace(question) == "" {
			return mcp.NewToolResultError("'question' parameter is required and must be a non-empty string."), nil
		}

		user, err := deps.Backend.RequireUser(ctx)
		if err != nil {
			return toolError("answer question", err)
		}
		records, err := deps.Backend.ListMemories(ctx, user.ID)
		if err != nil {
			return toolError("answer question", err)
		}
		reply, err := deps.Brain.Respond(question, records)
		if err != nil {
			return toolError("answer question", err)
		}
		return jsonResult(reply)
	}
}

func RegisterResolvePortalTool(s *server.MCPServer, deps Deps) {
	tool := mcp.NewTool("resolve_portal",
		mcp.WithDescription("Looks up the memorial behind a legacy link token."),
		mcp.WithString("token", mcp.Required(), mcp.Description("The legacy link token.")),
	)
	s.AddTool(tool, resolvePortalHandler(deps))
}

func resolvePortalHandler(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		token, _, err := optionalString(request, "token")
		if err != nil {
			return toolError("open legacy link", err)
		}
		portal, err := deps.Gate.ResolvePortal(ctx, token)
		if err != nil {
			return portalError(err)
		}
		return jsonResult(map[string]any{
			"memorial_name":  portal.MemorialName,
			"memorial_quote": portal.MemorialQuote,
			"created_at":     portal.CreatedAt,
		})
	}
}

func RegisterListLegacyMemoriesTool(s *server.MCPServer, deps Deps) {
	tool := mcp.NewTool("list_legacy_memories",
		mcp.WithDescription("Lists the memories shared through a legacy link, grouped by day, with the same search and tag filters as search_memories."),
		mcp.WithString("token", mcp.Required(), mcp.Description("The legacy link token.")),
		mcp.WithString("query", mcp.Description("Text to look for in titles and content.")),
		mcp.WithString("tags", mcp.Description("Comma-separated tags; any one matches.")),
	)
	s.AddTool(tool, listLegacyMemoriesHandler(deps))
}

func listLegacyMemoriesHandler(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		token, _, err := optionalString(request, "token")
		if err != nil {
			return toolError("open legacy link", err)
		}
		filter, err := filterArgs(request)
		if err != nil {
			return toolError("list legacy memories", err)
		}
		timeline, err := deps.Gate.ListSharedMemories(ctx, token, filter)
		if err != nil {
			return portalError(err)
		}
		return jsonResult(timeline)
	}
}

func portalError(err error) (*mcp.CallToolResult, error) {
	if errors.Is(err, legacy.ErrNotFound) {
		return mcp.NewToolResultError(portalUnavailable), nil
	}
	return toolError("open legacy link", err)
}
