package memory

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/wyh0626/evermemos-mcp-server/internal/config"
	"github.com/wyh0626/evermemos-mcp-server/internal/evermem"
	"github.com/wyh0626/evermemos-mcp-server/internal/logger"
	"github.com/wyh0626/evermemos-mcp-server/internal/tools"
)

var log = logger.ForComponent("memory-tools")

// GetTools returns the four memory tools backed by the given client. The
// config supplies the default identity context for calls that omit user or
// group identifiers.
func GetTools(client *evermem.Client, cfg *config.Config) []tools.Tool {
	return []tools.Tool{
		NewStoreMemoryTool(client, cfg),
		NewSearchMemoryTool(client, cfg),
		NewGetMemoriesTool(client, cfg),
		NewDeleteMemoryTool(client),
	}
}

type StoreMemoryTool struct {
	client *evermem.Client
	cfg    *config.Config
}

func NewStoreMemoryTool(client *evermem.Client, cfg *config.Config) *StoreMemoryTool {
	return &StoreMemoryTool{client: client, cfg: cfg}
}

func (t *StoreMemoryTool) Name() string {
	return "store_memory"
}

func (t *StoreMemoryTool) Description() string {
	return `Save a conversation message into EverMemOS long-term memory.

Use this tool when the user shares important information that should be
remembered across sessions: project preferences, coding conventions,
architecture decisions, deployment procedures, personal preferences.

Storage is asynchronous. A queued status means the service accepted the
message for memory extraction; set flush=true to request extraction sooner
instead of waiting for a natural conversation boundary.`
}

func (t *StoreMemoryTool) Title() string {
	return "Store Memory"
}

func (t *StoreMemoryTool) Annotations() map[string]bool {
	return tools.NonIdempotentWriteAnnotations()
}

func (t *StoreMemoryTool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"content": {
				"type": "string",
				"description": "The message content to remember. Be specific and include key details."
			},
			"role": {
				"type": "string",
				"enum": ["user", "assistant"],
				"description": "Who sent this message (default: user)"
			},
			"user_id": {
				"type": "string",
				"description": "User ID for memory ownership (default: EVERMEM_USER_ID)"
			},
			"group_id": {
				"type": "string",
				"description": "Project/group identifier to organize memories (default: EVERMEM_GROUP_ID)"
			},
			"flush": {
				"type": "boolean",
				"description": "Request immediate memory extraction instead of waiting for a conversation boundary"
			}
		},
		"required": ["content"]
	}`)
}

func (t *StoreMemoryTool) Execute(ctx context.Context, input json.RawMessage) (interface{}, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	var req struct {
		Content string `json:"content"`
		Role    string `json:"role"`
		UserID  string `json:"user_id"`
		GroupID string `json:"group_id"`
		Flush   bool   `json:"flush"`
	}
	if err := json.Unmarshal(input, &req); err != nil {
		return nil, err
	}

	if strings.TrimSpace(req.Content) == "" {
		return nil, &evermem.ValidationError{Field: "content", Reason: "must not be empty"}
	}

	userID := req.UserID
	if userID == "" {
		userID = t.cfg.UserID
	}
	groupID := req.GroupID
	if groupID == "" {
		groupID = t.cfg.GroupID
	}

	// The local deployment wants conversation metadata before the first
	// store. Idempotent, and a failure here must not block the store.
	if err := t.client.EnsureConversationMeta(ctx, groupID); err != nil {
		log.Debug("conversation meta bootstrap failed", "group_id", groupID, "error", err)
	}

	result, err := t.client.Store(ctx, evermem.StoreRequest{
		Content: req.Content,
		Role:    req.Role,
		UserID:  userID,
		GroupID: groupID,
		Flush:   req.Flush,
	})
	if err != nil {
		return nil, err
	}

	return formatStoreResult(result), nil
}

type SearchMemoryTool struct {
	client *evermem.Client
	cfg    *config.Config
}

func NewSearchMemoryTool(client *evermem.Client, cfg *config.Config) *SearchMemoryTool {
	return &SearchMemoryTool{client: client, cfg: cfg}
}

func (t *SearchMemoryTool) Name() string {
	return "search_memory"
}

func (t *SearchMemoryTool) Description() string {
	return `Search EverMemOS for relevant memories using a natural language query.

Use this tool to recall past context: project setup details, user
preferences, previous decisions, coding patterns, deployment steps.

Retrieval strategies: "hybrid" (keyword+vector+rerank, default), "keyword"
(BM25), "vector" (semantic), "rrf" (fusion), "agentic" (LLM-guided
multi-round). Strategy execution happens server-side.`
}

func (t *SearchMemoryTool) Title() string {
	return "Search Memories"
}

func (t *SearchMemoryTool) Annotations() map[string]bool {
	return tools.ReadOnlyAnnotations()
}

func (t *SearchMemoryTool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"query": {
				"type": "string",
				"description": "Natural language search query"
			},
			"method": {
				"type": "string",
				"enum": ["hybrid", "keyword", "vector", "rrf", "agentic"],
				"description": "Retrieval strategy (default: hybrid)"
			},
			"user_id": {
				"type": "string",
				"description": "User ID to search memories for (default: EVERMEM_USER_ID)"
			},
			"group_id": {
				"type": "string",
				"description": "Optional project/group filter"
			},
			"limit": {
				"type": "integer",
				"description": "Maximum number of results, 1-20 (default: 5)"
			}
		},
		"required": ["query"]
	}`)
}

func (t *SearchMemoryTool) Execute(ctx context.Context, input json.RawMessage) (interface{}, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	var req struct {
		Query   string `json:"query"`
		Method  string `json:"method"`
		UserID  string `json:"user_id"`
		GroupID string `json:"group_id"`
		Limit   int    `json:"limit"`
	}
	if err := json.Unmarshal(input, &req); err != nil {
		return nil, err
	}

	if strings.TrimSpace(req.Query) == "" {
		return nil, &evermem.ValidationError{Field: "query", Reason: "must not be empty"}
	}

	// Gatekeep the strategy before anything touches the network.
	method, err := evermem.ParseMethod(req.Method)
	if err != nil {
		return nil, err
	}

	userID := req.UserID
	if userID == "" {
		userID = t.cfg.UserID
	}

	limit := req.Limit
	if limit <= 0 {
		limit = 5
	}

	result, err := t.client.Search(ctx, evermem.SearchRequest{
		Query:   req.Query,
		Method:  method,
		UserID:  userID,
		GroupID: req.GroupID,
		Limit:   limit,
	})
	if err != nil {
		return nil, err
	}

	return formatSearchResults(result), nil
}

type GetMemoriesTool struct {
	client *evermem.Client
	cfg    *config.Config
}

func NewGetMemoriesTool(client *evermem.Client, cfg *config.Config) *GetMemoriesTool {
	return &GetMemoriesTool{client: client, cfg: cfg}
}

func (t *GetMemoriesTool) Name() string {
	return "get_memories"
}

func (t *GetMemoriesTool) Description() string {
	return `Browse stored memories by type without a search query.

Memory types: "episodic_memory" (conversation summaries), "foresight"
(predicted future needs), "event_log" (atomic facts), "profile" (user
profile).`
}

func (t *GetMemoriesTool) Title() string {
	return "Get Memories"
}

func (t *GetMemoriesTool) Annotations() map[string]bool {
	return tools.ReadOnlyAnnotations()
}

func (t *GetMemoriesTool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"memory_type": {
				"type": "string",
				"enum": ["episodic_memory", "foresight", "event_log", "profile"],
				"description": "Type of memory to retrieve (default: episodic_memory)"
			},
			"user_id": {
				"type": "string",
				"description": "User ID to fetch memories for (default: EVERMEM_USER_ID)"
			},
			"group_id": {
				"type": "string",
				"description": "Optional project/group filter"
			},
			"limit": {
				"type": "integer",
				"description": "Maximum number of results, 1-50 (default: 10)"
			}
		}
	}`)
}

func (t *GetMemoriesTool) Execute(ctx context.Context, input json.RawMessage) (interface{}, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	var req struct {
		MemoryType string `json:"memory_type"`
		UserID     string `json:"user_id"`
		GroupID    string `json:"group_id"`
		Limit      int    `json:"limit"`
	}
	if err := json.Unmarshal(input, &req); err != nil {
		return nil, err
	}

	userID := req.UserID
	if userID == "" {
		userID = t.cfg.UserID
	}

	limit := req.Limit
	if limit <= 0 {
		limit = 10
	}

	records, err := t.client.List(ctx, evermem.ListRequest{
		UserID:     userID,
		GroupID:    req.GroupID,
		MemoryType: req.MemoryType,
		Limit:      limit,
	})
	if err != nil {
		return nil, err
	}

	return formatListResults(records), nil
}

type DeleteMemoryTool struct {
	client *evermem.Client
}

func NewDeleteMemoryTool(client *evermem.Client) *DeleteMemoryTool {
	return &DeleteMemoryTool{client: client}
}

func (t *DeleteMemoryTool) Name() string {
	return "delete_memory"
}

func (t *DeleteMemoryTool) Description() string {
	return `Delete one memory by its identifier.

Use this tool when the user explicitly asks to forget or remove a specific
memory. Deletion is only reported after the service confirms it.`
}

func (t *DeleteMemoryTool) Title() string {
	return "Delete Memory"
}

func (t *DeleteMemoryTool) Annotations() map[string]bool {
	return tools.DestructiveAnnotations()
}

func (t *DeleteMemoryTool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"memory_id": {
				"type": "string",
				"description": "Identifier of the memory to delete"
			}
		},
		"required": ["memory_id"]
	}`)
}

func (t *DeleteMemoryTool) Execute(ctx context.Context, input json.RawMessage) (interface{}, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	var req struct {
		MemoryID string `json:"memory_id"`
	}
	if err := json.Unmarshal(input, &req); err != nil {
		return nil, err
	}

	if strings.TrimSpace(req.MemoryID) == "" {
		return nil, &evermem.ValidationError{Field: "memory_id", Reason: "must not be empty"}
	}

	if err := t.client.Delete(ctx, req.MemoryID); err != nil {
		return nil, err
	}

	return "Memory deleted.\n- ID: " + req.MemoryID, nil
}
