package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/sourcegraph/jsonrpc2"

	"github.com/wyh0626/evermemos-mcp-server/internal/logger"
	"github.com/wyh0626/evermemos-mcp-server/internal/tools"
	"github.com/wyh0626/evermemos-mcp-server/pkg/protocol"
	"github.com/wyh0626/evermemos-mcp-server/pkg/version"
)

var log = logger.ForComponent("mcp")

// toolCallTimeout bounds a single tools/call. Per call, not global.
const toolCallTimeout = 2 * time.Minute

type Handler struct {
	registry *tools.Registry

	mu          sync.Mutex
	initialized bool
	clientInfo  protocol.ClientInfo
}

func NewHandler(registry *tools.Registry) *Handler {
	return &Handler{registry: registry}
}

// Handle implements jsonrpc2.Handler. It runs wrapped in AsyncHandler, so
// independent requests execute concurrently and must not share call state.
func (h *Handler) Handle(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request) {
	if req.Notif {
		if req.Method == "notifications/initialized" {
			h.mu.Lock()
			h.initialized = true
			h.mu.Unlock()
		}
		return
	}

	result, rpcErr := h.dispatch(ctx, req)
	if rpcErr != nil {
		if err := conn.ReplyWithError(ctx, req.ID, rpcErr); err != nil {
			log.Error("failed to send error reply", "method", req.Method, "error", err)
		}
		return
	}
	if err := conn.Reply(ctx, req.ID, result); err != nil {
		log.Error("failed to send reply", "method", req.Method, "error", err)
	}
}

func (h *Handler) dispatch(ctx context.Context, req *jsonrpc2.Request) (interface{}, *jsonrpc2.Error) {
	switch req.Method {
	case "initialize":
		return h.handleInitialize(req)
	case "ping":
		return map[string]interface{}{}, nil
	case "tools/list":
		return h.handleListTools(), nil
	case "tools/call":
		return h.handleCallTool(ctx, req)
	default:
		return nil, &jsonrpc2.Error{
			Code:    jsonrpc2.CodeMethodNotFound,
			Message: fmt.Sprintf("Method not found: %s", req.Method),
		}
	}
}

func (h *Handler) handleInitialize(req *jsonrpc2.Request) (interface{}, *jsonrpc2.Error) {
	var params protocol.InitializeParams
	if req.Params != nil {
		if err := json.Unmarshal(*req.Params, &params); err != nil {
			return nil, &jsonrpc2.Error{
				Code:    jsonrpc2.CodeInvalidParams,
				Message: fmt.Sprintf("failed to parse initialize request: %v", err),
			}
		}
	}

	h.mu.Lock()
	h.clientInfo = params.ClientInfo
	h.mu.Unlock()

	return &protocol.InitializeResult{
		ProtocolVersion: negotiateProtocolVersion(params.ProtocolVersion),
		Capabilities: map[string]any{
			"tools": map[string]any{},
		},
		ServerInfo: protocol.ServerInfo{
			Name:    "evermemos-mcp",
			Version: version.Version,
		},
	}, nil
}

func negotiateProtocolVersion(clientVersion string) string {
	for _, v := range version.SupportedProtocolVersions {
		if clientVersion == v {
			return v
		}
	}
	return version.ProtocolVersion
}

func (h *Handler) handleListTools() *protocol.ListToolsResult {
	registered := h.registry.List()
	list := make([]protocol.Tool, len(registered))

	for i, t := range registered {
		desc := protocol.Tool{
			Name:        t.Name(),
			Description: t.Description(),
			InputSchema: t.Schema(),
		}
		if annotated, ok := t.(tools.AnnotatedTool); ok {
			desc.Title = annotated.Title()
			desc.Annotations = annotated.Annotations()
		}
		list[i] = desc
	}

	return &protocol.ListToolsResult{Tools: list}
}

func (h *Handler) handleCallTool(ctx context.Context, req *jsonrpc2.Request) (result interface{}, rpcErr *jsonrpc2.Error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("tool panic recovered", "panic", r, "stack", string(debug.Stack()))
			result = protocol.TextResult(fmt.Sprintf("tool execution panicked: %v", r), true)
			rpcErr = nil
		}
	}()

	var params protocol.CallToolParams
	if req.Params != nil {
		if err := json.Unmarshal(*req.Params, &params); err != nil {
			return nil, &jsonrpc2.Error{
				Code:    jsonrpc2.CodeInvalidParams,
				Message: fmt.Sprintf("failed to parse tool call request: %v", err),
			}
		}
	}

	if params.Name == "" {
		return nil, &jsonrpc2.Error{
			Code:    jsonrpc2.CodeInvalidParams,
			Message: "tool name is required",
		}
	}

	if _, ok := h.registry.Get(params.Name); !ok {
		return nil, &jsonrpc2.Error{
			Code:    jsonrpc2.CodeMethodNotFound,
			Message: fmt.Sprintf("Tool not found: %s", params.Name),
		}
	}

	args := params.Arguments
	if len(args) == 0 {
		args = json.RawMessage(`{}`)
	}

	out, err := h.registry.ExecuteWithTimeout(ctx, params.Name, args, toolCallTimeout)
	if err != nil {
		// Tool failures are reported as readable content so the assistant
		// can recover; the host process never crashes over one bad call.
		log.Warn("tool call failed", "tool", params.Name, "error", err)
		return protocol.TextResult(fmt.Sprintf("%s failed: %v", params.Name, err), true), nil
	}

	switch v := out.(type) {
	case string:
		return protocol.TextResult(v, false), nil
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return nil, &jsonrpc2.Error{
				Code:    jsonrpc2.CodeInternalError,
				Message: fmt.Sprintf("failed to marshal result: %v", err),
			}
		}
		return protocol.TextResult(string(data), false), nil
	}
}
