package evermem

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/wyh0626/evermemos-mcp-server/internal/config"
	"github.com/wyh0626/evermemos-mcp-server/internal/logger"
)

const (
	defaultSearchLimit = 10
	maxSearchLimit     = 20
	defaultListLimit   = 20
	maxListLimit       = 50
)

// Client is the HTTP-level facade over the EverMemOS memory service. It is
// stateless per call and safe for concurrent use; the connection profile it
// is built from never changes for the client's lifetime.
type Client struct {
	baseURL     string
	apiVersion  string
	apiKey      string
	memoriesURL string

	httpClient *http.Client
	retry      RetryPolicy
	log        *slog.Logger
}

type ClientOption func(*Client)

func WithHTTPClient(h *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = h }
}

func WithRetryPolicy(p RetryPolicy) ClientOption {
	return func(c *Client) { c.retry = p }
}

func NewClient(cfg *config.Config, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    cfg.APIURL,
		apiVersion: cfg.APIVersion,
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: cfg.RequestTimeout},
		retry:      DefaultRetryPolicy(),
		log:        logger.ForComponent("evermem"),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.memoriesURL = fmt.Sprintf("%s/api/%s/memories", c.baseURL, c.apiVersion)

	c.log.Info("evermem client initialized",
		"base_url", c.baseURL,
		"api_version", c.apiVersion,
		"authenticated", c.apiKey != "")

	return c
}

// EnsureConversationMeta registers conversation metadata for a group. The
// local deployment requires it before the first store; the call is idempotent
// and callers treat failure as non-fatal.
func (c *Client) EnsureConversationMeta(ctx context.Context, groupID string) error {
	payload := map[string]any{
		"version":          "1.0.0",
		"scene":            "assistant",
		"scene_desc":       map[string]any{},
		"name":             "MCP Memory Group",
		"description":      "MCP Memory - assistant scene",
		"group_id":         groupID,
		"created_at":       time.Now().UTC().Format(time.RFC3339),
		"default_timezone": "UTC",
		"user_details": map[string]any{
			"User":      map[string]any{"full_name": "User", "role": "user", "extra": map[string]any{}},
			"Assistant": map[string]any{"full_name": "AI Assistant", "role": "assistant", "extra": map[string]any{}},
		},
		"tags": []string{"mcp", "assistant"},
	}

	_, err := c.do(ctx, http.MethodPost, c.memoriesURL+"/conversation-meta", nil, payload)
	return err
}

// Store submits one record for asynchronous ingestion. Retry semantics are
// at-least-once: a transient failure may resubmit, and duplicates are the
// service's problem to reconcile.
func (c *Client) Store(ctx context.Context, req StoreRequest) (*StoreResult, error) {
	if strings.TrimSpace(req.Content) == "" {
		return nil, &ValidationError{Field: "content", Reason: "must not be empty"}
	}
	if req.UserID == "" {
		return nil, &ValidationError{Field: "user_id", Reason: "must not be empty"}
	}
	if req.GroupID == "" {
		return nil, &ValidationError{Field: "group_id", Reason: "must not be empty"}
	}

	role := req.Role
	if role == "" {
		role = "user"
	}

	payload := map[string]any{
		"message_id":  newMessageID(),
		"create_time": time.Now().UTC().Format(time.RFC3339),
		"sender":      req.UserID,
		"sender_name": req.UserID,
		"group_id":    req.GroupID,
		"content":     req.Content,
		"role":        role,
		"type":        "text",
		"scene":       "assistant",
	}
	if req.MemoryType != "" {
		payload["memory_type"] = req.MemoryType
	}
	if req.Flush {
		payload["flush"] = true
	}

	body, err := c.do(ctx, http.MethodPost, c.memoriesURL, nil, payload)
	if err != nil {
		return nil, err
	}

	var raw struct {
		Status    string `json:"status"`
		Message   string `json:"message"`
		RequestID string `json:"request_id"`
	}
	if err := json.Unmarshal(unwrapResult(body), &raw); err != nil {
		return nil, fmt.Errorf("decode store response: %w", err)
	}

	return &StoreResult{
		Status:    parseStoreStatus(raw.Status),
		Message:   raw.Message,
		RequestID: raw.RequestID,
	}, nil
}

// Search issues a retrieval request with the given strategy. Results come
// back in the server's relevance order; the client never re-ranks. An empty
// result set is a valid outcome, not an error.
func (c *Client) Search(ctx context.Context, req SearchRequest) (*SearchResult, error) {
	if strings.TrimSpace(req.Query) == "" {
		return nil, &ValidationError{Field: "query", Reason: "must not be empty"}
	}
	if req.UserID == "" {
		return nil, &ValidationError{Field: "user_id", Reason: "must not be empty"}
	}

	method := req.Method
	if method == "" {
		method = DefaultMethod
	}
	if !method.Valid() {
		return nil, &InvalidMethodError{Method: string(method)}
	}

	limit := clamp(req.Limit, defaultSearchLimit, maxSearchLimit)
	searchURL := c.memoriesURL + "/search"

	var body []byte
	var err error
	if c.apiKey != "" {
		// Cloud API searches via POST with a JSON body.
		payload := map[string]any{
			"user_id":         req.UserID,
			"query":           req.Query,
			"retrieve_method": string(method),
			"top_k":           limit,
		}
		if req.GroupID != "" {
			payload["group_id"] = req.GroupID
		}
		if len(req.MemoryTypes) > 0 {
			payload["memory_types"] = req.MemoryTypes
		}
		body, err = c.do(ctx, http.MethodPost, searchURL, nil, payload)
	} else {
		// Local API searches via GET with query parameters.
		q := url.Values{}
		q.Set("user_id", req.UserID)
		q.Set("query", req.Query)
		q.Set("retrieve_method", string(method))
		q.Set("top_k", strconv.Itoa(limit))
		if req.GroupID != "" {
			q.Set("group_id", req.GroupID)
		}
		for _, t := range req.MemoryTypes {
			q.Add("memory_types", t)
		}
		body, err = c.do(ctx, http.MethodGet, searchURL, q, nil)
	}
	if err != nil {
		return nil, err
	}

	return decodeMemories(body)
}

// List browses stored memories by type and namespace. Ordering is whatever
// the server returned, typically recency; the client passes it through.
func (c *Client) List(ctx context.Context, req ListRequest) ([]MemoryRecord, error) {
	if req.UserID == "" {
		return nil, &ValidationError{Field: "user_id", Reason: "must not be empty"}
	}

	memoryType := req.MemoryType
	if memoryType == "" {
		memoryType = "episodic_memory"
	}

	q := url.Values{}
	q.Set("user_id", req.UserID)
	q.Set("memory_type", memoryType)
	q.Set("limit", strconv.Itoa(clamp(req.Limit, defaultListLimit, maxListLimit)))
	if req.GroupID != "" {
		q.Set("group_id", req.GroupID)
	}

	body, err := c.do(ctx, http.MethodGet, c.memoriesURL, q, nil)
	if err != nil {
		return nil, err
	}

	result, err := decodeMemories(body)
	if err != nil {
		return nil, err
	}
	return result.Records, nil
}

// Delete removes exactly one record by identifier. Success is reported only
// on explicit confirmation from the service, never on request acceptance.
func (c *Client) Delete(ctx context.Context, memoryID string) error {
	if strings.TrimSpace(memoryID) == "" {
		return &ValidationError{Field: "memory_id", Reason: "must not be empty"}
	}

	body, err := c.do(ctx, http.MethodDelete, c.memoriesURL+"/"+url.PathEscape(memoryID), nil, nil)
	if err != nil {
		return err
	}

	var raw struct {
		Status  string `json:"status"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(unwrapResult(body), &raw); err != nil {
		return fmt.Errorf("decode delete response: %w", err)
	}

	switch strings.ToLower(raw.Status) {
	case "deleted", "ok", "success":
		return nil
	}
	return fmt.Errorf("delete not confirmed by service: status %q %s", raw.Status, raw.Message)
}

// do runs one request through the retry policy and returns the response body.
func (c *Client) do(ctx context.Context, method, rawURL string, query url.Values, body any) ([]byte, error) {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
	}

	var respBody []byte
	err := c.retry.Do(ctx, func() error {
		data, err := c.attempt(ctx, method, rawURL, query, payload)
		if err != nil {
			return err
		}
		respBody = data
		return nil
	})
	if err != nil {
		c.log.Warn("request failed", "method", method, "url", rawURL, "error", err)
		return nil, err
	}
	return respBody, nil
}

func (c *Client) attempt(ctx context.Context, method, rawURL string, query url.Values, payload []byte) ([]byte, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
	if err != nil {
		return nil, err
	}
	if query != nil {
		req.URL.RawQuery = query.Encode()
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, classifyTransport(ctx, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", ErrTransient, err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return data, nil
	}
	return nil, classifyStatus(resp.StatusCode, data)
}

func classifyTransport(ctx context.Context, err error) error {
	// A cancelled call must surface as cancelled, not be retried as a
	// connection failure.
	if errors.Is(err, context.Canceled) || ctx.Err() == context.Canceled {
		return fmt.Errorf("request cancelled: %w", context.Canceled)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	var ue *url.Error
	if errors.As(err, &ue) && ue.Timeout() {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return fmt.Errorf("%w: %v", ErrTransient, err)
}

func classifyStatus(code int, body []byte) error {
	msg := apiMessage(body)
	switch {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return fmt.Errorf("%w (HTTP %d): %s", ErrAuthentication, code, msg)
	case code == http.StatusNotFound:
		return fmt.Errorf("%w (HTTP %d): %s", ErrNotFound, code, msg)
	case code == http.StatusRequestTimeout:
		return fmt.Errorf("%w: HTTP %d: %s", ErrTimeout, code, msg)
	case code >= 500:
		return fmt.Errorf("%w: HTTP %d: %s", ErrTransient, code, msg)
	default:
		return &APIError{StatusCode: code, Message: msg}
	}
}

func apiMessage(body []byte) string {
	var raw struct {
		Message string `json:"message"`
		Detail  string `json:"detail"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &raw); err == nil {
		for _, s := range []string{raw.Message, raw.Detail, raw.Error} {
			if s != "" {
				return s
			}
		}
	}
	if len(body) > 200 {
		body = body[:200]
	}
	return strings.TrimSpace(string(body))
}

func parseStoreStatus(status string) StoreStatus {
	switch strings.ToLower(status) {
	case "committed":
		return StatusCommitted
	case "rejected", "failed", "error":
		return StatusRejected
	default:
		// Accepted-for-ingestion responses vary in phrasing; anything the
		// service accepted is queued until extraction commits it.
		return StatusQueued
	}
}

func clamp(limit, fallback, max int) int {
	if limit <= 0 {
		return fallback
	}
	if limit > max {
		return max
	}
	return limit
}

func newMessageID() string {
	id := uuid.New()
	return fmt.Sprintf("msg_%x", id[:6])
}
