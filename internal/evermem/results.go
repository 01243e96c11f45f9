package evermem

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// The service returns memories in two shapes: a flat list of memory objects,
// or a grouped list where each entry is {group_id: [memory, ...]} with a
// parallel scores entry of {group_id: [score, ...]}. Responses may also be
// wrapped in a top-level "result" envelope. Everything below reduces those
// shapes to []MemoryRecord in server order, without re-ranking.

type wireMemory struct {
	ID         string  `json:"id"`
	MemoryID   string  `json:"memory_id"`
	Content    string  `json:"content"`
	Episode    string  `json:"episode"`
	Summary    string  `json:"summary"`
	MemoryType string  `json:"memory_type"`
	Timestamp  string  `json:"timestamp"`
	CreateTime string  `json:"create_time"`
	Role       string  `json:"role"`
	UserID     string  `json:"user_id"`
	GroupID    string  `json:"group_id"`
	Score      float64 `json:"relevance_score"`
}

type memoriesPayload struct {
	Memories   []json.RawMessage `json:"memories"`
	Scores     []json.RawMessage `json:"scores"`
	TotalCount int               `json:"total_count"`
}

func (w wireMemory) toRecord(groupID string, score float64) MemoryRecord {
	content := w.Episode
	if content == "" {
		content = w.Summary
	}
	if content == "" {
		content = w.Content
	}

	id := w.MemoryID
	if id == "" {
		id = w.ID
	}

	gid := w.GroupID
	if gid == "" {
		gid = groupID
	}

	created := w.Timestamp
	if created == "" {
		created = w.CreateTime
	}

	if score == 0 {
		score = w.Score
	}

	return MemoryRecord{
		ID:         id,
		Content:    content,
		Role:       w.Role,
		MemoryType: w.MemoryType,
		UserID:     w.UserID,
		GroupID:    gid,
		CreatedAt:  created,
		Score:      score,
	}
}

// unwrapResult strips the optional {"result": ...} envelope.
func unwrapResult(body []byte) []byte {
	var env struct {
		Result json.RawMessage `json:"result"`
	}
	if err := json.Unmarshal(body, &env); err == nil &&
		len(env.Result) > 0 && string(env.Result) != "null" {
		return env.Result
	}
	return body
}

type groupEntry struct {
	id       string
	memories []wireMemory
}

// groupedEntries decodes an entry of the form {group_id: [memory, ...]},
// keeping the groups in the order they appear on the wire. Encoding a map
// would lose that order, so the object is walked token by token. ok is false
// when the entry is not shaped that way.
func groupedEntries(raw json.RawMessage) ([]groupEntry, bool) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil || tok != json.Delim('{') {
		return nil, false
	}

	var entries []groupEntry
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, false
		}
		groupID, ok := tok.(string)
		if !ok {
			return nil, false
		}
		var memories []wireMemory
		if err := dec.Decode(&memories); err != nil {
			return nil, false
		}
		entries = append(entries, groupEntry{id: groupID, memories: memories})
	}
	return entries, len(entries) > 0
}

func decodeMemories(body []byte) (*SearchResult, error) {
	var payload memoriesPayload
	if err := json.Unmarshal(unwrapResult(body), &payload); err != nil {
		return nil, fmt.Errorf("decode memories response: %w", err)
	}

	records := make([]MemoryRecord, 0, len(payload.Memories))

	for i, raw := range payload.Memories {
		// Grouped entry: every value is a list of memories keyed by group.
		if entries, ok := groupedEntries(raw); ok {
			groupScores := map[string][]float64{}
			if i < len(payload.Scores) {
				_ = json.Unmarshal(payload.Scores[i], &groupScores)
			}
			for _, entry := range entries {
				scores := groupScores[entry.id]
				for j, mem := range entry.memories {
					var score float64
					if j < len(scores) {
						score = scores[j]
					}
					records = append(records, mem.toRecord(entry.id, score))
				}
			}
			continue
		}

		var mem wireMemory
		if err := json.Unmarshal(raw, &mem); err != nil {
			return nil, fmt.Errorf("decode memory entry: %w", err)
		}
		var score float64
		if i < len(payload.Scores) {
			_ = json.Unmarshal(payload.Scores[i], &score)
		}
		records = append(records, mem.toRecord("", score))
	}

	total := payload.TotalCount
	if total == 0 {
		total = len(records)
	}

	return &SearchResult{Total: total, Records: records}, nil
}
