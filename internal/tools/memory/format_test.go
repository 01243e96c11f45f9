package memory

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wyh0626/evermemos-mcp-server/internal/evermem"
)

func TestFormatStoreResult(t *testing.T) {
	text := formatStoreResult(&evermem.StoreResult{
		Status:    evermem.StatusQueued,
		Message:   "accepted",
		RequestID: "req-1",
	})

	assert.Contains(t, text, "Memory stored successfully")
	assert.Contains(t, text, "Status: queued")
	assert.Contains(t, text, "Message: accepted")
	assert.Contains(t, text, "Request ID: req-1")
}

func TestFormatStoreResultOmitsEmptyFields(t *testing.T) {
	text := formatStoreResult(&evermem.StoreResult{Status: evermem.StatusCommitted})

	assert.Contains(t, text, "Status: committed")
	assert.NotContains(t, text, "Message:")
	assert.NotContains(t, text, "Request ID:")
}

func TestFormatSearchResultsEmpty(t *testing.T) {
	text := formatSearchResults(&evermem.SearchResult{})
	assert.Equal(t, "No relevant memories found.", text)
}

func TestFormatListResultsEmpty(t *testing.T) {
	text := formatListResults(nil)
	assert.Equal(t, "No memories found for this user.", text)
}

func TestFormatSearchResultsRecords(t *testing.T) {
	text := formatSearchResults(&evermem.SearchResult{
		Total: 2,
		Records: []evermem.MemoryRecord{
			{Content: "uses PostgreSQL", MemoryType: "episodic_memory", CreatedAt: "2026-08-01T10:00:00Z", Score: 0.93},
			{Content: "prefers tabs", Score: 0.41},
		},
	})

	assert.Contains(t, text, "Found 2 relevant memories")
	assert.Contains(t, text, "[relevance: 0.93]")
	assert.Contains(t, text, "(2026-08-01T10:00:00Z)")
	assert.Contains(t, text, "[episodic_memory]")
	assert.Contains(t, text, "uses PostgreSQL")
	assert.Contains(t, text, "prefers tabs")
}

func TestFormatRecordsGroupHeaders(t *testing.T) {
	lines := formatRecords([]evermem.MemoryRecord{
		{Content: "a", GroupID: "proj_a"},
		{Content: "b", GroupID: "proj_a"},
		{Content: "c", GroupID: "proj_b"},
	})

	text := strings.Join(lines, "\n")
	assert.Equal(t, 1, strings.Count(text, "── Group: proj_a ──"))
	assert.Equal(t, 1, strings.Count(text, "── Group: proj_b ──"))
}

func TestFormatRecordNoContent(t *testing.T) {
	assert.Contains(t, formatRecord(evermem.MemoryRecord{}), "(no content)")
}

func TestTruncateRuneSafe(t *testing.T) {
	long := strings.Repeat("é", contentPreviewLimit+10)
	got := truncate(long, contentPreviewLimit)

	assert.True(t, strings.HasSuffix(got, "..."))
	assert.Equal(t, contentPreviewLimit, len([]rune(strings.TrimSuffix(got, "..."))))

	short := "short"
	assert.Equal(t, short, truncate(short, contentPreviewLimit))
}
