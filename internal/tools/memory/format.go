package memory

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/wyh0626/evermemos-mcp-server/internal/evermem"
)

const contentPreviewLimit = 300

func formatStoreResult(res *evermem.StoreResult) string {
	var b strings.Builder
	b.WriteString("Memory stored successfully.\n")
	fmt.Fprintf(&b, "- Status: %s", res.Status)
	if res.Message != "" {
		fmt.Fprintf(&b, "\n- Message: %s", res.Message)
	}
	if res.RequestID != "" {
		fmt.Fprintf(&b, "\n- Request ID: %s", res.RequestID)
	}
	return b.String()
}

func formatSearchResults(result *evermem.SearchResult) string {
	if len(result.Records) == 0 {
		return "No relevant memories found."
	}

	lines := []string{fmt.Sprintf("Found %d relevant memories:\n", result.Total)}
	lines = append(lines, formatRecords(result.Records)...)
	return strings.Join(lines, "\n")
}

func formatListResults(records []evermem.MemoryRecord) string {
	if len(records) == 0 {
		return "No memories found for this user."
	}

	lines := []string{fmt.Sprintf("Retrieved %d memories:\n", len(records))}
	lines = append(lines, formatRecords(records)...)
	return strings.Join(lines, "\n")
}

func formatRecords(records []evermem.MemoryRecord) []string {
	var lines []string
	var currentGroup string

	for _, rec := range records {
		if rec.GroupID != "" && rec.GroupID != currentGroup {
			currentGroup = rec.GroupID
			lines = append(lines, fmt.Sprintf("── Group: %s ──", currentGroup))
		}
		lines = append(lines, formatRecord(rec))
	}
	return lines
}

func formatRecord(rec evermem.MemoryRecord) string {
	var parts []string
	if rec.Score > 0 {
		parts = append(parts, fmt.Sprintf("[relevance: %.2f]", rec.Score))
	}
	if rec.CreatedAt != "" {
		parts = append(parts, "("+rec.CreatedAt+")")
	}
	if rec.MemoryType != "" {
		parts = append(parts, "["+rec.MemoryType+"]")
	}

	content := truncate(rec.Content, contentPreviewLimit)
	if content == "" {
		content = "(no content)"
	}

	return "• " + strings.Join(parts, " ") + "\n  " + content + "\n"
}

func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit]) + "..."
}
