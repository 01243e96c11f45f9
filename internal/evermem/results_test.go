package evermem

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeMemoriesFlat(t *testing.T) {
	body := []byte(`{
		"result": {
			"memories": [
				{"memory_id": "m1", "episode": "uses PostgreSQL", "memory_type": "episodic_memory", "timestamp": "2026-08-01T10:00:00Z"},
				{"id": "m2", "summary": "prefers tabs", "memory_type": "event_log"}
			],
			"scores": [0.91, 0.4],
			"total_count": 2
		}
	}`)

	result, err := decodeMemories(body)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Total)
	require.Len(t, result.Records, 2)

	assert.Equal(t, "m1", result.Records[0].ID)
	assert.Equal(t, "uses PostgreSQL", result.Records[0].Content)
	assert.Equal(t, 0.91, result.Records[0].Score)
	assert.Equal(t, "2026-08-01T10:00:00Z", result.Records[0].CreatedAt)

	assert.Equal(t, "m2", result.Records[1].ID)
	assert.Equal(t, "prefers tabs", result.Records[1].Content)
	assert.Equal(t, 0.4, result.Records[1].Score)
}

func TestDecodeMemoriesGrouped(t *testing.T) {
	body := []byte(`{
		"result": {
			"memories": [
				{"proj_a": [
					{"memory_id": "a1", "episode": "deploys on Fridays"},
					{"memory_id": "a2", "summary": "owns billing service"}
				]}
			],
			"scores": [{"proj_a": [0.8, 0.5]}],
			"total_count": 2
		}
	}`)

	result, err := decodeMemories(body)
	require.NoError(t, err)
	require.Len(t, result.Records, 2)

	assert.Equal(t, "proj_a", result.Records[0].GroupID)
	assert.Equal(t, "deploys on Fridays", result.Records[0].Content)
	assert.Equal(t, 0.8, result.Records[0].Score)
	assert.Equal(t, "owns billing service", result.Records[1].Content)
	assert.Equal(t, 0.5, result.Records[1].Score)
}

func TestDecodeMemoriesGroupedKeepsWireOrder(t *testing.T) {
	// The server ranks groups; zeta first on the wire must stay first even
	// though alpha sorts before it.
	body := []byte(`{
		"result": {
			"memories": [
				{"zeta": [
					{"memory_id": "z1", "episode": "top ranked"}
				],
				"alpha": [
					{"memory_id": "a1", "episode": "lower ranked"}
				]}
			],
			"scores": [{"zeta": [0.9], "alpha": [0.2]}],
			"total_count": 2
		}
	}`)

	result, err := decodeMemories(body)
	require.NoError(t, err)
	require.Len(t, result.Records, 2)

	assert.Equal(t, "z1", result.Records[0].ID)
	assert.Equal(t, "zeta", result.Records[0].GroupID)
	assert.Equal(t, 0.9, result.Records[0].Score)
	assert.Equal(t, "a1", result.Records[1].ID)
	assert.Equal(t, "alpha", result.Records[1].GroupID)
	assert.Equal(t, 0.2, result.Records[1].Score)
}

func TestDecodeMemoriesWithoutEnvelope(t *testing.T) {
	body := []byte(`{"memories": [{"id": "m1", "content": "raw content"}]}`)

	result, err := decodeMemories(body)
	require.NoError(t, err)
	require.Len(t, result.Records, 1)
	assert.Equal(t, "raw content", result.Records[0].Content)
	assert.Equal(t, 1, result.Total)
}

func TestDecodeMemoriesEmpty(t *testing.T) {
	result, err := decodeMemories([]byte(`{"result": {"memories": [], "total_count": 0}}`))
	require.NoError(t, err)
	assert.Empty(t, result.Records)
	assert.Zero(t, result.Total)
}

func TestDecodeMemoriesContentPrecedence(t *testing.T) {
	// episode wins over summary, summary over content.
	body := []byte(`{"memories": [
		{"episode": "from episode", "summary": "from summary", "content": "from content"},
		{"summary": "from summary", "content": "from content"}
	]}`)

	result, err := decodeMemories(body)
	require.NoError(t, err)
	require.Len(t, result.Records, 2)
	assert.Equal(t, "from episode", result.Records[0].Content)
	assert.Equal(t, "from summary", result.Records[1].Content)
}

func TestDecodeMemoriesInlineScore(t *testing.T) {
	body := []byte(`{"memories": [{"id": "m1", "content": "x", "relevance_score": 0.66}]}`)

	result, err := decodeMemories(body)
	require.NoError(t, err)
	require.Len(t, result.Records, 1)
	assert.Equal(t, 0.66, result.Records[0].Score)
}
