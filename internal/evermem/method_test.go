package evermem

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMethodSupportedSet(t *testing.T) {
	for _, name := range []string{"hybrid", "keyword", "vector", "rrf", "agentic"} {
		m, err := ParseMethod(name)
		require.NoError(t, err, name)
		assert.Equal(t, RetrieveMethod(name), m)
	}
}

func TestParseMethodEmptyDefaultsToHybrid(t *testing.T) {
	m, err := ParseMethod("")
	require.NoError(t, err)
	assert.Equal(t, MethodHybrid, m)
}

func TestParseMethodRejectsUnknown(t *testing.T) {
	_, err := ParseMethod("bogus")
	require.Error(t, err)

	var invalid *InvalidMethodError
	require.True(t, errors.As(err, &invalid))
	assert.Equal(t, "bogus", invalid.Method)

	// The error names the offending value and the whole valid set.
	msg := err.Error()
	assert.Contains(t, msg, "bogus")
	for _, name := range MethodNames() {
		assert.Contains(t, msg, name)
	}
}

func TestMethodValid(t *testing.T) {
	assert.True(t, MethodKeyword.Valid())
	assert.False(t, RetrieveMethod("fulltext").Valid())
	assert.False(t, RetrieveMethod("").Valid())
}
